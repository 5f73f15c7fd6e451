package repos

import (
  "context"
  "errors"
  "fmt"
  "time"

  "gorm.io/datatypes"
  "gorm.io/gorm"

  "github.com/yungbote/ollamadesk/internal/logger"
  "github.com/yungbote/ollamadesk/internal/types"
)

type ConversationRepo interface {
  Create(ctx context.Context, tx *gorm.DB, conv *types.Conversation) (*types.Conversation, error)
  GetByID(ctx context.Context, tx *gorm.DB, id int64) (*types.Conversation, error)
  List(ctx context.Context, tx *gorm.DB) ([]*types.Conversation, error)
  Count(ctx context.Context, tx *gorm.DB) (int64, error)
  Rename(ctx context.Context, tx *gorm.DB, id int64, title string) error
  SetSystemPrompt(ctx context.Context, tx *gorm.DB, id int64, prompt *string) error
  SetParams(ctx context.Context, tx *gorm.DB, id int64, params datatypes.JSON) error
  Touch(ctx context.Context, tx *gorm.DB, id int64, at time.Time) error
  Delete(ctx context.Context, tx *gorm.DB, id int64) error
}

type conversationRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewConversationRepo(db *gorm.DB, baseLog *logger.Logger) ConversationRepo {
  return &conversationRepo{
    db:  db,
    log: baseLog.With("repo", "ConversationRepo"),
  }
}

func (cr *conversationRepo) Create(ctx context.Context, tx *gorm.DB, conv *types.Conversation) (*types.Conversation, error) {
  if tx == nil {
    tx = cr.db
  }
  if err := tx.WithContext(ctx).Create(conv).Error; err != nil {
    cr.log.Error("failed to create conversation", "error", err)
    return nil, fmt.Errorf("%w: create conversation: %v", types.ErrStorageFailed, err)
  }
  return conv, nil
}

func (cr *conversationRepo) GetByID(ctx context.Context, tx *gorm.DB, id int64) (*types.Conversation, error) {
  if tx == nil {
    tx = cr.db
  }
  var conv types.Conversation
  if err := tx.WithContext(ctx).
    Where("id = ?", id).
    First(&conv).Error; err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return nil, fmt.Errorf("conversation %d: %w", id, types.ErrNotFound)
    }
    return nil, fmt.Errorf("%w: get conversation %d: %v", types.ErrStorageFailed, id, err)
  }
  return &conv, nil
}

// List returns conversation metadata only, most recently updated first.
// Ties fall back to id descending so the order is deterministic.
func (cr *conversationRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.Conversation, error) {
  if tx == nil {
    tx = cr.db
  }
  var convs []*types.Conversation
  if err := tx.WithContext(ctx).
    Order("updated_at DESC, id DESC").
    Find(&convs).Error; err != nil {
    cr.log.Error("failed to list conversations", "error", err)
    return nil, fmt.Errorf("%w: list conversations: %v", types.ErrStorageFailed, err)
  }
  return convs, nil
}

func (cr *conversationRepo) Count(ctx context.Context, tx *gorm.DB) (int64, error) {
  if tx == nil {
    tx = cr.db
  }
  var n int64
  if err := tx.WithContext(ctx).Model(&types.Conversation{}).Count(&n).Error; err != nil {
    return 0, fmt.Errorf("%w: count conversations: %v", types.ErrStorageFailed, err)
  }
  return n, nil
}

func (cr *conversationRepo) Rename(ctx context.Context, tx *gorm.DB, id int64, title string) error {
  return cr.updateColumns(ctx, tx, id, map[string]interface{}{"title": title})
}

func (cr *conversationRepo) SetSystemPrompt(ctx context.Context, tx *gorm.DB, id int64, prompt *string) error {
  return cr.updateColumns(ctx, tx, id, map[string]interface{}{"system_prompt": prompt})
}

func (cr *conversationRepo) SetParams(ctx context.Context, tx *gorm.DB, id int64, params datatypes.JSON) error {
  return cr.updateColumns(ctx, tx, id, map[string]interface{}{"model_parameters": params})
}

// Touch bumps updated_at, which drives list ordering.
func (cr *conversationRepo) Touch(ctx context.Context, tx *gorm.DB, id int64, at time.Time) error {
  return cr.updateColumnsAt(ctx, tx, id, map[string]interface{}{}, at)
}

// updateColumns applies a metadata mutation and bumps updated_at in the
// same statement. Absent ids surface as types.ErrNotFound.
func (cr *conversationRepo) updateColumns(ctx context.Context, tx *gorm.DB, id int64, cols map[string]interface{}) error {
  return cr.updateColumnsAt(ctx, tx, id, cols, time.Now())
}

func (cr *conversationRepo) updateColumnsAt(ctx context.Context, tx *gorm.DB, id int64, cols map[string]interface{}, at time.Time) error {
  if tx == nil {
    tx = cr.db
  }
  cols["updated_at"] = at
  res := tx.WithContext(ctx).
    Model(&types.Conversation{}).
    Where("id = ?", id).
    UpdateColumns(cols)
  if res.Error != nil {
    cr.log.Error("failed to update conversation", "id", id, "error", res.Error)
    return fmt.Errorf("%w: update conversation %d: %v", types.ErrStorageFailed, id, res.Error)
  }
  if res.RowsAffected == 0 {
    return fmt.Errorf("conversation %d: %w", id, types.ErrNotFound)
  }
  return nil
}

// Delete removes the conversation row; messages go with it via the
// ON DELETE CASCADE foreign key. Deleting an absent id is not an error.
func (cr *conversationRepo) Delete(ctx context.Context, tx *gorm.DB, id int64) error {
  if tx == nil {
    tx = cr.db
  }
  if err := tx.WithContext(ctx).
    Where("id = ?", id).
    Delete(&types.Conversation{}).Error; err != nil {
    cr.log.Error("failed to delete conversation", "id", id, "error", err)
    return fmt.Errorf("%w: delete conversation %d: %v", types.ErrStorageFailed, id, err)
  }
  return nil
}
