package repos

import (
  "context"
  "fmt"
  "strings"
  "time"

  "gorm.io/gorm"

  "github.com/yungbote/ollamadesk/internal/logger"
  "github.com/yungbote/ollamadesk/internal/types"
)

type MessageRepo interface {
  Create(ctx context.Context, tx *gorm.DB, msg *types.Message) (*types.Message, error)
  GetByConversation(ctx context.Context, tx *gorm.DB, conversationID int64) ([]types.Message, error)
  CountByConversation(ctx context.Context, tx *gorm.DB, conversationID int64) (int64, error)
  Search(ctx context.Context, tx *gorm.DB, query string, conversationID *int64) ([]types.SearchResult, error)
}

type messageRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewMessageRepo(db *gorm.DB, baseLog *logger.Logger) MessageRepo {
  return &messageRepo{
    db:  db,
    log: baseLog.With("repo", "MessageRepo"),
  }
}

// Create inserts one message. The role enum is enforced here, before the
// row ever reaches the store.
func (mr *messageRepo) Create(ctx context.Context, tx *gorm.DB, msg *types.Message) (*types.Message, error) {
  if tx == nil {
    tx = mr.db
  }
  if !msg.Role.Valid() {
    return nil, fmt.Errorf("role %q: %w", msg.Role, types.ErrInvalidRole)
  }
  if err := tx.WithContext(ctx).Create(msg).Error; err != nil {
    mr.log.Error("failed to create message", "conversationID", msg.ConversationID, "error", err)
    return nil, fmt.Errorf("%w: create message: %v", types.ErrStorageFailed, err)
  }
  return msg, nil
}

func (mr *messageRepo) GetByConversation(ctx context.Context, tx *gorm.DB, conversationID int64) ([]types.Message, error) {
  if tx == nil {
    tx = mr.db
  }
  var msgs []types.Message
  if err := tx.WithContext(ctx).
    Where("conversation_id = ?", conversationID).
    Order("created_at ASC, id ASC").
    Find(&msgs).Error; err != nil {
    mr.log.Error("failed to get messages by conversation", "conversationID", conversationID, "error", err)
    return nil, fmt.Errorf("%w: get messages for conversation %d: %v", types.ErrStorageFailed, conversationID, err)
  }
  return msgs, nil
}

func (mr *messageRepo) CountByConversation(ctx context.Context, tx *gorm.DB, conversationID int64) (int64, error) {
  if tx == nil {
    tx = mr.db
  }
  var n int64
  if err := tx.WithContext(ctx).
    Model(&types.Message{}).
    Where("conversation_id = ?", conversationID).
    Count(&n).Error; err != nil {
    return 0, fmt.Errorf("%w: count messages for conversation %d: %v", types.ErrStorageFailed, conversationID, err)
  }
  return n, nil
}

// searchRow is the flat shape of the messages/conversations join.
type searchRow struct {
  ID                int64
  ConversationID    int64
  Role              types.Role
  Content           string
  CreatedAt         time.Time
  ConversationTitle string
}

// Search does a case-insensitive substring match over message content,
// newest first, optionally scoped to one conversation. LIKE wildcards in
// the query are escaped so they match literally.
func (mr *messageRepo) Search(ctx context.Context, tx *gorm.DB, query string, conversationID *int64) ([]types.SearchResult, error) {
  if tx == nil {
    tx = mr.db
  }

  pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
  q := tx.WithContext(ctx).
    Table("messages").
    Select("messages.id, messages.conversation_id, messages.role, messages.content, messages.created_at, conversations.title AS conversation_title").
    Joins("JOIN conversations ON conversations.id = messages.conversation_id").
    Where(`LOWER(messages.content) LIKE ? ESCAPE '\'`, pattern)
  if conversationID != nil {
    q = q.Where("messages.conversation_id = ?", *conversationID)
  }

  var rows []searchRow
  if err := q.Order("messages.created_at DESC, messages.id DESC").Scan(&rows).Error; err != nil {
    mr.log.Error("failed to search messages", "query", query, "error", err)
    return nil, fmt.Errorf("%w: search messages: %v", types.ErrStorageFailed, err)
  }

  results := make([]types.SearchResult, 0, len(rows))
  for _, row := range rows {
    results = append(results, types.SearchResult{
      Message: types.Message{
        ID:             row.ID,
        ConversationID: row.ConversationID,
        Role:           row.Role,
        Content:        row.Content,
        CreatedAt:      row.CreatedAt,
      },
      ConversationID:    row.ConversationID,
      ConversationTitle: row.ConversationTitle,
    })
  }
  return results, nil
}

func escapeLike(s string) string {
  r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
  return r.Replace(s)
}
