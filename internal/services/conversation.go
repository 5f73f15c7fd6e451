package services

import (
  "context"
  "fmt"
  "strings"

  "gorm.io/gorm"

  "github.com/yungbote/ollamadesk/internal/llm"
  "github.com/yungbote/ollamadesk/internal/logger"
  "github.com/yungbote/ollamadesk/internal/repos"
  "github.com/yungbote/ollamadesk/internal/types"
)

type ConversationService interface {
  CreateConversation(ctx context.Context, title, model string) (*types.Conversation, error)
  GetConversation(ctx context.Context, id int64) (*types.Conversation, error)
  ListConversations(ctx context.Context) ([]*types.Conversation, error)
  AddMessage(ctx context.Context, conversationID int64, role types.Role, content string) (*types.Message, error)
  RenameConversation(ctx context.Context, id int64, title string) error
  UpdateSystemPrompt(ctx context.Context, id int64, systemPrompt *string) error
  UpdateModelParameters(ctx context.Context, id int64, params types.GenerationParams) error
  DeleteConversation(ctx context.Context, id int64) error
  SearchMessages(ctx context.Context, query string, conversationID *int64) ([]types.SearchResult, error)
  History(ctx context.Context, conversationID int64) (*types.Conversation, []llm.ChatMessage, error)
}

type conversationService struct {
  db               *gorm.DB
  log              *logger.Logger
  conversationRepo repos.ConversationRepo
  messageRepo      repos.MessageRepo
}

func NewConversationService(
  db *gorm.DB,
  log *logger.Logger,
  conversationRepo repos.ConversationRepo,
  messageRepo repos.MessageRepo,
) ConversationService {
  serviceLog := log.With("service", "ConversationService")
  return &conversationService{
    db:               db,
    log:              serviceLog,
    conversationRepo: conversationRepo,
    messageRepo:      messageRepo,
  }
}

// ----------------------------------------------------------------------------
// CreateConversation
// ----------------------------------------------------------------------------

func (cs *conversationService) CreateConversation(ctx context.Context, title, model string) (*types.Conversation, error) {
  paramsJSON, err := types.DefaultGenerationParams().ToJSON()
  if err != nil {
    return nil, fmt.Errorf("%w: encode default parameters: %v", types.ErrStorageFailed, err)
  }
  conv := &types.Conversation{
    Title:           strings.TrimSpace(title),
    Model:           model,
    ModelParameters: paramsJSON,
  }
  err = cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    if conv.Title == "" {
      count, countErr := cs.conversationRepo.Count(ctx, tx)
      if countErr != nil {
        return countErr
      }
      conv.Title = fmt.Sprintf("Chat %d", count+1)
    }
    _, createErr := cs.conversationRepo.Create(ctx, tx, conv)
    return createErr
  })
  if err != nil {
    cs.log.Warn("Failed to create conversation", "error", err)
    return nil, err
  }
  conv.Messages = []types.Message{}
  cs.log.Info("Created conversation :)", "conversationID", conv.ID, "title", conv.Title, "model", conv.Model)
  return conv, nil
}

// ----------------------------------------------------------------------------
// GetConversation
// ----------------------------------------------------------------------------

func (cs *conversationService) GetConversation(ctx context.Context, id int64) (*types.Conversation, error) {
  var conv *types.Conversation
  err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    found, getErr := cs.conversationRepo.GetByID(ctx, tx, id)
    if getErr != nil {
      return getErr
    }
    msgs, msgErr := cs.messageRepo.GetByConversation(ctx, tx, id)
    if msgErr != nil {
      return msgErr
    }
    found.Messages = msgs
    conv = found
    return nil
  })
  if err != nil {
    return nil, err
  }
  // A corrupt parameter blob is recovered with defaults, never surfaced.
  if _, perr := conv.Params(); perr != nil {
    cs.log.Warn("Recovered malformed model parameters with defaults", "conversationID", id, "error", perr)
  }
  return conv, nil
}

// ----------------------------------------------------------------------------
// ListConversations
// ----------------------------------------------------------------------------

func (cs *conversationService) ListConversations(ctx context.Context) ([]*types.Conversation, error) {
  convs, err := cs.conversationRepo.List(ctx, nil)
  if err != nil {
    cs.log.Warn("Failed to list conversations", "error", err)
    return nil, err
  }
  return convs, nil
}

// ----------------------------------------------------------------------------
// AddMessage
// ----------------------------------------------------------------------------

// AddMessage inserts the message and bumps the parent's updated_at inside
// one transaction, so an interleaved reader never sees one without the
// other.
func (cs *conversationService) AddMessage(ctx context.Context, conversationID int64, role types.Role, content string) (*types.Message, error) {
  msg := &types.Message{
    ConversationID: conversationID,
    Role:           role,
    Content:        content,
  }
  err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    if _, getErr := cs.conversationRepo.GetByID(ctx, tx, conversationID); getErr != nil {
      return getErr
    }
    if _, createErr := cs.messageRepo.Create(ctx, tx, msg); createErr != nil {
      return createErr
    }
    return cs.conversationRepo.Touch(ctx, tx, conversationID, msg.CreatedAt)
  })
  if err != nil {
    cs.log.Warn("Failed to add message", "conversationID", conversationID, "role", role, "error", err)
    return nil, err
  }
  return msg, nil
}

// ----------------------------------------------------------------------------
// Metadata updates
// ----------------------------------------------------------------------------

func (cs *conversationService) RenameConversation(ctx context.Context, id int64, title string) error {
  if err := cs.conversationRepo.Rename(ctx, nil, id, title); err != nil {
    cs.log.Warn("Failed to rename conversation", "conversationID", id, "error", err)
    return err
  }
  return nil
}

func (cs *conversationService) UpdateSystemPrompt(ctx context.Context, id int64, systemPrompt *string) error {
  if err := cs.conversationRepo.SetSystemPrompt(ctx, nil, id, systemPrompt); err != nil {
    cs.log.Warn("Failed to update system prompt", "conversationID", id, "error", err)
    return err
  }
  return nil
}

func (cs *conversationService) UpdateModelParameters(ctx context.Context, id int64, params types.GenerationParams) error {
  raw, err := params.ToJSON()
  if err != nil {
    return fmt.Errorf("%w: encode parameters: %v", types.ErrStorageFailed, err)
  }
  if err := cs.conversationRepo.SetParams(ctx, nil, id, raw); err != nil {
    cs.log.Warn("Failed to update model parameters", "conversationID", id, "error", err)
    return err
  }
  return nil
}

// ----------------------------------------------------------------------------
// DeleteConversation
// ----------------------------------------------------------------------------

// DeleteConversation removes the conversation and, through the schema's
// cascade rule, all of its messages. Deleting an absent id is not an
// error.
func (cs *conversationService) DeleteConversation(ctx context.Context, id int64) error {
  if err := cs.conversationRepo.Delete(ctx, nil, id); err != nil {
    cs.log.Warn("Failed to delete conversation", "conversationID", id, "error", err)
    return err
  }
  cs.log.Info("Deleted conversation", "conversationID", id)
  return nil
}

// ----------------------------------------------------------------------------
// SearchMessages
// ----------------------------------------------------------------------------

func (cs *conversationService) SearchMessages(ctx context.Context, query string, conversationID *int64) ([]types.SearchResult, error) {
  if strings.TrimSpace(query) == "" {
    return []types.SearchResult{}, nil
  }
  results, err := cs.messageRepo.Search(ctx, nil, query, conversationID)
  if err != nil {
    cs.log.Warn("Message search failed", "query", query, "error", err)
    return nil, err
  }
  return results, nil
}

// ----------------------------------------------------------------------------
// History
// ----------------------------------------------------------------------------

// History assembles the chat transcript the gateway expects. A configured
// system prompt becomes a synthetic leading entry; it is never stored as a
// message row.
func (cs *conversationService) History(ctx context.Context, conversationID int64) (*types.Conversation, []llm.ChatMessage, error) {
  conv, err := cs.GetConversation(ctx, conversationID)
  if err != nil {
    return nil, nil, err
  }
  history := make([]llm.ChatMessage, 0, len(conv.Messages)+1)
  if conv.SystemPrompt != nil && strings.TrimSpace(*conv.SystemPrompt) != "" {
    history = append(history, llm.ChatMessage{Role: types.RoleSystem.String(), Content: *conv.SystemPrompt})
  }
  for _, m := range conv.Messages {
    history = append(history, llm.ChatMessage{Role: m.Role.String(), Content: m.Content})
  }
  return conv, history, nil
}
