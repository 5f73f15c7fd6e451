package services

import (
  "context"
  "errors"
  "path/filepath"
  "testing"

  "gorm.io/gorm"

  "github.com/yungbote/ollamadesk/internal/db"
  "github.com/yungbote/ollamadesk/internal/logger"
  "github.com/yungbote/ollamadesk/internal/repos"
  "github.com/yungbote/ollamadesk/internal/types"
)

func newTestConversationService(t *testing.T) (ConversationService, *gorm.DB) {
  t.Helper()
  path := filepath.Join(t.TempDir(), "test.db")
  sqlite, err := db.NewSQLiteService(path, logger.NewNop())
  if err != nil {
    t.Fatalf("open sqlite: %v", err)
  }
  if err := sqlite.Migrate(); err != nil {
    t.Fatalf("migrate: %v", err)
  }
  gdb := sqlite.DB()
  convRepo := repos.NewConversationRepo(gdb, logger.NewNop())
  msgRepo := repos.NewMessageRepo(gdb, logger.NewNop())
  return NewConversationService(gdb, logger.NewNop(), convRepo, msgRepo), gdb
}

func TestCreateConversationAutoTitle(t *testing.T) {
  svc, _ := newTestConversationService(t)
  ctx := context.Background()

  first, err := svc.CreateConversation(ctx, "", "llama3.2")
  if err != nil {
    t.Fatalf("create: %v", err)
  }
  if first.Title != "Chat 1" {
    t.Fatalf("expected auto title Chat 1, got %q", first.Title)
  }

  second, err := svc.CreateConversation(ctx, "   ", "llama3.2")
  if err != nil {
    t.Fatalf("create second: %v", err)
  }
  if second.Title != "Chat 2" {
    t.Fatalf("expected auto title Chat 2, got %q", second.Title)
  }

  named, err := svc.CreateConversation(ctx, "My project", "llama3.2")
  if err != nil {
    t.Fatalf("create named: %v", err)
  }
  if named.Title != "My project" {
    t.Fatalf("explicit title should survive, got %q", named.Title)
  }
}

func TestCreateConversationStoresDefaultParams(t *testing.T) {
  svc, _ := newTestConversationService(t)
  ctx := context.Background()

  created, err := svc.CreateConversation(ctx, "c", "llama3.2")
  if err != nil {
    t.Fatalf("create: %v", err)
  }
  got, err := svc.GetConversation(ctx, created.ID)
  if err != nil {
    t.Fatalf("get: %v", err)
  }
  params, err := got.Params()
  if err != nil {
    t.Fatalf("params: %v", err)
  }
  if params != types.DefaultGenerationParams() {
    t.Fatalf("expected default params, got %+v", params)
  }
}

func TestAddMessageTouchesConversation(t *testing.T) {
  svc, _ := newTestConversationService(t)
  ctx := context.Background()

  conv, err := svc.CreateConversation(ctx, "c", "m")
  if err != nil {
    t.Fatalf("create: %v", err)
  }

  msg, err := svc.AddMessage(ctx, conv.ID, types.RoleUser, "Hi")
  if err != nil {
    t.Fatalf("add message: %v", err)
  }
  if msg.ID == 0 {
    t.Fatal("message should get an id")
  }

  got, err := svc.GetConversation(ctx, conv.ID)
  if err != nil {
    t.Fatalf("get: %v", err)
  }
  if len(got.Messages) != 1 || got.Messages[0].Content != "Hi" {
    t.Fatalf("expected the message back, got %+v", got.Messages)
  }
  if !got.UpdatedAt.After(got.CreatedAt) {
    t.Fatalf("updated_at should move past created_at: created %v updated %v", got.CreatedAt, got.UpdatedAt)
  }
}

func TestAddMessageToAbsentConversation(t *testing.T) {
  svc, _ := newTestConversationService(t)

  _, err := svc.AddMessage(context.Background(), 777, types.RoleUser, "hello?")
  if !errors.Is(err, types.ErrNotFound) {
    t.Fatalf("expected ErrNotFound, got %v", err)
  }
}

func TestDeleteConversationCascades(t *testing.T) {
  svc, gdb := newTestConversationService(t)
  ctx := context.Background()

  conv, err := svc.CreateConversation(ctx, "c", "m")
  if err != nil {
    t.Fatalf("create: %v", err)
  }
  if _, err := svc.AddMessage(ctx, conv.ID, types.RoleUser, "one"); err != nil {
    t.Fatalf("add: %v", err)
  }
  if _, err := svc.AddMessage(ctx, conv.ID, types.RoleAssistant, "two"); err != nil {
    t.Fatalf("add: %v", err)
  }

  if err := svc.DeleteConversation(ctx, conv.ID); err != nil {
    t.Fatalf("delete: %v", err)
  }
  if err := svc.DeleteConversation(ctx, conv.ID); err != nil {
    t.Fatalf("repeat delete should be a no-op, got %v", err)
  }

  _, err = svc.GetConversation(ctx, conv.ID)
  if !errors.Is(err, types.ErrNotFound) {
    t.Fatalf("expected ErrNotFound after delete, got %v", err)
  }

  var orphans int64
  if err := gdb.Model(&types.Message{}).Where("conversation_id = ?", conv.ID).Count(&orphans).Error; err != nil {
    t.Fatalf("count orphans: %v", err)
  }
  if orphans != 0 {
    t.Fatalf("cascade should remove messages, found %d", orphans)
  }
}

func TestSearchMessagesEmptyQuery(t *testing.T) {
  svc, _ := newTestConversationService(t)
  ctx := context.Background()

  conv, err := svc.CreateConversation(ctx, "c", "m")
  if err != nil {
    t.Fatalf("create: %v", err)
  }
  if _, err := svc.AddMessage(ctx, conv.ID, types.RoleUser, "anything at all"); err != nil {
    t.Fatalf("add: %v", err)
  }

  for _, q := range []string{"", "   ", "\t"} {
    results, searchErr := svc.SearchMessages(ctx, q, nil)
    if searchErr != nil {
      t.Fatalf("empty query should not error, got %v", searchErr)
    }
    if len(results) != 0 {
      t.Fatalf("empty query should match nothing, got %d hits", len(results))
    }
  }
}

func TestSearchMessagesScoping(t *testing.T) {
  svc, _ := newTestConversationService(t)
  ctx := context.Background()

  c1, _ := svc.CreateConversation(ctx, "one", "m")
  c2, _ := svc.CreateConversation(ctx, "two", "m")
  if _, err := svc.AddMessage(ctx, c1.ID, types.RoleUser, "the quick brown fox"); err != nil {
    t.Fatalf("add: %v", err)
  }
  if _, err := svc.AddMessage(ctx, c2.ID, types.RoleUser, "a quick reply"); err != nil {
    t.Fatalf("add: %v", err)
  }

  all, err := svc.SearchMessages(ctx, "quick", nil)
  if err != nil {
    t.Fatalf("search: %v", err)
  }
  if len(all) != 2 {
    t.Fatalf("expected 2 hits across conversations, got %d", len(all))
  }

  scoped, err := svc.SearchMessages(ctx, "quick", &c1.ID)
  if err != nil {
    t.Fatalf("scoped search: %v", err)
  }
  if len(scoped) != 1 || scoped[0].ConversationID != c1.ID {
    t.Fatalf("expected only the c1 hit, got %+v", scoped)
  }
}

func TestHistoryIncludesSystemPrompt(t *testing.T) {
  svc, _ := newTestConversationService(t)
  ctx := context.Background()

  conv, err := svc.CreateConversation(ctx, "c", "m")
  if err != nil {
    t.Fatalf("create: %v", err)
  }
  if _, err := svc.AddMessage(ctx, conv.ID, types.RoleUser, "Hi"); err != nil {
    t.Fatalf("add: %v", err)
  }
  if _, err := svc.AddMessage(ctx, conv.ID, types.RoleAssistant, "Hello!"); err != nil {
    t.Fatalf("add: %v", err)
  }

  _, history, err := svc.History(ctx, conv.ID)
  if err != nil {
    t.Fatalf("history: %v", err)
  }
  if len(history) != 2 {
    t.Fatalf("no prompt set, expected 2 entries, got %d", len(history))
  }

  prompt := "Answer briefly."
  if err := svc.UpdateSystemPrompt(ctx, conv.ID, &prompt); err != nil {
    t.Fatalf("set prompt: %v", err)
  }
  _, history, err = svc.History(ctx, conv.ID)
  if err != nil {
    t.Fatalf("history with prompt: %v", err)
  }
  if len(history) != 3 {
    t.Fatalf("expected synthetic system entry, got %d entries", len(history))
  }
  if history[0].Role != "system" || history[0].Content != prompt {
    t.Fatalf("system entry should lead: %+v", history[0])
  }
  if history[1].Role != "user" || history[2].Role != "assistant" {
    t.Fatalf("stored messages should follow in order: %+v", history[1:])
  }

  // The synthetic entry is never a stored row.
  conv2, err := svc.GetConversation(ctx, conv.ID)
  if err != nil {
    t.Fatalf("get: %v", err)
  }
  if len(conv2.Messages) != 2 {
    t.Fatalf("system prompt must not be stored as a message, have %d rows", len(conv2.Messages))
  }
}

func TestGetConversationRecoversMalformedParams(t *testing.T) {
  svc, gdb := newTestConversationService(t)
  ctx := context.Background()

  conv, err := svc.CreateConversation(ctx, "c", "m")
  if err != nil {
    t.Fatalf("create: %v", err)
  }
  if err := gdb.Exec(`UPDATE conversations SET model_parameters = 'not json' WHERE id = ?`, conv.ID).Error; err != nil {
    t.Fatalf("corrupt blob: %v", err)
  }

  got, err := svc.GetConversation(ctx, conv.ID)
  if err != nil {
    t.Fatalf("get should survive a corrupt blob, got %v", err)
  }
  params, perr := got.Params()
  if !errors.Is(perr, types.ErrMalformedParams) {
    t.Fatalf("expected ErrMalformedParams from Params, got %v", perr)
  }
  if params != types.DefaultGenerationParams() {
    t.Fatalf("expected recovered defaults, got %+v", params)
  }
}

func TestUpdateModelParametersRoundTrip(t *testing.T) {
  svc, _ := newTestConversationService(t)
  ctx := context.Background()

  conv, err := svc.CreateConversation(ctx, "c", "m")
  if err != nil {
    t.Fatalf("create: %v", err)
  }
  want := types.GenerationParams{Temperature: 1.1, TopP: 0.3, TopK: 5, MaxTokens: 64}
  if err := svc.UpdateModelParameters(ctx, conv.ID, want); err != nil {
    t.Fatalf("update params: %v", err)
  }
  got, err := svc.GetConversation(ctx, conv.ID)
  if err != nil {
    t.Fatalf("get: %v", err)
  }
  params, err := got.Params()
  if err != nil {
    t.Fatalf("params: %v", err)
  }
  if params != want {
    t.Fatalf("round trip mismatch: want %+v got %+v", want, params)
  }

  err = svc.UpdateModelParameters(ctx, 99999, want)
  if !errors.Is(err, types.ErrNotFound) {
    t.Fatalf("expected ErrNotFound for absent id, got %v", err)
  }
}
