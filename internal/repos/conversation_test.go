package repos

import (
  "context"
  "errors"
  "path/filepath"
  "testing"
  "time"

  "gorm.io/gorm"

  "github.com/yungbote/ollamadesk/internal/db"
  "github.com/yungbote/ollamadesk/internal/logger"
  "github.com/yungbote/ollamadesk/internal/types"
)

func newTestDB(t *testing.T) *gorm.DB {
  t.Helper()
  path := filepath.Join(t.TempDir(), "test.db")
  svc, err := db.NewSQLiteService(path, logger.NewNop())
  if err != nil {
    t.Fatalf("open sqlite: %v", err)
  }
  if err := svc.Migrate(); err != nil {
    t.Fatalf("migrate: %v", err)
  }
  return svc.DB()
}

func mustCreateConversation(t *testing.T, repo ConversationRepo, title, model string) *types.Conversation {
  t.Helper()
  conv, err := repo.Create(context.Background(), nil, &types.Conversation{Title: title, Model: model})
  if err != nil {
    t.Fatalf("create conversation %q: %v", title, err)
  }
  return conv
}

func TestConversationCreateAndGet(t *testing.T) {
  gdb := newTestDB(t)
  repo := NewConversationRepo(gdb, logger.NewNop())
  ctx := context.Background()

  created := mustCreateConversation(t, repo, "First chat", "llama3.2")
  if created.ID == 0 {
    t.Fatal("create should assign an id")
  }

  got, err := repo.GetByID(ctx, nil, created.ID)
  if err != nil {
    t.Fatalf("get: %v", err)
  }
  if got.Title != "First chat" || got.Model != "llama3.2" {
    t.Fatalf("unexpected conversation: %+v", got)
  }
  if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
    t.Fatal("timestamps should be set on create")
  }
  if got.SystemPrompt != nil {
    t.Fatalf("system prompt should start unset, got %q", *got.SystemPrompt)
  }
}

func TestConversationGetNotFound(t *testing.T) {
  gdb := newTestDB(t)
  repo := NewConversationRepo(gdb, logger.NewNop())

  _, err := repo.GetByID(context.Background(), nil, 9999)
  if !errors.Is(err, types.ErrNotFound) {
    t.Fatalf("expected ErrNotFound, got %v", err)
  }
}

func TestConversationListOrdering(t *testing.T) {
  gdb := newTestDB(t)
  repo := NewConversationRepo(gdb, logger.NewNop())
  ctx := context.Background()

  c1 := mustCreateConversation(t, repo, "one", "m")
  c2 := mustCreateConversation(t, repo, "two", "m")
  c3 := mustCreateConversation(t, repo, "three", "m")

  // Give c2 and c3 an identical updated_at so the id tie-break decides,
  // then push c1 to the front.
  tie := time.Now().Add(time.Minute)
  if err := repo.Touch(ctx, nil, c2.ID, tie); err != nil {
    t.Fatalf("touch c2: %v", err)
  }
  if err := repo.Touch(ctx, nil, c3.ID, tie); err != nil {
    t.Fatalf("touch c3: %v", err)
  }
  if err := repo.Touch(ctx, nil, c1.ID, tie.Add(time.Minute)); err != nil {
    t.Fatalf("touch c1: %v", err)
  }

  got, err := repo.List(ctx, nil)
  if err != nil {
    t.Fatalf("list: %v", err)
  }
  if len(got) != 3 {
    t.Fatalf("expected 3 conversations, got %d", len(got))
  }
  wantOrder := []int64{c1.ID, c3.ID, c2.ID}
  for i, want := range wantOrder {
    if got[i].ID != want {
      t.Fatalf("position %d: expected id %d, got %d", i, want, got[i].ID)
    }
  }
}

func TestConversationRename(t *testing.T) {
  gdb := newTestDB(t)
  repo := NewConversationRepo(gdb, logger.NewNop())
  ctx := context.Background()

  conv := mustCreateConversation(t, repo, "old", "m")
  if err := repo.Rename(ctx, nil, conv.ID, "new title"); err != nil {
    t.Fatalf("rename: %v", err)
  }
  got, err := repo.GetByID(ctx, nil, conv.ID)
  if err != nil {
    t.Fatalf("get: %v", err)
  }
  if got.Title != "new title" {
    t.Fatalf("expected renamed title, got %q", got.Title)
  }

  err = repo.Rename(ctx, nil, 424242, "whatever")
  if !errors.Is(err, types.ErrNotFound) {
    t.Fatalf("rename of absent id should be ErrNotFound, got %v", err)
  }
}

func TestConversationSystemPrompt(t *testing.T) {
  gdb := newTestDB(t)
  repo := NewConversationRepo(gdb, logger.NewNop())
  ctx := context.Background()

  conv := mustCreateConversation(t, repo, "c", "m")
  prompt := "You are a helpful assistant."
  if err := repo.SetSystemPrompt(ctx, nil, conv.ID, &prompt); err != nil {
    t.Fatalf("set system prompt: %v", err)
  }
  got, err := repo.GetByID(ctx, nil, conv.ID)
  if err != nil {
    t.Fatalf("get: %v", err)
  }
  if got.SystemPrompt == nil || *got.SystemPrompt != prompt {
    t.Fatalf("expected stored prompt, got %v", got.SystemPrompt)
  }

  if err := repo.SetSystemPrompt(ctx, nil, conv.ID, nil); err != nil {
    t.Fatalf("clear system prompt: %v", err)
  }
  got, err = repo.GetByID(ctx, nil, conv.ID)
  if err != nil {
    t.Fatalf("get after clear: %v", err)
  }
  if got.SystemPrompt != nil {
    t.Fatalf("expected cleared prompt, got %q", *got.SystemPrompt)
  }
}

func TestConversationSetParamsNotFound(t *testing.T) {
  gdb := newTestDB(t)
  repo := NewConversationRepo(gdb, logger.NewNop())

  raw, err := types.DefaultGenerationParams().ToJSON()
  if err != nil {
    t.Fatalf("to json: %v", err)
  }
  err = repo.SetParams(context.Background(), nil, 31337, raw)
  if !errors.Is(err, types.ErrNotFound) {
    t.Fatalf("expected ErrNotFound, got %v", err)
  }
}

func TestConversationTouchBumpsUpdatedAt(t *testing.T) {
  gdb := newTestDB(t)
  repo := NewConversationRepo(gdb, logger.NewNop())
  ctx := context.Background()

  conv := mustCreateConversation(t, repo, "c", "m")
  later := conv.UpdatedAt.Add(time.Hour)
  if err := repo.Touch(ctx, nil, conv.ID, later); err != nil {
    t.Fatalf("touch: %v", err)
  }
  got, err := repo.GetByID(ctx, nil, conv.ID)
  if err != nil {
    t.Fatalf("get: %v", err)
  }
  if !got.UpdatedAt.After(conv.UpdatedAt) {
    t.Fatalf("updated_at should move forward: before %v after %v", conv.UpdatedAt, got.UpdatedAt)
  }
  if !got.CreatedAt.Equal(conv.CreatedAt) {
    t.Fatalf("created_at should not move: before %v after %v", conv.CreatedAt, got.CreatedAt)
  }
}

func TestConversationDeleteIdempotent(t *testing.T) {
  gdb := newTestDB(t)
  repo := NewConversationRepo(gdb, logger.NewNop())
  ctx := context.Background()

  conv := mustCreateConversation(t, repo, "c", "m")
  if err := repo.Delete(ctx, nil, conv.ID); err != nil {
    t.Fatalf("delete: %v", err)
  }
  if err := repo.Delete(ctx, nil, conv.ID); err != nil {
    t.Fatalf("second delete should be a no-op, got %v", err)
  }
  _, err := repo.GetByID(ctx, nil, conv.ID)
  if !errors.Is(err, types.ErrNotFound) {
    t.Fatalf("expected ErrNotFound after delete, got %v", err)
  }
}
