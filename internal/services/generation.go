package services

import (
  "context"
  "fmt"
  "strings"
  "sync"

  "github.com/google/uuid"

  "github.com/yungbote/ollamadesk/internal/llm"
  "github.com/yungbote/ollamadesk/internal/logger"
  "github.com/yungbote/ollamadesk/internal/socket"
  "github.com/yungbote/ollamadesk/internal/types"
)

// EventPublisher is the slice of the socket hub the coordinator needs.
type EventPublisher interface {
  Broadcast(msg socket.Message)
}

// GenerationService coordinates at most one streaming generation per
// process. Callers observe progress through State snapshots and the
// events fanned out over the hub; the worker's internals are never
// shared.
type GenerationService interface {
  Send(ctx context.Context, conversationID int64, content string) error
  Cancel() bool
  State() types.GenerationState
  Models(ctx context.Context) ([]llm.ModelInfo, error)
  UseModel(ctx context.Context, model string) error
  ActiveModel() string
}

type generationService struct {
  log         *logger.Logger
  convService ConversationService
  gateway     llm.Gateway
  settings    SettingsService
  hub         EventPublisher

  mu             sync.Mutex
  state          types.GenerationState
  conversationID int64
  cancelFn       context.CancelFunc
  cancelled      bool
  activeModel    string
}

func NewGenerationService(
  log *logger.Logger,
  convService ConversationService,
  gateway llm.Gateway,
  settings SettingsService,
  hub EventPublisher,
) GenerationService {
  serviceLog := log.With("service", "GenerationService")
  return &generationService{
    log:         serviceLog,
    convService: convService,
    gateway:     gateway,
    settings:    settings,
    hub:         hub,
    state:       types.GenerationIdle,
    activeModel: settings.GetString(SettingLastModel, "llama3.2"),
  }
}

// ----------------------------------------------------------------------------
// Send
// ----------------------------------------------------------------------------

// Send persists the user's message, then hands the conversation transcript
// to the gateway and spawns the single worker that consumes the stream.
// Anything but the Idle state rejects with ErrGenerationBusy; the machine
// is reserved before any I/O so two concurrent callers cannot both win.
func (gs *generationService) Send(ctx context.Context, conversationID int64, content string) error {
  genCtx, cancel := context.WithCancel(context.Background())
  genID := uuid.NewString()

  gs.mu.Lock()
  if gs.state != types.GenerationIdle {
    gs.mu.Unlock()
    cancel()
    return fmt.Errorf("a generation is already running: %w", types.ErrGenerationBusy)
  }
  gs.state = types.GenerationStreaming
  gs.conversationID = conversationID
  gs.cancelFn = cancel
  gs.cancelled = false
  gs.mu.Unlock()

  revert := func() {
    cancel()
    gs.mu.Lock()
    gs.state = types.GenerationIdle
    gs.conversationID = 0
    gs.cancelFn = nil
    gs.cancelled = false
    gs.mu.Unlock()
  }

  // The user's message is durable before any streaming begins.
  if _, err := gs.convService.AddMessage(ctx, conversationID, types.RoleUser, content); err != nil {
    revert()
    return err
  }

  conv, history, err := gs.convService.History(ctx, conversationID)
  if err != nil {
    revert()
    return err
  }
  params, _ := conv.Params()
  stream := gs.settings.GetBool(SettingStreamResponses, true)

  events, err := gs.gateway.Chat(genCtx, llm.ChatRequest{
    Model:    conv.Model,
    Messages: history,
    Stream:   stream,
    Params:   params,
  })
  if err != nil {
    gs.log.Warn("Gateway rejected chat request :(", "generationID", genID, "conversationID", conversationID, "model", conv.Model, "error", err)
    revert()
    gs.publish(conversationID, types.GenerationEvent{
      Kind:           types.EventError,
      ConversationID: conversationID,
      Error:          err.Error(),
    })
    return err
  }

  gs.log.Info("Generation started", "generationID", genID, "conversationID", conversationID, "model", conv.Model, "stream", stream)
  gs.publishState(conversationID, types.GenerationStreaming)
  go gs.run(genCtx, cancel, genID, conversationID, events)
  return nil
}

// ----------------------------------------------------------------------------
// worker
// ----------------------------------------------------------------------------

// run is the only goroutine that touches the stream. Deltas append in
// arrival order; each append publishes the accumulated prefix so far, so
// subscribers that miss an event still render correctly from the next.
func (gs *generationService) run(ctx context.Context, cancel context.CancelFunc, genID string, conversationID int64, events <-chan llm.StreamEvent) {
  var acc strings.Builder
  var genErr error

consume:
  for ev := range events {
    switch ev.Kind {
    case llm.StreamDelta:
      if gs.isCancelled() {
        break consume
      }
      acc.WriteString(ev.Delta)
      gs.publish(conversationID, types.GenerationEvent{
        Kind:           types.EventDelta,
        ConversationID: conversationID,
        Content:        acc.String(),
      })
    case llm.StreamEnd:
      break consume
    case llm.StreamError:
      genErr = ev.Err
      break consume
    }
  }
  // Unblocks the producer if we stopped consuming early.
  cancel()

  gs.finalize(genID, conversationID, acc.String(), genErr)
}

// finalize persists whatever text arrived, non-empty partials included,
// then returns the machine to Idle no matter what went wrong.
func (gs *generationService) finalize(genID string, conversationID int64, text string, genErr error) {
  gs.setState(types.GenerationFinalizing)
  gs.publishState(conversationID, types.GenerationFinalizing)

  if text != "" {
    msg, err := gs.convService.AddMessage(context.Background(), conversationID, types.RoleAssistant, text)
    if err != nil {
      gs.log.Error("Failed to persist assistant message :(", "generationID", genID, "conversationID", conversationID, "error", err)
      gs.publish(conversationID, types.GenerationEvent{
        Kind:           types.EventError,
        ConversationID: conversationID,
        Error:          "failed to save assistant reply: " + err.Error(),
      })
    } else {
      gs.publish(conversationID, types.GenerationEvent{
        Kind:           types.EventMessage,
        ConversationID: conversationID,
        Message:        msg,
      })
    }
  }
  if genErr != nil {
    gs.log.Warn("Generation ended with gateway error", "generationID", genID, "conversationID", conversationID, "error", genErr)
    gs.publish(conversationID, types.GenerationEvent{
      Kind:           types.EventError,
      ConversationID: conversationID,
      Error:          genErr.Error(),
    })
  }

  gs.mu.Lock()
  gs.state = types.GenerationIdle
  gs.conversationID = 0
  gs.cancelFn = nil
  gs.cancelled = false
  gs.mu.Unlock()
  gs.publishState(conversationID, types.GenerationIdle)
  gs.log.Info("Generation finished", "generationID", genID, "conversationID", conversationID, "chars", len(text), "hadError", genErr != nil)
}

// ----------------------------------------------------------------------------
// Cancel / State
// ----------------------------------------------------------------------------

// Cancel requests a cooperative stop. Text received so far survives
// finalization; Cancel reports whether a running generation was told to
// stop.
func (gs *generationService) Cancel() bool {
  gs.mu.Lock()
  defer gs.mu.Unlock()
  if gs.state != types.GenerationStreaming {
    return false
  }
  gs.cancelled = true
  if gs.cancelFn != nil {
    gs.cancelFn()
  }
  gs.log.Info("Cancellation requested", "conversationID", gs.conversationID)
  return true
}

func (gs *generationService) State() types.GenerationState {
  gs.mu.Lock()
  defer gs.mu.Unlock()
  return gs.state
}

func (gs *generationService) isCancelled() bool {
  gs.mu.Lock()
  defer gs.mu.Unlock()
  return gs.cancelled
}

func (gs *generationService) setState(st types.GenerationState) {
  gs.mu.Lock()
  gs.state = st
  gs.mu.Unlock()
}

// ----------------------------------------------------------------------------
// publishing
// ----------------------------------------------------------------------------

func (gs *generationService) publish(conversationID int64, ev types.GenerationEvent) {
  gs.hub.Broadcast(socket.Message{
    Channel: socket.ConversationChannel(conversationID),
    Payload: ev,
  })
}

// publishState mirrors phase changes onto the global channel too, so a
// client that only watches the status bar needs no per-conversation
// subscription.
func (gs *generationService) publishState(conversationID int64, st types.GenerationState) {
  ev := types.GenerationEvent{
    Kind:           types.EventState,
    ConversationID: conversationID,
    State:          st,
  }
  gs.hub.Broadcast(socket.Message{Channel: socket.ChannelGeneration, Payload: ev})
  gs.hub.Broadcast(socket.Message{Channel: socket.ConversationChannel(conversationID), Payload: ev})
}

// ----------------------------------------------------------------------------
// Models
// ----------------------------------------------------------------------------

func (gs *generationService) Models(ctx context.Context) ([]llm.ModelInfo, error) {
  return gs.gateway.ListModels(ctx)
}

// UseModel records the active model for new conversations and asks the
// gateway to evict the previous one. The unload is advisory; its failure
// never blocks the switch.
func (gs *generationService) UseModel(ctx context.Context, model string) error {
  gs.mu.Lock()
  prev := gs.activeModel
  gs.activeModel = model
  gs.mu.Unlock()

  if prev != "" && prev != model {
    go func() {
      if err := gs.gateway.Unload(context.Background(), prev); err != nil {
        gs.log.Debug("Best-effort unload of previous model failed", "model", prev, "error", err)
      }
    }()
  }
  if err := gs.settings.Set(SettingLastModel, model); err != nil {
    gs.log.Warn("Failed to persist model selection", "model", model, "error", err)
    return err
  }
  gs.log.Info("Active model switched", "from", prev, "to", model)
  return nil
}

func (gs *generationService) ActiveModel() string {
  gs.mu.Lock()
  defer gs.mu.Unlock()
  return gs.activeModel
}
