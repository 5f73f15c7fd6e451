package llm

import (
  "context"
  "time"

  "github.com/yungbote/ollamadesk/internal/types"
)

// ChatMessage is one entry of the history sent with an inference request.
// The conversation's system prompt, when present, rides along as a
// synthetic leading entry with role "system".
type ChatMessage struct {
  Role    string `json:"role"`
  Content string `json:"content"`
}

// ModelInfo describes one model installed on the inference server.
type ModelInfo struct {
  Name       string    `json:"name"`
  Size       int64     `json:"size"`
  Digest     string    `json:"digest"`
  ModifiedAt time.Time `json:"modified_at"`
}

type ChatRequest struct {
  Model    string
  Messages []ChatMessage
  Stream   bool
  Params   types.GenerationParams
}

type StreamEventKind string

const (
  StreamDelta StreamEventKind = "delta"
  StreamEnd   StreamEventKind = "end"
  StreamError StreamEventKind = "error"
)

// StreamEvent is one of a closed set of cases: a text delta, a clean end
// of stream, or a terminal error. Exactly one terminal event (end or
// error) arrives per request, after which the channel is closed.
type StreamEvent struct {
  Kind  StreamEventKind
  Delta string
  Err   error
}

// Gateway is the client contract for a locally hosted inference server.
type Gateway interface {
  // ListModels fetches the installed models. Returns
  // types.ErrGatewayUnavailable when the server cannot be reached.
  ListModels(ctx context.Context) ([]ModelInfo, error)

  // Chat starts one generation and returns the event stream for it. A
  // non-streaming request still yields exactly one delta carrying the
  // complete text, then an end event, so callers handle one shape.
  // Cancelling ctx stops the producer.
  Chat(ctx context.Context, req ChatRequest) (<-chan StreamEvent, error)

  // Unload hints the server to release the model's resources. Advisory:
  // callers ignore the error.
  Unload(ctx context.Context, model string) error
}
