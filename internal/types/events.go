package types

// GenerationState tracks where the coordinator is in a generation's
// lifecycle. Transitions are Idle -> Streaming -> Finalizing -> Idle.
type GenerationState string

const (
  GenerationIdle       GenerationState = "idle"
  GenerationStreaming  GenerationState = "streaming"
  GenerationFinalizing GenerationState = "finalizing"
)

// Event kinds published over the socket hub while a generation runs.
const (
  EventState   = "state"
  EventDelta   = "delta"
  EventMessage = "message"
  EventError   = "error"
)

// GenerationEvent is the payload fanned out to UI subscribers. Delta
// events carry the full accumulated assistant text so far rather than
// the raw increment, so a subscriber that misses one still renders the
// right prefix on the next.
type GenerationEvent struct {
  Kind           string          `json:"kind"`
  ConversationID int64           `json:"conversation_id"`
  State          GenerationState `json:"state,omitempty"`
  Content        string          `json:"content,omitempty"`
  Message        *Message        `json:"message,omitempty"`
  Error          string          `json:"error,omitempty"`
}
