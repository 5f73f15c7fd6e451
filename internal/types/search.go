package types

// SearchResult pairs a matching message with enough conversation context
// to show and jump to it.
type SearchResult struct {
  Message           Message `json:"message"`
  ConversationID    int64   `json:"conversation_id"`
  ConversationTitle string  `json:"conversation_title"`
}
