package socket

import (
    "sync"

    "fmt"

    "github.com/google/uuid"
    "github.com/yungbote/ollamadesk/internal/logger"
)

// Well-known channels. Generation state changes go out on ChannelGeneration;
// per-conversation streams go out on ConversationChannel(id).
const ChannelGeneration = "generation"

func ConversationChannel(id int64) string {
    return fmt.Sprintf("conversation:%d", id)
}

type Hub struct {
    log      *logger.Logger
    mu       sync.RWMutex
    channels map[string]map[uuid.UUID]*Client
}

func NewHub(logger *logger.Logger) *Hub {
    return &Hub{
        log:      logger,
        channels: make(map[string]map[uuid.UUID]*Client),
    }
}

func (h *Hub) Subscribe(client *Client, channels []string) {
    h.mu.Lock()
    defer h.mu.Unlock()

    for _, ch := range channels {
        if h.channels[ch] == nil {
            h.channels[ch] = make(map[uuid.UUID]*Client)
        }
        h.channels[ch][client.ID] = client
    }
    h.log.Debug("Client subscribed", "client", client.ID, "channels", channels)
}

func (h *Hub) Unsubscribe(client *Client) {
    h.mu.Lock()
    defer h.mu.Unlock()

    for ch, clientsMap := range h.channels {
        if _, ok := clientsMap[client.ID]; ok {
            delete(clientsMap, client.ID)
            if len(clientsMap) == 0 {
                delete(h.channels, ch)
            }
        }
    }
    h.log.Debug("Client unsubscribed from all channels", "client", client.ID)
}

func (h *Hub) UnsubscribeFromChannel(client *Client, channel string) {
    h.mu.Lock()
    defer h.mu.Unlock()
    if clientsMap, ok := h.channels[channel]; ok {
        delete(clientsMap, client.ID)
        if len(clientsMap) == 0 {
            delete(h.channels, channel)
        }
    }
}

// Broadcast fans a message out to every subscriber of its channel. Sends
// never block; a client whose outbound buffer is full misses the message
// and catches up on the next snapshot.
func (h *Hub) Broadcast(msg Message) {
    h.mu.RLock()
    defer h.mu.RUnlock()

    clientsMap, ok := h.channels[msg.Channel]
    if !ok {
        return
    }
    for _, client := range clientsMap {
        select {
        case client.Outbound <- msg:
        default:
            h.log.Warn("Dropping message to client; outbound buffer full", "client", client.ID, "channel", msg.Channel)
        }
    }
}
