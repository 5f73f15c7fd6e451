package socket

import (
    "testing"

    "github.com/google/uuid"
    "github.com/yungbote/ollamadesk/internal/logger"
)

func newTestClient(hub *Hub) *Client {
    return NewClient(nil, hub, uuid.New(), func() {}, logger.NewNop())
}

func receiveOne(t *testing.T, c *Client) Message {
    t.Helper()
    select {
    case msg := <-c.Outbound:
        return msg
    default:
        t.Fatal("expected a buffered message")
        return Message{}
    }
}

func TestConversationChannelName(t *testing.T) {
    if got := ConversationChannel(42); got != "conversation:42" {
        t.Fatalf("unexpected channel name %q", got)
    }
}

func TestBroadcastReachesOnlySubscribers(t *testing.T) {
    hub := NewHub(logger.NewNop())
    a := newTestClient(hub)
    b := newTestClient(hub)
    hub.Subscribe(a, []string{ChannelGeneration})
    hub.Subscribe(b, []string{ConversationChannel(1)})

    hub.Broadcast(Message{Channel: ChannelGeneration, Payload: "tick"})

    if msg := receiveOne(t, a); msg.Payload != "tick" {
        t.Fatalf("unexpected payload %v", msg.Payload)
    }
    if len(b.Outbound) != 0 {
        t.Fatal("client on another channel must not receive the message")
    }
}

func TestBroadcastNeverBlocks(t *testing.T) {
    hub := NewHub(logger.NewNop())
    c := newTestClient(hub)
    hub.Subscribe(c, []string{ChannelGeneration})

    for i := 0; i < OutboundChanBuffer; i++ {
        c.Outbound <- Message{Channel: ChannelGeneration}
    }
    // Full buffer: the send is dropped instead of wedging the caller.
    hub.Broadcast(Message{Channel: ChannelGeneration, Payload: "dropped"})

    if len(c.Outbound) != OutboundChanBuffer {
        t.Fatalf("expected the buffer to stay at %d, got %d", OutboundChanBuffer, len(c.Outbound))
    }
}

func TestUnsubscribeFromChannel(t *testing.T) {
    hub := NewHub(logger.NewNop())
    c := newTestClient(hub)
    hub.Subscribe(c, []string{ChannelGeneration, ConversationChannel(7)})

    hub.UnsubscribeFromChannel(c, ConversationChannel(7))
    hub.Broadcast(Message{Channel: ConversationChannel(7), Payload: "gone"})
    hub.Broadcast(Message{Channel: ChannelGeneration, Payload: "still here"})

    if msg := receiveOne(t, c); msg.Channel != ChannelGeneration {
        t.Fatalf("expected only the generation message, got %+v", msg)
    }
    if len(c.Outbound) != 0 {
        t.Fatal("unsubscribed channel should deliver nothing")
    }
}

func TestUnsubscribeAllChannels(t *testing.T) {
    hub := NewHub(logger.NewNop())
    c := newTestClient(hub)
    hub.Subscribe(c, []string{ChannelGeneration, ConversationChannel(7)})

    hub.Unsubscribe(c)
    hub.Broadcast(Message{Channel: ChannelGeneration})
    hub.Broadcast(Message{Channel: ConversationChannel(7)})

    if len(c.Outbound) != 0 {
        t.Fatal("fully unsubscribed client should deliver nothing")
    }
}
