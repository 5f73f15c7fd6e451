package handlers

import (
  "context"
  "net/http"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"
  "github.com/gorilla/websocket"

  "github.com/yungbote/ollamadesk/internal/logger"
  "github.com/yungbote/ollamadesk/internal/socket"
)

var upgrader = websocket.Upgrader{
  CheckOrigin: func(r *http.Request) bool {
    // The bridge binds to loopback only; browsers on other origins never
    // reach it.
    return true
  },
}

func WsHandler(hub *socket.Hub, log *logger.Logger) gin.HandlerFunc {
  return func(c *gin.Context) {
    conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
    if err != nil {
      log.Warn("Failed to upgrade to websocket", "error", err)
      return
    }
    // The socket outlives the HTTP request; its lifetime is the pumps'.
    ctx, cancel := context.WithCancel(context.Background())
    client := socket.NewClient(conn, hub, uuid.New(), cancel, log)

    hub.Subscribe(client, []string{socket.ChannelGeneration})

    go client.ReadLoop(ctx)
    go client.WriteLoop(ctx)
  }
}
