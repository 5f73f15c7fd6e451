package llm

import (
  "context"
  "errors"
  "fmt"
  "io"
  "net/url"
  "time"

  openai "github.com/sashabaranov/go-openai"

  "github.com/yungbote/ollamadesk/internal/logger"
  "github.com/yungbote/ollamadesk/internal/types"
)

// openaiGateway speaks the OpenAI-compatible chat API that ollama and
// most local inference servers also expose. TopK has no equivalent on
// this API and is ignored.
type openaiGateway struct {
  log    *logger.Logger
  client *openai.Client
}

func NewOpenAIGateway(baseURL, apiKey string, log *logger.Logger) Gateway {
  cfg := openai.DefaultConfig(apiKey)
  if baseURL != "" {
    cfg.BaseURL = baseURL
  }
  return &openaiGateway{
    log:    log.With("gateway", "OpenAIGateway"),
    client: openai.NewClientWithConfig(cfg),
  }
}

func (g *openaiGateway) ListModels(ctx context.Context) ([]ModelInfo, error) {
  list, err := g.client.ListModels(ctx)
  if err != nil {
    if isConnectionError(err) {
      g.log.Warn("failed to reach inference server for model list", "error", err)
      return nil, fmt.Errorf("%w: %v", types.ErrGatewayUnavailable, err)
    }
    return nil, fmt.Errorf("%w: list models: %v", types.ErrGatewayFailed, err)
  }
  models := make([]ModelInfo, 0, len(list.Models))
  for _, m := range list.Models {
    models = append(models, ModelInfo{
      Name:       m.ID,
      ModifiedAt: time.Unix(m.CreatedAt, 0),
    })
  }
  return models, nil
}

func (g *openaiGateway) Chat(ctx context.Context, req ChatRequest) (<-chan StreamEvent, error) {
  ccReq := openai.ChatCompletionRequest{
    Model:       req.Model,
    Messages:    toOpenAIMessages(req.Messages),
    Temperature: float32(req.Params.Temperature),
    TopP:        float32(req.Params.TopP),
    MaxTokens:   req.Params.MaxTokens,
    Stream:      req.Stream,
  }

  if !req.Stream {
    resp, err := g.client.CreateChatCompletion(ctx, ccReq)
    if err != nil {
      if isConnectionError(err) {
        return nil, fmt.Errorf("%w: %v", types.ErrGatewayUnavailable, err)
      }
      return nil, fmt.Errorf("%w: chat completion: %v", types.ErrGatewayFailed, err)
    }
    out := make(chan StreamEvent)
    go func() {
      defer close(out)
      send := func(ev StreamEvent) bool {
        select {
        case out <- ev:
          return true
        case <-ctx.Done():
          return false
        }
      }
      if len(resp.Choices) > 0 && resp.Choices[0].Message.Content != "" {
        if !send(StreamEvent{Kind: StreamDelta, Delta: resp.Choices[0].Message.Content}) {
          return
        }
      }
      send(StreamEvent{Kind: StreamEnd})
    }()
    return out, nil
  }

  stream, err := g.client.CreateChatCompletionStream(ctx, ccReq)
  if err != nil {
    if isConnectionError(err) {
      g.log.Warn("failed to reach inference server for chat", "model", req.Model, "error", err)
      return nil, fmt.Errorf("%w: %v", types.ErrGatewayUnavailable, err)
    }
    return nil, fmt.Errorf("%w: open chat stream: %v", types.ErrGatewayFailed, err)
  }

  out := make(chan StreamEvent)
  go func() {
    defer close(out)
    defer stream.Close()
    send := func(ev StreamEvent) bool {
      select {
      case out <- ev:
        return true
      case <-ctx.Done():
        return false
      }
    }
    for {
      chunk, err := stream.Recv()
      if err != nil {
        if errors.Is(err, io.EOF) {
          send(StreamEvent{Kind: StreamEnd})
        } else if ctx.Err() != nil {
          // Cancelled; consumer is gone.
        } else {
          send(StreamEvent{Kind: StreamError, Err: fmt.Errorf("%w: read chat stream: %v", types.ErrGatewayFailed, err)})
        }
        return
      }
      if len(chunk.Choices) == 0 {
        continue
      }
      if delta := chunk.Choices[0].Delta.Content; delta != "" {
        if !send(StreamEvent{Kind: StreamDelta, Delta: delta}) {
          return
        }
      }
    }
  }()
  return out, nil
}

// Unload is a no-op on the OpenAI API, which has no memory-management
// verbs.
func (g *openaiGateway) Unload(ctx context.Context, model string) error {
  return nil
}

func toOpenAIMessages(msgs []ChatMessage) []openai.ChatCompletionMessage {
  out := make([]openai.ChatCompletionMessage, 0, len(msgs))
  for _, m := range msgs {
    out = append(out, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
  }
  return out
}

func isConnectionError(err error) bool {
  var urlErr *url.Error
  return errors.As(err, &urlErr)
}
