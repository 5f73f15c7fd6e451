package llm

import (
  "bytes"
  "context"
  "fmt"
  "io"
  "net/http"
  "time"

  json "github.com/goccy/go-json"

  "github.com/yungbote/ollamadesk/internal/logger"
  "github.com/yungbote/ollamadesk/internal/types"
)

const DefaultOllamaBaseURL = "http://localhost:11434"

type ollamaGateway struct {
  log     *logger.Logger
  baseURL string
  // client carries a timeout for the short calls (tags, unload);
  // streamClient deliberately has none, generations run until the model
  // finishes or the request context is cancelled.
  client       *http.Client
  streamClient *http.Client
}

func NewOllamaGateway(baseURL string, log *logger.Logger) Gateway {
  if baseURL == "" {
    baseURL = DefaultOllamaBaseURL
  }
  return &ollamaGateway{
    log:          log.With("gateway", "OllamaGateway"),
    baseURL:      baseURL,
    client:       &http.Client{Timeout: 10 * time.Second},
    streamClient: &http.Client{},
  }
}

type ollamaModel struct {
  Name       string    `json:"name"`
  Size       int64     `json:"size"`
  Digest     string    `json:"digest"`
  ModifiedAt time.Time `json:"modified_at"`
}

type ollamaTagsResponse struct {
  Models []ollamaModel `json:"models"`
}

func (og *ollamaGateway) ListModels(ctx context.Context) ([]ModelInfo, error) {
  req, err := http.NewRequestWithContext(ctx, http.MethodGet, og.baseURL+"/api/tags", nil)
  if err != nil {
    return nil, fmt.Errorf("%w: build tags request: %v", types.ErrGatewayFailed, err)
  }
  resp, err := og.client.Do(req)
  if err != nil {
    og.log.Warn("failed to reach ollama for model list", "error", err)
    return nil, fmt.Errorf("%w: %v", types.ErrGatewayUnavailable, err)
  }
  defer resp.Body.Close()

  if resp.StatusCode < 200 || resp.StatusCode > 299 {
    body, _ := io.ReadAll(resp.Body)
    og.log.Warn("ollama tags responded with non-2xx", "statusCode", resp.StatusCode, "body", string(body))
    return nil, fmt.Errorf("%w: tags HTTP %d: %s", types.ErrGatewayFailed, resp.StatusCode, string(body))
  }

  var tags ollamaTagsResponse
  if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
    return nil, fmt.Errorf("%w: decode tags response: %v", types.ErrGatewayFailed, err)
  }

  models := make([]ModelInfo, 0, len(tags.Models))
  for _, m := range tags.Models {
    models = append(models, ModelInfo{
      Name:       m.Name,
      Size:       m.Size,
      Digest:     m.Digest,
      ModifiedAt: m.ModifiedAt,
    })
  }
  return models, nil
}

type ollamaOptions struct {
  Temperature float64 `json:"temperature"`
  TopP        float64 `json:"top_p"`
  TopK        int     `json:"top_k"`
  NumPredict  int     `json:"num_predict"`
}

type ollamaChatRequest struct {
  Model    string        `json:"model"`
  Messages []ChatMessage `json:"messages"`
  Stream   bool          `json:"stream"`
  Options  ollamaOptions `json:"options"`
}

type ollamaChatChunk struct {
  Message struct {
    Role    string `json:"role"`
    Content string `json:"content"`
  } `json:"message"`
  Done  bool   `json:"done"`
  Error string `json:"error"`
}

func (og *ollamaGateway) Chat(ctx context.Context, req ChatRequest) (<-chan StreamEvent, error) {
  payload, err := json.Marshal(ollamaChatRequest{
    Model:    req.Model,
    Messages: req.Messages,
    Stream:   req.Stream,
    Options: ollamaOptions{
      Temperature: req.Params.Temperature,
      TopP:        req.Params.TopP,
      TopK:        req.Params.TopK,
      NumPredict:  req.Params.MaxTokens,
    },
  })
  if err != nil {
    return nil, fmt.Errorf("%w: marshal chat request: %v", types.ErrGatewayFailed, err)
  }

  httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, og.baseURL+"/api/chat", bytes.NewReader(payload))
  if err != nil {
    return nil, fmt.Errorf("%w: build chat request: %v", types.ErrGatewayFailed, err)
  }
  httpReq.Header.Set("Content-Type", "application/json")

  resp, err := og.streamClient.Do(httpReq)
  if err != nil {
    og.log.Warn("failed to reach ollama for chat", "model", req.Model, "error", err)
    return nil, fmt.Errorf("%w: %v", types.ErrGatewayUnavailable, err)
  }
  if resp.StatusCode < 200 || resp.StatusCode > 299 {
    body, _ := io.ReadAll(resp.Body)
    resp.Body.Close()
    og.log.Warn("ollama chat responded with non-2xx", "statusCode", resp.StatusCode, "body", string(body))
    return nil, fmt.Errorf("%w: chat HTTP %d: %s", types.ErrGatewayFailed, resp.StatusCode, string(body))
  }

  out := make(chan StreamEvent)
  go og.pumpChat(ctx, resp.Body, out)
  return out, nil
}

// pumpChat decodes the NDJSON chat stream into events. Ollama sends one
// object per delta and a final object with done=true; a non-streaming
// request is the degenerate single-object case of the same format.
func (og *ollamaGateway) pumpChat(ctx context.Context, body io.ReadCloser, out chan<- StreamEvent) {
  defer close(out)
  defer body.Close()

  send := func(ev StreamEvent) bool {
    select {
    case out <- ev:
      return true
    case <-ctx.Done():
      return false
    }
  }

  dec := json.NewDecoder(body)
  for {
    var chunk ollamaChatChunk
    if err := dec.Decode(&chunk); err != nil {
      if err == io.EOF {
        // Server closed the stream without a done marker; treat what we
        // have as complete.
        send(StreamEvent{Kind: StreamEnd})
      } else if ctx.Err() != nil {
        // Cancelled mid-read; the consumer already stopped listening.
      } else {
        send(StreamEvent{Kind: StreamError, Err: fmt.Errorf("%w: decode chat stream: %v", types.ErrGatewayFailed, err)})
      }
      return
    }
    if chunk.Error != "" {
      send(StreamEvent{Kind: StreamError, Err: fmt.Errorf("%w: %s", types.ErrGatewayFailed, chunk.Error)})
      return
    }
    if chunk.Message.Content != "" {
      if !send(StreamEvent{Kind: StreamDelta, Delta: chunk.Message.Content}) {
        return
      }
    }
    if chunk.Done {
      send(StreamEvent{Kind: StreamEnd})
      return
    }
  }
}

type ollamaGenerateRequest struct {
  Model     string `json:"model"`
  Prompt    string `json:"prompt"`
  KeepAlive int    `json:"keep_alive"`
  Stream    bool   `json:"stream"`
}

// Unload asks ollama to evict the model from memory by issuing an empty
// generate with keep_alive 0.
func (og *ollamaGateway) Unload(ctx context.Context, model string) error {
  payload, err := json.Marshal(ollamaGenerateRequest{Model: model, KeepAlive: 0, Stream: false})
  if err != nil {
    return fmt.Errorf("%w: marshal unload request: %v", types.ErrGatewayFailed, err)
  }
  req, err := http.NewRequestWithContext(ctx, http.MethodPost, og.baseURL+"/api/generate", bytes.NewReader(payload))
  if err != nil {
    return fmt.Errorf("%w: build unload request: %v", types.ErrGatewayFailed, err)
  }
  req.Header.Set("Content-Type", "application/json")

  resp, err := og.client.Do(req)
  if err != nil {
    og.log.Debug("unload request failed", "model", model, "error", err)
    return fmt.Errorf("%w: %v", types.ErrGatewayUnavailable, err)
  }
  defer resp.Body.Close()
  if resp.StatusCode < 200 || resp.StatusCode > 299 {
    body, _ := io.ReadAll(resp.Body)
    og.log.Debug("unload responded with non-2xx", "model", model, "statusCode", resp.StatusCode, "body", string(body))
    return fmt.Errorf("%w: unload HTTP %d", types.ErrGatewayFailed, resp.StatusCode)
  }
  return nil
}
