package services

import (
  "context"
  "fmt"
  "strings"
  "time"

  json "github.com/goccy/go-json"

  "github.com/yungbote/ollamadesk/internal/logger"
  "github.com/yungbote/ollamadesk/internal/templates"
  "github.com/yungbote/ollamadesk/internal/types"
)

type ExportFormat string

const (
  ExportMarkdown ExportFormat = "markdown"
  ExportJSON     ExportFormat = "json"
  ExportText     ExportFormat = "text"
)

const exportTimeLayout = "2006-01-02 15:04:05"

type ExportService interface {
  Export(ctx context.Context, conversationID int64, format ExportFormat) ([]byte, string, error)
  DefaultFilename(conv *types.Conversation, format ExportFormat) string
}

func ValidExportFormat(format ExportFormat) bool {
  switch format {
  case ExportMarkdown, ExportJSON, ExportText:
    return true
  }
  return false
}

type exportService struct {
  log         *logger.Logger
  convService ConversationService
}

func NewExportService(log *logger.Logger, convService ConversationService) ExportService {
  return &exportService{
    log:         log.With("service", "ExportService"),
    convService: convService,
  }
}

// exportDocument is the JSON rendering. Parameters appear decoded, not as
// the raw stored blob, so a malformed blob exports as the defaults it
// recovers to.
type exportDocument struct {
  Title        string                 `json:"title"`
  Model        string                 `json:"model"`
  SystemPrompt *string                `json:"system_prompt,omitempty"`
  Parameters   types.GenerationParams `json:"parameters"`
  CreatedAt    time.Time              `json:"created_at"`
  UpdatedAt    time.Time              `json:"updated_at"`
  Messages     []types.Message        `json:"messages"`
}

// Export renders the conversation in the requested format and suggests a
// filename for it.
func (es *exportService) Export(ctx context.Context, conversationID int64, format ExportFormat) ([]byte, string, error) {
  if !ValidExportFormat(format) {
    return nil, "", fmt.Errorf("unsupported export format %q", format)
  }
  conv, err := es.convService.GetConversation(ctx, conversationID)
  if err != nil {
    return nil, "", err
  }
  params, _ := conv.Params()
  filename := es.DefaultFilename(conv, format)

  switch format {
  case ExportJSON:
    doc := exportDocument{
      Title:        conv.Title,
      Model:        conv.Model,
      SystemPrompt: conv.SystemPrompt,
      Parameters:   params,
      CreatedAt:    conv.CreatedAt,
      UpdatedAt:    conv.UpdatedAt,
      Messages:     conv.Messages,
    }
    out, marshalErr := json.MarshalIndent(doc, "", "  ")
    if marshalErr != nil {
      return nil, "", fmt.Errorf("%w: encode export: %v", types.ErrStorageFailed, marshalErr)
    }
    return out, filename, nil

  default:
    data := es.templateData(conv, params)
    var rendered string
    var renderErr error
    if format == ExportMarkdown {
      rendered, renderErr = templates.RenderExportMarkdown(data)
    } else {
      rendered, renderErr = templates.RenderExportText(data)
    }
    if renderErr != nil {
      es.log.Warn("Failed to render export", "conversationID", conversationID, "format", format, "error", renderErr)
      return nil, "", renderErr
    }
    return []byte(rendered), filename, nil
  }
}

func (es *exportService) templateData(conv *types.Conversation, params types.GenerationParams) templates.ExportData {
  data := templates.ExportData{
    Title:       conv.Title,
    Model:       conv.Model,
    CreatedAt:   conv.CreatedAt.Format(exportTimeLayout),
    UpdatedAt:   conv.UpdatedAt.Format(exportTimeLayout),
    Temperature: params.Temperature,
    TopP:        params.TopP,
    TopK:        params.TopK,
    MaxTokens:   params.MaxTokens,
  }
  if conv.SystemPrompt != nil {
    data.SystemPrompt = *conv.SystemPrompt
  }
  for _, m := range conv.Messages {
    data.Messages = append(data.Messages, templates.ExportMessage{
      Role:      roleLabel(m.Role),
      Content:   m.Content,
      CreatedAt: m.CreatedAt.Format(exportTimeLayout),
    })
  }
  return data
}

// DefaultFilename turns the title into a safe filename with a timestamp,
// e.g. "my_chat_20250114_153045.md".
func (es *exportService) DefaultFilename(conv *types.Conversation, format ExportFormat) string {
  base := sanitizeFilename(conv.Title)
  if base == "" {
    base = fmt.Sprintf("conversation_%d", conv.ID)
  }
  stamp := time.Now().Format("20060102_150405")
  return fmt.Sprintf("%s_%s%s", base, stamp, formatExtension(format))
}

func formatExtension(format ExportFormat) string {
  switch format {
  case ExportJSON:
    return ".json"
  case ExportText:
    return ".txt"
  default:
    return ".md"
  }
}

func sanitizeFilename(title string) string {
  var b strings.Builder
  for _, r := range strings.ToLower(strings.TrimSpace(title)) {
    switch {
    case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
      b.WriteRune(r)
    case r == ' ', r == '-', r == '_':
      b.WriteRune('_')
    }
  }
  return strings.Trim(b.String(), "_")
}

func roleLabel(r types.Role) string {
  switch r {
  case types.RoleUser:
    return "User"
  case types.RoleAssistant:
    return "Assistant"
  case types.RoleSystem:
    return "System"
  default:
    return string(r)
  }
}
