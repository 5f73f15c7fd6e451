package handlers

import (
  "fmt"
  "net/http"
  "strconv"

  "github.com/gin-gonic/gin"

  "github.com/yungbote/ollamadesk/internal/services"
  "github.com/yungbote/ollamadesk/internal/types"
)

type ConversationHandler struct {
  convService   services.ConversationService
  exportService services.ExportService
  genService    services.GenerationService
}

func NewConversationHandler(
  convService services.ConversationService,
  exportService services.ExportService,
  genService services.GenerationService,
) *ConversationHandler {
  return &ConversationHandler{
    convService:   convService,
    exportService: exportService,
    genService:    genService,
  }
}

func conversationID(c *gin.Context) (int64, bool) {
  id, err := strconv.ParseInt(c.Param("id"), 10, 64)
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
    return 0, false
  }
  return id, true
}

func (ch *ConversationHandler) ListConversations(c *gin.Context) {
  convs, err := ch.convService.ListConversations(c.Request.Context())
  if err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusOK, gin.H{"conversations": convs})
}

func (ch *ConversationHandler) CreateConversation(c *gin.Context) {
  var req struct {
    Title string `json:"title"`
    Model string `json:"model"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
    return
  }
  if req.Model == "" {
    req.Model = ch.genService.ActiveModel()
  }
  conv, err := ch.convService.CreateConversation(c.Request.Context(), req.Title, req.Model)
  if err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusCreated, gin.H{"conversation": conv})
}

func (ch *ConversationHandler) GetConversation(c *gin.Context) {
  id, ok := conversationID(c)
  if !ok {
    return
  }
  conv, err := ch.convService.GetConversation(c.Request.Context(), id)
  if err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusOK, gin.H{"conversation": conv})
}

func (ch *ConversationHandler) RenameConversation(c *gin.Context) {
  id, ok := conversationID(c)
  if !ok {
    return
  }
  var req struct {
    Title string `json:"title"`
  }
  if err := c.ShouldBindJSON(&req); err != nil || req.Title == "" {
    c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
    return
  }
  if err := ch.convService.RenameConversation(c.Request.Context(), id, req.Title); err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusOK, gin.H{"message": "renamed"})
}

func (ch *ConversationHandler) UpdateSystemPrompt(c *gin.Context) {
  id, ok := conversationID(c)
  if !ok {
    return
  }
  var req struct {
    SystemPrompt *string `json:"system_prompt"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
    return
  }
  if err := ch.convService.UpdateSystemPrompt(c.Request.Context(), id, req.SystemPrompt); err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusOK, gin.H{"message": "system prompt updated"})
}

func (ch *ConversationHandler) UpdateModelParameters(c *gin.Context) {
  id, ok := conversationID(c)
  if !ok {
    return
  }
  var req types.GenerationParams
  if err := c.ShouldBindJSON(&req); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
    return
  }
  if err := ch.convService.UpdateModelParameters(c.Request.Context(), id, req); err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusOK, gin.H{"message": "parameters updated"})
}

func (ch *ConversationHandler) DeleteConversation(c *gin.Context) {
  id, ok := conversationID(c)
  if !ok {
    return
  }
  if err := ch.convService.DeleteConversation(c.Request.Context(), id); err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

func (ch *ConversationHandler) ExportConversation(c *gin.Context) {
  id, ok := conversationID(c)
  if !ok {
    return
  }
  format := services.ExportFormat(c.DefaultQuery("format", string(services.ExportMarkdown)))
  if !services.ValidExportFormat(format) {
    c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported export format"})
    return
  }
  data, filename, err := ch.exportService.Export(c.Request.Context(), id, format)
  if err != nil {
    respondError(c, err)
    return
  }

  var contentType string
  switch format {
  case services.ExportJSON:
    contentType = "application/json"
  case services.ExportText:
    contentType = "text/plain; charset=utf-8"
  default:
    contentType = "text/markdown; charset=utf-8"
  }
  c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
  c.Data(http.StatusOK, contentType, data)
}
