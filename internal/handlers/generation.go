package handlers

import (
  "net/http"
  "strings"

  "github.com/gin-gonic/gin"

  "github.com/yungbote/ollamadesk/internal/services"
)

type GenerationHandler struct {
  genService services.GenerationService
}

func NewGenerationHandler(genService services.GenerationService) *GenerationHandler {
  return &GenerationHandler{genService: genService}
}

// SendMessage starts a generation. The reply streams out over the socket
// hub; this endpoint only accepts the request.
func (gh *GenerationHandler) SendMessage(c *gin.Context) {
  id, ok := conversationID(c)
  if !ok {
    return
  }
  var req struct {
    Content string `json:"content"`
  }
  if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Content) == "" {
    c.JSON(http.StatusBadRequest, gin.H{"error": "content is required"})
    return
  }
  if err := gh.genService.Send(c.Request.Context(), id, req.Content); err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusAccepted, gin.H{"state": gh.genService.State()})
}

func (gh *GenerationHandler) CancelGeneration(c *gin.Context) {
  cancelled := gh.genService.Cancel()
  c.JSON(http.StatusOK, gin.H{"cancelled": cancelled, "state": gh.genService.State()})
}

func (gh *GenerationHandler) GetState(c *gin.Context) {
  c.JSON(http.StatusOK, gin.H{
    "state": gh.genService.State(),
    "model": gh.genService.ActiveModel(),
  })
}

func (gh *GenerationHandler) ListModels(c *gin.Context) {
  models, err := gh.genService.Models(c.Request.Context())
  if err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusOK, gin.H{"models": models, "active": gh.genService.ActiveModel()})
}

func (gh *GenerationHandler) SelectModel(c *gin.Context) {
  var req struct {
    Model string `json:"model"`
  }
  if err := c.ShouldBindJSON(&req); err != nil || req.Model == "" {
    c.JSON(http.StatusBadRequest, gin.H{"error": "model is required"})
    return
  }
  if err := gh.genService.UseModel(c.Request.Context(), req.Model); err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusOK, gin.H{"model": req.Model})
}
