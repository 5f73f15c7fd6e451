package handlers

import (
  "net/http"

  "github.com/gin-gonic/gin"

  "github.com/yungbote/ollamadesk/internal/services"
)

type SettingsHandler struct {
  settingsService services.SettingsService
}

func NewSettingsHandler(settingsService services.SettingsService) *SettingsHandler {
  return &SettingsHandler{settingsService: settingsService}
}

func (sh *SettingsHandler) GetSettings(c *gin.Context) {
  c.JSON(http.StatusOK, gin.H{"settings": sh.settingsService.All()})
}

func (sh *SettingsHandler) UpdateSettings(c *gin.Context) {
  var req map[string]interface{}
  if err := c.ShouldBindJSON(&req); err != nil || len(req) == 0 {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid settings payload"})
    return
  }
  for key, value := range req {
    if err := sh.settingsService.Set(key, value); err != nil {
      respondError(c, err)
      return
    }
  }
  c.JSON(http.StatusOK, gin.H{"settings": sh.settingsService.All()})
}
