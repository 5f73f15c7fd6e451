package handlers

import (
  "errors"
  "net/http"

  "github.com/gin-gonic/gin"

  "github.com/yungbote/ollamadesk/internal/types"
)

func Healthz(c *gin.Context) {
  c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func statusForError(err error) int {
  switch {
  case errors.Is(err, types.ErrNotFound):
    return http.StatusNotFound
  case errors.Is(err, types.ErrInvalidRole):
    return http.StatusBadRequest
  case errors.Is(err, types.ErrGenerationBusy):
    return http.StatusConflict
  case errors.Is(err, types.ErrGatewayUnavailable), errors.Is(err, types.ErrGatewayFailed):
    return http.StatusBadGateway
  default:
    return http.StatusInternalServerError
  }
}

func respondError(c *gin.Context, err error) {
  c.JSON(statusForError(err), gin.H{"error": err.Error()})
}
