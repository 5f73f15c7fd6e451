package handlers

import (
  "net/http"
  "strconv"

  "github.com/gin-gonic/gin"

  "github.com/yungbote/ollamadesk/internal/services"
)

type SearchHandler struct {
  searchService services.SearchService
}

func NewSearchHandler(searchService services.SearchService) *SearchHandler {
  return &SearchHandler{searchService: searchService}
}

func (sh *SearchHandler) SearchMessages(c *gin.Context) {
  query := c.Query("q")

  var conversationID *int64
  if raw := c.Query("conversation_id"); raw != "" {
    id, err := strconv.ParseInt(raw, 10, 64)
    if err != nil {
      c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation_id"})
      return
    }
    conversationID = &id
  }

  hits, err := sh.searchService.Search(c.Request.Context(), query, conversationID)
  if err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusOK, gin.H{
    "results": hits,
    "summary": sh.searchService.Summarize(hits),
  })
}
