package server

import (
  "github.com/gin-contrib/cors"
  "github.com/gin-gonic/gin"

  "github.com/yungbote/ollamadesk/internal/handlers"
)

type RouterConfig struct {
  ConversationHandler *handlers.ConversationHandler
  GenerationHandler   *handlers.GenerationHandler
  SearchHandler       *handlers.SearchHandler
  SettingsHandler     *handlers.SettingsHandler
  WsHandler           gin.HandlerFunc
}

func NewRouter(cfg RouterConfig) *gin.Engine {
  router := gin.Default()

  //-----------------------------------------
  // Cors Setup
  //-----------------------------------------
  // Only local UI shells talk to the bridge.
  router.Use(cors.New(cors.Config{
    AllowOrigins: []string{
      "http://localhost:3000",
      "http://localhost:5173",
      "http://127.0.0.1:3000",
      "http://127.0.0.1:5173",
    },
    AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
    AllowHeaders:     []string{"Content-Type", "X-Requested-With"},
    AllowCredentials: true,
  }))

  //-----------------------------------------
  // Health Routes
  //-----------------------------------------
  router.GET("/healthz", handlers.Healthz)

  //-----------------------------------------
  // API Routes
  //-----------------------------------------
  api := router.Group("/api")
  {
    api.GET("/ws", cfg.WsHandler)

    //Conversations
    api.GET("/conversations", cfg.ConversationHandler.ListConversations)
    api.POST("/conversations", cfg.ConversationHandler.CreateConversation)
    api.GET("/conversations/:id", cfg.ConversationHandler.GetConversation)
    api.PATCH("/conversations/:id/title", cfg.ConversationHandler.RenameConversation)
    api.PATCH("/conversations/:id/system-prompt", cfg.ConversationHandler.UpdateSystemPrompt)
    api.PATCH("/conversations/:id/parameters", cfg.ConversationHandler.UpdateModelParameters)
    api.DELETE("/conversations/:id", cfg.ConversationHandler.DeleteConversation)
    api.GET("/conversations/:id/export", cfg.ConversationHandler.ExportConversation)

    //Generation
    api.POST("/conversations/:id/messages", cfg.GenerationHandler.SendMessage)
    api.POST("/generation/cancel", cfg.GenerationHandler.CancelGeneration)
    api.GET("/generation", cfg.GenerationHandler.GetState)

    //Models
    api.GET("/models", cfg.GenerationHandler.ListModels)
    api.POST("/models/select", cfg.GenerationHandler.SelectModel)

    //Search
    api.GET("/search", cfg.SearchHandler.SearchMessages)

    //Settings
    api.GET("/settings", cfg.SettingsHandler.GetSettings)
    api.PUT("/settings", cfg.SettingsHandler.UpdateSettings)
  }

  return router
}
