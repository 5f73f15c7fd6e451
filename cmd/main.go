package main

import (
  "fmt"
  "os"
  "path/filepath"

  "github.com/yungbote/ollamadesk/internal/db"
  "github.com/yungbote/ollamadesk/internal/handlers"
  "github.com/yungbote/ollamadesk/internal/llm"
  "github.com/yungbote/ollamadesk/internal/logger"
  "github.com/yungbote/ollamadesk/internal/repos"
  "github.com/yungbote/ollamadesk/internal/server"
  "github.com/yungbote/ollamadesk/internal/services"
  "github.com/yungbote/ollamadesk/internal/socket"
  "github.com/yungbote/ollamadesk/internal/utils"
)

func main() {
  // Logger Setup
  logMode := os.Getenv("LOG_MODE")
  if logMode == "" {
    logMode = "development"
  }
  log, err := logger.New(logMode)
  if err != nil {
    fmt.Printf("failed to init logger: %v\n", err)
    os.Exit(1)
  }
  defer log.Sync()

  // Environment Variables
  log.Info("Attempting to load environment variables for Main now...")
  defaultDBPath := "ollamadesk.db"
  if dataDir, dirErr := utils.DataDir(); dirErr == nil {
    defaultDBPath = filepath.Join(dataDir, "conversations.db")
  }
  defaultSettingsPath := "settings.json"
  if configDir, dirErr := utils.ConfigDir(); dirErr == nil {
    defaultSettingsPath = filepath.Join(configDir, "settings.json")
  }
  dbPath := utils.GetEnv("DB_PATH", defaultDBPath, log)
  settingsPath := utils.GetEnv("SETTINGS_PATH", defaultSettingsPath, log)
  llmBackend := utils.GetEnv("LLM_BACKEND", "ollama", log)
  ollamaBaseURL := utils.GetEnv("OLLAMA_BASE_URL", llm.DefaultOllamaBaseURL, log)
  openaiBaseURL := utils.GetEnv("OPENAI_BASE_URL", llm.DefaultOllamaBaseURL+"/v1", log)
  openaiAPIKey := utils.GetEnv("OPENAI_API_KEY", "ollama", log)
  log.Debug("Environment variables loaded for Main :)",
    "dbPath", dbPath,
    "settingsPath", settingsPath,
    "llmBackend", llmBackend,
    "ollamaBaseURL", ollamaBaseURL,
    "openaiBaseURL", openaiBaseURL,
  )

  // SQLite Setup
  log.Info("Setting Up SQLite from Main now...")
  sqliteService, err := db.NewSQLiteService(dbPath, log)
  if err != nil {
    log.Error("Fatal error: cannot open conversation store :(", "error", err)
    os.Exit(1)
  }
  if err := sqliteService.Migrate(); err != nil {
    log.Error("Fatal error: schema migration failed :(", "error", err)
    os.Exit(1)
  }
  theDB := sqliteService.DB()
  log.Info("SQLite Setup From Main Successful :)")

  // Repositories Setup
  log.Info("Setting Up Repositories from Main now...")
  conversationRepo := repos.NewConversationRepo(theDB, log)
  messageRepo := repos.NewMessageRepo(theDB, log)
  log.Info("Repositories Set Up From Main Successful :)")

  // Websocket Setup
  log.Info("Setting Up Websocket Hub From Main Now :)")
  wsHub := socket.NewHub(log)
  log.Info("Websocket Hub Set Up From Main Successful :)")

  // Gateway Setup
  log.Info("Setting Up Inference Gateway from Main now...", "backend", llmBackend)
  var gateway llm.Gateway
  switch llmBackend {
  case "openai":
    gateway = llm.NewOpenAIGateway(openaiBaseURL, openaiAPIKey, log)
  default:
    gateway = llm.NewOllamaGateway(ollamaBaseURL, log)
  }
  log.Info("Inference Gateway Set Up From Main Successful :)")

  // Services Setup
  log.Info("Setting up Services from Main now...")
  settingsService := services.NewSettingsService(settingsPath, log)
  conversationService := services.NewConversationService(theDB, log, conversationRepo, messageRepo)
  generationService := services.NewGenerationService(log, conversationService, gateway, settingsService, wsHub)
  exportService := services.NewExportService(log, conversationService)
  searchService := services.NewSearchService(log, conversationService)
  log.Info("Services Set Up From Main Successful :)")

  // Handler Setup
  log.Info("Setting Up Handlers from Main now...")
  conversationHandler := handlers.NewConversationHandler(conversationService, exportService, generationService)
  generationHandler := handlers.NewGenerationHandler(generationService)
  searchHandler := handlers.NewSearchHandler(searchService)
  settingsHandler := handlers.NewSettingsHandler(settingsService)
  wsHandler := handlers.WsHandler(wsHub, log)
  log.Info("Handlers Set Up From Main Successful :)")

  // Router Setup
  log.Info("Setting Up Router from Main now...")
  router := server.NewRouter(server.RouterConfig{
    ConversationHandler: conversationHandler,
    GenerationHandler:   generationHandler,
    SearchHandler:       searchHandler,
    SettingsHandler:     settingsHandler,
    WsHandler:           wsHandler,
  })
  log.Info("Router Set Up From Main Successful :)")

  // The bridge serves a local UI shell only, so it binds to loopback.
  port := utils.GetEnv("PORT", "8090", log)
  addr := "127.0.0.1:" + port
  fmt.Printf("ollamadesk bridge listening on %s\n", addr)
  if err := router.Run(addr); err != nil {
    log.Warn("Server failed :(", "error", err)
  }
}
