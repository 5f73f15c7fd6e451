package services

import (
  "fmt"
  "os"
  "path/filepath"
  "sync"

  json "github.com/goccy/go-json"

  "github.com/yungbote/ollamadesk/internal/logger"
  "github.com/yungbote/ollamadesk/internal/types"
)

// Setting keys other services reach for.
const (
  SettingTheme           = "theme"
  SettingFontSize        = "font_size"
  SettingLastModel       = "last_model"
  SettingWindowWidth     = "window_width"
  SettingWindowHeight    = "window_height"
  SettingSidebarWidth    = "sidebar_width"
  SettingAutoSave        = "auto_save"
  SettingStreamResponses = "stream_responses"
)

type SettingsService interface {
  Get(key string) (interface{}, bool)
  GetString(key, defaultVal string) string
  GetInt(key string, defaultVal int) int
  GetBool(key string, defaultVal bool) bool
  Set(key string, value interface{}) error
  All() map[string]interface{}
}

type settingsService struct {
  log    *logger.Logger
  path   string
  mu     sync.RWMutex
  values map[string]interface{}
}

func defaultSettings() map[string]interface{} {
  return map[string]interface{}{
    SettingTheme:           "dark",
    SettingFontSize:        14,
    SettingLastModel:       "llama3.2",
    SettingWindowWidth:     1200,
    SettingWindowHeight:    800,
    SettingSidebarWidth:    200,
    SettingAutoSave:        true,
    SettingStreamResponses: true,
  }
}

// NewSettingsService loads settings from the given JSON file, merging
// defaults for any missing keys. A missing or unreadable file is not an
// error; the defaults carry the session.
func NewSettingsService(path string, log *logger.Logger) SettingsService {
  serviceLog := log.With("service", "SettingsService")
  ss := &settingsService{
    log:    serviceLog,
    path:   path,
    values: defaultSettings(),
  }
  data, err := os.ReadFile(path)
  if err != nil {
    if os.IsNotExist(err) {
      serviceLog.Debug("No settings file yet, starting from defaults", "path", path)
    } else {
      serviceLog.Warn("Failed to read settings file, starting from defaults", "path", path, "error", err)
    }
    return ss
  }
  var stored map[string]interface{}
  if err := json.Unmarshal(data, &stored); err != nil {
    serviceLog.Warn("Settings file is malformed, starting from defaults", "path", path, "error", err)
    return ss
  }
  for k, v := range stored {
    ss.values[k] = v
  }
  serviceLog.Debug("Loaded settings", "path", path, "keys", len(stored))
  return ss
}

func (ss *settingsService) Get(key string) (interface{}, bool) {
  ss.mu.RLock()
  defer ss.mu.RUnlock()
  v, ok := ss.values[key]
  return v, ok
}

func (ss *settingsService) GetString(key, defaultVal string) string {
  v, ok := ss.Get(key)
  if !ok {
    return defaultVal
  }
  s, ok := v.(string)
  if !ok {
    return defaultVal
  }
  return s
}

// GetInt tolerates float64 because that is what JSON numbers decode to.
func (ss *settingsService) GetInt(key string, defaultVal int) int {
  v, ok := ss.Get(key)
  if !ok {
    return defaultVal
  }
  switch n := v.(type) {
  case int:
    return n
  case float64:
    return int(n)
  default:
    return defaultVal
  }
}

func (ss *settingsService) GetBool(key string, defaultVal bool) bool {
  v, ok := ss.Get(key)
  if !ok {
    return defaultVal
  }
  b, ok := v.(bool)
  if !ok {
    return defaultVal
  }
  return b
}

// Set updates the key and writes the whole file through immediately.
func (ss *settingsService) Set(key string, value interface{}) error {
  ss.mu.Lock()
  defer ss.mu.Unlock()
  ss.values[key] = value
  return ss.saveLocked()
}

func (ss *settingsService) All() map[string]interface{} {
  ss.mu.RLock()
  defer ss.mu.RUnlock()
  out := make(map[string]interface{}, len(ss.values))
  for k, v := range ss.values {
    out[k] = v
  }
  return out
}

func (ss *settingsService) saveLocked() error {
  if err := os.MkdirAll(filepath.Dir(ss.path), 0o755); err != nil {
    return fmt.Errorf("%w: create settings dir: %v", types.ErrStorageFailed, err)
  }
  data, err := json.MarshalIndent(ss.values, "", "  ")
  if err != nil {
    return fmt.Errorf("%w: encode settings: %v", types.ErrStorageFailed, err)
  }
  if err := os.WriteFile(ss.path, data, 0o644); err != nil {
    ss.log.Warn("Failed to write settings file", "path", ss.path, "error", err)
    return fmt.Errorf("%w: write settings: %v", types.ErrStorageFailed, err)
  }
  return nil
}
