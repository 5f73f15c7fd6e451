package services

import (
  "os"
  "path/filepath"
  "testing"

  "github.com/yungbote/ollamadesk/internal/logger"
)

func TestSettingsDefaultsOnMissingFile(t *testing.T) {
  path := filepath.Join(t.TempDir(), "settings.json")
  ss := NewSettingsService(path, logger.NewNop())

  if got := ss.GetString(SettingTheme, ""); got != "dark" {
    t.Fatalf("expected default theme dark, got %q", got)
  }
  if got := ss.GetInt(SettingFontSize, 0); got != 14 {
    t.Fatalf("expected default font size 14, got %d", got)
  }
  if got := ss.GetBool(SettingStreamResponses, false); !got {
    t.Fatal("expected streaming on by default")
  }
  if _, err := os.Stat(path); !os.IsNotExist(err) {
    t.Fatal("reading defaults must not create the file")
  }
}

func TestSettingsSetPersistsAcrossReload(t *testing.T) {
  path := filepath.Join(t.TempDir(), "nested", "settings.json")
  ss := NewSettingsService(path, logger.NewNop())

  if err := ss.Set(SettingTheme, "light"); err != nil {
    t.Fatalf("set theme: %v", err)
  }
  if err := ss.Set(SettingFontSize, 18); err != nil {
    t.Fatalf("set font size: %v", err)
  }

  reloaded := NewSettingsService(path, logger.NewNop())
  if got := reloaded.GetString(SettingTheme, ""); got != "light" {
    t.Fatalf("expected persisted theme light, got %q", got)
  }
  // JSON numbers decode as float64; GetInt must still read them.
  if got := reloaded.GetInt(SettingFontSize, 0); got != 18 {
    t.Fatalf("expected persisted font size 18, got %d", got)
  }
  // Untouched keys keep their defaults after a reload.
  if got := reloaded.GetInt(SettingWindowWidth, 0); got != 1200 {
    t.Fatalf("expected default window width 1200, got %d", got)
  }
}

func TestSettingsMalformedFileFallsBack(t *testing.T) {
  path := filepath.Join(t.TempDir(), "settings.json")
  if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
    t.Fatalf("write: %v", err)
  }
  ss := NewSettingsService(path, logger.NewNop())

  if got := ss.GetString(SettingTheme, ""); got != "dark" {
    t.Fatalf("malformed file should fall back to defaults, got theme %q", got)
  }
  if err := ss.Set(SettingTheme, "light"); err != nil {
    t.Fatalf("set after fallback: %v", err)
  }
  reloaded := NewSettingsService(path, logger.NewNop())
  if got := reloaded.GetString(SettingTheme, ""); got != "light" {
    t.Fatalf("set should rewrite the malformed file, got %q", got)
  }
}

func TestSettingsTypeMismatchUsesDefault(t *testing.T) {
  path := filepath.Join(t.TempDir(), "settings.json")
  ss := NewSettingsService(path, logger.NewNop())

  if err := ss.Set(SettingFontSize, "big"); err != nil {
    t.Fatalf("set: %v", err)
  }
  if got := ss.GetInt(SettingFontSize, 14); got != 14 {
    t.Fatalf("non-numeric value should yield the caller's default, got %d", got)
  }
}

func TestSettingsAllReturnsCopy(t *testing.T) {
  path := filepath.Join(t.TempDir(), "settings.json")
  ss := NewSettingsService(path, logger.NewNop())

  all := ss.All()
  all[SettingTheme] = "mangled"
  if got := ss.GetString(SettingTheme, ""); got != "dark" {
    t.Fatalf("mutating the snapshot must not touch live settings, got %q", got)
  }
}
