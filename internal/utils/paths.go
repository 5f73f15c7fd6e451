package utils

import (
  "os"
  "path/filepath"
)

const appDirName = "ollamadesk"

// ConfigDir resolves the per-user configuration directory. Settings live
// here.
func ConfigDir() (string, error) {
  base, err := os.UserConfigDir()
  if err != nil {
    return "", err
  }
  return filepath.Join(base, appDirName), nil
}

// DataDir resolves the per-user data directory. The conversation database
// lives here. XDG_DATA_HOME wins when set; otherwise ~/.local/share.
func DataDir() (string, error) {
  if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
    return filepath.Join(xdg, appDirName), nil
  }
  home, err := os.UserHomeDir()
  if err != nil {
    return "", err
  }
  return filepath.Join(home, ".local", "share", appDirName), nil
}
