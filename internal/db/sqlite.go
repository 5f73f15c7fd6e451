package db

import (
  "fmt"
  "os"
  "path/filepath"

  "gorm.io/driver/sqlite"
  "gorm.io/gorm"

  "github.com/yungbote/ollamadesk/internal/logger"
  "github.com/yungbote/ollamadesk/internal/types"
)

type SQLiteService struct {
  db   *gorm.DB
  path string
  log  *logger.Logger
}

// NewSQLiteService opens (creating if necessary) the conversation database
// at path and turns on foreign-key enforcement. Any failure to create or
// open the file is reported as types.ErrStorageUnavailable.
func NewSQLiteService(path string, log *logger.Logger) (*SQLiteService, error) {
  serviceLog := log.With("service", "SQLiteService")

  serviceLog.Info("Attempting to open SQLite database now...", "path", path)
  if dir := filepath.Dir(path); dir != "." {
    if err := os.MkdirAll(dir, 0o755); err != nil {
      serviceLog.Error("Failed to create database directory", "dir", dir, "error", err)
      return nil, fmt.Errorf("%w: create %s: %v", types.ErrStorageUnavailable, dir, err)
    }
  }

  gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
  if err != nil {
    serviceLog.Error("Failed to open SQLite database", "path", path, "error", err)
    return nil, fmt.Errorf("%w: open %s: %v", types.ErrStorageUnavailable, path, err)
  }

  // SQLite leaves FK enforcement off unless asked; cascade deletes on
  // messages depend on it.
  if err := gdb.Exec(`PRAGMA foreign_keys = ON`).Error; err != nil {
    serviceLog.Error("Failed to enable foreign_keys pragma", "error", err)
    return nil, fmt.Errorf("%w: enable foreign keys: %v", types.ErrStorageUnavailable, err)
  }
  serviceLog.Info("Successfully opened SQLite database :)")

  return &SQLiteService{db: gdb, path: path, log: serviceLog}, nil
}

func (s *SQLiteService) DB() *gorm.DB {
  return s.db
}

func (s *SQLiteService) Path() string {
  return s.path
}
