package db

import (
  "fmt"

  "gorm.io/gorm"

  "github.com/yungbote/ollamadesk/internal/types"
)

// A migration raises the schema to exactly one version. Steps are additive
// only: they may create tables and add nullable columns, never drop or
// rewrite rows.
type migration struct {
  version int
  name    string
  apply   func(tx *gorm.DB) error
}

var migrations = []migration{
  {
    version: 1,
    name:    "base tables",
    apply: func(tx *gorm.DB) error {
      if err := tx.Exec(`
        CREATE TABLE IF NOT EXISTS conversations (
          id INTEGER PRIMARY KEY AUTOINCREMENT,
          title TEXT NOT NULL,
          model TEXT NOT NULL,
          created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
          updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
        )
      `).Error; err != nil {
        return err
      }
      if err := tx.Exec(`
        CREATE TABLE IF NOT EXISTS messages (
          id INTEGER PRIMARY KEY AUTOINCREMENT,
          conversation_id INTEGER NOT NULL,
          role TEXT NOT NULL CHECK(role IN ('user', 'assistant', 'system')),
          content TEXT NOT NULL,
          created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
          FOREIGN KEY (conversation_id) REFERENCES conversations(id) ON DELETE CASCADE
        )
      `).Error; err != nil {
        return err
      }
      if err := tx.Exec(`
        CREATE INDEX IF NOT EXISTS idx_messages_conversation
        ON messages(conversation_id)
      `).Error; err != nil {
        return err
      }
      return tx.Exec(`
        CREATE INDEX IF NOT EXISTS idx_conversations_updated
        ON conversations(updated_at DESC)
      `).Error
    },
  },
  {
    version: 2,
    name:    "conversation system prompt",
    apply: func(tx *gorm.DB) error {
      return tx.Exec(`ALTER TABLE conversations ADD COLUMN system_prompt TEXT`).Error
    },
  },
  {
    version: 3,
    name:    "conversation model parameters",
    apply: func(tx *gorm.DB) error {
      return tx.Exec(`ALTER TABLE conversations ADD COLUMN model_parameters TEXT`).Error
    },
  },
}

// LatestSchemaVersion is the version a fully migrated database reports.
func LatestSchemaVersion() int {
  return migrations[len(migrations)-1].version
}

// Migrate brings the database up to the latest schema version. It runs on
// every startup: already-applied versions are skipped, so a store at the
// latest version is a no-op. A store whose recorded version is higher than
// anything this build knows is refused with types.ErrSchemaTooNew rather
// than guessed at.
func (s *SQLiteService) Migrate() error {
  s.log.Info("Starting schema migration now...")

  if err := s.db.Exec(`
    CREATE TABLE IF NOT EXISTS schema_migrations (
      version INTEGER PRIMARY KEY,
      applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
    )
  `).Error; err != nil {
    s.log.Error("Failed to create schema_migrations table", "error", err)
    return fmt.Errorf("%w: create schema_migrations: %v", types.ErrStorageFailed, err)
  }

  var current int
  if err := s.db.Raw(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current).Error; err != nil {
    s.log.Error("Failed to read current schema version", "error", err)
    return fmt.Errorf("%w: read schema version: %v", types.ErrStorageFailed, err)
  }

  latest := LatestSchemaVersion()
  if current > latest {
    s.log.Error("Database schema version is ahead of this build", "stored", current, "latest", latest)
    return fmt.Errorf("%w: stored version %d, latest known %d", types.ErrSchemaTooNew, current, latest)
  }
  if current == latest {
    s.log.Info("Schema already at latest version, nothing to do :)", "version", current)
    return nil
  }

  for _, m := range migrations {
    if m.version <= current {
      continue
    }
    s.log.Info("Applying schema migration...", "version", m.version, "name", m.name)
    err := s.db.Transaction(func(tx *gorm.DB) error {
      if err := m.apply(tx); err != nil {
        return err
      }
      return tx.Exec(`INSERT INTO schema_migrations (version) VALUES (?)`, m.version).Error
    })
    if err != nil {
      s.log.Error("Schema migration failed :(", "version", m.version, "name", m.name, "error", err)
      return fmt.Errorf("%w: migration %d (%s): %v", types.ErrStorageFailed, m.version, m.name, err)
    }
  }

  s.log.Info("Schema migration completed successfully :)", "version", latest)
  return nil
}

// SchemaVersion reports the version currently recorded in the store.
func (s *SQLiteService) SchemaVersion() (int, error) {
  var current int
  if err := s.db.Raw(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current).Error; err != nil {
    return 0, fmt.Errorf("%w: read schema version: %v", types.ErrStorageFailed, err)
  }
  return current, nil
}
