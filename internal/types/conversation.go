package types

import (
  "time"

  "gorm.io/datatypes"
)

type Conversation struct {
  ID              int64          `gorm:"primaryKey;autoIncrement" json:"id"`
  Title           string         `gorm:"column:title;not null" json:"title"`
  Model           string         `gorm:"column:model;not null" json:"model"`
  SystemPrompt    *string        `gorm:"column:system_prompt" json:"system_prompt,omitempty"`
  ModelParameters datatypes.JSON `gorm:"column:model_parameters" json:"model_parameters,omitempty"`
  CreatedAt       time.Time      `gorm:"not null" json:"created_at"`
  UpdatedAt       time.Time      `gorm:"not null" json:"updated_at"`

  // Messages is loaded only on single-conversation fetches, never for
  // list views.
  Messages []Message `gorm:"-" json:"messages,omitempty"`
}

func (Conversation) TableName() string {
  return "conversations"
}

// Params decodes the stored model_parameters blob, substituting defaults
// for anything missing or unreadable.
func (c *Conversation) Params() (GenerationParams, error) {
  return ParamsFromJSON(c.ModelParameters)
}
