package types

import (
  "time"
)

type Role string

const (
  RoleUser      Role = "user"
  RoleAssistant Role = "assistant"
  RoleSystem    Role = "system"
)

// Valid reports whether r is one of the three storable roles. The storage
// boundary rejects anything else instead of coercing it.
func (r Role) Valid() bool {
  switch r {
  case RoleUser, RoleAssistant, RoleSystem:
    return true
  }
  return false
}

func (r Role) String() string {
  return string(r)
}

type Message struct {
  ID             int64     `gorm:"primaryKey;autoIncrement" json:"id"`
  ConversationID int64     `gorm:"column:conversation_id;not null;index" json:"conversation_id"`
  Role           Role      `gorm:"column:role;not null" json:"role"`
  Content        string    `gorm:"column:content;type:text;not null" json:"content"`
  CreatedAt      time.Time `gorm:"not null" json:"created_at"`
}

func (Message) TableName() string {
  return "messages"
}
