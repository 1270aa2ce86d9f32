package dbmysql

import (
	"time"
)

// ChatMessage is the row form of a chat message. Seq preserves append order.
type ChatMessage struct {
	Seq       uint64    `gorm:"primaryKey;column:seq;autoIncrement"`
	MessageID string    `gorm:"column:message_id;uniqueIndex;size:36;not null"`
	Author    string    `gorm:"column:author;index;size:64;not null"`
	Text      string    `gorm:"column:text;type:text"`
	ImageRef  string    `gorm:"column:image_ref;size:64"`
	ReadBy    string    `gorm:"column:read_by;type:text"` // JSON array of usernames
	Edited    bool      `gorm:"column:edited"`
	Deleted   bool      `gorm:"column:deleted"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}
