package dbmysql

import (
	"time"
)

type User struct {
	Username     string    `gorm:"primaryKey;column:username;size:64" json:"username"`
	UsernameKey  string    `gorm:"column:username_key;uniqueIndex;size:64;not null" json:"-"` // lower-cased, for case-insensitive uniqueness
	PasswordHash string    `gorm:"column:password_hash;size:255;not null" json:"-"`
	Banned       bool      `gorm:"column:banned" json:"banned"`
	LastMessage  *string   `gorm:"column:last_message;type:text" json:"last_message,omitempty"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (User) TableName() string {
	return "users"
}
