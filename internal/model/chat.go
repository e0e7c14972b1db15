package model

import "time"

// Chat stores Telegram chat metadata for chats that used the board.
type Chat struct {
	ID        uint  `gorm:"primaryKey"`
	ChatID    int64 `gorm:"uniqueIndex"`
	FirstName string
	LastName  string
	Username  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// StorageItem is one key/value slot of the persisted task lists.
type StorageItem struct {
	Key       string `gorm:"column:slot_key;primaryKey"`
	Value     string
	UpdatedAt time.Time
}
