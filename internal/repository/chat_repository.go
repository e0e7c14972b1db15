package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"todo-board/internal/model"
)

// ChatRepository records chats that talked to the bot.
type ChatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

// UpsertFromTelegram finds or creates a chat by its Telegram id and refreshes profile info.
func (r *ChatRepository) UpsertFromTelegram(ctx context.Context, chatID int64, firstName, lastName, username string) (*model.Chat, error) {
	var chat model.Chat
	db := r.db.WithContext(ctx)
	err := db.Where("chat_id = ?", chatID).First(&chat).Error
	switch {
	case err == nil:
		updates := map[string]interface{}{
			"first_name": firstName,
			"last_name":  lastName,
			"username":   username,
		}
		if err := db.Model(&chat).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("update chat: %w", err)
		}
		return &chat, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		chat = model.Chat{
			ChatID:    chatID,
			FirstName: firstName,
			LastName:  lastName,
			Username:  username,
		}
		if err := db.Create(&chat).Error; err != nil {
			return nil, fmt.Errorf("create chat: %w", err)
		}
		return &chat, nil
	default:
		return nil, fmt.Errorf("find chat: %w", err)
	}
}

func (r *ChatRepository) FindByChatID(ctx context.Context, chatID int64) (*model.Chat, error) {
	var chat model.Chat
	if err := r.db.WithContext(ctx).Where("chat_id = ?", chatID).First(&chat).Error; err != nil {
		return nil, err
	}
	return &chat, nil
}

func (r *ChatRepository) ListAll(ctx context.Context) ([]model.Chat, error) {
	var chats []model.Chat
	if err := r.db.WithContext(ctx).Order("chat_id ASC").Find(&chats).Error; err != nil {
		return nil, err
	}
	return chats, nil
}
