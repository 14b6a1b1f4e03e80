package chat

import (
	"errors"

	"ai-derm-assistant/internal/database/model"

	"gorm.io/gorm"
)

var errChatNotFound = errors.New("chat not found")

func getChatForUser(db *gorm.DB, chatID, userID int64) (*model.Chat, error) {
	var chat model.Chat
	err := db.Where("id = ? AND user_id = ?", chatID, userID).First(&chat).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errChatNotFound
	}
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

func listChatsForUser(db *gorm.DB, userID int64) ([]model.Chat, error) {
	var chats []model.Chat
	err := db.Where("user_id = ?", userID).Order("created_at DESC").Find(&chats).Error
	return chats, err
}

func listMessages(db *gorm.DB, chatID int64) ([]model.Message, error) {
	var messages []model.Message
	err := db.Where("chat_id = ?", chatID).Order("created_at ASC, id ASC").Find(&messages).Error
	return messages, err
}
