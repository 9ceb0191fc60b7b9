package usecase

import (
	"context"

	"pairchat/internal/domain/entity"
	"pairchat/internal/domain/repository"
	"pairchat/pkg/errors"
)

type ChatUseCase struct {
	store    repository.ChatStore
	userRepo repository.UserRepository
}

func NewChatUseCase(store repository.ChatStore, userRepo repository.UserRepository) *ChatUseCase {
	return &ChatUseCase{
		store:    store,
		userRepo: userRepo,
	}
}

// StartChat opens (or returns the existing) chat between the caller and a
// recipient. The recipient must exist in the user directory.
func (uc *ChatUseCase) StartChat(ctx context.Context, userID, recipientID string) (*entity.Chat, error) {
	if _, err := uc.userRepo.GetByID(ctx, recipientID); err != nil {
		return nil, err
	}
	return uc.store.CreateChat(ctx, userID, recipientID)
}

func (uc *ChatUseCase) ListChats(ctx context.Context, userID string) ([]*entity.Chat, error) {
	return uc.store.ListChatsForUser(ctx, userID)
}

func (uc *ChatUseCase) GetChat(ctx context.Context, userID, chatID string) (*entity.Chat, error) {
	chat, err := uc.store.GetChatByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.HasParticipant(userID) {
		return nil, errors.Unauthorized("user is not a chat participant", nil)
	}
	return chat, nil
}

func (uc *ChatUseCase) SendTextMessage(ctx context.Context, chatID, senderID, text string) (*entity.Message, error) {
	return uc.store.SendMessage(ctx, chatID, senderID, entity.TextContent(text))
}

func (uc *ChatUseCase) SendImageMessage(ctx context.Context, chatID, senderID, fileURL string) (*entity.Message, error) {
	return uc.store.SendMessage(ctx, chatID, senderID, entity.ImageContent(fileURL))
}

func (uc *ChatUseCase) ListMessages(ctx context.Context, userID, chatID string) ([]*entity.Message, error) {
	if _, err := uc.GetChat(ctx, userID, chatID); err != nil {
		return nil, err
	}
	return uc.store.ListMessages(ctx, chatID)
}

func (uc *ChatUseCase) MarkMessageRead(ctx context.Context, userID, chatID, messageID string) error {
	if _, err := uc.GetChat(ctx, userID, chatID); err != nil {
		return err
	}
	return uc.store.MarkMessageRead(ctx, chatID, messageID)
}

func (uc *ChatUseCase) SetTyping(ctx context.Context, userID, chatID string, isTyping bool) error {
	return uc.store.SetTypingStatus(ctx, chatID, userID, isTyping)
}
