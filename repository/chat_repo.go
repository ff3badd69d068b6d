package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tieubaoca/docqa-be/types"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type ChatRepo interface {
	CreateChat(ctx context.Context, name string) (*types.Chat, error)
	GetChat(ctx context.Context, id string) (*types.Chat, error)
	AddMessage(ctx context.Context, chatID, role, content string) error
	GetMessages(ctx context.Context, chatID string, limit int) ([]types.Message, error)
	AddFileData(ctx context.Context, data *types.FileData) error
	GetLatestFileData(ctx context.Context, chatID string) (*types.FileData, error)
}

type chatRepo struct {
	chats    *mongo.Collection
	messages *mongo.Collection
	files    *mongo.Collection
}

func NewChatRepo(chats, messages, files *mongo.Collection) ChatRepo {
	return &chatRepo{
		chats:    chats,
		messages: messages,
		files:    files,
	}
}

func (r *chatRepo) CreateChat(ctx context.Context, name string) (*types.Chat, error) {
	chat := &types.Chat{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now(),
	}
	if _, err := r.chats.InsertOne(ctx, chat); err != nil {
		return nil, err
	}
	return chat, nil
}

func (r *chatRepo) GetChat(ctx context.Context, id string) (*types.Chat, error) {
	var chat types.Chat
	err := r.chats.FindOne(ctx, map[string]string{"id": id}).Decode(&chat)
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

func (r *chatRepo) AddMessage(ctx context.Context, chatID, role, content string) error {
	message := types.ChatMessage{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}
	_, err := r.messages.InsertOne(ctx, message)
	return err
}

// GetMessages returns up to limit of the most recent messages, oldest first.
func (r *chatRepo) GetMessages(ctx context.Context, chatID string, limit int) ([]types.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts = opts.SetLimit(int64(limit))
	}
	cursor, err := r.messages.Find(ctx, map[string]string{"chat_id": chatID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var stored []types.ChatMessage
	for cursor.Next(ctx) {
		var msg types.ChatMessage
		if err := cursor.Decode(&msg); err != nil {
			return nil, err
		}
		stored = append(stored, msg)
	}

	// Reverse the descending query back into chronological order
	messages := make([]types.Message, len(stored))
	for i, msg := range stored {
		messages[len(stored)-1-i] = types.Message{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}
	return messages, nil
}

func (r *chatRepo) AddFileData(ctx context.Context, data *types.FileData) error {
	if data.ID == "" {
		data.ID = uuid.NewString()
	}
	if data.CreatedAt.IsZero() {
		data.CreatedAt = time.Now()
	}
	_, err := r.files.InsertOne(ctx, data)
	return err
}

func (r *chatRepo) GetLatestFileData(ctx context.Context, chatID string) (*types.FileData, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})
	var data types.FileData
	err := r.files.FindOne(ctx, map[string]string{"chat_id": chatID}, opts).Decode(&data)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &data, nil
}
