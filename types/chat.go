package types

import "time"

// Message represents a single message in the conversation
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Chat struct {
	ID        string    `bson:"id" json:"id"`
	Name      string    `bson:"name" json:"name"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

type ChatMessage struct {
	ID        string    `bson:"id" json:"id"`
	ChatID    string    `bson:"chat_id" json:"chat_id"`
	Role      string    `bson:"role" json:"role"`
	Content   string    `bson:"content" json:"content"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// FileData is the extracted content of an uploaded file attached to a chat.
type FileData struct {
	ID        string    `bson:"id" json:"id"`
	ChatID    string    `bson:"chat_id" json:"chat_id"`
	Filename  string    `bson:"filename" json:"filename"`
	FileType  string    `bson:"file_type" json:"file_type"`
	Content   any       `bson:"content" json:"content"`
	Summary   string    `bson:"summary,omitempty" json:"summary,omitempty"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

type ChatRequest struct {
	ChatID  string `json:"chat_id"`
	Message string `json:"message"`
	Profile string `json:"profile,omitempty"`
}

type ChatAnswer struct {
	ChatID    string    `json:"chat_id"`
	Message   string    `json:"message"`
	Cached    bool      `json:"cache"`
	Timestamp time.Time `json:"timestamp"`
}
