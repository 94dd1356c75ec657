package dto

import (
	"time"

	"github.com/noah-isme/gradx-api/internal/models"
)

// ChatSendRequest is a follow-up question about the active result.
type ChatSendRequest struct {
	Text string `json:"text" validate:"required,max=4000"`
}

// ChatMessageResponse is the serialized representation of a chat message.
type ChatMessageResponse struct {
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// NewChatMessageResponse converts a model into a DTO.
func NewChatMessageResponse(message models.ChatMessage) ChatMessageResponse {
	return ChatMessageResponse{
		Role:      string(message.Role),
		Text:      message.Text,
		Timestamp: message.Timestamp,
	}
}

// NewChatMessageResponseSlice converts a thread into DTOs.
func NewChatMessageResponseSlice(messages []models.ChatMessage) []ChatMessageResponse {
	out := make([]ChatMessageResponse, 0, len(messages))
	for _, message := range messages {
		out = append(out, NewChatMessageResponse(message))
	}
	return out
}

// ChatSocketFrame is exchanged over the chat websocket.
type ChatSocketFrame struct {
	Type    string               `json:"type"`
	Text    string               `json:"text,omitempty"`
	Message *ChatMessageResponse `json:"message,omitempty"`
	Error   string               `json:"error,omitempty"`
}
