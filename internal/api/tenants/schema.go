package tenants

import (
	"time"

	"github.com/Conversly/lightning-whatsapp/internal/types"
)

type RegisterRequest struct {
	Name string `json:"name" binding:"required"`
}

type RegisterResponse struct {
	types.BaseResponse
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	APIKey string `json:"api_key"`
}

type UploadResourceRequest struct {
	Name    string `json:"name" binding:"required"`
	Type    string `json:"type" binding:"required"`
	Content string `json:"content" binding:"required"`
}

type UploadResourceResponse struct {
	types.BaseResponse
	ResourceID int64  `json:"resource_id"`
	Name       string `json:"name"`
	Type       string `json:"type"`
}

type ConversationItem struct {
	ID        int64     `json:"id"`
	Sender    string    `json:"sender"`
	Message   string    `json:"message"`
	Response  string    `json:"response"`
	CreatedAt time.Time `json:"created_at"`
}

type ConversationsResponse struct {
	types.BaseResponse
	Conversations []ConversationItem `json:"conversations"`
}
