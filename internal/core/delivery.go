package core

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Conversly/lightning-whatsapp/internal/queue"
	"github.com/Conversly/lightning-whatsapp/internal/types"
	"github.com/Conversly/lightning-whatsapp/internal/utils"
)

const TaskDeliverReply = "whatsapp:deliver_reply"

// DeliveryPayload is everything the background step needs once the webhook
// has answered.
type DeliveryPayload struct {
	Sender     string    `json:"sender"`
	Message    string    `json:"message"`
	Reply      string    `json:"reply"`
	TenantID   *int64    `json:"tenant_id,omitempty"`
	RequestID  string    `json:"request_id,omitempty"`
	ReceivedAt time.Time `json:"received_at"`
}

func NewDeliveryTask(p DeliveryPayload) (queue.Task, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return queue.Task{}, fmt.Errorf("failed to encode delivery payload: %w", err)
	}
	return queue.Task{Type: TaskDeliverReply, Payload: raw}, nil
}

// MessageSender delivers a text to a bare phone number and returns the
// provider's message id.
type MessageSender interface {
	Send(ctx context.Context, to, body string) (string, error)
}

type ConversationWriter interface {
	InsertConversation(ctx context.Context, conv *types.Conversation) (int64, error)
}

// DeliveryHandler sends the reply and logs the exchange. The row is written
// whether or not delivery succeeded; neither step is retried.
type DeliveryHandler struct {
	sender        MessageSender
	conversations ConversationWriter
}

func NewDeliveryHandler(sender MessageSender, conversations ConversationWriter) *DeliveryHandler {
	return &DeliveryHandler{sender: sender, conversations: conversations}
}

func (h *DeliveryHandler) Handle(ctx context.Context, t queue.Task) error {
	var p DeliveryPayload
	if err := json.Unmarshal(t.Payload, &p); err != nil {
		return fmt.Errorf("failed to decode delivery payload: %w", err)
	}

	start := time.Now()
	fields := []zap.Field{
		zap.String("sender", p.Sender),
		zap.String("request_id", p.RequestID),
	}
	if p.TenantID != nil {
		fields = append(fields, zap.Int64("tenant_id", *p.TenantID))
	}

	delivered := true
	sid, err := h.sender.Send(ctx, p.Sender, p.Reply)
	if err != nil {
		delivered = false
		utils.Zlog.Error("Failed to deliver WhatsApp reply", append(fields, zap.Error(err))...)
	}

	persisted := true
	convID, err := h.conversations.InsertConversation(ctx, &types.Conversation{
		Sender:   p.Sender,
		Message:  p.Message,
		Response: p.Reply,
		TenantID: p.TenantID,
	})
	if err != nil {
		persisted = false
		utils.Zlog.Error("Failed to persist conversation", append(fields, zap.Error(err))...)
	}

	fields = append(fields,
		zap.Bool("delivered", delivered),
		zap.String("message_sid", sid),
		zap.Bool("persisted", persisted),
		zap.Int64("conversation_id", convID),
		zap.Int64("task_latency_ms", time.Since(start).Milliseconds()),
	)
	if !p.ReceivedAt.IsZero() {
		fields = append(fields, zap.Int64("total_latency_ms", time.Since(p.ReceivedAt).Milliseconds()))
	}
	utils.Zlog.Info("Delivery task completed", fields...)
	return nil
}
