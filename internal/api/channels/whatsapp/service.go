package whatsapp

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Conversly/lightning-whatsapp/internal/core"
	"github.com/Conversly/lightning-whatsapp/internal/llm"
	"github.com/Conversly/lightning-whatsapp/internal/queue"
	"github.com/Conversly/lightning-whatsapp/internal/types"
	"github.com/Conversly/lightning-whatsapp/internal/utils"
)

type ContextSource interface {
	Build(ctx context.Context, tenantID int64, message string) (string, error)
}

type TaskDispatcher interface {
	Dispatch(ctx context.Context, t queue.Task) error
}

// Service answers one inbound message and hands delivery to the executor.
type Service struct {
	contexts  ContextSource
	completer llm.Completer
	tasks     TaskDispatcher
}

func NewService(contexts ContextSource, completer llm.Completer, tasks TaskDispatcher) *Service {
	return &Service{contexts: contexts, completer: completer, tasks: tasks}
}

type InboundMessage struct {
	Tenant    *types.Tenant
	Sender    string
	Body      string
	RequestID string
}

// Reply produces the reply text and schedules its delivery. Nothing is
// scheduled when any step fails.
func (s *Service) Reply(ctx context.Context, in InboundMessage) (string, error) {
	start := time.Now()

	contextBlock, err := s.contexts.Build(ctx, in.Tenant.ID, in.Body)
	if err != nil {
		return "", fmt.Errorf("failed to build context: %w", err)
	}

	reply, err := s.completer.Complete(ctx, llm.Prompt{Context: contextBlock, Message: in.Body})
	if err != nil {
		return "", err
	}

	tenantID := in.Tenant.ID
	task, err := core.NewDeliveryTask(core.DeliveryPayload{
		Sender:     in.Sender,
		Message:    in.Body,
		Reply:      reply,
		TenantID:   &tenantID,
		RequestID:  in.RequestID,
		ReceivedAt: start,
	})
	if err != nil {
		return "", err
	}
	if err := s.tasks.Dispatch(ctx, task); err != nil {
		return "", fmt.Errorf("failed to schedule delivery: %w", err)
	}

	utils.Zlog.Info("WhatsApp message answered",
		zap.Int64("tenant_id", tenantID),
		zap.String("sender", in.Sender),
		zap.Bool("has_context", contextBlock != ""),
		zap.Int64("latency_ms", time.Since(start).Milliseconds()))
	return reply, nil
}
