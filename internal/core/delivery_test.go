package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conversly/lightning-whatsapp/internal/loaders/loaderstest"
	"github.com/Conversly/lightning-whatsapp/internal/queue"
)

type recordingSender struct {
	err  error
	sent []string
}

func (s *recordingSender) Send(ctx context.Context, to, body string) (string, error) {
	s.sent = append(s.sent, to+"|"+body)
	if s.err != nil {
		return "", s.err
	}
	return "SM123", nil
}

func deliveryTask(t *testing.T, tenantID *int64) queue.Task {
	t.Helper()
	task, err := NewDeliveryTask(DeliveryPayload{
		Sender:     "+15551234567",
		Message:    "price of Widget",
		Reply:      "Widget is $10.",
		TenantID:   tenantID,
		ReceivedAt: time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, TaskDeliverReply, task.Type)
	return task
}

func TestDeliveryHandler_SendsAndPersists(t *testing.T) {
	store := loaderstest.NewMemoryStore()
	sender := &recordingSender{}
	h := NewDeliveryHandler(sender, store)

	tenantID := int64(7)
	require.NoError(t, h.Handle(context.Background(), deliveryTask(t, &tenantID)))

	assert.Equal(t, []string{"+15551234567|Widget is $10."}, sender.sent)
	convs := store.Conversations()
	require.Len(t, convs, 1)
	assert.Equal(t, "+15551234567", convs[0].Sender)
	assert.Equal(t, "price of Widget", convs[0].Message)
	assert.Equal(t, "Widget is $10.", convs[0].Response)
	require.NotNil(t, convs[0].TenantID)
	assert.Equal(t, int64(7), *convs[0].TenantID)
}

func TestDeliveryHandler_PersistsWhenDeliveryFails(t *testing.T) {
	store := loaderstest.NewMemoryStore()
	h := NewDeliveryHandler(&recordingSender{err: errors.New("21211 invalid To")}, store)

	require.NoError(t, h.Handle(context.Background(), deliveryTask(t, nil)))

	convs := store.Conversations()
	require.Len(t, convs, 1)
	assert.Nil(t, convs[0].TenantID)
}

func TestDeliveryHandler_PersistenceFailureIsSwallowed(t *testing.T) {
	store := loaderstest.NewMemoryStore()
	store.InsertConversationErr = errors.New("connection reset")
	sender := &recordingSender{}
	h := NewDeliveryHandler(sender, store)

	assert.NoError(t, h.Handle(context.Background(), deliveryTask(t, nil)))
	assert.Len(t, sender.sent, 1)
}

func TestDeliveryHandler_RejectsBadPayload(t *testing.T) {
	h := NewDeliveryHandler(&recordingSender{}, loaderstest.NewMemoryStore())
	assert.Error(t, h.Handle(context.Background(), queue.Task{Type: TaskDeliverReply, Payload: []byte("{")}))
}
