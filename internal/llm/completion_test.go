package llm

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChatModel struct {
	mu     sync.Mutex
	reply  string
	err    error
	inputs [][]*schema.Message
}

func (f *fakeChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs = append(f.inputs, input)
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.reply, nil), nil
}

func (f *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := f.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func TestBuildMessages(t *testing.T) {
	c := &ChatCompleter{systemPrompt: "persona"}

	msgs := c.BuildMessages(Prompt{Message: "hi"})
	require.Len(t, msgs, 2)
	assert.Equal(t, schema.System, msgs[0].Role)
	assert.Equal(t, "persona", msgs[0].Content)
	assert.Equal(t, schema.User, msgs[1].Role)
	assert.Equal(t, "hi", msgs[1].Content)

	msgs = c.BuildMessages(Prompt{Context: "- Widget, Price: $10", Message: "price of Widget"})
	require.Len(t, msgs, 3)
	assert.Equal(t, schema.System, msgs[1].Role)
	assert.Contains(t, msgs[1].Content, "- Widget, Price: $10")
	assert.Equal(t, "price of Widget", msgs[2].Content)
}

func TestComplete_TrimsReply(t *testing.T) {
	fake := &fakeChatModel{reply: "  Widget costs $10.\n"}
	c, err := NewChatCompleter(context.Background(), fake, "")
	require.NoError(t, err)

	reply, err := c.Complete(context.Background(), Prompt{Context: "- Widget, Price: $10", Message: "price of Widget"})
	require.NoError(t, err)
	assert.Equal(t, "Widget costs $10.", reply)

	require.Len(t, fake.inputs, 1)
	sent := fake.inputs[0]
	require.Len(t, sent, 3)
	assert.Equal(t, DefaultSystemPrompt, sent[0].Content)
}

func TestComplete_Errors(t *testing.T) {
	c, err := NewChatCompleter(context.Background(), &fakeChatModel{err: errors.New("quota exceeded")}, "persona")
	require.NoError(t, err)
	_, err = c.Complete(context.Background(), Prompt{Message: "hi"})
	assert.ErrorContains(t, err, "quota exceeded")

	c, err = NewChatCompleter(context.Background(), &fakeChatModel{reply: "   "}, "persona")
	require.NoError(t, err)
	_, err = c.Complete(context.Background(), Prompt{Message: "hi"})
	assert.ErrorIs(t, err, ErrEmptyCompletion)

	_, err = NewChatCompleter(context.Background(), nil, "persona")
	assert.Error(t, err)
}

func TestMultiKeyChatModel_RoundRobin(t *testing.T) {
	a := &fakeChatModel{reply: "a"}
	b := &fakeChatModel{reply: "b"}
	m := newMultiKeyChatModel(a, b)

	for i := 0; i < 4; i++ {
		_, err := m.Generate(context.Background(), []*schema.Message{schema.UserMessage("x")})
		require.NoError(t, err)
	}
	assert.Len(t, a.inputs, 2)
	assert.Len(t, b.inputs, 2)
}

func TestNewMultiKeyChatModel_RequiresKeys(t *testing.T) {
	_, err := NewMultiKeyChatModel(context.Background(), nil, ModelConfig{Model: "gemini-2.0-flash-lite"})
	assert.Error(t, err)
}
