package llm

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/Conversly/lightning-whatsapp/internal/utils"
)

// ModelConfig holds the fixed sampling parameters used for every completion.
type ModelConfig struct {
	Model       string
	Temperature float32
	MaxTokens   int
}

// MultiKeyChatModel spreads requests over several Gemini API keys in
// round-robin order.
type MultiKeyChatModel struct {
	models   []model.BaseChatModel
	keyIndex uint64
}

var _ model.BaseChatModel = (*MultiKeyChatModel)(nil)

func NewMultiKeyChatModel(ctx context.Context, apiKeys []string, cfg ModelConfig) (*MultiKeyChatModel, error) {
	if len(apiKeys) == 0 {
		return nil, errors.New("at least one API key is required")
	}

	temperature := cfg.Temperature
	maxTokens := cfg.MaxTokens

	models := make([]model.BaseChatModel, len(apiKeys))
	for i, key := range apiKeys {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  key,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini client for key %d: %w", i+1, err)
		}

		chatModel, err := gemini.NewChatModel(ctx, &gemini.Config{
			Client:      client,
			Model:       cfg.Model,
			Temperature: &temperature,
			MaxTokens:   &maxTokens,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create chat model for key %d: %w", i+1, err)
		}
		models[i] = chatModel
	}

	utils.Zlog.Info("Created multi-key chat model",
		zap.Int("key_count", len(apiKeys)),
		zap.String("model", cfg.Model),
		zap.Int("max_tokens", cfg.MaxTokens),
		zap.Float32("temperature", cfg.Temperature))

	return newMultiKeyChatModel(models...), nil
}

func newMultiKeyChatModel(models ...model.BaseChatModel) *MultiKeyChatModel {
	return &MultiKeyChatModel{models: models}
}

func (m *MultiKeyChatModel) next() model.BaseChatModel {
	if len(m.models) == 1 {
		return m.models[0]
	}
	idx := atomic.AddUint64(&m.keyIndex, 1)
	return m.models[idx%uint64(len(m.models))]
}

func (m *MultiKeyChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	return m.next().Generate(ctx, input, opts...)
}

func (m *MultiKeyChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return m.next().Stream(ctx, input, opts...)
}
