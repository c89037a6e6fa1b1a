package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
)

// ErrEmptyCompletion is returned when the model answers with no text.
var ErrEmptyCompletion = errors.New("language model returned an empty reply")

const (
	nodePrompt = "prompt"
	nodeModel  = "model"
)

// Prompt is the input of a single completion.
type Prompt struct {
	Context string
	Message string
}

// Completer produces the reply text for one inbound message.
type Completer interface {
	Complete(ctx context.Context, p Prompt) (string, error)
}

// ChatCompleter runs a compiled prompt -> model graph.
type ChatCompleter struct {
	systemPrompt string
	runnable     compose.Runnable[Prompt, *schema.Message]
}

func NewChatCompleter(ctx context.Context, chatModel model.BaseChatModel, systemPrompt string) (*ChatCompleter, error) {
	if chatModel == nil {
		return nil, errors.New("chat model is required")
	}
	if strings.TrimSpace(systemPrompt) == "" {
		systemPrompt = DefaultSystemPrompt
	}

	c := &ChatCompleter{systemPrompt: systemPrompt}

	graph := compose.NewGraph[Prompt, *schema.Message]()
	if err := graph.AddLambdaNode(nodePrompt, compose.InvokableLambda(func(ctx context.Context, p Prompt) ([]*schema.Message, error) {
		return c.BuildMessages(p), nil
	})); err != nil {
		return nil, fmt.Errorf("failed to add prompt node: %w", err)
	}
	if err := graph.AddChatModelNode(nodeModel, chatModel); err != nil {
		return nil, fmt.Errorf("failed to add model node: %w", err)
	}
	for _, edge := range [][2]string{{compose.START, nodePrompt}, {nodePrompt, nodeModel}, {nodeModel, compose.END}} {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("failed to add edge %s -> %s: %w", edge[0], edge[1], err)
		}
	}

	runnable, err := graph.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("graph compilation failed: %w", err)
	}
	c.runnable = runnable
	return c, nil
}

// BuildMessages orders the conversation as persona, optional context, user text.
func (c *ChatCompleter) BuildMessages(p Prompt) []*schema.Message {
	messages := []*schema.Message{schema.SystemMessage(c.systemPrompt)}
	if strings.TrimSpace(p.Context) != "" {
		messages = append(messages, schema.SystemMessage(contextPreamble+p.Context))
	}
	return append(messages, schema.UserMessage(p.Message))
}

func (c *ChatCompleter) Complete(ctx context.Context, p Prompt) (string, error) {
	out, err := c.runnable.Invoke(ctx, p)
	if err != nil {
		return "", fmt.Errorf("completion failed: %w", err)
	}
	if out == nil {
		return "", ErrEmptyCompletion
	}

	reply := strings.TrimSpace(out.Content)
	if reply == "" {
		return "", ErrEmptyCompletion
	}
	return reply, nil
}
