package ai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/dsa-tutor/backend/internal/model/chat"
)

// DefaultTimeout bounds a remote call when the configuration does not.
const DefaultTimeout = 30 * time.Second

var errEmptyResponse = errors.New("model returned no text")

// RemoteConfig configures a RemoteGenerator.
type RemoteConfig struct {
	// SystemInstruction is sent verbatim as the first message of every request.
	SystemInstruction string
	Timeout           time.Duration
}

// RemoteGenerator asks a chat model for the next bot message.
type RemoteGenerator struct {
	chain             compose.Runnable[map[string]any, *schema.Message]
	systemInstruction string
	timeout           time.Duration
}

var _ Generator = (*RemoteGenerator)(nil)

// NewRemoteGenerator compiles the prompt chain around chatModel.
func NewRemoteGenerator(ctx context.Context, chatModel model.BaseChatModel, cfg RemoteConfig) (*RemoteGenerator, error) {
	if chatModel == nil {
		return nil, errors.New("chat model is required")
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &RemoteGenerator{
		chain:             runnable,
		systemInstruction: cfg.SystemInstruction,
		timeout:           timeout,
	}, nil
}

// Generate never blocks longer than the configured timeout. Any error, deadline or
// text-less response comes back as a Failure.
func (g *RemoteGenerator) Generate(ctx context.Context, history []chat.Message) Result {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	response, err := g.chain.Invoke(ctx, map[string]any{
		"system":  g.systemInstruction,
		"history": buildHistoryMessages(history),
	})
	if err != nil {
		return Failure(fmt.Errorf("failed to run AI chain: %w", err))
	}

	text := extractText(response)
	if text == "" {
		return Failure(errEmptyResponse)
	}

	log.Printf("[ai] generated response, history=%d length=%d", len(history), len(text))
	return Ok(text)
}

// buildHistoryMessages maps the transcript onto model roles, user to user and bot to assistant.
func buildHistoryMessages(messages []chat.Message) []*schema.Message {
	history := make([]*schema.Message, 0, len(messages))
	for _, msg := range messages {
		switch msg.Sender {
		case chat.SenderUser:
			history = append(history, schema.UserMessage(msg.Text))
		case chat.SenderBot:
			history = append(history, schema.AssistantMessage(msg.Text, nil))
		}
	}
	return history
}

// extractText returns the first non-blank text the model produced.
func extractText(msg *schema.Message) string {
	if msg == nil {
		return ""
	}
	if strings.TrimSpace(msg.Content) != "" {
		return msg.Content
	}
	for _, part := range msg.MultiContent {
		if part.Type == schema.ChatMessagePartTypeText && strings.TrimSpace(part.Text) != "" {
			return part.Text
		}
	}
	return ""
}
