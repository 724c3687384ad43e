package ai

import (
	"context"

	"github.com/zhouzirui/dsa-tutor/backend/internal/analysis/topic"
	"github.com/zhouzirui/dsa-tutor/backend/internal/model/chat"
)

// FallbackGenerator answers from the local topic tables. It always succeeds.
type FallbackGenerator struct{}

var _ Generator = FallbackGenerator{}

func (FallbackGenerator) Generate(_ context.Context, history []chat.Message) Result {
	return Ok(topic.Select(history))
}
