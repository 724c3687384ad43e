package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/zhouzirui/dsa-tutor/backend/internal/model/chat"
)

// ErrGenerationUnavailable marks every failed remote generation attempt.
var ErrGenerationUnavailable = errors.New("generation unavailable")

// Result is either generated text or the reason generation failed.
type Result struct {
	Text string
	Err  error
}

// Ok wraps successfully generated text.
func Ok(text string) Result {
	return Result{Text: text}
}

// Failure wraps reason so that errors.Is(result.Err, ErrGenerationUnavailable) holds.
func Failure(reason error) Result {
	return Result{Err: fmt.Errorf("%w: %v", ErrGenerationUnavailable, reason)}
}

// Failed reports whether the attempt produced no usable text.
func (r Result) Failed() bool {
	return r.Err != nil
}

// Generator produces the next bot message for a transcript.
type Generator interface {
	Generate(ctx context.Context, history []chat.Message) Result
}
