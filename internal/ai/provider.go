package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// Input is what one provider receives. Source is nil for prompt-only providers.
type Input struct {
	Prompt   string
	Source   *Source
	Username string
}

// Provider is one entry of the generation fallback chain.
type Provider interface {
	Name() string
	// NeedsSource reports whether the provider edits a supplied portrait.
	NeedsSource() bool
	Attempt(ctx context.Context, in Input) (string, error)
}

type FailureKind string

const (
	FailureTimeout       FailureKind = "timeout"
	FailureInvalidOutput FailureKind = "invalid_output"
	FailureGeneric       FailureKind = "failed"
)

type AttemptError struct {
	Provider string
	Kind     FailureKind
	Err      error
}

// GenerationError is returned once every provider in the chain has failed.
type GenerationError struct {
	Kind     FailureKind
	Attempts []AttemptError
}

func (e *GenerationError) Error() string {
	names := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		names = append(names, fmt.Sprintf("%s(%s): %v", a.Provider, a.Kind, a.Err))
	}
	if len(names) == 0 {
		return "image generation failed: no provider available"
	}
	return "image generation failed: " + strings.Join(names, "; ")
}

func (e *GenerationError) UserMessage() string {
	switch e.Kind {
	case FailureTimeout:
		return "Image generation is taking too long right now. Please try again in a minute."
	case FailureInvalidOutput:
		return "The image service returned an unusable image. Please try again."
	default:
		return "We could not generate your portrait. Please try again later."
	}
}

func classify(err error) FailureKind {
	if errors.Is(err, ErrInvalidOutput) {
		return FailureInvalidOutput
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return FailureTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return FailureTimeout
	}
	return FailureGeneric
}

// overallKind prefers timeout, then invalid output, then generic.
func overallKind(attempts []AttemptError) FailureKind {
	kind := FailureGeneric
	for _, a := range attempts {
		if a.Kind == FailureTimeout {
			return FailureTimeout
		}
		if a.Kind == FailureInvalidOutput {
			kind = FailureInvalidOutput
		}
	}
	return kind
}
