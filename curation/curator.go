package curation

import (
	"context"
	"errors"

	"github.com/pevans/briefsmith/llm"
)

// Mode selects how the curator finds stories.
type Mode string

const (
	// ModeSearch asks the model to find the week's stories itself.
	ModeSearch Mode = "search"
	// ModeCurate asks the model to filter a supplied candidate list.
	ModeCurate Mode = "curate"
)

const curationMaxTokens = 8192

var (
	ErrInvalidMode  = errors.New(`Invalid mode. Use "search" or "curate".`)
	ErrNoCandidates = errors.New("Articles are required for curate mode")
)

// Candidate is an article offered to the curator.
type Candidate struct {
	URL      string `json:"url"`
	Headline string `json:"headline,omitempty"`
	Source   string `json:"source,omitempty"`
}

// Curator produces a weekly digest in the format Parse reads.
type Curator struct {
	model llm.Completer
}

// NewCurator creates a curator backed by model.
func NewCurator(model llm.Completer) *Curator {
	return &Curator{model: model}
}

// Curate returns the model's raw digest text.
func (c *Curator) Curate(ctx context.Context, mode Mode, candidates []Candidate) (string, error) {
	switch mode {
	case ModeSearch:
	case ModeCurate:
		if len(candidates) == 0 {
			return "", ErrNoCandidates
		}
	default:
		return "", ErrInvalidMode
	}

	return c.model.Complete(ctx, llm.Request{
		System:    SystemPrompt,
		Prompt:    BuildPrompt(mode, candidates),
		MaxTokens: curationMaxTokens,
	})
}
