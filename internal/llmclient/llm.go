// Package llmclient abstracts the text/vision completion provider behind
// a narrow interface so the pipeline can swap a fake in tests.
package llmclient

import (
	"context"
	"errors"
)

// ErrEmptyResponse is returned when the provider answered without any
// usable text candidate.
var ErrEmptyResponse = errors.New("llmclient: empty response from provider")

// VisionClient generates free-form text from an instruction plus one
// inline image. All shape assumptions about the returned text live in the
// bundle package, not here.
type VisionClient interface {
	Name() string
	GenerateVision(ctx context.Context, prompt string, image []byte, mime string) (string, error)
	Close() error
}
