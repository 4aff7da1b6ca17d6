// Package pipeline orchestrates the generate-then-refine loop that turns
// a rendered snapshot into a validated asset bundle.
package pipeline

import (
	"context"
	"fmt"

	"pagesmith/internal/bundle"
	"pagesmith/internal/llmclient"
)

// Job carries the immutable inputs of one clone run.
type Job struct {
	URL        string
	Screenshot []byte
	MIME       string
	// Refine is the number of refinement passes after the initial
	// generation; total provider calls = Refine + 1.
	Refine int
}

// GenerationError wraps any failure inside the pipeline with the pass it
// happened at. The run as a whole fails; no partial bundle survives.
type GenerationError struct {
	Pass  int
	Cause error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("pipeline: generation failed at pass %d: %v", e.Pass, e.Cause)
}
func (e *GenerationError) Unwrap() error { return e.Cause }

// Clone runs the generation pipeline against an injected provider.
type Clone struct {
	LLM llmclient.VisionClient
	// OnPass, when set, is called before each provider invocation with
	// the pass index and the total pass count.
	OnPass func(pass, total int)
}

// Run executes pass 0 (initial generation) followed by job.Refine
// refinement passes, each seeded with the previous pass's bundle. Passes
// are strictly sequential: pass p's request embeds pass p-1's output.
// The final bundle is normalized exactly once before return. Any failure
// at any pass aborts the whole run with *GenerationError.
func (c *Clone) Run(ctx context.Context, job Job) (bundle.Bundle, error) {
	if c == nil || c.LLM == nil {
		return bundle.Bundle{}, &GenerationError{Pass: 0, Cause: fmt.Errorf("no provider configured")}
	}
	total := job.Refine
	if total < 0 {
		total = 0
	}

	cur, err := c.pass(ctx, job, bundle.Bundle{}, 0, total)
	if err != nil {
		return bundle.Bundle{}, err
	}
	for p := 1; p <= total; p++ {
		cur, err = c.pass(ctx, job, cur, p, total)
		if err != nil {
			return bundle.Bundle{}, err
		}
	}
	return bundle.Normalize(cur), nil
}

// pass is one provider invocation plus extraction and validation, a pure
// function of (prior bundle, pass info) over the injected provider.
func (c *Clone) pass(ctx context.Context, job Job, prior bundle.Bundle, p, total int) (bundle.Bundle, error) {
	var prompt string
	if p == 0 {
		prompt = initialPrompt(job.URL)
	} else {
		var err error
		prompt, err = refinePrompt(job.URL, prior, p, total)
		if err != nil {
			return bundle.Bundle{}, &GenerationError{Pass: p, Cause: err}
		}
	}
	if c.OnPass != nil {
		c.OnPass(p, total)
	}
	raw, err := c.LLM.GenerateVision(ctx, prompt, job.Screenshot, job.MIME)
	if err != nil {
		return bundle.Bundle{}, &GenerationError{Pass: p, Cause: err}
	}
	span, err := bundle.ExtractObject(raw)
	if err != nil {
		return bundle.Bundle{}, &GenerationError{Pass: p, Cause: err}
	}
	out, err := bundle.DecodeBundle(span)
	if err != nil {
		return bundle.Bundle{}, &GenerationError{Pass: p, Cause: err}
	}
	return out, nil
}
