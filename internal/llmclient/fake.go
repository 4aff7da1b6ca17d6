package llmclient

import (
	"context"
	"fmt"
	"sync"
)

// FakeClient replays scripted replies for offline runs and tests. Each
// call records the prompt it received so tests can assert on request
// construction.
type FakeClient struct {
	mu      sync.Mutex
	replies []string
	errs    []error
	calls   int

	Prompts []string
	Images  [][]byte
}

// NewFakeClient scripts one reply per expected call. A nil error slice
// means every call succeeds.
func NewFakeClient(replies []string, errs []error) *FakeClient {
	return &FakeClient{replies: replies, errs: errs}
}

func (f *FakeClient) Name() string { return "FakeLLM" }
func (f *FakeClient) Close() error { return nil }

func (f *FakeClient) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *FakeClient) GenerateVision(ctx context.Context, prompt string, image []byte, mime string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	f.calls++
	f.Prompts = append(f.Prompts, prompt)
	f.Images = append(f.Images, image)
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i >= len(f.replies) {
		return "", fmt.Errorf("llmclient: fake exhausted after %d replies", len(f.replies))
	}
	return f.replies[i], nil
}
