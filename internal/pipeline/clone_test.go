package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"pagesmith/internal/bundle"
	"pagesmith/internal/llmclient"
)

func TestRun_PassCountAndFeedback(t *testing.T) {
	const refine = 3
	replies := make([]string, refine+1)
	for i := range replies {
		replies[i] = fmt.Sprintf(`{"html":"<html><body>v%d</body></html>","css":"/*v%d*/","js":""}`, i, i)
	}
	fake := llmclient.NewFakeClient(replies, nil)

	var passes [][2]int
	c := &Clone{LLM: fake, OnPass: func(p, total int) { passes = append(passes, [2]int{p, total}) }}
	out, err := c.Run(context.Background(), Job{URL: "https://example.com", Screenshot: []byte{1}, Refine: refine})
	if err != nil {
		t.Fatal(err)
	}

	if got := fake.Calls(); got != refine+1 {
		t.Fatalf("provider calls = %d, want %d", got, refine+1)
	}
	if len(passes) != refine+1 {
		t.Fatalf("OnPass calls = %d, want %d", len(passes), refine+1)
	}
	for i, p := range passes {
		if p[0] != i || p[1] != refine {
			t.Fatalf("pass %d reported as (%d,%d)", i, p[0], p[1])
		}
	}
	// Each refinement request must embed the previous pass's bundle.
	for p := 1; p <= refine; p++ {
		wantEmbedded := fmt.Sprintf("v%d", p-1)
		if !strings.Contains(fake.Prompts[p], wantEmbedded) {
			t.Fatalf("pass %d prompt does not embed pass %d output", p, p-1)
		}
		if !strings.Contains(fake.Prompts[p], fmt.Sprintf("pass %d of %d", p, refine)) {
			t.Fatalf("pass %d prompt missing pass counter", p)
		}
	}
	// Only the last candidate survives.
	if !strings.Contains(out.HTML, fmt.Sprintf("v%d", refine)) {
		t.Fatalf("final bundle is not the last pass's output: %q", out.HTML)
	}
}

func TestRun_EndToEndExample(t *testing.T) {
	replies := []string{
		`Here: {"html":"<html><head></head><body></body></html>","css":"body{}","js":""}`,
		`{"html":"<html><head></head><body><p>hi</p></body></html>","css":"body{margin:0}","js":""}`,
		`{"html":"<html><body><p>hi</p></body></html>","css":"body{margin:0}","js":"console.log(1)"}`,
	}
	fake := llmclient.NewFakeClient(replies, nil)
	c := &Clone{LLM: fake}

	out, err := c.Run(context.Background(), Job{URL: "https://example.com", Refine: 2})
	if err != nil {
		t.Fatal(err)
	}
	if fake.Calls() != 3 {
		t.Fatalf("provider calls = %d, want 3", fake.Calls())
	}
	if !strings.Contains(out.HTML, bundle.StyleName) || !strings.Contains(out.HTML, bundle.ScriptName) {
		t.Fatalf("final markup not normalized: %q", out.HTML)
	}
	if out.CSS != "body{margin:0}" {
		t.Fatalf("css = %q, want last reply's css verbatim", out.CSS)
	}
	if out.JS != "console.log(1)" {
		t.Fatalf("js = %q, want last reply's js verbatim", out.JS)
	}
}

func TestRun_ProviderErrorAborts(t *testing.T) {
	cause := errors.New("rate limited")
	fake := llmclient.NewFakeClient(
		[]string{`{"html":"<html></html>","css":"","js":""}`, ""},
		[]error{nil, cause},
	)
	c := &Clone{LLM: fake}

	_, err := c.Run(context.Background(), Job{URL: "https://example.com", Refine: 1})
	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("err = %v, want *GenerationError", err)
	}
	if genErr.Pass != 1 {
		t.Fatalf("failed pass = %d, want 1", genErr.Pass)
	}
	if !errors.Is(err, cause) {
		t.Fatal("underlying cause not preserved")
	}
}

func TestRun_LaterPassFailureDiscardsEarlierBundle(t *testing.T) {
	// A broken refinement must not silently keep the earlier good bundle.
	fake := llmclient.NewFakeClient([]string{
		`{"html":"<html></html>","css":"body{}","js":""}`,
		`no json object at all`,
	}, nil)
	c := &Clone{LLM: fake}

	out, err := c.Run(context.Background(), Job{URL: "https://example.com", Refine: 1})
	if !errors.Is(err, bundle.ErrMalformedOutput) {
		t.Fatalf("err = %v, want ErrMalformedOutput via GenerationError", err)
	}
	if out != (bundle.Bundle{}) {
		t.Fatalf("partial bundle surfaced: %+v", out)
	}
}

func TestRun_InvalidShapeAborts(t *testing.T) {
	fake := llmclient.NewFakeClient([]string{`{"html":"<html></html>","css":"body{}"}`}, nil)
	c := &Clone{LLM: fake}

	_, err := c.Run(context.Background(), Job{URL: "https://example.com"})
	if !errors.Is(err, bundle.ErrInvalidAssetShape) {
		t.Fatalf("err = %v, want ErrInvalidAssetShape via GenerationError", err)
	}
	var genErr *GenerationError
	if !errors.As(err, &genErr) || genErr.Pass != 0 {
		t.Fatalf("failure not attributed to pass 0: %v", err)
	}
}

func TestRun_ZeroRefinePasses(t *testing.T) {
	fake := llmclient.NewFakeClient([]string{`{"html":"<html></html>","css":"","js":""}`}, nil)
	c := &Clone{LLM: fake}
	if _, err := c.Run(context.Background(), Job{URL: "https://example.com", Refine: 0}); err != nil {
		t.Fatal(err)
	}
	if fake.Calls() != 1 {
		t.Fatalf("provider calls = %d, want 1", fake.Calls())
	}
}
