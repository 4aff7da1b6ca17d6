package runner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"pagesmith/internal/bundle"
	"pagesmith/internal/capture"
	"pagesmith/internal/llmclient"
	"pagesmith/internal/runstore"
)

type fakeRenderer struct {
	snap *capture.Snapshot
	err  error
}

func (f *fakeRenderer) Capture(ctx context.Context, req capture.Request) (*capture.Snapshot, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.snap, nil
}
func (f *fakeRenderer) Close() error { return nil }

func newTestRunner(t *testing.T, rend capture.Renderer, llm llmclient.VisionClient) (*Runner, *runstore.Store) {
	t.Helper()
	store := runstore.New()
	return &Runner{
		Renderer: rend,
		LLM:      llm,
		Store:    store,
		Hub:      NewHub(),
		Log:      zerolog.Nop(),
	}, store
}

func seedRecord(t *testing.T, store *runstore.Store, id, url string) {
	t.Helper()
	if err := store.Put(runstore.Record{ID: id, URL: url, Status: runstore.StatusRunning, CreatedAt: time.Now()}); err != nil {
		t.Fatal(err)
	}
}

func TestRun_AIPath(t *testing.T) {
	rend := &fakeRenderer{snap: &capture.Snapshot{PNG: []byte{1, 2}, Title: "Example"}}
	llm := llmclient.NewFakeClient([]string{
		`{"html":"<html><head></head><body>v0</body></html>","css":"body{}","js":""}`,
		`{"html":"<html><head></head><body>v1</body></html>","css":"body{margin:0}","js":""}`,
	}, nil)
	r, store := newTestRunner(t, rend, llm)
	seedRecord(t, store, "r1", "https://example.com")

	dir := filepath.Join(t.TempDir(), "out")
	rec, err := r.Run(context.Background(), "r1", Request{
		URL: "https://example.com", OutDir: dir, Refine: 1, AI: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if rec.Status != runstore.StatusDone || rec.Mode != runstore.ModeAI || rec.Passes != 2 {
		t.Fatalf("record = %+v", rec)
	}
	markup, err := os.ReadFile(filepath.Join(dir, bundle.MarkupName))
	if err != nil {
		t.Fatal(err)
	}
	if string(markup) == "" || !containsAll(string(markup), "v1", bundle.StyleName, bundle.ScriptName) {
		t.Fatalf("markup = %q", markup)
	}
}

func TestRun_GenerationFailureFallsBack(t *testing.T) {
	rend := &fakeRenderer{snap: &capture.Snapshot{PNG: []byte{1}, Title: "Example"}}
	llm := llmclient.NewFakeClient(nil, []error{errors.New("provider down")})
	r, store := newTestRunner(t, rend, llm)
	seedRecord(t, store, "r2", "https://example.com")

	dir := filepath.Join(t.TempDir(), "out")
	rec, err := r.Run(context.Background(), "r2", Request{
		URL: "https://example.com", OutDir: dir, Refine: 2, AI: true,
	})
	if err != nil {
		t.Fatalf("generation failure must not fail the run: %v", err)
	}
	if rec.Status != runstore.StatusDone || rec.Mode != runstore.ModeScaffold || rec.Passes != 0 {
		t.Fatalf("record = %+v", rec)
	}
	want := bundle.Scaffold("https://example.com", bundle.SnapshotName, "Example")
	markup, _ := os.ReadFile(filepath.Join(dir, bundle.MarkupName))
	if string(markup) != want.HTML {
		t.Fatal("fallback output differs from the deterministic scaffold")
	}
}

func TestRun_AIDisabledUsesScaffold(t *testing.T) {
	rend := &fakeRenderer{snap: &capture.Snapshot{PNG: []byte{1}}}
	llm := llmclient.NewFakeClient([]string{`{"html":"x","css":"y","js":"z"}`}, nil)
	r, store := newTestRunner(t, rend, llm)
	seedRecord(t, store, "r3", "https://example.com")

	dir := filepath.Join(t.TempDir(), "out")
	rec, err := r.Run(context.Background(), "r3", Request{URL: "https://example.com", OutDir: dir, AI: false})
	if err != nil {
		t.Fatal(err)
	}
	if rec.Mode != runstore.ModeScaffold {
		t.Fatalf("mode = %q, want scaffold", rec.Mode)
	}
	if llm.Calls() != 0 {
		t.Fatalf("provider called %d times with AI disabled", llm.Calls())
	}
	// No DOM title: heading falls back to the URL host.
	markup, _ := os.ReadFile(filepath.Join(dir, bundle.MarkupName))
	if !containsAll(string(markup), "example.com") {
		t.Fatalf("markup missing host title: %q", markup)
	}
}

func TestRun_CaptureFailureIsTerminal(t *testing.T) {
	navErr := &capture.NavigationError{URL: "https://down.example", Cause: errors.New("timeout")}
	r, store := newTestRunner(t, &fakeRenderer{err: navErr}, nil)
	seedRecord(t, store, "r4", "https://down.example")

	_, err := r.Run(context.Background(), "r4", Request{URL: "https://down.example", OutDir: t.TempDir()})
	var got *capture.NavigationError
	if !errors.As(err, &got) {
		t.Fatalf("err = %v, want *NavigationError", err)
	}
	rec, _ := store.Get("r4")
	if rec.Status != runstore.StatusFailed || rec.Error == "" {
		t.Fatalf("record = %+v", rec)
	}
}

func TestRun_PublishesProgressEvents(t *testing.T) {
	rend := &fakeRenderer{snap: &capture.Snapshot{PNG: []byte{1}}}
	llm := llmclient.NewFakeClient([]string{
		`{"html":"<html></html>","css":"","js":""}`,
		`{"html":"<html></html>","css":"","js":""}`,
	}, nil)
	r, store := newTestRunner(t, rend, llm)
	seedRecord(t, store, "r5", "https://example.com")

	ch, cancel := r.Hub.Subscribe("r5")
	defer cancel()

	if _, err := r.Run(context.Background(), "r5", Request{
		URL: "https://example.com", OutDir: filepath.Join(t.TempDir(), "out"), Refine: 1, AI: true,
	}); err != nil {
		t.Fatal(err)
	}

	var types []EventType
	for len(ch) > 0 {
		types = append(types, (<-ch).Type)
	}
	want := []EventType{EventCapture, EventPass, EventPass, EventDone}
	if len(types) != len(want) {
		t.Fatalf("events = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Fatalf("events = %v, want %v", types, want)
		}
	}
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
