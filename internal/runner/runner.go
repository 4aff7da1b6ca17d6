// Package runner coordinates one clone run end to end: snapshot capture,
// AI generation with fallback, and persistence of the results.
package runner

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"pagesmith/internal/artifact"
	"pagesmith/internal/bundle"
	"pagesmith/internal/capture"
	"pagesmith/internal/llmclient"
	"pagesmith/internal/pipeline"
	"pagesmith/internal/runstore"
)

// Request describes one clone run.
type Request struct {
	URL      string
	OutDir   string
	Width    int
	Height   int
	Wait     capture.WaitUntil
	Timeout  time.Duration
	FullPage bool
	Refine   int
	// AI enables the generation pipeline. With AI off, or when the
	// pipeline fails at any pass, the deterministic scaffold is emitted.
	AI bool
}

// Runner executes clone runs against injected collaborators. LLM may be
// nil, which forces the scaffold path.
type Runner struct {
	Renderer capture.Renderer
	LLM      llmclient.VisionClient
	Store    *runstore.Store
	Mirror   *artifact.S3Store
	Hub      *Hub
	Log      zerolog.Logger
}

// Run performs one clone run and keeps the store record current. The
// returned error is non-nil only when the run produced nothing at all,
// i.e. the snapshot capture failed; generation failure falls back to the
// scaffold and still counts as a successful run.
func (r *Runner) Run(ctx context.Context, id string, req Request) (runstore.Record, error) {
	log := r.Log.With().Str("run_id", id).Str("url", req.URL).Logger()

	r.Hub.Publish(Event{Type: EventCapture, RunID: id, Message: req.URL})
	snap, err := r.Renderer.Capture(ctx, capture.Request{
		URL:      req.URL,
		Width:    req.Width,
		Height:   req.Height,
		Wait:     req.Wait,
		Timeout:  req.Timeout,
		FullPage: req.FullPage,
	})
	if err != nil {
		log.Error().Err(err).Msg("snapshot capture failed")
		rec := r.finish(id, func(rec *runstore.Record) {
			rec.Status = runstore.StatusFailed
			rec.Error = err.Error()
		})
		r.Hub.Publish(Event{Type: EventFailed, RunID: id, Message: err.Error()})
		return rec, err
	}
	if err := artifact.WriteSnapshot(req.OutDir, snap.PNG); err != nil {
		log.Error().Err(err).Msg("snapshot write failed")
		rec := r.finish(id, func(rec *runstore.Record) {
			rec.Status = runstore.StatusFailed
			rec.Error = err.Error()
		})
		r.Hub.Publish(Event{Type: EventFailed, RunID: id, Message: err.Error()})
		return rec, err
	}

	b, mode := r.generate(ctx, id, req, snap, log)

	if err := artifact.WriteRun(req.OutDir, b, snap.PNG); err != nil {
		log.Error().Err(err).Msg("artifact write failed")
		rec := r.finish(id, func(rec *runstore.Record) {
			rec.Status = runstore.StatusFailed
			rec.Error = err.Error()
		})
		r.Hub.Publish(Event{Type: EventFailed, RunID: id, Message: err.Error()})
		return rec, err
	}
	if r.Mirror != nil {
		if err := r.Mirror.MirrorRun(ctx, id, req.OutDir); err != nil {
			// Local output is complete; the mirror is advisory.
			log.Warn().Err(err).Msg("s3 mirror failed")
		}
	}

	rec := r.finish(id, func(rec *runstore.Record) {
		rec.Status = runstore.StatusDone
		rec.Mode = mode
		rec.Passes = req.Refine + 1
		if mode == runstore.ModeScaffold {
			rec.Passes = 0
		}
		rec.OutDir = req.OutDir
	})
	r.Hub.Publish(Event{Type: EventDone, RunID: id, Message: string(mode)})
	log.Info().Str("mode", string(mode)).Str("out", req.OutDir).Msg("run finished")
	return rec, nil
}

// generate returns the final bundle and the mode that produced it. AI
// failure is never fatal here: it degrades to the scaffold.
func (r *Runner) generate(ctx context.Context, id string, req Request, snap *capture.Snapshot, log zerolog.Logger) (bundle.Bundle, runstore.Mode) {
	if req.AI && r.LLM != nil {
		clone := &pipeline.Clone{
			LLM: r.LLM,
			OnPass: func(pass, total int) {
				r.Hub.Publish(Event{Type: EventPass, RunID: id, Pass: pass, Total: total})
			},
		}
		b, err := clone.Run(ctx, pipeline.Job{
			URL:        req.URL,
			Screenshot: snap.PNG,
			MIME:       "image/png",
			Refine:     req.Refine,
		})
		if err == nil {
			return b, runstore.ModeAI
		}
		log.Warn().Err(err).Msg("generation failed, falling back to scaffold")
		r.Hub.Publish(Event{Type: EventFallback, RunID: id, Message: err.Error()})
	}
	return bundle.Scaffold(req.URL, bundle.SnapshotName, scaffoldTitle(snap, req.URL)), runstore.ModeScaffold
}

func (r *Runner) finish(id string, fn func(*runstore.Record)) runstore.Record {
	rec, _ := r.Store.Update(id, func(rec *runstore.Record) {
		fn(rec)
		rec.FinishedAt = time.Now()
	})
	return rec
}

// scaffoldTitle prefers the captured DOM title and falls back to the URL
// host so the scaffold never renders an empty heading.
func scaffoldTitle(snap *capture.Snapshot, rawURL string) string {
	if snap != nil && snap.Title != "" {
		return snap.Title
	}
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		return u.Host
	}
	return rawURL
}

// OutDirFor picks the run directory under root. Runs are keyed by ID so
// repeated clones of one URL never collide.
func OutDirFor(root, id string) string {
	return filepath.Join(root, fmt.Sprintf("run-%s", id))
}
