// Command pagesmith clones one web page from the command line: it
// captures a rendered snapshot and writes a three-asset static clone
// next to it.
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"pagesmith/internal/artifact"
	"pagesmith/internal/bundle"
	"pagesmith/internal/capture"
	"pagesmith/internal/config"
	"pagesmith/internal/llmclient"
	"pagesmith/internal/pipeline"
)

func main() {
	pageURL := flag.String("url", "", "page URL to clone (required)")
	outDir := flag.String("out", "out", "output directory")
	model := flag.String("model", config.DefaultModel, "Gemini model id")
	refine := flag.Int("refine", config.DefaultRefine, "refinement passes after the initial generation")
	width := flag.Int("width", config.DefaultWidth, "viewport width")
	height := flag.Int("height", config.DefaultHeight, "viewport height")
	wait := flag.String("wait", "load", "navigation wait condition: load, domcontentloaded, networkidle")
	timeout := flag.Duration("timeout", 30*time.Second, "navigation timeout")
	fullPage := flag.Bool("full-page", true, "capture the full page, not just the viewport")
	noAI := flag.Bool("no-ai", false, "skip AI generation, emit the scaffold")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	if *pageURL == "" {
		log.Fatal().Msg("--url is required")
	}
	_ = godotenv.Load()

	ctx := context.Background()

	renderer, err := capture.NewRodRenderer(log)
	if err != nil {
		log.Fatal().Err(err).Msg("browser launch failed")
	}
	defer renderer.Close()

	log.Info().Str("url", *pageURL).Msg("capturing snapshot")
	snap, err := renderer.Capture(ctx, capture.Request{
		URL:      *pageURL,
		Width:    *width,
		Height:   *height,
		Wait:     capture.ParseWaitUntil(*wait),
		Timeout:  *timeout,
		FullPage: *fullPage,
	})
	if err != nil {
		// No snapshot, nothing to clone against.
		log.Fatal().Err(err).Msg("snapshot capture failed")
	}
	if err := artifact.WriteSnapshot(*outDir, snap.PNG); err != nil {
		log.Fatal().Err(err).Msg("snapshot write failed")
	}

	apiKey := os.Getenv("GEMINI_API_KEY")
	aiEnabled := !*noAI && apiKey != ""
	if !*noAI && apiKey == "" {
		log.Warn().Msg("GEMINI_API_KEY is not set, emitting scaffold")
	}

	b, mode := generate(ctx, log, aiEnabled, apiKey, *model, *refine, *pageURL, snap)
	if err := artifact.WriteRun(*outDir, b, snap.PNG); err != nil {
		log.Fatal().Err(err).Msg("write output failed")
	}
	log.Info().Str("mode", mode).Str("out", *outDir).Msg("clone complete")
}

func generate(ctx context.Context, log zerolog.Logger, aiEnabled bool, apiKey, model string, refine int, pageURL string, snap *capture.Snapshot) (bundle.Bundle, string) {
	if aiEnabled {
		llm, err := llmclient.NewGeminiClient(ctx, apiKey, model)
		if err != nil {
			log.Warn().Err(err).Msg("provider init failed, emitting scaffold")
		} else {
			defer llm.Close()
			clone := &pipeline.Clone{
				LLM: llm,
				OnPass: func(pass, total int) {
					log.Info().Int("pass", pass).Int("total", total).Msg("generation pass")
				},
			}
			b, err := clone.Run(ctx, pipeline.Job{
				URL:        pageURL,
				Screenshot: snap.PNG,
				MIME:       "image/png",
				Refine:     refine,
			})
			if err == nil {
				return b, "ai"
			}
			var genErr *pipeline.GenerationError
			if errors.As(err, &genErr) {
				log.Warn().Err(genErr.Cause).Int("pass", genErr.Pass).Msg("generation failed, emitting scaffold")
			} else {
				log.Warn().Err(err).Msg("generation failed, emitting scaffold")
			}
		}
	}
	title := snap.Title
	if title == "" {
		title = pageURL
	}
	return bundle.Scaffold(pageURL, bundle.SnapshotName, title), "scaffold"
}
