package capture

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/rs/zerolog"
)

const defaultNavTimeout = 30 * time.Second

// RodRenderer drives a headless Chrome through Rod. One renderer owns one
// browser process; pages are opened per capture and closed after.
type RodRenderer struct {
	browser *rod.Browser
	lnch    *launcher.Launcher
	log     zerolog.Logger
}

// NewRodRenderer launches a local headless Chrome and connects to it.
func NewRodRenderer(log zerolog.Logger) (*RodRenderer, error) {
	lnch := launcher.New().Headless(true)
	u, err := lnch.Launch()
	if err != nil {
		return nil, fmt.Errorf("capture: launch chrome: %w", err)
	}
	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		lnch.Cleanup()
		return nil, fmt.Errorf("capture: connect chrome: %w", err)
	}
	return &RodRenderer{browser: browser, lnch: lnch, log: log}, nil
}

func (r *RodRenderer) Close() error {
	err := r.browser.Close()
	r.lnch.Cleanup()
	return err
}

// Capture navigates to req.URL with a stealth page, waits for the
// requested lifecycle event under req.Timeout, and screenshots the page.
// Timeout and network failures surface as *NavigationError.
func (r *RodRenderer) Capture(ctx context.Context, req Request) (*Snapshot, error) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = defaultNavTimeout
	}

	page, err := stealth.Page(r.browser)
	if err != nil {
		return nil, fmt.Errorf("capture: create page: %w", err)
	}
	defer page.Close()

	if req.Width > 0 && req.Height > 0 {
		if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
			Width:             req.Width,
			Height:            req.Height,
			DeviceScaleFactor: 1,
		}); err != nil {
			return nil, fmt.Errorf("capture: set viewport: %w", err)
		}
	}

	navCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	nav := page.Context(navCtx)
	wait := nav.WaitNavigation(lifecycleEvent(req.Wait))
	if err := nav.Navigate(req.URL); err != nil {
		return nil, &NavigationError{URL: req.URL, Cause: err}
	}
	wait()
	if navCtx.Err() != nil {
		return nil, &NavigationError{URL: req.URL, Cause: navCtx.Err()}
	}

	png, err := page.Context(ctx).Screenshot(req.FullPage, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return nil, &NavigationError{URL: req.URL, Cause: err}
	}

	// DOM and title are best-effort; the screenshot is the contract.
	html, err := page.Context(ctx).HTML()
	if err != nil {
		r.log.Warn().Err(err).Str("url", req.URL).Msg("dom read failed")
		html = ""
	}

	return &Snapshot{PNG: png, HTML: html, Title: Title(html)}, nil
}

func lifecycleEvent(w WaitUntil) proto.PageLifecycleEventName {
	switch w {
	case WaitDOMContentLoaded:
		return proto.PageLifecycleEventNameDOMContentLoaded
	case WaitNetworkIdle:
		return proto.PageLifecycleEventNameNetworkIdle
	default:
		return proto.PageLifecycleEventNameLoad
	}
}
