// Package capture produces rendered page snapshots through a headless
// browser. The Renderer interface keeps the browser swappable in tests.
package capture

import (
	"context"
	"fmt"
	"time"
)

// WaitUntil names the navigation-completion condition.
type WaitUntil string

const (
	WaitLoad             WaitUntil = "load"
	WaitDOMContentLoaded WaitUntil = "domcontentloaded"
	WaitNetworkIdle      WaitUntil = "networkidle"
)

// ParseWaitUntil maps a user-supplied string onto a condition, defaulting
// to WaitLoad.
func ParseWaitUntil(s string) WaitUntil {
	switch WaitUntil(s) {
	case WaitDOMContentLoaded, WaitNetworkIdle:
		return WaitUntil(s)
	default:
		return WaitLoad
	}
}

// Request describes one snapshot capture.
type Request struct {
	URL      string
	Width    int
	Height   int
	Wait     WaitUntil
	Timeout  time.Duration
	FullPage bool
}

// Snapshot is the raster image plus the rendered DOM the renderer saw.
// HTML and Title are best-effort extras; PNG is the contract.
type Snapshot struct {
	PNG   []byte
	HTML  string
	Title string
}

// NavigationError means no snapshot could be produced. It is terminal
// for the whole run: even the fallback scaffold has nothing to show.
type NavigationError struct {
	URL   string
	Cause error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("capture: navigation to %s failed: %v", e.URL, e.Cause)
}
func (e *NavigationError) Unwrap() error { return e.Cause }

// Renderer captures snapshots of live pages.
type Renderer interface {
	Capture(ctx context.Context, req Request) (*Snapshot, error)
	Close() error
}
