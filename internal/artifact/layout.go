// Package artifact persists finished runs: the three clone assets plus
// the snapshot under one directory, optionally mirrored to S3-compatible
// object storage.
package artifact

import (
	"fmt"
	"os"
	"path/filepath"

	"pagesmith/internal/bundle"
)

// ContentTypes maps the conventional filenames to their MIME types for
// object-storage mirroring.
var ContentTypes = map[string]string{
	bundle.MarkupName:   "text/html; charset=utf-8",
	bundle.StyleName:    "text/css; charset=utf-8",
	bundle.ScriptName:   "text/javascript; charset=utf-8",
	bundle.SnapshotName: "image/png",
}

// WriteRun writes a finished run to dir: index.html, styles.css,
// script.js and, when non-nil, screenshot.png. The directory is created
// when missing.
func WriteRun(dir string, b bundle.Bundle, snapshot []byte) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("artifact: create %s: %w", dir, err)
	}
	files := map[string][]byte{
		bundle.MarkupName: []byte(b.HTML),
		bundle.StyleName:  []byte(b.CSS),
		bundle.ScriptName: []byte(b.JS),
	}
	if snapshot != nil {
		files[bundle.SnapshotName] = snapshot
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			return fmt.Errorf("artifact: write %s: %w", name, err)
		}
	}
	return nil
}

// WriteSnapshot writes only the snapshot image, used before generation so
// the visual reference survives even when the rest of the run fails.
func WriteSnapshot(dir string, png []byte) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("artifact: create %s: %w", dir, err)
	}
	if err := os.WriteFile(filepath.Join(dir, bundle.SnapshotName), png, 0o644); err != nil {
		return fmt.Errorf("artifact: write %s: %w", bundle.SnapshotName, err)
	}
	return nil
}
