// Package bundle defines the three-asset page clone and the helpers that
// turn untrusted model output into a validated, self-consistent bundle.
package bundle

import "errors"

// Conventional output filenames. The markup's asset references always
// resolve to these names, and the persistence layer writes them verbatim.
const (
	MarkupName   = "index.html"
	StyleName    = "styles.css"
	ScriptName   = "script.js"
	SnapshotName = "screenshot.png"
)

var (
	// ErrMalformedOutput means the provider text carried no extractable
	// JSON object, or the extracted span did not parse as one.
	ErrMalformedOutput = errors.New("bundle: malformed provider output")
	// ErrInvalidAssetShape means the payload parsed but one of the
	// required asset fields is missing or not a string.
	ErrInvalidAssetShape = errors.New("bundle: invalid asset shape")
)

// Bundle is a three-part static clone of a page. All fields are plain
// text; JS may be empty. Content is opaque, never parsed or sanitized.
type Bundle struct {
	HTML string `json:"html"`
	CSS  string `json:"css"`
	JS   string `json:"js"`
}
