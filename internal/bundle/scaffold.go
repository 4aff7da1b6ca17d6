package bundle

import (
	"fmt"
	"html"
)

// Scaffold builds the deterministic placeholder clone used when AI
// generation is disabled, unconfigured, or failed. It is a pure function
// of its arguments: no provider call, no failure mode. The markup embeds
// the snapshot image so the user always gets a visual reference, and it
// references the sibling assets by their conventional filenames, so it
// needs no normalization. The page title and URL come from the target
// site, so they are escaped before interpolation.
func Scaffold(pageURL, snapshotPath, title string) Bundle {
	if title == "" {
		title = pageURL
	}
	title = html.EscapeString(title)
	pageURL = html.EscapeString(pageURL)
	doc := fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s</title>
<link rel="stylesheet" href="%s">
</head>
<body>
<main class="scaffold">
<h1>%s</h1>
<p class="origin">Static reference for <a href="%s">%s</a></p>
<img class="snapshot" src="%s" alt="Rendered snapshot of %s">
</main>
<script src="%s"></script>
</body>
</html>
`, title, StyleName, title, pageURL, pageURL, snapshotPath, pageURL, ScriptName)

	css := `:root { color-scheme: light dark; }
body { margin: 0; font-family: system-ui, sans-serif; }
.scaffold { max-width: 960px; margin: 0 auto; padding: 2rem 1rem; }
.scaffold h1 { font-size: 1.5rem; }
.origin { color: #666; }
.snapshot { display: block; width: 100%; height: auto; border: 1px solid #ddd; }
`

	js := `document.addEventListener('DOMContentLoaded', function () {
  console.log('pagesmith scaffold for ' + document.title);
});
`
	return Bundle{HTML: doc, CSS: css, JS: js}
}
