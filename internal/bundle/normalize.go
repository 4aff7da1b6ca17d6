package bundle

import "strings"

const (
	styleLink = `<link rel="stylesheet" href="` + StyleName + `">`
	scriptTag = `<script src="` + ScriptName + `"></script>`
)

// foldASCII lowercases ASCII letters only. Unlike strings.ToLower it
// never changes byte length (U+0130 and friends shrink under full
// lowering), so indexes found in the folded copy are valid in the
// original document.
func foldASCII(s string) string {
	return strings.Map(func(r rune) rune {
		if 'A' <= r && r <= 'Z' {
			return r + ('a' - 'A')
		}
		return r
	}, s)
}

// Normalize makes the markup pull in its sibling assets by their
// conventional filenames. References the provider already wrote are left
// alone; missing ones are injected before </head> and </body> (or at the
// document edges when those tags are absent). Idempotent: the injected
// references satisfy the existence check on a second run, and markup that
// already references both files passes through byte-identical.
func Normalize(b Bundle) Bundle {
	doc := b.HTML
	folded := foldASCII(doc)
	if !strings.Contains(folded, StyleName) {
		if i := strings.Index(folded, "</head>"); i >= 0 {
			doc = doc[:i] + styleLink + "\n" + doc[i:]
		} else {
			doc = styleLink + "\n" + doc
		}
		folded = foldASCII(doc)
	}
	if !strings.Contains(folded, ScriptName) {
		if i := strings.Index(folded, "</body>"); i >= 0 {
			doc = doc[:i] + scriptTag + "\n" + doc[i:]
		} else {
			doc = doc + "\n" + scriptTag
		}
	}
	b.HTML = doc
	return b
}
