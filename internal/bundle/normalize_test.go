package bundle

import (
	"strings"
	"testing"
)

func TestNormalize_InjectsIntoHeadAndBody(t *testing.T) {
	b := Normalize(Bundle{HTML: "<html><head><title>x</title></head><body><p>hi</p></body></html>"})
	if !strings.Contains(b.HTML, StyleName) || !strings.Contains(b.HTML, ScriptName) {
		t.Fatalf("missing asset references: %q", b.HTML)
	}
	head := strings.Index(b.HTML, "</head>")
	link := strings.Index(b.HTML, styleLink)
	if link < 0 || link > head {
		t.Fatalf("style link not inside head: %q", b.HTML)
	}
	body := strings.Index(b.HTML, "</body>")
	script := strings.Index(b.HTML, scriptTag)
	if script < 0 || script > body {
		t.Fatalf("script tag not inside body: %q", b.HTML)
	}
}

func TestNormalize_NoHeadNoBody(t *testing.T) {
	b := Normalize(Bundle{HTML: "<p>bare fragment</p>"})
	if !strings.HasPrefix(b.HTML, styleLink) {
		t.Fatalf("style link not prepended: %q", b.HTML)
	}
	if !strings.HasSuffix(b.HTML, scriptTag) {
		t.Fatalf("script tag not appended: %q", b.HTML)
	}
}

func TestNormalize_ExistingReferencesUntouched(t *testing.T) {
	in := Bundle{
		HTML: `<html><head><LINK HREF="Styles.CSS"></head><body><script src="script.js"></script></body></html>`,
		CSS:  "body{}",
		JS:   "",
	}
	out := Normalize(in)
	if out != in {
		t.Fatalf("normalization touched markup with existing references:\n in: %q\nout: %q", in.HTML, out.HTML)
	}
}

func TestNormalize_MultibyteRunesBeforeTags(t *testing.T) {
	// Runes whose lowercase form is shorter in bytes (İ is 2 bytes,
	// its lowered form 1) must not shift the injection offsets.
	in := Bundle{HTML: "<html><head><title>İİİSTANBUL</title></head><body>3K ambient</body></html>"}
	out := Normalize(in)
	for _, intact := range []string{"</title>", "</head>", "</body>", "İİİSTANBUL"} {
		if !strings.Contains(out.HTML, intact) {
			t.Fatalf("normalization corrupted %q: %q", intact, out.HTML)
		}
	}
	head := strings.Index(out.HTML, "</head>")
	link := strings.Index(out.HTML, styleLink)
	if link < 0 || link > head {
		t.Fatalf("style link not immediately before </head>: %q", out.HTML)
	}
	body := strings.Index(out.HTML, "</body>")
	script := strings.Index(out.HTML, scriptTag)
	if script < 0 || script > body {
		t.Fatalf("script tag not immediately before </body>: %q", out.HTML)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []Bundle{
		{HTML: ""},
		{HTML: "<p>x</p>"},
		{HTML: "<html><head></head><body></body></html>"},
		{HTML: `<html><head><link rel="stylesheet" href="styles.css"></head><body></body></html>`},
	}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Fatalf("not idempotent for %q:\nonce:  %q\ntwice: %q", in.HTML, once.HTML, twice.HTML)
		}
	}
}
