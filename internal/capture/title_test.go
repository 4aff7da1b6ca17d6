package capture

import "testing"

func TestTitle(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		want string
	}{
		{"simple", "<html><head><title>Example Domain</title></head><body></body></html>", "Example Domain"},
		{"whitespace", "<title>\n  Padded \n</title>", "Padded"},
		{"missing", "<html><head></head><body><h1>no title</h1></body></html>", ""},
		{"empty doc", "", ""},
		{"first wins", "<title>one</title><title>two</title>", "one"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Title(tc.doc); got != tc.want {
				t.Fatalf("Title(%q) = %q, want %q", tc.doc, got, tc.want)
			}
		})
	}
}

func TestParseWaitUntil(t *testing.T) {
	if ParseWaitUntil("networkidle") != WaitNetworkIdle {
		t.Fatal("networkidle not recognized")
	}
	if ParseWaitUntil("domcontentloaded") != WaitDOMContentLoaded {
		t.Fatal("domcontentloaded not recognized")
	}
	for _, s := range []string{"", "load", "bogus"} {
		if ParseWaitUntil(s) != WaitLoad {
			t.Fatalf("ParseWaitUntil(%q) should default to load", s)
		}
	}
}
