package bundle

import "strings"

// ExtractObject returns the substring of text from the first '{' to the
// last '}' inclusive. Models often wrap the JSON object in prose, so this
// tolerates a prefix and suffix around the object.
//
// This is a span heuristic, not a balanced-brace parser: a free-standing
// '{' inside a string value before the genuine object shifts the span.
// Known limitation, kept on purpose.
func ExtractObject(text string) (string, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < 0 || end <= start {
		return "", ErrMalformedOutput
	}
	return text[start : end+1], nil
}
