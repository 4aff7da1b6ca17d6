package bundle

import (
	"encoding/json"
	"fmt"
)

// requiredFields are the asset keys the provider must return.
var requiredFields = []string{"html", "css", "js"}

// DecodeBundle parses an extracted JSON span into a Bundle.
// A payload that is not a JSON object yields ErrMalformedOutput; an
// object missing any required key, or carrying a non-string value for
// one, yields ErrInvalidAssetShape. Empty strings are valid assets.
func DecodeBundle(payload string) (Bundle, error) {
	var m map[string]any
	if err := json.Unmarshal([]byte(payload), &m); err != nil {
		return Bundle{}, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	var b Bundle
	for _, key := range requiredFields {
		v, ok := m[key]
		if !ok {
			return Bundle{}, fmt.Errorf("%w: missing %q", ErrInvalidAssetShape, key)
		}
		s, ok := v.(string)
		if !ok {
			return Bundle{}, fmt.Errorf("%w: %q is not a string", ErrInvalidAssetShape, key)
		}
		switch key {
		case "html":
			b.HTML = s
		case "css":
			b.CSS = s
		case "js":
			b.JS = s
		}
	}
	return b, nil
}
