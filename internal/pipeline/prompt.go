package pipeline

import (
	"encoding/json"
	"fmt"

	"pagesmith/internal/bundle"
)

func initialPrompt(url string) string {
	return fmt.Sprintf(`You are an expert front-end developer.
Rebuild the web page shown in the attached screenshot as a static clone.
The page was captured from: %s

Return STRICT JSON ONLY, a single object with exactly these keys:
{
  "html": "complete HTML document as a string",
  "css": "all styles as a single CSS file",
  "js": "page behaviour as a single JS file, empty string if none"
}

Constraints:
- Reproduce layout, colors, typography and spacing as closely as possible.
- Inline no styles or scripts; put them in the css/js fields.
- Use placeholder images where the original assets are unavailable.
- No markdown fences, no commentary outside the JSON object.`, url)
}

func refinePrompt(url string, prior bundle.Bundle, pass, total int) (string, error) {
	prev, err := json.Marshal(prior)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`You are an expert front-end developer refining a static clone of a web page.
This is refinement pass %d of %d. The page was captured from: %s
The attached screenshot is the ground truth.

Current clone (JSON with html/css/js keys):
%s

Improve the clone so it matches the screenshot more closely: fix layout,
spacing, colors and missing sections. Keep what already matches.

Return STRICT JSON ONLY, a single object with exactly the keys
"html", "css" and "js", each a string. No commentary outside the object.`,
		pass, total, url, prev), nil
}
