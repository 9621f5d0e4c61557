package designer

import (
	"encoding/json"
	"strings"

	"github.com/kartlane/storefront-backend/pkg/css"
)

// DesignPayload is the structured design document produced by the model and
// stored in design state and history.
type DesignPayload struct {
	Variables    map[string]string `json:"variables,omitempty"`
	Layout       map[string]any    `json:"layout,omitempty"`
	CSSOverrides string            `json:"css_overrides,omitempty"`
}

// platformDefaults is the design every store starts from until its owner
// applies a generated one.
var platformDefaults = DesignPayload{
	Variables: map[string]string{
		"--primary-color":    "#1a73e8",
		"--secondary-color":  "#f4f4f5",
		"--accent-color":     "#fbbc04",
		"--background-color": "#ffffff",
		"--text-color":       "#202124",
		"--heading-font":     "'Inter', sans-serif",
		"--body-font":        "'Inter', sans-serif",
		"--border-radius":    "8px",
	},
	Layout: map[string]any{
		"header_style":  "minimal",
		"product_grid":  "3-column",
		"banner_height": "medium",
	},
}

// normalizeVariables rewrites variable keys to the canonical custom-property
// form, one leading double dash, dropping keys that are empty after trimming.
func normalizeVariables(vars map[string]string) map[string]string {
	if len(vars) == 0 {
		return nil
	}
	out := make(map[string]string, len(vars))
	for key, value := range vars {
		name := strings.TrimLeft(strings.TrimSpace(key), "-")
		if name == "" {
			continue
		}
		out["--"+name] = strings.TrimSpace(value)
	}
	return out
}

// sanitizePayload normalizes variable keys and strips dangerous CSS from the
// override block. It returns the cleaned payload and the blocked pattern
// names, if any.
func sanitizePayload(payload DesignPayload) (DesignPayload, []string) {
	payload.Variables = normalizeVariables(payload.Variables)
	result := css.Sanitize(payload.CSSOverrides)
	payload.CSSOverrides = result.Sanitized
	return payload, result.Blocked
}

func marshalPayload(payload DesignPayload) (json.RawMessage, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return raw, nil
}
