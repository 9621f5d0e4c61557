package designer

import (
	"encoding/json"
	"strings"
)

// selectorCatalog enumerates what the model is allowed to touch. Anything
// outside this list is rejected downstream, so the prompt states it up front.
const selectorCatalog = `Addressable CSS variables:
  --primary-color, --secondary-color, --accent-color, --background-color,
  --text-color, --heading-font, --body-font, --border-radius
Addressable layout options:
  header_style (minimal | classic | bold)
  product_grid (2-column | 3-column | 4-column)
  banner_height (small | medium | large)
Raw CSS overrides may target only storefront classes prefixed with ".sf-".`

const responseContract = `Respond with a single JSON object and nothing else.
For conversational answers: {"type": "text", "message": "..."}
For design changes: {"type": "design", "message": "...", "design": {"variables": {...}, "layout": {...}, "css_overrides": "..."}}`

// buildSystemPrompt embeds the store's current design so the model edits
// relative to what the storefront actually shows.
func buildSystemPrompt(current json.RawMessage) string {
	var b strings.Builder
	b.WriteString("You are the storefront design assistant for an e-commerce platform. ")
	b.WriteString("You help store owners restyle their shop through conversation.\n\n")

	b.WriteString("Current design state:\n")
	if len(current) == 0 {
		b.WriteString("platform defaults (the store has not applied a custom design)\n")
	} else {
		b.Write(current)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(selectorCatalog)
	b.WriteString("\n\n")
	b.WriteString(responseContract)
	return b.String()
}
