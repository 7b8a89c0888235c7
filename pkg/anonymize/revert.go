package anonymize

import "strings"

// Reversion statuses reported by Revert.
const (
	StatusReverted = "reverted"
	StatusEmptyMap = "empty_map"
	StatusNoInput  = "no_input"
)

// Reversion is the outcome of restoring placeholder tokens to their
// originals.
type Reversion struct {
	Text         string `json:"text"`
	Replacements int    `json:"replacements"`
	Status       string `json:"status"`
}

// Revert replaces every placeholder token found verbatim in text with its
// mapped original. It is pure and synchronous. Tokens absent from the
// text are skipped, an empty map is the identity, and missing input is
// reported as a status rather than an error. Replacement is literal, so
// the bracket characters in tokens never reach a pattern engine, and the
// result is independent of map iteration order.
func Revert(text string, placeholders map[string]string) Reversion {
	if text == "" {
		return Reversion{Text: "", Status: StatusNoInput}
	}

	if len(placeholders) == 0 {
		return Reversion{Text: text, Status: StatusEmptyMap}
	}

	replaced := 0
	for token, original := range placeholders {
		count := strings.Count(text, token)
		if count == 0 {
			continue
		}
		text = strings.ReplaceAll(text, token, original)
		replaced += count
	}

	return Reversion{
		Text:         text,
		Replacements: replaced,
		Status:       StatusReverted,
	}
}
