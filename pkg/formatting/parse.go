// Package formatting provides utilities for recovering structured data
// from free-form model output.
package formatting

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrParseFailed is returned when content cannot be parsed as JSON,
// either directly, from a markdown code fence, or from a brace window.
var ErrParseFailed = errors.New("failed to parse response")

var jsonBlockRegex = regexp.MustCompile(`(?s)` + "```" + `(?:json)?\s*\n?(.*?)\n?` + "```")

// Extract recovers a single JSON object from model output that may be
// wrapped in prose or code fences. It tries the trimmed content directly,
// then the body of a markdown fence, then the substring from the first `{`
// to the last `}`. Returns ErrParseFailed when no attempt yields JSON.
func Extract(content string) (map[string]any, error) {
	return Parse[map[string]any](content)
}

// Parse attempts to unmarshal content as JSON into T, applying the same
// recovery sequence as Extract.
func Parse[T any](content string) (T, error) {
	var result T
	content = strings.TrimSpace(content)

	if err := json.Unmarshal([]byte(content), &result); err == nil {
		return result, nil
	}

	candidate := content
	if matches := jsonBlockRegex.FindStringSubmatch(content); len(matches) >= 2 {
		candidate = strings.TrimSpace(matches[1])
		if err := json.Unmarshal([]byte(candidate), &result); err == nil {
			return result, nil
		}
	}

	if window, ok := braceWindow(candidate); ok {
		if err := json.Unmarshal([]byte(window), &result); err == nil {
			return result, nil
		}
	}

	return result, fmt.Errorf("%w: %s", ErrParseFailed, content)
}

// braceWindow returns the substring spanning the first `{` through the
// last `}`, which strips prose preambles and trailing commentary.
func braceWindow(content string) (string, bool) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end == -1 || end < start {
		return "", false
	}
	return content[start : end+1], true
}
