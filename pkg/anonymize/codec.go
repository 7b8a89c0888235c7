// Package anonymize implements a reversible text-substitution codec.
// Anonymize maps proper nouns to opaque bracketed placeholder tokens via a
// generation call; Revert restores the originals with pure string
// substitution. Anonymization is best-effort and never a hard dependency:
// every failure path degrades to the original text and an empty map.
package anonymize

import (
	"context"
	"log/slog"
	"strings"

	"github.com/newslens/reframe/pkg/generation"
)

// Result is the outcome of an anonymization pass. Placeholders maps each
// bracketed token (e.g. "[ENTITY_A]") to the original text it replaced.
type Result struct {
	Text         string            `json:"text"`
	Placeholders map[string]string `json:"placeholders"`
}

// Codec anonymizes text through a generation caller.
type Codec struct {
	caller       generation.Caller
	instructions string
	opts         generation.Options
	logger       *slog.Logger
}

// NewCodec creates a Codec. The instructions direct the model to tag
// proper nouns with fresh unique bracketed tokens and to report the
// token-to-original mapping.
func NewCodec(
	caller generation.Caller,
	instructions string,
	opts generation.Options,
	logger *slog.Logger,
) *Codec {
	return &Codec{
		caller:       caller,
		instructions: instructions,
		opts:         opts,
		logger:       logger.With("system", "anonymize"),
	}
}

type anonymizeReply struct {
	AnonymizedText string            `json:"anonymized_text"`
	Placeholders   map[string]string `json:"placeholders"`
}

// Anonymize replaces proper nouns in text with placeholder tokens and
// returns the mapping needed to revert them. On any failure (call,
// parse, or malformed mapping) it falls back to the original text with
// an empty map.
func (c *Codec) Anonymize(ctx context.Context, text string) Result {
	fallback := Result{Text: text, Placeholders: map[string]string{}}

	msgs := []generation.Message{
		generation.System(c.instructions),
		generation.User(text),
	}

	raw, fail := c.caller.Call(ctx, msgs, c.opts)
	if fail != nil {
		c.logger.Warn("anonymization call failed, passing text through", "error", fail.Error)
		return fallback
	}

	reply, ok := decodeReply(raw)
	if !ok {
		c.logger.Warn("anonymization reply malformed, passing text through")
		return fallback
	}

	if !tokensValid(reply.Placeholders, reply.AnonymizedText) {
		c.logger.Warn("anonymization produced invalid placeholder map, passing text through")
		return fallback
	}

	return Result{
		Text:         reply.AnonymizedText,
		Placeholders: reply.Placeholders,
	}
}

func decodeReply(raw map[string]any) (anonymizeReply, bool) {
	var reply anonymizeReply

	text, ok := raw["anonymized_text"].(string)
	if !ok || text == "" {
		return reply, false
	}
	reply.AnonymizedText = text
	reply.Placeholders = map[string]string{}

	mapping, present := raw["placeholders"]
	if !present || mapping == nil {
		return reply, true
	}

	entries, ok := mapping.(map[string]any)
	if !ok {
		return reply, false
	}

	for token, original := range entries {
		value, ok := original.(string)
		if !ok {
			return reply, false
		}
		reply.Placeholders[token] = value
	}

	return reply, true
}

// tokensValid requires every token to be bracketed and present in the
// anonymized text. Bracketing guarantees tokens cannot overlap or nest,
// which keeps reversion order-independent.
func tokensValid(placeholders map[string]string, text string) bool {
	for token, original := range placeholders {
		if !strings.HasPrefix(token, "[") || !strings.HasSuffix(token, "]") {
			return false
		}
		if original == "" {
			return false
		}
		if !strings.Contains(text, token) {
			return false
		}
	}
	return true
}
