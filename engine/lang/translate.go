package lang

import (
	"context"
	"log/slog"
	"strings"
)

const translateSystemPrompt = `You are a high-quality translator. Translate the user's content to fluent, natural American English.
- Preserve technical terms, acronyms, company names, and year/date formats.
- Keep short bullets and lists as plain text (do not format as markdown).
- Return ONLY the translated text (no explanations).`

const translateMaxTokens = 1200

// Completer produces a chat completion for a system/user prompt pair.
type Completer interface {
	Complete(ctx context.Context, system, user string, maxTokens int) (string, error)
}

// Normalizer translates Vietnamese text to English before embedding.
// Translation failures degrade to the original text, never to an error.
type Normalizer struct {
	completer Completer
	log       *slog.Logger
}

func NewNormalizer(completer Completer, log *slog.Logger) *Normalizer {
	return &Normalizer{completer: completer, log: log}
}

// Normalize returns the English form of text plus whether a translation
// actually happened. Non-Vietnamese input passes through untouched.
func (n *Normalizer) Normalize(ctx context.Context, text string) (string, bool) {
	if !IsVietnamese(text) {
		return text, false
	}
	translated := n.translate(ctx, text)
	if translated == "" || translated == text {
		return text, false
	}
	return translated, true
}

func (n *Normalizer) translate(ctx context.Context, text string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	user := "Translate the following text to English. If the text is already English, just return it unchanged.\n\n---\n" + text + "\n---"
	out, err := n.completer.Complete(ctx, translateSystemPrompt, user, translateMaxTokens)
	if err != nil {
		n.log.Warn("translation failed, keeping original text", "error", err)
		return text
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return text
	}
	return out
}
