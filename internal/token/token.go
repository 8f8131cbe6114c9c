// Package token counts and truncates text in model tokens, backed by
// tiktoken-go. The cl100k_base encoding is initialized once; if that fails
// (e.g. no embedded vocabulary), a character heuristic keeps the package
// usable.
package token

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

var (
	once     sync.Once
	encoding *tiktoken.Tiktoken
)

func enc() *tiktoken.Tiktoken {
	once.Do(func() {
		e, err := tiktoken.GetEncoding("cl100k_base")
		if err == nil {
			encoding = e
		}
	})
	return encoding
}

// Count returns the token count of text under the cl100k_base encoding,
// falling back to Estimate when the encoding is unavailable.
func Count(text string) int {
	if e := enc(); e != nil {
		return len(e.Encode(text, nil, nil))
	}
	return Estimate(text)
}

// Estimate returns a cheap heuristic count: max(runes/4, word count).
func Estimate(text string) int {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0
	}
	runes := len([]rune(trimmed))
	words := len(strings.Fields(trimmed))
	estimate := runes / 4
	if estimate < words {
		estimate = words
	}
	if estimate == 0 {
		estimate = 1
	}
	return estimate
}

// Truncate cuts text down to at most maxTokens tokens, appending an
// ellipsis when anything was dropped. The ellipsis counts against the
// budget, so the result never exceeds maxTokens. maxTokens <= 0 leaves
// text untouched.
func Truncate(text string, maxTokens int) string {
	if maxTokens <= 0 {
		return text
	}
	if e := enc(); e != nil {
		tokens := e.Encode(text, nil, nil)
		if len(tokens) <= maxTokens {
			return text
		}
		keep := maxTokens - len(e.Encode("...", nil, nil))
		if keep < 0 {
			keep = 0
		}
		return e.Decode(tokens[:keep]) + "..."
	}
	runes := []rune(text)
	limit := (maxTokens - 1) * 4
	if limit < 0 {
		limit = 0
	}
	if maxTokens*4 >= len(runes) {
		return text
	}
	return string(runes[:limit]) + "..."
}
