// Package wordfilter applies the word-level admission rules: a length
// bound and an optional incorrect-substring predicate. It is independent
// of document-level admission.
package wordfilter

import (
	"strings"
	"unicode/utf8"

	"github.com/Luvata/data-tooling/pkg/curator/corpus"
	"github.com/Luvata/data-tooling/pkg/curator/tokenize"
)

// Config holds the word-level thresholds.
type Config struct {
	MaxLen                    int
	RemoveIncorrectSubstrings bool
}

// Filter retains a word iff its length is within bound and, when
// enabled, it does not contain any configured incorrect substring.
type Filter struct {
	cfg        Config
	substrings []string
}

// New builds a filter. incorrectSubstrings comes from the per-language
// configuration.
func New(cfg Config, incorrectSubstrings []string) *Filter {
	return &Filter{cfg: cfg, substrings: incorrectSubstrings}
}

// Extract produces the transient word entities for one document, with
// the incorrect-substring flag already evaluated. Words only live for
// the duration of a scoring pass.
func (f *Filter) Extract(text string, seg tokenize.Segmenter, strip func(rune) bool) []corpus.Word {
	tokens := tokenize.Words(text, seg, strip, false)
	words := make([]corpus.Word, len(tokens))
	for i, tok := range tokens {
		words[i] = corpus.Word{
			Text:               tok,
			Length:             utf8.RuneCountInString(tok),
			IncorrectSubstring: f.hasIncorrectSubstring(tok),
		}
	}
	return words
}

// Keep reports whether the word passes the filter.
func (f *Filter) Keep(w corpus.Word) bool {
	if w.Length > f.cfg.MaxLen {
		return false
	}
	if f.cfg.RemoveIncorrectSubstrings && w.IncorrectSubstring {
		return false
	}
	return true
}

// Apply partitions words into retained and discarded.
func (f *Filter) Apply(words []corpus.Word) (retained, discarded []corpus.Word) {
	for _, w := range words {
		if f.Keep(w) {
			retained = append(retained, w)
		} else {
			discarded = append(discarded, w)
		}
	}
	return retained, discarded
}

func (f *Filter) hasIncorrectSubstring(word string) bool {
	for _, sub := range f.substrings {
		if sub != "" && strings.Contains(word, sub) {
			return true
		}
	}
	return false
}
