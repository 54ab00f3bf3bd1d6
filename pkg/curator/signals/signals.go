// Package signals computes the per-document quality signals: word count,
// repetition ratio, special-characters ratio, stopword and flagged-word
// ratios, language-identification score and perplexity. The computers are
// pure functions of (text, configuration, lexicon); for a fixed input they
// always return bit-identical values. Empty or whitespace-only text yields
// the defined sentinels (0 for counts and ratios, NaN for model scores)
// instead of failing.
package signals

import (
	"sort"
	"strings"

	"github.com/Luvata/data-tooling/pkg/curator/langconf"
	"github.com/Luvata/data-tooling/pkg/curator/lexicon"
	"github.com/Luvata/data-tooling/pkg/curator/tokenize"
)

// NumberWords returns the size of the tokenized, non-augmented word
// sequence. It is both a standalone signal and the denominator used by
// the lexicon ratios.
func NumberWords(text string, seg tokenize.Segmenter, strip func(rune) bool) int {
	return len(tokenize.Words(text, seg, strip, false))
}

// RepetitionsRatio measures how much of the character n-gram volume of
// the text is attributable to repeated n-grams. Frequencies are sorted in
// decreasing order; the top half of the distinct n-grams (bounded by the
// number of n-grams occurring more than once) counts as repeated, and the
// ratio is their frequency mass over the total. Returns 0 when the text
// is shorter than n.
func RepetitionsRatio(text string, n int) float64 {
	if n < 1 {
		return 0
	}
	runes := []rune(text)
	if len(runes) < n {
		return 0
	}

	freq := make(map[string]int, len(runes))
	for i := 0; i+n <= len(runes); i++ {
		freq[string(runes[i:i+n])]++
	}

	counts := make([]int, 0, len(freq))
	singletons := 0
	total := 0
	for _, c := range freq {
		counts = append(counts, c)
		total += c
		if c == 1 {
			singletons++
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(counts)))

	repeated := len(counts) / 2
	if max := len(counts) - singletons; repeated > max {
		repeated = max
	}

	mass := 0
	for _, c := range counts[:repeated] {
		mass += c
	}
	return float64(mass) / float64(total)
}

// SpecialCharactersRatio returns the fraction of characters in the text
// belonging to the configured special-characters set.
func SpecialCharactersRatio(text string, isSpecial func(rune) bool) float64 {
	if isSpecial == nil {
		return 0
	}
	total := 0
	special := 0
	for _, r := range text {
		total++
		if isSpecial(r) {
			special++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(special) / float64(total)
}

// StopwordsRatio returns the fraction of tokens present in the stopword
// lexicon. Tokens are lower-cased; when augmentation is active the match
// domain additionally contains the joined token groups, while the
// denominator stays the base word count (so the ratio is capped at 1).
func StopwordsRatio(text string, seg tokenize.Segmenter, strip func(rune) bool, aug langconf.Augmentation, lex *lexicon.Lexicon) float64 {
	return lexiconRatio(text, seg, strip, aug, lex)
}

// FlaggedWordsRatio returns the fraction of tokens present in the
// flagged-word lexicon, with the same augmentation semantics as
// StopwordsRatio.
func FlaggedWordsRatio(text string, seg tokenize.Segmenter, strip func(rune) bool, aug langconf.Augmentation, lex *lexicon.Lexicon) float64 {
	return lexiconRatio(text, seg, strip, aug, lex)
}

func lexiconRatio(text string, seg tokenize.Segmenter, strip func(rune) bool, aug langconf.Augmentation, lex *lexicon.Lexicon) float64 {
	if lex == nil {
		return 0
	}
	words := tokenize.Words(text, seg, strip, true)
	if len(words) == 0 {
		return 0
	}

	domain := words
	if aug.Enabled {
		domain = append(domain[:len(domain):len(domain)],
			tokenize.Augment(words, aug.GroupSizes, aug.JoinChar)...)
	}

	matches := 0
	for _, w := range domain {
		if lex.Contains(w) {
			matches++
		}
	}

	ratio := float64(matches) / float64(len(words))
	if ratio > 1 {
		ratio = 1
	}
	return ratio
}

func flattenNewlines(text string) string {
	return strings.TrimSpace(strings.ReplaceAll(text, "\n", " "))
}
