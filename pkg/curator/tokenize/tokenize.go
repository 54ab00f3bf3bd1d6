// Package tokenize adapts an injected subword segmentation model (or a
// whitespace fallback) into the word sequence the signal computers
// operate on. All functions are pure and safe for concurrent use.
package tokenize

import "strings"

// Segmenter is the handle to a pretrained subword segmentation model.
// Implementations are opaque to the pipeline beyond this contract.
type Segmenter interface {
	Segment(text string) []string
}

// Words splits text into word-like tokens. When seg is non-nil the model
// defines the boundaries, otherwise the text is split on whitespace.
// Characters for which strip returns true are trimmed from token edges;
// tokens that become empty are dropped.
func Words(text string, seg Segmenter, strip func(rune) bool, lowerCase bool) []string {
	if lowerCase {
		text = strings.ToLower(text)
	}

	var raw []string
	if seg != nil {
		raw = seg.Segment(text)
	} else {
		raw = strings.Fields(text)
	}

	words := make([]string, 0, len(raw))
	for _, tok := range raw {
		if strip != nil {
			tok = strings.TrimFunc(tok, strip)
		}
		if tok == "" {
			continue
		}
		words = append(words, tok)
	}
	return words
}

// Augment produces, for each group size g, every length-g sliding window
// of words joined by joinChar. The result is the union over all group
// sizes, in window order.
func Augment(words []string, groupSizes []int, joinChar string) []string {
	var groups []string
	for _, g := range groupSizes {
		if g < 2 || g > len(words) {
			continue
		}
		for i := 0; i+g <= len(words); i++ {
			groups = append(groups, strings.Join(words[i:i+g], joinChar))
		}
	}
	return groups
}
