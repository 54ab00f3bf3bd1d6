package wordfilter

import (
	"testing"

	"github.com/Luvata/data-tooling/pkg/curator/corpus"
)

func TestExtractFlagsIncorrectSubstrings(t *testing.T) {
	f := New(Config{MaxLen: 25}, []string{"http", "xx"})

	words := f.Extract("visit http://a.example or read maxx text", nil, nil)
	flagged := map[string]bool{}
	for _, w := range words {
		flagged[w.Text] = w.IncorrectSubstring
	}

	if !flagged["http://a.example"] {
		t.Error("URL-bearing word should be flagged")
	}
	if !flagged["maxx"] {
		t.Error("Word containing xx should be flagged")
	}
	if flagged["read"] {
		t.Error("Clean word should not be flagged")
	}
}

func TestKeepLengthBound(t *testing.T) {
	f := New(Config{MaxLen: 4}, nil)

	if !f.Keep(corpus.Word{Text: "fine", Length: 4}) {
		t.Error("Word at the bound should be kept")
	}
	if f.Keep(corpus.Word{Text: "toolong", Length: 7}) {
		t.Error("Word over the bound should be dropped")
	}
}

func TestKeepIncorrectSubstringToggle(t *testing.T) {
	word := corpus.Word{Text: "maxx", Length: 4, IncorrectSubstring: true}

	lenient := New(Config{MaxLen: 10}, nil)
	if !lenient.Keep(word) {
		t.Error("Flagged word should be kept while removal is disabled")
	}

	strict := New(Config{MaxLen: 10, RemoveIncorrectSubstrings: true}, nil)
	if strict.Keep(word) {
		t.Error("Flagged word should be dropped while removal is enabled")
	}
}

func TestApplyPartitions(t *testing.T) {
	f := New(Config{MaxLen: 4, RemoveIncorrectSubstrings: true}, []string{"xx"})
	words := f.Extract("tiny maxx elongated word", nil, nil)

	retained, discarded := f.Apply(words)
	if len(retained) != 2 {
		t.Errorf("Expected 2 retained words, got %v", retained)
	}
	if len(discarded) != 2 {
		t.Errorf("Expected 2 discarded words, got %v", discarded)
	}
	if len(retained)+len(discarded) != len(words) {
		t.Error("Partition must cover all words")
	}
}

func TestWordLengthIsRuneCount(t *testing.T) {
	f := New(Config{MaxLen: 10}, nil)
	words := f.Extract("héllo", nil, nil)
	if len(words) != 1 || words[0].Length != 5 {
		t.Errorf("Length should count runes, got %+v", words)
	}
}
