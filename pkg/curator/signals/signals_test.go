package signals

import (
	"math"
	"testing"

	"github.com/Luvata/data-tooling/pkg/curator/langconf"
	"github.com/Luvata/data-tooling/pkg/curator/lexicon"
)

func TestNumberWords(t *testing.T) {
	if n := NumberWords("the quick brown fox", nil, nil); n != 4 {
		t.Errorf("Expected 4 words, got %d", n)
	}
	if n := NumberWords("", nil, nil); n != 0 {
		t.Errorf("Empty text should count 0 words, got %d", n)
	}
}

func TestRepetitionsRatio(t *testing.T) {
	// "abab" bigrams: ab ab ba -> one of two distinct n-grams repeats,
	// carrying 2 of the 3 occurrences.
	got := RepetitionsRatio("abab", 2)
	want := 2.0 / 3.0
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestRepetitionsRatioNoRepeats(t *testing.T) {
	if got := RepetitionsRatio("abcd", 2); got != 0 {
		t.Errorf("Distinct n-grams only, expected 0, got %v", got)
	}
}

func TestRepetitionsRatioShortText(t *testing.T) {
	if got := RepetitionsRatio("ab", 5); got != 0 {
		t.Errorf("Text shorter than n should give 0, got %v", got)
	}
	if got := RepetitionsRatio("", 5); got != 0 {
		t.Errorf("Empty text should give 0, got %v", got)
	}
}

func TestRepetitionsRatioIdempotent(t *testing.T) {
	text := "to be or not to be, that is the question: to be"
	first := RepetitionsRatio(text, 5)
	for i := 0; i < 3; i++ {
		if again := RepetitionsRatio(text, 5); again != first {
			t.Errorf("Recomputation should be bit-identical: %v vs %v", first, again)
		}
	}
}

func TestSpecialCharactersRatio(t *testing.T) {
	isSpecial := func(r rune) bool { return r == '!' }
	if got := SpecialCharactersRatio("ab!!", isSpecial); got != 0.5 {
		t.Errorf("Expected 0.5, got %v", got)
	}
	if got := SpecialCharactersRatio("", isSpecial); got != 0 {
		t.Errorf("Empty text should give 0, got %v", got)
	}
}

func TestStopwordsRatio(t *testing.T) {
	lex := lexicon.New("stopwords", []string{"the"})
	got := StopwordsRatio("the the cat", nil, nil, langconf.Augmentation{}, lex)
	want := 2.0 / 3.0
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestStopwordsRatioEmptyText(t *testing.T) {
	lex := lexicon.New("stopwords", []string{"the"})
	if got := StopwordsRatio("   ", nil, nil, langconf.Augmentation{}, lex); got != 0 {
		t.Errorf("Whitespace-only text should give 0, got %v", got)
	}
}

func TestLexiconRatioWithAugmentation(t *testing.T) {
	// Single tokens never match, but the joined bigram does.
	lex := lexicon.New("stopwords", []string{"of_course"})
	aug := langconf.Augmentation{Enabled: true, GroupSizes: []int{2}, JoinChar: "_"}

	got := StopwordsRatio("of course", nil, nil, aug, lex)
	if got != 0.5 {
		t.Errorf("Augmented group should match: expected 0.5, got %v", got)
	}

	without := StopwordsRatio("of course", nil, nil, langconf.Augmentation{}, lex)
	if without != 0 {
		t.Errorf("Without augmentation expected 0, got %v", without)
	}
}

func TestLexiconRatioCappedAtOne(t *testing.T) {
	lex := lexicon.New("stopwords", []string{"a", "b", "a_b"})
	aug := langconf.Augmentation{Enabled: true, GroupSizes: []int{2}, JoinChar: "_"}
	if got := FlaggedWordsRatio("a b", nil, nil, aug, lex); got != 1 {
		t.Errorf("Ratio should cap at 1, got %v", got)
	}
}

func TestLangIDEmptyText(t *testing.T) {
	label, score, err := LangID(stubLangID{label: "en", score: 0.9}, " \n ")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if label != "" || !math.IsNaN(score) {
		t.Errorf("Empty text should be indeterminate, got (%q, %v)", label, score)
	}
}

func TestPerplexityEmptyText(t *testing.T) {
	pp, err := Perplexity(stubLM{score: 120}, "\n\n")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !math.IsNaN(pp) {
		t.Errorf("Empty text should be indeterminate, got %v", pp)
	}
}

type stubLangID struct {
	label string
	score float64
	err   error
}

func (s stubLangID) Predict(text string) (string, float64, error) {
	return s.label, s.score, s.err
}

type stubLM struct {
	score float64
	err   error
}

func (s stubLM) Score(text string) (float64, error) { return s.score, s.err }
