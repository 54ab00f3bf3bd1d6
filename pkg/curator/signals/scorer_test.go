package signals

import (
	"errors"
	"reflect"
	"testing"

	"github.com/Luvata/data-tooling/pkg/curator/corpus"
	"github.com/Luvata/data-tooling/pkg/curator/langconf"
	"github.com/Luvata/data-tooling/pkg/curator/lexicon"
)

func testConfig() *langconf.Config {
	return &langconf.Config{
		Lang:              "en",
		SpecialCharacters: "!#",
	}
}

func newTestScorer(t *testing.T, opts ScorerOptions) *Scorer {
	t.Helper()
	if opts.Config == nil {
		opts.Config = testConfig()
	}
	s, err := NewScorer(opts)
	if err != nil {
		t.Fatalf("NewScorer: %v", err)
	}
	return s
}

func TestScorerRequiresConfig(t *testing.T) {
	if _, err := NewScorer(ScorerOptions{}); err == nil {
		t.Error("Scorer without config should fail")
	}
}

func TestScorerRejectsBadRepetitionLength(t *testing.T) {
	if _, err := NewScorer(ScorerOptions{Config: testConfig(), RepetitionLengths: []int{0}}); err == nil {
		t.Error("Repetition length 0 should fail")
	}
}

func TestScoreFillsMetrics(t *testing.T) {
	s := newTestScorer(t, ScorerOptions{
		Stopwords:         lexicon.New("stopwords", []string{"the"}),
		FlaggedWords:      lexicon.New("flagged_words", []string{"bad"}),
		RepetitionLengths: []int{5, 10},
		LangID:            stubLangID{label: "en", score: 0.95},
		LanguageModel:     stubLM{score: 340},
	})

	doc := &corpus.Document{Text: "the bad cat sat on the mat"}
	if err := s.Score(doc); err != nil {
		t.Fatalf("Score: %v", err)
	}

	for _, signal := range []string{
		corpus.SignalNumberWords,
		corpus.SignalSpecialCharactersRatio,
		corpus.SignalStopwordsRatio,
		corpus.SignalFlaggedWordsRatio,
		corpus.SignalLangIDScore,
		corpus.SignalPerplexityScore,
	} {
		if _, ok := doc.Metrics.Value(signal); !ok {
			t.Errorf("Signal %s should be computed", signal)
		}
	}
	for _, n := range []int{5, 10} {
		if _, ok := doc.Metrics.RepetitionsRatio(n); !ok {
			t.Errorf("Repetition ratio for n=%d should be precomputed", n)
		}
	}
	if doc.Metrics.LangLabel != "en" {
		t.Errorf("Expected lang label en, got %q", doc.Metrics.LangLabel)
	}
}

func TestScoreIdempotent(t *testing.T) {
	s := newTestScorer(t, ScorerOptions{
		Stopwords:         lexicon.New("stopwords", []string{"the"}),
		RepetitionLengths: []int{5},
	})

	doc := &corpus.Document{Text: "the cat sat on the mat"}
	if err := s.Score(doc); err != nil {
		t.Fatalf("Score: %v", err)
	}
	first := doc.Metrics.Clone()

	if err := s.Score(doc); err != nil {
		t.Fatalf("Score: %v", err)
	}
	if !reflect.DeepEqual(first.Values, doc.Metrics.Values) {
		t.Errorf("Re-scoring changed metrics: %v vs %v", first.Values, doc.Metrics.Values)
	}
	if !reflect.DeepEqual(first.Repetitions, doc.Metrics.Repetitions) {
		t.Errorf("Re-scoring changed repetition cache: %v vs %v", first.Repetitions, doc.Metrics.Repetitions)
	}
}

func TestLexiconSwapRecomputesOnlyDependentSignal(t *testing.T) {
	s := newTestScorer(t, ScorerOptions{
		Stopwords:         lexicon.New("stopwords", []string{"cat"}),
		FlaggedWords:      lexicon.New("flagged_words", []string{"bad"}),
		RepetitionLengths: []int{5},
	})

	doc := &corpus.Document{Text: "the the cat"}
	if err := s.Score(doc); err != nil {
		t.Fatalf("Score: %v", err)
	}

	before := doc.Metrics.Clone()

	s.SetStopwords(lexicon.New("stopwords", []string{"the"}))
	s.ScoreStopwords(doc)

	got, _ := doc.Metrics.Value(corpus.SignalStopwordsRatio)
	if want := 2.0 / 3.0; got != want {
		t.Errorf("Expected stopwords ratio %v after swap, got %v", want, got)
	}

	// Everything except the stopwords ratio must be untouched.
	for signal, v := range before.Values {
		if signal == corpus.SignalStopwordsRatio {
			continue
		}
		if now, _ := doc.Metrics.Value(signal); now != v {
			t.Errorf("Signal %s changed on stopword swap: %v -> %v", signal, v, now)
		}
	}
	if !reflect.DeepEqual(before.Repetitions, doc.Metrics.Repetitions) {
		t.Errorf("Repetition cache changed on stopword swap")
	}
	if before.LexiconVersion(corpus.SignalFlaggedWordsRatio) != doc.Metrics.LexiconVersion(corpus.SignalFlaggedWordsRatio) {
		t.Errorf("Flagged-words version tag changed on stopword swap")
	}
}

func TestScoreStopwordsSkipsWhenVersionCurrent(t *testing.T) {
	lex := lexicon.New("stopwords", []string{"the"})
	s := newTestScorer(t, ScorerOptions{Stopwords: lex})

	doc := &corpus.Document{Text: "the cat"}
	s.ScoreStopwords(doc)

	// Poison the cached value; with an unchanged lexicon version the
	// scorer must not touch it.
	doc.Metrics.Set(corpus.SignalStopwordsRatio, 0.123)
	s.ScoreStopwords(doc)
	if v, _ := doc.Metrics.Value(corpus.SignalStopwordsRatio); v != 0.123 {
		t.Errorf("Unchanged lexicon should not trigger recompute, got %v", v)
	}
}

func TestEnsureRepetitionsDoesNotRecomputeCachedLengths(t *testing.T) {
	s := newTestScorer(t, ScorerOptions{RepetitionLengths: []int{5}})

	doc := &corpus.Document{Text: "to be or not to be to be"}
	if err := s.Score(doc); err != nil {
		t.Fatalf("Score: %v", err)
	}

	cached, _ := doc.Metrics.RepetitionsRatio(5)
	doc.Metrics.SetRepetitionsRatio(5, cached+1) // sentinel: recompute would overwrite

	s.EnsureRepetitions(doc, 10)

	if v, ok := doc.Metrics.RepetitionsRatio(10); !ok || v != RepetitionsRatio(doc.Text, 10) {
		t.Errorf("n=10 should be computed on demand, got %v (ok=%v)", v, ok)
	}
	if v, _ := doc.Metrics.RepetitionsRatio(5); v != cached+1 {
		t.Errorf("Requesting n=10 must not recompute n=5")
	}
}

func TestScoreModelFailureIsTaggedAndIsolated(t *testing.T) {
	s := newTestScorer(t, ScorerOptions{
		LangID:        stubLangID{err: errors.New("model file corrupt")},
		LanguageModel: stubLM{score: 77},
	})

	doc := &corpus.Document{Text: "some regular text"}
	err := s.Score(doc)
	if err == nil {
		t.Fatal("Expected a scoring error")
	}

	var scoreErr *ScoreError
	if !errors.As(err, &scoreErr) {
		t.Fatalf("Expected a ScoreError, got %T", err)
	}
	if scoreErr.Signal != corpus.SignalLangIDScore {
		t.Errorf("Failure should be tagged with lang_id_score, got %s", scoreErr.Signal)
	}

	// The other signals still computed.
	if _, ok := doc.Metrics.Value(corpus.SignalPerplexityScore); !ok {
		t.Error("Perplexity should still be computed when lang-id fails")
	}
	if _, ok := doc.Metrics.Value(corpus.SignalNumberWords); !ok {
		t.Error("Word count should still be computed when lang-id fails")
	}
}
