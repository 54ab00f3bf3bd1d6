// Package admission decides document retention. A rule binds one signal
// to a threshold and a cutoff direction; the engine combines the active
// rules by logical conjunction. Each rule variant owns its own parameter
// shape and validates it at construction time, before any document is
// scored.
package admission

import (
	"fmt"

	"github.com/Luvata/data-tooling/pkg/curator/corpus"
	"github.com/Luvata/data-tooling/pkg/curator/internalerr"
)

// Direction tells whether a threshold is an upper or a lower cutoff.
type Direction int

const (
	// MaxCutoff retains documents with value <= threshold.
	MaxCutoff Direction = iota
	// MinCutoff retains documents with value >= threshold.
	MinCutoff
)

func (d Direction) String() string {
	if d == MaxCutoff {
		return "max"
	}
	return "min"
}

// Rule is one admission criterion. Rules are immutable once constructed;
// changing a threshold or parameter means building a new rule.
type Rule interface {
	// Name identifies the rule within a session; it keys the per-rule
	// discard counts of a report.
	Name() string

	// Signal names the metric column the rule reads.
	Signal() string

	// Value extracts the rule's signal from a metrics table. ok is false
	// when the document lacks the metric, in which case the rule is
	// inapplicable (neither pass nor fail).
	Value(m corpus.Metrics) (value float64, ok bool)

	// Evaluate applies the cutoff. applicable is false when the metric
	// is absent.
	Evaluate(m corpus.Metrics) (pass, applicable bool)
}

func cutoff(value, threshold float64, dir Direction) bool {
	if dir == MaxCutoff {
		return value <= threshold
	}
	return value >= threshold
}

// NumberWordsRule bounds the document word count from one side.
type NumberWordsRule struct {
	Threshold float64
	Dir       Direction
}

// NewNumberWordsRule builds a word-count rule.
func NewNumberWordsRule(threshold float64, dir Direction) (NumberWordsRule, error) {
	if threshold < 0 {
		return NumberWordsRule{}, fmt.Errorf("%w: number_words threshold %v, want >= 0", internalerr.ErrInvalidConfig, threshold)
	}
	return NumberWordsRule{Threshold: threshold, Dir: dir}, nil
}

func (r NumberWordsRule) Name() string   { return r.Dir.String() + "_" + corpus.SignalNumberWords }
func (r NumberWordsRule) Signal() string { return corpus.SignalNumberWords }

func (r NumberWordsRule) Value(m corpus.Metrics) (float64, bool) {
	return m.Value(corpus.SignalNumberWords)
}

func (r NumberWordsRule) Evaluate(m corpus.Metrics) (bool, bool) {
	v, ok := r.Value(m)
	if !ok {
		return false, false
	}
	return cutoff(v, r.Threshold, r.Dir), true
}

// RepetitionsRule discards documents whose repetition ratio, for the
// configured n-gram length, exceeds the threshold.
type RepetitionsRule struct {
	N   int
	Max float64
}

// NewRepetitionsRule builds a repetition-ratio rule for one n-gram length.
func NewRepetitionsRule(n int, max float64) (RepetitionsRule, error) {
	if n < 1 {
		return RepetitionsRule{}, fmt.Errorf("%w: repetition length %d, want >= 1", internalerr.ErrInvalidConfig, n)
	}
	if max < 0 || max > 1 {
		return RepetitionsRule{}, fmt.Errorf("%w: repetitions_ratio cutoff %v, want in [0,1]", internalerr.ErrInvalidConfig, max)
	}
	return RepetitionsRule{N: n, Max: max}, nil
}

func (r RepetitionsRule) Name() string   { return corpus.SignalRepetitionsRatio }
func (r RepetitionsRule) Signal() string { return corpus.SignalRepetitionsRatio }

func (r RepetitionsRule) Value(m corpus.Metrics) (float64, bool) {
	return m.RepetitionsRatio(r.N)
}

func (r RepetitionsRule) Evaluate(m corpus.Metrics) (bool, bool) {
	v, ok := r.Value(m)
	if !ok {
		return false, false
	}
	return cutoff(v, r.Max, MaxCutoff), true
}

// ratioRule is the shared shape of the single-threshold ratio rules.
type ratioRule struct {
	signal    string
	threshold float64
	dir       Direction
}

func newRatioRule(signal string, threshold float64, dir Direction) (ratioRule, error) {
	if threshold < 0 || threshold > 1 {
		return ratioRule{}, fmt.Errorf("%w: %s cutoff %v, want in [0,1]", internalerr.ErrInvalidConfig, signal, threshold)
	}
	return ratioRule{signal: signal, threshold: threshold, dir: dir}, nil
}

func (r ratioRule) Name() string   { return r.signal }
func (r ratioRule) Signal() string { return r.signal }

func (r ratioRule) Value(m corpus.Metrics) (float64, bool) { return m.Value(r.signal) }

func (r ratioRule) Evaluate(m corpus.Metrics) (bool, bool) {
	v, ok := r.Value(m)
	if !ok {
		return false, false
	}
	return cutoff(v, r.threshold, r.dir), true
}

// SpecialCharactersRule discards documents whose special-characters
// ratio exceeds the threshold.
type SpecialCharactersRule struct{ ratioRule }

// NewSpecialCharactersRule builds a special-characters ratio rule.
func NewSpecialCharactersRule(max float64) (SpecialCharactersRule, error) {
	rr, err := newRatioRule(corpus.SignalSpecialCharactersRatio, max, MaxCutoff)
	if err != nil {
		return SpecialCharactersRule{}, err
	}
	return SpecialCharactersRule{rr}, nil
}

// StopwordsRule discards documents whose stopwords ratio falls below the
// threshold.
type StopwordsRule struct{ ratioRule }

// NewStopwordsRule builds a stopwords-ratio rule.
func NewStopwordsRule(min float64) (StopwordsRule, error) {
	rr, err := newRatioRule(corpus.SignalStopwordsRatio, min, MinCutoff)
	if err != nil {
		return StopwordsRule{}, err
	}
	return StopwordsRule{rr}, nil
}

// FlaggedWordsRule discards documents whose flagged-words ratio exceeds
// the threshold.
type FlaggedWordsRule struct{ ratioRule }

// NewFlaggedWordsRule builds a flagged-words ratio rule.
func NewFlaggedWordsRule(max float64) (FlaggedWordsRule, error) {
	rr, err := newRatioRule(corpus.SignalFlaggedWordsRatio, max, MaxCutoff)
	if err != nil {
		return FlaggedWordsRule{}, err
	}
	return FlaggedWordsRule{rr}, nil
}

// LangIDRule retains documents whose classifier confidence reaches the
// threshold and whose predicted label equals the target language. The
// cutoff applies to the lang-id score itself, and a label mismatch
// discards regardless of the score.
type LangIDRule struct {
	Min        float64
	TargetLang string
}

// NewLangIDRule builds a language-identification rule.
func NewLangIDRule(min float64, targetLang string) (LangIDRule, error) {
	if min < 0 || min > 1 {
		return LangIDRule{}, fmt.Errorf("%w: lang_id_score cutoff %v, want in [0,1]", internalerr.ErrInvalidConfig, min)
	}
	if targetLang == "" {
		return LangIDRule{}, fmt.Errorf("%w: lang_id rule needs a target language", internalerr.ErrInvalidConfig)
	}
	return LangIDRule{Min: min, TargetLang: targetLang}, nil
}

func (r LangIDRule) Name() string   { return corpus.SignalLangIDScore }
func (r LangIDRule) Signal() string { return corpus.SignalLangIDScore }

func (r LangIDRule) Value(m corpus.Metrics) (float64, bool) {
	return m.Value(corpus.SignalLangIDScore)
}

func (r LangIDRule) Evaluate(m corpus.Metrics) (bool, bool) {
	v, ok := r.Value(m)
	if !ok {
		return false, false
	}
	return v >= r.Min && m.LangLabel == r.TargetLang, true
}

// PerplexityRule discards documents whose perplexity exceeds the
// threshold (higher perplexity means less fluent text).
type PerplexityRule struct {
	Max float64
}

// NewPerplexityRule builds a perplexity rule.
func NewPerplexityRule(max float64) (PerplexityRule, error) {
	if max < 0 {
		return PerplexityRule{}, fmt.Errorf("%w: perplexity_score cutoff %v, want >= 0", internalerr.ErrInvalidConfig, max)
	}
	return PerplexityRule{Max: max}, nil
}

func (r PerplexityRule) Name() string   { return corpus.SignalPerplexityScore }
func (r PerplexityRule) Signal() string { return corpus.SignalPerplexityScore }

func (r PerplexityRule) Value(m corpus.Metrics) (float64, bool) {
	return m.Value(corpus.SignalPerplexityScore)
}

func (r PerplexityRule) Evaluate(m corpus.Metrics) (bool, bool) {
	v, ok := r.Value(m)
	if !ok {
		return false, false
	}
	return cutoff(v, r.Max, MaxCutoff), true
}
