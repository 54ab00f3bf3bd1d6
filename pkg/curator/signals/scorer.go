package signals

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/hashicorp/go-multierror"

	"github.com/Luvata/data-tooling/pkg/curator/corpus"
	"github.com/Luvata/data-tooling/pkg/curator/internalerr"
	"github.com/Luvata/data-tooling/pkg/curator/langconf"
	"github.com/Luvata/data-tooling/pkg/curator/lexicon"
	"github.com/Luvata/data-tooling/pkg/curator/tokenize"
)

// Scorer computes and caches the full signal battery for documents. It is
// safe for concurrent use: the configuration and models are immutable,
// and lexicons are replaced by atomic pointer swap so in-flight scoring
// sees either the old or the new set, never a partial one.
type Scorer struct {
	cfg     *langconf.Config
	seg     tokenize.Segmenter
	langID  LangIDModel
	lm      LanguageModel
	lengths []int

	stopwords atomic.Pointer[lexicon.Lexicon]
	flagged   atomic.Pointer[lexicon.Lexicon]
}

// ScorerOptions configures a Scorer.
type ScorerOptions struct {
	Config        *langconf.Config
	Segmenter     tokenize.Segmenter
	LangID        LangIDModel
	LanguageModel LanguageModel
	Stopwords     *lexicon.Lexicon
	FlaggedWords  *lexicon.Lexicon

	// RepetitionLengths lists every n-gram length the admission session
	// may request; ratios for all of them are computed up front so
	// switching n later is a cache lookup.
	RepetitionLengths []int
}

// NewScorer creates a Scorer with the given dependencies.
func NewScorer(opts ScorerOptions) (*Scorer, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("%w: scorer needs a language config", internalerr.ErrInvalidConfig)
	}
	for _, n := range opts.RepetitionLengths {
		if n < 1 {
			return nil, fmt.Errorf("%w: repetition length %d, want >= 1", internalerr.ErrInvalidConfig, n)
		}
	}

	s := &Scorer{
		cfg:     opts.Config,
		seg:     opts.Segmenter,
		langID:  opts.LangID,
		lm:      opts.LanguageModel,
		lengths: opts.RepetitionLengths,
	}
	if opts.Stopwords != nil {
		s.stopwords.Store(opts.Stopwords)
	}
	if opts.FlaggedWords != nil {
		s.flagged.Store(opts.FlaggedWords)
	}
	return s, nil
}

// Config returns the per-language configuration the scorer was built with.
func (s *Scorer) Config() *langconf.Config { return s.cfg }

// RepetitionLengths returns the n-gram lengths precomputed per document.
func (s *Scorer) RepetitionLengths() []int { return s.lengths }

// HasLangID reports whether a language-identification classifier is
// configured.
func (s *Scorer) HasLangID() bool { return s.langID != nil }

// HasLanguageModel reports whether a perplexity language model is
// configured.
func (s *Scorer) HasLanguageModel() bool { return s.lm != nil }

// Stopwords returns the active stopword lexicon, which may be nil.
func (s *Scorer) Stopwords() *lexicon.Lexicon { return s.stopwords.Load() }

// SetStopwords atomically replaces the stopword lexicon.
func (s *Scorer) SetStopwords(l *lexicon.Lexicon) { s.stopwords.Store(l) }

// FlaggedWords returns the active flagged-word lexicon, which may be nil.
func (s *Scorer) FlaggedWords() *lexicon.Lexicon { return s.flagged.Load() }

// SetFlaggedWords atomically replaces the flagged-word lexicon.
func (s *Scorer) SetFlaggedWords(l *lexicon.Lexicon) { s.flagged.Store(l) }

// wordSeg returns the segmenter used for word splitting. The language
// config decides whether subword tokenization applies to word-level
// signals; the perplexity model always segments internally.
func (s *Scorer) wordSeg() tokenize.Segmenter {
	if s.cfg.Tokenization {
		return s.seg
	}
	return nil
}

// Score fills in every signal of the document that is missing or stale.
// Model failures are collected per signal and returned together; the
// remaining signals are still computed.
func (s *Scorer) Score(doc *corpus.Document) error {
	m := &doc.Metrics

	m.Set(corpus.SignalNumberWords,
		float64(NumberWords(doc.Text, s.wordSeg(), s.cfg.IsStrip)))

	for _, n := range s.lengths {
		if _, ok := m.RepetitionsRatio(n); !ok {
			m.SetRepetitionsRatio(n, RepetitionsRatio(doc.Text, n))
		}
	}

	m.Set(corpus.SignalSpecialCharactersRatio,
		SpecialCharactersRatio(doc.Text, s.cfg.IsSpecial))

	s.ScoreStopwords(doc)
	s.ScoreFlaggedWords(doc)

	var errs *multierror.Error

	if s.langID != nil {
		label, score, err := LangID(s.langID, doc.Text)
		if err != nil {
			errs = multierror.Append(errs, &ScoreError{Signal: corpus.SignalLangIDScore, Err: err})
		} else if !math.IsNaN(score) {
			m.LangLabel = label
			m.Set(corpus.SignalLangIDScore, score)
		}
	}

	if s.lm != nil {
		pp, err := Perplexity(s.lm, doc.Text)
		if err != nil {
			errs = multierror.Append(errs, &ScoreError{Signal: corpus.SignalPerplexityScore, Err: err})
		} else if !math.IsNaN(pp) {
			m.Set(corpus.SignalPerplexityScore, pp)
		}
	}

	return errs.ErrorOrNil()
}

// ScoreStopwords recomputes the stopwords ratio iff the cached value was
// produced against a different lexicon version. No other signal is
// touched.
func (s *Scorer) ScoreStopwords(doc *corpus.Document) {
	s.scoreLexiconRatio(doc, corpus.SignalStopwordsRatio, s.Stopwords())
}

// ScoreFlaggedWords recomputes the flagged-words ratio iff the cached
// value was produced against a different lexicon version.
func (s *Scorer) ScoreFlaggedWords(doc *corpus.Document) {
	s.scoreLexiconRatio(doc, corpus.SignalFlaggedWordsRatio, s.FlaggedWords())
}

func (s *Scorer) scoreLexiconRatio(doc *corpus.Document, signal string, lex *lexicon.Lexicon) {
	if lex == nil {
		return
	}
	m := &doc.Metrics
	if _, ok := m.Value(signal); ok && m.LexiconVersion(signal) == lex.Version() {
		return
	}
	ratio := lexiconRatio(doc.Text, s.wordSeg(), s.cfg.IsStrip, s.cfg.Augmentation, lex)
	m.Set(signal, ratio)
	m.SetLexiconVersion(signal, lex.Version())
}

// EnsureRepetitions computes the repetition ratio for one n-gram length
// if it is not already cached. Already cached lengths are never
// recomputed.
func (s *Scorer) EnsureRepetitions(doc *corpus.Document, n int) float64 {
	if v, ok := doc.Metrics.RepetitionsRatio(n); ok {
		return v
	}
	v := RepetitionsRatio(doc.Text, n)
	doc.Metrics.SetRepetitionsRatio(n, v)
	return v
}
