// Package corpus defines the document and word entities shared by the
// scoring, admission, consolidation and storage layers.
package corpus

import "time"

// Signal column names, as stored in Document metrics.
const (
	SignalNumberWords            = "number_words"
	SignalRepetitionsRatio       = "repetitions_ratio"
	SignalSpecialCharactersRatio = "special_characters_ratio"
	SignalStopwordsRatio         = "stopwords_ratio"
	SignalFlaggedWordsRatio      = "flagged_words_ratio"
	SignalLangIDScore            = "lang_id_score"
	SignalPerplexityScore        = "perplexity_score"
)

// Document is one corpus record. IDs are assigned once, during
// consolidation, and are immutable afterwards. ExternalIDs is always
// derived from ExternalURLs, never hand-authored.
type Document struct {
	ID           uint64
	URL          string
	Title        string
	Text         string
	FetchTime    time.Time
	ExternalURLs []string
	ExternalIDs  []uint64
	Metrics      Metrics
}

// Word is a transient entity produced during a scoring pass. It is never
// persisted independently of the owning document.
type Word struct {
	Text               string
	Length             int
	IncorrectSubstring bool
}

// Metrics holds the per-document signal values. Repetition ratios are
// cached per n-gram length so switching n never triggers a recompute.
// LexiconVersions tags the lexicon-dependent ratios with the version of
// the lexicon they were computed against.
type Metrics struct {
	Values          map[string]float64
	Repetitions     map[int]float64
	LangLabel       string
	LexiconVersions map[string]uint64
}

// NewMetrics returns an empty, initialized metrics table.
func NewMetrics() Metrics {
	return Metrics{
		Values:          make(map[string]float64),
		Repetitions:     make(map[int]float64),
		LexiconVersions: make(map[string]uint64),
	}
}

// Value returns the named signal value, if computed.
func (m Metrics) Value(name string) (float64, bool) {
	if m.Values == nil {
		return 0, false
	}
	v, ok := m.Values[name]
	return v, ok
}

// Set records a signal value.
func (m *Metrics) Set(name string, v float64) {
	if m.Values == nil {
		m.Values = make(map[string]float64)
	}
	m.Values[name] = v
}

// RepetitionsRatio returns the cached repetition ratio for the given
// n-gram length, if computed.
func (m Metrics) RepetitionsRatio(n int) (float64, bool) {
	if m.Repetitions == nil {
		return 0, false
	}
	v, ok := m.Repetitions[n]
	return v, ok
}

// SetRepetitionsRatio caches the repetition ratio for one n-gram length.
func (m *Metrics) SetRepetitionsRatio(n int, v float64) {
	if m.Repetitions == nil {
		m.Repetitions = make(map[int]float64)
	}
	m.Repetitions[n] = v
}

// LexiconVersion returns the version of the lexicon a ratio was computed
// against, or zero if the signal has not been computed.
func (m Metrics) LexiconVersion(signal string) uint64 {
	if m.LexiconVersions == nil {
		return 0
	}
	return m.LexiconVersions[signal]
}

// SetLexiconVersion tags a lexicon-dependent signal with its lexicon version.
func (m *Metrics) SetLexiconVersion(signal string, version uint64) {
	if m.LexiconVersions == nil {
		m.LexiconVersions = make(map[string]uint64)
	}
	m.LexiconVersions[signal] = version
}

// Clone returns a deep copy of the metrics table.
func (m Metrics) Clone() Metrics {
	out := NewMetrics()
	for k, v := range m.Values {
		out.Values[k] = v
	}
	for n, v := range m.Repetitions {
		out.Repetitions[n] = v
	}
	for k, v := range m.LexiconVersions {
		out.LexiconVersions[k] = v
	}
	out.LangLabel = m.LangLabel
	return out
}
