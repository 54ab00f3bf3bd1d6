package admission

import (
	"fmt"

	"github.com/oklog/ulid/v2"

	"github.com/Luvata/data-tooling/pkg/curator/corpus"
	"github.com/Luvata/data-tooling/pkg/curator/internalerr"
	"github.com/Luvata/data-tooling/pkg/curator/lexicon"
	"github.com/Luvata/data-tooling/pkg/curator/signals"
)

// Engine evaluates an ordered set of rules over scored documents. The
// rule set is fixed for the lifetime of the engine; lexicon replacement
// swaps the scorer's lexicon and recomputes only the dependent signal.
type Engine struct {
	scorer *signals.Scorer
	rules  []Rule
}

// NewEngine validates the rule set against the scoring session and
// returns an engine. It fails fast on duplicate rules, on repetition
// rules whose n-gram length is not precomputed by the scorer, and on
// model-backed rules whose model handle was never configured.
func NewEngine(scorer *signals.Scorer, rules []Rule) (*Engine, error) {
	if scorer == nil {
		return nil, fmt.Errorf("%w: engine needs a scorer", internalerr.ErrInvalidConfig)
	}

	seen := make(map[string]struct{}, len(rules))
	for _, r := range rules {
		if r == nil {
			return nil, fmt.Errorf("%w: nil rule", internalerr.ErrInvalidConfig)
		}
		if _, dup := seen[r.Name()]; dup {
			return nil, fmt.Errorf("%w: duplicate rule %q", internalerr.ErrInvalidConfig, r.Name())
		}
		seen[r.Name()] = struct{}{}

		switch rule := r.(type) {
		case RepetitionsRule:
			if !containsInt(scorer.RepetitionLengths(), rule.N) {
				return nil, fmt.Errorf("%w: repetition length %d not precomputed (have %v)",
					internalerr.ErrInvalidConfig, rule.N, scorer.RepetitionLengths())
			}
		case LangIDRule:
			if !scorer.HasLangID() {
				return nil, fmt.Errorf("%w: %s rule without a classifier", internalerr.ErrNoModel, rule.Name())
			}
		case PerplexityRule:
			if !scorer.HasLanguageModel() {
				return nil, fmt.Errorf("%w: %s rule without a language model", internalerr.ErrNoModel, rule.Name())
			}
		}
	}

	return &Engine{scorer: scorer, rules: rules}, nil
}

// Rules returns the active rule set.
func (e *Engine) Rules() []Rule { return e.rules }

// Report is the outcome of one evaluation pass. RuleDiscards counts, for
// each rule in isolation, the documents failing that rule over the whole
// set, independent of the other rules' outcomes.
type Report struct {
	ID           string
	Retained     []uint64
	Discarded    []uint64
	RuleDiscards map[string]int
}

// Evaluate partitions documents into retained and discarded. A document
// is retained iff it passes every applicable rule; a rule whose signal
// is absent from the document is inapplicable and does not count either
// way.
func (e *Engine) Evaluate(docs []*corpus.Document) Report {
	report := Report{
		ID:           ulid.Make().String(),
		RuleDiscards: make(map[string]int, len(e.rules)),
	}
	for _, r := range e.rules {
		report.RuleDiscards[r.Name()] = 0
	}

	for _, doc := range docs {
		retained := true
		for _, r := range e.rules {
			pass, applicable := r.Evaluate(doc.Metrics)
			if !applicable {
				continue
			}
			if !pass {
				report.RuleDiscards[r.Name()]++
				retained = false
			}
		}
		if retained {
			report.Retained = append(report.Retained, doc.ID)
		} else {
			report.Discarded = append(report.Discarded, doc.ID)
		}
	}
	return report
}

// ReplaceStopwords swaps the stopword lexicon and recomputes the
// stopwords ratio for the given documents. No other cached signal is
// touched.
func (e *Engine) ReplaceStopwords(lex *lexicon.Lexicon, docs []*corpus.Document) {
	e.scorer.SetStopwords(lex)
	for _, doc := range docs {
		e.scorer.ScoreStopwords(doc)
	}
}

// ReplaceFlaggedWords swaps the flagged-word lexicon and recomputes the
// flagged-words ratio for the given documents.
func (e *Engine) ReplaceFlaggedWords(lex *lexicon.Lexicon, docs []*corpus.Document) {
	e.scorer.SetFlaggedWords(lex)
	for _, doc := range docs {
		e.scorer.ScoreFlaggedWords(doc)
	}
}

// RuleOutcome is the per-rule result of a probe.
type RuleOutcome struct {
	Rule       string
	Value      float64
	Applicable bool
	Pass       bool
}

// ProbeResult is the outcome of probing one ad-hoc document.
type ProbeResult struct {
	Outcomes []RuleOutcome
	Retained bool
}

// Probe scores a single ad-hoc text against the current rule set without
// touching any corpus-wide state. Model failures surface as an error but
// the outcomes of the signals that did compute are still reported.
func (e *Engine) Probe(text string) (ProbeResult, error) {
	doc := &corpus.Document{Text: text, Metrics: corpus.NewMetrics()}
	scoreErr := e.scorer.Score(doc)

	result := ProbeResult{Retained: true}
	for _, r := range e.rules {
		pass, applicable := r.Evaluate(doc.Metrics)
		value, _ := r.Value(doc.Metrics)
		result.Outcomes = append(result.Outcomes, RuleOutcome{
			Rule:       r.Name(),
			Value:      value,
			Applicable: applicable,
			Pass:       pass,
		})
		if applicable && !pass {
			result.Retained = false
		}
	}
	return result, scoreErr
}

func containsInt(haystack []int, needle int) bool {
	for _, v := range haystack {
		if v == needle {
			return true
		}
	}
	return false
}
