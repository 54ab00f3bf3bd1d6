// Package curator wires the corpus-curation pipeline together: per-language
// configuration, lexicons, model handles, signal scoring, threshold-based
// admission and shard consolidation, with optional persistence behind the
// store interface.
package curator

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/Luvata/data-tooling/pkg/curator/admission"
	"github.com/Luvata/data-tooling/pkg/curator/consolidate"
	"github.com/Luvata/data-tooling/pkg/curator/corpus"
	"github.com/Luvata/data-tooling/pkg/curator/langconf"
	"github.com/Luvata/data-tooling/pkg/curator/lexicon"
	"github.com/Luvata/data-tooling/pkg/curator/signals"
	"github.com/Luvata/data-tooling/pkg/curator/store"
	"github.com/Luvata/data-tooling/pkg/curator/tokenize"
	"github.com/Luvata/data-tooling/pkg/curator/wordfilter"
)

// Curator is the curation pipeline facade.
type Curator struct {
	scorer  *signals.Scorer
	engine  *admission.Engine
	words   *wordfilter.Filter
	seg     tokenize.Segmenter
	store   store.Store
	workers int
}

// Options configures a Curator instance.
type Options struct {
	Config        *langconf.Config
	Segmenter     tokenize.Segmenter
	LangID        signals.LangIDModel
	LanguageModel signals.LanguageModel
	Stopwords     *lexicon.Lexicon
	FlaggedWords  *lexicon.Lexicon

	// RepetitionLengths lists every n-gram length the session may filter
	// on; ratios for each are precomputed per document.
	RepetitionLengths []int

	Rules      []admission.Rule
	WordFilter wordfilter.Config

	// Store is optional; without it Filter and Consolidate skip
	// persistence.
	Store store.Store

	// Workers bounds the scoring fan-out. Defaults to GOMAXPROCS.
	Workers int
}

// New creates a Curator with the given dependencies.
func New(opts Options) (*Curator, error) {
	scorer, err := signals.NewScorer(signals.ScorerOptions{
		Config:            opts.Config,
		Segmenter:         opts.Segmenter,
		LangID:            opts.LangID,
		LanguageModel:     opts.LanguageModel,
		Stopwords:         opts.Stopwords,
		FlaggedWords:      opts.FlaggedWords,
		RepetitionLengths: opts.RepetitionLengths,
	})
	if err != nil {
		return nil, err
	}

	engine, err := admission.NewEngine(scorer, opts.Rules)
	if err != nil {
		return nil, err
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	var wf *wordfilter.Filter
	if opts.WordFilter.MaxLen > 0 {
		var incorrect []string
		if opts.Config != nil {
			incorrect = opts.Config.IncorrectSubstrings
		}
		wf = wordfilter.New(opts.WordFilter, incorrect)
	}

	var seg tokenize.Segmenter
	if opts.Config.Tokenization {
		seg = opts.Segmenter
	}

	return &Curator{
		scorer:  scorer,
		engine:  engine,
		words:   wf,
		seg:     seg,
		store:   opts.Store,
		workers: workers,
	}, nil
}

// Close shuts down the underlying store, if any.
func (c *Curator) Close() error {
	if c.store == nil {
		return nil
	}
	return c.store.Close()
}

// Scorer exposes the underlying scorer, mainly for ad-hoc recomputation.
func (c *Curator) Scorer() *signals.Scorer { return c.scorer }

// Engine exposes the admission engine.
func (c *Curator) Engine() *admission.Engine { return c.engine }

// ScoreDocs computes the full signal battery for every document, fanning
// out across the worker pool. Documents depend only on their own text
// and the shared immutable configuration, so the fan-out needs no
// per-document locking. A failing document does not abort the batch; all
// per-document failures are aggregated into the returned error.
func (c *Curator) ScoreDocs(ctx context.Context, docs []*corpus.Document) error {
	jobs := make(chan *corpus.Document)

	var (
		mu   sync.Mutex
		errs *multierror.Error
		wg   sync.WaitGroup
	)

	for i := 0; i < c.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for doc := range jobs {
				if err := c.scorer.Score(doc); err != nil {
					mu.Lock()
					errs = multierror.Append(errs, fmt.Errorf("doc %d (%s): %w", doc.ID, doc.URL, err))
					mu.Unlock()
				}
			}
		}()
	}

loop:
	for _, doc := range docs {
		select {
		case jobs <- doc:
		case <-ctx.Done():
			mu.Lock()
			errs = multierror.Append(errs, ctx.Err())
			mu.Unlock()
			break loop
		}
	}
	close(jobs)
	wg.Wait()

	return errs.ErrorOrNil()
}

// Filter evaluates the active rules over the documents and persists the
// report when a store is configured.
func (c *Curator) Filter(ctx context.Context, docs []*corpus.Document) (admission.Report, error) {
	report := c.engine.Evaluate(docs)
	if c.store != nil {
		if err := c.store.PutReport(ctx, report); err != nil {
			return report, fmt.Errorf("persist report: %w", err)
		}
	}
	return report, nil
}

// Probe scores one ad-hoc text against the current rules without
// touching corpus-wide state.
func (c *Curator) Probe(text string) (admission.ProbeResult, error) {
	return c.engine.Probe(text)
}

// ReplaceStopwords swaps in a user-supplied stopword set and recomputes
// only the stopwords ratio for the given documents.
func (c *Curator) ReplaceStopwords(words []string, docs []*corpus.Document) *lexicon.Lexicon {
	lex := lexicon.New("stopwords", words)
	c.engine.ReplaceStopwords(lex, docs)
	return lex
}

// ReplaceFlaggedWords swaps in a user-supplied flagged-word set and
// recomputes only the flagged-words ratio for the given documents.
func (c *Curator) ReplaceFlaggedWords(words []string, docs []*corpus.Document) *lexicon.Lexicon {
	lex := lexicon.New("flagged_words", words)
	c.engine.ReplaceFlaggedWords(lex, docs)
	return lex
}

// FilterWords runs the word-level filter over one document's words.
// Words are transient; nothing is persisted.
func (c *Curator) FilterWords(text string) (retained, discarded []corpus.Word) {
	if c.words == nil {
		return nil, nil
	}
	words := c.words.Extract(text, c.seg, c.scorer.Config().IsStrip)
	return c.words.Apply(words)
}

// Consolidate merges the shards into one canonical dataset and persists
// the result when a store is configured.
func (c *Curator) Consolidate(ctx context.Context, shards [][]corpus.Document, opts consolidate.Options) ([]corpus.Document, error) {
	docs, _, err := consolidate.Consolidate(shards, opts)
	if err != nil {
		return nil, err
	}
	if c.store != nil {
		for _, doc := range docs {
			if err := c.store.PutDoc(ctx, doc); err != nil {
				return nil, fmt.Errorf("persist doc %d: %w", doc.ID, err)
			}
		}
	}
	return docs, nil
}
