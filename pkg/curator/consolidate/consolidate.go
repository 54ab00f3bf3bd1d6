// Package consolidate merges independently produced crawl shards into
// one canonical dataset: it assigns globally unique sequential ids,
// deduplicates records sharing a source URL, and rewrites outbound URL
// references into the ids of the surviving canonical records.
//
// The algorithm is two-pass: the canonical index must be complete across
// all shards before any reference is resolved, because a record's
// external URL may be satisfied by a later shard. The Consolidator type
// exposes the two passes separately so callers can process bounded
// batches; Consolidate runs both over in-memory shards.
package consolidate

import (
	"fmt"
	"time"

	"github.com/Luvata/data-tooling/pkg/curator/corpus"
	"github.com/Luvata/data-tooling/pkg/curator/internalerr"
)

// Entry is the canonical (id, fetch time) pair for one URL.
type Entry struct {
	ID        uint64
	FetchTime time.Time
}

// Index maps each URL to its canonical record. The winner for a URL is
// the maximum under lexicographic (fetch_time, id) comparison, which
// makes Add commutative and associative: partial indexes built in any
// order, or in parallel, merge to the same result.
type Index map[string]Entry

// Add offers a record to the index. The stored entry is replaced iff the
// new (fetch_time, id) pair is strictly greater than the stored one.
func (ix Index) Add(url string, id uint64, fetchTime time.Time) {
	old, ok := ix[url]
	if !ok || wins(fetchTime, id, old.FetchTime, old.ID) {
		ix[url] = Entry{ID: id, FetchTime: fetchTime}
	}
}

// Merge folds another partial index into this one under the same max
// rule.
func (ix Index) Merge(other Index) {
	for url, e := range other {
		ix.Add(url, e.ID, e.FetchTime)
	}
}

// Resolve maps URLs to canonical ids. Unresolvable URLs are omitted, not
// null-padded, so the result may be shorter than the input.
func (ix Index) Resolve(urls []string) []uint64 {
	var ids []uint64
	for _, u := range urls {
		if e, ok := ix[u]; ok {
			ids = append(ids, e.ID)
		}
	}
	return ids
}

func wins(t1 time.Time, id1 uint64, t2 time.Time, id2 uint64) bool {
	if !t1.Equal(t2) {
		return t1.After(t2)
	}
	return id1 > id2
}

// Consolidator drives the two passes over batched input. All Append
// calls must complete before the first Resolve call.
type Consolidator struct {
	ix   Index
	next uint64
}

// New creates an empty consolidator.
func New() *Consolidator {
	return &Consolidator{ix: make(Index)}
}

// Index returns the canonical index built so far. The caller may
// checkpoint it between the two passes of a batched run.
func (c *Consolidator) Index() Index { return c.ix }

// Append assigns sequential ids to a batch (continuing from the previous
// batch) and feeds it into the canonical index. Ids equal the record's
// position in the overall concatenation and are never reassigned.
// Records already carrying an id or resolved references are rejected.
func (c *Consolidator) Append(batch []corpus.Document) ([]corpus.Document, error) {
	for i := range batch {
		doc := &batch[i]
		if doc.ID != 0 || len(doc.ExternalIDs) != 0 {
			return nil, fmt.Errorf("%w: url %s", internalerr.ErrPreassignedID, doc.URL)
		}
		doc.ID = c.next
		c.next++
		c.ix.Add(doc.URL, doc.ID, doc.FetchTime)
	}
	return batch, nil
}

// Resolve fills ExternalIDs for a batch from the completed index.
// Duplicate losers are resolved too; only the indexed mapping is
// deduplicated, not the record list.
func (c *Consolidator) Resolve(batch []corpus.Document) []corpus.Document {
	for i := range batch {
		batch[i].ExternalIDs = c.ix.Resolve(batch[i].ExternalURLs)
	}
	return batch
}

// Options controls Consolidate.
type Options struct {
	// DropDuplicates removes non-canonical duplicates from the output
	// after their references are resolved. By default losers stay in the
	// corpus; only the URL index is deduplicated.
	DropDuplicates bool
}

// Consolidate concatenates the shards in order, assigns ids, builds the
// canonical index, and resolves every record's references. The canonical
// index is deterministic under any permutation of the shards.
func Consolidate(shards [][]corpus.Document, opts Options) ([]corpus.Document, Index, error) {
	c := New()

	var all []corpus.Document
	for _, shard := range shards {
		batch, err := c.Append(shard)
		if err != nil {
			return nil, nil, err
		}
		all = append(all, batch...)
	}

	all = c.Resolve(all)

	if opts.DropDuplicates {
		canonical := all[:0]
		for _, doc := range all {
			if c.ix[doc.URL].ID == doc.ID {
				canonical = append(canonical, doc)
			}
		}
		all = canonical
	}
	return all, c.ix, nil
}
