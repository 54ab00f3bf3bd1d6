package consolidate

import (
	"errors"
	"math/rand"
	"reflect"
	"testing"
	"time"

	"github.com/Luvata/data-tooling/pkg/curator/corpus"
	"github.com/Luvata/data-tooling/pkg/curator/internalerr"
)

func at(unix int64) time.Time { return time.Unix(unix, 0).UTC() }

func TestConsolidateCanonicalIndexAndReferences(t *testing.T) {
	// Two fetches of u1; the later one (fetch_time 20, id 1) wins. C
	// references u1 and must resolve to the winner.
	shards := [][]corpus.Document{
		{
			{URL: "u1", FetchTime: at(10)},
			{URL: "u1", FetchTime: at(20)},
		},
		{
			{URL: "u2", FetchTime: at(5), ExternalURLs: []string{"u1"}},
		},
	}

	docs, ix, err := Consolidate(shards, Options{})
	if err != nil {
		t.Fatalf("Consolidate: %v", err)
	}

	if len(docs) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(docs))
	}
	for i, doc := range docs {
		if doc.ID != uint64(i) {
			t.Errorf("Record %d should have sequential id, got %d", i, doc.ID)
		}
	}

	if e := ix["u1"]; e.ID != 1 || !e.FetchTime.Equal(at(20)) {
		t.Errorf("Canonical entry for u1 should be (1, 20), got (%d, %v)", e.ID, e.FetchTime)
	}
	if e := ix["u2"]; e.ID != 2 {
		t.Errorf("Canonical entry for u2 should be id 2, got %d", e.ID)
	}

	if !reflect.DeepEqual(docs[2].ExternalIDs, []uint64{1}) {
		t.Errorf("C should reference the canonical u1 record, got %v", docs[2].ExternalIDs)
	}
}

func TestConsolidateUnresolvableURLOmitted(t *testing.T) {
	shards := [][]corpus.Document{{
		{URL: "u1", FetchTime: at(1), ExternalURLs: []string{"missing", "u1", "also-missing"}},
	}}

	docs, _, err := Consolidate(shards, Options{})
	if err != nil {
		t.Fatalf("Consolidate: %v", err)
	}

	// Unresolvable urls are omitted, never null-padded.
	if !reflect.DeepEqual(docs[0].ExternalIDs, []uint64{0}) {
		t.Errorf("Expected only the resolvable reference, got %v", docs[0].ExternalIDs)
	}
	if len(docs[0].ExternalIDs) > len(docs[0].ExternalURLs) {
		t.Error("external_ids must never be longer than external_urls")
	}
}

func TestIndexMaxRuleTieBreaksOnID(t *testing.T) {
	ix := make(Index)
	ix.Add("u", 3, at(10))
	ix.Add("u", 7, at(10))
	if ix["u"].ID != 7 {
		t.Errorf("Equal fetch times should tie-break on the higher id, got %d", ix["u"].ID)
	}

	// Later id but earlier fetch time loses.
	ix.Add("u", 9, at(4))
	if ix["u"].ID != 7 {
		t.Errorf("Earlier fetch time must not win, got %d", ix["u"].ID)
	}
}

func TestIndexOrderIndependence(t *testing.T) {
	entries := []struct {
		url string
		id  uint64
		ts  time.Time
	}{
		{"u1", 0, at(10)},
		{"u1", 1, at(20)},
		{"u2", 2, at(5)},
		{"u1", 3, at(20)},
		{"u3", 4, at(7)},
		{"u2", 5, at(5)},
	}

	reference := make(Index)
	for _, e := range entries {
		reference.Add(e.url, e.id, e.ts)
	}

	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 20; trial++ {
		perm := rng.Perm(len(entries))
		ix := make(Index)
		for _, i := range perm {
			ix.Add(entries[i].url, entries[i].id, entries[i].ts)
		}
		if !reflect.DeepEqual(ix, reference) {
			t.Fatalf("Index differs under permutation %v: %v vs %v", perm, ix, reference)
		}
	}
}

func TestIndexMergeMatchesSequentialAdds(t *testing.T) {
	a := make(Index)
	a.Add("u1", 0, at(10))
	a.Add("u2", 2, at(5))

	b := make(Index)
	b.Add("u1", 1, at(20))
	b.Add("u3", 4, at(7))

	merged := make(Index)
	merged.Merge(a)
	merged.Merge(b)

	mergedReverse := make(Index)
	mergedReverse.Merge(b)
	mergedReverse.Merge(a)

	if !reflect.DeepEqual(merged, mergedReverse) {
		t.Errorf("Merge should be commutative: %v vs %v", merged, mergedReverse)
	}
	if merged["u1"].ID != 1 {
		t.Errorf("u1 should resolve to id 1, got %d", merged["u1"].ID)
	}
}

func TestConsolidateRejectsPreassignedIDs(t *testing.T) {
	shards := [][]corpus.Document{{
		{ID: 12, URL: "u1", FetchTime: at(1)},
	}}
	if _, _, err := Consolidate(shards, Options{}); !errors.Is(err, internalerr.ErrPreassignedID) {
		t.Errorf("Pre-assigned ids must be rejected, got %v", err)
	}

	withRefs := [][]corpus.Document{{
		{URL: "u1", FetchTime: at(1), ExternalIDs: []uint64{3}},
	}}
	if _, _, err := Consolidate(withRefs, Options{}); !errors.Is(err, internalerr.ErrPreassignedID) {
		t.Errorf("Pre-resolved references must be rejected, got %v", err)
	}
}

func TestConsolidateDropDuplicates(t *testing.T) {
	shards := [][]corpus.Document{{
		{URL: "u1", FetchTime: at(10)},
		{URL: "u1", FetchTime: at(20)},
		{URL: "u2", FetchTime: at(5)},
	}}

	docs, _, err := Consolidate(shards, Options{DropDuplicates: true})
	if err != nil {
		t.Fatalf("Consolidate: %v", err)
	}

	if len(docs) != 2 {
		t.Fatalf("Expected 2 canonical records, got %d", len(docs))
	}
	if docs[0].ID != 1 || docs[0].URL != "u1" {
		t.Errorf("Canonical u1 record should be id 1, got %d", docs[0].ID)
	}
}

func TestConsolidateLosersStillResolved(t *testing.T) {
	shards := [][]corpus.Document{{
		{URL: "u1", FetchTime: at(10), ExternalURLs: []string{"u2"}},
		{URL: "u1", FetchTime: at(20)},
		{URL: "u2", FetchTime: at(5)},
	}}

	docs, _, err := Consolidate(shards, Options{})
	if err != nil {
		t.Fatalf("Consolidate: %v", err)
	}

	// Record 0 lost the dedup for u1 but stays in the corpus with its
	// own references resolved.
	if !reflect.DeepEqual(docs[0].ExternalIDs, []uint64{2}) {
		t.Errorf("Loser's references should still resolve, got %v", docs[0].ExternalIDs)
	}
}

func TestBatchedTwoPassMatchesSingleShot(t *testing.T) {
	mkShards := func() [][]corpus.Document {
		return [][]corpus.Document{
			{
				{URL: "u1", FetchTime: at(10), ExternalURLs: []string{"u3"}},
				{URL: "u2", FetchTime: at(3)},
			},
			{
				{URL: "u3", FetchTime: at(8)},
				{URL: "u1", FetchTime: at(12), ExternalURLs: []string{"u2"}},
			},
		}
	}

	single, _, err := Consolidate(mkShards(), Options{})
	if err != nil {
		t.Fatalf("Consolidate: %v", err)
	}

	// Batched run: index every batch before resolving any.
	c := New()
	var batches [][]corpus.Document
	for _, batch := range mkShards() {
		indexed, err := c.Append(batch)
		if err != nil {
			t.Fatalf("Append: %v", err)
		}
		batches = append(batches, indexed)
	}
	var batched []corpus.Document
	for _, batch := range batches {
		batched = append(batched, c.Resolve(batch)...)
	}

	if !reflect.DeepEqual(single, batched) {
		t.Errorf("Batched consolidation diverged from single-shot:\n%v\nvs\n%v", single, batched)
	}
}
