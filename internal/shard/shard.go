// Package shard reads and writes the JSONL shard files exchanged between
// the fetcher and the consolidation step.
package shard

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/Luvata/data-tooling/pkg/curator/corpus"
)

// Record is one raw shard row: a fetched page with its outbound URLs,
// before any id has been assigned.
type Record struct {
	URL          string    `json:"url"`
	Title        string    `json:"title,omitempty"`
	Text         string    `json:"text"`
	FetchTime    time.Time `json:"fetch_time"`
	ExternalURLs []string  `json:"external_urls,omitempty"`
}

// Document converts the record into the pipeline document shape.
func (r Record) Document() corpus.Document {
	return corpus.Document{
		URL:          r.URL,
		Title:        r.Title,
		Text:         r.Text,
		FetchTime:    r.FetchTime,
		ExternalURLs: r.ExternalURLs,
		Metrics:      corpus.NewMetrics(),
	}
}

// Read decodes a JSONL stream of records into documents.
func Read(r io.Reader) ([]corpus.Document, error) {
	dec := json.NewDecoder(r)
	var docs []corpus.Document
	for {
		var rec Record
		if err := dec.Decode(&rec); err == io.EOF {
			return docs, nil
		} else if err != nil {
			return nil, err
		}
		docs = append(docs, rec.Document())
	}
}

// ReadFile reads one shard file.
func ReadFile(path string) ([]corpus.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

// Write encodes records as JSONL.
func Write(w io.Writer, recs []Record) error {
	enc := json.NewEncoder(w)
	for _, rec := range recs {
		if err := enc.Encode(rec); err != nil {
			return err
		}
	}
	return nil
}
