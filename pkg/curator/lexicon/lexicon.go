// Package lexicon provides immutable, versioned word sets (stopwords,
// flagged words). A lexicon is never mutated in place: replacing one
// builds a new object with a fresh version, so concurrent scorers see
// either the old set or the new set, never a partial update. Cached
// ratios carry the version they were computed against, which is what
// makes minimal reactive recomputation possible.
package lexicon

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"gopkg.in/yaml.v3"
)

var versions atomic.Uint64

// Lexicon is an immutable named set of words.
type Lexicon struct {
	name    string
	version uint64
	words   map[string]struct{}
}

// New builds a lexicon from a word list. Empty entries are dropped.
func New(name string, words []string) *Lexicon {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		set[w] = struct{}{}
	}
	return &Lexicon{
		name:    name,
		version: versions.Add(1),
		words:   set,
	}
}

// LoadWordList reads a lexicon from a plain file with one word per line.
// This is the format user-supplied overrides arrive in.
func LoadWordList(name, path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return New(name, strings.Split(string(data), "\n")), nil
}

// LoadYAML reads a lexicon from a YAML file with a `terms` list.
func LoadYAML(name, path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc struct {
		Terms []string `yaml:"terms"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("load lexicon %s: %w", name, err)
	}
	return New(name, doc.Terms), nil
}

// Name returns the lexicon name.
func (l *Lexicon) Name() string { return l.name }

// Version returns the process-unique version of this lexicon object.
func (l *Lexicon) Version() uint64 { return l.version }

// Contains reports whether w is in the set.
func (l *Lexicon) Contains(w string) bool {
	_, ok := l.words[w]
	return ok
}

// Len returns the number of words in the set.
func (l *Lexicon) Len() int { return len(l.words) }

// Words returns the set contents. The order is unspecified.
func (l *Lexicon) Words() []string {
	out := make([]string, 0, len(l.words))
	for w := range l.words {
		out = append(out, w)
	}
	return out
}
