// Package langconf holds the per-language parameters of the filtering
// pipeline: which characters are stripped from token edges, which count
// as special characters, whether subword tokenization is used for word
// splitting, and how token augmentation is configured.
package langconf

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/Luvata/data-tooling/pkg/curator/internalerr"
)

// Augmentation merges consecutive tokens into longer groups before
// lexicon matching. Needed for languages where single tokens carry too
// little signal to match lexicon entries.
type Augmentation struct {
	Enabled    bool   `yaml:"enabled"`
	GroupSizes []int  `yaml:"group_sizes"`
	JoinChar   string `yaml:"join_char"`
}

// Config is the per-language configuration. It is read-only once loaded.
type Config struct {
	Lang                string       `yaml:"lang"`
	StripCharacters     string       `yaml:"strip_characters"`
	SpecialCharacters   string       `yaml:"special_characters"`
	Tokenization        bool         `yaml:"tokenization"`
	Augmentation        Augmentation `yaml:"augmentation"`
	IncorrectSubstrings []string     `yaml:"incorrect_word_substrings"`

	initSets sync.Once
	strip    map[rune]struct{}
	special  map[rune]struct{}
}

// Load reads a per-language configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("load language config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.initSets.Do(cfg.buildSets)
	return &cfg, nil
}

// Validate checks the configuration for values that would make scoring
// undefined. It is called by Load; callers constructing a Config by hand
// should call it themselves.
func (c *Config) Validate() error {
	if c.Lang == "" {
		return fmt.Errorf("%w: lang must be set", internalerr.ErrInvalidConfig)
	}
	if c.Augmentation.Enabled {
		if len(c.Augmentation.GroupSizes) == 0 {
			return fmt.Errorf("%w: augmentation enabled with no group sizes", internalerr.ErrInvalidConfig)
		}
		for _, g := range c.Augmentation.GroupSizes {
			if g < 2 {
				return fmt.Errorf("%w: augmentation group size %d, want >= 2", internalerr.ErrInvalidConfig, g)
			}
		}
	}
	return nil
}

func (c *Config) buildSets() {
	c.strip = make(map[rune]struct{}, len(c.StripCharacters))
	for _, r := range c.StripCharacters {
		c.strip[r] = struct{}{}
	}
	c.special = make(map[rune]struct{}, len(c.SpecialCharacters))
	for _, r := range c.SpecialCharacters {
		c.special[r] = struct{}{}
	}
}

// IsStrip reports whether r is stripped from token edges. The rune sets
// are built once under a sync.Once, so a hand-constructed Config shared
// across scoring goroutines stays safe for concurrent use.
func (c *Config) IsStrip(r rune) bool {
	c.initSets.Do(c.buildSets)
	_, ok := c.strip[r]
	return ok
}

// IsSpecial reports whether r belongs to the special-characters set.
func (c *Config) IsSpecial(r rune) bool {
	c.initSets.Do(c.buildSets)
	_, ok := c.special[r]
	return ok
}
