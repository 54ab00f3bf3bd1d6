package admission

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Luvata/data-tooling/pkg/curator/corpus"
	"github.com/Luvata/data-tooling/pkg/curator/internalerr"
)

// ruleSpec is one entry of a rules YAML file.
type ruleSpec struct {
	Signal     string  `yaml:"signal"`
	Threshold  float64 `yaml:"threshold"`
	Direction  string  `yaml:"direction"`   // only meaningful for number_words
	N          int     `yaml:"n"`           // repetitions_ratio only
	TargetLang string  `yaml:"target_lang"` // lang_id_score only
}

// LoadRules reads a rule set from a YAML file with a `rules` list. Every
// entry is validated through its rule constructor, so a malformed file
// fails before any document is scored.
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc struct {
		Rules []ruleSpec `yaml:"rules"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}

	rules := make([]Rule, 0, len(doc.Rules))
	for _, spec := range doc.Rules {
		rule, err := buildRule(spec)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func buildRule(spec ruleSpec) (Rule, error) {
	switch spec.Signal {
	case corpus.SignalNumberWords:
		dir := MinCutoff
		switch spec.Direction {
		case "min", "":
		case "max":
			dir = MaxCutoff
		default:
			return nil, fmt.Errorf("%w: number_words direction %q", internalerr.ErrInvalidConfig, spec.Direction)
		}
		return NewNumberWordsRule(spec.Threshold, dir)
	case corpus.SignalRepetitionsRatio:
		return NewRepetitionsRule(spec.N, spec.Threshold)
	case corpus.SignalSpecialCharactersRatio:
		return NewSpecialCharactersRule(spec.Threshold)
	case corpus.SignalStopwordsRatio:
		return NewStopwordsRule(spec.Threshold)
	case corpus.SignalFlaggedWordsRatio:
		return NewFlaggedWordsRule(spec.Threshold)
	case corpus.SignalLangIDScore:
		return NewLangIDRule(spec.Threshold, spec.TargetLang)
	case corpus.SignalPerplexityScore:
		return NewPerplexityRule(spec.Threshold)
	default:
		return nil, fmt.Errorf("%w: unknown signal %q", internalerr.ErrInvalidConfig, spec.Signal)
	}
}
