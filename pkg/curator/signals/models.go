package signals

import (
	"fmt"
	"math"
)

// LangIDModel is the handle to a pretrained language-identification
// classifier. Predict returns the predicted language label and the
// classifier confidence for that label.
type LangIDModel interface {
	Predict(text string) (label string, score float64, err error)
}

// LanguageModel is the handle to a pretrained statistical language model
// paired with its subword segmenter. Score returns the perplexity of the
// text; higher means less fluent for the target language.
type LanguageModel interface {
	Score(text string) (float64, error)
}

// ScoreError is a per-document scoring failure tagged with the signal
// that failed. Other signals of the same document, and other documents
// of the same batch, are unaffected.
type ScoreError struct {
	Signal string
	Err    error
}

func (e *ScoreError) Error() string {
	return fmt.Sprintf("signal %s: %v", e.Signal, e.Err)
}

func (e *ScoreError) Unwrap() error { return e.Err }

// LangID runs the classifier on the text with newlines flattened to
// spaces. Empty text yields an empty label and a NaN score.
func LangID(m LangIDModel, text string) (string, float64, error) {
	text = flattenNewlines(text)
	if text == "" {
		return "", math.NaN(), nil
	}
	return m.Predict(text)
}

// Perplexity evaluates the language model over the text. Empty text
// yields NaN.
func Perplexity(m LanguageModel, text string) (float64, error) {
	if flattenNewlines(text) == "" {
		return math.NaN(), nil
	}
	return m.Score(text)
}
