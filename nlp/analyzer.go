// Package nlp wraps the language-identification and sentiment-scoring
// capabilities used by the cleaning pipeline and the enrichment job.
// Both are interfaces so jobs can be exercised with fakes.
package nlp

import (
	"github.com/jonreiter/govader"

	"innsight/models"
)

// Scores is one sentiment measurement. Compound is in [-1, 1]; the
// pos/neu/neg components are each in [0, 1] and sum to 1 up to rounding.
type Scores struct {
	Compound float64
	Positive float64
	Neutral  float64
	Negative float64
}

// Analyzer scores a piece of text. Implementations must be deterministic
// for a fixed input so re-scoring a review is idempotent.
type Analyzer interface {
	Score(text string) Scores
}

// Compound-score thresholds for classification.
const (
	positiveThreshold = 0.05
	negativeThreshold = -0.05
)

// Classify maps a compound score to a sentiment label.
func Classify(compound float64) string {
	switch {
	case compound >= positiveThreshold:
		return models.SentimentPositive
	case compound <= negativeThreshold:
		return models.SentimentNegative
	default:
		return models.SentimentNeutral
	}
}

// VaderAnalyzer scores text with the VADER lexicon. Empty or whitespace
// input scores as fully neutral.
type VaderAnalyzer struct {
	sia *govader.SentimentIntensityAnalyzer
}

// NewVaderAnalyzer builds the analyzer. The lexicon is embedded in the
// library, so construction never fails.
func NewVaderAnalyzer() *VaderAnalyzer {
	return &VaderAnalyzer{sia: govader.NewSentimentIntensityAnalyzer()}
}

func (v *VaderAnalyzer) Score(text string) Scores {
	if text == "" {
		return Scores{Neutral: 1}
	}
	s := v.sia.PolarityScores(text)
	return Scores{
		Compound: s.Compound,
		Positive: s.Positive,
		Neutral:  s.Neutral,
		Negative: s.Negative,
	}
}
