package nlp

import (
	"testing"

	"innsight/models"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		compound float64
		want     string
	}{
		{0.8, models.SentimentPositive},
		{0.10, models.SentimentPositive},
		{0.05, models.SentimentPositive},
		{0.049, models.SentimentNeutral},
		{0.0, models.SentimentNeutral},
		{-0.049, models.SentimentNeutral},
		{-0.05, models.SentimentNegative},
		{-0.10, models.SentimentNegative},
		{-0.9, models.SentimentNegative},
	}

	for _, tt := range tests {
		if got := Classify(tt.compound); got != tt.want {
			t.Errorf("Classify(%v) = %q; want %q", tt.compound, got, tt.want)
		}
	}
}

func TestVaderAnalyzer(t *testing.T) {
	v := NewVaderAnalyzer()

	if got := v.Score(""); got.Neutral != 1 || got.Compound != 0 {
		t.Errorf("empty text scored %+v; want fully neutral", got)
	}

	pos := v.Score("Absolutely wonderful stay, the host was amazing and the flat was spotless!")
	if pos.Compound <= 0.05 {
		t.Errorf("positive text scored compound %v", pos.Compound)
	}

	neg := v.Score("Terrible experience. Dirty, noisy and the host was rude.")
	if neg.Compound >= -0.05 {
		t.Errorf("negative text scored compound %v", neg.Compound)
	}
}
