package services

import (
	"context"
	"fmt"
	"math"

	"innsight/models"
	"innsight/nlp"
	"innsight/storage"
	"innsight/utils"
)

// maxLoggedScoreErrors caps per-document error logging; failures past
// the cap are still counted.
const maxLoggedScoreErrors = 5

// EnrichmentSummary reports one enrichment run.
type EnrichmentSummary struct {
	TotalReviews  int64
	AlreadyScored int64
	Processed     int
	Updated       int
	Unchanged     int
	Skipped       int
	Errors        int
	Stats         []models.SentimentBucket
}

// EnrichmentJob attaches sentiment labels to review documents. The job
// is idempotent in incremental mode: documents carrying the sentiment
// marker are skipped, so a re-run after a full pass modifies nothing.
// Rescoring everything is a destructive choice the caller must make
// explicitly; the job never defaults to it.
type EnrichmentJob struct {
	store     storage.ReviewStore
	analyzer  nlp.Analyzer
	batchSize int
	logger    *utils.Logger
}

// NewEnrichmentJob wires the job to its store and analyzer capabilities.
func NewEnrichmentJob(store storage.ReviewStore, analyzer nlp.Analyzer, batchSize int, logger *utils.Logger) *EnrichmentJob {
	return &EnrichmentJob{store: store, analyzer: analyzer, batchSize: batchSize, logger: logger}
}

// Run enriches one city's reviews. With rescore set, every document is
// revisited; otherwise only documents lacking the sentiment marker are
// scored. Single-document failures are counted and the run continues;
// store infrastructure failures abort it.
func (j *EnrichmentJob) Run(ctx context.Context, city string, rescore bool) (*EnrichmentSummary, error) {
	summary := &EnrichmentSummary{}

	total, err := j.store.CountReviews(ctx, city, false)
	if err != nil {
		return nil, err
	}
	summary.TotalReviews = total
	j.logger.Info("[sentiment] %s reviews in store: %d", city, total)

	if total == 0 {
		// Almost certainly a prior-stage failure, so tell the operator
		// loudly, but it is not an error of this job.
		j.logger.Error("[sentiment] No %s reviews found; was the load step run?", city)
		return summary, nil
	}

	unscored, err := j.store.CountReviews(ctx, city, true)
	if err != nil {
		return nil, err
	}
	summary.AlreadyScored = total - unscored

	onlyUnscored := !rescore
	toProcess := unscored
	if rescore {
		toProcess = total
		j.logger.Warn("[sentiment] Rescoring all %d reviews for %s", total, city)
	} else if summary.AlreadyScored > 0 {
		j.logger.Info("[sentiment] %d reviews already scored; processing the remaining %d (pass -rescore to redo all)",
			summary.AlreadyScored, unscored)
	}

	if toProcess == 0 {
		j.logger.Info("[sentiment] All %s reviews already have sentiment", city)
		return j.finish(ctx, city, summary)
	}
	j.logger.Info("[sentiment] Processing %d reviews in batches of %d", toProcess, j.batchSize)

	err = j.store.StreamReviews(ctx, city, onlyUnscored, j.batchSize, func(r *models.Review) error {
		summary.Processed++
		if r.Comments == "" {
			summary.Skipped++
			return nil
		}

		scores := j.analyzer.Score(r.Comments)
		label := nlp.Classify(scores.Compound)

		modified, err := j.store.SetReviewSentiment(ctx, r.DocID, label, round4(scores.Compound), models.SentimentScores{
			Positive: round4(scores.Positive),
			Neutral:  round4(scores.Neutral),
			Negative: round4(scores.Negative),
		})
		if err != nil {
			summary.Errors++
			if summary.Errors <= maxLoggedScoreErrors {
				j.logger.Error("[sentiment] Review %s: %v", r.ID, err)
			}
			return nil
		}

		if modified {
			summary.Updated++
		} else {
			summary.Unchanged++
		}
		if summary.Processed%j.batchSize == 0 {
			j.logger.Info("[sentiment] Processed %d/%d reviews...", summary.Processed, toProcess)
		}
		return nil
	})
	if err != nil {
		return summary, fmt.Errorf("sentiment: stream %s reviews: %w", city, err)
	}

	j.logger.Info("[sentiment] Done: processed %d, updated %d, unchanged %d, skipped %d, errors %d",
		summary.Processed, summary.Updated, summary.Unchanged, summary.Skipped, summary.Errors)
	return j.finish(ctx, city, summary)
}

// finish recomputes aggregate sentiment statistics for observability.
func (j *EnrichmentJob) finish(ctx context.Context, city string, summary *EnrichmentSummary) (*EnrichmentSummary, error) {
	stats, err := j.store.SentimentStats(ctx, city)
	if err != nil {
		return summary, err
	}
	summary.Stats = stats

	var scored int64
	for _, b := range stats {
		scored += b.Count
	}
	j.logger.Info("[sentiment] %s breakdown (%d scored):", city, scored)
	for _, b := range stats {
		pct := 0.0
		if scored > 0 {
			pct = float64(b.Count) / float64(scored) * 100
		}
		j.logger.Info("[sentiment]   %-8s %8d (%5.1f%%)  mean score %.3f", b.Label, b.Count, pct, b.AvgScore)
	}
	return summary, nil
}

func round4(f float64) float64 {
	return math.Round(f*10000) / 10000
}
