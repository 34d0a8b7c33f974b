package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"innsight/models"
	"innsight/nlp"
	"innsight/utils"
)

// fakeReviewStore holds review documents in memory and mimics the
// marker semantics of the document store: a review counts as scored
// once its sentiment field is set.
type fakeReviewStore struct {
	reviews []*models.Review
	failIDs map[string]bool
	writes  int
}

func newFakeReviewStore(reviews ...*models.Review) *fakeReviewStore {
	return &fakeReviewStore{reviews: reviews, failIDs: map[string]bool{}}
}

func (s *fakeReviewStore) selected(city string, onlyUnscored bool) []*models.Review {
	var out []*models.Review
	for _, r := range s.reviews {
		if r.City != city {
			continue
		}
		if onlyUnscored && r.Sentiment != "" {
			continue
		}
		out = append(out, r)
	}
	return out
}

func (s *fakeReviewStore) CountReviews(_ context.Context, city string, onlyUnscored bool) (int64, error) {
	return int64(len(s.selected(city, onlyUnscored))), nil
}

func (s *fakeReviewStore) StreamReviews(_ context.Context, city string, onlyUnscored bool, _ int, fn func(*models.Review) error) error {
	for _, r := range s.selected(city, onlyUnscored) {
		if err := fn(r); err != nil {
			return err
		}
	}
	return nil
}

func (s *fakeReviewStore) SetReviewSentiment(_ context.Context, docID primitive.ObjectID, label string, compound float64, scores models.SentimentScores) (bool, error) {
	for _, r := range s.reviews {
		if r.DocID != docID {
			continue
		}
		if s.failIDs[r.ID] {
			return false, fmt.Errorf("write concern error")
		}
		s.writes++
		if r.Sentiment == label && r.SentimentScore != nil && *r.SentimentScore == compound {
			return false, nil
		}
		r.Sentiment = label
		r.SentimentScore = &compound
		r.SentimentScores = &scores
		return true, nil
	}
	return false, errors.New("document not found")
}

func (s *fakeReviewStore) SentimentStats(_ context.Context, city string) ([]models.SentimentBucket, error) {
	sums := map[string]float64{}
	counts := map[string]int64{}
	for _, r := range s.selected(city, false) {
		if r.Sentiment == "" {
			continue
		}
		counts[r.Sentiment]++
		if r.SentimentScore != nil {
			sums[r.Sentiment] += *r.SentimentScore
		}
	}
	var stats []models.SentimentBucket
	for label, n := range counts {
		stats = append(stats, models.SentimentBucket{
			Label:    label,
			Count:    n,
			AvgScore: sums[label] / float64(n),
		})
	}
	return stats, nil
}

// keywordAnalyzer scores by keyword so tests control the label.
type keywordAnalyzer struct{}

func (keywordAnalyzer) Score(text string) nlp.Scores {
	switch {
	case strings.Contains(text, "wonderful"):
		return nlp.Scores{Compound: 0.8123456, Positive: 0.9}
	case strings.Contains(text, "awful"):
		return nlp.Scores{Compound: -0.75, Negative: 0.8}
	default:
		return nlp.Scores{Neutral: 1}
	}
}

func makeReviews(n int, comments string) []*models.Review {
	reviews := make([]*models.Review, n)
	for i := range reviews {
		reviews[i] = &models.Review{
			DocID:    primitive.NewObjectID(),
			ID:       fmt.Sprintf("r%d", i),
			City:     "london",
			Comments: comments,
		}
	}
	return reviews
}

func testJob(store *fakeReviewStore) *EnrichmentJob {
	return NewEnrichmentJob(store, keywordAnalyzer{}, 1000, utils.NewLoggerTo(io.Discard))
}

func TestEnrichmentScoresAllReviews(t *testing.T) {
	store := newFakeReviewStore(makeReviews(1200, "A wonderful stay.")...)
	job := testJob(store)

	summary, err := job.Run(context.Background(), "london", false)
	if err != nil {
		t.Fatal(err)
	}

	if summary.Processed != 1200 || summary.Updated != 1200 {
		t.Errorf("processed=%d updated=%d; want 1200/1200", summary.Processed, summary.Updated)
	}
	for _, r := range store.reviews {
		if r.Sentiment != models.SentimentPositive {
			t.Fatalf("review %s: sentiment = %q; want positive", r.ID, r.Sentiment)
		}
		if r.SentimentScore == nil || *r.SentimentScore != 0.8123 {
			t.Fatalf("review %s: score not rounded to 4 decimals: %v", r.ID, r.SentimentScore)
		}
	}
	if len(summary.Stats) != 1 || summary.Stats[0].Count != 1200 {
		t.Errorf("stats = %+v; want one positive bucket of 1200", summary.Stats)
	}
}

func TestEnrichmentIsIdempotentInIncrementalMode(t *testing.T) {
	store := newFakeReviewStore(makeReviews(50, "A wonderful stay.")...)
	job := testJob(store)

	if _, err := job.Run(context.Background(), "london", false); err != nil {
		t.Fatal(err)
	}
	firstWrites := store.writes

	summary, err := job.Run(context.Background(), "london", false)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Processed != 0 || summary.Updated != 0 {
		t.Errorf("second run processed=%d updated=%d; want 0/0", summary.Processed, summary.Updated)
	}
	if summary.AlreadyScored != 50 {
		t.Errorf("already scored = %d; want 50", summary.AlreadyScored)
	}
	if store.writes != firstWrites {
		t.Errorf("second run wrote %d documents", store.writes-firstWrites)
	}
}

func TestEnrichmentRescoreRevisitsEverything(t *testing.T) {
	store := newFakeReviewStore(makeReviews(20, "A wonderful stay.")...)
	job := testJob(store)

	if _, err := job.Run(context.Background(), "london", false); err != nil {
		t.Fatal(err)
	}

	summary, err := job.Run(context.Background(), "london", true)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Processed != 20 {
		t.Errorf("rescore processed = %d; want 20", summary.Processed)
	}
	// Values are unchanged, so the store reports no modifications.
	if summary.Updated != 0 || summary.Unchanged != 20 {
		t.Errorf("updated=%d unchanged=%d; want 0/20", summary.Updated, summary.Unchanged)
	}
}

func TestEnrichmentSkipsEmptyComments(t *testing.T) {
	reviews := makeReviews(3, "An awful, noisy room.")
	reviews[1].Comments = ""
	store := newFakeReviewStore(reviews...)

	summary, err := testJob(store).Run(context.Background(), "london", false)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Skipped != 1 || summary.Updated != 2 {
		t.Errorf("skipped=%d updated=%d; want 1/2", summary.Skipped, summary.Updated)
	}
	if reviews[1].Sentiment != "" {
		t.Errorf("empty-comment review should stay unscored")
	}
}

func TestEnrichmentContinuesPastDocumentErrors(t *testing.T) {
	store := newFakeReviewStore(makeReviews(10, "A wonderful stay.")...)
	store.failIDs["r3"] = true
	store.failIDs["r7"] = true

	summary, err := testJob(store).Run(context.Background(), "london", false)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Errors != 2 {
		t.Errorf("errors = %d; want 2", summary.Errors)
	}
	if summary.Updated != 8 {
		t.Errorf("updated = %d; want 8", summary.Updated)
	}
}

func TestEnrichmentNoReviewsIsNotAnError(t *testing.T) {
	store := newFakeReviewStore()

	summary, err := testJob(store).Run(context.Background(), "london", false)
	if err != nil {
		t.Fatal(err)
	}
	if summary.TotalReviews != 0 || summary.Processed != 0 {
		t.Errorf("summary = %+v; want empty", summary)
	}
}
