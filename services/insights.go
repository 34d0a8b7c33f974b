package services

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strings"

	"innsight/models"
	"innsight/storage"
	"innsight/utils"
)

// wordRegexp matches lowercase words of three or more letters.
var wordRegexp = regexp.MustCompile(`\b[a-z]{3,}\b`)

// stopWords are excluded from word-frequency extraction.
var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "in": {},
	"on": {}, "at": {}, "to": {}, "for": {}, "of": {}, "with": {}, "is": {},
	"was": {}, "are": {}, "were": {}, "been": {}, "be": {}, "have": {},
	"has": {}, "had": {}, "do": {}, "does": {}, "did": {}, "will": {},
	"would": {}, "could": {}, "should": {}, "may": {}, "might": {},
	"can": {}, "it": {}, "its": {}, "i": {}, "we": {}, "you": {}, "he": {},
	"she": {}, "they": {}, "this": {}, "that": {}, "these": {}, "those": {},
	"my": {}, "your": {}, "his": {}, "her": {}, "their": {}, "very": {},
	"really": {}, "just": {}, "so": {}, "also": {}, "more": {}, "most": {},
	"much": {},
}

// maxWordCloudReviews bounds how many comments one extraction reads.
const maxWordCloudReviews = 10000

// InsightService shapes store aggregations into the analytics payloads
// the API serves.
type InsightService struct {
	source storage.AnalyticsSource
	logger *utils.Logger
}

func NewInsightService(source storage.AnalyticsSource, logger *utils.Logger) *InsightService {
	return &InsightService{source: source, logger: logger}
}

// PriceReport returns price statistics overall and per neighbourhood.
func (s *InsightService) PriceReport(ctx context.Context, city string) (*models.PriceReport, error) {
	overall, err := s.source.PriceStatsOverall(ctx, city)
	if err != nil {
		return nil, err
	}
	byNeighbourhood, err := s.source.PriceStatsByNeighbourhood(ctx, city)
	if err != nil {
		return nil, err
	}
	return &models.PriceReport{City: city, Overall: overall, ByNeighbourhood: byNeighbourhood}, nil
}

// RoomTypeReport returns the room-type distribution with percentages.
func (s *InsightService) RoomTypeReport(ctx context.Context, city string) (*models.RoomTypeReport, error) {
	dist, err := s.source.RoomTypeDistribution(ctx, city)
	if err != nil {
		return nil, err
	}
	var total int64
	for _, d := range dist {
		total += d.Count
	}
	for i := range dist {
		if total > 0 {
			dist[i].Percentage = round1(float64(dist[i].Count) / float64(total) * 100)
		}
	}
	return &models.RoomTypeReport{City: city, TotalListings: total, Distribution: dist}, nil
}

// OccupancyReport returns monthly occupancy rates over the last twelve
// months of calendar data.
func (s *InsightService) OccupancyReport(ctx context.Context, city string) (*models.OccupancyReport, error) {
	months, err := s.source.MonthlyOccupancy(ctx, city, 12)
	if err != nil {
		return nil, err
	}
	for i := range months {
		if months[i].TotalDays > 0 {
			months[i].OccupancyRate = round1(float64(months[i].BookedDays) / float64(months[i].TotalDays) * 100)
		}
	}
	return &models.OccupancyReport{City: city, ByMonth: months}, nil
}

// TopHostsReport ranks a city's hosts by listing count.
func (s *InsightService) TopHostsReport(ctx context.Context, city string, limit int) (*models.TopHostsReport, error) {
	if limit <= 0 {
		limit = 10
	}
	hosts, err := s.source.TopHosts(ctx, city, limit)
	if err != nil {
		return nil, err
	}
	return &models.TopHostsReport{City: city, TopHosts: hosts}, nil
}

// SentimentReport returns the per-label sentiment breakdown for a city.
func (s *InsightService) SentimentReport(ctx context.Context, city string) (*models.SentimentReport, error) {
	buckets, err := s.source.SentimentStats(ctx, city)
	if err != nil {
		return nil, err
	}

	report := &models.SentimentReport{
		City: city,
		Sentiment: map[string]models.SentimentStat{
			models.SentimentPositive: {},
			models.SentimentNeutral:  {},
			models.SentimentNegative: {},
		},
	}
	for _, b := range buckets {
		report.TotalReviews += b.Count
	}
	for _, b := range buckets {
		stat := models.SentimentStat{Count: b.Count, AvgScore: round3(b.AvgScore)}
		if report.TotalReviews > 0 {
			stat.Percentage = round1(float64(b.Count) / float64(report.TotalReviews) * 100)
		}
		report.Sentiment[b.Label] = stat
	}
	return report, nil
}

// SentimentByNeighbourhood breaks sentiment down per neighbourhood by
// joining scored reviews to their listings' neighbourhoods. Reviews of
// listings without a neighbourhood are skipped. Neighbourhoods are
// ranked by positive share.
func (s *InsightService) SentimentByNeighbourhood(ctx context.Context, city string) (*models.NeighbourhoodSentimentReport, error) {
	byListing, err := s.source.ListingNeighbourhoods(ctx, city)
	if err != nil {
		return nil, err
	}

	type tally struct {
		counts map[string]int64
		sum    float64
		n      int64
	}
	tallies := make(map[string]*tally)

	err = s.source.StreamScoredReviews(ctx, city, func(listingID, sentiment string, score float64) error {
		neighbourhood, ok := byListing[listingID]
		if !ok {
			return nil
		}
		t := tallies[neighbourhood]
		if t == nil {
			t = &tally{counts: make(map[string]int64)}
			tallies[neighbourhood] = t
		}
		t.counts[sentiment]++
		t.sum += score
		t.n++
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := make([]models.NeighbourhoodSentiment, 0, len(tallies))
	for neighbourhood, t := range tallies {
		entry := models.NeighbourhoodSentiment{
			Neighbourhood: neighbourhood,
			TotalReviews:  t.n,
			Positive:      t.counts[models.SentimentPositive],
			Neutral:       t.counts[models.SentimentNeutral],
			Negative:      t.counts[models.SentimentNegative],
		}
		if t.n > 0 {
			entry.PositivePct = round1(float64(entry.Positive) / float64(t.n) * 100)
			entry.NeutralPct = round1(float64(entry.Neutral) / float64(t.n) * 100)
			entry.NegativePct = round1(float64(entry.Negative) / float64(t.n) * 100)
			entry.AvgScore = round3(t.sum / float64(t.n))
		}
		result = append(result, entry)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].PositivePct != result[j].PositivePct {
			return result[i].PositivePct > result[j].PositivePct
		}
		return result[i].Neighbourhood < result[j].Neighbourhood
	})

	return &models.NeighbourhoodSentimentReport{City: city, Neighbourhoods: result}, nil
}

// Neighbourhoods lists a city's known neighbourhoods.
func (s *InsightService) Neighbourhoods(ctx context.Context, city string) ([]string, error) {
	return s.source.DistinctNeighbourhoods(ctx, city)
}

// RoomTypes lists a city's known room types.
func (s *InsightService) RoomTypes(ctx context.Context, city string) ([]string, error) {
	return s.source.DistinctRoomTypes(ctx, city)
}

// WordCloud extracts the most frequent review words under the given
// filters. sentiment narrows to one label; neighbourhood narrows to
// reviews of that neighbourhood's listings.
func (s *InsightService) WordCloud(ctx context.Context, city, neighbourhood, sentiment string, limit int) (*models.WordCloudReport, error) {
	if limit <= 0 {
		limit = 100
	}

	var listingIDs []string
	if neighbourhood != "" {
		ids, err := s.source.ListingIDs(ctx, city, neighbourhood)
		if err != nil {
			return nil, err
		}
		if ids == nil {
			ids = []string{}
		}
		listingIDs = ids
	}

	counts := make(map[string]int)
	err := s.source.StreamComments(ctx, city, sentiment, listingIDs, maxWordCloudReviews, func(comment string) error {
		for _, word := range wordRegexp.FindAllString(strings.ToLower(comment), -1) {
			if _, stop := stopWords[word]; !stop {
				counts[word]++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	words := make([]models.WordCount, 0, len(counts))
	for word, count := range counts {
		words = append(words, models.WordCount{Word: word, Count: count})
	}
	sort.Slice(words, func(i, j int) bool {
		if words[i].Count != words[j].Count {
			return words[i].Count > words[j].Count
		}
		return words[i].Word < words[j].Word
	})
	if len(words) > limit {
		words = words[:limit]
	}

	return &models.WordCloudReport{
		City:          city,
		Neighbourhood: neighbourhood,
		Sentiment:     sentiment,
		Words:         words,
	}, nil
}

// Listings returns filtered listings for the read API.
func (s *InsightService) Listings(ctx context.Context, filter storage.ListingFilter) ([]models.Listing, error) {
	return s.source.FindListings(ctx, filter)
}

// Listing returns one listing or nil when absent.
func (s *InsightService) Listing(ctx context.Context, city, id string) (*models.Listing, error) {
	return s.source.FindListing(ctx, city, id)
}

// Mean compound scores can be negative, so rounding goes through math.Round.
func round1(f float64) float64 { return math.Round(f*10) / 10 }
func round3(f float64) float64 { return math.Round(f*1000) / 1000 }
