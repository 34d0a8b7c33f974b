package storage

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"innsight/models"
)

// ReviewStore is the document-store capability the sentiment enrichment
// job runs against.
type ReviewStore interface {
	// CountReviews counts a city's review documents; with onlyUnscored
	// set, only documents still lacking the sentiment marker.
	CountReviews(ctx context.Context, city string, onlyUnscored bool) (int64, error)

	// StreamReviews visits the selected documents one at a time, reading
	// from the store in batches of batchSize. An error from fn aborts
	// the stream.
	StreamReviews(ctx context.Context, city string, onlyUnscored bool, batchSize int, fn func(*models.Review) error) error

	// SetReviewSentiment writes sentiment fields onto one document,
	// keyed by document identity. modified is false when the stored
	// values already matched.
	SetReviewSentiment(ctx context.Context, docID primitive.ObjectID, label string, compound float64, scores models.SentimentScores) (modified bool, err error)

	// SentimentStats aggregates per-label counts and mean compound score.
	SentimentStats(ctx context.Context, city string) ([]models.SentimentBucket, error)
}

// ListingFilter narrows listing read queries.
type ListingFilter struct {
	City          string
	MinPrice      *float64
	MaxPrice      *float64
	RoomType      string
	Neighbourhood string
	Limit         int64
	Offset        int64
}

// AnalyticsSource is the read-side capability behind the insight
// service: aggregations and filtered lookups over loaded documents.
type AnalyticsSource interface {
	PriceStatsOverall(ctx context.Context, city string) (models.PriceStats, error)
	PriceStatsByNeighbourhood(ctx context.Context, city string) ([]models.NeighbourhoodPrice, error)
	RoomTypeDistribution(ctx context.Context, city string) ([]models.RoomTypeStat, error)
	MonthlyOccupancy(ctx context.Context, city string, months int) ([]models.MonthOccupancy, error)
	TopHosts(ctx context.Context, city string, limit int) ([]models.HostStat, error)
	SentimentStats(ctx context.Context, city string) ([]models.SentimentBucket, error)

	// ListingIDs returns the ids of a city's listings in one neighbourhood.
	ListingIDs(ctx context.Context, city, neighbourhood string) ([]string, error)
	// ListingNeighbourhoods maps a city's listing ids to their
	// neighbourhoods; listings without one are absent from the map.
	ListingNeighbourhoods(ctx context.Context, city string) (map[string]string, error)
	// StreamScoredReviews visits (listing_id, sentiment, score) for each
	// of a city's scored reviews.
	StreamScoredReviews(ctx context.Context, city string, fn func(listingID, sentiment string, score float64) error) error
	// DistinctNeighbourhoods and DistinctRoomTypes list a city's known
	// values, sorted.
	DistinctNeighbourhoods(ctx context.Context, city string) ([]string, error)
	DistinctRoomTypes(ctx context.Context, city string) ([]string, error)
	// StreamComments visits scored review comments under the given
	// filters, at most limit of them.
	StreamComments(ctx context.Context, city, sentiment string, listingIDs []string, limit int64, fn func(comment string) error) error

	FindListings(ctx context.Context, filter ListingFilter) ([]models.Listing, error)
	FindListing(ctx context.Context, city, id string) (*models.Listing, error)
}

// ListingExporter persists cleaned listings to a relational sink.
type ListingExporter interface {
	Export(listings []*models.Listing) error
	Close() error
}
