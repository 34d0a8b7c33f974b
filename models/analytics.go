package models

// Aggregation results decoded from the document store, plus the shaped
// reports the API serves. Shaping-only fields (percentages, rates)
// carry no bson mapping; they are computed after aggregation.

// PriceStats summarises prices over a group of listings.
type PriceStats struct {
	AvgPrice float64 `bson:"avg_price" json:"avg_price"`
	MinPrice float64 `bson:"min_price" json:"min_price"`
	MaxPrice float64 `bson:"max_price" json:"max_price"`
	Count    int64   `bson:"count" json:"count"`
}

// NeighbourhoodPrice is PriceStats grouped by neighbourhood.
type NeighbourhoodPrice struct {
	Neighbourhood *string `bson:"_id" json:"neighbourhood"`
	AvgPrice      float64 `bson:"avg_price" json:"avg_price"`
	MinPrice      float64 `bson:"min_price" json:"min_price"`
	MaxPrice      float64 `bson:"max_price" json:"max_price"`
	Count         int64   `bson:"count" json:"count"`
}

// PriceReport is the price-stats analytics payload for one city.
type PriceReport struct {
	City            string               `json:"city"`
	Overall         PriceStats           `json:"overall"`
	ByNeighbourhood []NeighbourhoodPrice `json:"by_neighbourhood"`
}

// RoomTypeStat is one room type's share of a city's listings.
type RoomTypeStat struct {
	RoomType   *string  `bson:"_id" json:"room_type"`
	Count      int64    `bson:"count" json:"count"`
	AvgPrice   *float64 `bson:"avg_price" json:"avg_price"`
	Percentage float64  `bson:"-" json:"percentage"`
}

// RoomTypeReport is the room-type distribution payload for one city.
type RoomTypeReport struct {
	City          string         `json:"city"`
	TotalListings int64          `json:"total_listings"`
	Distribution  []RoomTypeStat `json:"distribution"`
}

// MonthOccupancy is calendar occupancy aggregated over one month.
type MonthOccupancy struct {
	Month         string  `bson:"_id" json:"month"`
	TotalDays     int64   `bson:"total_days" json:"total_days"`
	BookedDays    int64   `bson:"booked_days" json:"booked_days"`
	OccupancyRate float64 `bson:"-" json:"occupancy_rate"`
}

// OccupancyReport is the monthly occupancy payload for one city.
type OccupancyReport struct {
	City    string           `json:"city"`
	ByMonth []MonthOccupancy `json:"by_month"`
}

// HostStat ranks one host by listing count.
type HostStat struct {
	HostID       string   `bson:"_id" json:"host_id"`
	HostName     *string  `bson:"host_name" json:"host_name"`
	ListingCount int64    `bson:"listing_count" json:"listing_count"`
	AvgPrice     *float64 `bson:"avg_price" json:"avg_price"`
	AvgRating    *float64 `bson:"avg_rating" json:"avg_rating"`
}

// TopHostsReport is the top-hosts ranking payload for one city.
type TopHostsReport struct {
	City     string     `json:"city"`
	TopHosts []HostStat `json:"top_hosts"`
}

// SentimentBucket is raw per-label output of the sentiment aggregation.
type SentimentBucket struct {
	Label    string  `bson:"_id"`
	Count    int64   `bson:"count"`
	AvgScore float64 `bson:"avg_score"`
}

// SentimentStat is one label's shaped share of a city's reviews.
type SentimentStat struct {
	Count      int64   `json:"count"`
	Percentage float64 `json:"percentage"`
	AvgScore   float64 `json:"avg_score"`
}

// SentimentReport is the sentiment breakdown payload for one city.
type SentimentReport struct {
	City         string                   `json:"city"`
	TotalReviews int64                    `json:"total_reviews"`
	Sentiment    map[string]SentimentStat `json:"sentiment"`
}

// NeighbourhoodSentiment is one neighbourhood's sentiment breakdown,
// built by joining scored reviews to their listings' neighbourhoods.
type NeighbourhoodSentiment struct {
	Neighbourhood string  `json:"neighbourhood"`
	TotalReviews  int64   `json:"total_reviews"`
	Positive      int64   `json:"positive"`
	PositivePct   float64 `json:"positive_pct"`
	Neutral       int64   `json:"neutral"`
	NeutralPct    float64 `json:"neutral_pct"`
	Negative      int64   `json:"negative"`
	NegativePct   float64 `json:"negative_pct"`
	AvgScore      float64 `json:"avg_sentiment_score"`
}

// NeighbourhoodSentimentReport is the per-neighbourhood sentiment
// payload for one city, sorted by positive share.
type NeighbourhoodSentimentReport struct {
	City           string                   `json:"city"`
	Neighbourhoods []NeighbourhoodSentiment `json:"neighbourhoods"`
}

// WordCount is one entry of the word-frequency extraction.
type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// WordCloudReport carries the top review words under the given filters.
type WordCloudReport struct {
	City          string      `json:"city"`
	Neighbourhood string      `json:"neighbourhood,omitempty"`
	Sentiment     string      `json:"sentiment,omitempty"`
	Words         []WordCount `json:"words"`
}
