package models

import "time"

// CalendarDay is one availability row per listing per date. The
// (ListingID, Date) pair is unique after deduplication.
type CalendarDay struct {
	ListingID     string    `bson:"listing_id"`
	City          string    `bson:"city"`
	Date          time.Time `bson:"date"`
	Available     *bool     `bson:"available"`
	Price         *float64  `bson:"price"`
	MinimumNights *int      `bson:"minimum_nights"`
	MaximumNights *int      `bson:"maximum_nights"`
}
