package models

import "time"

// Listing is one cleaned property record for a city. Optional fields are
// pointers: a nil pointer means the source value was missing or unparsable
// and is stored as null in the document store.
type Listing struct {
	ID                 string     `bson:"id" json:"id"`
	City               string     `bson:"city" json:"city"`
	Name               *string    `bson:"name" json:"name"`
	Description        *string    `bson:"description" json:"description"`
	HostID             string     `bson:"host_id" json:"host_id"`
	HostName           *string    `bson:"host_name" json:"host_name"`
	HostSince          *time.Time `bson:"host_since" json:"host_since"`
	HostResponseRate   *float64   `bson:"host_response_rate" json:"host_response_rate"`
	HostIsSuperhost    *bool      `bson:"host_is_superhost" json:"host_is_superhost"`
	Neighbourhood      *string    `bson:"neighbourhood" json:"neighbourhood"`
	Latitude           *float64   `bson:"latitude" json:"latitude"`
	Longitude          *float64   `bson:"longitude" json:"longitude"`
	RoomType           *string    `bson:"room_type" json:"room_type"`
	Accommodates       *int       `bson:"accommodates" json:"accommodates"`
	Bathrooms          *float64   `bson:"bathrooms" json:"bathrooms"`
	Bedrooms           *int       `bson:"bedrooms" json:"bedrooms"`
	Beds               *int       `bson:"beds" json:"beds"`
	Amenities          []string   `bson:"amenities" json:"amenities"`
	Price              *float64   `bson:"price" json:"price"`
	MinimumNights      *int       `bson:"minimum_nights" json:"minimum_nights"`
	MaximumNights      *int       `bson:"maximum_nights" json:"maximum_nights"`
	NumberOfReviews    *int       `bson:"number_of_reviews" json:"number_of_reviews"`
	ReviewScoresRating *float64   `bson:"review_scores_rating" json:"review_scores_rating"`
	InstantBookable    *bool      `bson:"instant_bookable" json:"instant_bookable"`
}
