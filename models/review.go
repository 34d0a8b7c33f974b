package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Sentiment labels attached to reviews by the enrichment job.
const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
)

// SentimentScores is the pos/neu/neg breakdown, each 0..1.
type SentimentScores struct {
	Positive float64 `bson:"positive" json:"positive"`
	Neutral  float64 `bson:"neutral" json:"neutral"`
	Negative float64 `bson:"negative" json:"negative"`
}

// Review is one cleaned guest comment. The sentiment fields carry
// omitempty: they are absent from the stored document until the
// enrichment job visits it, and their presence is the marker the job
// uses to resume incrementally.
type Review struct {
	DocID        primitive.ObjectID `bson:"_id,omitempty"`
	ID           string             `bson:"id"`
	ListingID    string             `bson:"listing_id"`
	City         string             `bson:"city"`
	Date         *time.Time         `bson:"date"`
	ReviewerID   string             `bson:"reviewer_id"`
	ReviewerName *string            `bson:"reviewer_name"`
	Comments     string             `bson:"comments"`

	Sentiment       string           `bson:"sentiment,omitempty"`
	SentimentScore  *float64         `bson:"sentiment_score,omitempty"`
	SentimentScores *SentimentScores `bson:"sentiment_scores,omitempty"`
}
