package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"innsight/models"
	"innsight/utils"
)

// Collection names in the document store.
const (
	CollListings = "listings"
	CollReviews  = "reviews"
	CollCalendar = "calendar"
)

// MongoStore is the document store behind the loader, the enrichment
// job and the analytics read paths. All mutation assumes a single
// writer per city.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
	logger *utils.Logger
}

// NewMongoStore connects, pings and returns a ready store. Connection
// failure is fatal to the caller: there is no retry policy beyond
// surfacing the error.
func NewMongoStore(ctx context.Context, uri, dbName string, logger *utils.Logger) (*MongoStore, error) {
	opts := options.Client().ApplyURI(uri).SetServerSelectionTimeout(5 * time.Second)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo: ping %q: %w", uri, err)
	}
	logger.Info("[mongo] Connected to database %q", dbName)
	return &MongoStore{client: client, db: client.Database(dbName), logger: logger}, nil
}

// Close disconnects from the store.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// DropCollections drops the listing, review and calendar collections.
// Destructive: only the explicit full-reload path may call it.
func (s *MongoStore) DropCollections(ctx context.Context) error {
	for _, name := range []string{CollListings, CollReviews, CollCalendar} {
		if err := s.db.Collection(name).Drop(ctx); err != nil {
			return fmt.Errorf("mongo: drop %s: %w", name, err)
		}
		s.logger.Warn("[mongo] Dropped collection %s", name)
	}
	return nil
}

// EnsureIndexes declares the uniqueness constraints and lookup indexes.
// Declarations are idempotent: re-running against existing identical
// indexes is a no-op.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)

	listingModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "city", Value: 1}}},
		{Keys: bson.D{{Key: "neighbourhood", Value: 1}}},
		{Keys: bson.D{{Key: "price", Value: 1}}},
		{Keys: bson.D{{Key: "room_type", Value: 1}}},
	}
	if _, err := s.db.Collection(CollListings).Indexes().CreateMany(ctx, listingModels); err != nil {
		return fmt.Errorf("mongo: listing indexes: %w", err)
	}

	reviewModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "listing_id", Value: 1}}},
		{Keys: bson.D{{Key: "city", Value: 1}}},
		{Keys: bson.D{{Key: "date", Value: -1}}},
	}
	if _, err := s.db.Collection(CollReviews).Indexes().CreateMany(ctx, reviewModels); err != nil {
		return fmt.Errorf("mongo: review indexes: %w", err)
	}

	calendarModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "listing_id", Value: 1}, {Key: "date", Value: 1}}},
		{Keys: bson.D{{Key: "city", Value: 1}}},
	}
	if _, err := s.db.Collection(CollCalendar).Indexes().CreateMany(ctx, calendarModels); err != nil {
		return fmt.Errorf("mongo: calendar indexes: %w", err)
	}

	s.logger.Info("[mongo] Indexes ensured")
	return nil
}

// insertBatch performs one unordered InsertMany so a malformed or
// duplicate record does not block the rest of its batch. It returns the
// number actually inserted; per-record failures are logged, not raised.
// Any other error is an infrastructure failure and aborts the load.
func (s *MongoStore) insertBatch(ctx context.Context, coll string, docs []interface{}) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}
	res, err := s.db.Collection(coll).InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err != nil {
		var bwe mongo.BulkWriteException
		if errors.As(err, &bwe) {
			inserted := len(docs) - len(bwe.WriteErrors)
			s.logger.Warn("[mongo] %s: %d of %d records failed in batch",
				coll, len(bwe.WriteErrors), len(docs))
			return inserted, nil
		}
		return 0, fmt.Errorf("mongo: insert into %s: %w", coll, err)
	}
	return len(res.InsertedIDs), nil
}

// LoadListings reads a cleaned listings artifact in batches and inserts
// it, returning the count actually inserted.
func (s *MongoStore) LoadListings(ctx context.Context, path string, batchSize int) (int, error) {
	s.logger.Info("[mongo] Loading listings from %s", path)
	total := 0
	batches := 0
	err := ReadChunks(path, batchSize, func(chunk []Row) error {
		docs := make([]interface{}, 0, len(chunk))
		for _, row := range chunk {
			docs = append(docs, listingFromRow(row))
		}
		n, err := s.insertBatch(ctx, CollListings, docs)
		if err != nil {
			return err
		}
		total += n
		batches++
		if batches%10 == 0 {
			s.logger.Info("[mongo] Processed %d listings...", total)
		}
		return nil
	})
	if err != nil {
		return total, err
	}
	s.logger.Info("[mongo] Inserted %d listings", total)
	return total, nil
}

// LoadReviews reads a cleaned reviews artifact in batches and inserts it.
func (s *MongoStore) LoadReviews(ctx context.Context, path string, batchSize int) (int, error) {
	s.logger.Info("[mongo] Loading reviews from %s", path)
	total := 0
	batches := 0
	err := ReadChunks(path, batchSize, func(chunk []Row) error {
		docs := make([]interface{}, 0, len(chunk))
		for _, row := range chunk {
			docs = append(docs, reviewFromRow(row))
		}
		n, err := s.insertBatch(ctx, CollReviews, docs)
		if err != nil {
			return err
		}
		total += n
		batches++
		if batches%20 == 0 {
			s.logger.Info("[mongo] Processed %d reviews...", total)
		}
		return nil
	})
	if err != nil {
		return total, err
	}
	s.logger.Info("[mongo] Inserted %d reviews", total)
	return total, nil
}

// LoadCalendar reads a cleaned calendar artifact in batches and inserts
// it. Rows whose date cell is damaged are dropped, not inserted.
func (s *MongoStore) LoadCalendar(ctx context.Context, path string, batchSize int) (int, error) {
	s.logger.Info("[mongo] Loading calendar from %s", path)
	total := 0
	dropped := 0
	batches := 0
	err := ReadChunks(path, batchSize, func(chunk []Row) error {
		docs := make([]interface{}, 0, len(chunk))
		for _, row := range chunk {
			day := calendarFromRow(row)
			if day == nil {
				dropped++
				continue
			}
			docs = append(docs, day)
		}
		n, err := s.insertBatch(ctx, CollCalendar, docs)
		if err != nil {
			return err
		}
		total += n
		batches++
		if batches%20 == 0 {
			s.logger.Info("[mongo] Processed %d calendar days...", total)
		}
		return nil
	})
	if err != nil {
		return total, err
	}
	if dropped > 0 {
		s.logger.Warn("[mongo] Dropped %d calendar rows with damaged dates", dropped)
	}
	s.logger.Info("[mongo] Inserted %d calendar days", total)
	return total, nil
}

func reviewFilter(city string, onlyUnscored bool) bson.M {
	filter := bson.M{"city": city}
	if onlyUnscored {
		filter["sentiment"] = bson.M{"$exists": false}
	}
	return filter
}

// CountReviews implements ReviewStore.
func (s *MongoStore) CountReviews(ctx context.Context, city string, onlyUnscored bool) (int64, error) {
	n, err := s.db.Collection(CollReviews).CountDocuments(ctx, reviewFilter(city, onlyUnscored))
	if err != nil {
		return 0, fmt.Errorf("mongo: count reviews: %w", err)
	}
	return n, nil
}

// StreamReviews implements ReviewStore.
func (s *MongoStore) StreamReviews(ctx context.Context, city string, onlyUnscored bool, batchSize int, fn func(*models.Review) error) error {
	opts := options.Find().SetBatchSize(int32(batchSize))
	cursor, err := s.db.Collection(CollReviews).Find(ctx, reviewFilter(city, onlyUnscored), opts)
	if err != nil {
		return fmt.Errorf("mongo: find reviews: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var review models.Review
		if err := cursor.Decode(&review); err != nil {
			return fmt.Errorf("mongo: decode review: %w", err)
		}
		if err := fn(&review); err != nil {
			return err
		}
	}
	return cursor.Err()
}

// SetReviewSentiment implements ReviewStore.
func (s *MongoStore) SetReviewSentiment(ctx context.Context, docID primitive.ObjectID, label string, compound float64, scores models.SentimentScores) (bool, error) {
	update := bson.M{"$set": bson.M{
		"sentiment":        label,
		"sentiment_score":  compound,
		"sentiment_scores": scores,
	}}
	res, err := s.db.Collection(CollReviews).UpdateOne(ctx, bson.M{"_id": docID}, update)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// SentimentStats implements ReviewStore and AnalyticsSource.
func (s *MongoStore) SentimentStats(ctx context.Context, city string) ([]models.SentimentBucket, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"city": city, "sentiment": bson.M{"$exists": true}}}},
		{{Key: "$group", Value: bson.M{
			"_id":       "$sentiment",
			"count":     bson.M{"$sum": 1},
			"avg_score": bson.M{"$avg": "$sentiment_score"},
		}}},
	}
	var buckets []models.SentimentBucket
	if err := s.aggregate(ctx, CollReviews, pipeline, &buckets); err != nil {
		return nil, fmt.Errorf("mongo: sentiment stats: %w", err)
	}
	return buckets, nil
}

func (s *MongoStore) aggregate(ctx context.Context, coll string, pipeline mongo.Pipeline, out interface{}) error {
	cursor, err := s.db.Collection(coll).Aggregate(ctx, pipeline)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)
	return cursor.All(ctx, out)
}

// PriceStatsOverall implements AnalyticsSource.
func (s *MongoStore) PriceStatsOverall(ctx context.Context, city string) (models.PriceStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"city": city, "price": bson.M{"$exists": true, "$ne": nil}}}},
		{{Key: "$group", Value: bson.M{
			"_id":       nil,
			"avg_price": bson.M{"$avg": "$price"},
			"min_price": bson.M{"$min": "$price"},
			"max_price": bson.M{"$max": "$price"},
			"count":     bson.M{"$sum": 1},
		}}},
	}
	var out []models.PriceStats
	if err := s.aggregate(ctx, CollListings, pipeline, &out); err != nil {
		return models.PriceStats{}, fmt.Errorf("mongo: price stats: %w", err)
	}
	if len(out) == 0 {
		return models.PriceStats{}, nil
	}
	return out[0], nil
}

// PriceStatsByNeighbourhood implements AnalyticsSource.
func (s *MongoStore) PriceStatsByNeighbourhood(ctx context.Context, city string) ([]models.NeighbourhoodPrice, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"city": city, "price": bson.M{"$exists": true, "$ne": nil}}}},
		{{Key: "$group", Value: bson.M{
			"_id":       "$neighbourhood",
			"avg_price": bson.M{"$avg": "$price"},
			"min_price": bson.M{"$min": "$price"},
			"max_price": bson.M{"$max": "$price"},
			"count":     bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.M{"avg_price": -1}}},
	}
	var out []models.NeighbourhoodPrice
	if err := s.aggregate(ctx, CollListings, pipeline, &out); err != nil {
		return nil, fmt.Errorf("mongo: neighbourhood price stats: %w", err)
	}
	return out, nil
}

// RoomTypeDistribution implements AnalyticsSource.
func (s *MongoStore) RoomTypeDistribution(ctx context.Context, city string) ([]models.RoomTypeStat, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"city": city}}},
		{{Key: "$group", Value: bson.M{
			"_id":       "$room_type",
			"count":     bson.M{"$sum": 1},
			"avg_price": bson.M{"$avg": "$price"},
		}}},
		{{Key: "$sort", Value: bson.M{"count": -1}}},
	}
	var out []models.RoomTypeStat
	if err := s.aggregate(ctx, CollListings, pipeline, &out); err != nil {
		return nil, fmt.Errorf("mongo: room type distribution: %w", err)
	}
	return out, nil
}

// MonthlyOccupancy implements AnalyticsSource. A day counts as booked
// when available is explicitly false.
func (s *MongoStore) MonthlyOccupancy(ctx context.Context, city string, months int) ([]models.MonthOccupancy, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"city": city}}},
		{{Key: "$group", Value: bson.M{
			"_id": bson.M{"$dateToString": bson.M{"format": "%Y-%m", "date": "$date"}},
			"total_days": bson.M{"$sum": 1},
			"booked_days": bson.M{"$sum": bson.M{
				"$cond": bson.A{bson.M{"$eq": bson.A{"$available", false}}, 1, 0},
			}},
		}}},
		{{Key: "$sort", Value: bson.M{"_id": -1}}},
		{{Key: "$limit", Value: months}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	}
	var out []models.MonthOccupancy
	if err := s.aggregate(ctx, CollCalendar, pipeline, &out); err != nil {
		return nil, fmt.Errorf("mongo: occupancy: %w", err)
	}
	return out, nil
}

// TopHosts implements AnalyticsSource.
func (s *MongoStore) TopHosts(ctx context.Context, city string, limit int) ([]models.HostStat, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"city": city}}},
		{{Key: "$group", Value: bson.M{
			"_id":           "$host_id",
			"host_name":     bson.M{"$first": "$host_name"},
			"listing_count": bson.M{"$sum": 1},
			"avg_price":     bson.M{"$avg": "$price"},
			"avg_rating":    bson.M{"$avg": "$review_scores_rating"},
		}}},
		{{Key: "$sort", Value: bson.M{"listing_count": -1}}},
		{{Key: "$limit", Value: limit}},
	}
	var out []models.HostStat
	if err := s.aggregate(ctx, CollListings, pipeline, &out); err != nil {
		return nil, fmt.Errorf("mongo: top hosts: %w", err)
	}
	return out, nil
}

// ListingIDs implements AnalyticsSource.
func (s *MongoStore) ListingIDs(ctx context.Context, city, neighbourhood string) ([]string, error) {
	filter := bson.M{"city": city, "neighbourhood": neighbourhood}
	opts := options.Find().SetProjection(bson.M{"id": 1})
	cursor, err := s.db.Collection(CollListings).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: listing ids: %w", err)
	}
	defer cursor.Close(ctx)

	var ids []string
	for cursor.Next(ctx) {
		var doc struct {
			ID string `bson:"id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("mongo: decode listing id: %w", err)
		}
		ids = append(ids, doc.ID)
	}
	return ids, cursor.Err()
}

// ListingNeighbourhoods implements AnalyticsSource.
func (s *MongoStore) ListingNeighbourhoods(ctx context.Context, city string) (map[string]string, error) {
	opts := options.Find().SetProjection(bson.M{"id": 1, "neighbourhood": 1})
	cursor, err := s.db.Collection(CollListings).Find(ctx, bson.M{"city": city}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: listing neighbourhoods: %w", err)
	}
	defer cursor.Close(ctx)

	byID := make(map[string]string)
	for cursor.Next(ctx) {
		var doc struct {
			ID            string  `bson:"id"`
			Neighbourhood *string `bson:"neighbourhood"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("mongo: decode listing neighbourhood: %w", err)
		}
		if doc.Neighbourhood != nil {
			byID[doc.ID] = *doc.Neighbourhood
		}
	}
	return byID, cursor.Err()
}

// StreamScoredReviews implements AnalyticsSource.
func (s *MongoStore) StreamScoredReviews(ctx context.Context, city string, fn func(listingID, sentiment string, score float64) error) error {
	filter := bson.M{"city": city, "sentiment": bson.M{"$exists": true}}
	opts := options.Find().SetProjection(bson.M{"listing_id": 1, "sentiment": 1, "sentiment_score": 1})
	cursor, err := s.db.Collection(CollReviews).Find(ctx, filter, opts)
	if err != nil {
		return fmt.Errorf("mongo: find scored reviews: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var doc struct {
			ListingID string  `bson:"listing_id"`
			Sentiment string  `bson:"sentiment"`
			Score     float64 `bson:"sentiment_score"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return fmt.Errorf("mongo: decode scored review: %w", err)
		}
		if err := fn(doc.ListingID, doc.Sentiment, doc.Score); err != nil {
			return err
		}
	}
	return cursor.Err()
}

func (s *MongoStore) distinctStrings(ctx context.Context, coll, field, city string) ([]string, error) {
	values, err := s.db.Collection(coll).Distinct(ctx, field, bson.M{"city": city})
	if err != nil {
		return nil, fmt.Errorf("mongo: distinct %s: %w", field, err)
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if str, ok := v.(string); ok && str != "" {
			out = append(out, str)
		}
	}
	sort.Strings(out)
	return out, nil
}

// DistinctNeighbourhoods implements AnalyticsSource.
func (s *MongoStore) DistinctNeighbourhoods(ctx context.Context, city string) ([]string, error) {
	return s.distinctStrings(ctx, CollListings, "neighbourhood", city)
}

// DistinctRoomTypes implements AnalyticsSource.
func (s *MongoStore) DistinctRoomTypes(ctx context.Context, city string) ([]string, error) {
	return s.distinctStrings(ctx, CollListings, "room_type", city)
}

// StreamComments implements AnalyticsSource.
func (s *MongoStore) StreamComments(ctx context.Context, city, sentiment string, listingIDs []string, limit int64, fn func(string) error) error {
	filter := bson.M{"city": city, "sentiment": bson.M{"$exists": true}}
	if sentiment != "" {
		filter["sentiment"] = sentiment
	}
	if listingIDs != nil {
		filter["listing_id"] = bson.M{"$in": listingIDs}
	}
	opts := options.Find().SetProjection(bson.M{"comments": 1}).SetLimit(limit)
	cursor, err := s.db.Collection(CollReviews).Find(ctx, filter, opts)
	if err != nil {
		return fmt.Errorf("mongo: find comments: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var doc struct {
			Comments string `bson:"comments"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return fmt.Errorf("mongo: decode comment: %w", err)
		}
		if err := fn(doc.Comments); err != nil {
			return err
		}
	}
	return cursor.Err()
}

// FindListings implements AnalyticsSource.
func (s *MongoStore) FindListings(ctx context.Context, f ListingFilter) ([]models.Listing, error) {
	filter := bson.M{"city": f.City}
	price := bson.M{}
	if f.MinPrice != nil {
		price["$gte"] = *f.MinPrice
	}
	if f.MaxPrice != nil {
		price["$lte"] = *f.MaxPrice
	}
	if len(price) > 0 {
		filter["price"] = price
	}
	if f.RoomType != "" {
		filter["room_type"] = f.RoomType
	}
	if f.Neighbourhood != "" {
		filter["neighbourhood"] = f.Neighbourhood
	}

	opts := options.Find().SetSort(bson.D{{Key: "price", Value: 1}})
	if f.Limit > 0 {
		opts.SetLimit(f.Limit)
	}
	if f.Offset > 0 {
		opts.SetSkip(f.Offset)
	}

	cursor, err := s.db.Collection(CollListings).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: find listings: %w", err)
	}
	defer cursor.Close(ctx)

	var listings []models.Listing
	if err := cursor.All(ctx, &listings); err != nil {
		return nil, fmt.Errorf("mongo: decode listings: %w", err)
	}
	return listings, nil
}

// FindListing implements AnalyticsSource.
func (s *MongoStore) FindListing(ctx context.Context, city, id string) (*models.Listing, error) {
	var listing models.Listing
	err := s.db.Collection(CollListings).FindOne(ctx, bson.M{"city": city, "id": id}).Decode(&listing)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("mongo: find listing %s: %w", id, err)
	}
	return &listing, nil
}
