package store

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/weatherlog/weatherlog/internal/weather"
)

const samplesCollection = "weather_samples"

// MongoStore is a durable weather.SampleStore backed by MongoDB. A unique
// compound index on (timestamp, latitude, longitude) makes the
// existence-check-then-insert race between concurrent backfill passes
// resolve to a single record.
type MongoStore struct {
	collection *mongo.Collection
	tolerance  float64
}

// NewMongoStore creates the store and ensures its indexes. A tolerance of 0
// selects DefaultBucketTolerance.
func NewMongoStore(ctx context.Context, client *mongo.Client, database string, tolerance float64) (*MongoStore, error) {
	if tolerance <= 0 {
		tolerance = DefaultBucketTolerance
	}
	s := &MongoStore{
		collection: client.Database(database).Collection(samplesCollection),
		tolerance:  tolerance,
	}
	if err := s.ensureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("ensuring sample indexes: %w", err)
	}
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := s.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "timestamp", Value: 1},
				{Key: "location.latitude", Value: 1},
				{Key: "location.longitude", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("sample_point_unique"),
		},
		{
			Keys:    bson.D{{Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("timestamp_desc"),
		},
		{
			Keys: bson.D{
				{Key: "location.latitude", Value: 1},
				{Key: "location.longitude", Value: 1},
			},
			Options: options.Index().SetName("location_bucket"),
		},
	})
	if err != nil {
		return err
	}
	log.Printf("store: mongo indexes ensured on %s", s.collection.Name())
	return nil
}

// Insert writes a sample unless its (timestamp, location) pair already
// exists. The $setOnInsert upsert keeps concurrent writers from producing a
// second row for the same instant.
func (s *MongoStore) Insert(ctx context.Context, sample weather.Sample) error {
	filter := bson.M{
		"timestamp":          sample.Timestamp,
		"location.latitude":  sample.Location.Latitude,
		"location.longitude": sample.Location.Longitude,
	}
	res, err := s.collection.UpdateOne(ctx, filter,
		bson.M{"$setOnInsert": sample}, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("%w: %v", weather.ErrStoreUnavailable, err)
	}
	if res.UpsertedCount == 0 {
		return weather.ErrDuplicateSample
	}
	return nil
}

// Exists reports whether the exact (timestamp, location) pair is stored.
func (s *MongoStore) Exists(ctx context.Context, ts time.Time, loc weather.Location) (bool, error) {
	filter := bson.M{
		"timestamp":          ts,
		"location.latitude":  loc.Latitude,
		"location.longitude": loc.Longitude,
	}
	count, err := s.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("%w: %v", weather.ErrStoreUnavailable, err)
	}
	return count > 0, nil
}

// ExistsNear reports whether any sample exists in the tolerance bucket with
// a timestamp at or after since.
func (s *MongoStore) ExistsNear(ctx context.Context, loc weather.Location, tolerance float64, since time.Time) (bool, error) {
	filter := bucketFilter(loc, tolerance)
	filter["timestamp"] = bson.M{"$gte": since}

	count, err := s.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("%w: %v", weather.ErrStoreUnavailable, err)
	}
	return count > 0, nil
}

// Count returns how many samples fall in the location bucket within
// [from, to] inclusive.
func (s *MongoStore) Count(ctx context.Context, loc weather.Location, from, to time.Time) (int64, error) {
	filter := bucketFilter(loc, s.tolerance)
	filter["timestamp"] = bson.M{"$gte": from, "$lte": to}

	count, err := s.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", weather.ErrStoreUnavailable, err)
	}
	return count, nil
}

// Query returns up to limit samples in the location bucket, newest first.
func (s *MongoStore) Query(ctx context.Context, loc weather.Location, limit int) ([]weather.Sample, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := s.collection.Find(ctx, bucketFilter(loc, s.tolerance), opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", weather.ErrStoreUnavailable, err)
	}
	defer cursor.Close(ctx)

	var samples []weather.Sample
	if err := cursor.All(ctx, &samples); err != nil {
		return nil, fmt.Errorf("%w: %v", weather.ErrStoreUnavailable, err)
	}
	return samples, nil
}

// Delete removes a sample by ID.
func (s *MongoStore) Delete(ctx context.Context, id string) error {
	res, err := s.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("%w: %v", weather.ErrStoreUnavailable, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func bucketFilter(loc weather.Location, tolerance float64) bson.M {
	return bson.M{
		"location.latitude":  bson.M{"$gte": loc.Latitude - tolerance, "$lte": loc.Latitude + tolerance},
		"location.longitude": bson.M{"$gte": loc.Longitude - tolerance, "$lte": loc.Longitude + tolerance},
	}
}
