package sos

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"crisis-service/internal/geo"
	"crisis-service/pkg/apperr"
)

// ListFilter narrows FindAll; zero values mean "any".
type ListFilter struct {
	Status   Status
	Type     Category
	Priority Priority
}

// TimeWindow bounds statistics by creation time; either side may be zero.
type TimeWindow struct {
	From time.Time
	To   time.Time
}

type Statistics struct {
	Total                  int64   `json:"total"`
	Pending                int64   `json:"pending"`
	InProgress             int64   `json:"inProgress"`
	Resolved               int64   `json:"resolved"`
	Cancelled              int64   `json:"cancelled"`
	AvgResponseTimeSeconds float64 `json:"avgResponseTimeSeconds"`
}

type SOSRepository interface {
	Create(ctx context.Context, s *SOS) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*SOS, error)
	FindAll(ctx context.Context, filter ListFilter, page, limit int64) ([]*SOS, int64, error)
	FindNearby(ctx context.Context, point geo.Point, maxDistanceMeters float64) ([]*SOS, error)
	Update(ctx context.Context, s *SOS) error
	Statistics(ctx context.Context, window *TimeWindow) (*Statistics, error)
}

type sosRepository struct {
	collection *mongo.Collection
}

func NewSOSRepository(collection *mongo.Collection) SOSRepository {
	_ = EnsureSOSIndexes(context.Background(), collection)
	return &sosRepository{collection: collection}
}

func (r *sosRepository) Create(ctx context.Context, s *SOS) error {
	_, err := r.collection.InsertOne(ctx, s)
	return err
}

func (r *sosRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*SOS, error) {
	var s SOS
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&s)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *sosRepository) FindAll(ctx context.Context, filter ListFilter, page, limit int64) ([]*SOS, int64, error) {
	query := bson.M{}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.Type != "" {
		query["type"] = filter.Type
	}
	if filter.Priority != "" {
		query["priority"] = filter.Priority
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}

	var requests []*SOS
	if err := cursor.All(ctx, &requests); err != nil {
		return nil, 0, err
	}

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	return requests, total, nil
}

// FindNearby orders by distance through the 2dsphere index, same query shape
// as the original backend.
func (r *sosRepository) FindNearby(ctx context.Context, point geo.Point, maxDistanceMeters float64) ([]*SOS, error) {
	filter := bson.M{
		"location": bson.M{
			"$near": bson.M{
				"$geometry":    geo.NewGeoJSON(point),
				"$maxDistance": maxDistanceMeters,
			},
		},
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}

	var requests []*SOS
	if err := cursor.All(ctx, &requests); err != nil {
		return nil, err
	}
	return requests, nil
}

// Update persists the whole record guarded by its version. The SOS lifecycle
// engine owns all writes; a lost race surfaces as Conflict for the engine's
// retry loop.
func (r *sosRepository) Update(ctx context.Context, s *SOS) error {
	prev := s.Version
	s.Version++
	s.UpdatedAt = time.Now().UTC()

	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": s.ID, "version": prev}, s)
	if err != nil {
		s.Version = prev
		return err
	}
	if res.MatchedCount == 0 {
		s.Version = prev
		return apperr.Conflictf("request %s was modified concurrently", s.ID.Hex())
	}
	return nil
}

// Statistics mirrors the original aggregation: counts per status plus the
// average gap between creation and the second history entry. A $subtract on
// dates yields milliseconds.
func (r *sosRepository) Statistics(ctx context.Context, window *TimeWindow) (*Statistics, error) {
	match := bson.M{}
	if window != nil {
		created := bson.M{}
		if !window.From.IsZero() {
			created["$gte"] = window.From
		}
		if !window.To.IsZero() {
			created["$lte"] = window.To
		}
		if len(created) > 0 {
			match["created_at"] = created
		}
	}

	countByStatus := func(status Status) bson.M {
		return bson.M{"$sum": bson.M{"$cond": bson.A{
			bson.M{"$eq": bson.A{"$status", status}}, 1, 0,
		}}}
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{
			"_id":        nil,
			"total":      bson.M{"$sum": 1},
			"pending":    countByStatus(StatusPending),
			"inProgress": countByStatus(StatusInProgress),
			"resolved":   countByStatus(StatusResolved),
			"cancelled":  countByStatus(StatusCancelled),
			"avgResponseMillis": bson.M{"$avg": bson.M{"$subtract": bson.A{
				bson.M{"$arrayElemAt": bson.A{"$status_updates.timestamp", 1}},
				"$created_at",
			}}},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}

	var rows []struct {
		Total             int64    `bson:"total"`
		Pending           int64    `bson:"pending"`
		InProgress        int64    `bson:"inProgress"`
		Resolved          int64    `bson:"resolved"`
		Cancelled         int64    `bson:"cancelled"`
		AvgResponseMillis *float64 `bson:"avgResponseMillis"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	stats := &Statistics{}
	if len(rows) > 0 {
		row := rows[0]
		stats.Total = row.Total
		stats.Pending = row.Pending
		stats.InProgress = row.InProgress
		stats.Resolved = row.Resolved
		stats.Cancelled = row.Cancelled
		if row.AvgResponseMillis != nil {
			stats.AvgResponseTimeSeconds = *row.AvgResponseMillis / 1000
		}
	}
	return stats, nil
}

func EnsureSOSIndexes(ctx context.Context, coll *mongo.Collection) error {
	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "location", Value: "2dsphere"}},
			Options: options.Index().SetName("location_2dsphere"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("by_status_created"),
		},
		{
			Keys:    bson.D{{Key: "priority", Value: 1}, {Key: "created_at", Value: 1}},
			Options: options.Index().SetName("by_priority_created"),
		},
	}
	_, err := coll.Indexes().CreateMany(ctx, models)
	return err
}
