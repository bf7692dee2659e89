package crisis

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

type CrisisRepository interface {
	Create(ctx context.Context, c *Crisis) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*Crisis, error)
	FindAll(ctx context.Context, status Status) ([]*Crisis, error)
	FindNearby(ctx context.Context, point geo.Point, maxDistanceMeters float64) ([]*Crisis, error)
	Update(ctx context.Context, c *Crisis) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type crisisRepository struct {
	collection *mongo.Collection
}

func NewCrisisRepository(collection *mongo.Collection) CrisisRepository {
	_ = EnsureCrisisIndexes(context.Background(), collection)
	return &crisisRepository{collection: collection}
}

func notDeleted() bson.M {
	return bson.M{"deleted_at": bson.M{"$exists": false}}
}

func (r *crisisRepository) Create(ctx context.Context, c *Crisis) error {
	_, err := r.collection.InsertOne(ctx, c)
	return err
}

func (r *crisisRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*Crisis, error) {
	var c Crisis
	filter := notDeleted()
	filter["_id"] = id
	err := r.collection.FindOne(ctx, filter).Decode(&c)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *crisisRepository) FindAll(ctx context.Context, status Status) ([]*Crisis, error) {
	filter := notDeleted()
	if status != "" {
		filter["status"] = status
	}

	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}

	var crises []*Crisis
	if err := cursor.All(ctx, &crises); err != nil {
		return nil, err
	}
	return crises, nil
}

// FindNearby returns active crises ordered by distance via the 2dsphere
// index, matching the original backend's $near query.
func (r *crisisRepository) FindNearby(ctx context.Context, point geo.Point, maxDistanceMeters float64) ([]*Crisis, error) {
	filter := notDeleted()
	filter["status"] = StatusActive
	filter["location"] = bson.M{
		"$near": bson.M{
			"$geometry":    geo.NewGeoJSON(point),
			"$maxDistance": maxDistanceMeters,
		},
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}

	var crises []*Crisis
	if err := cursor.All(ctx, &crises); err != nil {
		return nil, err
	}
	return crises, nil
}

func (r *crisisRepository) Update(ctx context.Context, c *Crisis) error {
	prev := c.Version
	c.Version++
	c.UpdatedAt = time.Now().UTC()

	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": c.ID, "version": prev}, c)
	if err != nil {
		c.Version = prev
		return err
	}
	if res.MatchedCount == 0 {
		c.Version = prev
		return apperr.Conflictf("crisis %s was modified concurrently", c.ID.Hex())
	}
	return nil
}

func (r *crisisRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"deleted_at": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.NotFoundf("crisis %s not found", id.Hex())
	}
	return nil
}

func EnsureCrisisIndexes(ctx context.Context, coll *mongo.Collection) error {
	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "location", Value: "2dsphere"}},
			Options: options.Index().SetName("location_2dsphere"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("by_status_created"),
		},
	}
	_, err := coll.Indexes().CreateMany(ctx, models)
	return err
}
