package shelter

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

type ShelterRepository interface {
	Create(ctx context.Context, s *Shelter) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*Shelter, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*Shelter, error)
	FindAll(ctx context.Context, status Status) ([]*Shelter, error)
	FindNearby(ctx context.Context, point geo.Point, maxDistanceMeters float64) ([]*Shelter, error)
	Update(ctx context.Context, s *Shelter) error
	UpdateOccupancy(ctx context.Context, id primitive.ObjectID, occupancy int64) (*Shelter, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type shelterRepository struct {
	collection *mongo.Collection
}

func NewShelterRepository(collection *mongo.Collection) ShelterRepository {
	_ = EnsureShelterIndexes(context.Background(), collection)
	return &shelterRepository{collection: collection}
}

func notDeleted() bson.M {
	return bson.M{"deleted_at": bson.M{"$exists": false}}
}

func (r *shelterRepository) Create(ctx context.Context, s *Shelter) error {
	_, err := r.collection.InsertOne(ctx, s)
	return err
}

func (r *shelterRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*Shelter, error) {
	var s Shelter
	filter := notDeleted()
	filter["_id"] = id
	err := r.collection.FindOne(ctx, filter).Decode(&s)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *shelterRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*Shelter, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	filter := notDeleted()
	filter["_id"] = bson.M{"$in": ids}
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	var shelters []*Shelter
	if err := cursor.All(ctx, &shelters); err != nil {
		return nil, err
	}
	return shelters, nil
}

func (r *shelterRepository) FindAll(ctx context.Context, status Status) ([]*Shelter, error) {
	filter := notDeleted()
	if status != "" {
		filter["status"] = status
	}

	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}

	var shelters []*Shelter
	if err := cursor.All(ctx, &shelters); err != nil {
		return nil, err
	}
	return shelters, nil
}

// FindNearby returns open shelters ordered by distance via the 2dsphere
// index; closed and maintenance shelters are excluded.
func (r *shelterRepository) FindNearby(ctx context.Context, point geo.Point, maxDistanceMeters float64) ([]*Shelter, error) {
	filter := notDeleted()
	filter["status"] = bson.M{"$in": bson.A{StatusActive, StatusFull}}
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

	var shelters []*Shelter
	if err := cursor.All(ctx, &shelters); err != nil {
		return nil, err
	}
	return shelters, nil
}

func (r *shelterRepository) Update(ctx context.Context, s *Shelter) error {
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
		return apperr.Conflictf("shelter %s was modified concurrently", s.ID.Hex())
	}
	return nil
}

// UpdateOccupancy enforces 0 <= occupancy <= capacity in the update filter
// itself, so a concurrent capacity change can never let the bound slip.
func (r *shelterRepository) UpdateOccupancy(ctx context.Context, id primitive.ObjectID, occupancy int64) (*Shelter, error) {
	if occupancy < 0 {
		return nil, apperr.Validationf("occupancy cannot be negative")
	}

	filter := notDeleted()
	filter["_id"] = id
	filter["capacity"] = bson.M{"$gte": occupancy}

	update := bson.M{
		"$set": bson.M{
			"current_occupancy": occupancy,
			"updated_at":        time.Now().UTC(),
		},
		"$inc": bson.M{"version": 1},
	}

	var s Shelter
	err := r.collection.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&s)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			// Either the shelter is gone or occupancy exceeds capacity.
			existing, ferr := r.FindByID(ctx, id)
			if ferr == nil && existing != nil {
				return nil, apperr.Validationf("occupancy %d exceeds capacity %d", occupancy, existing.Capacity)
			}
			return nil, apperr.NotFoundf("shelter %s not found", id.Hex())
		}
		return nil, err
	}
	return &s, nil
}

func (r *shelterRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"deleted_at": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.NotFoundf("shelter %s not found", id.Hex())
	}
	return nil
}

func EnsureShelterIndexes(ctx context.Context, coll *mongo.Collection) error {
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
