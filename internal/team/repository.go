package team

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

type TeamRepository interface {
	Create(ctx context.Context, t *Team) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*Team, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*Team, error)
	FindAll(ctx context.Context, status Status) ([]*Team, error)
	Update(ctx context.Context, t *Team) error
	UpdateLocation(ctx context.Context, id primitive.ObjectID, loc geo.GeoJSON) error
	ClaimAssignment(ctx context.Context, teamID, sosID primitive.ObjectID) error
	ReleaseAssignment(ctx context.Context, teamID, sosID primitive.ObjectID) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type teamRepository struct {
	collection *mongo.Collection
}

func NewTeamRepository(collection *mongo.Collection) TeamRepository {
	_ = EnsureTeamIndexes(context.Background(), collection)
	return &teamRepository{collection: collection}
}

func notDeleted() bson.M {
	return bson.M{"deleted_at": bson.M{"$exists": false}}
}

func (r *teamRepository) Create(ctx context.Context, t *Team) error {
	_, err := r.collection.InsertOne(ctx, t)
	return err
}

func (r *teamRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*Team, error) {
	var t Team
	filter := notDeleted()
	filter["_id"] = id
	err := r.collection.FindOne(ctx, filter).Decode(&t)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *teamRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*Team, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	filter := notDeleted()
	filter["_id"] = bson.M{"$in": ids}
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	var teams []*Team
	if err := cursor.All(ctx, &teams); err != nil {
		return nil, err
	}
	return teams, nil
}

func (r *teamRepository) FindAll(ctx context.Context, status Status) ([]*Team, error) {
	filter := notDeleted()
	if status != "" {
		filter["status"] = status
	}

	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}

	var teams []*Team
	if err := cursor.All(ctx, &teams); err != nil {
		return nil, err
	}
	return teams, nil
}

// Update persists the whole record guarded by its version; a concurrent
// writer having bumped the version surfaces as Conflict.
func (r *teamRepository) Update(ctx context.Context, t *Team) error {
	prev := t.Version
	t.Version++
	t.UpdatedAt = time.Now().UTC()

	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": t.ID, "version": prev}, t)
	if err != nil {
		t.Version = prev
		return err
	}
	if res.MatchedCount == 0 {
		t.Version = prev
		return apperr.Conflictf("team %s was modified concurrently", t.ID.Hex())
	}
	return nil
}

// UpdateLocation is a last-write-wins scalar overwrite: no version check, no
// conflict possible.
func (r *teamRepository) UpdateLocation(ctx context.Context, id primitive.ObjectID, loc geo.GeoJSON) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"location": loc, "updated_at": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.NotFoundf("team %s not found", id.Hex())
	}
	return nil
}

// ClaimAssignment atomically marks the team busy on the given request. The
// filter admits an unassigned team or a re-claim of the same request, so the
// operation is idempotent; any other live assignment is a Conflict.
func (r *teamRepository) ClaimAssignment(ctx context.Context, teamID, sosID primitive.ObjectID) error {
	filter := bson.M{
		"_id": teamID,
		"$or": []bson.M{
			{"current_assignment": bson.M{"$exists": false}},
			{"current_assignment": nil},
			{"current_assignment": sosID},
		},
	}
	update := bson.M{
		"$set": bson.M{
			"current_assignment": sosID,
			"status":             StatusBusy,
			"updated_at":         time.Now().UTC(),
		},
		"$inc": bson.M{"version": 1},
	}

	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.Conflictf("team %s already has an active assignment", teamID.Hex())
	}
	return nil
}

// ReleaseAssignment frees the team if it still holds the given request.
// Releasing a team that moved on is a no-op.
func (r *teamRepository) ReleaseAssignment(ctx context.Context, teamID, sosID primitive.ObjectID) error {
	update := bson.M{
		"$set": bson.M{
			"status":     StatusAvailable,
			"updated_at": time.Now().UTC(),
		},
		"$unset": bson.M{"current_assignment": ""},
		"$inc":   bson.M{"version": 1},
	}

	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": teamID, "current_assignment": sosID}, update)
	return err
}

func (r *teamRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"deleted_at": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.NotFoundf("team %s not found", id.Hex())
	}
	return nil
}

func EnsureTeamIndexes(ctx context.Context, coll *mongo.Collection) error {
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
