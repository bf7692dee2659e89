package user

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"crisis-service/internal/geo"
	"crisis-service/pkg/apperr"
)

type memUserRepository struct {
	users map[primitive.ObjectID]*User
}

func newMemUserRepository() *memUserRepository {
	return &memUserRepository{users: make(map[primitive.ObjectID]*User)}
}

func (m *memUserRepository) FindByID(_ context.Context, id primitive.ObjectID) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *memUserRepository) FindAll(_ context.Context, role string) ([]*User, error) {
	var out []*User
	for _, u := range m.users {
		if role == "" || u.Role == role {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memUserRepository) UpdateLocation(_ context.Context, id primitive.ObjectID, loc geo.GeoJSON) error {
	u, ok := m.users[id]
	if !ok {
		return apperr.NotFoundf("user %s not found", id.Hex())
	}
	u.Location = &loc
	return nil
}

func addUser(repo *memUserRepository, name string) *User {
	u := &User{
		ID:        primitive.NewObjectID(),
		Name:      name,
		Email:     name + "@example.com",
		Role:      RoleReporter,
		CreatedAt: time.Now().UTC(),
	}
	repo.users[u.ID] = u
	return u
}

func TestUpdateUserLocationFeedsIndex(t *testing.T) {
	repo := newMemUserRepository()
	index := geo.NewIndex()
	svc := NewUserService(repo, index)

	u := addUser(repo, "asha")

	updated, err := svc.UpdateUserLocation(context.Background(), u.ID.Hex(), geo.Point{Longitude: 77.59, Latitude: 12.97})
	require.NoError(t, err)
	require.NotNil(t, updated.Location)
	assert.Equal(t, 1, index.Len())
}

func TestGetNearbyUsers(t *testing.T) {
	repo := newMemUserRepository()
	index := geo.NewIndex()
	svc := NewUserService(repo, index)
	ctx := context.Background()
	center := geo.Point{Longitude: 77.59, Latitude: 12.97}

	far := addUser(repo, "far")
	_, err := svc.UpdateUserLocation(ctx, far.ID.Hex(), geo.Point{Longitude: 77.59, Latitude: 12.988})
	require.NoError(t, err)

	near := addUser(repo, "near")
	_, err = svc.UpdateUserLocation(ctx, near.ID.Hex(), geo.Point{Longitude: 77.59, Latitude: 12.975})
	require.NoError(t, err)

	out := addUser(repo, "out")
	_, err = svc.UpdateUserLocation(ctx, out.ID.Hex(), geo.Point{Longitude: 78.50, Latitude: 12.97})
	require.NoError(t, err)

	// No location reported yet, never a match.
	addUser(repo, "silent")

	users, err := svc.GetNearbyUsers(ctx, center, 5000)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, near.ID, users[0].ID)
	assert.Equal(t, far.ID, users[1].ID)

	_, err = svc.GetNearbyUsers(ctx, geo.Point{Longitude: 200, Latitude: 0}, 5000)
	assert.True(t, apperr.IsValidation(err))

	_, err = svc.GetNearbyUsers(ctx, center, -1)
	assert.True(t, apperr.IsValidation(err))
}
