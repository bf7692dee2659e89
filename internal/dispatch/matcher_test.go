package dispatch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"crisis-service/internal/geo"
	"crisis-service/internal/shelter"
	"crisis-service/internal/team"
)

type stubTeamRepository struct {
	teams map[primitive.ObjectID]*team.Team
}

func (s *stubTeamRepository) Create(context.Context, *team.Team) error { return nil }
func (s *stubTeamRepository) FindByID(_ context.Context, id primitive.ObjectID) (*team.Team, error) {
	return s.teams[id], nil
}
func (s *stubTeamRepository) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]*team.Team, error) {
	var out []*team.Team
	for _, id := range ids {
		if t, ok := s.teams[id]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}
func (s *stubTeamRepository) FindAll(context.Context, team.Status) ([]*team.Team, error) {
	return nil, nil
}
func (s *stubTeamRepository) Update(context.Context, *team.Team) error { return nil }
func (s *stubTeamRepository) UpdateLocation(context.Context, primitive.ObjectID, geo.GeoJSON) error {
	return nil
}
func (s *stubTeamRepository) ClaimAssignment(context.Context, primitive.ObjectID, primitive.ObjectID) error {
	return nil
}
func (s *stubTeamRepository) ReleaseAssignment(context.Context, primitive.ObjectID, primitive.ObjectID) error {
	return nil
}
func (s *stubTeamRepository) Delete(context.Context, primitive.ObjectID) error { return nil }

type stubShelterRepository struct {
	shelters map[primitive.ObjectID]*shelter.Shelter
}

func (s *stubShelterRepository) Create(context.Context, *shelter.Shelter) error { return nil }
func (s *stubShelterRepository) FindByID(_ context.Context, id primitive.ObjectID) (*shelter.Shelter, error) {
	return s.shelters[id], nil
}
func (s *stubShelterRepository) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]*shelter.Shelter, error) {
	var out []*shelter.Shelter
	for _, id := range ids {
		if sh, ok := s.shelters[id]; ok {
			out = append(out, sh)
		}
	}
	return out, nil
}
func (s *stubShelterRepository) FindAll(context.Context, shelter.Status) ([]*shelter.Shelter, error) {
	return nil, nil
}
func (s *stubShelterRepository) FindNearby(context.Context, geo.Point, float64) ([]*shelter.Shelter, error) {
	return nil, nil
}
func (s *stubShelterRepository) Update(context.Context, *shelter.Shelter) error { return nil }
func (s *stubShelterRepository) UpdateOccupancy(context.Context, primitive.ObjectID, int64) (*shelter.Shelter, error) {
	return nil, nil
}
func (s *stubShelterRepository) Delete(context.Context, primitive.ObjectID) error { return nil }

type matcherFixture struct {
	matcher  *Matcher
	teams    *stubTeamRepository
	shelters *stubShelterRepository
	teamIdx  *geo.Index
	shIdx    *geo.Index
}

func newMatcherFixture() *matcherFixture {
	f := &matcherFixture{
		teams:    &stubTeamRepository{teams: make(map[primitive.ObjectID]*team.Team)},
		shelters: &stubShelterRepository{shelters: make(map[primitive.ObjectID]*shelter.Shelter)},
		teamIdx:  geo.NewIndex(),
		shIdx:    geo.NewIndex(),
	}
	f.matcher = NewMatcher(f.teamIdx, f.shIdx, f.teams, f.shelters, 100000, zap.NewNop().Sugar())
	return f
}

func (f *matcherFixture) addTeam(name string, p geo.Point, status team.Status, capabilities ...string) *team.Team {
	t := &team.Team{
		ID:           primitive.NewObjectID(),
		Name:         name,
		Status:       status,
		Capabilities: capabilities,
		Location:     geo.NewGeoJSON(p),
	}
	f.teams.teams[t.ID] = t
	_ = f.teamIdx.Upsert(t.ID.Hex(), p)
	return t
}

func (f *matcherFixture) addShelter(name string, p geo.Point, status shelter.Status, capacity, occupancy int64, hasMedical bool) *shelter.Shelter {
	sh := &shelter.Shelter{
		ID:               primitive.NewObjectID(),
		Name:             name,
		Status:           status,
		Location:         geo.NewGeoJSON(p),
		Capacity:         capacity,
		CurrentOccupancy: occupancy,
		HasMedical:       hasMedical,
	}
	f.shelters.shelters[sh.ID] = sh
	_ = f.shIdx.Upsert(sh.ID.Hex(), p)
	return sh
}

var origin = geo.Point{Longitude: 77.59, Latitude: 12.97}

func TestMatchExpandingRadius(t *testing.T) {
	f := newMatcherFixture()

	// ~3km north: outside the 1km ring, inside 5km.
	far := geo.Point{Longitude: 77.59, Latitude: 12.997}
	require.Greater(t, geo.Distance(origin, far), 1000.0)
	require.Less(t, geo.Distance(origin, far), 5000.0)
	f.addTeam("Alpha", far, team.StatusAvailable)

	candidates, err := f.matcher.Match(context.Background(), origin, "medical")
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "Alpha", candidates[0].Name)
	assert.Equal(t, KindTeam, candidates[0].Kind)
}

func TestMatchStopsAtFirstPopulatedRing(t *testing.T) {
	f := newMatcherFixture()

	near := f.addTeam("Near", geo.Point{Longitude: 77.59, Latitude: 12.975}, team.StatusAvailable)
	f.addTeam("Far", geo.Point{Longitude: 77.59, Latitude: 12.997}, team.StatusAvailable)

	candidates, err := f.matcher.Match(context.Background(), origin, "fire")
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, near.ID.Hex(), candidates[0].ID)
}

func TestMatchFiltersUnavailable(t *testing.T) {
	f := newMatcherFixture()

	f.addTeam("Busy", geo.Point{Longitude: 77.591, Latitude: 12.971}, team.StatusBusy)
	f.addTeam("Offline", geo.Point{Longitude: 77.592, Latitude: 12.972}, team.StatusOffline)
	f.addShelter("Full", geo.Point{Longitude: 77.593, Latitude: 12.973}, shelter.StatusActive, 50, 50, false)
	f.addShelter("Closed", geo.Point{Longitude: 77.594, Latitude: 12.974}, shelter.StatusClosed, 50, 0, false)

	candidates, err := f.matcher.Match(context.Background(), origin, "medical")
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestMatchCapabilityRanksFirst(t *testing.T) {
	f := newMatcherFixture()

	// Nearest team lacks the capability; a farther capable team outranks it.
	f.addTeam("Closest", geo.Point{Longitude: 77.59, Latitude: 12.972}, team.StatusAvailable, "fire")
	capable := f.addTeam("Capable", geo.Point{Longitude: 77.59, Latitude: 12.977}, team.StatusAvailable, "medical")

	candidates, err := f.matcher.Match(context.Background(), origin, "medical")
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, capable.ID.Hex(), candidates[0].ID)
	assert.True(t, candidates[0].CapabilityMatch)
	assert.False(t, candidates[1].CapabilityMatch)
}

func TestMatchIncludesShelters(t *testing.T) {
	f := newMatcherFixture()

	f.addTeam("Alpha", geo.Point{Longitude: 77.59, Latitude: 12.972}, team.StatusAvailable)
	sh := f.addShelter("Clinic", geo.Point{Longitude: 77.59, Latitude: 12.974}, shelter.StatusActive, 100, 20, true)

	candidates, err := f.matcher.Match(context.Background(), origin, "medical")
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	var found *Candidate
	for i := range candidates {
		if candidates[i].Kind == KindShelter {
			found = &candidates[i]
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, sh.ID.Hex(), found.ID)
	assert.True(t, found.CapabilityMatch)
}

func TestMatchEmptyIsNotError(t *testing.T) {
	f := newMatcherFixture()

	candidates, err := f.matcher.Match(context.Background(), origin, "medical")
	require.NoError(t, err)
	assert.NotNil(t, candidates)
	assert.Empty(t, candidates)
}

func TestMatchInvalidPoint(t *testing.T) {
	f := newMatcherFixture()

	_, err := f.matcher.Match(context.Background(), geo.Point{Longitude: 200, Latitude: 0}, "medical")
	assert.Error(t, err)
}

func TestMatchCancelledContext(t *testing.T) {
	f := newMatcherFixture()
	f.addTeam("Alpha", geo.Point{Longitude: 77.59, Latitude: 12.997}, team.StatusAvailable)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.matcher.Match(ctx, origin, "medical")
	assert.Error(t, err)
}
