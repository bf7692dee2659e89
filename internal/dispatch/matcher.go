package dispatch

import (
	"context"
	"sort"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"crisis-service/internal/geo"
	"crisis-service/internal/shelter"
	"crisis-service/internal/team"
	"crisis-service/pkg/apperr"
)

type CandidateKind string

const (
	KindTeam    CandidateKind = "team"
	KindShelter CandidateKind = "shelter"
)

// Candidate is one ranked dispatch option for a pending request.
type Candidate struct {
	Kind            CandidateKind `json:"kind"`
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	DistanceMeters  float64       `json:"distance_meters"`
	CapabilityMatch bool          `json:"capability_match"`
}

// defaultRadii is the expanding search sequence; the final step is replaced
// by the configured upper bound.
var defaultRadii = []float64{1000, 5000, 20000}

// Matcher surfaces ranked responder/shelter candidates for a dispatcher to
// choose from. It never auto-assigns. Matching is read-only, so callers may
// cancel at any point without side effects.
type Matcher struct {
	teamIndex    *geo.Index
	shelterIndex *geo.Index
	teams        team.TeamRepository
	shelters     shelter.ShelterRepository
	maxRadius    float64
	logger       *zap.SugaredLogger
}

func NewMatcher(teamIndex, shelterIndex *geo.Index, teams team.TeamRepository, shelters shelter.ShelterRepository, maxRadius float64, logger *zap.SugaredLogger) *Matcher {
	if maxRadius <= 0 {
		maxRadius = 100000
	}
	return &Matcher{
		teamIndex:    teamIndex,
		shelterIndex: shelterIndex,
		teams:        teams,
		shelters:     shelters,
		maxRadius:    maxRadius,
		logger:       logger,
	}
}

// Match expands the search radius until at least one available candidate
// appears or the upper bound is reached. An empty result is a valid outcome,
// not an error. Candidates are ranked capability match first, then distance;
// a capability mismatch demotes, never excludes.
func (m *Matcher) Match(ctx context.Context, point geo.Point, category string) ([]Candidate, error) {
	if err := point.Validate(); err != nil {
		return nil, err
	}

	radii := append(append([]float64{}, defaultRadii...), m.maxRadius)
	for _, radius := range radii {
		if radius > m.maxRadius {
			radius = m.maxRadius
		}
		if err := ctx.Err(); err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, err, "match cancelled")
		}

		candidates, err := m.collect(ctx, point, radius, category)
		if err != nil {
			return nil, err
		}
		if len(candidates) > 0 {
			rank(candidates)
			return candidates, nil
		}
	}

	return []Candidate{}, nil
}

func (m *Matcher) collect(ctx context.Context, point geo.Point, radius float64, category string) ([]Candidate, error) {
	teamMatches, err := m.teamIndex.Query(point, radius, nil)
	if err != nil {
		return nil, err
	}
	shelterMatches, err := m.shelterIndex.Query(point, radius, nil)
	if err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0, len(teamMatches)+len(shelterMatches))

	teams, err := m.teams.FindByIDs(ctx, toObjectIDs(teamMatches))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "failed to load candidate teams")
	}
	teamsByID := make(map[string]*team.Team, len(teams))
	for _, t := range teams {
		teamsByID[t.ID.Hex()] = t
	}
	for _, match := range teamMatches {
		t, ok := teamsByID[match.ID]
		if !ok || !t.IsAvailable() {
			continue
		}
		candidates = append(candidates, Candidate{
			Kind:            KindTeam,
			ID:              match.ID,
			Name:            t.Name,
			DistanceMeters:  match.Distance,
			CapabilityMatch: t.HasCapability(category),
		})
	}

	shelters, err := m.shelters.FindByIDs(ctx, toObjectIDs(shelterMatches))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "failed to load candidate shelters")
	}
	sheltersByID := make(map[string]*shelter.Shelter, len(shelters))
	for _, sh := range shelters {
		sheltersByID[sh.ID.Hex()] = sh
	}
	for _, match := range shelterMatches {
		sh, ok := sheltersByID[match.ID]
		if !ok || !sh.IsAvailable() {
			continue
		}
		candidates = append(candidates, Candidate{
			Kind:            KindShelter,
			ID:              match.ID,
			Name:            sh.Name,
			DistanceMeters:  match.Distance,
			CapabilityMatch: sh.HasFacility(category),
		})
	}

	return candidates, nil
}

func rank(candidates []Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].CapabilityMatch != candidates[j].CapabilityMatch {
			return candidates[i].CapabilityMatch
		}
		if candidates[i].DistanceMeters != candidates[j].DistanceMeters {
			return candidates[i].DistanceMeters < candidates[j].DistanceMeters
		}
		return candidates[i].ID < candidates[j].ID
	})
}

func toObjectIDs(matches []geo.Match) []primitive.ObjectID {
	ids := make([]primitive.ObjectID, 0, len(matches))
	for _, match := range matches {
		if id, err := primitive.ObjectIDFromHex(match.ID); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}
