package geo

import (
	"sort"
	"sync"

	"crisis-service/pkg/apperr"
)

// Match is one index query result.
type Match struct {
	ID       string  `json:"id"`
	Distance float64 `json:"distance"`
}

// Index holds current point locations for a moving set of entities and
// answers radius queries. It is shared process-wide and safe for concurrent
// use; a filtered scan keeps it correct at any size.
type Index struct {
	mu     sync.RWMutex
	points map[string]Point
}

func NewIndex() *Index {
	return &Index{points: make(map[string]Point)}
}

// Upsert replaces the stored point for an entity. Last write wins.
func (x *Index) Upsert(id string, p Point) error {
	if err := p.Validate(); err != nil {
		return err
	}
	x.mu.Lock()
	x.points[id] = p
	x.mu.Unlock()
	return nil
}

// Remove is idempotent; removing an unknown entity is a no-op.
func (x *Index) Remove(id string) {
	x.mu.Lock()
	delete(x.points, id)
	x.mu.Unlock()
}

func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.points)
}

// Query returns every entity within radiusMeters of p that passes the
// predicate, ascending by distance, ties broken by entity ID. A nil
// predicate admits everything.
func (x *Index) Query(p Point, radiusMeters float64, predicate func(id string) bool) ([]Match, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if radiusMeters <= 0 {
		return nil, apperr.Validationf("radius must be positive, got %v", radiusMeters)
	}

	x.mu.RLock()
	matches := make([]Match, 0)
	for id, loc := range x.points {
		if predicate != nil && !predicate(id) {
			continue
		}
		if d := Distance(p, loc); d <= radiusMeters {
			matches = append(matches, Match{ID: id, Distance: d})
		}
	}
	x.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Distance != matches[j].Distance {
			return matches[i].Distance < matches[j].Distance
		}
		return matches[i].ID < matches[j].ID
	})
	return matches, nil
}
