package geo

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crisis-service/pkg/apperr"
)

func TestDistance(t *testing.T) {
	// Bangalore city center to a point ~1.5km away.
	a := Point{Longitude: 77.59, Latitude: 12.97}
	b := Point{Longitude: 77.60, Latitude: 12.98}

	d := Distance(a, b)
	assert.InDelta(t, 1550, d, 100)

	assert.Zero(t, Distance(a, a))

	// Antipodal-ish sanity: London to Sydney is roughly 17,000 km.
	london := Point{Longitude: -0.1276, Latitude: 51.5072}
	sydney := Point{Longitude: 151.2093, Latitude: -33.8688}
	assert.InDelta(t, 16994000, Distance(london, sydney), 50000)
}

func TestIndexQueryOrdering(t *testing.T) {
	idx := NewIndex()
	center := Point{Longitude: 77.59, Latitude: 12.97}

	require.NoError(t, idx.Upsert("far", Point{Longitude: 77.70, Latitude: 12.97}))
	require.NoError(t, idx.Upsert("near", Point{Longitude: 77.60, Latitude: 12.97}))
	require.NoError(t, idx.Upsert("mid", Point{Longitude: 77.64, Latitude: 12.97}))

	matches, err := idx.Query(center, 50000, nil)
	require.NoError(t, err)
	require.Len(t, matches, 3)
	assert.Equal(t, "near", matches[0].ID)
	assert.Equal(t, "mid", matches[1].ID)
	assert.Equal(t, "far", matches[2].ID)
	assert.True(t, matches[0].Distance <= matches[1].Distance)
	assert.True(t, matches[1].Distance <= matches[2].Distance)
}

func TestIndexQueryRadiusBound(t *testing.T) {
	idx := NewIndex()
	center := Point{Longitude: 77.59, Latitude: 12.97}

	require.NoError(t, idx.Upsert("inside", Point{Longitude: 77.60, Latitude: 12.98}))  // ~1.5km
	require.NoError(t, idx.Upsert("outside", Point{Longitude: 77.80, Latitude: 12.97})) // ~22km

	matches, err := idx.Query(center, 5000, nil)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "inside", matches[0].ID)
	assert.LessOrEqual(t, matches[0].Distance, 5000.0)
}

func TestIndexQueryTieBreak(t *testing.T) {
	idx := NewIndex()
	center := Point{Longitude: 0, Latitude: 0}
	same := Point{Longitude: 0.01, Latitude: 0}

	require.NoError(t, idx.Upsert("b", same))
	require.NoError(t, idx.Upsert("a", same))

	matches, err := idx.Query(center, 10000, nil)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "a", matches[0].ID)
	assert.Equal(t, "b", matches[1].ID)
}

func TestIndexQueryPredicate(t *testing.T) {
	idx := NewIndex()
	center := Point{Longitude: 0, Latitude: 0}
	require.NoError(t, idx.Upsert("keep", Point{Longitude: 0.01, Latitude: 0}))
	require.NoError(t, idx.Upsert("skip", Point{Longitude: 0.01, Latitude: 0}))

	matches, err := idx.Query(center, 10000, func(id string) bool { return id == "keep" })
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "keep", matches[0].ID)
}

func TestIndexValidation(t *testing.T) {
	idx := NewIndex()

	err := idx.Upsert("bad", Point{Longitude: 181, Latitude: 0})
	assert.True(t, apperr.IsValidation(err))

	_, err = idx.Query(Point{Longitude: 0, Latitude: 91}, 1000, nil)
	assert.True(t, apperr.IsValidation(err))

	_, err = idx.Query(Point{Longitude: 0, Latitude: 0}, 0, nil)
	assert.True(t, apperr.IsValidation(err))

	_, err = idx.Query(Point{Longitude: 0, Latitude: 0}, -5, nil)
	assert.True(t, apperr.IsValidation(err))
}

func TestIndexRemoveIdempotent(t *testing.T) {
	idx := NewIndex()
	require.NoError(t, idx.Upsert("x", Point{Longitude: 1, Latitude: 1}))

	idx.Remove("x")
	idx.Remove("x")
	idx.Remove("never-existed")

	assert.Zero(t, idx.Len())
}

func TestIndexConcurrentAccess(t *testing.T) {
	idx := NewIndex()
	center := Point{Longitude: 0, Latitude: 0}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("entity-%d", n)
			for j := 0; j < 100; j++ {
				_ = idx.Upsert(id, Point{Longitude: float64(n) * 0.001, Latitude: 0})
				_, _ = idx.Query(center, 100000, nil)
				if j%10 == 0 {
					idx.Remove(id)
				}
			}
		}(i)
	}
	wg.Wait()
}
