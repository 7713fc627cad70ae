package counter

import (
	"testing"

	"github.com/stretchr/testify/require"

	"traffic-counter-go/internal/geo"
)

func TestTrailEmpty(t *testing.T) {
	var trail Trail

	_, ok := trail.Last()
	require.False(t, ok)
	require.Equal(t, 0, trail.Len())
	require.Nil(t, trail.Points())
}

func TestTrailKeepsOrder(t *testing.T) {
	var trail Trail
	trail.Add(geo.Point{X: 1, Y: 1})
	trail.Add(geo.Point{X: 2, Y: 2})
	trail.Add(geo.Point{X: 3, Y: 3})

	last, ok := trail.Last()
	require.True(t, ok)
	require.Equal(t, geo.Point{X: 3, Y: 3}, last)
	require.Equal(t, []geo.Point{{X: 1, Y: 1}, {X: 2, Y: 2}, {X: 3, Y: 3}}, trail.Points())
}

func TestTrailEvictsOldest(t *testing.T) {
	var trail Trail
	for i := 0; i < TrailCapacity+5; i++ {
		trail.Add(geo.Point{X: i, Y: i})
		require.LessOrEqual(t, trail.Len(), TrailCapacity)
	}

	points := trail.Points()
	require.Len(t, points, TrailCapacity)
	require.Equal(t, geo.Point{X: 5, Y: 5}, points[0])
	require.Equal(t, geo.Point{X: TrailCapacity + 4, Y: TrailCapacity + 4}, points[TrailCapacity-1])

	last, _ := trail.Last()
	require.Equal(t, points[TrailCapacity-1], last)
}
