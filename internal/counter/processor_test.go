package counter

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"traffic-counter-go/internal/geo"
)

const (
	frameWidth  = 1280
	frameHeight = 720
)

var testConfig = Config{ConfidenceThreshold: 0.1, LineRatio: 0.6}

// det строит детекцию, у которой нижняя грань находится на высоте bottom
func det(id TrackID, classID int, bottom float64) Detection {
	return Detection{
		Box:        geo.Box{X1: 100, Y1: bottom - 40, X2: 200, Y2: bottom},
		TrackID:    id,
		ClassID:    classID,
		Confidence: 0.9,
	}
}

func newTestProcessor(t *testing.T, cfg Config) *Processor {
	t.Helper()
	p, err := NewProcessor(cfg)
	require.NoError(t, err)
	return p
}

func process(t *testing.T, p *Processor, dets ...Detection) *FrameResult {
	t.Helper()
	res, err := p.ProcessFrame(frameWidth, frameHeight, dets)
	require.NoError(t, err)
	require.Equal(t, res.Snapshot.Total, sumByClass(res.Snapshot))
	return res
}

func TestNewProcessorValidatesConfig(t *testing.T) {
	for _, cfg := range []Config{
		{ConfidenceThreshold: -0.1, LineRatio: 0.5},
		{ConfidenceThreshold: 0.5, LineRatio: 1.5},
		{ConfidenceThreshold: math.NaN(), LineRatio: 0.5},
	} {
		_, err := NewProcessor(cfg)
		require.ErrorIs(t, err, ErrInvalidConfig)
	}
}

func TestScenarioCarCrossesDownward(t *testing.T) {
	p := newTestProcessor(t, testConfig)

	res := process(t, p, det(7, 2, 100))
	require.Equal(t, 432, res.LineY)
	require.Empty(t, res.Crossings)

	res = process(t, p, det(7, 2, 650))
	require.Len(t, res.Crossings, 1)
	require.Equal(t, Crossing{TrackID: 7, Class: Car, PreviousY: 100, CurrentY: 650, LineY: 432}, res.Crossings[0])
	require.True(t, res.Render.Highlight)
	require.Equal(t, 1, res.Snapshot.Total)
	require.Equal(t, 1, res.Snapshot.ByClass[Car])
}

func TestScenarioMotorcycleNeverApproaches(t *testing.T) {
	p := newTestProcessor(t, testConfig)

	for _, y := range []float64{50, 80, 120} {
		res := process(t, p, det(9, 3, y))
		require.Empty(t, res.Crossings)
		require.False(t, res.Render.Highlight)
	}
	require.Equal(t, 0, p.Snapshot().Total)
}

func TestScenarioCrossAndReturnCountedOnce(t *testing.T) {
	p := newTestProcessor(t, testConfig)

	process(t, p, det(3, 2, 500))
	track, _ := p.registry.Get(3)
	require.False(t, track.Counted())

	res := process(t, p, det(3, 2, 400))
	require.Len(t, res.Crossings, 1)
	require.True(t, track.Counted())

	res = process(t, p, det(3, 2, 500))
	require.Empty(t, res.Crossings)
	require.False(t, res.Render.Highlight)
	require.True(t, track.Counted())
	require.Equal(t, 1, p.Snapshot().Total)
}

func TestScenarioLowConfidenceExcluded(t *testing.T) {
	p := newTestProcessor(t, testConfig)

	d := det(1, 2, 100)
	d.Confidence = 0.05
	res := process(t, p, d)

	require.Equal(t, 1, res.Dropped)
	require.Equal(t, 0, p.Tracks())
	require.Len(t, res.Render.Primitives, 1, "only the counting line is drawn")
}

func TestScenarioUnsupportedClassIgnored(t *testing.T) {
	p := newTestProcessor(t, testConfig)

	for _, classID := range []int{0, 1, 4, 6, 9} {
		process(t, p, det(TrackID(classID), classID, 100))
		process(t, p, det(TrackID(classID), classID, 650))
	}

	require.Equal(t, 0, p.Tracks())
	require.Equal(t, 0, p.Snapshot().Total)
}

func TestSingleObservationNeverCrosses(t *testing.T) {
	p := newTestProcessor(t, testConfig)

	res := process(t, p, det(1, 2, 432), det(2, 5, 700))
	require.Empty(t, res.Crossings)
	require.Equal(t, 2, p.Tracks())
}

func TestLandingOnLineCounts(t *testing.T) {
	p := newTestProcessor(t, testConfig)

	process(t, p, det(1, 7, 420))
	res := process(t, p, det(1, 7, 432))
	require.Len(t, res.Crossings, 1)
	require.Equal(t, 1, res.Snapshot.ByClass[Truck])
}

func TestDepartingFromLineDoesNotCount(t *testing.T) {
	p := newTestProcessor(t, testConfig)

	process(t, p, det(1, 2, 432))
	res := process(t, p, det(1, 2, 500))
	require.Empty(t, res.Crossings)
}

func TestMalformedDetectionsDropped(t *testing.T) {
	p := newTestProcessor(t, testConfig)

	bad := []Detection{
		{Box: geo.Box{X1: math.NaN(), Y1: 0, X2: 10, Y2: 10}, TrackID: 1, ClassID: 2, Confidence: 0.9},
		{Box: geo.Box{X1: 10, Y1: 0, X2: 5, Y2: 10}, TrackID: 2, ClassID: 2, Confidence: 0.9},
		{Box: geo.Box{X1: 0, Y1: 10, X2: 10, Y2: 10}, TrackID: 3, ClassID: 2, Confidence: 0.9},
		{Box: geo.Box{X1: 0, Y1: 0, X2: 10, Y2: 10}, TrackID: 4, ClassID: 2, Confidence: math.NaN()},
	}
	res := process(t, p, bad...)

	require.Equal(t, len(bad), res.Dropped)
	require.Equal(t, 0, p.Tracks())
	require.Len(t, res.Render.Primitives, 1)
}

func TestInvalidFrameGeometry(t *testing.T) {
	p := newTestProcessor(t, testConfig)

	for _, size := range [][2]int{{-1, 720}, {1280, -720}, {0, 720}, {1280, 0}} {
		_, err := p.ProcessFrame(size[0], size[1], []Detection{det(1, 2, 100)})
		require.ErrorIs(t, err, ErrInvalidFrameGeometry)
	}
	require.Equal(t, 0, p.Tracks(), "rejected frames leave no state behind")
}

func TestRenderContract(t *testing.T) {
	p := newTestProcessor(t, testConfig)

	process(t, p, det(7, 2, 100))
	res := process(t, p, det(7, 2, 650), det(8, 5, 200))

	prims := res.Render.Primitives
	require.Len(t, prims, 4)

	require.Equal(t, PrimitiveRectangle, prims[0].Kind)
	require.Equal(t, "Car [7]", prims[0].Label)
	require.Equal(t, geo.Point{X: 100, Y: 610}, prims[0].From)
	require.Equal(t, geo.Point{X: 200, Y: 650}, prims[0].To)
	require.Equal(t, "Bus [8]", prims[1].Label)

	require.Equal(t, PrimitiveLine, prims[2].Kind)
	require.True(t, prims[2].Highlight)
	require.Equal(t, 5, prims[2].Thickness)
	require.Equal(t, Color{G: 255}, prims[2].Color)

	// постоянная линия идет последней и перекрывает подсветку
	require.Equal(t, PrimitiveLine, prims[3].Kind)
	require.Equal(t, geo.Point{X: 0, Y: 432}, prims[3].From)
	require.Equal(t, geo.Point{X: frameWidth, Y: 432}, prims[3].To)
	require.False(t, prims[3].Highlight)
	require.Equal(t, 2, prims[3].Thickness)
	require.Equal(t, Color{R: 255}, prims[3].Color)

	// подсветка не переносится на следующий кадр
	res = process(t, p, det(7, 2, 660))
	require.False(t, res.Render.Highlight)
	require.Len(t, res.Render.Primitives, 2)
}

func TestLineFollowsFrameHeight(t *testing.T) {
	p := newTestProcessor(t, Config{ConfidenceThreshold: 0.1, LineRatio: 0.5})

	res, err := p.ProcessFrame(640, 480, []Detection{det(1, 2, 200)})
	require.NoError(t, err)
	require.Equal(t, 240, res.LineY)

	res, err = p.ProcessFrame(1280, 1000, []Detection{det(1, 2, 450)})
	require.NoError(t, err)
	require.Equal(t, 500, res.LineY)
	require.Empty(t, res.Crossings, "450 is above the new line at 500")
}

func TestTrailBoundedPerTrack(t *testing.T) {
	p := newTestProcessor(t, testConfig)

	for i := 0; i < 100; i++ {
		process(t, p, det(1, 2, float64(10+i)))
		track, _ := p.registry.Get(1)
		require.LessOrEqual(t, track.TrailLen(), TrailCapacity)
	}
}

func TestCountedAtMostOncePerTrack(t *testing.T) {
	p := newTestProcessor(t, testConfig)

	// объект многократно пересекает линию туда и обратно
	for i := 0; i < 20; i++ {
		y := 300.0
		if i%2 == 1 {
			y = 600
		}
		process(t, p, det(1, 2, y), det(2, 3, 900-y))
	}

	s := p.Snapshot()
	require.Equal(t, 2, s.Total)
	require.Equal(t, 1, s.ByClass[Car])
	require.Equal(t, 1, s.ByClass[Motorcycle])
}

func TestDeterministicSnapshots(t *testing.T) {
	frames := [][]Detection{
		{det(1, 2, 100), det(2, 3, 700), det(3, 5, 420)},
		{det(1, 2, 300), det(2, 3, 500), det(3, 5, 440)},
		{det(1, 2, 450), det(2, 3, 430), det(4, 7, 10)},
		{det(1, 2, 420), det(4, 7, 600)},
	}

	run := func() Snapshot {
		p := newTestProcessor(t, testConfig)
		for _, f := range frames {
			process(t, p, f...)
		}
		return p.Snapshot()
	}

	first := run()
	require.Equal(t, 4, first.Total)
	for i := 0; i < 5; i++ {
		require.Equal(t, first, run())
	}
}

func TestIdleTracksEvicted(t *testing.T) {
	p := newTestProcessor(t, Config{ConfidenceThreshold: 0.1, LineRatio: 0.6, MaxIdleFrames: 2})

	process(t, p, det(1, 2, 100), det(2, 2, 100))
	process(t, p, det(2, 2, 110))
	process(t, p, det(2, 2, 120))
	require.Equal(t, 2, p.Tracks())

	process(t, p, det(2, 2, 130))
	require.Equal(t, 1, p.Tracks())

	// вернувшийся идентификатор начинает историю заново
	res := process(t, p, det(1, 2, 650))
	require.Empty(t, res.Crossings)
	require.Equal(t, 2, p.Tracks())
}

func TestEvictedCountedTrackNotCountedAgain(t *testing.T) {
	p := newTestProcessor(t, Config{ConfidenceThreshold: 0.1, LineRatio: 0.6, MaxIdleFrames: 1})

	process(t, p, det(5, 2, 100))
	res := process(t, p, det(5, 2, 650))
	require.Len(t, res.Crossings, 1)

	process(t, p)
	process(t, p)
	require.Equal(t, 0, p.Tracks())

	process(t, p, det(5, 2, 650))
	res = process(t, p, det(5, 2, 100))
	require.Empty(t, res.Crossings)
	require.False(t, res.Render.Highlight)
	require.Equal(t, 1, res.Snapshot.Total)
	require.Equal(t, 1, res.Snapshot.ByClass[Car])
}
