package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReferencePoint(t *testing.T) {
	c := NewCalculator()

	assert.Equal(t, Point{X: 150, Y: 400}, c.ReferencePoint(Box{X1: 100, Y1: 300, X2: 200, Y2: 400}))
	// дробная часть отбрасывается
	assert.Equal(t, Point{X: 15, Y: 99}, c.ReferencePoint(Box{X1: 10, Y1: 20, X2: 21, Y2: 99.9}))
}

func TestLineY(t *testing.T) {
	c := NewCalculator()

	assert.Equal(t, 432, c.LineY(720, 0.6))
	assert.Equal(t, 0, c.LineY(720, 0))
	assert.Equal(t, 720, c.LineY(720, 1))
	assert.Equal(t, 539, c.LineY(1079, 0.5))
}

func TestIsValidBox(t *testing.T) {
	c := NewCalculator()

	tests := []struct {
		name string
		box  Box
		want bool
	}{
		{"normal", Box{X1: 1, Y1: 2, X2: 3, Y2: 4}, true},
		{"inverted x", Box{X1: 3, Y1: 2, X2: 1, Y2: 4}, false},
		{"inverted y", Box{X1: 1, Y1: 4, X2: 3, Y2: 2}, false},
		{"zero width", Box{X1: 1, Y1: 2, X2: 1, Y2: 4}, false},
		{"zero height", Box{X1: 1, Y1: 2, X2: 3, Y2: 2}, false},
		{"nan", Box{X1: math.NaN(), Y1: 2, X2: 3, Y2: 4}, false},
		{"inf", Box{X1: 1, Y1: 2, X2: 3, Y2: math.Inf(1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.IsValidBox(tt.box))
		})
	}
}

func TestCorners(t *testing.T) {
	tl, br := NewCalculator().Corners(Box{X1: 10.7, Y1: 20.2, X2: 30.9, Y2: 40.1})
	assert.Equal(t, Point{X: 10, Y: 20}, tl)
	assert.Equal(t, Point{X: 30, Y: 40}, br)
}
