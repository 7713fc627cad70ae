package counter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDidCross(t *testing.T) {
	const line = 432

	tests := []struct {
		name        string
		prev, curr  int
		wantCrossed bool
	}{
		{"downward", 100, 650, true},
		{"upward", 500, 400, true},
		{"lands on line from above", 431, 432, true},
		{"lands on line from below", 433, 432, true},
		{"leaves line downward", 432, 433, false},
		{"leaves line upward", 432, 431, false},
		{"stays on line", 432, 432, false},
		{"stays above", 50, 120, false},
		{"stays below", 500, 600, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantCrossed, DidCross(tt.prev, tt.curr, line))
		})
	}
}
