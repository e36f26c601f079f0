package controller

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLine(t *testing.T) {
	tests := []struct {
		name           string
		x0, y0, x1, y1 int
		want           []Point
	}{
		{"single point", 2, 2, 2, 2, []Point{{2, 2}}},
		{"vertical", 0, 0, 0, 3, []Point{{0, 0}, {0, 1}, {0, 2}, {0, 3}}},
		{"horizontal backwards", 3, 1, 0, 1, []Point{{3, 1}, {2, 1}, {1, 1}, {0, 1}}},
		{"diagonal", 0, 0, 2, 2, []Point{{0, 0}, {1, 1}, {2, 2}}},
		{"shallow", 0, 0, 4, 2, []Point{{0, 0}, {1, 0}, {2, 1}, {3, 1}, {4, 2}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Line(tt.x0, tt.y0, tt.x1, tt.y1))
		})
	}
}
