package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound(t *testing.T) {
	tests := []struct {
		name   string
		v      float64
		places int32
		want   float64
	}{
		{"two places", 12.3456, 2, 12.35},
		{"half up", 0.285, 2, 0.29},
		{"negative", -7.125, 2, -7.13},
		{"one place", 84.96, 1, 85.0},
		{"integer", 75.5, 0, 76},
		{"four places", 0.123449, 4, 0.1234},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Round(tt.v, tt.places))
		})
	}
}
