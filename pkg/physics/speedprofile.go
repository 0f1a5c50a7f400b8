package physics

import (
	"math"

	"github.com/mpapenbr/gridrace-service-manager-go/pkg/model"
)

const (
	MaxSweeps      = 10
	SweepTolerance = 0.01 // ft/s
)

// RawTarget is the unconstrained speed (ft/s) for a tile type
func RawTarget(t model.TileType) float64 {
	switch t {
	case model.TileChicane:
		return ChicaneSpeedFPS
	case model.TileCurve:
		return CornerSpeedFPS
	default:
		return TopSpeedFPS
	}
}

// BuildSpeedProfile computes the max speed (ft/s) per tile in path order.
// The raw targets are reduced until every tile can brake down to its successor
// and accelerate from its predecessor within one tile length. The track is a loop,
// so tile 0 follows the last tile.
func BuildSpeedProfile(track *model.Track) []float64 {
	n := track.Len()
	if n == 0 {
		return nil
	}
	speed := make([]float64, n)
	for i := range speed {
		tt := model.TileStraight
		if i < len(track.Tiles) {
			tt = track.Tiles[i].Type
		}
		speed[i] = RawTarget(tt)
	}

	brakeReach := 2.0 * BrakeFPS2 * TileFeet
	accelReach := 2.0 * AccelFPS2 * TileFeet
	for range MaxSweeps {
		changed := false
		// braking: walk backwards so a slow tile propagates to its predecessors
		for i := n - 1; i >= 0; i-- {
			next := speed[(i+1)%n]
			if limit := math.Sqrt(next*next + brakeReach); speed[i] > limit+SweepTolerance {
				speed[i] = limit
				changed = true
			}
		}
		// acceleration
		for i := range n {
			prev := speed[(i-1+n)%n]
			if limit := math.Sqrt(prev*prev + accelReach); speed[i] > limit+SweepTolerance {
				speed[i] = limit
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	return speed
}
