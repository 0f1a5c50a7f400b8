package physics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/gridrace-service-manager-go/pkg/model"
	"github.com/mpapenbr/gridrace-service-manager-go/pkg/track"
)

func sampleTracks() []*model.Track {
	ret := []*model.Track{track.Oval(4), track.Oval(12), track.Oval(40)}
	for seed := int64(1); seed <= 10; seed++ {
		ret = append(ret, track.Generate(12+int(seed)*3, track.WithSeed(seed)))
	}
	return ret
}

func TestBuildSpeedProfile_BoundedByRawTarget(t *testing.T) {
	for _, tr := range sampleTracks() {
		profile := BuildSpeedProfile(tr)
		require.Len(t, profile, tr.Len())
		for i, v := range profile {
			assert.LessOrEqual(t, v, RawTarget(tr.Tiles[i].Type)+1e-9)
			assert.Greater(t, v, 0.0)
		}
	}
}

func TestBuildSpeedProfile_Consistent(t *testing.T) {
	const tol = 2 * SweepTolerance
	brakeReach := 2.0 * BrakeFPS2 * TileFeet
	accelReach := 2.0 * AccelFPS2 * TileFeet
	for _, tr := range sampleTracks() {
		profile := BuildSpeedProfile(tr)
		n := len(profile)
		for i := range n {
			next := profile[(i+1)%n]
			prev := profile[(i-1+n)%n]
			assert.LessOrEqual(t, profile[i], math.Sqrt(next*next+brakeReach)+tol,
				"braking constraint at tile %d", i)
			assert.LessOrEqual(t, profile[i], math.Sqrt(prev*prev+accelReach)+tol,
				"acceleration constraint at tile %d", i)
		}
	}
}

func TestBuildSpeedProfile_Pure(t *testing.T) {
	tr := track.Generate(20, track.WithSeed(7))
	before := *tr
	first := BuildSpeedProfile(tr)
	second := BuildSpeedProfile(tr)
	assert.Equal(t, first, second)
	assert.Equal(t, before, *tr)
}

func TestBuildSpeedProfile_CornerLimitsNeighbours(t *testing.T) {
	// the tile right after a corner can not be at top speed
	tr := track.Oval(20)
	profile := BuildSpeedProfile(tr)
	assert.InDelta(t, CornerSpeedFPS, profile[0], 1e-9)
	assert.Less(t, profile[1], TopSpeedFPS)
	assert.Greater(t, profile[1], CornerSpeedFPS)
}

func TestBuildSpeedProfile_Empty(t *testing.T) {
	assert.Nil(t, BuildSpeedProfile(&model.Track{}))
}

func TestRawTarget_Ordering(t *testing.T) {
	assert.Less(t, RawTarget(model.TileChicane), RawTarget(model.TileCurve))
	assert.Less(t, RawTarget(model.TileCurve), RawTarget(model.TileStraight))
}
