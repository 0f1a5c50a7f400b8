package track

import (
	"bytes"
	"encoding/json"
	"testing"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/mpapenbr/gridrace-service-manager-go/pkg/model"
)

func TestShowTrack_Text(t *testing.T) {
	buf := bytes.Buffer{}
	err := showTrack(&buf, &trackOptions{grid: 6, seed: 7, profile: true})
	assert.NilError(t, err)
	assert.Assert(t, is.Contains(buf.String(), "grid 6x6"))
	assert.Assert(t, is.Contains(buf.String(), "speed (ft/s)"))
}

func TestShowTrack_JSONByRace(t *testing.T) {
	render := func() []byte {
		buf := bytes.Buffer{}
		err := showTrack(&buf, &trackOptions{
			grid:    8,
			raceID:  "2026-10-16_10:00",
			asJSON:  true,
			profile: true,
		})
		assert.NilError(t, err)
		return buf.Bytes()
	}
	first := render()
	assert.DeepEqual(t, first, render())

	var got struct {
		model.Track
		SpeedProfile []float64 `json:"speedProfile"`
	}
	assert.NilError(t, json.Unmarshal(first, &got))
	assert.Equal(t, got.GridWidth, 8)
	assert.Equal(t, len(got.SpeedProfile), got.Len())
}
