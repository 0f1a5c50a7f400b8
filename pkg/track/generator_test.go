package track

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/gridrace-service-manager-go/pkg/model"
)

func TestGenerate_SameSeedSameTrack(t *testing.T) {
	first := Generate(12, WithSeed(42))
	second := Generate(12, WithSeed(42))

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("Generate() mismatch (-first +second):\n%s", diff)
	}
	require.NoError(t, Validate(first))
	assert.GreaterOrEqual(t, first.Len(), 24)
	assert.Equal(t, 12, first.GridWidth)
	assert.Equal(t, 12, first.GridHeight)
}

func TestGenerate_AlwaysValid(t *testing.T) {
	for n := MinGridSize; n <= 30; n++ {
		for seed := int64(0); seed < 20; seed++ {
			tr := Generate(n, WithSeed(seed))
			if err := Validate(tr); err != nil {
				t.Fatalf("n=%d seed=%d: %v", n, seed, err)
			}
			oval := Oval(n)
			if cmp.Equal(tr, oval) {
				continue
			}
			if tr.Len() < MinLength(n) {
				t.Errorf("n=%d seed=%d: walk length %d below minimum %d",
					n, seed, tr.Len(), MinLength(n))
			}
			assert.Equal(t, model.Pos{0, 0}, tr.PathOrder[0])
		}
	}
}

func TestGenerate_SmallGridIsRaised(t *testing.T) {
	tr := Generate(2, WithSeed(1))
	require.NoError(t, Validate(tr))
	assert.Equal(t, MinGridSize, tr.GridWidth)
}

func TestOval(t *testing.T) {
	tests := []struct {
		name    string
		n       int
		wantLen int
	}{
		{name: "smallest", n: 4, wantLen: 4},
		{name: "default grid", n: 12, wantLen: 36},
		{name: "large grid", n: 60, wantLen: 228},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := Oval(tt.n)
			require.NoError(t, Validate(tr))
			assert.Equal(t, tt.wantLen, tr.Len())
			for _, p := range tr.PathOrder {
				assert.True(t, p.X() >= 1 && p.X() <= tt.n-2, "x inset %v", p)
				assert.True(t, p.Y() >= 1 && p.Y() <= tt.n-2, "y inset %v", p)
			}
			assert.Equal(t, model.TileCurve, tr.Tiles[0].Type)
			// arrives moving north, leaves moving east
			assert.Equal(t, model.NorthEast, tr.Tiles[0].Orientation)
		})
	}
}

func TestClassify(t *testing.T) {
	east, west := model.Pos{1, 0}, model.Pos{-1, 0}
	north, south := model.Pos{0, -1}, model.Pos{0, 1}
	tests := []struct {
		name       string
		arrival    model.Pos
		departure  model.Pos
		wantType   model.TileType
		wantOrient model.Orientation
	}{
		{"straight east", east, east, model.TileStraight, model.Horizontal},
		{"straight south", south, south, model.TileStraight, model.Vertical},
		{"east then south", east, south, model.TileCurve, model.SouthEast},
		{"north then east", north, east, model.TileCurve, model.NorthEast},
		{"west then north", west, north, model.TileCurve, model.NorthWest},
		{"south then west", south, west, model.TileCurve, model.SouthWest},
		{"reversal falls back", east, west, model.TileStraight, model.Horizontal},
		{"diagonal falls back", model.Pos{1, 1}, east, model.TileStraight, model.Horizontal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotType, gotOrient := Classify(tt.arrival, tt.departure)
			assert.Equal(t, tt.wantType, gotType)
			assert.Equal(t, tt.wantOrient, gotOrient)
		})
	}
}

func TestValidate_Rejects(t *testing.T) {
	valid := Oval(6)
	revisit := Oval(6)
	revisit.PathOrder[2] = revisit.PathOrder[1]
	revisit.Tiles[2].X, revisit.Tiles[2].Y = revisit.PathOrder[1].X(), revisit.PathOrder[1].Y()
	gap := Oval(6)
	gap.PathOrder = gap.PathOrder[:len(gap.PathOrder)-1]
	gap.Tiles = gap.Tiles[:len(gap.Tiles)-1]

	assert.NoError(t, Validate(valid))
	assert.ErrorIs(t, Validate(nil), ErrEmptyTrack)
	assert.ErrorIs(t, Validate(revisit), ErrRevisit)
	assert.ErrorIs(t, Validate(gap), ErrNotAdjacent)
}

func TestRender(t *testing.T) {
	out := Render(Oval(4))
	assert.Equal(t, "····\n·S┐·\n·└┘·\n····\n", out)
}
