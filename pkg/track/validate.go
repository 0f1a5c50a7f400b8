package track

import (
	"errors"
	"fmt"

	"github.com/mpapenbr/gridrace-service-manager-go/pkg/model"
)

var (
	ErrEmptyTrack    = errors.New("track has no tiles")
	ErrTileMismatch  = errors.New("tiles do not match path order")
	ErrOutOfGrid     = errors.New("cell outside of grid")
	ErrRevisit       = errors.New("cell visited twice")
	ErrNotAdjacent   = errors.New("consecutive cells are not adjacent")
	ErrLoopTooShort  = errors.New("loop too short")
	ErrNotSquareGrid = errors.New("grid is not square")
)

// Validate checks the track is a simple closed cycle of grid adjacent cells.
func Validate(t *model.Track) error {
	if t == nil || len(t.PathOrder) == 0 {
		return ErrEmptyTrack
	}
	if t.GridWidth != t.GridHeight {
		return ErrNotSquareGrid
	}
	if len(t.Tiles) != len(t.PathOrder) {
		return ErrTileMismatch
	}
	if len(t.PathOrder) < 4 {
		return fmt.Errorf("%w: %d cells", ErrLoopTooShort, len(t.PathOrder))
	}
	n := t.GridWidth
	seen := make(map[model.Pos]bool, len(t.PathOrder))
	for i, p := range t.PathOrder {
		if !inGrid(p, n) {
			return fmt.Errorf("%w: %v", ErrOutOfGrid, p)
		}
		if seen[p] {
			return fmt.Errorf("%w: %v", ErrRevisit, p)
		}
		seen[p] = true
		if t.Tiles[i].X != p.X() || t.Tiles[i].Y != p.Y() {
			return fmt.Errorf("%w: index %d", ErrTileMismatch, i)
		}
		next := t.PathOrder[(i+1)%len(t.PathOrder)]
		if !adjacent(p, next) {
			return fmt.Errorf("%w: %v -> %v", ErrNotAdjacent, p, next)
		}
	}
	return nil
}

func adjacent(a, b model.Pos) bool {
	dx, dy := a[0]-b[0], a[1]-b[1]
	return dx*dx+dy*dy == 1
}
