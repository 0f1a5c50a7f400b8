package track

import (
	"strings"

	"github.com/mpapenbr/gridrace-service-manager-go/pkg/model"
)

const (
	north = 1 << iota
	south
	east
	west
)

var glyphs = map[int]rune{
	north | south: '│',
	east | west:   '─',
	south | east:  '┌',
	south | west:  '┐',
	north | east:  '└',
	north | west:  '┘',
}

// Render draws the track as text, one line per grid row. The start cell is marked with S.
func Render(t *model.Track) string {
	if t == nil || t.GridWidth == 0 {
		return ""
	}
	rows := make([][]rune, t.GridHeight)
	for y := range rows {
		rows[y] = []rune(strings.Repeat("·", t.GridWidth))
	}
	m := len(t.PathOrder)
	for i, p := range t.PathOrder {
		g := glyphs[link(p, t.PathOrder[(i-1+m)%m])|link(p, t.PathOrder[(i+1)%m])]
		switch {
		case i == 0:
			g = 'S'
		case t.Tiles[i].Type == model.TileChicane:
			g = '~'
		case g == 0:
			g = '?'
		}
		rows[p.Y()][p.X()] = g
	}
	var sb strings.Builder
	for _, r := range rows {
		sb.WriteString(string(r))
		sb.WriteByte('\n')
	}
	return sb.String()
}

func link(from, to model.Pos) int {
	switch {
	case to[1] < from[1]:
		return north
	case to[1] > from[1]:
		return south
	case to[0] > from[0]:
		return east
	case to[0] < from[0]:
		return west
	}
	return 0
}
