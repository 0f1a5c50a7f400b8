package model

type TileType string

const (
	TileStraight TileType = "straight"
	TileCurve    TileType = "curve"
	TileChicane  TileType = "chicane"
)

type Orientation string

const (
	Horizontal Orientation = "horizontal"
	Vertical   Orientation = "vertical"
	NorthEast  Orientation = "NE"
	NorthWest  Orientation = "NW"
	SouthEast  Orientation = "SE"
	SouthWest  Orientation = "SW"
)

// Pos is a grid cell, serialized as [x,y]
type Pos [2]int

func (p Pos) X() int { return p[0] }
func (p Pos) Y() int { return p[1] }

type Tile struct {
	X           int         `json:"x"`
	Y           int         `json:"y"`
	Type        TileType    `json:"type"`
	Orientation Orientation `json:"orientation"`
}

// Track is a closed loop on a GridWidth x GridHeight grid.
// PathOrder and Tiles share the same index, the last cell connects to the first one.
type Track struct {
	GridWidth  int    `json:"gridWidth"`
	GridHeight int    `json:"gridHeight"`
	Tiles      []Tile `json:"tiles"`
	PathOrder  []Pos  `json:"pathOrder"`
}

func (t *Track) Len() int {
	if t == nil {
		return 0
	}
	return len(t.PathOrder)
}
