package track

import "github.com/mpapenbr/gridrace-service-manager-go/pkg/model"

// compass label of a movement direction, y grows towards south
var compass = map[model.Pos]string{
	{1, 0}:  "E",
	{-1, 0}: "W",
	{0, 1}:  "S",
	{0, -1}: "N",
}

var curves = map[[2]string]model.Orientation{
	{"N", "E"}: model.NorthEast,
	{"N", "W"}: model.NorthWest,
	{"S", "E"}: model.SouthEast,
	{"S", "W"}: model.SouthWest,
}

// Classify derives tile type and orientation from the arrival and departure direction.
// A direction pair which is neither equal nor perpendicular yields a horizontal straight.
func Classify(arrival, departure model.Pos) (model.TileType, model.Orientation) {
	if arrival == departure {
		if arrival[0] != 0 {
			return model.TileStraight, model.Horizontal
		}
		return model.TileStraight, model.Vertical
	}
	from, okFrom := compass[arrival]
	to, okTo := compass[departure]
	if okFrom && okTo {
		if o, ok := curves[[2]string{from, to}]; ok {
			return model.TileCurve, o
		}
		if o, ok := curves[[2]string{to, from}]; ok {
			return model.TileCurve, o
		}
	}
	return model.TileStraight, model.Horizontal
}
