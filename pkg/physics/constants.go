// Package physics holds the vehicle dynamics shared by track construction and
// the tick stream.
package physics

const (
	TileFeet        = 30.0
	TopSpeedMPH     = 120.0
	CornerSpeedMPH  = 60.0
	ChicaneSpeedMPH = 45.0
	AccelG          = 0.5
	BrakeG          = 1.0
	FtPerSecPerG    = 32.174
	MPHToFPS        = 5280.0 / 3600.0

	TopSpeedFPS     = TopSpeedMPH * MPHToFPS
	CornerSpeedFPS  = CornerSpeedMPH * MPHToFPS
	ChicaneSpeedFPS = ChicaneSpeedMPH * MPHToFPS
	AccelFPS2       = AccelG * FtPerSecPerG
	BrakeFPS2       = BrakeG * FtPerSecPerG
)
