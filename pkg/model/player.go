package model

const (
	StartingCredits   = 5000
	StartingMaterials = 10
)

// Player holds the persistent equipment record of a participant
type Player struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	Credits      int    `json:"credits"`
	Materials    int    `json:"materials"`
	RacesEntered int    `json:"racesEntered"`
	Car          Car    `json:"car"`
}
