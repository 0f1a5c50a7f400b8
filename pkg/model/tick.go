package model

const (
	IncidentDNFStart = "dnf_start"
	IncidentDNF      = "dnf"
)

type CarTick struct {
	CarID    string  `json:"carId"`
	Username string  `json:"username"`
	Progress float64 `json:"progress"`
	Speed    float64 `json:"speed"` // mph
	Incident string  `json:"incident,omitempty"`
}

type Tick struct {
	Tick     int       `json:"tick"`
	LapCount int       `json:"lapCount"`
	Cars     []CarTick `json:"cars"`
}
