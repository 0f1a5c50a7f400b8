package model

import "time"

type RaceStatus string

const (
	StatusUpcoming RaceStatus = "upcoming"
	StatusOpen     RaceStatus = "open"
	StatusLocked   RaceStatus = "locked"
	StatusRunning  RaceStatus = "running"
	StatusFinished RaceStatus = "finished"
)

const (
	DefaultLapCount = 25
	DefaultGridSize = 12
	DefaultEntryFee = 100
)

type RaceEntry struct {
	PlayerID  string    `json:"playerId"`
	Username  string    `json:"username"`
	EnteredAt time.Time `json:"enteredAt"`
	// LockedCar is set by the lock transition only
	LockedCar *Car `json:"lockedCar,omitempty"`
}

type SlotResult struct {
	Tier             Tier    `json:"tier"`
	Readiness        float64 `json:"readiness"`
	TierScore        int     `json:"tierScore"`
	EventWeight      float64 `json:"eventWeight"`
	WeightedScore    float64 `json:"weightedScore"`
	ReadinessPenalty float64 `json:"readinessPenalty"`
}

// EntryResult is the simulation outcome of a single entrant
type EntryResult struct {
	PlayerID               string                `json:"playerId"`
	Username               string                `json:"username"`
	Position               int                   `json:"position"`
	ResultScore            float64               `json:"resultScore"`
	BuildQuality           float64               `json:"buildQuality"`
	EventFit               float64               `json:"eventFit"`
	ReadinessScore         float64               `json:"readinessScore"`
	LuckDelta              float64               `json:"luckDelta"`
	CounterfactualPosition int                   `json:"counterfactualPosition"`
	PerSlot                map[string]SlotResult `json:"perSlot"`
	LuckTag                string                `json:"luckTag"`
	DNF                    bool                  `json:"dnf"`
	DNFSlot                string                `json:"dnfSlot,omitempty"`
}

type Race struct {
	ID            string        `json:"id"` // YYYY-MM-DD_HH:MM
	ScheduledTime time.Time     `json:"scheduledTime"`
	EventType     string        `json:"eventType"`
	Status        RaceStatus    `json:"status"`
	EntryFee      int           `json:"entryFee"`
	LapCount      int           `json:"lapCount"`
	GridSize      int           `json:"gridSize"`
	Track         *Track        `json:"track,omitempty"`
	Entries       []RaceEntry   `json:"entries"`
	Results       []EntryResult `json:"results"`
}

// RaceID builds the id of the race scheduled at t (UTC)
func RaceID(t time.Time) string {
	return t.UTC().Format("2006-01-02_15:04")
}
