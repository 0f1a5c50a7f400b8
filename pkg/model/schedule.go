package model

// ScheduleSlot is a race slot of the repeating daily timetable
type ScheduleSlot struct {
	Time      string `json:"time" yaml:"time"` // HH:MM (UTC)
	EventType string `json:"eventType" yaml:"eventType"`
	LapCount  int    `json:"lapCount" yaml:"lapCount"`
	GridSize  int    `json:"gridSize" yaml:"gridSize"`
}

type Schedule struct {
	Slots []ScheduleSlot `json:"slots" yaml:"slots"`
}
