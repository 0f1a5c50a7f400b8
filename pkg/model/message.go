package model

type MessageType string

const (
	MTStatus   MessageType = "status"
	MTTick     MessageType = "tick"
	MTFinished MessageType = "finished"
)

// RaceMessage is sent to the spectators of a race.
// Tick fields are inlined for tick messages.
type RaceMessage struct {
	Type   MessageType `json:"type"`
	Status RaceStatus  `json:"status,omitempty"`
	*Tick
	Results []EntryResult `json:"results,omitempty"`
}

func StatusMessage(status RaceStatus) *RaceMessage {
	return &RaceMessage{Type: MTStatus, Status: status}
}

func TickMessage(t *Tick) *RaceMessage {
	return &RaceMessage{Type: MTTick, Tick: t}
}

func FinishedMessage(results []EntryResult) *RaceMessage {
	return &RaceMessage{Type: MTFinished, Results: results}
}
