// Package schedule loads the repeating daily race timetable.
package schedule

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mpapenbr/gridrace-service-manager-go/pkg/model"
)

const (
	MinGridSize = 4
	MaxGridSize = 60
	timeLayout  = "15:04"
)

var (
	ErrInvalidSlot   = errors.New("invalid schedule slot")
	ErrEmptySchedule = errors.New("schedule has no slots")
)

// Load reads a timetable file. YAML and JSON are both accepted.
func Load(path string) (*model.Schedule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse decodes and normalizes a timetable
func Parse(data []byte) (*model.Schedule, error) {
	var s model.Schedule
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	if err := Normalize(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Normalize validates the slots, applies defaults and sorts the slots by time.
// Unknown event types are accepted, the simulation treats them neutrally.
func Normalize(s *model.Schedule) error {
	if len(s.Slots) == 0 {
		return ErrEmptySchedule
	}
	seen := make(map[string]bool, len(s.Slots))
	for i := range s.Slots {
		slot := &s.Slots[i]
		t, err := time.Parse(timeLayout, strings.TrimSpace(slot.Time))
		if err != nil {
			return fmt.Errorf("%w: slot %d: time %q", ErrInvalidSlot, i, slot.Time)
		}
		slot.Time = t.Format(timeLayout)
		if seen[slot.Time] {
			return fmt.Errorf("%w: slot %d: duplicate time %s", ErrInvalidSlot, i, slot.Time)
		}
		seen[slot.Time] = true
		if slot.EventType == "" {
			return fmt.Errorf("%w: slot %d: missing event type", ErrInvalidSlot, i)
		}
		if slot.LapCount <= 0 {
			slot.LapCount = model.DefaultLapCount
		}
		if slot.GridSize == 0 {
			slot.GridSize = model.DefaultGridSize
		}
		slot.GridSize = min(MaxGridSize, max(MinGridSize, slot.GridSize))
	}
	slices.SortFunc(s.Slots, func(a, b model.ScheduleSlot) int {
		return strings.Compare(a.Time, b.Time)
	})
	return nil
}

// At returns the start time of slot on the (UTC) day of day
func At(slot model.ScheduleSlot, day time.Time) (time.Time, error) {
	t, err := time.Parse(timeLayout, slot.Time)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: time %q", ErrInvalidSlot, slot.Time)
	}
	y, m, d := day.UTC().Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, time.UTC), nil
}

// Default returns a race every 10 minutes, cycling through the event types
func Default() *model.Schedule {
	const interval = 10 * time.Minute
	n := int(24 * time.Hour / interval)
	slots := make([]model.ScheduleSlot, n)
	for i := range n {
		offset := time.Duration(i) * interval
		slots[i] = model.ScheduleSlot{
			Time: fmt.Sprintf("%02d:%02d",
				int(offset.Hours()), int(offset.Minutes())%60),
			EventType: model.EventTypes[i%len(model.EventTypes)],
			LapCount:  model.DefaultLapCount,
			GridSize:  model.DefaultGridSize,
		}
	}
	return &model.Schedule{Slots: slots}
}
