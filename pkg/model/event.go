package model

import "github.com/samber/lo"

const (
	EventSprint      = "sprint"
	EventEndurance   = "endurance"
	EventTimeTrial   = "time_trial"
	EventWetTrack    = "wet_track"
	EventNightRace   = "night_race"
	EventAltitude    = "altitude"
	EventSpecClass   = "spec_class"
	EventWeightLimit = "weight_limit"
)

var EventTypes = []string{
	EventSprint, EventEndurance, EventTimeTrial, EventWetTrack,
	EventNightRace, EventAltitude, EventSpecClass, EventWeightLimit,
}

// WeightLimit is the maximum summed weight units for weight_limit events
const WeightLimit = 70

//nolint:lll // readability
var (
	eventSlotWeights = map[string]map[string]float64{
		EventSprint:      {SlotEngine: 1.5, SlotTires: 1.0, SlotSuspension: 1.0, SlotAero: 1.0, SlotFuel: 1.0, SlotElectronics: 1.0},
		EventEndurance:   {SlotEngine: 1.0, SlotTires: 1.4, SlotSuspension: 1.0, SlotAero: 1.0, SlotFuel: 1.4, SlotElectronics: 1.0},
		EventTimeTrial:   {SlotEngine: 1.0, SlotTires: 1.0, SlotSuspension: 1.0, SlotAero: 1.0, SlotFuel: 1.0, SlotElectronics: 1.0},
		EventWetTrack:    {SlotEngine: 1.0, SlotTires: 1.5, SlotSuspension: 1.3, SlotAero: 1.0, SlotFuel: 1.0, SlotElectronics: 1.0},
		EventNightRace:   {SlotEngine: 1.0, SlotTires: 1.0, SlotSuspension: 1.0, SlotAero: 1.0, SlotFuel: 1.0, SlotElectronics: 1.5},
		EventAltitude:    {SlotEngine: 0.8, SlotTires: 1.0, SlotSuspension: 1.4, SlotAero: 1.3, SlotFuel: 1.0, SlotElectronics: 1.0},
		EventSpecClass:   {SlotEngine: 1.0, SlotTires: 1.0, SlotSuspension: 1.0, SlotAero: 1.0, SlotFuel: 1.0, SlotElectronics: 1.4},
		EventWeightLimit: {SlotEngine: 1.0, SlotTires: 1.0, SlotSuspension: 1.0, SlotAero: 1.0, SlotFuel: 1.0, SlotElectronics: 1.0},
	}

	slotWeightUnits = map[string]map[Tier]int{
		SlotEngine:      {TierStandard: 10, TierUpgraded: 14, TierPerformance: 18},
		SlotTires:       {TierStandard: 8, TierUpgraded: 10, TierPerformance: 13},
		SlotSuspension:  {TierStandard: 6, TierUpgraded: 8, TierPerformance: 11},
		SlotAero:        {TierStandard: 5, TierUpgraded: 7, TierPerformance: 10},
		SlotFuel:        {TierStandard: 9, TierUpgraded: 11, TierPerformance: 15},
		SlotElectronics: {TierStandard: 4, TierUpgraded: 6, TierPerformance: 9},
	}

	wearMultipliers = map[string]float64{
		EventSprint:      1.0,
		EventEndurance:   1.8,
		EventTimeTrial:   0.8,
		EventWetTrack:    1.2,
		EventNightRace:   1.0,
		EventAltitude:    1.1,
		EventSpecClass:   1.0,
		EventWeightLimit: 1.0,
	}

	stressedSlots = map[string][]string{
		EventSprint:      {SlotEngine},
		EventEndurance:   {SlotFuel, SlotTires},
		EventTimeTrial:   {},
		EventWetTrack:    {SlotTires, SlotSuspension},
		EventNightRace:   {SlotElectronics},
		EventAltitude:    {SlotSuspension, SlotAero},
		EventSpecClass:   {SlotElectronics},
		EventWeightLimit: {SlotAero, SlotFuel},
	}
)

func IsKnownEvent(eventType string) bool {
	_, ok := eventSlotWeights[eventType]
	return ok
}

// SlotWeight returns the event fit weight of a slot. Unknown events weigh all slots 1.0
func SlotWeight(eventType, slot string) float64 {
	if w, ok := eventSlotWeights[eventType]; ok {
		return w[slot]
	}
	return 1.0
}

func WeightUnits(slot string, tier Tier) int {
	units, ok := slotWeightUnits[slot]
	if !ok {
		return 0
	}
	if v, ok := units[tier]; ok {
		return v
	}
	return units[TierStandard]
}

func WearMultiplier(eventType string) float64 {
	if m, ok := wearMultipliers[eventType]; ok {
		return m
	}
	return 1.0
}

func IsStressed(eventType, slot string) bool {
	return lo.Contains(stressedSlots[eventType], slot)
}
