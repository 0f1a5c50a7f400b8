package model

import "encoding/json"

type Tier string

const (
	TierStandard    Tier = "standard"
	TierUpgraded    Tier = "upgraded"
	TierPerformance Tier = "performance"
)

var Tiers = []Tier{TierStandard, TierUpgraded, TierPerformance}

// Score is the numeric quality of a tier used by the simulation.
// Unknown tiers are treated as standard.
func (t Tier) Score() int {
	switch t {
	case TierUpgraded:
		return 70
	case TierPerformance:
		return 100
	default:
		return 40
	}
}

const (
	SlotEngine      = "engine"
	SlotTires       = "tires"
	SlotSuspension  = "suspension"
	SlotAero        = "aero"
	SlotFuel        = "fuel"
	SlotElectronics = "electronics"
)

// SlotNames holds the slots in their canonical order.
// Every iteration over a car's slots uses this order.
var SlotNames = []string{
	SlotEngine, SlotTires, SlotSuspension, SlotAero, SlotFuel, SlotElectronics,
}

type SlotPart struct {
	Tier      Tier    `json:"tier"`
	Readiness float64 `json:"readiness"`
}

func NewSlotPart(tier Tier, readiness float64) SlotPart {
	return SlotPart{Tier: tier, Readiness: ClampReadiness(readiness)}
}

// UnmarshalJSON clamps the readiness of stored or received parts
func (p *SlotPart) UnmarshalJSON(data []byte) error {
	type plain SlotPart
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*p = NewSlotPart(v.Tier, v.Readiness)
	return nil
}

func ClampReadiness(r float64) float64 {
	switch {
	case r < 0:
		return 0
	case r > 100:
		return 100
	default:
		return r
	}
}

// Car is the vehicle configuration of an entrant
type Car struct {
	Engine      SlotPart `json:"engine"`
	Tires       SlotPart `json:"tires"`
	Suspension  SlotPart `json:"suspension"`
	Aero        SlotPart `json:"aero"`
	Fuel        SlotPart `json:"fuel"`
	Electronics SlotPart `json:"electronics"`
}

// DefaultCar is the configuration a new player starts with
func DefaultCar() Car {
	c := Car{}
	for _, s := range SlotNames {
		c.SetSlot(s, NewSlotPart(TierStandard, 100))
	}
	return c
}

// Clamped returns a copy with all readiness values clamped
func (c Car) Clamped() Car {
	for _, s := range SlotNames {
		c.SetSlot(s, c.Slot(s))
	}
	return c
}

func (c *Car) Slot(name string) SlotPart {
	if p := c.slotRef(name); p != nil {
		return *p
	}
	return SlotPart{}
}

// SetSlot replaces the part in slot name. Readiness is clamped, unknown names are ignored.
func (c *Car) SetSlot(name string, part SlotPart) {
	if p := c.slotRef(name); p != nil {
		*p = NewSlotPart(part.Tier, part.Readiness)
	}
}

func (c *Car) slotRef(name string) *SlotPart {
	switch name {
	case SlotEngine:
		return &c.Engine
	case SlotTires:
		return &c.Tires
	case SlotSuspension:
		return &c.Suspension
	case SlotAero:
		return &c.Aero
	case SlotFuel:
		return &c.Fuel
	case SlotElectronics:
		return &c.Electronics
	}
	return nil
}
