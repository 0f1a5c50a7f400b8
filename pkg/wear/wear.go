// Package wear applies post-race readiness loss and finishing rewards.
package wear

import (
	"github.com/mpapenbr/gridrace-service-manager-go/pkg/model"
	"github.com/mpapenbr/gridrace-service-manager-go/pkg/utils"
)

const (
	BasePercent      = 15.0
	StressMultiplier = 1.5
)

// Apply returns a copy of car with the wear of a race of eventType applied.
// Tiers are kept, readiness is floored at 0 and rounded to one decimal.
func Apply(car model.Car, eventType string) model.Car {
	ret := car
	multiplier := model.WearMultiplier(eventType)
	for _, s := range model.SlotNames {
		part := car.Slot(s)
		loss := BasePercent * multiplier
		if model.IsStressed(eventType, s) {
			loss *= StressMultiplier
		}
		ret.SetSlot(s, model.SlotPart{
			Tier:      part.Tier,
			Readiness: utils.Round(max(0, part.Readiness-loss), 1),
		})
	}
	return ret
}
