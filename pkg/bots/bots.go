// Package bots creates deterministic filler entrants for race grids.
package bots

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/mpapenbr/gridrace-service-manager-go/pkg/model"
	"github.com/mpapenbr/gridrace-service-manager-go/pkg/utils"
)

const (
	DefaultTarget = 6
	IDPrefix      = "bot_"
)

var names = []string{
	"Bot Alpha", "Bot Bravo", "Bot Charlie", "Bot Delta", "Bot Echo",
	"Bot Foxtrot", "Bot Golf", "Bot Hotel", "Bot India", "Bot Juliet",
	"Bot Kilo", "Bot Lima", "Bot Mike", "Bot November", "Bot Oscar",
	"Bot Papa", "Bot Quebec", "Bot Romeo", "Bot Sierra", "Bot Tango",
	"Bot Uniform", "Bot Victor", "Bot Whiskey", "Bot X-ray", "Bot Yankee",
	"Bot Zulu",
}

type bracket struct {
	name         string
	tierWeights  []float64 // standard, upgraded, performance
	minReadiness float64
	maxReadiness float64
}

var brackets = []bracket{
	{"weak", []float64{0.70, 0.25, 0.05}, 50, 85},
	{"mid", []float64{0.30, 0.50, 0.20}, 60, 95},
	{"strong", []float64{0.05, 0.45, 0.50}, 75, 100},
}

type (
	Option func(*config)
	config struct {
		enteredAt time.Time
	}
)

// WithEnteredAt sets the entry time of the generated bots (default: now)
func WithEnteredAt(t time.Time) Option {
	return func(c *config) {
		c.enteredAt = t
	}
}

// Entries returns the bots needed to fill a grid holding current entries up to target.
// The cars depend only on raceID and the bot index.
func Entries(raceID string, current, target int, opts ...Option) []model.RaceEntry {
	needed := target - current
	if needed <= 0 {
		return nil
	}
	cfg := &config{enteredAt: time.Now().UTC()}
	for _, opt := range opts {
		opt(cfg)
	}
	ret := make([]model.RaceEntry, 0, needed)
	for i := range needed {
		car := Car(raceID, i)
		ret = append(ret, model.RaceEntry{
			PlayerID:  fmt.Sprintf("%s%d", IDPrefix, i),
			Username:  names[i%len(names)],
			EnteredAt: cfg.enteredAt,
			LockedCar: &car,
		})
	}
	return ret
}

// Car generates the configuration of bot index for raceID.
// Brackets cycle weak, mid, strong by index.
func Car(raceID string, index int) model.Car {
	rng := utils.NewSeededRand(raceID+":bot", strconv.Itoa(index))
	b := brackets[index%len(brackets)]
	car := model.Car{}
	for _, s := range model.SlotNames {
		tier := pickTier(rng, b.tierWeights)
		readiness := utils.Round(utils.Uniform(rng, b.minReadiness, b.maxReadiness), 1)
		car.SetSlot(s, model.NewSlotPart(tier, readiness))
	}
	return car
}

func IsBot(playerID string) bool {
	return strings.HasPrefix(playerID, IDPrefix)
}

func pickTier(rng *rand.Rand, weights []float64) model.Tier {
	x := rng.Float64()
	acc := 0.0
	for i, w := range weights {
		acc += w
		if x < acc {
			return model.Tiers[i]
		}
	}
	return model.Tiers[len(model.Tiers)-1]
}
