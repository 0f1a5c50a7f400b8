// Package simulation computes the deterministic outcome of a race.
package simulation

import (
	"cmp"
	"math/rand/v2"
	"slices"

	"github.com/samber/lo"

	"github.com/mpapenbr/gridrace-service-manager-go/log"
	"github.com/mpapenbr/gridrace-service-manager-go/pkg/model"
	"github.com/mpapenbr/gridrace-service-manager-go/pkg/utils"
)

const (
	DNFReadinessThreshold = 20.0
	DNFChance             = 0.10
	ReadinessThreshold    = 50.0

	fitWeight       = 0.35
	readinessWeight = 0.25
)

type (
	Option func(*config)
	config struct {
		log *log.Logger
	}
)

func WithLogger(l *log.Logger) Option {
	return func(c *config) {
		c.log = l
	}
}

// outcome holds the unrounded values of an entrant until the ranking is done
type outcome struct {
	entry        *model.RaceEntry
	score        float64
	neutralScore float64
	buildQuality float64
	eventFit     float64
	readiness    float64
	luck         float64
	luckTag      string
	perSlot      map[string]model.SlotResult
	dnf          bool
	dnfSlot      string
}

// Simulate computes the ranked results for the entries of a race.
// The result depends only on raceID, the entries and eventType.
// Entries without a locked car are skipped.
//
//nolint:whitespace // can't make both editor and linter happy
func Simulate(
	raceID string,
	entries []model.RaceEntry,
	eventType string,
	opts ...Option,
) []model.EntryResult {
	cfg := &config{log: log.Default().Named("simulation")}
	for _, opt := range opts {
		opt(cfg)
	}

	isTimeTrial := eventType == model.EventTimeTrial
	luckRange := 15.0
	bqWeight := 0.40
	if isTimeTrial {
		luckRange = 5.0
		bqWeight = 0.50
	}

	outcomes := make([]*outcome, 0, len(entries))
	for i := range entries {
		entry := &entries[i]
		if entry.LockedCar == nil {
			cfg.log.Debug("skipping entry without locked car",
				log.String("race", raceID),
				log.String("player", entry.PlayerID))
			continue
		}
		car := entry.LockedCar
		rng := utils.NewSeededRand(raceID, entry.PlayerID)

		o := &outcome{entry: entry}
		o.dnf, o.dnfSlot = checkDNF(car, rng)
		o.buildQuality = buildQuality(car)
		o.eventFit, o.perSlot = eventFit(car, eventType)
		o.readiness = readinessScore(car, o.perSlot)
		o.luck = utils.Uniform(rng, -luckRange, luckRange)
		o.luckTag = luckTag(o.luck, rng)

		if !o.dnf {
			o.neutralScore = o.buildQuality*bqWeight +
				o.eventFit*fitWeight +
				o.readiness*readinessWeight
			o.score = clamp(o.neutralScore+o.luck, 0, 100)
		}
		outcomes = append(outcomes, o)
	}

	counterfactual := make(map[*outcome]int, len(outcomes))
	for i, o := range rank(outcomes, func(o *outcome) float64 { return o.neutralScore }) {
		counterfactual[o] = i + 1
	}
	ranked := rank(outcomes, func(o *outcome) float64 { return o.score })

	return lo.Map(ranked, func(o *outcome, idx int) model.EntryResult {
		return model.EntryResult{
			PlayerID:               o.entry.PlayerID,
			Username:               o.entry.Username,
			Position:               idx + 1,
			ResultScore:            utils.Round(o.score, 2),
			BuildQuality:           utils.Round(o.buildQuality, 2),
			EventFit:               utils.Round(o.eventFit, 2),
			ReadinessScore:         utils.Round(o.readiness, 2),
			LuckDelta:              utils.Round(o.luck, 2),
			CounterfactualPosition: counterfactual[o],
			PerSlot:                o.perSlot,
			LuckTag:                o.luckTag,
			DNF:                    o.dnf,
			DNFSlot:                o.dnfSlot,
		}
	})
}

// rank sorts a copy of outcomes descending by score.
// Equal scores keep the input order, except that a DNF entrant never
// ranks before a finisher with the same score.
func rank(outcomes []*outcome, score func(*outcome) float64) []*outcome {
	sorted := slices.Clone(outcomes)
	slices.SortStableFunc(sorted, func(a, b *outcome) int {
		if c := cmp.Compare(score(b), score(a)); c != 0 {
			return c
		}
		switch {
		case a.dnf && !b.dnf:
			return 1
		case !a.dnf && b.dnf:
			return -1
		}
		return 0
	})
	return sorted
}

func checkDNF(car *model.Car, rng *rand.Rand) (dnf bool, slot string) {
	for _, s := range model.SlotNames {
		if car.Slot(s).Readiness < DNFReadinessThreshold {
			if rng.Float64() < DNFChance {
				return true, s
			}
		}
	}
	return false, ""
}

func buildQuality(car *model.Car) float64 {
	sum := 0
	for _, s := range model.SlotNames {
		sum += car.Slot(s).Tier.Score()
	}
	return float64(sum) / float64(len(model.SlotNames))
}

func eventFit(car *model.Car, eventType string) (float64, map[string]model.SlotResult) {
	totalWeight := 0.0
	for _, s := range model.SlotNames {
		totalWeight += model.SlotWeight(eventType, s)
	}

	perSlot := make(map[string]model.SlotResult, len(model.SlotNames))
	weightedSum := 0.0
	for _, s := range model.SlotNames {
		part := car.Slot(s)
		ts := part.Tier.Score()
		w := model.SlotWeight(eventType, s)
		weighted := float64(ts) * w
		weightedSum += weighted
		perSlot[s] = model.SlotResult{
			Tier:          part.Tier,
			Readiness:     part.Readiness,
			TierScore:     ts,
			EventWeight:   w,
			WeightedScore: utils.Round(weighted/totalWeight, 2),
		}
	}
	fit := weightedSum / totalWeight
	return max(0, fit-eventPenalty(car, eventType)), perSlot
}

func eventPenalty(car *model.Car, eventType string) float64 {
	switch eventType {
	case model.EventWetTrack:
		if car.Tires.Tier == model.TierStandard {
			return 15
		}
	case model.EventNightRace:
		if car.Electronics.Tier == model.TierStandard {
			return 10
		}
	case model.EventEndurance:
		if car.Tires.Readiness < ReadinessThreshold || car.Fuel.Readiness < ReadinessThreshold {
			return 10
		}
	case model.EventWeightLimit:
		if totalWeightUnits(car) > model.WeightLimit {
			return 20
		}
	}
	return 0
}

func totalWeightUnits(car *model.Car) int {
	return lo.SumBy(model.SlotNames, func(s string) int {
		return model.WeightUnits(s, car.Slot(s).Tier)
	})
}

// readinessScore is the mean readiness after penalties.
// Readiness below 50 loses the gap to 50 a second time.
func readinessScore(car *model.Car, perSlot map[string]model.SlotResult) float64 {
	total := 0.0
	for _, s := range model.SlotNames {
		r := car.Slot(s).Readiness
		if r < ReadinessThreshold {
			penalty := ReadinessThreshold - r
			r = max(0, r-penalty)
			sr := perSlot[s]
			sr.ReadinessPenalty = penalty
			perSlot[s] = sr
		}
		total += r
	}
	return total / float64(len(model.SlotNames))
}

func clamp(v, lower, upper float64) float64 {
	return min(upper, max(lower, v))
}
