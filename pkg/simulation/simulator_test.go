//nolint:funlen // ok for tests
package simulation

import (
	"fmt"
	"math"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/gridrace-service-manager-go/pkg/model"
	"github.com/mpapenbr/gridrace-service-manager-go/pkg/utils"
)

func uniformCar(tier model.Tier, readiness float64) *model.Car {
	c := model.Car{}
	for _, s := range model.SlotNames {
		c.SetSlot(s, model.NewSlotPart(tier, readiness))
	}
	return &c
}

func lockedEntry(id string, car *model.Car) model.RaceEntry {
	return model.RaceEntry{
		PlayerID:  id,
		Username:  "user-" + id,
		EnteredAt: time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC),
		LockedCar: car,
	}
}

func TestSimulate_AllPerformanceSprint(t *testing.T) {
	entries := []model.RaceEntry{lockedEntry("p1", uniformCar(model.TierPerformance, 100))}
	res := Simulate("2026-10-16_10:00", entries, model.EventSprint)
	require.Len(t, res, 1)
	r := res[0]
	assert.Equal(t, 100.0, r.BuildQuality)
	assert.Equal(t, 100.0, r.EventFit)
	assert.Equal(t, 100.0, r.ReadinessScore)
	assert.False(t, r.DNF)
	// pre-luck score is 100, luck is at most -15
	assert.GreaterOrEqual(t, r.ResultScore, 85.0)
	assert.LessOrEqual(t, r.ResultScore, 100.0)
	assert.Equal(t, 1, r.Position)
	assert.Equal(t, 1, r.CounterfactualPosition)
}

func TestSimulate_DNFRate(t *testing.T) {
	const trials = 10000
	car := uniformCar(model.TierStandard, 10)
	dnf := 0
	for i := range trials {
		res := Simulate("dnf-rate", []model.RaceEntry{lockedEntry(fmt.Sprintf("p%d", i), car)},
			model.EventSprint)
		if res[0].DNF {
			dnf++
			assert.Equal(t, 0.0, res[0].ResultScore)
			assert.Contains(t, model.SlotNames, res[0].DNFSlot)
		}
	}
	expected := 1 - math.Pow(0.9, 6)
	assert.InDelta(t, expected, float64(dnf)/trials, 0.03)
}

func TestSimulate_NoDNFAboveThreshold(t *testing.T) {
	car := uniformCar(model.TierStandard, DNFReadinessThreshold)
	for i := range 200 {
		res := Simulate("no-dnf", []model.RaceEntry{lockedEntry(fmt.Sprintf("p%d", i), car)},
			model.EventEndurance)
		assert.False(t, res[0].DNF)
		assert.Empty(t, res[0].DNFSlot)
	}
}

func sampleField() []model.RaceEntry {
	return []model.RaceEntry{
		lockedEntry("a", uniformCar(model.TierStandard, 100)),
		lockedEntry("b", uniformCar(model.TierUpgraded, 80)),
		lockedEntry("c", uniformCar(model.TierPerformance, 60)),
		lockedEntry("d", uniformCar(model.TierStandard, 5)),
		lockedEntry("e", uniformCar(model.TierUpgraded, 15)),
		lockedEntry("f", uniformCar(model.TierPerformance, 100)),
	}
}

func TestSimulate_Deterministic(t *testing.T) {
	for _, ev := range append(model.EventTypes, "unknown_event") {
		first := Simulate("2026-10-16_10:10", sampleField(), ev)
		second := Simulate("2026-10-16_10:10", sampleField(), ev)
		assert.Equal(t, first, second, "event %s", ev)
	}
}

func TestSimulate_ScoresIndependentOfOrder(t *testing.T) {
	field := sampleField()
	reversed := make([]model.RaceEntry, len(field))
	for i := range field {
		reversed[len(field)-1-i] = field[i]
	}
	byPlayer := func(res []model.EntryResult) map[string]float64 {
		ret := map[string]float64{}
		for _, r := range res {
			ret[r.PlayerID] = r.ResultScore
		}
		return ret
	}
	assert.Equal(t,
		byPlayer(Simulate("race", field, model.EventAltitude)),
		byPlayer(Simulate("race", reversed, model.EventAltitude)))
}

func TestSimulate_Ranking(t *testing.T) {
	for _, ev := range model.EventTypes {
		res := Simulate("2026-10-16_11:00", sampleField(), ev)
		require.Len(t, res, 6)
		seenCf := map[int]bool{}
		for i, r := range res {
			assert.Equal(t, i+1, r.Position)
			assert.GreaterOrEqual(t, r.ResultScore, 0.0)
			assert.LessOrEqual(t, r.ResultScore, 100.0)
			seenCf[r.CounterfactualPosition] = true
			if i > 0 {
				assert.GreaterOrEqual(t, res[i-1].ResultScore, r.ResultScore)
				if res[i-1].DNF {
					assert.True(t, r.DNF, "finisher ranked after a DNF")
				}
			}
		}
		assert.Len(t, seenCf, 6)
	}
}

func TestSimulate_LuckRange(t *testing.T) {
	for i := range 100 {
		id := fmt.Sprintf("p%d", i)
		tt := Simulate("luck", []model.RaceEntry{lockedEntry(id, uniformCar(model.TierUpgraded, 90))},
			model.EventTimeTrial)
		assert.LessOrEqual(t, math.Abs(tt[0].LuckDelta), 5.0)

		other := Simulate("luck", []model.RaceEntry{lockedEntry(id, uniformCar(model.TierUpgraded, 90))},
			model.EventSprint)
		assert.LessOrEqual(t, math.Abs(other[0].LuckDelta), 15.0)
	}
}

func TestSimulate_LuckTag(t *testing.T) {
	for i := range 100 {
		res := Simulate("tags", []model.RaceEntry{
			lockedEntry(fmt.Sprintf("p%d", i), uniformCar(model.TierUpgraded, 90)),
		}, model.EventSprint)
		r := res[0]
		switch {
		case r.LuckDelta > LuckTagThreshold:
			assert.Contains(t, positiveTags, r.LuckTag)
		case r.LuckDelta < -LuckTagThreshold:
			assert.Contains(t, negativeTags, r.LuckTag)
		default:
			assert.Equal(t, NeutralTag, r.LuckTag)
		}
	}
}

func TestSimulate_CounterfactualTies(t *testing.T) {
	// identical cars have identical luck-free scores, so the counterfactual
	// ranking follows the input order
	car := uniformCar(model.TierUpgraded, 90)
	entries := []model.RaceEntry{
		lockedEntry("x1", car), lockedEntry("x2", car), lockedEntry("x3", car),
	}
	res := Simulate("ties", entries, model.EventSpecClass)
	cf := map[string]int{}
	for _, r := range res {
		cf[r.PlayerID] = r.CounterfactualPosition
	}
	assert.Equal(t, map[string]int{"x1": 1, "x2": 2, "x3": 3}, cf)
}

func randomField(seed int64, n int) []model.RaceEntry {
	rng := utils.NewRandFromSeed(seed)
	entries := make([]model.RaceEntry, n)
	for i := range entries {
		c := model.Car{}
		for _, s := range model.SlotNames {
			tier := model.Tiers[rng.IntN(len(model.Tiers))]
			c.SetSlot(s, model.NewSlotPart(tier, utils.Uniform(rng, 10, 100)))
		}
		entries[i] = lockedEntry(fmt.Sprintf("p%d", i), &c)
	}
	return entries
}

// luckFreeOrder ranks the entries by their score without luck.
// Equal scores keep the entry order, DNF entrants rank last.
func luckFreeOrder(entries []model.RaceEntry, eventType string, dnf map[string]bool) []string {
	bqWeight := 0.40
	if eventType == model.EventTimeTrial {
		bqWeight = 0.50
	}
	scores := map[string]float64{}
	ids := make([]string, len(entries))
	for i := range entries {
		e := &entries[i]
		ids[i] = e.PlayerID
		if dnf[e.PlayerID] {
			continue
		}
		fit, perSlot := eventFit(e.LockedCar, eventType)
		scores[e.PlayerID] = buildQuality(e.LockedCar)*bqWeight +
			fit*fitWeight +
			readinessScore(e.LockedCar, perSlot)*readinessWeight
	}
	sort.SliceStable(ids, func(i, j int) bool {
		a, b := ids[i], ids[j]
		if scores[a] != scores[b] {
			return scores[a] > scores[b]
		}
		return !dnf[a] && dnf[b]
	})
	return ids
}

func TestSimulate_CounterfactualDivergesWithLuck(t *testing.T) {
	diverged, kept := 0, 0
	for seed := range int64(200) {
		ev := model.EventTypes[int(seed)%len(model.EventTypes)]
		entries := randomField(seed, 8)
		raceID := fmt.Sprintf("race-%d", seed)
		res := Simulate(raceID, entries, ev)
		require.Len(t, res, len(entries))

		dnf := map[string]bool{}
		for _, r := range res {
			dnf[r.PlayerID] = r.DNF
		}
		order := luckFreeOrder(entries, ev, dnf)
		for _, r := range res {
			expected := order[r.CounterfactualPosition-1]
			assert.Equal(t, r.PlayerID, expected, "%s: counterfactual position", raceID)
			// luck changed the rank of an entrant exactly when the positions differ
			samePlace := order[r.Position-1] == r.PlayerID
			assert.Equal(t, samePlace, r.CounterfactualPosition == r.Position,
				"%s: player %s", raceID, r.PlayerID)
			if samePlace {
				kept++
			} else {
				diverged++
			}
		}
	}
	assert.Positive(t, diverged)
	assert.Positive(t, kept)
}

func TestSimulate_SkipsUnlockedEntries(t *testing.T) {
	entries := sampleField()
	entries[2].LockedCar = nil
	res := Simulate("2026-10-16_12:00", entries, model.EventSprint)
	assert.Len(t, res, 5)
	for _, r := range res {
		assert.NotEqual(t, "c", r.PlayerID)
	}
	assert.Empty(t, Simulate("empty", nil, model.EventSprint))
}

func TestEventFit_Penalties(t *testing.T) {
	tests := []struct {
		name      string
		car       *model.Car
		eventType string
		want      float64
	}{
		{"wet standard tires", uniformCar(model.TierStandard, 100), model.EventWetTrack, 25},
		{"wet performance", uniformCar(model.TierPerformance, 100), model.EventWetTrack, 100},
		{"night standard electronics", uniformCar(model.TierStandard, 100), model.EventNightRace, 30},
		{"endurance worn", uniformCar(model.TierPerformance, 40), model.EventEndurance, 90},
		{"endurance fresh", uniformCar(model.TierPerformance, 80), model.EventEndurance, 100},
		{"over weight limit", uniformCar(model.TierPerformance, 100), model.EventWeightLimit, 80},
		{"within weight limit", uniformCar(model.TierStandard, 100), model.EventWeightLimit, 40},
		{"unknown event", uniformCar(model.TierUpgraded, 100), "drag", 70},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fit, perSlot := eventFit(tt.car, tt.eventType)
			assert.InDelta(t, tt.want, fit, 1e-9)
			assert.Len(t, perSlot, len(model.SlotNames))
		})
	}
}

func TestEventFit_PerSlotWeights(t *testing.T) {
	car := uniformCar(model.TierPerformance, 100)
	_, perSlot := eventFit(car, model.EventSprint)
	// sprint weights sum to 6.5, engine weighs 1.5
	assert.Equal(t, 1.5, perSlot[model.SlotEngine].EventWeight)
	assert.Equal(t, 23.08, perSlot[model.SlotEngine].WeightedScore)
	assert.Equal(t, 15.38, perSlot[model.SlotTires].WeightedScore)
	assert.Equal(t, 100, perSlot[model.SlotAero].TierScore)
}

func TestReadinessScore(t *testing.T) {
	car := uniformCar(model.TierStandard, 100)
	car.SetSlot(model.SlotTires, model.NewSlotPart(model.TierStandard, 30))
	car.SetSlot(model.SlotFuel, model.NewSlotPart(model.TierStandard, 10))
	_, perSlot := eventFit(car, model.EventSprint)

	got := readinessScore(car, perSlot)
	// tires 30 -> 10, fuel 10 -> 0
	assert.InDelta(t, (4*100.0+10+0)/6, got, 1e-9)
	assert.Equal(t, 20.0, perSlot[model.SlotTires].ReadinessPenalty)
	assert.Equal(t, 40.0, perSlot[model.SlotFuel].ReadinessPenalty)
	assert.Equal(t, 0.0, perSlot[model.SlotEngine].ReadinessPenalty)
}

func TestRank_DNFAfterFinisherOnEqualScore(t *testing.T) {
	a := &outcome{entry: &model.RaceEntry{PlayerID: "a"}, dnf: true}
	b := &outcome{entry: &model.RaceEntry{PlayerID: "b"}}
	c := &outcome{entry: &model.RaceEntry{PlayerID: "c"}, score: 50}
	d := &outcome{entry: &model.RaceEntry{PlayerID: "d"}, dnf: true}

	got := rank([]*outcome{a, b, c, d}, func(o *outcome) float64 { return o.score })
	assert.Equal(t, []*outcome{c, b, a, d}, got)
}
