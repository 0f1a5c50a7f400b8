// Package tickstream replays a simulated race as a sequence of position snapshots.
package tickstream

import (
	"iter"
	"math"
	"time"

	"github.com/samber/lo"

	"github.com/mpapenbr/gridrace-service-manager-go/log"
	"github.com/mpapenbr/gridrace-service-manager-go/pkg/model"
	"github.com/mpapenbr/gridrace-service-manager-go/pkg/physics"
	"github.com/mpapenbr/gridrace-service-manager-go/pkg/utils"
)

const (
	DefaultTickInterval = 62 * time.Millisecond
	DefaultGraceTicks   = 160
	DefaultMaxTicks     = 200_000

	MinSpeedFactor = 0.3
	DNFStopMin     = 0.3
	DNFStopMax     = 0.7
)

type (
	Option func(*Stream)

	carState struct {
		result   *model.EntryResult
		pos      float64 // feet
		vel      float64 // ft/s
		factor   float64
		dnfStop  float64 // fraction of total distance
		finished bool
	}
)

// Stream produces the tick snapshots of a single race.
// It is not safe for concurrent use and can not be restarted.
type Stream struct {
	raceID       string
	lapCount     int
	tickInterval time.Duration
	graceTicks   int
	maxTicks     int
	log          *log.Logger

	profile       []float64
	nTiles        int
	totalDistance float64
	cars          []*carState

	tick         int
	leaderFinish int
	done         bool
}

// WithRaceID is used to seed the stop position of DNF entrants
func WithRaceID(id string) Option {
	return func(s *Stream) {
		s.raceID = id
	}
}

func WithMaxTicks(n int) Option {
	return func(s *Stream) {
		s.maxTicks = n
	}
}

func WithGraceTicks(n int) Option {
	return func(s *Stream) {
		s.graceTicks = n
	}
}

// WithTickInterval sets the simulated time step of a tick
func WithTickInterval(d time.Duration) Option {
	return func(s *Stream) {
		s.tickInterval = d
	}
}

func WithLogger(l *log.Logger) Option {
	return func(s *Stream) {
		s.log = l
	}
}

// New creates the stream for results which must be ordered by position.
// Without a track a flat profile of one tile at top speed is used.
//
//nolint:whitespace // can't make both editor and linter happy
func New(
	results []model.EntryResult,
	lapCount int,
	track *model.Track,
	opts ...Option,
) *Stream {
	s := &Stream{
		lapCount:     lapCount,
		tickInterval: DefaultTickInterval,
		graceTicks:   DefaultGraceTicks,
		maxTicks:     DefaultMaxTicks,
		log:          log.Default().Named("tickstream"),
	}
	for _, opt := range opts {
		opt(s)
	}

	if track != nil && track.Len() > 0 {
		s.profile = physics.BuildSpeedProfile(track)
		s.nTiles = track.Len()
	} else {
		s.profile = []float64{physics.TopSpeedFPS}
		s.nTiles = 1
	}
	s.totalDistance = physics.TileFeet * float64(s.nTiles) * float64(max(1, lapCount))

	maxScore := lo.MaxBy(results, func(a, b model.EntryResult) bool {
		return a.ResultScore > b.ResultScore
	}).ResultScore
	if maxScore <= 0 {
		maxScore = 1
	}

	s.cars = make([]*carState, len(results))
	for i := range results {
		r := &results[i]
		cs := &carState{
			result: r,
			factor: max(MinSpeedFactor, r.ResultScore/maxScore),
		}
		if r.DNF {
			rng := utils.NewSeededRand(s.raceID+":dnf", r.PlayerID)
			cs.dnfStop = utils.Uniform(rng, DNFStopMin, DNFStopMax)
		}
		s.cars[i] = cs
	}
	s.done = len(s.cars) == 0
	return s
}

// Next computes the next snapshot. The second return value is false once the
// stream has terminated.
func (s *Stream) Next() (*model.Tick, bool) {
	if s.done {
		return nil, false
	}
	if s.tick >= s.maxTicks {
		s.log.Warn("tick ceiling reached",
			log.String("race", s.raceID),
			log.Int("maxTicks", s.maxTicks))
		s.done = true
		return nil, false
	}
	s.tick++

	dt := s.tickInterval.Seconds()
	allDone := true
	tick := &model.Tick{
		Tick:     s.tick,
		LapCount: s.lapCount,
		Cars:     make([]model.CarTick, 0, len(s.cars)),
	}
	for _, c := range s.cars {
		if c.finished {
			tick.Cars = append(tick.Cars, s.snapshot(c, s.finalIncident(c)))
			continue
		}
		allDone = false
		s.step(c, dt)
		incident := ""
		switch {
		case c.result.DNF && c.pos >= c.dnfStop*s.totalDistance:
			c.pos = c.dnfStop * s.totalDistance
			c.vel = 0
			c.finished = true
			incident = model.IncidentDNFStart
		case c.pos >= s.totalDistance:
			c.pos = s.totalDistance
			c.finished = true
			if s.leaderFinish == 0 {
				s.leaderFinish = s.tick
			}
		}
		tick.Cars = append(tick.Cars, s.snapshot(c, incident))
	}

	if allDone || (s.leaderFinish > 0 && s.tick-s.leaderFinish >= s.graceTicks) {
		s.done = true
	}
	return tick, true
}

// All adapts the stream to a range-over-func iterator
func (s *Stream) All() iter.Seq[*model.Tick] {
	return func(yield func(*model.Tick) bool) {
		for {
			t, ok := s.Next()
			if !ok || !yield(t) {
				return
			}
		}
	}
}

// Ticks returns the number of snapshots produced so far
func (s *Stream) Ticks() int {
	return s.tick
}

func (s *Stream) step(c *carState, dt float64) {
	lapDistance := physics.TileFeet * float64(s.nTiles)
	tileIdx := int(math.Mod(c.pos, lapDistance)/physics.TileFeet) % s.nTiles
	target := s.profile[tileIdx] * c.factor

	switch {
	case c.vel < target:
		c.vel = min(target, c.vel+physics.AccelFPS2*dt)
	case c.vel > target:
		c.vel = max(target, c.vel-physics.BrakeFPS2*dt)
	}
	c.pos += c.vel * dt
}

func (s *Stream) finalIncident(c *carState) string {
	if c.result.DNF {
		return model.IncidentDNF
	}
	return ""
}

func (s *Stream) snapshot(c *carState, incident string) model.CarTick {
	return model.CarTick{
		CarID:    c.result.PlayerID,
		Username: c.result.Username,
		Progress: utils.Round(min(1.0, c.pos/s.totalDistance), 4),
		Speed:    utils.Round(c.vel/physics.MPHToFPS, 0),
		Incident: incident,
	}
}
