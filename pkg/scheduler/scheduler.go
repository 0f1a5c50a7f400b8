// Package scheduler drives the race lifecycle.
// Races are created for the slots of the daily timetable, entries are locked
// shortly before the start and the race is simulated and broadcast at the start.
// A rolling window of upcoming races is kept instantiated with armed triggers.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/mpapenbr/gridrace-service-manager-go/log"
	"github.com/mpapenbr/gridrace-service-manager-go/pkg/bots"
	"github.com/mpapenbr/gridrace-service-manager-go/pkg/broadcast"
	"github.com/mpapenbr/gridrace-service-manager-go/pkg/model"
	"github.com/mpapenbr/gridrace-service-manager-go/pkg/repository/api"
	"github.com/mpapenbr/gridrace-service-manager-go/pkg/schedule"
	"github.com/mpapenbr/gridrace-service-manager-go/pkg/simulation"
	"github.com/mpapenbr/gridrace-service-manager-go/pkg/tickstream"
	"github.com/mpapenbr/gridrace-service-manager-go/pkg/track"
	"github.com/mpapenbr/gridrace-service-manager-go/pkg/utils"
	"github.com/mpapenbr/gridrace-service-manager-go/pkg/wear"
)

const (
	DefaultWindow   = 30
	DefaultLockLead = 10 * time.Minute

	lockPrefix = "lock_"
	runPrefix  = "run_"
)

var ErrNoRepositories = errors.New("no repositories configured")

type (
	Option    func(*Scheduler)
	Scheduler struct {
		repos        api.Repositories
		sink         broadcast.Sink
		schedule     *schedule.Provider
		clock        Clock
		window       int
		lockLead     time.Duration
		tickInterval time.Duration
		pacing       *time.Duration
		botTarget    int
		log          *log.Logger

		triggers *triggerTable
		windowMu sync.Mutex // serializes window registrations and resets
		ctxMu    sync.RWMutex
		ctx      context.Context

		racesCreated  metric.Int64Counter
		racesFinished metric.Int64Counter
	}
)

func WithRepositories(repos api.Repositories) Option {
	return func(s *Scheduler) {
		s.repos = repos
	}
}

func WithSink(sink broadcast.Sink) Option {
	return func(s *Scheduler) {
		s.sink = sink
	}
}

func WithSchedule(p *schedule.Provider) Option {
	return func(s *Scheduler) {
		s.schedule = p
	}
}

func WithClock(c Clock) Option {
	return func(s *Scheduler) {
		s.clock = c
	}
}

// WithWindow sets the number of upcoming races kept instantiated
func WithWindow(n int) Option {
	return func(s *Scheduler) {
		s.window = n
	}
}

// WithLockLead sets the time between locking the entries and the race start
func WithLockLead(d time.Duration) Option {
	return func(s *Scheduler) {
		s.lockLead = d
	}
}

// WithTickInterval sets the simulated time per tick.
// Ticks are broadcast with the same interval unless WithPacing is used.
func WithTickInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		s.tickInterval = d
	}
}

// WithPacing sets the wall clock pause between two tick broadcasts.
// 0 sends all ticks without pause.
func WithPacing(d time.Duration) Option {
	return func(s *Scheduler) {
		s.pacing = &d
	}
}

// WithBotTarget sets the minimum number of entrants. Missing entrants are bots.
func WithBotTarget(n int) Option {
	return func(s *Scheduler) {
		s.botTarget = n
	}
}

func WithLogger(l *log.Logger) Option {
	return func(s *Scheduler) {
		s.log = l
	}
}

func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		sink:         broadcast.Discard,
		clock:        realClock{},
		window:       DefaultWindow,
		lockLead:     DefaultLockLead,
		tickInterval: tickstream.DefaultTickInterval,
		botTarget:    bots.DefaultTarget,
		log:          log.Default().Named("scheduler"),
		triggers:     newTriggerTable(),
		ctx:          context.Background(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.schedule == nil {
		s.schedule = schedule.NewProvider(schedule.Default())
	}
	s.setupMetrics()
	return s
}

func (s *Scheduler) setupMetrics() {
	meter := otel.Meter("grs.scheduler")
	var err error
	if s.racesCreated, err = meter.Int64Counter("grs.scheduler.races.created",
		metric.WithDescription("races created for timetable slots")); err != nil {
		s.log.Warn("could not create counter", log.ErrorField(err))
		s.racesCreated = noop.Int64Counter{}
	}
	if s.racesFinished, err = meter.Int64Counter("grs.scheduler.races.finished",
		metric.WithDescription("races simulated and finished")); err != nil {
		s.log.Warn("could not create counter", log.ErrorField(err))
		s.racesFinished = noop.Int64Counter{}
	}
}

// Start registers the window of upcoming races. Triggers fire with ctx.
// Races of the window which already exist are kept, so a restart recovers
// from the persisted races and the timetable alone.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.repos == nil {
		return ErrNoRepositories
	}
	s.ctxMu.Lock()
	s.ctx = ctx
	s.ctxMu.Unlock()
	created, err := s.RegisterWindow(ctx)
	if err != nil {
		return err
	}
	s.log.Info("scheduler started",
		log.Int("created", created),
		log.Int("triggers", len(s.triggers.IDs())))
	return nil
}

// Stop cancels all triggers and waits for running callbacks.
// No trigger is armed after Stop, also not by races still running.
func (s *Scheduler) Stop() {
	n := s.triggers.Close()
	s.triggers.Wait()
	s.log.Info("scheduler stopped", log.Int("canceledTriggers", n))
}

// Triggers returns the ids of the armed triggers
func (s *Scheduler) Triggers() []string {
	return s.triggers.IDs()
}

// EnsureRace creates race id for slot unless it exists.
// It reports whether the race was created.
//
//nolint:whitespace // can't make both editor and linter happy
func (s *Scheduler) EnsureRace(
	ctx context.Context,
	id string,
	scheduledTime time.Time,
	slot model.ScheduleSlot,
) (bool, error) {
	exists, err := s.repos.Race().Exists(ctx, id)
	if err != nil {
		return false, fmt.Errorf("check race %s: %w", id, err)
	}
	if exists {
		return false, nil
	}
	lapCount := slot.LapCount
	if lapCount <= 0 {
		lapCount = model.DefaultLapCount
	}
	gridSize := slot.GridSize
	if gridSize <= 0 {
		gridSize = model.DefaultGridSize
	}
	rng := utils.NewSeededRand(id, "track")
	race := &model.Race{
		ID:            id,
		ScheduledTime: scheduledTime.UTC(),
		EventType:     slot.EventType,
		Status:        model.StatusOpen,
		EntryFee:      model.DefaultEntryFee,
		LapCount:      lapCount,
		GridSize:      gridSize,
		Track:         track.Generate(gridSize, track.WithRand(rng)),
		Entries:       []model.RaceEntry{},
		Results:       []model.EntryResult{},
	}
	if err := s.repos.Race().Create(ctx, race); err != nil {
		if errors.Is(err, api.ErrDuplicate) {
			return false, nil
		}
		return false, fmt.Errorf("create race %s: %w", id, err)
	}
	s.racesCreated.Add(ctx, 1,
		metric.WithAttributes(attribute.String("eventType", slot.EventType)))
	s.log.Info("created race",
		log.String("race", id),
		log.String("eventType", slot.EventType),
		log.Int("laps", lapCount),
		log.Int("grid", gridSize))
	return true, nil
}

// LockRace freezes the cars of the entrants. Only open races are locked,
// other states are left untouched. Entrants whose player record is missing
// stay without a locked car.
func (s *Scheduler) LockRace(ctx context.Context, id string) error {
	return s.repos.RunInTx(ctx, func(ctx context.Context, repos api.Repositories) error {
		return s.lock(ctx, repos, id)
	})
}

func (s *Scheduler) lock(ctx context.Context, repos api.Repositories, id string) error {
	race, err := repos.Race().LoadByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load race %s: %w", id, err)
	}
	if race.Status != model.StatusOpen {
		s.log.Debug("race not open, skipping lock",
			log.String("race", id), log.String("status", string(race.Status)))
		return nil
	}
	locked := 0
	for i := range race.Entries {
		entry := &race.Entries[i]
		player, err := repos.Player().LoadByID(ctx, entry.PlayerID)
		if errors.Is(err, api.ErrNoRows) {
			s.log.Warn("player not found, entry stays unlocked",
				log.String("race", id), log.String("player", entry.PlayerID))
			continue
		}
		if err != nil {
			return fmt.Errorf("load player %s: %w", entry.PlayerID, err)
		}
		car := player.Car.Clamped()
		entry.LockedCar = &car
		locked++
	}
	race.Status = model.StatusLocked
	if err := repos.Race().Update(ctx, race); err != nil {
		return fmt.Errorf("update race %s: %w", id, err)
	}
	s.log.Info("locked race entries",
		log.String("race", id),
		log.Int("entrants", len(race.Entries)),
		log.Int("locked", locked))
	return nil
}

// RunRace simulates race id and broadcasts the result. Only open or locked races
// are run, an open race is locked first.
// Once the race is running it is completed even if ctx is canceled. Canceling
// ctx only stops the pacing of the tick broadcast.
func (s *Scheduler) RunRace(ctx context.Context, id string) error {
	race, err := s.startRace(ctx, id)
	if err != nil || race == nil {
		return err
	}
	runCtx := context.WithoutCancel(ctx)
	l := s.log.With(log.String("race", id))

	s.send(runCtx, id, model.StatusMessage(model.StatusRunning))

	results := simulation.Simulate(id, race.Entries, race.EventType,
		simulation.WithLogger(l.Named("simulation")))
	stream := tickstream.New(results, race.LapCount, race.Track,
		tickstream.WithRaceID(id),
		tickstream.WithTickInterval(s.tickInterval),
		tickstream.WithLogger(l.Named("tickstream")))

	pacing := s.tickInterval
	if s.pacing != nil {
		pacing = *s.pacing
	}
	start := time.Now()
	for tick := range stream.All() {
		s.send(runCtx, id, model.TickMessage(tick))
		pause(ctx, pacing)
	}
	s.send(runCtx, id, model.FinishedMessage(results))

	race.Status = model.StatusFinished
	race.Results = results
	if err := s.repos.Race().Update(runCtx, race); err != nil {
		l.Error("could not store race results", log.ErrorField(err))
	}
	s.finish(runCtx, race)
	s.racesFinished.Add(runCtx, 1,
		metric.WithAttributes(attribute.String("eventType", race.EventType)))
	l.Info("race finished",
		log.Int("results", len(results)),
		log.Int("ticks", stream.Ticks()),
		log.Duration("duration", time.Since(start)))

	if _, err := s.RegisterWindow(runCtx); err != nil {
		l.Error("could not register window", log.ErrorField(err))
	}
	return nil
}

// startRace moves the race into running state. A nil race is returned if the
// race is not in a runnable state.
func (s *Scheduler) startRace(ctx context.Context, id string) (*model.Race, error) {
	var ret *model.Race
	err := s.repos.RunInTx(ctx, func(ctx context.Context, repos api.Repositories) error {
		race, err := repos.Race().LoadByID(ctx, id)
		if err != nil {
			return fmt.Errorf("load race %s: %w", id, err)
		}
		switch race.Status {
		case model.StatusOpen:
			s.log.Info("lock missed, locking now", log.String("race", id))
			if err := s.lock(ctx, repos, id); err != nil {
				return err
			}
			if race, err = repos.Race().LoadByID(ctx, id); err != nil {
				return fmt.Errorf("load race %s: %w", id, err)
			}
		case model.StatusLocked:
		default:
			s.log.Debug("race not runnable, skipping",
				log.String("race", id), log.String("status", string(race.Status)))
			return nil
		}
		fill := bots.Entries(id, len(race.Entries), s.botTarget,
			bots.WithEnteredAt(s.clock.Now().UTC()))
		race.Entries = append(race.Entries, fill...)
		race.Status = model.StatusRunning
		if err := repos.Race().Update(ctx, race); err != nil {
			return fmt.Errorf("update race %s: %w", id, err)
		}
		ret = race
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}

// finish pays the reward and applies the wear for each entrant with a player
// record. Entrants are processed one after another, failures are logged.
func (s *Scheduler) finish(ctx context.Context, race *model.Race) {
	for _, result := range race.Results {
		if bots.IsBot(result.PlayerID) {
			continue
		}
		err := s.repos.RunInTx(ctx, func(ctx context.Context, repos api.Repositories) error {
			player, err := repos.Player().LoadByID(ctx, result.PlayerID)
			if err != nil {
				return err
			}
			player.Credits += wear.Reward(result.Position)
			player.RacesEntered++
			player.Car = wear.Apply(player.Car, race.EventType)
			return repos.Player().Update(ctx, player)
		})
		switch {
		case errors.Is(err, api.ErrNoRows):
			s.log.Warn("player not found, no reward",
				log.String("race", race.ID), log.String("player", result.PlayerID))
		case err != nil:
			s.log.Error("could not update player",
				log.String("race", race.ID),
				log.String("player", result.PlayerID),
				log.ErrorField(err))
		}
	}
}

// RegisterWindow ensures the next window slots starting after now exist and
// have their lock and run triggers armed. It returns the number of created races.
// Calling it again is safe, existing races are kept and triggers are replaced.
func (s *Scheduler) RegisterWindow(ctx context.Context) (int, error) {
	s.windowMu.Lock()
	defer s.windowMu.Unlock()
	return s.registerWindow(ctx)
}

func (s *Scheduler) registerWindow(ctx context.Context) (int, error) {
	slots := s.schedule.Get().Slots
	if len(slots) == 0 {
		return 0, schedule.ErrEmptySchedule
	}
	now := s.clock.Now().UTC()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	idx := slices.IndexFunc(slots, func(slot model.ScheduleSlot) bool {
		at, err := schedule.At(slot, day)
		return err == nil && at.After(now)
	})
	if idx < 0 {
		idx = 0
		day = day.AddDate(0, 0, 1)
	}

	created := 0
	for counted := 0; counted < s.window; counted++ {
		if idx >= len(slots) {
			idx = 0
			day = day.AddDate(0, 0, 1)
		}
		slot := slots[idx]
		idx++
		at, err := schedule.At(slot, day)
		if err != nil {
			return created, err
		}
		id := model.RaceID(at)
		ok, err := s.EnsureRace(ctx, id, at, slot)
		if err != nil {
			return created, err
		}
		if ok {
			created++
		}
		if lockAt := at.Add(-s.lockLead); lockAt.After(now) {
			s.arm(lockPrefix+id, lockAt.Sub(now), func(ctx context.Context) error {
				return s.LockRace(ctx, id)
			})
		}
		s.arm(runPrefix+id, at.Sub(now), func(ctx context.Context) error {
			return s.RunRace(ctx, id)
		})
	}
	s.log.Debug("window registered",
		log.Int("counted", s.window),
		log.Int("created", created))
	return created, nil
}

func (s *Scheduler) arm(id string, d time.Duration, fn func(ctx context.Context) error) {
	armed := s.triggers.Upsert(id, func(claim func() bool) Timer {
		return s.clock.AfterFunc(d, func() {
			if !claim() {
				return
			}
			defer s.triggers.Done()
			if err := fn(s.context()); err != nil {
				s.log.Error("trigger failed", log.String("trigger", id), log.ErrorField(err))
			}
		})
	})
	if !armed {
		s.log.Debug("scheduler stopped, trigger not armed", log.String("trigger", id))
	}
}

func (s *Scheduler) context() context.Context {
	s.ctxMu.RLock()
	defer s.ctxMu.RUnlock()
	return s.ctx
}

// Reset cancels all triggers, deletes all races and registers a fresh window.
// It returns the number of created races.
func (s *Scheduler) Reset(ctx context.Context) (int, error) {
	s.windowMu.Lock()
	defer s.windowMu.Unlock()
	canceled := s.triggers.RemoveAll()
	deleted, err := s.repos.Race().DeleteAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete races: %w", err)
	}
	s.log.Info("reset schedule",
		log.Int("canceledTriggers", canceled),
		log.Int("deletedRaces", deleted))
	return s.registerWindow(ctx)
}

func (s *Scheduler) send(ctx context.Context, raceID string, msg *model.RaceMessage) {
	if err := s.sink.Broadcast(ctx, raceID, msg); err != nil {
		s.log.Warn("broadcast failed",
			log.String("race", raceID),
			log.String("type", string(msg.Type)),
			log.ErrorField(err))
	}
}

func pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
