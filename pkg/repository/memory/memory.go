// Package memory provides process local repositories.
// They are used for development setups and tests which don't need a database.
package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/gofrs/uuid/v5"

	"github.com/mpapenbr/gridrace-service-manager-go/pkg/model"
	"github.com/mpapenbr/gridrace-service-manager-go/pkg/repository/api"
)

type store struct {
	races   map[string]*model.Race
	players map[string]*model.Player
}

func newStore() *store {
	return &store{
		races:   map[string]*model.Race{},
		players: map[string]*model.Player{},
	}
}

func (s *store) clone() *store {
	ret := newStore()
	for k, v := range s.races {
		ret.races[k] = cloneRace(v)
	}
	for k, v := range s.players {
		ret.players[k] = clonePlayer(v)
	}
	return ret
}

// Repositories keeps races and players in memory.
// Values are copied on the way in and out.
type Repositories struct {
	mu   sync.RWMutex
	txMu sync.Mutex // serializes transactions
	data *store
}

var _ api.Repositories = (*Repositories)(nil)

func NewRepositories() *Repositories {
	return &Repositories{data: newStore()}
}

func (r *Repositories) Race() api.RaceRepository {
	return &raceRepository{access: r.access}
}

func (r *Repositories) Player() api.PlayerRepository {
	return &playerRepository{access: r.access}
}

// RunInTx runs fn on a copy of the current data. The copy replaces the data
// if fn succeeds. Writes outside of the transaction wait until it is done.
//
//nolint:whitespace // can't make both editor and linter happy
func (r *Repositories) RunInTx(
	ctx context.Context,
	fn func(ctx context.Context, repos api.Repositories) error,
) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()

	r.mu.RLock()
	snapshot := r.data.clone()
	r.mu.RUnlock()

	tx := &txRepositories{data: snapshot}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	r.mu.Lock()
	r.data = snapshot
	r.mu.Unlock()
	return nil
}

// access calls fn with the current data.
func (r *Repositories) access(write bool, fn func(s *store) error) error {
	if write {
		r.txMu.Lock()
		defer r.txMu.Unlock()
		r.mu.Lock()
		defer r.mu.Unlock()
	} else {
		r.mu.RLock()
		defer r.mu.RUnlock()
	}
	return fn(r.data)
}

// txRepositories works on the snapshot of a running transaction.
// Nested transactions share the snapshot.
type txRepositories struct {
	data *store
}

func (t *txRepositories) access(_ bool, fn func(s *store) error) error {
	return fn(t.data)
}

func (t *txRepositories) Race() api.RaceRepository {
	return &raceRepository{access: t.access}
}

func (t *txRepositories) Player() api.PlayerRepository {
	return &playerRepository{access: t.access}
}

//nolint:whitespace // can't make both editor and linter happy
func (t *txRepositories) RunInTx(
	ctx context.Context,
	fn func(ctx context.Context, repos api.Repositories) error,
) error {
	nested := &txRepositories{data: t.data.clone()}
	if err := fn(ctx, nested); err != nil {
		return err
	}
	t.data.races = nested.data.races
	t.data.players = nested.data.players
	return nil
}

type accessFunc func(write bool, fn func(s *store) error) error

type raceRepository struct {
	access accessFunc
}

var _ api.RaceRepository = (*raceRepository)(nil)

func (r *raceRepository) Create(ctx context.Context, race *model.Race) error {
	return r.access(true, func(s *store) error {
		if _, ok := s.races[race.ID]; ok {
			return fmt.Errorf("race %s: %w", race.ID, api.ErrDuplicate)
		}
		s.races[race.ID] = cloneRace(race)
		return nil
	})
}

func (r *raceRepository) LoadByID(ctx context.Context, id string) (*model.Race, error) {
	var ret *model.Race
	err := r.access(false, func(s *store) error {
		item, ok := s.races[id]
		if !ok {
			return api.ErrNoRows
		}
		ret = cloneRace(item)
		return nil
	})
	return ret, err
}

func (r *raceRepository) LoadAll(ctx context.Context) ([]*model.Race, error) {
	return r.LoadByStatus(ctx)
}

// LoadByStatus with no states returns all races
//
//nolint:whitespace // can't make both editor and linter happy
func (r *raceRepository) LoadByStatus(
	ctx context.Context,
	status ...model.RaceStatus,
) ([]*model.Race, error) {
	ret := make([]*model.Race, 0)
	err := r.access(false, func(s *store) error {
		for _, item := range s.races {
			if len(status) == 0 || slices.Contains(status, item.Status) {
				ret = append(ret, cloneRace(item))
			}
		}
		return nil
	})
	slices.SortFunc(ret, func(a, b *model.Race) int {
		if c := a.ScheduledTime.Compare(b.ScheduledTime); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return ret, err
}

func (r *raceRepository) Exists(ctx context.Context, id string) (bool, error) {
	var ret bool
	err := r.access(false, func(s *store) error {
		_, ret = s.races[id]
		return nil
	})
	return ret, err
}

func (r *raceRepository) Update(ctx context.Context, race *model.Race) error {
	return r.access(true, func(s *store) error {
		if _, ok := s.races[race.ID]; !ok {
			return api.ErrNoRows
		}
		s.races[race.ID] = cloneRace(race)
		return nil
	})
}

func (r *raceRepository) DeleteByID(ctx context.Context, id string) (int, error) {
	ret := 0
	err := r.access(true, func(s *store) error {
		if _, ok := s.races[id]; ok {
			delete(s.races, id)
			ret = 1
		}
		return nil
	})
	return ret, err
}

func (r *raceRepository) DeleteAll(ctx context.Context) (int, error) {
	ret := 0
	err := r.access(true, func(s *store) error {
		ret = len(s.races)
		clear(s.races)
		return nil
	})
	return ret, err
}

type playerRepository struct {
	access accessFunc
}

var _ api.PlayerRepository = (*playerRepository)(nil)

func (r *playerRepository) Create(ctx context.Context, player *model.Player) error {
	return r.access(true, func(s *store) error {
		id := player.ID
		if id == "" {
			uid, err := uuid.NewV4()
			if err != nil {
				return err
			}
			id = uid.String()
		}
		if _, ok := s.players[id]; ok {
			return fmt.Errorf("player %s: %w", id, api.ErrDuplicate)
		}
		for _, p := range s.players {
			if p.Username == player.Username {
				return fmt.Errorf("player %s: %w", player.Username, api.ErrDuplicate)
			}
		}
		player.ID = id
		s.players[id] = clonePlayer(player)
		return nil
	})
}

func (r *playerRepository) LoadByID(ctx context.Context, id string) (*model.Player, error) {
	var ret *model.Player
	err := r.access(false, func(s *store) error {
		item, ok := s.players[id]
		if !ok {
			return api.ErrNoRows
		}
		ret = clonePlayer(item)
		return nil
	})
	return ret, err
}

//nolint:whitespace // can't make both editor and linter happy
func (r *playerRepository) LoadByUsername(
	ctx context.Context,
	username string,
) (*model.Player, error) {
	var ret *model.Player
	err := r.access(false, func(s *store) error {
		for _, p := range s.players {
			if p.Username == username {
				ret = clonePlayer(p)
				return nil
			}
		}
		return api.ErrNoRows
	})
	return ret, err
}

func (r *playerRepository) LoadAll(ctx context.Context) ([]*model.Player, error) {
	ret := make([]*model.Player, 0)
	err := r.access(false, func(s *store) error {
		for _, p := range s.players {
			ret = append(ret, clonePlayer(p))
		}
		return nil
	})
	slices.SortFunc(ret, func(a, b *model.Player) int {
		return strings.Compare(a.Username, b.Username)
	})
	return ret, err
}

func (r *playerRepository) Update(ctx context.Context, player *model.Player) error {
	return r.access(true, func(s *store) error {
		if _, ok := s.players[player.ID]; !ok {
			return api.ErrNoRows
		}
		s.players[player.ID] = clonePlayer(player)
		return nil
	})
}

func (r *playerRepository) DeleteByID(ctx context.Context, id string) (int, error) {
	ret := 0
	err := r.access(true, func(s *store) error {
		if _, ok := s.players[id]; ok {
			delete(s.players, id)
			ret = 1
		}
		return nil
	})
	return ret, err
}

func clonePlayer(p *model.Player) *model.Player {
	ret := *p
	return &ret
}

func cloneRace(r *model.Race) *model.Race {
	ret := *r
	if r.Track != nil {
		t := *r.Track
		t.Tiles = slices.Clone(r.Track.Tiles)
		t.PathOrder = slices.Clone(r.Track.PathOrder)
		ret.Track = &t
	}
	ret.Entries = make([]model.RaceEntry, len(r.Entries))
	for i, e := range r.Entries {
		if e.LockedCar != nil {
			c := *e.LockedCar
			e.LockedCar = &c
		}
		ret.Entries[i] = e
	}
	ret.Results = make([]model.EntryResult, len(r.Results))
	for i, res := range r.Results {
		res.PerSlot = maps.Clone(res.PerSlot)
		ret.Results[i] = res
	}
	return &ret
}
