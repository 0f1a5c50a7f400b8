package api

import (
	"context"
	"errors"

	"github.com/mpapenbr/gridrace-service-manager-go/pkg/model"
)

var (
	ErrNoRows    = errors.New("no rows in result set")
	ErrDuplicate = errors.New("duplicate entry")
)

type Repositories interface {
	Race() RaceRepository
	Player() PlayerRepository
	// RunInTx calls fn with repositories bound to a single transaction.
	// Changes are rolled back if fn returns an error.
	RunInTx(ctx context.Context, fn func(ctx context.Context, r Repositories) error) error
}

type RaceRepository interface {
	// Create stores a new race. ErrDuplicate is returned if the id exists.
	Create(ctx context.Context, race *model.Race) error
	LoadByID(ctx context.Context, id string) (*model.Race, error)
	// LoadAll returns all races ordered by scheduled time
	LoadAll(ctx context.Context) ([]*model.Race, error)
	// LoadByStatus returns the races in one of the given states ordered by scheduled time.
	// Without states all races are returned.
	LoadByStatus(ctx context.Context, status ...model.RaceStatus) ([]*model.Race, error)
	Exists(ctx context.Context, id string) (bool, error)
	Update(ctx context.Context, race *model.Race) error
	DeleteByID(ctx context.Context, id string) (int, error)
	DeleteAll(ctx context.Context) (int, error)
}

type PlayerRepository interface {
	// Create stores a new player. An empty id is generated.
	Create(ctx context.Context, player *model.Player) error
	LoadByID(ctx context.Context, id string) (*model.Player, error)
	LoadByUsername(ctx context.Context, username string) (*model.Player, error)
	LoadAll(ctx context.Context) ([]*model.Player, error)
	Update(ctx context.Context, player *model.Player) error
	DeleteByID(ctx context.Context, id string) (int, error)
}
