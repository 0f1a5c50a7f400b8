// Package postgres provides the repositories backed by a postgres database.
package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mpapenbr/gridrace-service-manager-go/pkg/repository"
	"github.com/mpapenbr/gridrace-service-manager-go/pkg/repository/api"
	"github.com/mpapenbr/gridrace-service-manager-go/pkg/repository/postgres/player"
	"github.com/mpapenbr/gridrace-service-manager-go/pkg/repository/postgres/race"
)

// beginner is satisfied by the pool and by transactions (as savepoints)
type beginner interface {
	repository.Querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

type pgRepositories struct {
	db               beginner
	raceRepository   api.RaceRepository
	playerRepository api.PlayerRepository
}

var _ api.Repositories = (*pgRepositories)(nil)

func NewRepositoriesFromPool(pool *pgxpool.Pool) api.Repositories {
	return newRepositories(pool)
}

func newRepositories(db beginner) *pgRepositories {
	return &pgRepositories{
		db:               db,
		raceRepository:   race.NewRaceRepository(db),
		playerRepository: player.NewPlayerRepository(db),
	}
}

func (r *pgRepositories) Race() api.RaceRepository {
	return r.raceRepository
}

func (r *pgRepositories) Player() api.PlayerRepository {
	return r.playerRepository
}

//nolint:whitespace // can't make both editor and linter happy
func (r *pgRepositories) RunInTx(
	ctx context.Context,
	fn func(ctx context.Context, repos api.Repositories) error,
) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, newRepositories(tx))
	})
}
