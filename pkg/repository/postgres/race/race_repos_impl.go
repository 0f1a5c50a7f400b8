package race

import (
	"context"

	"github.com/mpapenbr/gridrace-service-manager-go/pkg/model"
	"github.com/mpapenbr/gridrace-service-manager-go/pkg/repository"
	"github.com/mpapenbr/gridrace-service-manager-go/pkg/repository/api"
)

type raceRepository struct {
	conn repository.Querier
}

var _ api.RaceRepository = (*raceRepository)(nil)

func NewRaceRepository(conn repository.Querier) api.RaceRepository {
	return &raceRepository{conn: conn}
}

func (r *raceRepository) Create(ctx context.Context, race *model.Race) error {
	return Create(ctx, r.conn, race)
}

func (r *raceRepository) LoadByID(ctx context.Context, id string) (*model.Race, error) {
	return LoadByID(ctx, r.conn, id)
}

func (r *raceRepository) LoadAll(ctx context.Context) ([]*model.Race, error) {
	return LoadAll(ctx, r.conn)
}

//nolint:whitespace // can't make both editor and linter happy
func (r *raceRepository) LoadByStatus(
	ctx context.Context, status ...model.RaceStatus,
) ([]*model.Race, error) {
	return LoadByStatus(ctx, r.conn, status...)
}

func (r *raceRepository) Exists(ctx context.Context, id string) (bool, error) {
	return Exists(ctx, r.conn, id)
}

func (r *raceRepository) Update(ctx context.Context, race *model.Race) error {
	return Update(ctx, r.conn, race)
}

func (r *raceRepository) DeleteByID(ctx context.Context, id string) (int, error) {
	return DeleteByID(ctx, r.conn, id)
}

func (r *raceRepository) DeleteAll(ctx context.Context) (int, error) {
	return DeleteAll(ctx, r.conn)
}
