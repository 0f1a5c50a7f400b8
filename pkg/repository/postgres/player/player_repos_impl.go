package player

import (
	"context"

	"github.com/mpapenbr/gridrace-service-manager-go/pkg/model"
	"github.com/mpapenbr/gridrace-service-manager-go/pkg/repository"
	"github.com/mpapenbr/gridrace-service-manager-go/pkg/repository/api"
)

type playerRepository struct {
	conn repository.Querier
}

var _ api.PlayerRepository = (*playerRepository)(nil)

func NewPlayerRepository(conn repository.Querier) api.PlayerRepository {
	return &playerRepository{conn: conn}
}

func (r *playerRepository) Create(ctx context.Context, player *model.Player) error {
	return Create(ctx, r.conn, player)
}

func (r *playerRepository) LoadByID(ctx context.Context, id string) (*model.Player, error) {
	return LoadByID(ctx, r.conn, id)
}

//nolint:whitespace // can't make both editor and linter happy
func (r *playerRepository) LoadByUsername(
	ctx context.Context, username string,
) (*model.Player, error) {
	return LoadByUsername(ctx, r.conn, username)
}

func (r *playerRepository) LoadAll(ctx context.Context) ([]*model.Player, error) {
	return LoadAll(ctx, r.conn)
}

func (r *playerRepository) Update(ctx context.Context, player *model.Player) error {
	return Update(ctx, r.conn, player)
}

func (r *playerRepository) DeleteByID(ctx context.Context, id string) (int, error) {
	return DeleteByID(ctx, r.conn, id)
}
