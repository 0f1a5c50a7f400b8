//nolint:whitespace // can't make both editor and linter happy
package player

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mpapenbr/gridrace-service-manager-go/pkg/model"
	"github.com/mpapenbr/gridrace-service-manager-go/pkg/repository"
	"github.com/mpapenbr/gridrace-service-manager-go/pkg/repository/api"
)

var selector = `select p.id, p.username, p.credits, p.materials, p.races_entered, p.car
	from player p`

// Create stores player. If player.ID is empty a new id is generated and
// assigned to player.
func Create(ctx context.Context, conn repository.Querier, player *model.Player) error {
	var id uuid.UUID
	var err error
	if player.ID == "" {
		if id, err = uuid.NewV4(); err != nil {
			return err
		}
	} else if id, err = uuid.FromString(player.ID); err != nil {
		return fmt.Errorf("invalid player id %q: %w", player.ID, err)
	}
	_, err = conn.Exec(ctx, `
	insert into player (
		id, username, credits, materials, races_entered, car
	) values ($1,$2,$3,$4,$5,$6)
	`,
		id, player.Username, player.Credits, player.Materials, player.RacesEntered, player.Car,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return fmt.Errorf("player %s: %w", player.Username, api.ErrDuplicate)
	}
	if err != nil {
		return err
	}
	player.ID = id.String()
	return nil
}

// LoadByID returns api.ErrNoRows for ids which are no valid uuid
func LoadByID(ctx context.Context, conn repository.Querier, id string) (
	*model.Player, error,
) {
	uid, err := uuid.FromString(id)
	if err != nil {
		return nil, api.ErrNoRows
	}
	return loadOne(ctx, conn, fmt.Sprintf("%s where p.id=$1", selector), uid)
}

func LoadByUsername(ctx context.Context, conn repository.Querier, username string) (
	*model.Player, error,
) {
	return loadOne(ctx, conn, fmt.Sprintf("%s where p.username=$1", selector), username)
}

func LoadAll(ctx context.Context, conn repository.Querier) ([]*model.Player, error) {
	rows, err := conn.Query(ctx, fmt.Sprintf("%s order by p.username asc", selector))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ret := make([]*model.Player, 0)
	for rows.Next() {
		item, err := readData(rows)
		if err != nil {
			return nil, err
		}
		ret = append(ret, item)
	}
	return ret, rows.Err()
}

func Update(ctx context.Context, conn repository.Querier, player *model.Player) error {
	uid, err := uuid.FromString(player.ID)
	if err != nil {
		return api.ErrNoRows
	}
	cmdTag, err := conn.Exec(ctx, `
	update player set
		username=$2, credits=$3, materials=$4, races_entered=$5, car=$6
	where id=$1
	`,
		uid, player.Username, player.Credits, player.Materials, player.RacesEntered, player.Car,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return api.ErrNoRows
	}
	return nil
}

// deletes an entry from the database, returns number of rows deleted.
func DeleteByID(ctx context.Context, conn repository.Querier, id string) (int, error) {
	uid, err := uuid.FromString(id)
	if err != nil {
		return 0, nil
	}
	cmdTag, err := conn.Exec(ctx, "delete from player where id=$1", uid)
	if err != nil {
		return 0, err
	}
	return int(cmdTag.RowsAffected()), nil
}

func loadOne(ctx context.Context, conn repository.Querier, sql string, arg any) (
	*model.Player, error,
) {
	ret, err := readData(conn.QueryRow(ctx, sql, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, api.ErrNoRows
	}
	return ret, err
}

func readData(row pgx.Row) (*model.Player, error) {
	var ret model.Player
	var id uuid.UUID
	if err := row.Scan(
		&id, &ret.Username, &ret.Credits, &ret.Materials, &ret.RacesEntered, &ret.Car,
	); err != nil {
		return nil, err
	}
	ret.ID = id.String()
	return &ret, nil
}
