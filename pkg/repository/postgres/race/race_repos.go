//nolint:whitespace // can't make both editor and linter happy
package race

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/lo"

	"github.com/mpapenbr/gridrace-service-manager-go/pkg/model"
	"github.com/mpapenbr/gridrace-service-manager-go/pkg/repository"
	"github.com/mpapenbr/gridrace-service-manager-go/pkg/repository/api"
)

var selector = `select r.id, r.scheduled_time, r.event_type, r.status, r.entry_fee,
	r.lap_count, r.grid_size, r.track, r.entries, r.results
	from race r`

func Create(ctx context.Context, conn repository.Querier, race *model.Race) error {
	_, err := conn.Exec(ctx, `
	insert into race (
		id, scheduled_time, event_type, status, entry_fee,
		lap_count, grid_size, track, entries, results
	) values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`,
		race.ID, race.ScheduledTime, race.EventType, string(race.Status), race.EntryFee,
		race.LapCount, race.GridSize, race.Track,
		orEmpty(race.Entries), orEmpty(race.Results),
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return fmt.Errorf("race %s: %w", race.ID, api.ErrDuplicate)
	}
	return err
}

func LoadByID(ctx context.Context, conn repository.Querier, id string) (
	*model.Race, error,
) {
	row := conn.QueryRow(ctx, fmt.Sprintf("%s where r.id=$1", selector), id)
	ret, err := readData(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, api.ErrNoRows
	}
	return ret, err
}

func LoadAll(ctx context.Context, conn repository.Querier) ([]*model.Race, error) {
	return loadMany(ctx, conn, fmt.Sprintf("%s order by r.scheduled_time asc, r.id asc", selector))
}

func LoadByStatus(
	ctx context.Context,
	conn repository.Querier,
	status ...model.RaceStatus,
) ([]*model.Race, error) {
	if len(status) == 0 {
		return LoadAll(ctx, conn)
	}
	states := lo.Map(status, func(s model.RaceStatus, _ int) string { return string(s) })
	return loadMany(ctx, conn,
		fmt.Sprintf("%s where r.status = any($1) order by r.scheduled_time asc, r.id asc",
			selector),
		states)
}

func Exists(ctx context.Context, conn repository.Querier, id string) (bool, error) {
	var ret bool
	err := conn.QueryRow(ctx, "select exists(select 1 from race where id=$1)", id).Scan(&ret)
	return ret, err
}

func Update(ctx context.Context, conn repository.Querier, race *model.Race) error {
	cmdTag, err := conn.Exec(ctx, `
	update race set
		scheduled_time=$2, event_type=$3, status=$4, entry_fee=$5,
		lap_count=$6, grid_size=$7, track=$8, entries=$9, results=$10
	where id=$1
	`,
		race.ID, race.ScheduledTime, race.EventType, string(race.Status), race.EntryFee,
		race.LapCount, race.GridSize, race.Track,
		orEmpty(race.Entries), orEmpty(race.Results),
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
	cmdTag, err := conn.Exec(ctx, "delete from race where id=$1", id)
	if err != nil {
		return 0, err
	}
	return int(cmdTag.RowsAffected()), nil
}

func DeleteAll(ctx context.Context, conn repository.Querier) (int, error) {
	cmdTag, err := conn.Exec(ctx, "delete from race")
	if err != nil {
		return 0, err
	}
	return int(cmdTag.RowsAffected()), nil
}

func loadMany(
	ctx context.Context,
	conn repository.Querier,
	sql string,
	args ...any,
) ([]*model.Race, error) {
	rows, err := conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ret := make([]*model.Race, 0)
	for rows.Next() {
		item, err := readData(rows)
		if err != nil {
			return nil, err
		}
		ret = append(ret, item)
	}
	return ret, rows.Err()
}

func readData(row pgx.Row) (*model.Race, error) {
	var ret model.Race
	var status string
	if err := row.Scan(
		&ret.ID, &ret.ScheduledTime, &ret.EventType, &status, &ret.EntryFee,
		&ret.LapCount, &ret.GridSize, &ret.Track, &ret.Entries, &ret.Results,
	); err != nil {
		return nil, err
	}
	ret.Status = model.RaceStatus(status)
	ret.ScheduledTime = ret.ScheduledTime.UTC()
	return &ret, nil
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
