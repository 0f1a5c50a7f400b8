package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/gridrace-service-manager-go/pkg/model"
	"github.com/mpapenbr/gridrace-service-manager-go/pkg/repository/api"
	"github.com/mpapenbr/gridrace-service-manager-go/pkg/track"
)

var errAbort = errors.New("abort")

func sampleRace(at time.Time, status model.RaceStatus) *model.Race {
	return &model.Race{
		ID:            model.RaceID(at),
		ScheduledTime: at,
		EventType:     model.EventSprint,
		Status:        status,
		EntryFee:      model.DefaultEntryFee,
		LapCount:      model.DefaultLapCount,
		GridSize:      8,
		Track:         track.Oval(12),
	}
}

func TestRace_CreateLoad(t *testing.T) {
	ctx := context.Background()
	repos := NewRepositories()
	at := time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC)
	r := sampleRace(at, model.StatusUpcoming)

	require.NoError(t, repos.Race().Create(ctx, r))
	assert.ErrorIs(t, repos.Race().Create(ctx, r), api.ErrDuplicate)

	got, err := repos.Race().LoadByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, r.ID, got.ID)
	assert.Equal(t, r.Track, got.Track)

	_, err = repos.Race().LoadByID(ctx, "unknown")
	assert.ErrorIs(t, err, api.ErrNoRows)

	ok, err := repos.Race().Exists(ctx, r.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRace_CopiesValues(t *testing.T) {
	ctx := context.Background()
	repos := NewRepositories()
	r := sampleRace(time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC), model.StatusOpen)
	require.NoError(t, repos.Race().Create(ctx, r))

	r.Status = model.StatusFinished
	r.Track.PathOrder[0] = model.Pos{99, 99}

	got, err := repos.Race().LoadByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusOpen, got.Status)
	assert.NotEqual(t, model.Pos{99, 99}, got.Track.PathOrder[0])

	got.Entries = append(got.Entries, model.RaceEntry{PlayerID: "p1"})
	again, err := repos.Race().LoadByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Empty(t, again.Entries)
}

func TestRace_LoadByStatusOrdered(t *testing.T) {
	ctx := context.Background()
	repos := NewRepositories()
	base := time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC)
	for i, st := range []model.RaceStatus{
		model.StatusOpen, model.StatusFinished, model.StatusUpcoming, model.StatusOpen,
	} {
		// inserted in reverse time order
		require.NoError(t, repos.Race().Create(ctx,
			sampleRace(base.Add(time.Duration(10-i)*10*time.Minute), st)))
	}
	got, err := repos.Race().LoadByStatus(ctx, model.StatusOpen, model.StatusUpcoming)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i := 1; i < len(got); i++ {
		assert.True(t, got[i-1].ScheduledTime.Before(got[i].ScheduledTime))
	}

	all, err := repos.Race().LoadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestRace_UpdateDelete(t *testing.T) {
	ctx := context.Background()
	repos := NewRepositories()
	r := sampleRace(time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC), model.StatusOpen)
	assert.ErrorIs(t, repos.Race().Update(ctx, r), api.ErrNoRows)
	require.NoError(t, repos.Race().Create(ctx, r))

	r.Status = model.StatusLocked
	require.NoError(t, repos.Race().Update(ctx, r))
	got, _ := repos.Race().LoadByID(ctx, r.ID)
	assert.Equal(t, model.StatusLocked, got.Status)

	n, err := repos.Race().DeleteByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = repos.Race().DeleteByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	require.NoError(t, repos.Race().Create(ctx, r))
	n, err = repos.Race().DeleteAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestPlayer_CRUD(t *testing.T) {
	ctx := context.Background()
	repos := NewRepositories()
	p := &model.Player{Username: "alice", Credits: model.StartingCredits, Car: model.DefaultCar()}
	require.NoError(t, repos.Player().Create(ctx, p))
	assert.NotEmpty(t, p.ID)

	dup := &model.Player{Username: "alice"}
	assert.ErrorIs(t, repos.Player().Create(ctx, dup), api.ErrDuplicate)

	got, err := repos.Player().LoadByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, p, got)

	got.Credits = 42
	require.NoError(t, repos.Player().Update(ctx, got))
	reloaded, err := repos.Player().LoadByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 42, reloaded.Credits)

	_, err = repos.Player().LoadByID(ctx, "bot_0")
	assert.ErrorIs(t, err, api.ErrNoRows)

	require.NoError(t, repos.Player().Create(ctx, &model.Player{Username: "aaron"}))
	all, err := repos.Player().LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "aaron", all[0].Username)

	n, err := repos.Player().DeleteByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRunInTx_Commit(t *testing.T) {
	ctx := context.Background()
	repos := NewRepositories()
	r := sampleRace(time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC), model.StatusOpen)

	err := repos.RunInTx(ctx, func(ctx context.Context, tx api.Repositories) error {
		if err := tx.Race().Create(ctx, r); err != nil {
			return err
		}
		return tx.Player().Create(ctx, &model.Player{Username: "bob"})
	})
	require.NoError(t, err)

	ok, _ := repos.Race().Exists(ctx, r.ID)
	assert.True(t, ok)
	_, err = repos.Player().LoadByUsername(ctx, "bob")
	assert.NoError(t, err)
}

func TestRunInTx_Rollback(t *testing.T) {
	ctx := context.Background()
	repos := NewRepositories()
	r := sampleRace(time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC), model.StatusOpen)
	require.NoError(t, repos.Race().Create(ctx, r))

	err := repos.RunInTx(ctx, func(ctx context.Context, tx api.Repositories) error {
		item, err := tx.Race().LoadByID(ctx, r.ID)
		if err != nil {
			return err
		}
		item.Status = model.StatusFinished
		if err := tx.Race().Update(ctx, item); err != nil {
			return err
		}
		// visible inside the transaction
		inTx, _ := tx.Race().LoadByID(ctx, r.ID)
		assert.Equal(t, model.StatusFinished, inTx.Status)
		return errAbort
	})
	assert.ErrorIs(t, err, errAbort)

	got, err := repos.Race().LoadByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusOpen, got.Status)
}

func TestRunInTx_NestedRollback(t *testing.T) {
	ctx := context.Background()
	repos := NewRepositories()

	err := repos.RunInTx(ctx, func(ctx context.Context, tx api.Repositories) error {
		if err := tx.Player().Create(ctx, &model.Player{Username: "outer"}); err != nil {
			return err
		}
		nestedErr := tx.RunInTx(ctx, func(ctx context.Context, inner api.Repositories) error {
			_ = inner.Player().Create(ctx, &model.Player{Username: "inner"})
			return errAbort
		})
		assert.ErrorIs(t, nestedErr, errAbort)
		return nil
	})
	require.NoError(t, err)

	all, err := repos.Player().LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "outer", all[0].Username)
}
