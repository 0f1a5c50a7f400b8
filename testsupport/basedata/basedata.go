package basedata

import (
	"context"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mpapenbr/gridrace-service-manager-go/pkg/model"
	playerrepos "github.com/mpapenbr/gridrace-service-manager-go/pkg/repository/postgres/player"
	racerepos "github.com/mpapenbr/gridrace-service-manager-go/pkg/repository/postgres/race"
	"github.com/mpapenbr/gridrace-service-manager-go/pkg/track"
)

func TestTime() time.Time {
	t, _ := time.Parse(time.RFC3339, "2026-10-16T10:00:00Z")
	return t
}

func SampleRace() *model.Race {
	return &model.Race{
		ID:            model.RaceID(TestTime()),
		ScheduledTime: TestTime(),
		EventType:     model.EventSprint,
		Status:        model.StatusOpen,
		EntryFee:      model.DefaultEntryFee,
		LapCount:      model.DefaultLapCount,
		GridSize:      8,
		Track:         track.Generate(8, track.WithSeed(42)),
		Entries:       []model.RaceEntry{},
		Results:       []model.EntryResult{},
	}
}

func SamplePlayer() *model.Player {
	return &model.Player{
		Username:  "testplayer",
		Credits:   model.StartingCredits,
		Materials: model.StartingMaterials,
		Car:       model.DefaultCar(),
	}
}

func CreateSampleRace(db *pgxpool.Pool) *model.Race {
	r := SampleRace()
	if err := racerepos.Create(context.Background(), db, r); err != nil {
		log.Fatalf("CreateSampleRace: %v\n", err)
	}
	return r
}

func CreateSamplePlayer(db *pgxpool.Pool) *model.Player {
	p := SamplePlayer()
	if err := playerrepos.Create(context.Background(), db, p); err != nil {
		log.Fatalf("CreateSamplePlayer: %v\n", err)
	}
	return p
}
