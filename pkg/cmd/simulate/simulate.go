package simulate

import (
	"context"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/gridrace-service-manager-go/log"
	"github.com/mpapenbr/gridrace-service-manager-go/pkg/broadcast/local"
	"github.com/mpapenbr/gridrace-service-manager-go/pkg/cmd/util"
	"github.com/mpapenbr/gridrace-service-manager-go/pkg/model"
	"github.com/mpapenbr/gridrace-service-manager-go/pkg/repository/memory"
	"github.com/mpapenbr/gridrace-service-manager-go/pkg/scheduler"
	"github.com/mpapenbr/gridrace-service-manager-go/pkg/tickstream"
)

type simOptions struct {
	eventType    string
	laps         int
	grid         int
	players      int
	botTarget    int
	tickInterval time.Duration
	pacing       time.Duration
	at           string
}

func NewSimulateCmd() *cobra.Command {
	opts := simOptions{}
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "runs a single race in memory and prints progress and results",
		RunE: func(cmd *cobra.Command, args []string) error {
			util.SetupLogger()
			return runSimulation(cmd.Context(), cmd.OutOrStdout(), &opts)
		},
	}
	cmd.Flags().StringVar(&opts.eventType, "event", model.EventSprint, "event type")
	cmd.Flags().IntVar(&opts.laps, "laps", model.DefaultLapCount, "number of laps")
	cmd.Flags().IntVar(&opts.grid, "grid", model.DefaultGridSize, "grid size")
	cmd.Flags().IntVar(&opts.players, "players", 2, "number of players entering the race")
	cmd.Flags().IntVar(&opts.botTarget, "bot-target", 8, "fill the race up to this number")
	cmd.Flags().DurationVar(&opts.tickInterval,
		"tick-interval", tickstream.DefaultTickInterval, "duration of a race tick")
	cmd.Flags().DurationVar(&opts.pacing, "pacing", 0, "delay between tick messages")
	cmd.Flags().StringVar(&opts.at, "at", "",
		"scheduled time (RFC3339), used to derive the race id. Default: now")
	return cmd
}

//nolint:funlen // by design
func runSimulation(ctx context.Context, w io.Writer, opts *simOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	at := time.Now().UTC().Truncate(time.Minute)
	if opts.at != "" {
		var err error
		if at, err = time.Parse(time.RFC3339, opts.at); err != nil {
			return err
		}
	}
	id := model.RaceID(at)
	repos := memory.NewRepositories()
	hub := local.New()
	defer hub.Close()

	sched := scheduler.New(
		scheduler.WithRepositories(repos),
		scheduler.WithSink(hub),
		scheduler.WithWindow(1),
		scheduler.WithBotTarget(opts.botTarget),
		scheduler.WithTickInterval(opts.tickInterval),
		scheduler.WithPacing(opts.pacing),
		scheduler.WithLogger(log.Default().Named("simulate")),
	)
	defer sched.Stop()

	slot := model.ScheduleSlot{
		Time:      at.Format("15:04"),
		EventType: opts.eventType,
		LapCount:  opts.laps,
		GridSize:  opts.grid,
	}
	if _, err := sched.EnsureRace(ctx, id, at, slot); err != nil {
		return err
	}
	if err := enterPlayers(ctx, repos, id, opts.players, at); err != nil {
		return err
	}

	msgs, cancel := hub.Subscribe(id)
	done := make(chan struct{})
	go func() {
		defer close(done)
		printProgress(w, msgs)
	}()
	err := sched.RunRace(ctx, id)
	cancel()
	<-done
	if err != nil {
		return err
	}

	race, err := repos.Race().LoadByID(ctx, id)
	if err != nil {
		return err
	}
	return printResults(w, race)
}

//nolint:whitespace // can't make both editor and linter happy
func enterPlayers(
	ctx context.Context,
	repos *memory.Repositories,
	raceID string,
	n int,
	at time.Time,
) error {
	race, err := repos.Race().LoadByID(ctx, raceID)
	if err != nil {
		return err
	}
	for i := range n {
		p := &model.Player{
			Username: fmt.Sprintf("player%d", i+1),
			Car:      model.DefaultCar(),
		}
		if err := repos.Player().Create(ctx, p); err != nil {
			return err
		}
		race.Entries = append(race.Entries, model.RaceEntry{
			PlayerID:  p.ID,
			Username:  p.Username,
			EnteredAt: at.Add(-time.Duration(n-i) * time.Minute),
		})
	}
	return repos.Race().Update(ctx, race)
}

// printProgress reports the leader once per completed lap
func printProgress(w io.Writer, msgs <-chan *model.RaceMessage) {
	lastLap := 0
	for msg := range msgs {
		switch msg.Type {
		case model.MTStatus:
			fmt.Fprintf(w, "race %s\n", msg.Status)
		case model.MTTick:
			if msg.Tick == nil || len(msg.Cars) == 0 {
				continue
			}
			leader := msg.Cars[0]
			for _, c := range msg.Cars[1:] {
				if c.Progress > leader.Progress {
					leader = c
				}
			}
			lap := int(leader.Progress * float64(msg.LapCount))
			if lap > lastLap {
				lastLap = lap
				fmt.Fprintf(w, "tick %4d: lap %d/%d leader %s (%.0f mph)\n",
					msg.Tick.Tick, min(lap, msg.LapCount), msg.LapCount,
					leader.Username, leader.Speed)
			}
		case model.MTFinished:
			fmt.Fprintf(w, "race finished, %d results\n", len(msg.Results))
			return
		}
	}
}

func printResults(w io.Writer, race *model.Race) error {
	results := append([]model.EntryResult{}, race.Results...)
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Position < results[j].Position
	})
	fmt.Fprintf(w, "\n%s %s, %d laps on %d tiles\n",
		race.ID, race.EventType, race.LapCount, race.Track.Len())
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "pos\tdriver\tscore\tquality\tfit\treadiness\tluck\tcf pos\tstatus")
	for i := range results {
		r := &results[i]
		status := "finished"
		if r.DNF {
			status = "dnf (" + r.DNFSlot + ")"
		}
		fmt.Fprintf(tw, "%d\t%s\t%.2f\t%.1f\t%.1f\t%.1f\t%s\t%d\t%s\n",
			r.Position, r.Username, r.ResultScore, r.BuildQuality, r.EventFit,
			r.ReadinessScore, r.LuckTag, r.CounterfactualPosition, status)
	}
	return tw.Flush()
}
