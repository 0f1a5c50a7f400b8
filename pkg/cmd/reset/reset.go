package reset

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/gridrace-service-manager-go/log"
	"github.com/mpapenbr/gridrace-service-manager-go/pkg/admin"
	natssink "github.com/mpapenbr/gridrace-service-manager-go/pkg/broadcast/nats"
	"github.com/mpapenbr/gridrace-service-manager-go/pkg/cmd/util"
	"github.com/mpapenbr/gridrace-service-manager-go/pkg/config"
	"github.com/mpapenbr/gridrace-service-manager-go/pkg/schedule"
	"github.com/mpapenbr/gridrace-service-manager-go/pkg/scheduler"
)

func NewResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "removes all races and registers a new window",
		Long: `Removes all races and registers a new window of upcoming races.
If a NATS server is configured the running server performs the reset,
otherwise the store is reset directly.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return doReset(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&config.NatsURL,
		"nats-url",
		"",
		"NATS server of the running server")
	cmd.Flags().StringVar(&config.ScheduleFile,
		"schedule-file",
		"",
		"timetable file used for a direct reset")
	cmd.Flags().IntVar(&config.Window,
		"window",
		scheduler.DefaultWindow,
		"number of races registered by a direct reset")
	return cmd
}

func doReset(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	util.SetupLogger()
	util.WaitForRequiredServices()

	var (
		created int
		err     error
	)
	if config.NatsURL != "" {
		created, err = remoteReset(ctx)
	} else {
		created, err = directReset(ctx)
	}
	if err != nil {
		log.Error("reset failed", log.ErrorField(err))
		return err
	}
	log.Info("Reset done", log.Int("races", created))
	return nil
}

func remoteReset(ctx context.Context) (int, error) {
	conn, err := natssink.Connect(config.NatsURL)
	if err != nil {
		return 0, err
	}
	defer conn.Close()
	reqCtx, cancel := context.WithTimeout(ctx, admin.DefaultTimeout)
	defer cancel()
	return admin.RequestReset(reqCtx, conn)
}

func directReset(ctx context.Context) (int, error) {
	if config.Store == config.StoreMemory {
		log.Warn("Resetting the in-memory store has no effect on a running server")
	}
	repos, closeRepos, err := util.OpenRepositories(ctx)
	if err != nil {
		return 0, err
	}
	defer closeRepos()

	s := schedule.Default()
	if config.ScheduleFile != "" {
		if s, err = schedule.Load(config.ScheduleFile); err != nil {
			return 0, err
		}
	}
	sched := scheduler.New(
		scheduler.WithRepositories(repos),
		scheduler.WithSchedule(schedule.NewProvider(s)),
		scheduler.WithWindow(config.Window),
	)
	defer sched.Stop()
	return sched.Reset(ctx)
}
