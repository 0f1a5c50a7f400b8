package server

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof" //nolint:gosec // by design
	"os"
	"os/signal"
	"runtime"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	otlpruntime "go.opentelemetry.io/contrib/instrumentation/runtime"

	"github.com/mpapenbr/gridrace-service-manager-go/log"
	"github.com/mpapenbr/gridrace-service-manager-go/pkg/admin"
	"github.com/mpapenbr/gridrace-service-manager-go/pkg/bots"
	"github.com/mpapenbr/gridrace-service-manager-go/pkg/broadcast"
	natssink "github.com/mpapenbr/gridrace-service-manager-go/pkg/broadcast/nats"
	"github.com/mpapenbr/gridrace-service-manager-go/pkg/cmd/util"
	"github.com/mpapenbr/gridrace-service-manager-go/pkg/config"
	"github.com/mpapenbr/gridrace-service-manager-go/pkg/db/postgres"
	"github.com/mpapenbr/gridrace-service-manager-go/pkg/model"
	"github.com/mpapenbr/gridrace-service-manager-go/pkg/schedule"
	"github.com/mpapenbr/gridrace-service-manager-go/pkg/scheduler"
	"github.com/mpapenbr/gridrace-service-manager-go/pkg/tickstream"
)

//nolint:funlen // by design
func NewServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "starts the race scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			return startServer(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&config.NatsURL,
		"nats-url",
		"",
		"NATS server receiving the race messages (empty: messages are only logged)")
	cmd.Flags().StringVar(&config.ScheduleFile,
		"schedule-file",
		"",
		"timetable file (yaml or json), empty uses a race every 10 minutes")
	cmd.Flags().IntVar(&config.Window,
		"window",
		scheduler.DefaultWindow,
		"number of upcoming races kept registered")
	cmd.Flags().IntVar(&config.BotTarget,
		"bot-target",
		bots.DefaultTarget,
		"races are filled up with bots to this number of entrants")
	cmd.Flags().StringVar(&config.LockLead,
		"lock-lead",
		scheduler.DefaultLockLead.String(),
		"entries are locked this duration before the race start")
	cmd.Flags().StringVar(&config.TickInterval,
		"tick-interval",
		tickstream.DefaultTickInterval.String(),
		"duration of a race tick")
	cmd.Flags().StringVar(&config.SQLLogLevel,
		"sql-log-level",
		"debug",
		"controls the log level for sql methods")
	cmd.Flags().BoolVar(&config.EnableTelemetry,
		"enable-telemetry",
		false,
		"enables telemetry")
	cmd.Flags().StringVar(&config.TelemetryEndpoint,
		"telemetry-endpoint",
		"localhost:4317",
		"Endpoint that receives open telemetry data (use 'stdout' for local output)")
	cmd.Flags().IntVar(&config.ProfilingPort,
		"profiling-port",
		0,
		"port to use for providing profiling data")
	return cmd
}

//nolint:funlen,cyclop // by design
func startServer(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	_, sqlLogger := util.SetupLogger()
	var telemetry *config.Telemetry

	log.Debug("Config:",
		log.String("db", config.DB),
		log.String("store", config.Store),
		log.String("nats", config.NatsURL),
		log.String("schedule", config.ScheduleFile),
		log.Int("window", config.Window),
	)

	if config.ProfilingPort > 0 {
		log.Info("Starting profiling server on port", log.Int("port", config.ProfilingPort))
		go func() {
			//nolint:gosec // by design
			err := http.ListenAndServe(
				fmt.Sprintf("localhost:%d", config.ProfilingPort),
				nil)
			if err != nil {
				log.Error("Profiling server stopped", log.ErrorField(err))
			}
		}()
	}

	util.WaitForRequiredServices()

	pgTraceOption := postgres.WithTracer(sqlLogger.Named("db"), log.DebugLevel)
	if config.EnableTelemetry {
		log.Info("Enabling telemetry")
		var err error
		if telemetry, err = config.SetupTelemetry(ctx); err == nil {
			pgTraceOption = postgres.WithOtlpTracer()
		} else {
			log.Warn("Could not setup telemetry", log.ErrorField(err))
		}
		err = otlpruntime.Start(otlpruntime.WithMinimumReadMemStatsInterval(time.Second))
		if err != nil {
			log.Warn("Could not start runtime metrics", log.ErrorField(err))
		}
	}

	repos, closeRepos, err := util.OpenRepositories(ctx, pgTraceOption)
	if err != nil {
		log.Error("could not open store", log.ErrorField(err))
		return err
	}
	defer closeRepos()

	sinks := []broadcast.Sink{broadcast.Log(log.Default().Named("race"))}
	var natsSink *natssink.Sink
	if config.NatsURL != "" {
		conn, err := natssink.Connect(config.NatsURL)
		if err != nil {
			log.Error("could not connect to NATS", log.ErrorField(err))
			return err
		}
		if natsSink, err = natssink.New(conn); err != nil {
			conn.Close()
			log.Error("could not setup NATS sink", log.ErrorField(err))
			return err
		}
		defer natsSink.Close()
		sinks = append(sinks, natsSink)
	}

	var current atomic.Pointer[scheduler.Scheduler]
	provider, err := setupSchedule(ctx, func(*model.Schedule) {
		sched := current.Load()
		if sched == nil {
			return
		}
		if _, err := sched.RegisterWindow(ctx); err != nil {
			log.Error("could not register window after timetable change",
				log.ErrorField(err))
		}
	})
	if err != nil {
		return err
	}

	sched := scheduler.New(
		scheduler.WithRepositories(repos),
		scheduler.WithSink(broadcast.Multi(sinks...)),
		scheduler.WithSchedule(provider),
		scheduler.WithWindow(config.Window),
		scheduler.WithBotTarget(config.BotTarget),
		scheduler.WithLockLead(parseDuration(config.LockLead, scheduler.DefaultLockLead)),
		scheduler.WithTickInterval(
			parseDuration(config.TickInterval, tickstream.DefaultTickInterval)),
	)
	if err := sched.Start(ctx); err != nil {
		log.Error("scheduler could not be started", log.ErrorField(err))
		return err
	}
	current.Store(sched)
	if natsSink != nil {
		sub, err := admin.Serve(ctx, natsSink.Conn(), sched)
		if err != nil {
			log.Warn("admin requests not available", log.ErrorField(err))
		} else {
			defer func() { _ = sub.Unsubscribe() }()
		}
	}
	log.Info("Server started")
	setupGoRoutinesDump()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	select {
	case v := <-sigChan:
		log.Debug("Got signal ", log.Any("signal", v))
	case <-ctx.Done():
	}
	cancel()
	sched.Stop()
	if telemetry != nil {
		telemetry.Shutdown()
	}

	log.Info("Server terminated")
	return nil
}

// setupSchedule returns the timetable provider. A configured file is watched
// for changes, onChange is called after each successful reload.
//
//nolint:whitespace // can't make both editor and linter happy
func setupSchedule(
	ctx context.Context,
	onChange func(*model.Schedule),
) (*schedule.Provider, error) {
	if config.ScheduleFile == "" {
		return schedule.NewProvider(schedule.Default()), nil
	}
	s, err := schedule.Load(config.ScheduleFile)
	if err != nil {
		log.Error("could not load timetable",
			log.String("file", config.ScheduleFile), log.ErrorField(err))
		return nil, err
	}
	provider := schedule.NewProvider(s, schedule.WithOnChange(onChange))
	go func() {
		if err := provider.Watch(ctx, config.ScheduleFile); err != nil {
			log.Error("timetable watch stopped", log.ErrorField(err))
		}
	}()
	log.Info("Using timetable",
		log.String("file", config.ScheduleFile), log.Int("slots", len(s.Slots)))
	return provider, nil
}

func parseDuration(s string, defaultVal time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		log.Warn("Invalid duration value, using default",
			log.String("value", s), log.Duration("default", defaultVal))
		return defaultVal
	}
	return d
}

func setupGoRoutinesDump() {
	go func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGQUIT)
		buf := make([]byte, 1<<20)
		for {
			<-sigs
			stacklen := runtime.Stack(buf, true)
			fmt.Printf("=== received SIGQUIT ===\n*** goroutine dump...\n%s\n*** end\n",
				buf[:stacklen])
		}
	}()
}
