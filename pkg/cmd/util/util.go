// Package util contains the setup steps shared by the commands.
package util

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/mpapenbr/gridrace-service-manager-go/log"
	"github.com/mpapenbr/gridrace-service-manager-go/pkg/config"
	"github.com/mpapenbr/gridrace-service-manager-go/pkg/db/postgres"
	"github.com/mpapenbr/gridrace-service-manager-go/pkg/repository/api"
	"github.com/mpapenbr/gridrace-service-manager-go/pkg/repository/memory"
	pgrepos "github.com/mpapenbr/gridrace-service-manager-go/pkg/repository/postgres"
	"github.com/mpapenbr/gridrace-service-manager-go/pkg/utils"
)

func ParseLogLevel(l string, defaultVal log.Level) log.Level {
	level, err := log.ParseLevel(l)
	if err != nil {
		return defaultVal
	}
	return level
}

// SetupLogger creates the application logger and the logger for sql statements
// from the config values. The application logger becomes the default logger.
func SetupLogger() (logger, sqlLogger *log.Logger) {
	opts := []log.Option{log.WithCaller(true), log.AddCallerSkip(1)}
	if config.LogFilter != "" {
		filter, err := log.WithFilter(config.LogFilter)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid log filter %q: %v\n", config.LogFilter, err)
		} else {
			opts = append(opts, filter)
		}
	}
	switch config.LogFormat {
	case "json":
		logger = log.New(
			os.Stderr,
			ParseLogLevel(config.LogLevel, log.InfoLevel),
			opts...)
		sqlLogger = log.New(
			os.Stderr,
			ParseLogLevel(config.SQLLogLevel, log.InfoLevel),
			opts...)
	default:
		logger = log.DevLogger(
			os.Stderr,
			ParseLogLevel(config.LogLevel, log.DebugLevel),
			opts...)
		sqlLogger = log.DevLogger(
			os.Stderr,
			ParseLogLevel(config.SQLLogLevel, log.InfoLevel),
			opts...)
	}
	log.ResetDefault(logger)
	return logger, sqlLogger
}

// WaitForRequiredServices waits for the database (if used) and NATS (if configured)
func WaitForRequiredServices() {
	timeout, err := time.ParseDuration(config.WaitForServices)
	if err != nil {
		log.Warn("Invalid duration value. Setting default 60s", log.ErrorField(err))
		timeout = 60 * time.Second
	}

	wg := sync.WaitGroup{}
	checkTCP := func(addr string) {
		defer wg.Done()
		if err := utils.WaitForTCP(addr, timeout); err != nil {
			log.Fatal("required services not ready", log.ErrorField(err))
		}
	}

	if config.Store == config.StorePostgres {
		if postgresAddr := utils.ExtractFromDBURL(config.DB); postgresAddr != "" {
			wg.Add(1)
			go checkTCP(postgresAddr)
		}
	}
	if natsAddr := utils.ExtractFromNatsURL(config.NatsURL); natsAddr != "" {
		wg.Add(1)
		go checkTCP(natsAddr)
	}
	log.Debug("Waiting for connection checks to return")
	wg.Wait()
	log.Debug("Required services are available")
}

// OpenRepositories returns the repositories selected by config.Store.
// The returned func releases the resources.
//
//nolint:whitespace // can't make both editor and linter happy
func OpenRepositories(
	ctx context.Context,
	opts ...postgres.PoolConfigOption,
) (api.Repositories, func(), error) {
	switch config.Store {
	case config.StoreMemory:
		log.Info("Using in-memory store, data is lost on exit")
		return memory.NewRepositories(), func() {}, nil
	case config.StorePostgres, "":
		pool, err := postgres.NewPool(ctx, config.DB, opts...)
		if err != nil {
			return nil, nil, err
		}
		return pgrepos.NewRepositoriesFromPool(pool), pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store %q", config.Store)
	}
}
