// Package broadcast delivers race messages to spectators.
package broadcast

import (
	"context"
	"errors"

	"github.com/mpapenbr/gridrace-service-manager-go/log"
	"github.com/mpapenbr/gridrace-service-manager-go/pkg/model"
)

// Sink accepts the messages of a race. Implementations must be safe for concurrent use.
type Sink interface {
	Broadcast(ctx context.Context, raceID string, msg *model.RaceMessage) error
}

// SinkFunc adapts a function to a Sink
type SinkFunc func(ctx context.Context, raceID string, msg *model.RaceMessage) error

//nolint:whitespace // can't make both editor and linter happy
func (f SinkFunc) Broadcast(
	ctx context.Context, raceID string, msg *model.RaceMessage,
) error {
	return f(ctx, raceID, msg)
}

type multi []Sink

// Multi sends each message to all sinks. Every sink is called even if
// another one fails, the errors are joined.
func Multi(sinks ...Sink) Sink {
	return multi(sinks)
}

//nolint:whitespace // can't make both editor and linter happy
func (m multi) Broadcast(
	ctx context.Context, raceID string, msg *model.RaceMessage,
) error {
	var errs []error
	for _, s := range m {
		if err := s.Broadcast(ctx, raceID, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops all messages
var Discard Sink = SinkFunc(func(context.Context, string, *model.RaceMessage) error {
	return nil
})

// Log writes status and finished messages to l. Ticks are logged on debug level.
func Log(l *log.Logger) Sink {
	return SinkFunc(func(_ context.Context, raceID string, msg *model.RaceMessage) error {
		switch msg.Type {
		case model.MTTick:
			if l.Enabled(log.DebugLevel) && msg.Tick != nil {
				l.Debug("tick", log.String("race", raceID), log.Int("tick", msg.Tick.Tick))
			}
		case model.MTFinished:
			l.Info("race results",
				log.String("race", raceID), log.Int("results", len(msg.Results)))
		default:
			l.Info("race status",
				log.String("race", raceID), log.String("status", string(msg.Status)))
		}
		return nil
	})
}
