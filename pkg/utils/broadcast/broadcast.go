package broadcast

import (
	"context"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/mpapenbr/gridrace-service-manager-go/log"
)

const DefaultSendTimeout = 50 * time.Millisecond

// BroadcastServer distributes each value received from a source channel to all
// current subscribers. Slow subscribers miss values instead of blocking the others.
type BroadcastServer[T any] interface {
	Subscribe() <-chan T
	CancelSubscription(<-chan T)
	Close()
}

type broadcastServer[T any] struct {
	name           string
	source         <-chan T
	listeners      []chan T
	addListener    chan chan T
	removeListener chan (<-chan T)
	ctx            context.Context
	cancel         context.CancelFunc
	done           chan struct{}
	sendTimeout    time.Duration
	log            *log.Logger
	numRcv         atomic.Int64
	numSnd         atomic.Int64
	numSkip        atomic.Int64
	numListeners   atomic.Int64
	key            string
	registration   metric.Registration
}

type Option[T any] func(*broadcastServer[T])

// WithTelemetry registers observable gauges tagged with key
func WithTelemetry[T any](key string) Option[T] {
	return func(b *broadcastServer[T]) {
		b.key = key
	}
}

func WithSendTimeout[T any](d time.Duration) Option[T] {
	return func(b *broadcastServer[T]) {
		b.sendTimeout = d
	}
}

func WithLogger[T any](l *log.Logger) Option[T] {
	return func(b *broadcastServer[T]) {
		b.log = l
	}
}

//nolint:whitespace // can't make both editor and linter happy
func NewBroadcastServer[T any](
	name string,
	source <-chan T,
	opts ...Option[T],
) BroadcastServer[T] {
	ctx, cancel := context.WithCancel(context.Background())
	b := &broadcastServer[T]{
		name:           name,
		source:         source,
		addListener:    make(chan chan T),
		removeListener: make(chan (<-chan T)),
		ctx:            ctx,
		cancel:         cancel,
		done:           make(chan struct{}),
		sendTimeout:    DefaultSendTimeout,
		log:            log.Default().Named("broadcast"),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.key != "" {
		b.setupMetrics()
	}
	go b.serve()
	return b
}

// Subscribe returns a channel receiving all values from now on.
// On a closed server the returned channel is already closed.
func (b *broadcastServer[T]) Subscribe() <-chan T {
	ch := make(chan T)
	select {
	case b.addListener <- ch:
	case <-b.done:
		close(ch)
	}
	return ch
}

func (b *broadcastServer[T]) CancelSubscription(ch <-chan T) {
	select {
	case b.removeListener <- ch:
	case <-b.done:
	}
}

// Close stops the server and closes all subscriber channels
func (b *broadcastServer[T]) Close() {
	b.cancel()
	<-b.done
	b.log.Debug("broadcast server closed",
		log.String("name", b.name),
		log.Int64("rcv", b.numRcv.Load()),
		log.Int64("snd", b.numSnd.Load()),
		log.Int64("skip", b.numSkip.Load()))
	if b.registration != nil {
		if err := b.registration.Unregister(); err != nil {
			b.log.Warn("could not unregister metrics", log.ErrorField(err))
		}
	}
}

//nolint:lll // readability
func (b *broadcastServer[T]) setupMetrics() {
	meter := otel.GetMeterProvider().Meter("grs.broadcast")
	type data struct {
		name  string
		desc  string
		value *atomic.Int64
	}
	gauges := []*data{
		{"grs.broadcast.rcv", "Number of received messages", &b.numRcv},
		{"grs.broadcast.snd", "Number of sent messages", &b.numSnd},
		{"grs.broadcast.skip", "Number of skipped messages", &b.numSkip},
		{"grs.broadcast.listener", "Number of listeners", &b.numListeners},
	}
	type instrument struct {
		gauge metric.Int64ObservableGauge
		value *atomic.Int64
	}
	observables := make([]metric.Observable, 0, len(gauges))
	instruments := make([]instrument, 0, len(gauges))
	for _, d := range gauges {
		g, err := meter.Int64ObservableGauge(d.name,
			metric.WithDescription(d.desc),
			metric.WithUnit("{count}"))
		if err != nil {
			b.log.Error("failed to register metric",
				log.String("metric", d.name), log.ErrorField(err))
			continue
		}
		observables = append(observables, g)
		instruments = append(instruments, instrument{g, d.value})
	}
	attrs := metric.WithAttributes(
		attribute.String("name", b.name),
		attribute.String("key", b.key),
	)
	reg, err := meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		for _, i := range instruments {
			o.ObserveInt64(i.gauge, i.value.Load(), attrs)
		}
		return nil
	}, observables...)
	if err != nil {
		b.log.Error("failed to register metric callback", log.ErrorField(err))
		return
	}
	b.registration = reg
}

//nolint:cyclop // by design
func (b *broadcastServer[T]) serve() {
	defer func() {
		for _, listener := range b.listeners {
			close(listener)
		}
		b.listeners = nil
		b.numListeners.Store(0)
		close(b.done)
	}()
	for {
		select {
		case <-b.ctx.Done():
			return
		case ch := <-b.addListener:
			b.listeners = append(b.listeners, ch)
			b.numListeners.Store(int64(len(b.listeners)))
		case ch := <-b.removeListener:
			for i, listener := range b.listeners {
				if listener == ch {
					b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
					close(listener)
					break
				}
			}
			b.numListeners.Store(int64(len(b.listeners)))
		case msg, ok := <-b.source:
			if !ok {
				b.log.Debug("source closed", log.String("name", b.name))
				return
			}
			b.numRcv.Add(1)
			for _, listener := range b.listeners {
				select {
				case listener <- msg:
					b.numSnd.Add(1)
				case <-time.After(b.sendTimeout):
					b.numSkip.Add(1)
				}
			}
		}
	}
}
