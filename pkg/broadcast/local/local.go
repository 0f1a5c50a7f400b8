// Package local distributes race messages to in-process subscribers.
package local

import (
	"context"
	"sort"
	"sync"

	"github.com/mpapenbr/gridrace-service-manager-go/log"
	"github.com/mpapenbr/gridrace-service-manager-go/pkg/model"
	"github.com/mpapenbr/gridrace-service-manager-go/pkg/utils/broadcast"
)

type (
	Hub struct {
		mu        sync.Mutex
		races     map[string]*raceChannel
		log       *log.Logger
		telemetry bool
	}
	Option func(*Hub)

	raceChannel struct {
		source chan *model.RaceMessage
		server broadcast.BroadcastServer[*model.RaceMessage]
		closed chan struct{}
	}
)

func WithLogger(l *log.Logger) Option {
	return func(h *Hub) {
		h.log = l
	}
}

// WithTelemetry enables the broadcast gauges for each race channel
func WithTelemetry(enabled bool) Option {
	return func(h *Hub) {
		h.telemetry = enabled
	}
}

func New(opts ...Option) *Hub {
	h := &Hub{
		races: make(map[string]*raceChannel),
		log:   log.Default().Named("broadcast.local"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Subscribe returns a channel receiving the messages of raceID.
// The channel is closed after the finished message or when cancel is called.
func (h *Hub) Subscribe(raceID string) (ch <-chan *model.RaceMessage, cancel func()) {
	rc := h.channel(raceID)
	ch = rc.server.Subscribe()
	return ch, func() { rc.server.CancelSubscription(ch) }
}

// Broadcast sends msg to the current subscribers of raceID.
// The race channel is released after the finished message.
//
//nolint:whitespace // can't make both editor and linter happy
func (h *Hub) Broadcast(
	ctx context.Context, raceID string, msg *model.RaceMessage,
) error {
	rc := h.channel(raceID)
	select {
	case rc.source <- msg:
	case <-rc.closed:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
	if msg.Type == model.MTFinished {
		h.release(raceID)
	}
	return nil
}

// Races returns the ids of races with an open channel
func (h *Hub) Races() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	ret := make([]string, 0, len(h.races))
	for id := range h.races {
		ret = append(ret, id)
	}
	sort.Strings(ret)
	return ret
}

func (h *Hub) Close() {
	for _, id := range h.Races() {
		h.release(id)
	}
}

func (h *Hub) channel(raceID string) *raceChannel {
	h.mu.Lock()
	defer h.mu.Unlock()
	if rc, ok := h.races[raceID]; ok {
		return rc
	}
	source := make(chan *model.RaceMessage)
	opts := []broadcast.Option[*model.RaceMessage]{
		broadcast.WithLogger[*model.RaceMessage](h.log),
	}
	if h.telemetry {
		opts = append(opts, broadcast.WithTelemetry[*model.RaceMessage]("race"))
	}
	rc := &raceChannel{
		source: source,
		server: broadcast.NewBroadcastServer(raceID, source, opts...),
		closed: make(chan struct{}),
	}
	h.races[raceID] = rc
	h.log.Debug("race channel created", log.String("race", raceID))
	return rc
}

func (h *Hub) release(raceID string) {
	h.mu.Lock()
	rc, ok := h.races[raceID]
	delete(h.races, raceID)
	h.mu.Unlock()
	if !ok {
		return
	}
	close(rc.closed)
	rc.server.Close()
	h.log.Debug("race channel released", log.String("race", raceID))
}
