// Package nats publishes race messages to NATS subjects and keeps the latest
// race status in a JetStream key-value bucket.
package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/mpapenbr/gridrace-service-manager-go/log"
	"github.com/mpapenbr/gridrace-service-manager-go/pkg/model"
)

const (
	DefaultBucket = "races"
	SubjectPrefix = "race"
)

var ErrNoStatus = errors.New("no status for race")

type (
	Sink struct {
		conn   *nats.Conn
		kv     jetstream.KeyValue
		bucket string
		ttl    time.Duration
		l      *log.Logger
	}
	Option func(*Sink)
)

func WithLogger(l *log.Logger) Option {
	return func(s *Sink) {
		s.l = l
	}
}

func WithBucket(name string) Option {
	return func(s *Sink) {
		s.bucket = name
	}
}

// WithTTL sets how long the latest status of a race is kept
func WithTTL(d time.Duration) Option {
	return func(s *Sink) {
		s.ttl = d
	}
}

// Connect opens a connection which keeps reconnecting until closed
func Connect(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("grs"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second))
}

func New(conn *nats.Conn, opts ...Option) (*Sink, error) {
	ret := &Sink{
		conn:   conn,
		bucket: DefaultBucket,
		ttl:    24 * time.Hour,
		l:      log.Default().Named("broadcast.nats"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	if err := ret.setupKV(); err != nil {
		return nil, err
	}
	return ret, nil
}

func (s *Sink) Conn() *nats.Conn {
	return s.conn
}

func (s *Sink) Close() {
	s.conn.Close()
}

// Subject returns the subject the messages of raceID are published on
func Subject(raceID string) string {
	return fmt.Sprintf("%s.%s", SubjectPrefix, raceID)
}

// Key returns the bucket key for raceID. Colons are not allowed in keys.
func Key(raceID string) string {
	return strings.ReplaceAll(raceID, ":", "-")
}

// Broadcast publishes msg as JSON. Status and finished messages are also
// stored as the latest status of the race, ticks are only published.
//
//nolint:whitespace // can't make both editor and linter happy
func (s *Sink) Broadcast(
	ctx context.Context, raceID string, msg *model.RaceMessage,
) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal race message: %w", err)
	}
	if err := s.conn.Publish(Subject(raceID), data); err != nil {
		return fmt.Errorf("publish race message: %w", err)
	}
	if msg.Type == model.MTTick {
		return nil
	}
	rev, err := s.kv.Put(ctx, Key(raceID), data)
	if err != nil {
		return fmt.Errorf("store race status: %w", err)
	}
	s.l.Debug("race status stored",
		log.String("race", raceID),
		log.String("type", string(msg.Type)),
		log.Uint64("rev", rev))
	return nil
}

// Status returns the latest status or finished message of raceID
func (s *Sink) Status(ctx context.Context, raceID string) (*model.RaceMessage, error) {
	entry, err := s.kv.Get(ctx, Key(raceID))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, ErrNoStatus
		}
		return nil, err
	}
	var msg model.RaceMessage
	if err := json.Unmarshal(entry.Value(), &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// Subscribe calls handler for each message published for raceID
//
//nolint:whitespace // can't make both editor and linter happy
func (s *Sink) Subscribe(
	raceID string, handler func(*model.RaceMessage),
) (*nats.Subscription, error) {
	return s.conn.Subscribe(Subject(raceID), func(m *nats.Msg) {
		var msg model.RaceMessage
		if err := json.Unmarshal(m.Data, &msg); err != nil {
			s.l.Warn("could not decode race message",
				log.String("subject", m.Subject), log.ErrorField(err))
			return
		}
		handler(&msg)
	})
}

func (s *Sink) setupKV() error {
	js, err := jetstream.New(s.conn)
	if err != nil {
		return err
	}
	s.kv, err = js.CreateOrUpdateKeyValue(context.Background(), jetstream.KeyValueConfig{
		Bucket: s.bucket,
		TTL:    s.ttl,
	})
	return err
}
