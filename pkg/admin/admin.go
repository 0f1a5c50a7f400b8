// Package admin provides administrative requests to a running server via NATS.
package admin

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/mpapenbr/gridrace-service-manager-go/log"
)

const (
	SubjectReset   = "grs.admin.reset"
	DefaultTimeout = 30 * time.Second
)

type (
	Resetter interface {
		Reset(ctx context.Context) (int, error)
	}
	ResetReply struct {
		Created int    `json:"created"`
		Error   string `json:"error,omitempty"`
	}
)

// Serve answers reset requests with r until the subscription is drained or
// the connection is closed.
//
//nolint:whitespace // can't make both editor and linter happy
func Serve(
	ctx context.Context,
	conn *nats.Conn,
	r Resetter,
) (*nats.Subscription, error) {
	l := log.Default().Named("admin")
	return conn.Subscribe(SubjectReset, func(m *nats.Msg) {
		l.Info("reset requested")
		reply := handleReset(ctx, r)
		if err := m.Respond(reply); err != nil {
			l.Warn("could not respond to reset request", log.ErrorField(err))
		}
	})
}

// RequestReset asks the running server to reset the schedule and returns the
// number of created races.
func RequestReset(ctx context.Context, conn *nats.Conn) (int, error) {
	msg, err := conn.RequestWithContext(ctx, SubjectReset, nil)
	if err != nil {
		return 0, err
	}
	var reply ResetReply
	if err := json.Unmarshal(msg.Data, &reply); err != nil {
		return 0, err
	}
	if reply.Error != "" {
		return reply.Created, errors.New(reply.Error)
	}
	return reply.Created, nil
}

func handleReset(ctx context.Context, r Resetter) []byte {
	var reply ResetReply
	created, err := r.Reset(ctx)
	reply.Created = created
	if err != nil {
		reply.Error = err.Error()
	}
	//nolint:errchkjson // plain struct
	data, _ := json.Marshal(reply)
	return data
}
