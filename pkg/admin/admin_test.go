package admin

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/gridrace-service-manager-go/pkg/broadcast/nats"
	"github.com/mpapenbr/gridrace-service-manager-go/testsupport/tcnats"
)

type resetFunc func(ctx context.Context) (int, error)

func (f resetFunc) Reset(ctx context.Context) (int, error) {
	return f(ctx)
}

func TestHandleReset(t *testing.T) {
	var reply ResetReply
	data := handleReset(context.Background(), resetFunc(func(context.Context) (int, error) {
		return 30, nil
	}))
	require.NoError(t, json.Unmarshal(data, &reply))
	assert.Equal(t, ResetReply{Created: 30}, reply)

	data = handleReset(context.Background(), resetFunc(func(context.Context) (int, error) {
		return 0, errors.New("db down")
	}))
	require.NoError(t, json.Unmarshal(data, &reply))
	assert.Equal(t, "db down", reply.Error)
}

func TestRequestReset(t *testing.T) {
	if testing.Short() {
		t.Skip("needs a nats container")
	}
	ctx := context.Background()
	c, err := tcnats.SetupNats(ctx)
	require.NoError(t, err)
	defer func() { _ = c.Terminate(ctx) }()

	conn, err := nats.Connect(c.URL)
	require.NoError(t, err)
	defer conn.Close()

	sub, err := Serve(ctx, conn, resetFunc(func(context.Context) (int, error) {
		return 12, nil
	}))
	require.NoError(t, err)
	defer func() { _ = sub.Unsubscribe() }()

	reqCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	created, err := RequestReset(reqCtx, conn)
	require.NoError(t, err)
	assert.Equal(t, 12, created)
}
