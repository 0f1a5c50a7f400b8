package log

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RespectsLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	l := New(buf, InfoLevel)
	l.Debug("hidden")
	l.Info("visible", String("race", "2026-10-16_10:00"))
	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "visible")
	assert.Contains(t, out, `"race":"2026-10-16_10:00"`)
}

func TestWithFilter(t *testing.T) {
	opt, err := WithFilter("*:scheduler")
	require.NoError(t, err)

	buf := &bytes.Buffer{}
	l := New(buf, DebugLevel, opt)
	l.Named("scheduler").Info("from scheduler")
	l.Named("tickstream").Info("from tickstream")

	out := buf.String()
	assert.Contains(t, out, "from scheduler")
	assert.False(t, strings.Contains(out, "from tickstream"))
}

func TestWithFilter_InvalidRules(t *testing.T) {
	_, err := WithFilter("unknownlevel:*")
	assert.Error(t, err)
}

func TestGetFromContext(t *testing.T) {
	assert.Same(t, Default(), GetFromContext(context.Background()))

	l := New(&bytes.Buffer{}, InfoLevel)
	ctx := AddToContext(context.Background(), l)
	assert.Same(t, l, GetFromContext(ctx))
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, WarnLevel, lvl)

	_, err = ParseLevel("chatty")
	assert.Error(t, err)
}
