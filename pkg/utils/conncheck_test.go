package utils

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractFromDBURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"postgresql://user:pw@db:5433/gridrace", "db:5433"},
		{"postgres://user:pw@db/gridrace?sslmode=disable", "db:5432"},
		{"mysql://user:pw@db/gridrace", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExtractFromDBURL(tt.url), tt.url)
	}
}

func TestExtractFromNatsURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"nats://localhost:4223", "localhost:4223"},
		{"nats://nats", "nats:4222"},
		{"nats://user:pw@nats", "nats:4222"},
		{"http://nats:4222", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExtractFromNatsURL(tt.url), tt.url)
	}
}

func TestWaitForTCP(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	assert.NoError(t, WaitForTCP(ln.Addr().String(), time.Second))

	addr := ln.Addr().String()
	ln.Close()
	assert.Error(t, WaitForTCP(addr, 300*time.Millisecond))
}
