package config

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestSetupTelemetry_Stdout(t *testing.T) {
	TelemetryEndpoint = StdoutEndpoint
	defer func() { TelemetryEndpoint = "" }()

	tel, err := SetupTelemetry(context.Background())
	require.NoError(t, err)
	counter, err := otel.Meter("test").Int64Counter("grs.test")
	require.NoError(t, err)
	counter.Add(context.Background(), 1)
	tel.Shutdown()
}
