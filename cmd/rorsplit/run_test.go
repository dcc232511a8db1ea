package main

import (
	"context"
	"net"
	"testing"
	"time"

	"rorsplit/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() config.Config {
	cfg := config.Default()
	cfg.ProcessName = "rorsplit-absent"
	cfg.TickRate = 100
	return cfg
}

func TestRun_TelemetryBindFailureEndsRun(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	cfg := testConfig()
	cfg.Listen = ln.Addr().String()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = run(ctx, cfg, true)
	require.Error(t, err)
	assert.ErrorContains(t, err, "telemetry")
	assert.NoError(t, ctx.Err(), "the run ended on its own")
}

func TestRun_CancelIsCleanExit(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	assert.NoError(t, run(ctx, testConfig(), true))
}

func TestRun_CancelWithTelemetry(t *testing.T) {
	cfg := testConfig()
	cfg.Listen = "127.0.0.1:0"

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	assert.NoError(t, run(ctx, cfg, true))
}
