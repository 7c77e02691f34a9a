//go:build unix

package bootstrap

import (
	"context"
	"os"
	"syscall"
	"testing"
	"time"

	"heartbeatd/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestApp_WaitForShutdownOnSignal(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	app, err := NewApp(context.Background(), Options{
		Config:  config.Options{EnvFiles: []string{}},
		LogCore: core,
		Signals: []os.Signal{syscall.SIGUSR1},
	})
	require.NoError(t, err)
	defer app.Shutdown()

	done := make(chan struct{})
	go func() {
		app.WaitForShutdown(context.Background())
		close(done)
	}()

	proc, err := os.FindProcess(os.Getpid())
	require.NoError(t, err)
	require.NoError(t, proc.Signal(syscall.SIGUSR1))

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("WaitForShutdown did not observe the signal")
	}

	entries := logs.FilterMessage("Shutdown signal received").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "user defined signal 1", entries[0].ContextMap()["signal"])
}

func TestApp_SignalDuringStartupIsHandled(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	app, err := NewApp(context.Background(), Options{
		Config: config.Options{
			EnvFiles:  []string{},
			Overrides: map[string]interface{}{"heartbeat.interval": time.Hour},
		},
		LogCore: core,
		Signals: []os.Signal{syscall.SIGUSR1},
	})
	require.NoError(t, err)

	// SIGUSR1 terminates the process unless the handler is already installed
	proc, err := os.FindProcess(os.Getpid())
	require.NoError(t, err)
	require.NoError(t, proc.Signal(syscall.SIGUSR1))

	done := make(chan error, 1)
	go func() { done <- app.Run(context.Background()) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return for a signal received before it started")
	}

	assert.Equal(t, 1, logs.FilterMessage("Shutdown signal received").Len())
	assert.Equal(t, 1, logs.FilterMessage("Shutdown complete").Len())
}
