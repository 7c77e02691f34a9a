package heartbeat

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedService(t *testing.T, opts ...Option) (*Service, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	return NewService(Config{}, zap.New(core).Sugar(), opts...), logs
}

type recordingObserver struct {
	mu      sync.Mutex
	started int
	beats   []time.Time
}

func (r *recordingObserver) Started() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started++
}

func (r *recordingObserver) Beat(at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.beats = append(r.beats, at)
}

func TestNewService_Defaults(t *testing.T) {
	svc := NewService(Config{}, nil)

	assert.Equal(t, StateNotStarted, svc.State())
	assert.Equal(t, uint64(0), svc.Beats())
	assert.True(t, svc.StartedAt().IsZero())
	assert.Equal(t, time.Duration(0), svc.Uptime())
}

func TestOnStart_LogsGreetingOnce(t *testing.T) {
	svc, logs := newObservedService(t)

	svc.OnStart()
	svc.OnStart()

	infos := logs.FilterLevelExact(zapcore.InfoLevel).All()
	require.Len(t, infos, 1)
	assert.Equal(t, DefaultStartupMessage, infos[0].Message)
	assert.Equal(t, 1, logs.FilterMessage("Heartbeat service already started, ignoring OnStart").Len())
	assert.Equal(t, StateRunning, svc.State())
}

func TestOnTick_BeforeStartIsDropped(t *testing.T) {
	svc, logs := newObservedService(t)

	svc.OnTick()

	assert.Equal(t, uint64(0), svc.Beats())
	assert.Equal(t, 0, logs.FilterMessage(DefaultMessage).Len())
	assert.Equal(t, 1, logs.FilterLevelExact(zapcore.WarnLevel).Len())
}

func TestOnTick_LogsHeartbeatAfterStart(t *testing.T) {
	svc, logs := newObservedService(t)

	svc.OnStart()
	svc.OnTick()
	svc.OnTick()

	beats := logs.FilterMessage(DefaultMessage).All()
	require.Len(t, beats, 2)
	assert.Equal(t, uint64(1), beats[0].ContextMap()["beat"])
	assert.Equal(t, uint64(2), beats[1].ContextMap()["beat"])
	assert.Equal(t, uint64(2), svc.Beats())

	// startup record precedes every heartbeat record
	all := logs.All()
	assert.Equal(t, DefaultStartupMessage, all[0].Message)
}

func TestService_CustomMessages(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	svc := NewService(Config{StartupMessage: "hello", Message: "alive"}, zap.New(core).Sugar())

	svc.OnStart()
	svc.OnTick()

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "hello", logs.All()[0].Message)
	assert.Equal(t, "alive", logs.All()[1].Message)
}

func TestService_NotifiesObserver(t *testing.T) {
	obs := &recordingObserver{}
	fixed := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	svc, _ := newObservedService(t, WithObserver(obs), WithClock(func() time.Time { return fixed }))

	svc.OnTick()
	svc.OnStart()
	svc.OnStart()
	svc.OnTick()

	assert.Equal(t, 1, obs.started)
	require.Len(t, obs.beats, 1)
	assert.Equal(t, fixed, obs.beats[0])
}

func TestService_Uptime(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	svc := NewService(Config{}, nil, WithClock(clock))

	svc.OnStart()
	now = now.Add(150 * time.Second)

	assert.Equal(t, 150*time.Second, svc.Uptime())
	assert.Equal(t, time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), svc.StartedAt().UTC())
}

func TestTask_SkipsCancelledContext(t *testing.T) {
	svc, logs := newObservedService(t)
	svc.OnStart()

	task := svc.Task()
	task(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	task(ctx)

	assert.Equal(t, uint64(1), svc.Beats())
	assert.Equal(t, 1, logs.FilterMessage(DefaultMessage).Len())
}

func TestService_ConcurrentTicks(t *testing.T) {
	svc, logs := newObservedService(t)
	svc.OnStart()

	const n = 50
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			svc.OnTick()
		}()
	}
	wg.Wait()

	assert.Equal(t, uint64(n), svc.Beats())
	assert.Equal(t, n, logs.FilterMessage(DefaultMessage).Len())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "NOT_STARTED", StateNotStarted.String())
	assert.Equal(t, "RUNNING", StateRunning.String())
	assert.Equal(t, "UNKNOWN", State(7).String())
}
