package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruvenwang/mindponics/internal/domain"
	"github.com/ruvenwang/mindponics/internal/usecase/eventbus"
	"github.com/ruvenwang/mindponics/internal/usecase/multiagent"
)

type fakeAsker struct {
	calls atomic.Int32
	delay time.Duration
	err   error

	mu   sync.Mutex
	last multiagent.Request
}

func (f *fakeAsker) Ask(ctx context.Context, req multiagent.Request) (*multiagent.Answer, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.last = req
	f.mu.Unlock()
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &multiagent.Answer{
		RequestID: "req",
		Query:     req.Query,
		Reports: []*domain.Report{
			{Specialty: domain.SpecialtyWater, Summary: "ok"},
			{Specialty: domain.SpecialtyBacteria, Unavailable: true},
		},
	}, nil
}

func TestParseSchedule(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"*/15 * * * *", false},
		{"@hourly", false},
		{"15m", false},
		{"250ms", false},
		{"", true},
		{"-5m", true},
		{"every so often", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			_, err := ParseSchedule(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	s, err := ParseSchedule("90s")
	require.NoError(t, err)
	now := time.Now()
	assert.Equal(t, now.Add(90*time.Second), s.Next(now))
}

func TestNew_Validation(t *testing.T) {
	_, err := New(&fakeAsker{}, Config{Schedule: "1m"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = New(&fakeAsker{}, Config{Schedule: "sometimes", Query: "q"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRunOnce_PublishesEvent(t *testing.T) {
	bus := eventbus.New(nil)
	var events []domain.Event
	var mu sync.Mutex
	bus.Subscribe(domain.EventMonitorFired, func(_ context.Context, e domain.Event) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, e)
	})

	asker := &fakeAsker{}
	var got *multiagent.Answer
	m, err := New(asker, Config{
		Schedule: "1h",
		Query:    "check the system",
		State:    domain.AgentState{domain.StateFishSpecies: "tilapia"},
	}, WithBus(bus), OnAnswer(func(a *multiagent.Answer, _ error) { got = a }))
	require.NoError(t, err)

	answer, err := m.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Same(t, answer, got)
	assert.Equal(t, "check the system", asker.last.Query)
	assert.Equal(t, "tilapia", asker.last.State[domain.StateFishSpecies])
	bus.Close()

	require.Len(t, events, 1)
	var p domain.MonitorFiredPayload
	require.NoError(t, json.Unmarshal(events[0].Payload, &p))
	assert.Equal(t, "req", p.RequestID)
	assert.Equal(t, "1h", p.Schedule)
	assert.Equal(t, []domain.Specialty{domain.SpecialtyBacteria}, p.Unavailable)
	assert.Empty(t, p.Error)
}

func TestRunOnce_Error(t *testing.T) {
	bus := eventbus.New(nil)
	var payload domain.MonitorFiredPayload
	bus.Subscribe(domain.EventMonitorFired, func(_ context.Context, e domain.Event) {
		_ = json.Unmarshal(e.Payload, &payload)
	})
	m, err := New(&fakeAsker{err: errors.New("rate limit exceeded")}, Config{Schedule: "1h", Query: "q"}, WithBus(bus))
	require.NoError(t, err)

	_, err = m.RunOnce(context.Background())
	assert.EqualError(t, err, "rate limit exceeded")
	bus.Close()
	assert.Equal(t, "rate limit exceeded", payload.Error)
}

func TestRunOnce_Timeout(t *testing.T) {
	m, err := New(&fakeAsker{delay: time.Second}, Config{Schedule: "1h", Query: "q", Timeout: 20 * time.Millisecond})
	require.NoError(t, err)
	_, err = m.RunOnce(context.Background())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMonitor_FiresOnSchedule(t *testing.T) {
	asker := &fakeAsker{}
	m, err := New(asker, Config{Schedule: "30ms", Query: "q"})
	require.NoError(t, err)

	m.Start(context.Background())
	m.Start(context.Background())
	time.Sleep(150 * time.Millisecond)
	m.Stop()
	m.Stop()

	fired := asker.calls.Load()
	assert.GreaterOrEqual(t, fired, int32(2))
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, fired, asker.calls.Load(), "no cycles after Stop")
}

func TestMonitor_SkipsOverlappingCycles(t *testing.T) {
	asker := &fakeAsker{delay: 120 * time.Millisecond}
	m, err := New(asker, Config{Schedule: "20ms", Query: "q"})
	require.NoError(t, err)

	m.Start(context.Background())
	time.Sleep(100 * time.Millisecond)
	m.Stop()

	assert.Equal(t, int32(1), asker.calls.Load())
}
