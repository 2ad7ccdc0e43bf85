package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blobb999/selfsustain/internal/eventstore"
)

type fakePublisher struct {
	mu          sync.Mutex
	transitions []string
}

func (f *fakePublisher) PublishTransition(service string, online bool, _ time.Duration, _ string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	state := "offline"
	if online {
		state = "online"
	}
	f.transitions = append(f.transitions, service+":"+state)
}

func okProbe(name string) Probe {
	return Probe{Name: name, Check: func(context.Context) error { return nil }}
}

func failProbe(name string) Probe {
	return Probe{Name: name, Check: func(context.Context) error { return errors.New("connection refused") }}
}

func TestNewSeedsAllServices(t *testing.T) {
	m := New([]Probe{okProbe("engine"), okProbe("flowise")}, time.Second, 10)

	snap := m.Snapshot()
	require.Len(t, snap.Services, 2)
	assert.False(t, snap.Ready)
	assert.Equal(t, "engine", snap.Services[0].Name)
	assert.False(t, snap.Services[0].Online)
	assert.True(t, snap.Services[0].LastChecked.IsZero())
}

func TestRunOnceFlipsStates(t *testing.T) {
	m := New([]Probe{okProbe("engine"), failProbe("llm")}, time.Second, 10)

	m.RunOnce(t.Context())

	snap := m.Snapshot()
	require.True(t, snap.Ready)

	byName := make(map[string]ServiceState)
	for _, s := range snap.Services {
		byName[s.Name] = s
	}
	assert.True(t, byName["engine"].Online)
	assert.False(t, byName["llm"].Online)
	assert.Equal(t, "connection refused", byName["llm"].LastError)
	assert.Len(t, snap.Samples["engine"], 1)
}

func TestTransitionsRecordedToStore(t *testing.T) {
	store, err := eventstore.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	flaky := true
	var mu sync.Mutex
	probe := Probe{Name: "engine", Check: func(context.Context) error {
		mu.Lock()
		defer mu.Unlock()
		if flaky {
			return nil
		}
		return errors.New("down")
	}}

	m := New([]Probe{probe}, time.Second, 10, WithStore(store))

	m.RunOnce(t.Context()) // first observation: offline -> online transition
	m.RunOnce(t.Context()) // steady state, no event
	mu.Lock()
	flaky = false
	mu.Unlock()
	m.RunOnce(t.Context()) // online -> offline transition

	events, err := store.GetBySubject(t.Context(), "engine")
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestPublisherSeesTransitions(t *testing.T) {
	pub := &fakePublisher{}
	m := New([]Probe{failProbe("flowise")}, time.Second, 10, WithPublisher(pub))

	m.RunOnce(t.Context())
	m.RunOnce(t.Context())

	pub.mu.Lock()
	defer pub.mu.Unlock()
	assert.Equal(t, []string{"flowise:offline"}, pub.transitions)
}

func TestProbeTimeoutBoundsCheck(t *testing.T) {
	probe := Probe{Name: "slow", Check: func(ctx context.Context) error {
		select {
		case <-time.After(5 * time.Second):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}}

	m := New([]Probe{probe}, 50*time.Millisecond, 10)

	start := time.Now()
	m.RunOnce(t.Context())
	assert.Less(t, time.Since(start), time.Second)
	assert.False(t, m.Snapshot().Services[0].Online)
}

func TestWindowCapEnforced(t *testing.T) {
	m := New([]Probe{okProbe("engine")}, time.Second, 3)

	for range 5 {
		m.RunOnce(t.Context())
	}

	assert.Len(t, m.Snapshot().Samples["engine"], 3)
}
