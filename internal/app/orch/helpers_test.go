package orch

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dkeye/hotspot/internal/core"
	"github.com/dkeye/hotspot/internal/domain"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

var errQueueFull = errors.New("queue full")

// recConn records every envelope it is handed.
type recConn struct {
	mu     sync.Mutex
	frames []core.Envelope
	full   bool
	closed bool
}

func (c *recConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.full {
		return errQueueFull
	}
	var env core.Envelope
	if err := json.Unmarshal(f, &env); err != nil {
		return err
	}
	c.frames = append(c.frames, env)
	return nil
}

func (c *recConn) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *recConn) setFull(full bool) {
	c.mu.Lock()
	c.full = full
	c.mu.Unlock()
}

func (c *recConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *recConn) events(name string) []core.Envelope {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []core.Envelope
	for _, env := range c.frames {
		if env.Event == name {
			out = append(out, env)
		}
	}
	return out
}

func (c *recConn) count(name string) int { return len(c.events(name)) }

func (c *recConn) total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

func decodeData[T any](t *testing.T, env core.Envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func start(t *testing.T, messages core.MessageStore, profiles core.ProfileStore, opts Options) *Orchestrator {
	t.Helper()
	o := New(messages, profiles, opts)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = o.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return o
}

// barrier returns once every event submitted before it has run.
func barrier(t *testing.T, o *Orchestrator) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	_, err := o.Stats(ctx)
	require.NoError(t, err)
}

func connect(t *testing.T, o *Orchestrator, user domain.UserID) (core.ConnectionID, *recConn) {
	t.Helper()
	c := &recConn{}
	id := o.Connect(c, user)
	barrier(t, o)
	require.Equal(t, 1, c.count("welcome"))
	return id, c
}

// mockStore is a MessageStore whose answers are scripted per test.
type mockStore struct {
	mock.Mock
}

func (m *mockStore) Append(ctx context.Context, msg domain.Message) (domain.Message, error) {
	args := m.Called(ctx, msg)
	out, _ := args.Get(0).(domain.Message)
	return out, args.Error(1)
}

func (m *mockStore) Recent(ctx context.Context, room domain.RoomName, limit int) ([]domain.Message, error) {
	args := m.Called(ctx, room, limit)
	out, _ := args.Get(0).([]domain.Message)
	return out, args.Error(1)
}
