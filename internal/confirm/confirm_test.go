package confirm

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/meydan/internal/apperror"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func counter(n *int32) Apply {
	return func(context.Context) (any, error) {
		return atomic.AddInt32(n, 1), nil
	}
}

func TestConfirmApplies(t *testing.T) {
	r := New(0)
	var applied int32

	p := r.Propose(KindFollow, "user_2", "follow سارة علي?", counter(&applied))
	assert.Equal(t, StatePending, p.State)
	assert.Equal(t, KindFollow, p.Kind)
	assert.Equal(t, int32(0), atomic.LoadInt32(&applied), "nothing happens before confirm")

	out, err := r.Confirm(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, StateCommitted, out.State)
	assert.Equal(t, int32(1), out.Result)
	assert.Equal(t, int32(1), atomic.LoadInt32(&applied))

	got, err := r.Get(p.ID)
	require.NoError(t, err)
	assert.Equal(t, StateCommitted, got.State)
}

func TestCancelDiscards(t *testing.T) {
	r := New(0)
	var applied int32
	p := r.Propose(KindBlock, "u3", "", counter(&applied))

	out, err := r.Cancel(p.ID)
	require.NoError(t, err)
	assert.Equal(t, StateCancelled, out.State)

	_, err = r.Confirm(context.Background(), p.ID)
	assert.ErrorIs(t, err, apperror.ErrConflict)
	assert.Equal(t, int32(0), atomic.LoadInt32(&applied))
}

func TestResolvedStatesAreTerminal(t *testing.T) {
	r := New(0)
	var applied int32
	p := r.Propose(KindDelete, "p1", "", counter(&applied))

	_, err := r.Confirm(context.Background(), p.ID)
	require.NoError(t, err)

	_, err = r.Confirm(context.Background(), p.ID)
	assert.ErrorIs(t, err, apperror.ErrConflict)
	_, err = r.Cancel(p.ID)
	assert.ErrorIs(t, err, apperror.ErrConflict)
	assert.Equal(t, int32(1), atomic.LoadInt32(&applied))
}

func TestUnknownID(t *testing.T) {
	r := New(time.Minute)
	_, err := r.Confirm(context.Background(), "nope")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	_, err = r.Cancel("nope")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	_, err = r.Get("nope")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestExpiry(t *testing.T) {
	c := &clock{t: time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)}
	var observed []State
	r := New(time.Minute, WithClock(c.now), WithObserver(func(_ Kind, s State) {
		observed = append(observed, s)
	}))

	var applied int32
	p := r.Propose(KindLogout, "", "", counter(&applied))
	assert.Equal(t, c.t.Add(time.Minute), p.ExpiresAt)

	c.advance(2 * time.Minute)
	_, err := r.Confirm(context.Background(), p.ID)
	assert.ErrorIs(t, err, apperror.ErrExpired)
	assert.Equal(t, int32(0), atomic.LoadInt32(&applied))
	assert.Equal(t, []State{StateExpired}, observed)

	got, err := r.Get(p.ID)
	require.NoError(t, err)
	assert.Equal(t, StateExpired, got.State)

	// an old resolved entry is forgotten on the next proposal
	c.advance(2 * time.Minute)
	r.Propose(KindLogout, "", "", counter(&applied))
	_, err = r.Get(p.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestApplyFailure(t *testing.T) {
	var observed []State
	r := New(0, WithObserver(func(_ Kind, s State) { observed = append(observed, s) }))
	boom := errors.New("boom")

	p := r.Propose(KindFollow, "u4", "", func(context.Context) (any, error) { return nil, boom })
	out, err := r.Confirm(context.Background(), p.ID)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, StateFailed, out.State)
	assert.Equal(t, []State{StateFailed}, observed)
}

func TestConcurrentConfirmAppliesOnce(t *testing.T) {
	r := New(0)
	var applied int32
	p := r.Propose(KindFollow, "u4", "", counter(&applied))

	var wg sync.WaitGroup
	var ok int32
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.Confirm(context.Background(), p.ID); err == nil {
				atomic.AddInt32(&ok, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), ok)
	assert.Equal(t, int32(1), atomic.LoadInt32(&applied))
}

func TestReset(t *testing.T) {
	r := New(0)
	p := r.Propose(KindReport, "p3", "", counter(new(int32)))
	r.Reset()
	_, err := r.Get(p.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestResetFromInsideConfirm(t *testing.T) {
	r := New(0)
	other := r.Propose(KindDelete, "p1", "", counter(new(int32)))
	self := r.Propose(KindLogout, "", "", func(context.Context) (any, error) {
		r.Reset()
		return nil, nil
	})

	out, err := r.Confirm(context.Background(), self.ID)
	require.NoError(t, err)
	assert.Equal(t, StateCommitted, out.State)

	got, err := r.Get(self.ID)
	require.NoError(t, err)
	assert.Equal(t, StateCommitted, got.State)

	_, err = r.Confirm(context.Background(), other.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
