// Package confirm implements the two-step "are you sure?" pattern once for
// every action that needs it.
//
// A caller proposes an action together with the mutation that performs it.
// Nothing changes until the pending entry is confirmed; cancelling discards it.
//
//	idle ──Propose──▶ pending ──Confirm──▶ committed
//	                     │
//	                     ├──Cancel───▶ cancelled
//	                     └──(ttl)────▶ expired
//
// Every resolved state is terminal. Confirming twice does not apply the
// mutation twice.
package confirm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/meydan/internal/apperror"
)

// Kind names the action awaiting confirmation.
type Kind string

const (
	KindFollow   Kind = "follow"
	KindUnfollow Kind = "unfollow"
	KindBlock    Kind = "block"
	KindDelete   Kind = "delete_post"
	KindReport   Kind = "report_post"
	KindLogout   Kind = "logout"
)

type State string

const (
	StatePending   State = "pending"
	StateCommitted State = "committed"
	StateCancelled State = "cancelled"
	StateFailed    State = "failed"
	StateExpired   State = "expired"
)

// Apply performs the confirmed mutation and returns whatever the caller
// should see as the outcome.
type Apply func(ctx context.Context) (any, error)

// Pending is the public view of a proposal.
type Pending struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	SubjectID string    `json:"subjectId,omitempty"`
	Prompt    string    `json:"prompt,omitempty"`
	State     State     `json:"state"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
}

// Outcome is returned when a proposal is resolved.
type Outcome struct {
	Pending
	Result any `json:"result,omitempty"`
}

// Observer is told about every resolution. outcome is one of the State values.
// It may be called with the registry lock held and must not call back into it.
type Observer func(kind Kind, outcome State)

type entry struct {
	Pending
	apply Apply
}

// Registry holds proposals. It is safe for concurrent use.
type Registry struct {
	mu       sync.Mutex
	entries  map[string]*entry
	ttl      time.Duration
	now      func() time.Time
	observer Observer
}

type Option func(*Registry)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

func WithObserver(o Observer) Option {
	return func(r *Registry) { r.observer = o }
}

// New creates a registry. A ttl of zero keeps proposals pending until resolved.
func New(ttl time.Duration, opts ...Option) *Registry {
	r := &Registry{
		entries: make(map[string]*entry),
		ttl:     ttl,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Propose records a pending action. apply runs only on Confirm.
func (r *Registry) Propose(kind Kind, subjectID, prompt string, apply Apply) Pending {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.prune(now)

	e := &entry{
		Pending: Pending{
			ID:        xid.New().String(),
			Kind:      kind,
			SubjectID: subjectID,
			Prompt:    prompt,
			State:     StatePending,
			CreatedAt: now,
		},
		apply: apply,
	}
	if r.ttl > 0 {
		e.ExpiresAt = now.Add(r.ttl)
	}
	r.entries[e.ID] = e
	return e.Pending
}

// Get returns the current state of a proposal.
func (r *Registry) Get(id string) (Pending, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return Pending{}, apperror.NotFound("confirmation", id)
	}
	r.expire(e, r.now())
	return e.Pending, nil
}

// Confirm applies the pending mutation. The entry leaves the pending state
// before apply runs, so a concurrent second Confirm fails instead of applying
// twice. If apply fails the entry ends in StateFailed and the error is returned.
func (r *Registry) Confirm(ctx context.Context, id string) (Outcome, error) {
	e, err := r.take(id)
	if err != nil {
		return Outcome{}, err
	}

	result, err := e.apply(ctx)

	r.mu.Lock()
	if err != nil {
		e.State = StateFailed
	} else {
		e.State = StateCommitted
	}
	out := Outcome{Pending: e.Pending, Result: result}
	r.mu.Unlock()

	r.observe(e.Kind, out.State)
	if err != nil {
		return out, fmt.Errorf("confirming %s: %w", e.Kind, err)
	}
	return out, nil
}

// Cancel discards a pending proposal without applying it.
func (r *Registry) Cancel(id string) (Outcome, error) {
	r.mu.Lock()
	e, err := r.pendingLocked(id)
	if err != nil {
		r.mu.Unlock()
		return Outcome{}, err
	}
	e.State = StateCancelled
	out := Outcome{Pending: e.Pending}
	r.mu.Unlock()

	r.observe(e.Kind, StateCancelled)
	return out, nil
}

// Reset drops every proposal except one being applied right now, so an
// action may reset the registry from inside its own Confirm.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := make(map[string]*entry)
	for id, e := range r.entries {
		if e.State == "" {
			kept[id] = e
		}
	}
	r.entries = kept
}

// take moves a pending entry into an in-flight state. The zero State marks
// "being applied": not pending, not yet resolved.
func (r *Registry) take(id string) (*entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, err := r.pendingLocked(id)
	if err != nil {
		return nil, err
	}
	e.State = ""
	return e, nil
}

func (r *Registry) pendingLocked(id string) (*entry, error) {
	e, ok := r.entries[id]
	if !ok {
		return nil, apperror.NotFound("confirmation", id)
	}
	r.expire(e, r.now())
	if e.State != StatePending {
		if e.State == StateExpired {
			return nil, apperror.Expired("confirmation", id)
		}
		return nil, apperror.Conflict(fmt.Sprintf("confirmation %s is already %s", id, stateName(e.State)))
	}
	return e, nil
}

// expire flips a pending entry past its deadline. Called with r.mu held.
func (r *Registry) expire(e *entry, now time.Time) {
	if e.State == StatePending && !e.ExpiresAt.IsZero() && now.After(e.ExpiresAt) {
		e.State = StateExpired
		r.observe(e.Kind, StateExpired)
	}
}

// prune forgets resolved entries, and expired ones, once they are older than
// the ttl. Without a ttl resolved entries are dropped on the next Propose.
func (r *Registry) prune(now time.Time) {
	for id, e := range r.entries {
		r.expire(e, now)
		if e.State == StatePending || e.State == "" {
			continue
		}
		if r.ttl == 0 || now.Sub(e.CreatedAt) > r.ttl {
			delete(r.entries, id)
		}
	}
}

func (r *Registry) observe(kind Kind, outcome State) {
	if r.observer != nil {
		r.observer(kind, outcome)
	}
}

func stateName(s State) string {
	if s == "" {
		return "being applied"
	}
	return string(s)
}
