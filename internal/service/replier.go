package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sakif/meydan/internal/model"
	"github.com/sakif/meydan/internal/realtime"
)

// DefaultAutoReply is the canned answer of the simulated chat partner.
const DefaultAutoReply = "شكراً لرسالتك، سأرد عليك قريباً!"

// Replier reacts to a message the viewer sent.
type Replier interface {
	// Schedule is fire-and-forget; it must not block the sender.
	Schedule(msg model.Message)
	// CancelPending drops replies that have not been delivered yet.
	CancelPending()
}

type NopReplier struct{}

func (NopReplier) Schedule(model.Message) {}
func (NopReplier) CancelPending()         {}

// DelayedReplier answers every message with a fixed text after a delay, as
// if the other party had replied. A reply to a user blocked in the meantime
// is dropped, and so is one scheduled before the last CancelPending.
type DelayedReplier struct {
	session   *Session
	publisher Publisher
	delay     time.Duration
	text      string
	logger    *slog.Logger

	mu     sync.Mutex
	timers map[*time.Timer]struct{}
	gen    uint64 // bumped by CancelPending
	wg     sync.WaitGroup
}

func NewDelayedReplier(session *Session, publisher Publisher, delay time.Duration, text string, logger *slog.Logger) *DelayedReplier {
	if text == "" {
		text = DefaultAutoReply
	}
	return &DelayedReplier{
		session:   session,
		publisher: publisherOrNop(publisher),
		delay:     delay,
		text:      text,
		logger:    logger,
		timers:    make(map[*time.Timer]struct{}),
	}
}

func (r *DelayedReplier) Schedule(msg model.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.wg.Add(1)
	gen := r.gen
	var t *time.Timer
	t = time.AfterFunc(r.delay, func() {
		defer r.wg.Done()

		r.mu.Lock()
		_, live := r.timers[t]
		delete(r.timers, t)
		r.mu.Unlock()
		if live {
			r.reply(msg, gen)
		}
	})
	r.timers[t] = struct{}{}
}

// reply runs under the session's command lock, so it cannot interleave with
// a logout reseeding the store.
func (r *DelayedReplier) reply(to model.Message, gen uint64) {
	defer r.session.lock()()

	r.mu.Lock()
	stale := gen != r.gen
	r.mu.Unlock()
	if stale {
		return
	}

	ctx := context.Background()
	store := r.session.store
	blocked, err := store.Graph().IsBlocked(ctx, to.ReceiverID)
	if err != nil || blocked {
		return
	}
	reply := &model.Message{
		SenderID:   to.ReceiverID,
		ReceiverID: to.SenderID,
		Content:    r.text,
	}
	if err := store.Messages().Append(ctx, reply); err != nil {
		r.logger.Error("auto reply failed", slog.String("error", err.Error()))
		return
	}
	r.logger.Debug("auto reply sent", slog.String("from", reply.SenderID))
	r.publisher.Publish(realtime.EventMessageCreated, *reply)
}

// CancelPending stops every reply that has not fired yet.
func (r *DelayedReplier) CancelPending() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.gen++
	for t := range r.timers {
		if t.Stop() {
			r.wg.Done()
		}
		delete(r.timers, t)
	}
}

// Close cancels pending replies and waits for any reply being written.
func (r *DelayedReplier) Close() {
	r.CancelPending()
	r.wg.Wait()
}
