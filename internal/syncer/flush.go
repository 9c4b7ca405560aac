package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"boq/internal/creds"
	"boq/internal/models"
)

// FlushSkip explains why a flush trigger did not drain the queue.
type FlushSkip string

const (
	FlushSkipNone         FlushSkip = ""
	FlushSkipInFlight     FlushSkip = "in_flight"
	FlushSkipCooldown     FlushSkip = "cooldown"
	FlushSkipExhausted    FlushSkip = "attempts_exhausted"
	FlushSkipNoCredential FlushSkip = "no_credential"
	FlushSkipEmpty        FlushSkip = "empty_queue"
)

// flushState is the flush engine's session state. attempts and
// lastFlush live for the process lifetime and reset only on restart.
type flushState struct {
	mu        sync.Mutex
	inFlight  bool
	lastFlush time.Time
	attempts  int
}

// FlushResult reports what a single flush trigger did.
type FlushResult struct {
	Skip     FlushSkip
	Attempt  int // which session attempt this drain was, 1-based
	Landed   int
	Retained int
}

// Flushed reports whether a drain pass actually ran.
func (r FlushResult) Flushed() bool {
	return r.Skip == FlushSkipNone
}

// MaybeFlush is the single idempotent flush entry point. Every trigger
// calls it: process start, post-enqueue, credential appearance, the
// periodic tick, and the flush command. Gate refusals are silent
// no-ops reported in the result, never errors.
//
// A pass that begins stamps lastFlush and burns one session attempt.
// Missing credentials and an empty queue short-circuit before the
// stamp, so they cost nothing.
func (s *Syncer) MaybeFlush(ctx context.Context) (FlushResult, error) {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return FlushResult{Skip: FlushSkipInFlight}, nil
	}
	if !s.lastFlush.IsZero() && time.Since(s.lastFlush) < s.cooldown {
		s.mu.Unlock()
		slog.Debug("flush skipped", "reason", FlushSkipCooldown)
		return FlushResult{Skip: FlushSkipCooldown}, nil
	}
	if s.attempts >= s.maxAttempts {
		s.mu.Unlock()
		slog.Debug("flush skipped", "reason", FlushSkipExhausted, "attempts", s.attempts)
		return FlushResult{Skip: FlushSkipExhausted}, nil
	}
	s.inFlight = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inFlight = false
		s.mu.Unlock()
	}()

	if !creds.Available() {
		slog.Debug("flush skipped", "reason", FlushSkipNoCredential)
		return FlushResult{Skip: FlushSkipNoCredential}, nil
	}

	counts, err := s.store.CountByKind(ctx)
	if err != nil {
		return FlushResult{}, fmt.Errorf("count queue: %w", err)
	}
	if len(counts) == 0 {
		return FlushResult{Skip: FlushSkipEmpty}, nil
	}

	s.mu.Lock()
	s.attempts++
	s.lastFlush = time.Now()
	attempt := s.attempts
	s.mu.Unlock()

	res := FlushResult{Attempt: attempt}

	// Drain shops before materials, each kind in FIFO order. A failed
	// entry is retained in place; it never stops the pass.
	var landed []string
	var drainErr error
	for _, kind := range []models.EntityKind{models.KindShop, models.KindMaterial} {
		pending, err := s.store.Pending(ctx, kind)
		if err != nil {
			drainErr = fmt.Errorf("read %s queue: %w", kind, err)
			break
		}
		for _, sub := range pending {
			if err := s.deliver(ctx, sub); err != nil {
				slog.Debug("flush delivery failed", "kind", sub.Kind, "local_id", sub.LocalID, "err", err)
				res.Retained++
				continue
			}
			landed = append(landed, sub.LocalID)
			res.Landed++
		}
	}

	// One batch removal at the end of the pass: landed entries go,
	// retained ones keep their order, concurrent arrivals survive.
	if err := s.store.RemoveLanded(ctx, landed); err != nil {
		return res, fmt.Errorf("remove landed: %w", err)
	}

	slog.Debug("flush pass complete", "attempt", attempt, "landed", res.Landed, "retained", res.Retained)
	return res, drainErr
}

// deliver re-attempts one queued submission through the same call path
// a fresh submission takes, cache refresh included.
func (s *Syncer) deliver(ctx context.Context, sub models.QueuedSubmission) error {
	switch sub.Kind {
	case models.KindShop:
		_, err := s.submitShopOnce(ctx, *sub.Shop)
		return err
	case models.KindMaterial:
		_, err := s.submitMaterialOnce(ctx, *sub.Material)
		return err
	default:
		return fmt.Errorf("unknown submission kind %q", sub.Kind)
	}
}

// Session exposes the flush session state for status output.
func (s *Syncer) Session() (lastFlush time.Time, attempts int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastFlush, s.attempts
}
