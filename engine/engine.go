package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/admitq"
	"github.com/xraph/admitq/backoff"
	"github.com/xraph/admitq/estimate"
	"github.com/xraph/admitq/event"
	"github.com/xraph/admitq/ext"
	"github.com/xraph/admitq/queue"
	"github.com/xraph/admitq/store"
	"github.com/xraph/admitq/token"
)

// Engine is the admission queue coordinator. Create one with New, call
// Load to rebuild state from the store, then drive it through Admit,
// Reprioritize, Complete, Cancel, and the read methods.
type Engine struct {
	// mu serializes mutating operations and guards index + active.
	// Readers take the read side, so listings run concurrently with each
	// other but never observe a partially renumbered queue.
	mu sync.RWMutex

	store      store.Store
	index      *queue.Index
	active     map[string]*token.Token // token ID string -> cached active record
	estimator  estimate.Estimator
	extensions *ext.Registry
	bus        *event.Bus
	limiter    *queue.Limiter
	logger     *slog.Logger
	cfg        admitq.Config
	retry      backoff.Strategy

	// seq is the process-wide admission sequence counter, restored from
	// the store by Load and advanced under mu.
	seq uint64

	// now is the clock, replaceable in tests.
	now func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the structured logger for the engine.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithConfig sets the engine configuration. The BaseServiceMinutes
// overrides apply only when no custom estimator is set.
func WithConfig(cfg admitq.Config) Option {
	return func(e *Engine) { e.cfg = cfg }
}

// WithEstimator replaces the wait-time estimation policy.
func WithEstimator(est estimate.Estimator) Option {
	return func(e *Engine) { e.estimator = est }
}

// WithExtension registers an extension with the engine.
func WithExtension(x ext.Extension) Option {
	return func(e *Engine) { e.extensions.Register(x) }
}

// WithAdmissionLimits configures per-class admission throttling.
// Classes not listed admit freely.
func WithAdmissionLimits(configs ...queue.LimitConfig) Option {
	return func(e *Engine) { e.limiter = queue.NewLimiter(configs...) }
}

// WithPersistBackoff replaces the delay strategy used between store
// write retries. The default waits Config.PersistBackoff between
// attempts; pass a jittered strategy when many engines share a store.
func WithPersistBackoff(s backoff.Strategy) Option {
	return func(e *Engine) { e.retry = s }
}

// WithClock replaces the engine's time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an Engine backed by the given store.
func New(s store.Store, opts ...Option) (*Engine, error) {
	if s == nil {
		return nil, admitq.ErrNoStore
	}

	e := &Engine{
		store:  s,
		index:  queue.NewIndex(),
		active: make(map[string]*token.Token),
		logger: slog.Default(),
		cfg:    admitq.DefaultConfig(),
		now:    func() time.Time { return time.Now().UTC() },
	}
	e.extensions = ext.NewRegistry(e.logger)
	e.bus = event.NewBus(s)

	for _, opt := range opts {
		opt(e)
	}

	if e.retry == nil {
		if e.cfg.PersistBackoff > 0 {
			e.retry = backoff.NewConstant(e.cfg.PersistBackoff)
		} else {
			e.retry = backoff.DefaultStrategy()
		}
	}

	if e.estimator == nil {
		if len(e.cfg.BaseServiceMinutes) > 0 {
			e.estimator = estimate.WithBase(e.cfg.BaseServiceMinutes)
		} else {
			e.estimator = estimate.NewLinear()
		}
	}

	return e, nil
}

// Extensions returns the extension registry.
func (e *Engine) Extensions() *ext.Registry { return e.extensions }

// EventBus returns the durable queue-change feed.
func (e *Engine) EventBus() *event.Bus { return e.bus }

// Store returns the underlying store.
func (e *Engine) Store() store.Store { return e.store }

// Load rebuilds the rank index and admission sequence counter from the
// store's active tokens. Call it once after New, and again after a crash
// or failover to recover. Ranks are recomputed from ordering keys; any
// drift found in the persisted rows is repaired in one atomic batch.
func (e *Engine) Load(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	toks, err := e.store.ListTokens(ctx, token.ListOpts{Status: token.StatusActive})
	if err != nil {
		return fmt.Errorf("engine: load active tokens: %w", err)
	}

	maxSeq, err := e.store.MaxSequence(ctx)
	if err != nil {
		return fmt.Errorf("engine: load max sequence: %w", err)
	}

	e.index = queue.NewIndex()
	e.active = make(map[string]*token.Token, len(toks))
	e.seq = maxSeq

	var shifts []token.RankShift
	for _, t := range toks {
		if _, insErr := e.index.Insert(t.ID, t.Key()); insErr != nil {
			return fmt.Errorf("engine: index token %s: %w", t.ID, insErr)
		}
		e.active[t.ID.String()] = t.Clone()
	}

	// Ranks are positional: recompute them all in key order and repair
	// whatever the store disagrees on.
	for entry, rank := range e.index.Snapshot() {
		cached := e.active[entry.ID.String()]
		wait := e.estimator.Minutes(rank, cached.Class)
		if cached.Rank != rank || cached.EstimatedWait != wait {
			cached.Rank = rank
			cached.EstimatedWait = wait
			cached.Touch()
			shifts = append(shifts, token.RankShift{ID: entry.ID, Rank: rank, EstimatedWait: wait})
		}
	}

	if len(shifts) > 0 {
		if repErr := e.persist(ctx, &token.Batch{Shifts: shifts}); repErr != nil {
			return fmt.Errorf("engine: repair ranks: %w", repErr)
		}
		e.logger.Warn("repaired rank drift on load",
			slog.Int("tokens", len(shifts)),
		)
	}

	e.logger.Info("queue loaded",
		slog.Int("active", len(toks)),
		slog.Uint64("max_sequence", maxSeq),
	)
	return nil
}

// Close emits the shutdown hook and closes the store.
func (e *Engine) Close(ctx context.Context) error {
	e.extensions.EmitShutdown(ctx)
	return e.store.Close()
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// persist writes a batch, retrying transient store errors up to the
// configured attempt count. Domain errors are terminal and surface
// immediately; exhausted retries surface as ErrUnavailable.
func (e *Engine) persist(ctx context.Context, b *token.Batch) error {
	attempts := e.cfg.PersistRetries
	if attempts < 1 {
		attempts = 1
	}

	var last error
	for i := 0; i < attempts; i++ {
		last = e.store.ApplyBatch(ctx, b)
		if last == nil {
			return nil
		}
		if terminal(last) {
			return last
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if i < attempts-1 {
			if d := e.retry.Delay(i + 1); d > 0 {
				time.Sleep(d)
			}
		}
	}
	return fmt.Errorf("%w: %s", admitq.ErrUnavailable, last)
}

// terminal reports whether a store error must not be retried.
func terminal(err error) bool {
	return errors.Is(err, admitq.ErrTokenNotFound) ||
		errors.Is(err, admitq.ErrDuplicateActive) ||
		errors.Is(err, admitq.ErrConflict) ||
		errors.Is(err, admitq.ErrStoreClosed) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// collectShifts walks the index and returns a rank/estimate update for
// every cached token whose rank no longer matches its position, skipping
// the primary token (it is written in full). Caller holds mu.
func (e *Engine) collectShifts(primary string) []token.RankShift {
	var shifts []token.RankShift
	for entry, rank := range e.index.Snapshot() {
		key := entry.ID.String()
		if key == primary {
			continue
		}
		cached := e.active[key]
		if cached == nil || cached.Rank == rank {
			continue
		}
		shifts = append(shifts, token.RankShift{
			ID:            entry.ID,
			Rank:          rank,
			EstimatedWait: e.estimator.Minutes(rank, cached.Class),
		})
	}
	return shifts
}

// applyShifts folds committed rank shifts into the cached records.
// Caller holds mu.
func (e *Engine) applyShifts(shifts []token.RankShift) {
	for _, s := range shifts {
		if cached := e.active[s.ID.String()]; cached != nil {
			cached.Rank = s.Rank
			cached.EstimatedWait = s.EstimatedWait
			cached.Touch()
		}
	}
}

// snapshotLocked builds a point-in-time view of the active queue.
// Caller holds mu (read or write side).
func (e *Engine) snapshotLocked() *token.Snapshot {
	snap := &token.Snapshot{At: e.now()}
	for entry, rank := range e.index.Snapshot() {
		cached := e.active[entry.ID.String()]
		if cached == nil {
			continue
		}
		snap.Entries = append(snap.Entries, token.QueueEntry{
			TokenID:       cached.ID.String(),
			Number:        cached.Number,
			PatientName:   cached.PatientName,
			Class:         cached.Class,
			Rank:          rank,
			EstimatedWait: cached.EstimatedWait,
			Status:        cached.Status,
			CreatedAt:     cached.CreatedAt,
		})
	}
	snap.Total = len(snap.Entries)
	return snap
}

// publish emits a named event on the durable feed. Publish failures are
// logged and never fail the operation that produced the event.
func (e *Engine) publish(ctx context.Context, name string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		e.logger.Warn("marshal event payload",
			slog.String("event", name),
			slog.String("error", err.Error()),
		)
		return
	}
	if _, err := e.bus.Publish(ctx, name, data); err != nil {
		e.logger.Warn("publish event",
			slog.String("event", name),
			slog.String("error", err.Error()),
		)
	}
}

// notifyQueueChanged emits the QueueChanged hook and the queue.changed
// event with the given snapshot.
func (e *Engine) notifyQueueChanged(ctx context.Context, snap *token.Snapshot) {
	e.extensions.EmitQueueChanged(ctx, snap)
	e.publish(ctx, event.QueueChanged, snap)
}
