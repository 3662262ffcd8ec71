package draw

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/padraicbc/luckydraw/models"
)

// maxAttempts bounds the lost-update retry: the first attempt plus one retry.
const maxAttempts = 2

// Status is the outcome reported to callers of PerformDraw.
type Status string

const (
	StatusOK         Status = "OK"
	StatusOutOfStock Status = "OUT_OF_STOCK"
)

// Result carries the claimed record when Status is StatusOK.
type Result struct {
	Status Status       `json:"status"`
	Sign   *models.Sign `json:"sign,omitempty"`
}

// OK reports whether a record was claimed.
func (r Result) OK() bool { return r.Status == StatusOK }

type outcome int

const (
	outcomeOK outcome = iota
	outcomeRetry
	outcomeExhausted
)

// Engine performs draws against a Store.
type Engine struct {
	store Store
	rng   Rand
	log   *zap.Logger
}

// Option customises an Engine.
type Option func(*Engine)

// WithRand sets the offset source. It must be safe for concurrent use if the
// Engine is shared; see Locked.
func WithRand(r Rand) Option {
	return func(e *Engine) {
		if r != nil {
			e.rng = r
		}
	}
}

// WithLogger sets the logger used for retry and rollback diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// New returns an Engine drawing from store.
func New(store Store, opts ...Option) *Engine {
	e := &Engine{
		store: store,
		rng:   processRand{},
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// PerformDraw claims one undrawn record uniformly at random.
//
// It returns StatusOutOfStock when nothing is left, or when two consecutive
// attempts both lost their row to a concurrent draw. Errors match either
// ErrStorageUnavailable or ErrDrawFailed; the pool is unchanged when an error
// is returned.
func (e *Engine) PerformDraw(ctx context.Context) (Result, error) {
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		sign, out, err := e.attempt(ctx)
		if err != nil {
			return Result{}, classify(err)
		}
		switch out {
		case outcomeOK:
			return Result{Status: StatusOK, Sign: sign}, nil
		case outcomeExhausted:
			return Result{Status: StatusOutOfStock}, nil
		}
		e.log.Debug("draw attempt lost its row", zap.Int("attempt", attempt))
	}

	e.log.Warn("draw contention reported as out of stock", zap.Int("attempts", maxAttempts))
	return Result{Status: StatusOutOfStock}, nil
}

// attempt runs the count, offset, lock and mark sequence in one transaction.
// Every exit other than a successful commit rolls the transaction back.
func (e *Engine) attempt(ctx context.Context) (*models.Sign, outcome, error) {
	tx, err := e.store.Begin(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("begin: %w", err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if err := tx.Rollback(); err != nil {
			e.log.Warn("draw rollback failed", zap.Error(err))
		}
	}()

	n, err := tx.CountUndrawn(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("count undrawn: %w", err)
	}
	if n <= 0 {
		return nil, outcomeExhausted, nil
	}

	offset := e.rng.IntN(n)
	sign, found, err := tx.LockedFetchAt(ctx, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("fetch at offset %d: %w", offset, err)
	}
	if !found {
		return nil, outcomeRetry, nil
	}

	affected, err := tx.ConditionalMarkDrawn(ctx, sign.ID)
	if err != nil {
		return nil, 0, fmt.Errorf("mark %s drawn: %w", sign.ID, err)
	}
	switch affected {
	case 0:
		return nil, outcomeRetry, nil
	case 1:
	default:
		return nil, 0, fmt.Errorf("mark %s drawn: %d rows affected", sign.ID, affected)
	}

	if err := tx.Commit(); err != nil {
		return nil, 0, fmt.Errorf("commit %s: %w", sign.ID, err)
	}
	committed = true
	return &sign, outcomeOK, nil
}
