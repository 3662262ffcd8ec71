package draw

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/padraicbc/luckydraw/models"
)

// Op names a MemoryStore operation for fault injection.
type Op int

const (
	OpBegin Op = iota
	OpCount
	OpFetch
	OpMark
	OpCommit
)

// MemoryStore is an in-process Store with row-level lock simulation.
//
// Committed rows are guarded by a mutex. Each row has its own exclusive lock,
// taken by LockedFetchAt and ConditionalMarkDrawn and held until the owning
// transaction commits or rolls back. Writes are staged per transaction and
// only become visible on Commit.
type MemoryStore struct {
	// StaleLockedReads skips the predicate re-check after a row lock is
	// granted, so a waiter may receive a row another transaction has just
	// drawn. This emulates weakened isolation.
	StaleLockedReads bool

	mu     sync.Mutex
	rows   []models.Sign
	index  map[string]int
	locks  map[string]chan struct{}
	faults map[Op]error
}

// NewMemoryStore copies rows into a new store ordered by id.
func NewMemoryStore(rows []models.Sign) *MemoryStore {
	s := &MemoryStore{
		rows:   slices.Clone(rows),
		index:  make(map[string]int, len(rows)),
		locks:  make(map[string]chan struct{}, len(rows)),
		faults: make(map[Op]error),
	}
	slices.SortFunc(s.rows, func(a, b models.Sign) int { return strings.Compare(a.ID, b.ID) })
	for i, r := range s.rows {
		s.index[r.ID] = i
		s.locks[r.ID] = make(chan struct{}, 1)
	}
	return s
}

// InjectFault makes the next call of op fail with err.
func (s *MemoryStore) InjectFault(op Op, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[op] = err
}

func (s *MemoryStore) fault(op Op) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err, ok := s.faults[op]
	if !ok {
		return nil
	}
	delete(s.faults, op)
	return err
}

// Counts returns the committed number of undrawn and drawn rows.
func (s *MemoryStore) Counts() (undrawn, drawn int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rows {
		if r.IsDrawn {
			drawn++
		} else {
			undrawn++
		}
	}
	return undrawn, drawn
}

// Rows returns a snapshot of the committed rows.
func (s *MemoryStore) Rows() []models.Sign {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.rows)
}

// undrawnAt must be called with s.mu held.
func (s *MemoryStore) undrawnAt(offset int) (models.Sign, bool) {
	if offset < 0 {
		return models.Sign{}, false
	}
	seen := 0
	for _, r := range s.rows {
		if r.IsDrawn {
			continue
		}
		if seen == offset {
			return r, true
		}
		seen++
	}
	return models.Sign{}, false
}

func (s *MemoryStore) Begin(ctx context.Context) (Tx, error) {
	if err := s.fault(OpBegin); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &memTx{s: s, held: make(map[string]bool), staged: make(map[string]bool)}, nil
}

type memTx struct {
	s      *MemoryStore
	held   map[string]bool
	staged map[string]bool
	done   bool
}

func (t *memTx) lock(ctx context.Context, id string) error {
	if t.held[id] {
		return nil
	}
	select {
	case t.s.locks[id] <- struct{}{}:
		t.held[id] = true
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *memTx) unlock(id string) {
	if !t.held[id] {
		return
	}
	delete(t.held, id)
	<-t.s.locks[id]
}

func (t *memTx) release() {
	for id := range t.held {
		t.unlock(id)
	}
	t.staged = nil
	t.done = true
}

func (t *memTx) CountUndrawn(ctx context.Context) (int, error) {
	if t.done {
		return 0, errTxDone
	}
	if err := t.s.fault(OpCount); err != nil {
		return 0, err
	}
	undrawn, _ := t.s.Counts()
	return undrawn, nil
}

func (t *memTx) LockedFetchAt(ctx context.Context, offset int) (models.Sign, bool, error) {
	if t.done {
		return models.Sign{}, false, errTxDone
	}
	if err := t.s.fault(OpFetch); err != nil {
		return models.Sign{}, false, err
	}
	for {
		t.s.mu.Lock()
		candidate, ok := t.s.undrawnAt(offset)
		t.s.mu.Unlock()
		if !ok {
			return models.Sign{}, false, nil
		}

		if err := t.lock(ctx, candidate.ID); err != nil {
			return models.Sign{}, false, err
		}
		if t.s.StaleLockedReads {
			return candidate, true, nil
		}

		// A locking read sees the latest committed version once the lock is
		// granted; rescan if the row no longer sits at offset.
		t.s.mu.Lock()
		current, ok := t.s.undrawnAt(offset)
		t.s.mu.Unlock()
		if ok && current.ID == candidate.ID {
			return current, true, nil
		}
		t.unlock(candidate.ID)
	}
}

func (t *memTx) ConditionalMarkDrawn(ctx context.Context, id string) (int64, error) {
	if t.done {
		return 0, errTxDone
	}
	if err := t.s.fault(OpMark); err != nil {
		return 0, err
	}
	if _, ok := t.s.locks[id]; !ok {
		return 0, nil
	}
	if err := t.lock(ctx, id); err != nil {
		return 0, err
	}

	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.s.rows[t.s.index[id]].IsDrawn || t.staged[id] {
		return 0, nil
	}
	t.staged[id] = true
	return 1, nil
}

func (t *memTx) Commit() error {
	if t.done {
		return errTxDone
	}
	if err := t.s.fault(OpCommit); err != nil {
		return err
	}
	t.s.mu.Lock()
	for id := range t.staged {
		t.s.rows[t.s.index[id]].IsDrawn = true
	}
	t.s.mu.Unlock()
	t.release()
	return nil
}

func (t *memTx) Rollback() error {
	if t.done {
		return errTxDone
	}
	t.release()
	return nil
}
