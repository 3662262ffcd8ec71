package draw

import (
	"errors"
	"fmt"
)

var (
	// ErrStorageUnavailable means the pool could not be reached or refused the connection.
	ErrStorageUnavailable = errors.New("draw: storage unavailable")
	// ErrDrawFailed covers every other storage failure during a draw.
	ErrDrawFailed = errors.New("draw: draw failed")

	errTxDone = errors.New("draw: transaction already finished")
)

type unavailableError struct {
	err error
}

func (e *unavailableError) Error() string { return e.err.Error() }

func (e *unavailableError) Unwrap() []error { return []error{ErrStorageUnavailable, e.err} }

// Unavailable marks err as a connection-class failure so that it matches
// ErrStorageUnavailable while keeping the original chain intact.
func Unavailable(err error) error {
	if err == nil || errors.Is(err, ErrStorageUnavailable) {
		return err
	}
	return &unavailableError{err: err}
}

// classify maps an attempt error onto one of the two failure kinds.
func classify(err error) error {
	if errors.Is(err, ErrStorageUnavailable) || errors.Is(err, ErrDrawFailed) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrDrawFailed, err)
}
