package pipeline

import (
	"errors"
	"fmt"

	"github.com/foxseedlab/fanreel/internal/session"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrSessionNotFound = errors.New("session not found")
)

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// StageError reports a failed pipeline stage. The session record has been
// marked as errored on a best-effort basis before it is returned.
type StageError struct {
	Stage session.AssetKind
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
