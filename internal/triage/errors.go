package triage

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidOption is wrapped by refusals of out-of-range settings and
	// malformed commands.
	ErrInvalidOption = errors.New("invalid option")
	// ErrManualConfirmationRequired is wrapped when re-analysis would run
	// over a set containing curator-locked records.
	ErrManualConfirmationRequired = errors.New("re-analysis over manual decisions requires confirmation")
	// ErrBusy is wrapped when a run of the same kind is already active.
	ErrBusy = errors.New("operation already running")
	// ErrNoSelection is returned when a decision has no target record.
	ErrNoSelection = errors.New("no record selected")
	// ErrUnknownRecord is returned for a path outside the record set.
	ErrUnknownRecord = errors.New("unknown record")

	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")

	// ErrClosed is returned by commands issued after Close.
	ErrClosed = errors.New("controller closed")
)

// RefusalError is the structured refusal returned when a request is
// rejected before any work starts. Nothing has been changed when it is
// returned.
type RefusalError struct {
	Op     string
	Field  string
	Reason string
	// ManualCount is the number of locked records a re-analysis would
	// have touched.
	ManualCount int

	err error
}

func (e *RefusalError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s refused: %s: %s", e.Op, e.Field, e.Reason)
	}
	return fmt.Sprintf("%s refused: %s", e.Op, e.Reason)
}

func (e *RefusalError) Unwrap() error {
	return e.err
}

func invalidOption(op, field, format string, args ...any) *RefusalError {
	return &RefusalError{Op: op, Field: field, Reason: fmt.Sprintf(format, args...), err: ErrInvalidOption}
}
