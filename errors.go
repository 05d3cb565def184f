package curriculum

import (
	"errors"
	"fmt"
)

// Sentinel errors for programmatic checking via errors.Is().
var (
	ErrInvalidRequest   = errors.New("curriculum: invalid publish request")
	ErrGraphNotFound    = errors.New("curriculum: source graph not found")
	ErrMalformedGraph   = errors.New("curriculum: malformed graph")
	ErrValidationFailed = errors.New("curriculum: graph failed validation")
	ErrStoreWrite       = errors.New("curriculum: store write failed")
	ErrVersionConflict  = errors.New("curriculum: version number already taken")
	ErrVersionNotFound  = errors.New("curriculum: version not found")
)

// MalformedGraphError reports a stored graph document that cannot be read
// as a graph at all. Wraps ErrMalformedGraph.
type MalformedGraphError struct {
	Field string // offending field, if known
	Msg   string
	Err   error // underlying decode error, if any
}

func (e *MalformedGraphError) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Field != "" && e.Msg != "":
		return fmt.Sprintf("%s: %s: %s", ErrMalformedGraph.Error(), e.Field, e.Msg)
	case e.Msg != "":
		return fmt.Sprintf("%s: %s", ErrMalformedGraph.Error(), e.Msg)
	}
	return ErrMalformedGraph.Error()
}

func (e *MalformedGraphError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrMalformedGraph, e.Err}
	}
	return []error{ErrMalformedGraph}
}

// Step names one forward step of the publish write sequence.
type Step string

const (
	StepNumberVersion Step = "number_version"
	StepCreateVersion Step = "create_version"
	StepInsertNodes   Step = "insert_nodes"
	StepInsertEdges   Step = "insert_edges"
	StepInsertExport  Step = "insert_export"
	StepMarkPublished Step = "mark_published"
)

// StoreWriteError reports a failed step of the write sequence. Rollback is
// set when compensating deletes themselves failed.
type StoreWriteError struct {
	Step     Step
	Err      error
	Rollback error
}

func (e *StoreWriteError) Error() string {
	msg := fmt.Sprintf("%s: %s: %v", ErrStoreWrite.Error(), e.Step, e.Err)
	if e.Rollback != nil {
		msg += fmt.Sprintf(" (rollback: %v)", e.Rollback)
	}
	return msg
}

func (e *StoreWriteError) Unwrap() []error { return []error{ErrStoreWrite, e.Err} }
