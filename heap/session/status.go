package session

import (
	"errors"

	"github.com/joshuapare/blockalloc/heap/alloc"
)

// Status is the outcome of a single transaction as the session reports it.
type Status uint8

const (
	StatusOK Status = iota
	StatusInvalidName
	StatusDuplicate
	StatusUnknownVariable
	StatusOutOfMemory
	StatusRefDecremented
	StatusUnknownOperation
	StatusMalformed
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusInvalidName:
		return "InvalidName"
	case StatusDuplicate:
		return "DuplicateVariable"
	case StatusUnknownVariable:
		return "UnknownVariable"
	case StatusOutOfMemory:
		return "OutOfMemory"
	case StatusRefDecremented:
		return "RefDecremented"
	case StatusUnknownOperation:
		return "UnknownOperation"
	case StatusMalformed:
		return "Malformed"
	case StatusFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Failed reports whether the transaction was rejected. RefDecremented is a
// successful free.
func (s Status) Failed() bool {
	return s != StatusOK && s != StatusRefDecremented
}

// statusOf maps an engine error onto a Status.
func statusOf(err error) Status {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, alloc.ErrInvalidName):
		return StatusInvalidName
	case errors.Is(err, alloc.ErrDuplicateVariable):
		return StatusDuplicate
	case errors.Is(err, alloc.ErrUnknownVariable):
		return StatusUnknownVariable
	case errors.Is(err, alloc.ErrOutOfMemory):
		return StatusOutOfMemory
	default:
		return StatusFailed
	}
}
