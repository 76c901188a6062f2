package alloc

import (
	"errors"
	"fmt"
)

// ErrKind classifies allocator errors so callers can branch on intent rather than text.
type ErrKind int

const (
	KindInvalidName       ErrKind = iota + 1 // empty name, leading digit or non-positive size
	KindDuplicateVariable                    // name already denotes a block
	KindUnknownVariable                      // name does not denote any block
	KindOutOfMemory                          // no free run large enough
)

func (k ErrKind) String() string {
	switch k {
	case KindInvalidName:
		return "InvalidName"
	case KindDuplicateVariable:
		return "DuplicateVariable"
	case KindUnknownVariable:
		return "UnknownVariable"
	case KindOutOfMemory:
		return "OutOfMemory"
	default:
		return fmt.Sprintf("ErrKind(%d)", int(k))
	}
}

// Error is a typed allocator error. Name is the variable the operation was
// about, if any.
type Error struct {
	Kind ErrKind
	Name string
	Msg  string
}

func (e *Error) Error() string {
	if e.Name == "" {
		return "alloc: " + e.Msg
	}
	return fmt.Sprintf("alloc: %s: %q", e.Msg, e.Name)
}

// Is reports whether target is an *Error of the same kind. This lets the
// sentinels below match errors that carry a specific name.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

var (
	// ErrInvalidName indicates an empty name, a name starting with a digit, or a non-positive size.
	ErrInvalidName = &Error{Kind: KindInvalidName, Msg: "invalid variable name"}

	// ErrDuplicateVariable indicates the name already denotes a block.
	ErrDuplicateVariable = &Error{Kind: KindDuplicateVariable, Msg: "variable already exists"}

	// ErrUnknownVariable indicates the name does not denote any block.
	ErrUnknownVariable = &Error{Kind: KindUnknownVariable, Msg: "variable not allocated"}

	// ErrOutOfMemory indicates that no free run is large enough. Compacting may help.
	ErrOutOfMemory = &Error{Kind: KindOutOfMemory, Msg: "no free run large enough"}

	// ErrBadTotal indicates a non-positive total memory size passed to New.
	ErrBadTotal = errors.New("alloc: total memory must be positive")
)

// KindOf returns the ErrKind carried by err, or 0 if err is not an allocator error.
func KindOf(err error) ErrKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func errorf(kind ErrKind, name, format string, args ...any) error {
	return &Error{Kind: kind, Name: name, Msg: fmt.Sprintf(format, args...)}
}
