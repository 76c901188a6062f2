// Package txlog parses allocator transaction logs.
//
// A log holds one transaction per line:
//
//	allocate <size> <name>
//	free <name>
//	reference <name1> <name2>
//	print
//
// Fields are separated by whitespace and extra trailing fields are ignored.
// Blank lines and lines starting with "#" are skipped. Missing names are
// passed on as empty strings so the allocator can reject them; a missing or
// non-integer allocation size makes the transaction malformed.
package txlog

import (
	"fmt"
	"strconv"
	"strings"
)

// Op identifies the kind of transaction.
type Op uint8

const (
	OpUnknown Op = iota
	OpAllocate
	OpFree
	OpReference
	OpPrint
)

func (op Op) String() string {
	switch op {
	case OpAllocate:
		return KeywordAllocate
	case OpFree:
		return KeywordFree
	case OpReference:
		return KeywordReference
	case OpPrint:
		return KeywordPrint
	default:
		return "unknown"
	}
}

// Transaction is one parsed log line.
type Transaction struct {
	Line    int    // 1-based line number
	Op      Op     // OpUnknown for unrecognized keywords
	Keyword string // first field as written
	Size    int    // allocate only
	Name    string // allocate/free target, reference alias (name1)
	Target  string // reference only: the existing name (name2)
	Err     error  // non-nil when the line is malformed
}

// Malformed reports whether the line could not be turned into a transaction.
func (tx Transaction) Malformed() bool { return tx.Err != nil }

// ParseError describes a malformed line.
type ParseError struct {
	Line   int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// ParseLine parses a single line. ok is false for blank and comment lines.
func ParseLine(line string, n int) (tx Transaction, ok bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, CommentPrefix) {
		return Transaction{}, false
	}

	fields := strings.Fields(line)
	tx = Transaction{Line: n, Keyword: fields[0]}
	arg := func(i int) string {
		if i < len(fields) {
			return fields[i]
		}
		return ""
	}

	switch fields[0] {
	case KeywordAllocate:
		tx.Op = OpAllocate
		if len(fields) < 2 {
			tx.Err = &ParseError{Line: n, Reason: "allocate: missing size"}
			return tx, true
		}
		size, err := strconv.Atoi(fields[1])
		if err != nil {
			tx.Err = &ParseError{Line: n, Reason: fmt.Sprintf("allocate: size %q is not an integer", fields[1])}
			return tx, true
		}
		tx.Size = size
		tx.Name = arg(2)

	case KeywordFree:
		tx.Op = OpFree
		tx.Name = arg(1)

	case KeywordReference:
		tx.Op = OpReference
		tx.Name = arg(1)
		tx.Target = arg(2)

	case KeywordPrint:
		tx.Op = OpPrint

	default:
		tx.Op = OpUnknown
	}

	return tx, true
}
