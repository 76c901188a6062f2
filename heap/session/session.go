// Package session replays transaction logs against an allocator engine.
//
// A Session owns the compaction countdown: every CompactEvery-th free that
// releases a block triggers a compaction. An allocation that fails for lack
// of memory is retried once after compacting.
package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/joshuapare/blockalloc/heap/alloc"
	"github.com/joshuapare/blockalloc/heap/printer"
	"github.com/joshuapare/blockalloc/heap/verify"
	"github.com/joshuapare/blockalloc/internal/txlog"
)

// DefaultCompactEvery is the compaction period used when Options.CompactEvery
// is not positive.
const DefaultCompactEvery = 100

// Options configures a Session.
type Options struct {
	// Logger receives per-transaction debug records and compaction events.
	// Default: discard
	Logger *slog.Logger

	// CompactEvery is the number of block-releasing frees between automatic
	// compactions.
	// Default: DefaultCompactEvery
	CompactEvery int

	// Print controls how print transactions render snapshots.
	// Default: printer.DefaultOptions()
	Print printer.Options

	// Strict verifies every engine invariant after each transaction and
	// stops the replay on the first violation.
	Strict bool
}

// Result describes what one transaction did.
type Result struct {
	Tx      txlog.Transaction
	Status  Status
	Start   int   // block start for a successful allocate or reference
	Retried bool  // allocate hit OutOfMemory and was retried after compacting
	Moved   int   // blocks moved by a compaction this transaction triggered
	Err     error // engine or parse error behind a failed Status
}

// Summary counts what a replay did.
type Summary struct {
	Transactions     int `json:"transactions"`
	Allocations      int `json:"allocations"`
	Frees            int `json:"frees"`
	RefDecrements    int `json:"refDecrements"`
	References       int `json:"references"`
	Prints           int `json:"prints"`
	Retries          int `json:"retries"`
	Compactions      int `json:"compactions"`
	Failed           int `json:"failed"`
	Malformed        int `json:"malformed"`
	UnknownOperation int `json:"unknownOperations"`
}

// Session replays transactions against one engine and writes the messages
// for each to an output writer. A Session is not safe for concurrent use.
type Session struct {
	id        string
	eng       *alloc.Engine
	out       io.Writer
	pr        *printer.Printer
	log       *slog.Logger
	opt       Options
	countdown int
	summary   Summary
}

// New creates a session over eng writing to out.
func New(eng *alloc.Engine, out io.Writer, opt Options) *Session {
	if opt.CompactEvery <= 0 {
		opt.CompactEvery = DefaultCompactEvery
	}
	if opt.Print.Format == "" {
		opt.Print = printer.DefaultOptions()
	}
	logger := opt.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	id := uuid.NewString()
	return &Session{
		id:        id,
		eng:       eng,
		out:       out,
		pr:        printer.New(out, opt.Print),
		log:       logger.With("session", id),
		opt:       opt,
		countdown: opt.CompactEvery,
	}
}

// ID returns the identifier attached to this session's log records.
func (s *Session) ID() string { return s.id }

// Engine returns the engine the session drives.
func (s *Session) Engine() *alloc.Engine { return s.eng }

// Summary returns the counters accumulated so far.
func (s *Session) Summary() Summary { return s.summary }

// Run replays every transaction in r, decoded from enc. It stops early when
// ctx is cancelled, output cannot be written, or, in strict mode, when an
// invariant breaks.
func (s *Session) Run(ctx context.Context, r io.Reader, enc string) error {
	sc, err := txlog.NewScanner(r, enc)
	if err != nil {
		return err
	}

	s.log.Info("replay started",
		"total", s.eng.Total(),
		"compact_every", s.opt.CompactEvery,
		"strict", s.opt.Strict)

	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("replay cancelled at line %d: %w", sc.Line(), err)
		}
		if _, err := s.Exec(sc.Transaction()); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}

	s.log.Info("replay finished",
		"transactions", s.summary.Transactions,
		"failed", s.summary.Failed,
		"compactions", s.summary.Compactions)
	return nil
}

// Exec applies a single transaction and writes its messages. The returned
// error is reserved for conditions that should stop a replay: a failed write
// or a strict-mode invariant violation. Rejected transactions are reported
// through Result.Status.
func (s *Session) Exec(tx txlog.Transaction) (Result, error) {
	res := s.apply(tx)
	s.count(res)

	s.log.Debug("transaction",
		"line", tx.Line,
		"op", tx.Op.String(),
		"name", tx.Name,
		"status", res.Status.String())

	var b strings.Builder
	writeLines(&b, messages(res))
	if b.Len() > 0 {
		if _, err := io.WriteString(s.out, b.String()); err != nil {
			return res, fmt.Errorf("write output: %w", err)
		}
	}
	if tx.Op == txlog.OpPrint && !res.Status.Failed() {
		if err := s.pr.PrintSnapshot(s.eng.Report()); err != nil {
			return res, fmt.Errorf("write snapshot: %w", err)
		}
	}

	if s.opt.Strict {
		if err := verify.AllInvariants(s.eng); err != nil {
			return res, fmt.Errorf("line %d: %w", tx.Line, err)
		}
	}
	return res, nil
}

func (s *Session) apply(tx txlog.Transaction) Result {
	res := Result{Tx: tx}
	if tx.Malformed() {
		res.Status = StatusMalformed
		res.Err = tx.Err
		return res
	}

	switch tx.Op {
	case txlog.OpAllocate:
		start, err := s.eng.Allocate(tx.Size, tx.Name)
		if statusOf(err) == StatusOutOfMemory {
			res.Retried = true
			res.Moved = s.compact("out of memory", tx.Line)
			start, err = s.eng.Allocate(tx.Size, tx.Name)
		}
		res.Start, res.Status, res.Err = start, statusOf(err), err

	case txlog.OpFree:
		outcome, err := s.eng.Free(tx.Name)
		res.Status, res.Err = statusOf(err), err
		if outcome == alloc.OutcomeRefDecremented {
			res.Status = StatusRefDecremented
		}
		if outcome == alloc.OutcomeFreed {
			s.countdown--
			if s.countdown == 0 {
				res.Moved = s.compact("periodic", tx.Line)
				s.countdown = s.opt.CompactEvery
			}
		}

	case txlog.OpReference:
		start, err := s.eng.Reference(tx.Name, tx.Target)
		res.Start, res.Status, res.Err = start, statusOf(err), err

	case txlog.OpPrint:
		res.Status = StatusOK

	default:
		res.Status = StatusUnknownOperation
	}
	return res
}

func (s *Session) compact(reason string, line int) int {
	moved := s.eng.Compact()
	s.summary.Compactions++
	s.log.Info("compacted",
		"reason", reason,
		"line", line,
		"moved", moved,
		"free", s.eng.FreeUnits())
	return moved
}

func (s *Session) count(res Result) {
	s.summary.Transactions++
	if res.Retried {
		s.summary.Retries++
	}
	switch res.Status {
	case StatusMalformed:
		s.summary.Malformed++
		s.summary.Failed++
		return
	case StatusUnknownOperation:
		s.summary.UnknownOperation++
		s.summary.Failed++
		return
	case StatusRefDecremented:
		s.summary.RefDecrements++
		return
	}
	if res.Status.Failed() {
		s.summary.Failed++
		return
	}

	switch res.Tx.Op {
	case txlog.OpAllocate:
		s.summary.Allocations++
	case txlog.OpFree:
		s.summary.Frees++
	case txlog.OpReference:
		s.summary.References++
	case txlog.OpPrint:
		s.summary.Prints++
	}
}
