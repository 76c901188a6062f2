package session

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/blockalloc/heap/alloc"
	"github.com/joshuapare/blockalloc/heap/printer"
	"github.com/joshuapare/blockalloc/heap/verify"
	"github.com/joshuapare/blockalloc/internal/txlog"
)

func newTestSession(t *testing.T, total int, opt Options) (*Session, *bytes.Buffer) {
	t.Helper()
	eng, err := alloc.New(total)
	require.NoError(t, err)
	var out bytes.Buffer
	return New(eng, &out, opt), &out
}

// run replays src and returns everything written.
func run(t *testing.T, s *Session, out *bytes.Buffer, src string) string {
	t.Helper()
	require.NoError(t, s.Run(context.Background(), strings.NewReader(src), ""))
	return out.String()
}

func TestRun_Golden(t *testing.T) {
	input, err := os.ReadFile(filepath.Join("testdata", "replay.log"))
	require.NoError(t, err)
	want, err := os.ReadFile(filepath.Join("testdata", "replay.golden"))
	require.NoError(t, err)

	s, out := newTestSession(t, 20, Options{CompactEvery: 2, Strict: true})
	got := run(t, s, out, string(input))

	assert.Equal(t, string(want), got)
	assert.Equal(t, Summary{
		Transactions:     16,
		Allocations:      4,
		Frees:            2,
		RefDecrements:    1,
		References:       1,
		Prints:           2,
		Retries:          2,
		Compactions:      3,
		Failed:           6,
		Malformed:        1,
		UnknownOperation: 1,
	}, s.Summary())
	require.NoError(t, verify.AllInvariants(s.Engine()))
}

func TestExec_RetryAfterCompactSucceeds(t *testing.T) {
	s, out := newTestSession(t, 10, Options{})
	run(t, s, out, "allocate 4 a\nallocate 2 b\nallocate 4 c\nfree a\nfree c\n")
	out.Reset()

	res, err := s.Exec(txlog.Transaction{Line: 6, Op: txlog.OpAllocate, Size: 7, Name: "d"})
	require.NoError(t, err)

	assert.Equal(t, StatusOK, res.Status)
	assert.True(t, res.Retried)
	assert.Equal(t, 1, res.Moved)
	assert.Equal(t, 2, res.Start)
	assert.Equal(t,
		msgRetryAfterCompact+"\n\nAllocated 7 units for variable d at address 2\n",
		out.String())
}

func TestExec_PeriodicCompaction(t *testing.T) {
	s, out := newTestSession(t, 12, Options{CompactEvery: 2})
	run(t, s, out, "allocate 3 a\nallocate 3 b\nallocate 3 c\nallocate 3 d\n")

	res, err := s.Exec(txlog.Transaction{Op: txlog.OpFree, Name: "a"})
	require.NoError(t, err)
	assert.Zero(t, res.Moved)
	assert.Equal(t, 0, s.Engine().Stats().Compactions)

	res, err = s.Exec(txlog.Transaction{Op: txlog.OpFree, Name: "c"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Moved, "b and d slide down")
	assert.Equal(t, 1, s.Engine().Stats().Compactions)

	snap := s.Engine().Report()
	assert.Equal(t, []alloc.FreeRun{{Start: 6, Size: 6}}, snap.Free)

	// The countdown restarts after a compaction.
	_, err = s.Exec(txlog.Transaction{Op: txlog.OpFree, Name: "b"})
	require.NoError(t, err)
	assert.Equal(t, 1, s.Engine().Stats().Compactions)
}

func TestExec_RefDecrementDoesNotCountTowardCompaction(t *testing.T) {
	s, out := newTestSession(t, 12, Options{CompactEvery: 1})
	run(t, s, out, "allocate 3 a\nallocate 3 b\nreference c a\n")

	res, err := s.Exec(txlog.Transaction{Op: txlog.OpFree, Name: "a"})
	require.NoError(t, err)
	assert.Equal(t, StatusRefDecremented, res.Status)
	assert.False(t, res.Status.Failed())
	assert.Equal(t, 0, s.Engine().Stats().Compactions)

	res, err = s.Exec(txlog.Transaction{Op: txlog.OpFree, Name: "c"})
	require.NoError(t, err)
	assert.Equal(t, StatusOK, res.Status)
	assert.Equal(t, 1, s.Engine().Stats().Compactions)
}

func TestExec_Messages(t *testing.T) {
	tests := []struct {
		name string
		tx   txlog.Transaction
		want string
	}{
		{
			name: "empty name",
			tx:   txlog.Transaction{Op: txlog.OpAllocate, Size: 2},
			want: "Variable name cannot be empty.\n",
		},
		{
			name: "non-positive size",
			tx:   txlog.Transaction{Op: txlog.OpAllocate, Size: 0, Name: "z"},
			want: "Allocation size must be positive: 0\n",
		},
		{
			name: "reference to unknown",
			tx:   txlog.Transaction{Op: txlog.OpReference, Name: "z", Target: "nope"},
			want: "Error: nope does not refer to any block.\n\n",
		},
		{
			name: "reference with taken alias",
			tx:   txlog.Transaction{Op: txlog.OpReference, Name: "a", Target: "a"},
			want: "Error: a already refers to a block.\n\n",
		},
		{
			name: "free unknown",
			tx:   txlog.Transaction{Op: txlog.OpFree, Name: "nope"},
			want: "Error: Variable nope is not allocated.\n",
		},
		{
			name: "unknown op",
			tx:   txlog.Transaction{Op: txlog.OpUnknown, Keyword: "resize"},
			want: "Error: Unknown transaction type.\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, out := newTestSession(t, 10, Options{})
			run(t, s, out, "allocate 2 a\n")
			out.Reset()

			res, err := s.Exec(tt.tx)
			require.NoError(t, err)
			assert.True(t, res.Status.Failed())
			assert.Equal(t, tt.want, out.String())
		})
	}
}

func TestExec_JSONPrint(t *testing.T) {
	s, out := newTestSession(t, 10, Options{Print: printer.Options{Format: printer.FormatJSON}})
	run(t, s, out, "allocate 4 a\n")
	out.Reset()

	_, err := s.Exec(txlog.Transaction{Op: txlog.OpPrint})
	require.NoError(t, err)

	var got struct {
		Total     int `json:"total"`
		Allocated int `json:"allocated"`
		FreeUnits int `json:"freeUnits"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, 10, got.Total)
	assert.Equal(t, 4, got.Allocated)
	assert.Equal(t, 6, got.FreeUnits)
}

func TestRun_Cancelled(t *testing.T) {
	s, _ := newTestSession(t, 10, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Run(ctx, strings.NewReader("allocate 1 a\n"), "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 0, s.Summary().Transactions)
}

func TestRun_UnsupportedEncoding(t *testing.T) {
	s, _ := newTestSession(t, 10, Options{})
	err := s.Run(context.Background(), strings.NewReader(""), "ebcdic")
	assert.ErrorContains(t, err, "unsupported encoding")
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestExec_WriteErrorStopsReplay(t *testing.T) {
	eng, err := alloc.New(10)
	require.NoError(t, err)
	s := New(eng, failingWriter{}, Options{})

	err = s.Run(context.Background(), strings.NewReader("allocate 1 a\nallocate 1 b\n"), "")
	require.Error(t, err)
	assert.ErrorContains(t, err, "disk full")
	assert.Equal(t, 1, s.Summary().Transactions)
}

func TestSession_LogsCarrySessionID(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	s, out := newTestSession(t, 4, Options{Logger: logger})
	run(t, s, out, "allocate 2 a\nallocate 1 b\nfree a\nallocate 3 c\n")

	require.NotEmpty(t, s.ID())
	lines := strings.Split(strings.TrimSpace(logs.String()), "\n")
	require.NotEmpty(t, lines)

	var sawCompaction bool
	for _, line := range lines {
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		assert.Equal(t, s.ID(), rec["session"])
		if rec["msg"] == "compacted" {
			sawCompaction = true
			assert.Equal(t, "out of memory", rec["reason"])
			assert.EqualValues(t, 3, rec["free"])
		}
	}
	assert.True(t, sawCompaction)
}

func TestNew_Defaults(t *testing.T) {
	s, _ := newTestSession(t, 10, Options{CompactEvery: -3})
	assert.Equal(t, DefaultCompactEvery, s.opt.CompactEvery)
	assert.Equal(t, printer.FormatText, s.opt.Print.Format)
}
