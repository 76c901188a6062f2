// Package printer renders allocator snapshots for humans and machines.
package printer

import (
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-json"

	"github.com/joshuapare/blockalloc/heap/alloc"
)

// Format specifies the output format for printing.
type Format string

const (
	// FormatText outputs the human-readable block listing.
	FormatText Format = "text"

	// FormatJSON outputs one JSON document per snapshot.
	FormatJSON Format = "json"
)

// ParseFormat maps a flag value to a Format. The empty string means FormatText.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown format %q (want text or json)", s)
	}
}

// Options controls printing behavior.
type Options struct {
	// Format specifies output format (text, json).
	// Default: FormatText
	Format Format

	// Unit is the word printed after unit totals in text output.
	// Default: "units"
	Unit string

	// Indent pretty-prints JSON output.
	// Default: false
	Indent bool
}

// DefaultOptions returns sensible defaults for printing.
func DefaultOptions() Options {
	return Options{
		Format: FormatText,
		Unit:   "units",
	}
}

// Printer writes snapshots to a writer.
type Printer struct {
	opts   Options
	writer io.Writer
}

// New creates a new Printer.
func New(w io.Writer, opts Options) *Printer {
	if opts.Unit == "" {
		opts.Unit = "units"
	}
	return &Printer{opts: opts, writer: w}
}

// PrintSnapshot writes s in the configured format.
func (p *Printer) PrintSnapshot(s alloc.Snapshot) error {
	switch p.opts.Format {
	case FormatJSON:
		return p.printJSON(s)
	default:
		return p.printText(s)
	}
}

// printText writes the block listing, framed by blank lines:
//
//	Allocated Blocks:
//	Start: 0, Size: 4, RefCount: 2, Variables: a b
//	Free Blocks:
//	Start: 4, Size: 96
//	Total Memory Allocated: 4 units
//	Total Memory Free: 96 units
func (p *Printer) printText(s alloc.Snapshot) error {
	var sb strings.Builder

	sb.WriteString("\nAllocated Blocks:\n")
	for _, b := range s.Blocks {
		fmt.Fprintf(&sb, "Start: %d, Size: %d, RefCount: %d, Variables: %s\n",
			b.Start, b.Size, b.RefCount, strings.Join(b.Owners, " "))
	}

	sb.WriteString("Free Blocks:\n")
	for _, r := range s.Free {
		fmt.Fprintf(&sb, "Start: %d, Size: %d\n", r.Start, r.Size)
	}

	fmt.Fprintf(&sb, "Total Memory Allocated: %d %s\n", s.Allocated, p.opts.Unit)
	fmt.Fprintf(&sb, "Total Memory Free: %d %s\n\n", s.FreeUnits, p.opts.Unit)

	_, err := io.WriteString(p.writer, sb.String())
	return err
}

// jsonSnapshot adds derived fields to the snapshot for JSON output.
type jsonSnapshot struct {
	alloc.Snapshot
	Fragmentation float64 `json:"fragmentation"`
}

func (p *Printer) printJSON(s alloc.Snapshot) error {
	enc := json.NewEncoder(p.writer)
	if p.opts.Indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(jsonSnapshot{Snapshot: s, Fragmentation: s.Fragmentation()})
}
