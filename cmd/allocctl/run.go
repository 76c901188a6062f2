package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/blockalloc/cmd/allocctl/logger"
	"github.com/joshuapare/blockalloc/heap/alloc"
	"github.com/joshuapare/blockalloc/heap/printer"
	"github.com/joshuapare/blockalloc/heap/session"
	"github.com/joshuapare/blockalloc/internal/config"
)

var (
	runOutput       string
	runMemory       config.Units
	runCompactEvery int
	runEncoding     string
	runFormat       string
	runStrict       bool
	runSummary      bool
)

func init() {
	rootCmd.AddCommand(newRunCmd())
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [log]",
		Short: "Replay a transaction log",
		Long: `The run command replays a transaction log against a fresh allocator and
writes one or more lines per transaction. With no log, or "-", the log is
read from stdin.

Transactions:
  allocate <size> <name>     reserve size units for name (best fit)
  free <name>                drop name; the block is released with its last owner
  reference <name1> <name2>  make name1 share the block of name2
  print                      dump allocated blocks and free runs

Settings come from --config, then ALLOCSIM_* environment variables, then flags.

Example:
  allocctl run input.txt --memory 100 --compact-every 3
  allocctl run input.txt -o output.txt --summary
  cat input.txt | allocctl run --format json --strict`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, args)
		},
	}

	runMemory = 0
	cmd.Flags().StringVarP(&runOutput, "output", "o", "", "Write results to this file instead of stdout")
	cmd.Flags().Var(&runMemory, "memory", "Total memory in units; accepts k, m, g suffixes (default 100)")
	cmd.Flags().IntVar(&runCompactEvery, "compact-every", 0, "Compact after this many releasing frees (default 100)")
	cmd.Flags().StringVar(&runEncoding, "encoding", "", "Log encoding: utf-8, utf-16le, windows-1252, iso-8859-1")
	cmd.Flags().StringVar(&runFormat, "format", "", "Snapshot format for print: text, json")
	cmd.Flags().BoolVar(&runStrict, "strict", false, "Verify allocator invariants after every transaction")
	cmd.Flags().BoolVar(&runSummary, "summary", false, "Print replay counters when done")
	return cmd
}

// runReport is the --summary payload.
type runReport struct {
	Input   string          `json:"input"`
	Session string          `json:"session"`
	Total   int             `json:"total"`
	Summary session.Summary `json:"summary"`
	Engine  alloc.Stats     `json:"engine"`
}

func runRun(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	cfg, err := loadConfig(func(c *config.Config) {
		if flags.Changed("memory") {
			c.TotalMemory = runMemory
		}
		if flags.Changed("compact-every") {
			c.CompactEvery = runCompactEvery
		}
		if flags.Changed("encoding") {
			c.Encoding = runEncoding
		}
		if flags.Changed("format") {
			c.Format = runFormat
		}
		if runStrict {
			c.Strict = true
		}
	})
	if err != nil {
		return err
	}

	in, name, err := openInput(args)
	if err != nil {
		return err
	}
	defer in.Close()

	var out io.Writer = os.Stdout
	if runOutput != "" && runOutput != "-" {
		f, err := os.Create(runOutput)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		out = f
	}

	eng, err := alloc.New(int(cfg.TotalMemory))
	if err != nil {
		return err
	}
	format, err := printer.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}

	sess := session.New(eng, out, session.Options{
		Logger:       logger.L,
		CompactEvery: cfg.CompactEvery,
		Print:        printer.Options{Format: format, Unit: "units"},
		Strict:       cfg.Strict,
	})

	printVerbose("Replaying %s (memory %d, compact every %d)\n", name, cfg.TotalMemory, cfg.CompactEvery)
	logger.Info("run", "input", name, "session", sess.ID())

	if err := sess.Run(cmd.Context(), in, cfg.Encoding); err != nil {
		logger.Error("replay failed", "input", name, "error", err)
		return fmt.Errorf("replay %s: %w", name, err)
	}

	if f, ok := out.(*os.File); ok && f != os.Stdout {
		if err := f.Sync(); err != nil {
			return fmt.Errorf("sync output: %w", err)
		}
	}

	if !runSummary {
		return nil
	}

	report := runReport{
		Input:   name,
		Session: sess.ID(),
		Total:   eng.Total(),
		Summary: sess.Summary(),
		Engine:  eng.Stats(),
	}
	if jsonOut {
		return printJSON(report)
	}
	printSummary(report)
	return nil
}

func printSummary(r runReport) {
	s := r.Summary
	printInfo("\nReplay summary (%s):\n", r.Input)
	printInfo("  Transactions:      %d\n", s.Transactions)
	printInfo("  Allocations:       %d\n", s.Allocations)
	printInfo("  Frees:             %d\n", s.Frees)
	printInfo("  Ref decrements:    %d\n", s.RefDecrements)
	printInfo("  References:        %d\n", s.References)
	printInfo("  Prints:            %d\n", s.Prints)
	printInfo("  Retries:           %d\n", s.Retries)
	printInfo("  Compactions:       %d\n", s.Compactions)
	printInfo("  Failed:            %d\n", s.Failed)
	if s.Malformed > 0 || s.UnknownOperation > 0 {
		printInfo("    malformed:       %d\n", s.Malformed)
		printInfo("    unknown op:      %d\n", s.UnknownOperation)
	}
	printVerbose("  Blocks moved:      %d\n", r.Engine.BlocksMoved)
	printVerbose("  Splits:            %d\n", r.Engine.SplitCount)
	printVerbose("  Coalesced:         %d forward, %d backward\n", r.Engine.CoalesceForward, r.Engine.CoalesceBackward)
}
