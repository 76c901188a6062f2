package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/blockalloc/internal/config"
	"github.com/joshuapare/blockalloc/internal/txlog"
)

var checkEncoding string

func init() {
	rootCmd.AddCommand(newCheckCmd())
}

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [log]",
		Short: "Parse a transaction log without replaying it",
		Long: `The check command parses a transaction log and reports per-operation
counts and every malformed line. It exits non-zero when any line is
malformed. Unknown keywords are counted but are not an error.

Example:
  allocctl check input.txt
  allocctl check input.txt --encoding windows-1252 --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, args)
		},
	}
	cmd.Flags().StringVar(&checkEncoding, "encoding", "", "Log encoding: utf-8, utf-16le, windows-1252, iso-8859-1")
	return cmd
}

type malformedLine struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

type checkReport struct {
	Input        string          `json:"input"`
	Transactions int             `json:"transactions"`
	Counts       map[string]int  `json:"counts"`
	Malformed    []malformedLine `json:"malformed"`
	Valid        bool            `json:"valid"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(func(c *config.Config) {
		if cmd.Flags().Changed("encoding") {
			c.Encoding = checkEncoding
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

	printVerbose("Checking %s (%s)\n", name, cfg.Encoding)

	txs, err := txlog.ParseAll(in, cfg.Encoding)
	if err != nil {
		return err
	}

	report := checkReport{
		Input:        name,
		Transactions: len(txs),
		Counts:       make(map[string]int),
		Malformed:    []malformedLine{},
	}
	for _, tx := range txs {
		report.Counts[tx.Op.String()]++
		if tx.Malformed() {
			reason := tx.Err.Error()
			var perr *txlog.ParseError
			if errors.As(tx.Err, &perr) {
				reason = perr.Reason
			}
			report.Malformed = append(report.Malformed, malformedLine{Line: tx.Line, Reason: reason})
		}
	}
	report.Valid = len(report.Malformed) == 0

	var outErr error
	if jsonOut {
		outErr = printJSON(report)
	} else {
		printCheckReport(report)
	}
	if outErr != nil {
		return outErr
	}

	if !report.Valid {
		return fmt.Errorf("%s: %d malformed line(s)", name, len(report.Malformed))
	}
	return nil
}

func printCheckReport(r checkReport) {
	printInfo("\nChecking %s...\n\n", r.Input)
	printInfo("Transactions: %d\n", r.Transactions)
	for _, op := range []string{
		txlog.KeywordAllocate,
		txlog.KeywordFree,
		txlog.KeywordReference,
		txlog.KeywordPrint,
		"unknown",
	} {
		if n := r.Counts[op]; n > 0 {
			printInfo("  %-10s %d\n", op+":", n)
		}
	}

	if r.Valid {
		printInfo("\nResult: ✓ VALID\n")
		return
	}
	printInfo("\nMalformed lines:\n")
	for _, m := range r.Malformed {
		printInfo("  ✗ line %d: %s\n", m.Line, m.Reason)
	}
	printInfo("\nResult: ✗ INVALID\n")
}
