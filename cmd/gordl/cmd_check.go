package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/sandrolain/gordl"
	"github.com/sandrolain/gordl/pkg/diag"
)

// rejectedFilesError is returned when at least one file failed the check.
// Its details were already printed.
type rejectedFilesError struct {
	failed int
	total  int
}

func (e *rejectedFilesError) Error() string {
	return fmt.Sprintf("%d of %d report definitions rejected", e.failed, e.total)
}

// fileResult is the JSON line written for one checked file.
type fileResult struct {
	File     string `json:"file"`
	Error    string `json:"error,omitempty"`
	Rejected bool   `json:"rejected"`
	diag.Summary
}

func newCheckCommand(a *app) *cobra.Command {
	var (
		format       string
		failSeverity int
	)
	cmd := &cobra.Command{
		Use:   "check FILE...",
		Short: "Compile report definitions and print their diagnostics",
		Long: "Compile report definitions and print their diagnostics.\n\n" +
			"The command fails when a file cannot be read or when its highest\n" +
			"diagnostic severity reaches --fail-severity.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("format") {
				format = a.cfg.Format
			}
			if !cmd.Flags().Changed("fail-severity") {
				failSeverity = a.cfg.FailSeverity
			}
			if format != "text" && format != "json" {
				return fmt.Errorf("unknown format %q", format)
			}
			return a.check(cmd.Context(), cmd.OutOrStdout(), args, format, diag.Severity(failSeverity))
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format (text, json)")
	cmd.Flags().IntVar(&failSeverity, "fail-severity", int(diag.Degraded), "reject files whose highest severity reaches this value (0 disables)")
	return cmd
}

func (a *app) check(ctx context.Context, w io.Writer, files []string, format string, failSeverity diag.Severity) error {
	opts := a.compileOptions(failSeverity)
	enc := json.NewEncoder(w)
	failed := 0
	for _, file := range files {
		res := a.checkFile(ctx, file, opts)
		if res.Rejected {
			failed++
		}
		if format == "json" {
			if err := enc.Encode(res); err != nil {
				return err
			}
			continue
		}
		printResult(w, res)
	}
	if failed > 0 {
		return &rejectedFilesError{failed: failed, total: len(files)}
	}
	return nil
}

func (a *app) checkFile(ctx context.Context, file string, opts []gordl.Option) fileResult {
	res := fileResult{File: file}
	rep, err := gordl.CompileFile(ctx, file, opts...)
	var rejected *diag.RejectedError
	if err != nil && !errors.As(err, &rejected) {
		res.Error = err.Error()
		res.Rejected = true
		res.Summary = diag.NewSummary("", nil)
		return res
	}
	defer rep.Close(context.WithoutCancel(ctx))
	res.Rejected = rejected != nil
	res.Summary = diag.NewSummary(rep.Compilation().ID().String(), rep.Diagnostics())
	return res
}
