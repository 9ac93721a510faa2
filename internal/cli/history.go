package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fuzzyyeti/shank/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Variants bool
}

// HistoryResult holds the runs of a program and, optionally, the variants of
// the latest one.
type HistoryResult struct {
	Program  string                `json:"program"`
	Runs     []HistoryRun          `json:"runs"`
	Variants []store.VariantRecord `json:"variants,omitempty"`
}

// HistoryRun is one recorded extraction.
type HistoryRun struct {
	ID          string            `json:"id"`
	Seq         int64             `json:"seq"`
	Input       string            `json:"input"`
	ToolVersion string            `json:"tool_version"`
	Sets        []store.SetDigest `json:"instruction_sets"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history <program>",
		Short: "List recorded extractions of a program",
		Long: `List the extractions of a program recorded by extract --db, oldest first.

With --variants the wire discriminant of every variant in the latest
extraction is shown as well.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite extraction history")
	cmd.Flags().BoolVar(&opts.Variants, "variants", false, "show the variants of the latest run")

	return cmd
}

func runHistory(opts *HistoryOptions, program string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	dbPath := opts.Database
	if !cmd.Flags().Changed("db") {
		cfg, err := loadConfig(opts.RootOptions)
		if err != nil {
			_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
			return err
		}
		dbPath = cfg.Database
	}
	if dbPath == "" {
		_ = formatter.Error(ErrCodeConfig, "no database: pass --db or set database in the config", nil)
		return reported(NewExitError(ExitCommandError, "no database configured"))
	}
	// Opening would create an empty database; a typo should not.
	if _, err := os.Stat(dbPath); err != nil {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("database not found: %s", dbPath), nil)
		return reported(WrapExitError(ExitCommandError, "database not found", err))
	}

	st, err := store.Open(dbPath)
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return reported(WrapExitError(ExitCommandError, "failed to open database", err))
	}
	defer st.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	result, err := loadHistory(ctx, st, program, opts.Variants)
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return reported(WrapExitError(ExitCommandError, "failed to read history", err))
	}
	return outputHistory(formatter, result)
}

func loadHistory(ctx context.Context, st *store.Store, program string, withVariants bool) (HistoryResult, error) {
	runs, err := st.ListRuns(ctx, program)
	if err != nil {
		return HistoryResult{}, err
	}

	result := HistoryResult{Program: program, Runs: make([]HistoryRun, len(runs))}
	for i, r := range runs {
		result.Runs[i] = HistoryRun{
			ID:          r.ID,
			Seq:         r.Seq,
			Input:       r.Input,
			ToolVersion: r.ToolVersion,
			Sets:        r.Sets,
		}
	}

	if withVariants {
		latest, err := st.LatestRun(ctx, program)
		if errors.Is(err, sql.ErrNoRows) {
			return result, nil
		}
		if err != nil {
			return HistoryResult{}, err
		}
		if result.Variants, err = st.RunVariants(ctx, latest.ID); err != nil {
			return HistoryResult{}, err
		}
	}
	return result, nil
}

func outputHistory(formatter *OutputFormatter, result HistoryResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	if len(result.Runs) == 0 {
		fmt.Fprintf(formatter.Writer, "No extractions recorded for %s\n", result.Program)
		return nil
	}

	fmt.Fprintf(formatter.Writer, "%d extraction(s) of %s:\n\n", len(result.Runs), result.Program)
	for _, r := range result.Runs {
		fmt.Fprintf(formatter.Writer, "  #%d %s  %s (shank %s)\n", r.Seq, r.ID, r.Input, r.ToolVersion)
		for _, s := range r.Sets {
			fmt.Fprintf(formatter.Writer, "      %s %s\n", s.Name, shortHash(s.Hash))
		}
	}

	if len(result.Variants) > 0 {
		fmt.Fprintln(formatter.Writer, "\nLatest variants:")
		for _, v := range result.Variants {
			fmt.Fprintf(formatter.Writer, "  %s::%s  %s\n", v.InstructionSet, v.Name, v.Discriminant)
		}
	}
	return nil
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
