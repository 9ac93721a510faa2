package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fuzzyyeti/shank/internal/compiler"
	"github.com/fuzzyyeti/shank/internal/config"
	"github.com/fuzzyyeti/shank/internal/idl"
	"github.com/fuzzyyeti/shank/internal/ir"
	"github.com/fuzzyyeti/shank/internal/store"
	"github.com/fuzzyyeti/shank/internal/watch"
)

// ExtractOptions holds flags for the extract command.
type ExtractOptions struct {
	*RootOptions
	Output              string
	Database            string
	Program             string
	ProgramVersion      string
	Address             string
	StrictDiscriminants bool
	StrictFields        bool
	SkipGateCheck       bool
	FailOnDrift         bool
	Watch               bool
}

// ExtractSummary is reported when the IDL goes to a file.
type ExtractSummary struct {
	Program      string        `json:"program"`
	Output       string        `json:"output"`
	Sets         []string      `json:"instruction_sets"`
	Instructions int           `json:"instructions"`
	RunID        string        `json:"run_id,omitempty"`
	Drift        []store.Drift `json:"drift,omitempty"`
}

// NewExtractCommand creates the extract command.
func NewExtractCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExtractOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "extract <path>",
		Short: "Extract the instruction IDL of a program",
		Long: `Extract the instruction IDL from .rs and .cue sources.

Every enum deriving ShankInstruction under <path> is compiled; the IDL is
written to stdout, or to --output. With --db each extraction is recorded and
compared with the previous one: variants whose discriminant changed or that
disappeared are reported as drift.

Example:
  shank extract ./programs/vault/src
  shank extract --db .shank/history.db --fail-on-drift -o idl.json ./src
  shank extract --watch -o idl.json ./src`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(opts, args[0], cmd)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.Output, "output", "o", "", "output file path (default stdout)")
	f.StringVar(&opts.Database, "db", "", "path to SQLite extraction history")
	f.StringVar(&opts.Program, "program", "", "program name (default derived from <path>)")
	f.StringVar(&opts.ProgramVersion, "program-version", "", "program version written to the IDL")
	f.StringVar(&opts.Address, "address", "", "program address written to the IDL metadata")
	f.BoolVar(&opts.StrictDiscriminants, "strict-discriminants", false, "reject variants with more than one discriminant annotation")
	f.BoolVar(&opts.StrictFields, "strict-fields", false, "reject variants mixing named and tuple fields")
	f.BoolVar(&opts.SkipGateCheck, "skip-gate", false, "compile enums that do not derive ShankInstruction")
	f.BoolVar(&opts.FailOnDrift, "fail-on-drift", false, "exit 1 and skip recording when discriminants drift")
	f.BoolVar(&opts.Watch, "watch", false, "re-extract when sources change")

	return cmd
}

// resolveConfig layers the command-line flags that were set over the config.
func (opts *ExtractOptions) resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return nil, err
	}

	f := cmd.Flags()
	override := func(name string, dst *string, v string) {
		if f.Changed(name) {
			*dst = v
		}
	}
	overrideBool := func(name string, dst *bool, v bool) {
		if f.Changed(name) {
			*dst = v
		}
	}
	override("output", &cfg.Output, opts.Output)
	override("db", &cfg.Database, opts.Database)
	override("program", &cfg.Program, opts.Program)
	override("program-version", &cfg.Version, opts.ProgramVersion)
	override("address", &cfg.Address, opts.Address)
	overrideBool("strict-discriminants", &cfg.StrictDiscriminants, opts.StrictDiscriminants)
	overrideBool("strict-fields", &cfg.StrictFields, opts.StrictFields)
	overrideBool("skip-gate", &cfg.SkipGateCheck, opts.SkipGateCheck)

	if err := cfg.Validate(); err != nil {
		return nil, WrapExitError(ExitCommandError, ErrCodeConfig+": invalid configuration", err)
	}
	return cfg, nil
}

func runExtract(opts *ExtractOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	cfg, err := opts.resolveConfig(cmd)
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if !opts.Watch {
		return extractOnce(ctx, opts, cfg, path, formatter)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The first extraction may fail; watching continues until the sources are fixed.
	if err := extractOnce(ctx, opts, cfg, path, formatter); err != nil {
		slog.Error("extraction failed", "error", err)
	}

	w, err := watch.New(path, watch.WithLogger(slog.Default()))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to watch sources", err)
	}
	slog.Info("watching for changes", "path", path)
	return w.Run(ctx, func(ctx context.Context, changed []string) error {
		slog.Info("sources changed, re-extracting", "files", len(changed))
		return extractOnce(ctx, opts, cfg, path, formatter)
	})
}

// extractOnce loads, validates and emits the IDL, then records the run.
func extractOnce(ctx context.Context, opts *ExtractOptions, cfg *config.Config, path string, formatter *OutputFormatter) error {
	loadResult, loadErrors := LoadInstructionSets(ctx, path, cfg.CompileOptions(), LoadModeCollectAll)
	if len(loadErrors) > 0 {
		_ = formatter.Errors("Extraction failed", loadErrorsToCLI(loadErrors))
		return reported(NewExitError(ExitCommandError, fmt.Sprintf("extraction failed with %d error(s)", len(loadErrors))))
	}
	formatter.VerboseLog("Found %d source file(s), %d instruction set(s) in %s",
		len(loadResult.Files), len(loadResult.Sets), path)

	if verrs := validateSets(loadResult.Sets); len(verrs) > 0 {
		return outputValidationErrors(formatter, verrs)
	}

	program := cfg.IDLProgram(defaultProgramName(path))
	doc, err := idl.Build(program, loadResult.Sets...)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return reported(WrapExitError(ExitCommandError, "failed to build IDL", err))
	}
	data, err := idl.Marshal(doc)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to encode IDL", err)
	}

	summary := ExtractSummary{
		Program:      program.Name,
		Output:       cfg.Output,
		Sets:         make([]string, len(loadResult.Sets)),
		Instructions: len(doc.Instructions),
	}
	for i, set := range loadResult.Sets {
		summary.Sets[i] = set.Name
	}

	if cfg.Database != "" {
		run, drifts, err := recordHistory(ctx, cfg.Database, program.Name, path, loadResult.Sets, opts.FailOnDrift)
		if err != nil {
			_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
			return reported(WrapExitError(ExitCommandError, "extraction history failed", err))
		}
		summary.RunID = run.ID
		summary.Drift = drifts
		for _, d := range drifts {
			slog.Warn("discriminant drift", "instruction_set", d.InstructionSet, "variant", d.Name,
				"kind", d.Kind.String(), "before", d.Before, "after", d.After)
		}
		if len(drifts) > 0 && opts.FailOnDrift {
			errs := make([]CLIError, len(drifts))
			for i, d := range drifts {
				errs[i] = CLIError{Code: ErrCodeDrift, Message: d.String()}
			}
			_ = formatter.Errors("Discriminant drift", errs)
			return reported(NewExitError(ExitFailure, fmt.Sprintf("discriminant drift in %d variant(s)", len(drifts))))
		}
	}

	if cfg.Output == "" {
		_, err := formatter.Writer.Write(data)
		return err
	}

	if err := os.WriteFile(cfg.Output, data, 0644); err != nil {
		_ = formatter.Error(ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
		return reported(WrapExitError(ExitCommandError, "failed to write IDL", err))
	}
	return outputExtractSuccess(formatter, summary)
}

// recordHistory compares the sets with the latest recorded run of program and
// records them. With failOnDrift a drifting extraction is not recorded, so it
// keeps failing until the change is fixed or accepted.
func recordHistory(ctx context.Context, dbPath, program, input string, sets []*ir.InstructionSet, failOnDrift bool) (store.Run, []store.Drift, error) {
	st, err := store.Open(dbPath)
	if err != nil {
		return store.Run{}, nil, err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	drifts := []store.Drift{}
	latest, err := st.LatestRun(ctx, program)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		slog.Debug("no previous extraction", "program", program)
	case err != nil:
		return store.Run{}, nil, fmt.Errorf("read latest run: %w", err)
	default:
		prev, err := st.RunVariants(ctx, latest.ID)
		if err != nil {
			return store.Run{}, nil, err
		}
		cur, err := store.VariantRecords(sets...)
		if err != nil {
			return store.Run{}, nil, err
		}
		drifts = store.CompareVariants(prev, cur)
	}

	if len(drifts) > 0 && failOnDrift {
		return store.Run{}, drifts, nil
	}

	run, err := st.RecordRun(ctx, program, input, sets)
	if err != nil {
		return store.Run{}, nil, err
	}
	slog.Debug("recorded extraction", "program", program, "run", run.ID, "seq", run.Seq)
	return run, drifts, nil
}

func outputExtractSuccess(formatter *OutputFormatter, summary ExtractSummary) error {
	if formatter.Format == "json" {
		return formatter.Success(summary)
	}

	fmt.Fprintf(formatter.Writer, "✓ Extracted %d instruction(s) from %s\n",
		summary.Instructions, strings.Join(summary.Sets, ", "))
	fmt.Fprintf(formatter.Writer, "Wrote IDL to %s\n", summary.Output)
	if len(summary.Drift) > 0 {
		fmt.Fprintf(formatter.Writer, "\n%d variant(s) drifted since the previous extraction:\n", len(summary.Drift))
		for _, d := range summary.Drift {
			fmt.Fprintf(formatter.Writer, "  %s\n", d)
		}
	}
	return nil
}

// defaultProgramName names a program after its input: the file stem, or the
// crate directory for src/lib.rs style layouts.
func defaultProgramName(path string) string {
	clean := filepath.Clean(path)
	if abs, err := filepath.Abs(clean); err == nil {
		clean = abs
	}
	name := strings.TrimSuffix(filepath.Base(clean), filepath.Ext(clean))
	dir := filepath.Dir(clean)
	if name == "lib" || name == "main" || name == "mod" {
		name = filepath.Base(dir)
		dir = filepath.Dir(dir)
	}
	if name == "src" {
		name = filepath.Base(dir)
	}
	return name
}

// validateSets runs the post-build checks on every set.
func validateSets(sets []*ir.InstructionSet) []compiler.ValidationError {
	var errs []compiler.ValidationError
	seen := make(map[string]bool, len(sets))
	for i, set := range sets {
		if seen[set.Name] {
			errs = append(errs, compiler.ValidationError{
				Field:   fmt.Sprintf("sets[%d].name", i),
				Message: fmt.Sprintf("instruction set %q is declared more than once", set.Name),
				Code:    compiler.ErrDuplicateSetName,
			})
		}
		seen[set.Name] = true
		for _, verr := range compiler.Validate(set) {
			verr.Field = set.Name + "." + verr.Field
			errs = append(errs, verr)
		}
	}
	return errs
}
