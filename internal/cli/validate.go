package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fuzzyyeti/shank/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool                       `json:"valid"`
	Sets   int                        `json:"instruction_sets"`
	Errors []compiler.ValidationError `json:"errors,omitempty"`
}

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	StrictDiscriminants bool
	StrictFields        bool
	SkipGateCheck       bool
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <path>",
		Short: "Check instruction enums without emitting an IDL",
		Long: `Compile every instruction enum under <path> and run the post-build checks:
colliding discriminants, duplicate variant names and duplicate account names.

Unlike extract, every problem in every file is reported.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	f := cmd.Flags()
	f.BoolVar(&opts.StrictDiscriminants, "strict-discriminants", false, "reject variants with more than one discriminant annotation")
	f.BoolVar(&opts.StrictFields, "strict-fields", false, "reject variants mixing named and tuple fields")
	f.BoolVar(&opts.SkipGateCheck, "skip-gate", false, "compile enums that do not derive ShankInstruction")

	return cmd
}

func runValidate(opts *ValidateOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return err
	}
	compileOpts := cfg.CompileOptions()
	f := cmd.Flags()
	if f.Changed("strict-discriminants") {
		compileOpts.StrictDiscriminants = opts.StrictDiscriminants
	}
	if f.Changed("strict-fields") {
		compileOpts.StrictFields = opts.StrictFields
	}
	if f.Changed("skip-gate") {
		compileOpts.SkipGateCheck = opts.SkipGateCheck
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	loadResult, loadErrors := LoadInstructionSets(ctx, path, compileOpts, LoadModeCollectAll)

	// Nothing to validate: bad path, no files.
	if loadResult == nil {
		code, message, _ := parseLoadError(loadErrors[0])
		return outputValidateError(formatter, code, message)
	}

	formatter.VerboseLog("Found %d source file(s) in %s", len(loadResult.Files), path)
	for _, set := range loadResult.Sets {
		formatter.VerboseLog("Validating instruction set: %s (%d variants)", set.Name, len(set.Variants))
	}

	var validationErrors []compiler.ValidationError
	for _, err := range loadErrors {
		code, message, pos := parseLoadError(err)
		validationErrors = append(validationErrors, compiler.ValidationError{
			Field:   pos.Filename,
			Message: message,
			Code:    code,
			Line:    pos.Line,
		})
	}
	validationErrors = append(validationErrors, validateSets(loadResult.Sets)...)

	if len(validationErrors) > 0 {
		return outputValidationErrors(formatter, validationErrors)
	}
	return outputValidateSuccess(formatter, len(loadResult.Sets))
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, sets int) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Sets: sets})
	}

	fmt.Fprintf(formatter.Writer, "✓ %d instruction set(s) valid\n", sets)
	return nil
}

// outputValidateError outputs an error that prevented validation.
func outputValidateError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return reported(NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message)))
}

// outputValidationErrors outputs every validation error.
func outputValidationErrors(formatter *OutputFormatter, errs []compiler.ValidationError) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: errs},
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}
		if err := formatter.encode(response); err != nil {
			return err
		}
		return reported(NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs))))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		switch {
		case err.Line > 0:
			fmt.Fprintf(formatter.Writer, "%s line %d\n", err.Field, err.Line)
		case err.Field != "":
			fmt.Fprintln(formatter.Writer, err.Field)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", err.Code, err.Message)
	}

	// Validation failures = exit code 1
	return reported(NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs))))
}
