package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/fuzzyyeti/shank/internal/compiler"
	"github.com/fuzzyyeti/shank/internal/cuesrc"
	"github.com/fuzzyyeti/shank/internal/ir"
	"github.com/fuzzyyeti/shank/internal/rustsrc"
	"github.com/fuzzyyeti/shank/internal/source"
)

// LoadMode controls how errors are handled during loading.
type LoadMode int

const (
	// LoadModeFailFast reports only the first error, in path order.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll reports every error.
	LoadModeCollectAll
)

// LoadResult contains the instruction sets found under a path.
type LoadResult struct {
	Sets      []*ir.InstructionSet
	Files     []string // every source file that was parsed, sorted
	EnumCount int      // enums seen, marked or not
}

// LoadError represents an error that occurred during loading.
type LoadError struct {
	Code    string
	Message string
	Pos     source.Pos
	Err     error
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s: %s: %s", e.Pos, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric        = "E001" // Generic/unknown error
	ErrCodeScanError      = "E002" // Directory scan error
	ErrCodeNoFiles        = "E003" // No source files found
	ErrCodeParseFailed    = "E004" // Source file does not parse
	ErrCodeNotFound       = "E005" // Path not found
	ErrCodeNoInstructions = "E006" // No instruction enum found
	ErrCodeWriteFailed    = "E007" // File write error
	ErrCodeDatabase       = "E008" // History database error
	ErrCodeConfig         = "E009" // Invalid configuration
	ErrCodeDrift          = "E010" // Discriminant drift against history
)

// sourceExtensions are the inputs the loader understands.
var sourceExtensions = []string{".rs", ".cue"}

// fileResult is what one worker produces for one file.
type fileResult struct {
	sets  []*ir.InstructionSet
	enums int
	errs  []error
}

// LoadInstructionSets finds every .rs and .cue file under path, parses the
// files concurrently and compiles each marked enum. Sets are returned in path
// order, then source order, whatever order the workers finish in.
func LoadInstructionSets(ctx context.Context, path string, opts compiler.Options, mode LoadMode) (*LoadResult, []error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("path not found: %s", path), Err: err}}
		}
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing path: %v", err), Err: err}}
	}

	files, err := FindSourceFiles(path)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning %s: %v", path, err), Err: err}}
	}
	if len(files) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no .rs or .cue files found in %s", path)}}
	}
	slog.Debug("loading sources", "path", path, "files", len(files))

	results := make([]fileResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, file := range files {
		g.Go(func() error {
			results[i] = loadFile(gctx, file, opts, mode)
			if mode == LoadModeFailFast && len(results[i].errs) > 0 {
				return results[i].errs[0]
			}
			return nil
		})
	}
	_ = g.Wait() // errors are kept per file so they can be reported in path order

	result := &LoadResult{Files: files}
	var errs []error
	for _, r := range results {
		result.Sets = append(result.Sets, r.sets...)
		result.EnumCount += r.enums
		for _, err := range r.errs {
			// Files cut short by a fail-fast cancellation have nothing to report.
			if mode == LoadModeFailFast && errors.Is(err, context.Canceled) && ctx.Err() == nil {
				continue
			}
			errs = append(errs, err)
		}
	}
	if mode == LoadModeFailFast && len(errs) > 1 {
		errs = errs[:1]
	}
	if err := ctx.Err(); err != nil && len(errs) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeGeneric, Message: "loading cancelled", Err: err})
	}

	if len(result.Sets) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{
			Code:    ErrCodeNoInstructions,
			Message: fmt.Sprintf("no enum deriving %s found in %s", compiler.DeriveMarker, path),
		})
	}
	return result, errs
}

func loadFile(ctx context.Context, file string, opts compiler.Options, mode LoadMode) fileResult {
	var (
		enums []source.Enum
		err   error
	)
	switch filepath.Ext(file) {
	case ".rs":
		enums, err = rustsrc.ParseFile(ctx, file)
	case ".cue":
		enums, err = cuesrc.ParseFile(file)
	}
	if err != nil {
		return fileResult{errs: []error{convertParseError(file, err)}}
	}

	r := fileResult{enums: len(enums)}
	for _, e := range enums {
		set, err := compiler.CompileInstruction(e, opts)
		if err != nil {
			r.errs = append(r.errs, convertCompileError(e.Name, err))
			if mode == LoadModeFailFast {
				break
			}
			continue
		}
		if set == nil {
			slog.Debug("skipping enum without derive", "enum", e.Name, "file", file)
			continue
		}
		r.sets = append(r.sets, set)
	}
	return r
}

// FindSourceFiles returns the .rs and .cue files under path in sorted order.
// Hidden directories and build output are skipped. A path naming a single
// source file yields just that file.
func FindSourceFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		if !slices.Contains(sourceExtensions, filepath.Ext(path)) {
			return nil, fmt.Errorf("unsupported file type %q", filepath.Ext(path))
		}
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != path && (strings.HasPrefix(d.Name(), ".") || d.Name() == "target") {
				return filepath.SkipDir
			}
			return nil
		}
		if slices.Contains(sourceExtensions, filepath.Ext(p)) {
			files = append(files, p)
		}
		return nil
	})
	slices.Sort(files)
	return files, err
}

// convertParseError converts a front-end error to a LoadError with position info.
func convertParseError(file string, err error) *LoadError {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("%s: %v", file, err), Err: err}
	}
	var srcErr *source.Error
	if errors.As(err, &srcErr) {
		pos := srcErr.Pos
		if pos.Filename == "" {
			pos.Filename = file
		}
		return &LoadError{Code: ErrCodeParseFailed, Message: srcErr.Msg, Pos: pos, Err: err}
	}
	return &LoadError{Code: ErrCodeParseFailed, Message: fmt.Sprintf("%s: %v", file, err), Err: err}
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(enum string, err error) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		msg := compileErr.Message
		if compileErr.Annotation != "" {
			msg = fmt.Sprintf("#[%s] %s", compileErr.Annotation, msg)
		}
		if compileErr.Variant != "" {
			msg = fmt.Sprintf("%s::%s: %s", enum, compileErr.Variant, msg)
		} else {
			msg = fmt.Sprintf("%s: %s", enum, msg)
		}
		return &LoadError{Code: compileErr.Code, Message: msg, Pos: compileErr.Pos, Err: err}
	}
	return &LoadError{
		Code:    ErrCodeGeneric,
		Message: fmt.Sprintf("%s: %v", enum, err),
		Err:     err,
	}
}

// parseLoadError extracts error code, message and position from an error.
func parseLoadError(err error) (string, string, source.Pos) {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code, loadErr.Message, loadErr.Pos
	}
	return ErrCodeGeneric, err.Error(), source.Pos{}
}
