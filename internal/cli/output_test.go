package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuzzyyeti/shank/internal/source"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	data := map[string]string{"result": "success"}
	err := formatter.Success(data)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Error("E001", "extraction failed", nil)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "error", resp.Status)
	assert.NotNil(t, resp.Error)
	assert.Equal(t, "E001", resp.Error.Code)
	assert.Equal(t, "extraction failed", resp.Error.Message)
}

func TestOutputFormatter_JSONErrorWithDetails(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	details := map[string]string{"file": "lib.rs", "line": "42"}
	err := formatter.Error("E002", "syntax error", details)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "error", resp.Status)
	assert.NotNil(t, resp.Error)
	assert.NotNil(t, resp.Error.Details)
}

func TestOutputFormatter_TextSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "text",
		Writer: buf,
	}

	err := formatter.Success("2 instruction set(s) valid")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "2 instruction set(s) valid")
}

func TestOutputFormatter_TextError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:  "text",
		Writer:  buf,
		Verbose: false,
	}

	err := formatter.Error("E001", "extraction failed", nil)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Error [E001]")
	assert.Contains(t, buf.String(), "extraction failed")
}

func TestOutputFormatter_TextErrorVerbose(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:  "text",
		Writer:  buf,
		Verbose: true,
	}

	details := map[string]string{"file": "lib.rs"}
	err := formatter.Error("E001", "extraction failed", details)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Error [E001]")
	assert.Contains(t, buf.String(), "Details:")
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		wantLog bool
	}{
		{"verbose_enabled", true, true},
		{"verbose_disabled", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, diag := &bytes.Buffer{}, &bytes.Buffer{}
			formatter := &OutputFormatter{
				Format:    "text",
				Writer:    out,
				ErrWriter: diag,
				Verbose:   tt.verbose,
			}

			formatter.VerboseLog("Processing %s", "lib.rs")

			assert.Empty(t, out.String())
			if tt.wantLog {
				assert.Contains(t, diag.String(), "Processing lib.rs")
			} else {
				assert.Empty(t, diag.String())
			}
		})
	}
}

func TestCLIResponse_JSON(t *testing.T) {
	resp := CLIResponse{
		Status: "ok",
		Data:   map[string]int{"count": 42},
	}

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded CLIResponse
	err = json.Unmarshal(data, &decoded)
	require.NoError(t, err)
	assert.Equal(t, "ok", decoded.Status)
}

func TestCLIError_JSON(t *testing.T) {
	cliErr := CLIError{
		Code:     "E301",
		Message:  "validation failed",
		Location: "lib.rs:4:5",
		Details:  []string{"Instruction::Close"},
	}

	data, err := json.Marshal(cliErr)
	require.NoError(t, err)

	var decoded CLIError
	err = json.Unmarshal(data, &decoded)
	require.NoError(t, err)
	assert.Equal(t, "E301", decoded.Code)
	assert.Equal(t, "validation failed", decoded.Message)
	assert.Equal(t, "lib.rs:4:5", decoded.Location)
}

func TestOutputFormatter_GetErrWriter(t *testing.T) {
	out := &bytes.Buffer{}
	formatter := &OutputFormatter{Writer: out}
	assert.Same(t, out, formatter.GetErrWriter())

	diag := &bytes.Buffer{}
	formatter.ErrWriter = diag
	assert.Same(t, diag, formatter.GetErrWriter())
}

func TestOutputFormatter_TextErrors(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	err := formatter.Errors("Extraction failed", []CLIError{
		{Code: "E203", Message: "Instruction::Close: #[discriminant] bad arity", Location: "lib.rs:5:5"},
		{Code: "E004", Message: "unexpected token"},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "✗ Extraction failed")
	assert.Contains(t, out, "lib.rs:5:5\n  E203: Instruction::Close")
	assert.Contains(t, out, "  E004: unexpected token")
}

func TestOutputFormatter_JSONErrors(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	err := formatter.Errors("Discriminant drift", []CLIError{
		{Code: "E010", Message: "Instruction::Close discriminant changed 01 -> 02"},
		{Code: "E010", Message: "Instruction::Pause removed (was 03)"},
	})
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   []CLIError `json:"data"`
		Error  CLIError   `json:"error"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "E010", resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "Instruction::Close")
	assert.Len(t, resp.Data, 2)
}

func TestLoadErrorsToCLI(t *testing.T) {
	errs := []error{
		&LoadError{Code: ErrCodeParseFailed, Message: "unexpected token", Pos: source.Pos{Filename: "lib.rs", Line: 3, Column: 7}},
		&LoadError{Code: ErrCodeNoFiles, Message: "no .rs or .cue files found in ."},
		errors.New("plain failure"),
	}

	got := loadErrorsToCLI(errs)
	want := []CLIError{
		{Code: ErrCodeParseFailed, Message: "unexpected token", Location: "lib.rs:3:7"},
		{Code: ErrCodeNoFiles, Message: "no .rs or .cue files found in ."},
		{Code: ErrCodeGeneric, Message: "plain failure"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("loadErrorsToCLI() mismatch (-want +got):\n%s", diff)
	}
}

func TestPrintUnreported(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"plain error", errors.New("unknown flag: --nope"), "Error: unknown flag: --nope\n"},
		{"unreported exit error", NewExitError(ExitCommandError, "invalid format"), "Error: invalid format\n"},
		{"reported exit error", reported(NewExitError(ExitFailure, "validation failed with 1 error(s)")), ""},
		{"wrapped reported exit error", fmt.Errorf("run: %w", reported(NewExitError(ExitFailure, "drift"))), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			PrintUnreported(buf, tt.err)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestCommandErrorsPrintedOnce(t *testing.T) {
	out := filepath.Join(t.TempDir(), "missing", "idl.schema.json")
	stdout, _, err := execute(NewRootCommand(), "schema", "-o", out)
	require.Error(t, err)
	assert.Equal(t, 1, strings.Count(stdout, "E007"))

	buf := &bytes.Buffer{}
	PrintUnreported(buf, err)
	assert.Empty(t, buf.String(), "the formatter already wrote this error")

	_, _, err = execute(NewRootCommand(), "--format", "yaml", "schema")
	require.Error(t, err)
	PrintUnreported(buf, err)
	assert.Contains(t, buf.String(), `invalid format "yaml"`)
}
