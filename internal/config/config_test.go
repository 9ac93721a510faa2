package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuzzyyeti/shank/internal/compiler"
	"github.com/fuzzyyeti/shank/internal/idl"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultPath)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "0.1.0", cfg.Version)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
program: vault
version: 1.2.0
address: Vau1t11111111111111111111111111111111111111
database: .shank/history.db
strict_discriminants: true
skip_gate_check: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, &Config{
		Program:             "vault",
		Version:             "1.2.0",
		Address:             "Vau1t11111111111111111111111111111111111111",
		Database:            ".shank/history.db",
		StrictDiscriminants: true,
		SkipGateCheck:       true,
	}, cfg)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "program: vault\n"))
	require.NoError(t, err)
	assert.Equal(t, "vault", cfg.Program)
	assert.Equal(t, "0.1.0", cfg.Version)
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "program: [unclosed\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}

func TestLoad_UnreadableFile(t *testing.T) {
	// A directory cannot be read as a file.
	_, err := Load(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config")
}

func TestEnvOverrides(t *testing.T) {
	t.Run("env overrides file", func(t *testing.T) {
		t.Setenv("SHANK_PROGRAM", "escrow")
		t.Setenv("SHANK_DB", "/tmp/h.db")
		t.Setenv("SHANK_STRICT_FIELDS", "true")

		cfg, err := Load(writeConfig(t, "program: vault\nversion: 2.0.0\n"))
		require.NoError(t, err)
		assert.Equal(t, "escrow", cfg.Program)
		assert.Equal(t, "2.0.0", cfg.Version)
		assert.Equal(t, "/tmp/h.db", cfg.Database)
		assert.True(t, cfg.StrictFields)
		assert.False(t, cfg.StrictDiscriminants)
	})

	t.Run("env applies without a file", func(t *testing.T) {
		t.Setenv("SHANK_SKIP_GATE", "1")
		t.Setenv("SHANK_VERSION", "3.0.0")

		cfg, err := Load("")
		require.NoError(t, err)
		assert.True(t, cfg.SkipGateCheck)
		assert.Equal(t, "3.0.0", cfg.Version)
	})

	for _, env := range []string{"SHANK_STRICT_DISCRIMINANTS", "SHANK_STRICT_FIELDS", "SHANK_SKIP_GATE"} {
		t.Run("invalid bool "+env, func(t *testing.T) {
			t.Setenv(env, "maybe")

			_, err := Load(writeConfig(t, "strict_fields: true\n"))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "failed to decode environment")
		})
	}

	t.Run("nothing set", func(t *testing.T) {
		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig(), cfg)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"defaults", *DefaultConfig(), ""},
		{"address", Config{Version: "1", Address: "11111111111111111111111111111111"}, ""},
		{"empty version", Config{Version: " "}, "version must not be empty"},
		{"short address", Config{Version: "1", Address: "abc"}, "invalid program address"},
		{"non-base58 address", Config{Version: "1", Address: "0OIl1111111111111111111111111111"}, "invalid program address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCompileOptions(t *testing.T) {
	cfg := Config{StrictDiscriminants: true, SkipGateCheck: true}
	assert.Equal(t, compiler.Options{SkipGateCheck: true, StrictDiscriminants: true}, cfg.CompileOptions())
}

func TestIDLProgram(t *testing.T) {
	cfg := Config{Version: "1.0.0", Address: "addr"}
	assert.Equal(t, idl.Program{Name: "lib", Version: "1.0.0", Address: "addr"}, cfg.IDLProgram("lib"))

	cfg.Program = "vault"
	assert.Equal(t, "vault", cfg.IDLProgram("lib").Name)
}
