package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

const twoVariantSource = `#[derive(ShankInstruction)]
pub enum Instruction {
    Init,
    Close,
}
`

const collidingSource = `#[derive(ShankInstruction)]
pub enum Instruction {
    #[discriminant(7)]
    Init,
    #[discriminant(0x07)]
    Close,
}
`

const badAritySource = `#[derive(ShankInstruction)]
pub enum Instruction {
    Init,
    #[discriminant(1, 2)]
    Close,
}
`

// writeSource writes content to dir/name and returns the path.
func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// execute runs cmd with args and returns stdout and stderr.
func execute(cmd *cobra.Command, args ...string) (string, string, error) {
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}
