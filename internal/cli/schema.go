package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fuzzyyeti/shank/internal/idl"
)

// NewSchemaCommand creates the schema command.
func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:           "schema",
		Short:         "Print the JSON Schema of the IDL document",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)
			data, err := idl.MarshalSchema()
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to encode schema", err)
			}
			if output == "" {
				_, err := formatter.Writer.Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0644); err != nil {
				_ = formatter.Error(ErrCodeWriteFailed, fmt.Sprintf("writing schema: %v", err), nil)
				return reported(WrapExitError(ExitCommandError, "failed to write schema", err))
			}
			formatter.VerboseLog("Wrote schema to %s", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file path (default stdout)")
	return cmd
}
