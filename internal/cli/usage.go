package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pkordes/labelcase/internal/docs"
)

func newUsageCommand() *cobra.Command {
	var width int

	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Explain how label names are kept lowercase",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := docs.Terminal(width)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().IntVar(&width, "width", 80, "word-wrap width")
	return cmd
}
