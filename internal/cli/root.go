// Package cli implements the labelcase command line: the HTTP server and the
// operator commands that run the plugin against the configured database.
package cli

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Version is stamped at build time with -ldflags.
var Version = "dev"

// NewRootCommand builds the labelcase command tree.
func NewRootCommand() *cobra.Command {
	var envFile string

	rootCmd := &cobra.Command{
		Use:   "labelcase",
		Short: "labelcase - keep catalog label names lowercase",
		Long: `labelcase stores catalog labels and folds every label name to lowercase
as it is saved. The operator commands convert labels stored before the
plugin was active and report how many are still pending.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// A missing .env is normal in production; the environment wins anyway.
			if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading configuration")

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newMigrateCommand())
	rootCmd.AddCommand(newConvertAllCommand())
	rootCmd.AddCommand(newStatsCommand())
	rootCmd.AddCommand(newUsageCommand())
	rootCmd.AddCommand(newTokenCommand())

	return rootCmd
}
