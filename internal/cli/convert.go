package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/pkordes/labelcase/internal/lowercase"
)

var (
	normalizedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	pendingStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	headingStyle    = lipgloss.NewStyle().Bold(true)
)

// newConvertAllCommand runs the bulk conversion from the shell. Shell access to
// the configured database stands in for the admin capability check.
func newConvertAllCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "convert-all",
		Short: "Convert every stored label name to lowercase",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer a.close()

			n, err := a.plugin.ConvertAll(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), a.plugin.T(lowercase.MsgBulkDone)+"\n", n)
			return err
		},
	}
}

func newStatsCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show the label count and a sample of labels",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer a.close()

			if limit <= 0 {
				limit = cfg.SampleSize
			}
			stats, err := a.plugin.Stats(cmd.Context(), limit)
			if err != nil {
				return err
			}
			printStats(cmd.OutOrStdout(), stats)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "number of labels to list (default: SAMPLE_SIZE)")
	return cmd
}

// printStats renders stats with normalized labels in green and pending ones in orange.
func printStats(w io.Writer, s lowercase.Stats) {
	fmt.Fprintln(w, headingStyle.Render(fmt.Sprintf("Total labels: %d", s.Total)))
	if len(s.Labels) == 0 {
		return
	}
	fmt.Fprintln(w, headingStyle.Render("Some current labels"))
	for _, l := range s.Labels {
		if l.Normalized {
			fmt.Fprintf(w, "  %6d  %s\n", l.Label.ID, normalizedStyle.Render(l.Label.Name))
			continue
		}
		fmt.Fprintf(w, "  %6d  %s  (pending)\n", l.Label.ID, pendingStyle.Render(l.Label.Name))
	}
	if p := s.Pending(); p > 0 {
		fmt.Fprintln(w, pendingStyle.Render(fmt.Sprintf("%d listed labels need converting; run labelcase convert-all.", p)))
	}
}
