package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func repairCmd(a *app) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "repair <projectID>",
		Short: "Separate plot points and scenes that share coordinates",
		Long: "Opening a project on a canvas repairs overlapping positions. This command\n" +
			"opens the project, lets the repair run and syncs the moved positions back.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			p, source, err := a.fetch(ctx, args[0])
			if err != nil {
				return err
			}
			report := a.engine(a.cfg.Canvas.LayoutSeed).RepairOverlaps(p.Clone())
			if !report.Changed() {
				fmt.Fprintf(out, "  %s No overlapping positions in %s\n", StatusIcon(true), Brand.Sprint(p.Title))
				return nil
			}

			field(out, "Plot points", report.PlotPointsMoved)
			field(out, "Scenes", report.ScenesMoved)
			if dryRun {
				Subtle.Fprintln(out, "  Dry run, nothing was changed.")
				return nil
			}
			if source != "backend" {
				Warn.Fprintln(out, "  The API is unreachable; repair needs it to store the result.")
				return fmt.Errorf("backend unavailable")
			}

			store, err := a.store()
			if err != nil {
				return err
			}
			if err := store.Load(ctx, args[0]); err != nil {
				return err
			}
			if err := store.Close(ctx); err != nil {
				return err
			}
			fmt.Fprintf(out, "  %s Repaired %s\n", StatusIcon(true), Brand.Sprint(p.Title))
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would move without saving")
	return cmd
}
