package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func syncCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sync <projectID>",
		Short: "Push the local backup of a project to the backend",
		Long: "Opens the local backup on a canvas and reconciles it with the backend in\n" +
			"full: entities missing remotely are created, remote-only ones are deleted.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			backups, err := a.backups()
			if err != nil {
				return err
			}
			local, err := backups.Load(ctx, args[0])
			if err != nil {
				return err
			}

			store, err := a.store()
			if err != nil {
				return err
			}
			if err := store.Open(ctx, local); err != nil {
				return err
			}
			if err := store.Flush(ctx); err != nil {
				_ = store.Close(ctx)
				return fmt.Errorf("sync failed, backup kept at %s: %w", backups.Path(args[0]), err)
			}
			synced := store.Project()
			if err := store.Close(ctx); err != nil {
				return err
			}

			fmt.Fprintf(out, "  %s Synced %s from %s\n", StatusIcon(true), Brand.Sprint(synced.Title), Subtle.Sprint(backups.Path(args[0])))
			field(out, "Acts", len(synced.Acts))
			field(out, "Characters", len(synced.Characters))
			field(out, "Plot points", len(synced.PlotPoints))
			return nil
		},
	}
}
