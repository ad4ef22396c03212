package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"storycanvas/domain/core/entities"
)

func projectsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "projects",
		Aliases: []string{"ls", "list"},
		Short:   "List projects on the backend",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			list, err := a.backend().ListProjects(cmd.Context())
			if err != nil {
				return err
			}
			if len(list) == 0 {
				Subtle.Fprintln(out, "  No projects yet. Create one with `canvasctl create <title>`.")
				return nil
			}

			rows := make([][]string, 0, len(list))
			for _, p := range list {
				rows = append(rows, []string{
					p.ID,
					p.Title,
					p.Status,
					strconv.Itoa(p.PlotPoints),
					modified(p.LastModified),
					strconv.Itoa(p.Version),
				})
			}
			Table(out, []string{"ID", "TITLE", "STATUS", "PLOT POINTS", "MODIFIED", "VERSION"}, rows)
			fmt.Fprintln(out)
			Subtle.Fprintf(out, "  %d project(s)\n", len(list))
			return nil
		},
	}
}

func modified(stamp string) string {
	t, err := time.Parse(time.RFC3339, stamp)
	if err != nil {
		return stamp
	}
	return t.Local().Format("2006-01-02 15:04")
}

func createCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "create <title>",
		Short: "Create a project with its default acts",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			p, err := a.backend().CreateProject(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "  %s Created %s\n", StatusIcon(true), Brand.Sprint(p.Title))
			field(out, "ID", p.ID)
			field(out, "Acts", len(p.Acts))
			return nil
		},
	}
}

func addCmd(a *app) *cobra.Command {
	var actRank int

	cmd := &cobra.Command{
		Use:   "add <projectID> <title>",
		Short: "Add a plot point at a free spot of the canvas",
		Long: "Opens the project on a canvas, adds a plot point where the layout engine\n" +
			"finds room and syncs the result. Without --act the current act is used.",
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			title := strings.Join(args[1:], " ")

			store, err := a.store()
			if err != nil {
				return err
			}
			if err := store.Load(ctx, args[0]); err != nil {
				return err
			}

			if actRank > 0 {
				act, ok := store.Project().ActAtRank(actRank)
				if !ok {
					_ = store.Close(ctx)
					return fmt.Errorf("project has no act %d", actRank)
				}
				if err := store.SetCurrentAct(act.ID); err != nil {
					_ = store.Close(ctx)
					return err
				}
			}

			pp, err := store.AddPlotPoint(title, nil)
			if err != nil {
				_ = store.Close(ctx)
				return err
			}
			act := actName(store.Project().Acts, pp.ActID)

			if err := store.Close(ctx); err != nil {
				Warn.Fprintf(out, "  %s Sync failed, the plot point is kept in the local backup\n", StatusIcon(false))
				Subtle.Fprintln(out, "  Run `canvasctl sync "+args[0]+"` once the API is reachable.")
				return err
			}
			fmt.Fprintf(out, "  %s Added %s to %s at (%.0f, %.0f)\n",
				StatusIcon(true), Brand.Sprint(pp.Title), act, pp.Position.X, pp.Position.Y)
			return nil
		},
	}
	cmd.Flags().IntVar(&actRank, "act", 0, "Act number in display order (1-based)")
	return cmd
}

func actName(acts []entities.Act, id string) string {
	for _, a := range acts {
		if a.ID == id {
			return a.Name
		}
	}
	return id
}
