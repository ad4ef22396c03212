package cli

import (
	"github.com/spf13/cobra"

	"storycanvas/infrastructure/di"
)

func serveCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the story API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				a.cfg.ServerAddress = addr
			}
			container, err := di.InitializeContainer(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			Brand.Fprintf(cmd.OutOrStdout(), "  Serving on %s (%s storage)\n", a.cfg.ServerAddress, a.cfg.StorageBackend)
			return container.Serve(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: server_address)")
	return cmd
}
