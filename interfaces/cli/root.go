// Package cli implements canvasctl, the command line companion of the story
// canvas: it lists and creates projects, renders the canvas graph of a project,
// repairs overlapping layouts, pushes local backups and runs the API server.
package cli

import (
	"context"
	"net/http"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"storycanvas/application/canvas"
	storysync "storycanvas/application/sync"
	"storycanvas/domain/core/aggregates"
	"storycanvas/domain/services/layout"
	"storycanvas/infrastructure/client"
	"storycanvas/infrastructure/config"
	"storycanvas/infrastructure/persistence/backup"
	"storycanvas/pkg/schedule"
)

var version = "0.3.0"

// app carries the global flags and the collaborators built from them
type app struct {
	configPath string
	backendURL string
	backupDir  string
	verbose    bool

	// httpClient overrides the backend transport; nil uses the default client
	httpClient *http.Client

	cfg    *config.Config
	logger *zap.Logger
}

// NewRootCmd builds the canvasctl command tree
func NewRootCmd() *cobra.Command {
	return newRootCmd(&app{})
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "canvasctl",
		Short: "canvasctl - work with story canvas projects",
		Long: Brand.Sprint("canvasctl") + " - inspect, repair and sync story canvas projects\n" +
			Subtle.Sprint("Talks to the story API and falls back to local backups when it is down"),
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.SetVersionTemplate("canvasctl {{ .Version }}\n")

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "YAML config file (default: $CONFIG_FILE)")
	flags.StringVar(&a.backendURL, "backend", "", "API base URL (default: $BACKEND_URL)")
	flags.StringVar(&a.backupDir, "backup-dir", "", "Directory of local project backups (default: $BACKUP_DIR)")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "Log debug output to stderr")

	root.AddCommand(
		projectsCmd(a),
		createCmd(a),
		addCmd(a),
		renderCmd(a),
		repairCmd(a),
		syncCmd(a),
		serveCmd(a),
	)
	return root
}

// Execute runs canvasctl with os.Args
func Execute(ctx context.Context) error {
	root := NewRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		Bad.Fprintf(root.ErrOrStderr(), "canvasctl: %v\n", err)
		return err
	}
	return nil
}

func (a *app) load() error {
	var (
		cfg *config.Config
		err error
	)
	if a.configPath != "" {
		cfg, err = config.LoadFile(a.configPath)
	} else {
		cfg, err = config.LoadConfig()
	}
	if err != nil {
		return err
	}
	if a.backendURL != "" {
		cfg.BackendURL = a.backendURL
	}
	if a.backupDir != "" {
		cfg.BackupDir = a.backupDir
	}

	level := zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if a.verbose {
		level.SetLevel(zapcore.DebugLevel)
	}
	logger, err := config.NewLogger(cfg, level)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger.Named("canvasctl")
	return nil
}

func (a *app) backend() *client.HTTPBackend {
	settings := client.BreakerSettings{
		MaxRequests:      a.cfg.Breaker.MaxRequests,
		Interval:         a.cfg.Breaker.Interval,
		Timeout:          a.cfg.Breaker.Timeout,
		FailureThreshold: a.cfg.Breaker.FailureThreshold,
	}
	return client.NewHTTPBackend(a.cfg.BackendURL, a.httpClient, settings, a.logger.Named("client"))
}

func (a *app) backups() (*backup.FileStore, error) {
	return backup.NewFileStore(a.cfg.BackupDir, a.logger.Named("backup"))
}

func (a *app) engine(seed uint64) *layout.Engine {
	return layout.NewSeededEngine(a.cfg.DomainConfig(), seed)
}

// store builds a canvas store syncing to the backend and backing up locally
func (a *app) store() (*canvas.Store, error) {
	backups, err := a.backups()
	if err != nil {
		return nil, err
	}
	dc := a.cfg.DomainConfig()
	be := a.backend()
	pipeline := storysync.NewPipeline(be, schedule.Real{}, dc.SyncDebounce, a.logger.Named("sync"))
	return canvas.NewStore(canvas.Deps{
		Config:   dc,
		Engine:   a.engine(a.cfg.Canvas.LayoutSeed),
		Backend:  be,
		Pipeline: pipeline,
		Backup:   backups,
		Logger:   a.logger.Named("canvas"),
	}), nil
}

// fetch reads a project from the backend, or from its backup when the backend
// cannot answer. The returned source names where it came from.
func (a *app) fetch(ctx context.Context, projectID string) (*aggregates.Project, string, error) {
	p, err := a.backend().GetProject(ctx, projectID)
	if err == nil {
		return p, "backend", nil
	}
	backups, berr := a.backups()
	if berr != nil {
		return nil, "", err
	}
	p, berr = backups.Load(ctx, projectID)
	if berr != nil {
		a.logger.Debug("No usable backup", zap.String("project_id", projectID), zap.Error(berr))
		return nil, "", err
	}
	a.logger.Warn("Backend unavailable, using local backup",
		zap.String("project_id", projectID),
		zap.Error(err))
	return p, "backup", nil
}
