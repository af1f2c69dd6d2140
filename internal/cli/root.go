// Package cli implements the smarttodo command line.
package cli

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"smarttodo/internal/config"
	"smarttodo/internal/store"
	"smarttodo/internal/tasks"
)

// app carries the state shared by all subcommands of one invocation.
type app struct {
	configPath string
	dataFile   string
	noRemote   bool

	cfg     *config.Config
	remote  store.Remote
	manager *tasks.Manager
	logger  *log.Logger
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "smarttodo",
		Short: "A prioritized to-do list with optional remote sync",
		Long: `smarttodo keeps tasks in a local JSON file, ranks them by urgency and can
reconcile them with a shared SQLite or PostgreSQL row store.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/smarttodo/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&a.dataFile, "file", "f", "", "task file, overrides data_file")
	rootCmd.PersistentFlags().BoolVar(&a.noRemote, "offline", false, "ignore the configured remote store")

	rootCmd.AddCommand(
		newAddCmd(a),
		newListCmd(a),
		newShowCmd(a),
		newEditCmd(a),
		newDoneCmd(a),
		newRmCmd(a),
		newPriorityCmd(a),
		newSnoozeCmd(a),
		newOverdueCmd(a),
		newUpcomingCmd(a),
		newSearchCmd(a),
		newSyncCmd(a),
		newStatsCmd(a),
		newExportCmd(a),
		newServeCmd(a),
		newConfigCmd(a),
	)
	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

// loadConfig resolves the configuration and applies flag overrides.
func (a *app) loadConfig() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.dataFile != "" {
		cfg.DataFile = a.dataFile
	}
	if a.noRemote {
		cfg.Remote.Driver = config.DriverNone
	}
	a.cfg = cfg
	return nil
}

// open loads the configuration, connects the remote store if one is
// configured and builds the task manager. A remote that cannot be reached is
// reported and the command continues purely local.
func (a *app) open(cmd *cobra.Command) error {
	if err := a.loadConfig(); err != nil {
		return err
	}
	a.logger = log.New(cmd.ErrOrStderr(), "", log.LstdFlags)

	opts := []tasks.Option{tasks.WithLogger(a.logger)}
	if a.cfg.Remote.Enabled() {
		ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.Remote.Timeout)
		remote, err := openRemote(ctx, a.cfg.Remote)
		cancel()
		if err != nil {
			a.logger.Printf("remote store unavailable, working locally: %v", err)
		} else {
			a.remote = remote
			opts = append(opts, tasks.WithRemote(remote))
		}
	}

	a.manager = tasks.New(store.NewJSONStore(a.cfg.DataFile), opts...)
	return nil
}

func (a *app) close() {
	if a.remote != nil {
		if err := a.remote.Close(); err != nil {
			a.logger.Printf("failed to close remote store: %v", err)
		}
		a.remote = nil
	}
}

// ctx bounds a command's remote calls by the configured timeout.
func (a *app) ctx(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), a.cfg.Remote.Timeout)
}

// run wraps a command body with open and close.
func (a *app) run(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := a.open(cmd); err != nil {
			return err
		}
		defer a.close()
		return fn(cmd, args)
	}
}

func openRemote(ctx context.Context, rc config.RemoteConfig) (store.Remote, error) {
	switch rc.Driver {
	case config.DriverSQLite:
		return store.NewSQLiteRemote(rc.DSN)
	case config.DriverPostgres:
		return store.NewPostgresRemote(ctx, store.DefaultPostgresConfig(rc.DSN))
	default:
		return nil, fmt.Errorf("unknown remote driver %q", rc.Driver)
	}
}
