package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/kgbridge/am"
	"github.com/teranos/kgbridge/errors"
	"github.com/teranos/kgbridge/logger"
	"github.com/teranos/kgbridge/metrics"
	"github.com/teranos/kgbridge/server"
)

// ServerCmd starts the HTTP API
var ServerCmd = &cobra.Command{
	Use:     "server",
	Aliases: []string{"serve"},
	Short:   "Start the kgbridge HTTP API",
	Long: `Serve the RDF import/export, graph snapshot and reasoning endpoints.

The active config file is watched; rate limits and allowed origins are
reloaded without a restart.`,
	RunE: runServer,
}

var serverPort int

func init() {
	ServerCmd.Flags().IntVarP(&serverPort, "port", "p", 0, "Port to listen on (overrides server.port)")
}

func runServer(cmd *cobra.Command, args []string) error {
	verbosity, _ := cmd.Flags().GetCount("verbose")
	if verbosity == 0 {
		// Server defaults to Info
		logger.SetVerbosity(1)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serverPort != 0 {
		cfg.Server.Port = &serverPort
	}

	ctx := commandContext(cmd)
	store, err := openStore(ctx, cfg)
	if err != nil {
		return errors.Wrap(err, "failed to open graph store")
	}
	defer store.Close()

	srv, err := server.New(server.Deps{
		Store:   store,
		Config:  cfg,
		Metrics: metrics.New(),
		Logger:  logger.Logger,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create server")
	}

	printStartupBanner(cfg)

	if path := am.ActiveConfigFile(); path != "" {
		watcher, err := am.NewConfigWatcher(path)
		if err != nil {
			logger.Warnw("Config reload disabled", "file", path, "error", err)
		} else {
			watcher.OnReload(srv.ApplyConfig)
			watcher.Start()
			defer watcher.Stop()
		}
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errChan:
		return errors.Wrap(err, "server stopped unexpectedly")
	case <-sigChan:
		pterm.Info.Println("Shutting down gracefully...")
		if err := srv.Shutdown(context.Background()); err != nil {
			return err
		}
		pterm.Success.Println("Server stopped cleanly")
		return nil
	}
}
