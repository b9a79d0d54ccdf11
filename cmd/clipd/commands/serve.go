package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/teranos/clipd/db"
	"github.com/teranos/clipd/errors"
	"github.com/teranos/clipd/fetch"
	"github.com/teranos/clipd/ledger"
	"github.com/teranos/clipd/logger"
	"github.com/teranos/clipd/server"
	"github.com/teranos/clipd/vault"
	"github.com/teranos/clipd/ytdlp"
)

// ServeCmd starts the clipd HTTP server with its worker pool and sweeper
var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the clipd server",
	Long:  `Start the HTTP server, download worker pool and retention sweeper. Runs until interrupted; a second interrupt forces immediate exit.`,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return errors.Wrap(err, "load config")
	}

	if err := logger.Initialize(cfg.Log.JSON, cfg.Log.File); err != nil {
		return errors.Wrap(err, "initialize logger")
	}
	log := logger.Named("clipd")

	conn, err := db.OpenWithMigrations(cfg.Database.Path, log)
	if err != nil {
		return errors.Wrap(err, "open database")
	}
	defer conn.Close()

	store := ledger.NewStore(conn)

	vlt, err := vault.New(cfg.Vault.Dir, log)
	if err != nil {
		return errors.Wrap(err, "open vault")
	}

	extraArgs, err := cfg.Ytdlp.ExtraArgsList()
	if err != nil {
		return err
	}
	client := ytdlp.NewClient(ytdlp.Options{
		Binary:          cfg.Ytdlp.Binary,
		ExtraArgs:       extraArgs,
		ProbeTimeout:    cfg.Fetch.ProbeTimeout(),
		ProbeCacheTTL:   cfg.Fetch.ProbeCacheTTL(),
		ProbesPerMinute: cfg.Fetch.ProbesPerMinute,
	}, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sv := fetch.NewSupervisor(ctx, store, client, client, fetch.Config{
		Workers:    cfg.Fetch.Workers,
		QueueDepth: cfg.Fetch.QueueDepth,
		MaxRuntime: cfg.Fetch.MaxRuntime(),
		Retries:    cfg.Fetch.Retries,
		VaultDir:   vlt.Root(),
	}, log)

	// Jobs left in flight by a previous process are unrecoverable, fail
	// them before accepting new work.
	if _, err := sv.ReconcileStale(); err != nil {
		log.Warnw("Stale job reconciliation failed", "error", err)
	}

	sv.Start()

	sweeper := vault.NewSweeper(vlt, store, log)
	if _, _, err := sweeper.Purge(ctx, time.Now().Add(-cfg.Vault.Retention())); err != nil {
		log.Warnw("Startup sweep failed", "error", err)
	}
	go sweepLoop(ctx, sweeper, sv, cfg.Vault.SweepInterval(), cfg.Vault.Retention())

	srv := server.New(cfg.Server.Port, store, sv, vlt, log)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	log.Infow("clipd started",
		"port", cfg.Server.Port,
		"vault", vlt.Root(),
		"database", cfg.Database.Path,
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return errors.Wrap(err, "server failed")
	case sig := <-sigChan:
		log.Infow("Shutting down", "signal", sig.String())

		shutdownDone := make(chan error, 1)
		go func() {
			err := srv.Shutdown()
			sv.Stop()
			shutdownDone <- err
		}()

		select {
		case err := <-shutdownDone:
			if err != nil {
				return errors.Wrap(err, "shutdown")
			}
			log.Infow("Stopped cleanly")
			return nil
		case <-sigChan:
			log.Warnw("Forced shutdown")
			os.Exit(1)
			return nil // unreachable
		}
	}
}

// sweepLoop periodically purges expired artifacts and fails jobs that
// exceeded their runtime without reporting progress.
func sweepLoop(ctx context.Context, sweeper *vault.Sweeper, sv *fetch.Supervisor, interval, retention time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, _, err := sweeper.Purge(ctx, time.Now().Add(-retention)); err != nil {
				logger.Warnw("Retention sweep failed", "error", err)
			}
			if _, err := sv.ReconcileStale(); err != nil {
				logger.Warnw("Stale job reconciliation failed", "error", err)
			}
		}
	}
}
