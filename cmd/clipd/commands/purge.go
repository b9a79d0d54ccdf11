package commands

import (
	"context"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/clipd/db"
	"github.com/teranos/clipd/errors"
	"github.com/teranos/clipd/ledger"
	"github.com/teranos/clipd/logger"
	"github.com/teranos/clipd/vault"
)

// PurgeCmd runs a one-shot retention sweep
var PurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete expired artifacts and their ledger rows",
	Long:  `Run a single retention sweep: remove completed artifacts older than the retention window and delete their job records. Useful for cron-driven cleanup when the server is not running.`,
	RunE:  runPurge,
}

var purgeOlderThan time.Duration

func init() {
	PurgeCmd.Flags().DurationVar(&purgeOlderThan, "older-than", 0, "Override the configured retention window (e.g. 30m, 6h)")
}

func runPurge(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return errors.Wrap(err, "load config")
	}

	if err := logger.Initialize(cfg.Log.JSON, ""); err != nil {
		return errors.Wrap(err, "initialize logger")
	}
	log := logger.Named("purge")

	conn, err := db.OpenWithMigrations(cfg.Database.Path, log)
	if err != nil {
		return errors.Wrap(err, "open database")
	}
	defer conn.Close()

	vlt, err := vault.New(cfg.Vault.Dir, log)
	if err != nil {
		return errors.Wrap(err, "open vault")
	}

	retention := cfg.Vault.Retention()
	if purgeOlderThan > 0 {
		retention = purgeOlderThan
	}

	sweeper := vault.NewSweeper(vlt, ledger.NewStore(conn), log)
	files, rows, err := sweeper.Purge(context.Background(), time.Now().Add(-retention))
	if err != nil {
		return errors.Wrap(err, "sweep")
	}

	pterm.Success.Printf("Removed %d file(s), deleted %d job record(s) older than %s\n", files, rows, retention)
	return nil
}
