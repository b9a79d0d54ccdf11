package commands

import (
	"fmt"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/clipd/db"
	"github.com/teranos/clipd/errors"
	"github.com/teranos/clipd/ledger"
	"github.com/teranos/clipd/logger"
)

// JobsCmd lists recent download jobs from the ledger
var JobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List recent download jobs",
	RunE:  runJobs,
}

var jobsLimit int

func init() {
	JobsCmd.Flags().IntVar(&jobsLimit, "limit", 20, "Maximum number of jobs to show")
}

func runJobs(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return errors.Wrap(err, "load config")
	}

	if err := logger.Initialize(cfg.Log.JSON, ""); err != nil {
		return errors.Wrap(err, "initialize logger")
	}

	conn, err := db.OpenWithMigrations(cfg.Database.Path, logger.Named("jobs"))
	if err != nil {
		return errors.Wrap(err, "open database")
	}
	defer conn.Close()

	jobs, err := ledger.NewStore(conn).ListRecent(jobsLimit)
	if err != nil {
		return errors.Wrap(err, "list jobs")
	}

	if len(jobs) == 0 {
		pterm.Info.Println("No jobs recorded")
		return nil
	}

	for _, job := range jobs {
		line := fmt.Sprintf("%s  %-9s  %s", job.StartedAt.Format(time.RFC3339), job.Status, job.URL)
		switch job.Status {
		case ledger.StatusCompleted:
			pterm.Success.Println(line)
			fmt.Printf("    %s\n", job.Filename)
		case ledger.StatusFailed:
			pterm.Error.Println(line)
			if job.Error != "" {
				fmt.Printf("    %s\n", job.Error)
			}
		default:
			pterm.Info.Printf("%s  %.0f%%\n", line, job.Progress)
		}
	}
	return nil
}
