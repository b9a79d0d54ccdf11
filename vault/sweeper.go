package vault

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/clipd/errors"
	"github.com/teranos/clipd/ledger"
	"github.com/teranos/clipd/logger"
)

// Sweeper purges completed jobs past the retention window: the artifact
// first (best effort), then the ledger row. Running it repeatedly over the
// same window is a no-op.
type Sweeper struct {
	vault *Vault
	store *ledger.Store
	log   *zap.SugaredLogger
}

// NewSweeper creates a sweeper over the given vault and store
func NewSweeper(vault *Vault, store *ledger.Store, log *zap.SugaredLogger) *Sweeper {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Sweeper{vault: vault, store: store, log: log.Named("sweeper")}
}

// Purge removes artifacts and rows for jobs completed before the cutoff.
// A missing artifact is logged and the row still goes; one bad entry never
// stops the batch.
func (s *Sweeper) Purge(ctx context.Context, cutoff time.Time) (files, rows int, err error) {
	jobs, err := s.store.ListCompletedBefore(cutoff)
	if err != nil {
		return 0, 0, err
	}

	for _, job := range jobs {
		select {
		case <-ctx.Done():
			return files, rows, ctx.Err()
		default:
		}

		if removeErr := s.vault.Remove(job.Filename); removeErr != nil {
			s.log.Warnw("Failed to remove expired artifact",
				logger.FieldJobID, job.ID,
				logger.FieldFilename, job.Filename,
				logger.FieldError, removeErr,
			)
		} else {
			files++
		}

		if delErr := s.store.Delete(job.ID); delErr != nil {
			if errors.Is(delErr, errors.ErrNotFound) {
				continue
			}
			s.log.Errorw("Failed to delete expired job row",
				logger.FieldJobID, job.ID,
				logger.FieldError, delErr,
			)
			continue
		}
		rows++
	}

	if rows > 0 {
		s.log.Infow("Retention sweep complete",
			logger.FieldCount, rows,
			"files_removed", files,
		)
	}

	return files, rows, nil
}
