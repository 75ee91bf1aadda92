package worker

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/DukeRupert/relance/internal/metrics"
)

// ReapOrphans returns events claimed longer than ClaimTimeout ago to
// scheduled. This handles workers that crashed mid-batch.
func (w *Worker) ReapOrphans(ctx context.Context) (int64, error) {
	cutoff := w.clock.Now().Add(-w.config.ClaimTimeout)
	count, err := w.store.ReleaseOrphanedCadenceEvents(ctx, sql.NullTime{Time: cutoff, Valid: true})
	if err != nil {
		return 0, fmt.Errorf("release orphaned claims: %w", err)
	}

	if count > 0 {
		w.logger.Warn("Released orphaned cadence claims", "count", count, "claim_timeout", w.config.ClaimTimeout)
	}
	metrics.OrphansReleased(count)

	return count, nil
}
