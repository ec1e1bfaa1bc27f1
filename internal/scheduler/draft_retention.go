package scheduler

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// DraftPruner deletes drafts last updated before a cutoff
type DraftPruner interface {
	DeleteOlderThan(cutoff time.Time) (int64, error)
}

// DraftRetentionJob removes drafts that have not been touched for the
// retention period. It should be scheduled to run daily.
type DraftRetentionJob struct {
	drafts    DraftPruner
	retention time.Duration
	now       func() time.Time
	log       zerolog.Logger
}

// NewDraftRetentionJob creates a new draft retention job
func NewDraftRetentionJob(drafts DraftPruner, retention time.Duration, log zerolog.Logger) *DraftRetentionJob {
	return &DraftRetentionJob{
		drafts:    drafts,
		retention: retention,
		now:       time.Now,
		log:       log.With().Str("job", "draft_retention").Logger(),
	}
}

// Run deletes expired drafts
func (j *DraftRetentionJob) Run() error {
	cutoff := j.now().Add(-j.retention)
	deleted, err := j.drafts.DeleteOlderThan(cutoff)
	if err != nil {
		j.log.Error().Err(err).Msg("Failed to delete expired drafts")
		return fmt.Errorf("failed to prune drafts: %w", err)
	}

	if deleted > 0 {
		j.log.Info().
			Int64("deleted", deleted).
			Time("cutoff", cutoff).
			Msg("Pruned expired drafts")
	}
	return nil
}

// Name returns the job name for scheduling and logging
func (j *DraftRetentionJob) Name() string {
	return "draft_retention"
}
