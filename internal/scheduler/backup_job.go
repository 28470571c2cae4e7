package scheduler

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// BackupRunner uploads a database backup and prunes old ones.
// Implemented by *backup.Service.
type BackupRunner interface {
	Backup(ctx context.Context) (string, error)
	Prune(ctx context.Context) (int, error)
}

// Maintainer verifies and compacts the database around a backup run.
// Implemented by *database.DB.
type Maintainer interface {
	HealthCheck(ctx context.Context) error
	Vacuum() error
}

// BackupJob pushes a nightly database backup to object storage.
// It is only registered when a bucket is configured.
type BackupJob struct {
	backup BackupRunner
	db     Maintainer
	log    zerolog.Logger
}

// NewBackupJob creates the nightly backup job.
func NewBackupJob(backup BackupRunner, db Maintainer, log zerolog.Logger) *BackupJob {
	return &BackupJob{
		backup: backup,
		db:     db,
		log:    log.With().Str("job", "db_backup").Logger(),
	}
}

// Name returns the job name.
func (j *BackupJob) Name() string {
	return "db_backup"
}

// Run checks database integrity, uploads a fresh backup, prunes anything
// past retention and finally vacuums. A failed integrity check aborts the
// run so a corrupt snapshot never reaches the bucket.
func (j *BackupJob) Run() error {
	ctx := context.Background()

	if err := j.db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("integrity check failed, skipping backup: %w", err)
	}

	key, err := j.backup.Backup(ctx)
	if err != nil {
		return fmt.Errorf("failed to back up database: %w", err)
	}
	j.log.Info().Str("key", key).Msg("Database backup uploaded")

	pruned, err := j.backup.Prune(ctx)
	if err != nil {
		j.log.Warn().Err(err).Msg("Failed to prune old backups")
	} else if pruned > 0 {
		j.log.Info().Int("pruned", pruned).Msg("Old backups removed")
	}

	if err := j.db.Vacuum(); err != nil {
		j.log.Warn().Err(err).Msg("Vacuum after backup failed")
	}

	j.log.Debug().Msg("Nightly maintenance completed")
	return nil
}
