package scheduler

import (
	"fmt"

	"github.com/rs/zerolog"
)

// Checkpointer flushes the SQLite write-ahead log.
// Implemented by *database.DB.
type Checkpointer interface {
	WALCheckpoint(mode string) error
}

// WALCheckpointJob truncates the WAL so it cannot grow without bound
// on a long-running server.
type WALCheckpointJob struct {
	db  Checkpointer
	log zerolog.Logger
}

// NewWALCheckpointJob creates the hourly WAL checkpoint job.
func NewWALCheckpointJob(db Checkpointer, log zerolog.Logger) *WALCheckpointJob {
	return &WALCheckpointJob{
		db:  db,
		log: log.With().Str("job", "wal_checkpoint").Logger(),
	}
}

// Name returns the job name.
func (j *WALCheckpointJob) Name() string {
	return "wal_checkpoint"
}

// Run checkpoints and truncates the WAL.
func (j *WALCheckpointJob) Run() error {
	if err := j.db.WALCheckpoint("TRUNCATE"); err != nil {
		return fmt.Errorf("failed to checkpoint wal: %w", err)
	}
	j.log.Debug().Msg("WAL checkpoint completed")
	return nil
}
