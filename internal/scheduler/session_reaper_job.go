package scheduler

import (
	"fmt"

	"github.com/rs/zerolog"
)

// SessionReaper deletes expired sessions and reports how many went.
// Implemented by *auth.Service.
type SessionReaper interface {
	ReapExpiredSessions() (int64, error)
}

// SessionReaperJob sweeps expired sessions out of the database.
type SessionReaperJob struct {
	auth SessionReaper
	log  zerolog.Logger
}

// NewSessionReaperJob creates the hourly session sweep job.
func NewSessionReaperJob(auth SessionReaper, log zerolog.Logger) *SessionReaperJob {
	return &SessionReaperJob{
		auth: auth,
		log:  log.With().Str("job", "session_reaper").Logger(),
	}
}

// Name returns the job name.
func (j *SessionReaperJob) Name() string {
	return "session_reaper"
}

// Run deletes expired sessions.
func (j *SessionReaperJob) Run() error {
	n, err := j.auth.ReapExpiredSessions()
	if err != nil {
		return fmt.Errorf("failed to reap sessions: %w", err)
	}
	if n > 0 {
		j.log.Info().Int64("reaped", n).Msg("Expired sessions removed")
	}
	return nil
}
