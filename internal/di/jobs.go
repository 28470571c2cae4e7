package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/krishisetu/krishisetu/internal/config"
	"github.com/krishisetu/krishisetu/internal/scheduler"
)

// RegisterJobs creates the scheduler and registers all cron jobs.
// The backup job is only registered when backups are configured.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) error {
	sched := scheduler.New(log)

	advisoryJob := scheduler.NewFarmerAdvisoryJob(
		container.FarmersRepo,
		container.MarketService,
		container.AdvisoryService,
		container.AlertsService,
		container.SnapshotRepo,
		log,
	)
	if err := sched.AddJob(cfg.AdvisoryAgentSchedule, advisoryJob); err != nil {
		return fmt.Errorf("failed to schedule %s: %w", advisoryJob.Name(), err)
	}

	restockJob := scheduler.NewRetailerRestockJob(
		container.RetailersRepo,
		container.MandisRepo,
		container.AlertsService,
		log,
	)
	if err := sched.AddJob(cfg.DemandAgentSchedule, restockJob); err != nil {
		return fmt.Errorf("failed to schedule %s: %w", restockJob.Name(), err)
	}

	reaperJob := scheduler.NewSessionReaperJob(container.AuthService, log)
	if err := sched.AddJob(cfg.SessionReaperSchedule, reaperJob); err != nil {
		return fmt.Errorf("failed to schedule %s: %w", reaperJob.Name(), err)
	}

	checkpointJob := scheduler.NewWALCheckpointJob(container.DB, log)
	if err := sched.AddJob(cfg.CheckpointSchedule, checkpointJob); err != nil {
		return fmt.Errorf("failed to schedule %s: %w", checkpointJob.Name(), err)
	}

	if container.BackupService != nil {
		backupJob := scheduler.NewBackupJob(container.BackupService, container.DB, log)
		if err := sched.AddJob(cfg.BackupSchedule, backupJob); err != nil {
			return fmt.Errorf("failed to schedule %s: %w", backupJob.Name(), err)
		}
	}

	container.Scheduler = sched
	return nil
}
