package di

import (
	"fmt"

	"github.com/aristath/folio/internal/clientdata"
	"github.com/aristath/folio/internal/config"
	"github.com/aristath/folio/internal/reliability"
	"github.com/aristath/folio/internal/scheduler"
	"github.com/rs/zerolog"
)

// RegisterJobs creates the background jobs and registers them on a new scheduler.
// The scheduler is stored in the container but not started.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	if container == nil || container.MarketDataService == nil {
		return nil, fmt.Errorf("services must be initialized first")
	}

	sched := scheduler.New(log)
	instances := &JobInstances{
		QuoteWarmup:  scheduler.NewQuoteWarmupJob(container.LedgerRepo, container.MarketDataService, log),
		CacheCleanup: clientdata.NewCleanupJob(container.ClientDataRepo, log),
	}

	var maintained []reliability.MaintainedDB
	for _, db := range container.Databases() {
		maintained = append(maintained, db)
	}
	instances.Maintenance = reliability.NewMaintenanceJob(maintained, cfg.DataDir, log)

	if container.BackupService != nil {
		instances.Backup = reliability.NewBackupJob(container.BackupService, cfg.Backup.RetentionDays, log)
	}

	schedules := []struct {
		schedule string
		job      scheduler.Job
	}{
		{cfg.Schedules.QuoteWarmup, instances.QuoteWarmup},
		{cfg.Schedules.CacheCleanup, instances.CacheCleanup},
		{cfg.Schedules.Maintenance, instances.Maintenance},
		{cfg.Schedules.Backup, instances.Backup},
	}
	for _, s := range schedules {
		if s.job == nil || s.schedule == "" {
			continue
		}
		if err := sched.AddJob(s.schedule, s.job); err != nil {
			return nil, err
		}
	}

	container.Scheduler = sched
	return instances, nil
}
