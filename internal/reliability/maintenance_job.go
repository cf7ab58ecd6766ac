package reliability

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/folio/internal/database"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/disk"
)

// Disk space thresholds in GB
const (
	diskCriticalGB = 0.5
	diskErrorGB    = 5.0
	diskWarningGB  = 10.0
)

// MaintainedDB is a database the maintenance job looks after
type MaintainedDB interface {
	Name() string
	HealthCheck(ctx context.Context) error
	WALCheckpoint(mode string) error
	GetStats() (*database.Stats, error)
}

// DiskUsageFunc reports free bytes for the filesystem holding path
type DiskUsageFunc func(path string) (uint64, error)

func gopsutilFree(path string) (uint64, error) {
	usage, err := disk.Usage(path)
	if err != nil {
		return 0, err
	}
	return usage.Free, nil
}

// MaintenanceJob checks database integrity, truncates WAL files and watches
// disk space
type MaintenanceJob struct {
	databases []MaintainedDB
	dataDir   string
	diskFree  DiskUsageFunc
	log       zerolog.Logger
}

// NewMaintenanceJob creates a new maintenance job
func NewMaintenanceJob(databases []MaintainedDB, dataDir string, log zerolog.Logger) *MaintenanceJob {
	return &MaintenanceJob{
		databases: databases,
		dataDir:   dataDir,
		diskFree:  gopsutilFree,
		log:       log.With().Str("job", "maintenance").Logger(),
	}
}

// Run executes the maintenance job
func (j *MaintenanceJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	j.log.Info().Msg("Starting maintenance")
	startTime := time.Now()

	for _, db := range j.databases {
		if err := db.HealthCheck(ctx); err != nil {
			j.log.Error().Str("database", db.Name()).Err(err).Msg("CRITICAL: Database health check failed")
			return fmt.Errorf("health check failed for %s: %w", db.Name(), err)
		}

		// Not critical
		if err := db.WALCheckpoint("TRUNCATE"); err != nil {
			j.log.Warn().Str("database", db.Name()).Err(err).Msg("WAL checkpoint failed")
		}

		stats, err := db.GetStats()
		if err != nil {
			j.log.Warn().Str("database", db.Name()).Err(err).Msg("Failed to get database stats")
			continue
		}
		j.log.Info().
			Str("database", db.Name()).
			Int64("size_bytes", stats.SizeBytes).
			Int64("wal_size_bytes", stats.WALSizeBytes).
			Int64("freelist_count", stats.FreelistCount).
			Msg("Database metrics")
	}

	if err := j.checkDiskSpace(); err != nil {
		return err
	}

	j.log.Info().Dur("duration_ms", time.Since(startTime)).Msg("Maintenance completed successfully")
	return nil
}

// Name returns the job name for scheduler
func (j *MaintenanceJob) Name() string {
	return "maintenance"
}

func (j *MaintenanceJob) checkDiskSpace() error {
	free, err := j.diskFree(j.dataDir)
	if err != nil {
		return fmt.Errorf("failed to stat filesystem: %w", err)
	}

	availableGB := float64(free) / 1e9
	j.log.Debug().Float64("available_gb", availableGB).Msg("Disk space check")

	switch {
	case availableGB < diskCriticalGB:
		j.log.Error().Float64("available_gb", availableGB).Msg("CRITICAL: Insufficient disk space")
		return fmt.Errorf("CRITICAL: only %.2f GB free", availableGB)
	case availableGB < diskErrorGB:
		j.log.Error().Float64("available_gb", availableGB).Msg("Low disk space - consider cleanup")
	case availableGB < diskWarningGB:
		j.log.Warn().Float64("available_gb", availableGB).Msg("Disk space running low")
	}
	return nil
}

// BackupJob uploads a fresh backup and rotates old ones
type BackupJob struct {
	service       *BackupService
	retentionDays int
	log           zerolog.Logger
}

// NewBackupJob creates a new backup job
func NewBackupJob(service *BackupService, retentionDays int, log zerolog.Logger) *BackupJob {
	return &BackupJob{
		service:       service,
		retentionDays: retentionDays,
		log:           log.With().Str("job", "backup").Logger(),
	}
}

// Run executes the backup job
func (j *BackupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	if _, err := j.service.CreateAndUploadBackup(ctx); err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}

	// A failed rotation leaves extra backups behind, which is harmless
	if _, err := j.service.RotateOldBackups(ctx, j.retentionDays); err != nil {
		j.log.Warn().Err(err).Msg("Backup rotation failed")
	}
	return nil
}

// Name returns the job name for scheduler
func (j *BackupJob) Name() string {
	return "backup"
}
