package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/aristath/folio/internal/database"
	"github.com/aristath/folio/internal/di"
	"github.com/aristath/folio/internal/reliability"
	"github.com/aristath/folio/internal/scheduler"
	"github.com/aristath/folio/internal/server/response"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// SystemStatusResponse represents system status
type SystemStatusResponse struct {
	Status      string            `json:"status"`
	StartedAt   string            `json:"started_at"`
	UptimeSecs  int64             `json:"uptime_seconds"`
	CPUPercent  float64           `json:"cpu_percent"`
	MemPercent  float64           `json:"memory_percent"`
	DiskFreeGB  float64           `json:"disk_free_gb"`
	DiskPercent float64           `json:"disk_used_percent"`
	Databases   []*database.Stats `json:"databases"`
	Backups     bool              `json:"backups_enabled"`
	LastChecked string            `json:"last_checked"`
}

// SystemHandlers handles system monitoring and operations
type SystemHandlers struct {
	log       zerolog.Logger
	dataDir   string
	databases []*database.DB
	backup    *reliability.BackupService
	scheduler *scheduler.Scheduler
	jobs      map[string]scheduler.Job
	startedAt time.Time
}

// NewSystemHandlers creates a new system handlers instance
func NewSystemHandlers(log zerolog.Logger, dataDir string, container *di.Container, jobs *di.JobInstances) *SystemHandlers {
	h := &SystemHandlers{
		log:       log.With().Str("handler", "system").Logger(),
		dataDir:   dataDir,
		databases: container.Databases(),
		backup:    container.BackupService,
		scheduler: container.Scheduler,
		jobs:      make(map[string]scheduler.Job),
		startedAt: time.Now(),
	}

	if jobs != nil {
		for _, job := range []scheduler.Job{jobs.QuoteWarmup, jobs.CacheCleanup, jobs.Maintenance, jobs.Backup} {
			if job != nil {
				h.jobs[job.Name()] = job
			}
		}
	}
	return h
}

// RegisterRoutes registers system routes on a router scoped to /system
func (h *SystemHandlers) RegisterRoutes(r chi.Router) {
	r.Get("/status", h.HandleSystemStatus)
	r.Get("/database/stats", h.HandleDatabaseStats)
	r.Get("/backups", h.HandleListBackups)
	r.Post("/backup", h.HandleCreateBackup)
	r.Post("/jobs/{name}", h.HandleTriggerJob)
}

// HandleSystemStatus handles GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuPercent, memPercent := h.getSystemStats()

	status := SystemStatusResponse{
		Status:      "healthy",
		StartedAt:   h.startedAt.Format(time.RFC3339),
		UptimeSecs:  int64(time.Since(h.startedAt).Seconds()),
		CPUPercent:  cpuPercent,
		MemPercent:  memPercent,
		Databases:   h.databaseStats(),
		Backups:     h.backup != nil,
		LastChecked: time.Now().Format(time.RFC3339),
	}

	if usage, err := disk.Usage(h.dataDir); err == nil {
		status.DiskFreeGB = float64(usage.Free) / 1e9
		status.DiskPercent = usage.UsedPercent
	} else {
		h.log.Warn().Err(err).Msg("Failed to get disk usage")
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	for _, db := range h.databases {
		if err := db.HealthCheck(ctx); err != nil {
			h.log.Error().Err(err).Str("database", db.Name()).Msg("Database unhealthy")
			status.Status = "degraded"
		}
	}

	response.Data(w, h.log, http.StatusOK, status)
}

// HandleDatabaseStats handles GET /api/system/database/stats
func (h *SystemHandlers) HandleDatabaseStats(w http.ResponseWriter, r *http.Request) {
	response.Data(w, h.log, http.StatusOK, h.databaseStats())
}

// HandleListBackups handles GET /api/system/backups
func (h *SystemHandlers) HandleListBackups(w http.ResponseWriter, r *http.Request) {
	if h.backup == nil {
		response.Error(w, h.log, http.StatusServiceUnavailable, "backups are not enabled")
		return
	}

	backups, err := h.backup.ListBackups(r.Context())
	if err != nil {
		response.Err(w, h.log, err)
		return
	}
	response.Data(w, h.log, http.StatusOK, backups)
}

// HandleCreateBackup handles POST /api/system/backup
func (h *SystemHandlers) HandleCreateBackup(w http.ResponseWriter, r *http.Request) {
	if h.backup == nil {
		response.Error(w, h.log, http.StatusServiceUnavailable, "backups are not enabled")
		return
	}

	h.log.Info().Msg("Manual backup triggered")
	info, err := h.backup.CreateAndUploadBackup(r.Context())
	if err != nil {
		response.Err(w, h.log, err)
		return
	}
	response.Data(w, h.log, http.StatusCreated, info)
}

// HandleTriggerJob handles POST /api/system/jobs/{name}
func (h *SystemHandlers) HandleTriggerJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	job, ok := h.jobs[name]
	if !ok || h.scheduler == nil {
		response.Error(w, h.log, http.StatusNotFound, "unknown job "+name)
		return
	}

	h.log.Info().Str("job", name).Msg("Manual job triggered")
	if err := h.scheduler.RunNow(job); err != nil {
		if errors.Is(err, scheduler.ErrJobRunning) {
			response.Error(w, h.log, http.StatusConflict, err.Error())
			return
		}
		response.Err(w, h.log, err)
		return
	}

	response.Data(w, h.log, http.StatusOK, map[string]string{
		"status": "success",
		"job":    name,
	})
}

func (h *SystemHandlers) databaseStats() []*database.Stats {
	stats := make([]*database.Stats, 0, len(h.databases))
	for _, db := range h.databases {
		s, err := db.GetStats()
		if err != nil {
			h.log.Warn().Err(err).Str("database", db.Name()).Msg("Failed to get database stats")
			continue
		}
		stats = append(stats, s)
	}
	return stats
}

// getSystemStats returns CPU and RAM usage percentages.
// CPU is sampled over 100ms to keep the call fast.
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}
	return cpuAvg, memStat.UsedPercent
}
