package server

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/krishisetu/krishisetu/internal/database"
)

const serviceName = "krishisetu"

// countQueries drives the row counts on the status page. Fixed SQL only.
var countQueries = []struct {
	label string
	query string
}{
	{"users", "SELECT COUNT(*) FROM users"},
	{"farmers", "SELECT COUNT(*) FROM farmers"},
	{"crops", "SELECT COUNT(*) FROM crops"},
	{"mandi_owners", "SELECT COUNT(*) FROM mandi_owners"},
	{"retailers", "SELECT COUNT(*) FROM retailers"},
	{"farmer_orders", "SELECT COUNT(*) FROM mandi_farmer_orders"},
	{"retailer_orders", "SELECT COUNT(*) FROM retailer_mandi_orders"},
	{"alerts_unseen", "SELECT COUNT(*) FROM alerts WHERE seen = 0"},
	{"active_sessions", "SELECT COUNT(*) FROM sessions WHERE expires_at > strftime('%s','now')"},
}

// SystemHandlers serves the health and operational status endpoints.
type SystemHandlers struct {
	log         zerolog.Logger
	db          *database.DB
	startupTime time.Time
	jobs        []string
}

// NewSystemHandlers creates the system endpoint handlers.
func NewSystemHandlers(log zerolog.Logger, db *database.DB) *SystemHandlers {
	return &SystemHandlers{
		log:         log.With().Str("handler", "system").Logger(),
		db:          db,
		startupTime: time.Now(),
	}
}

// SetJobs records the scheduled job names shown on the status page.
func (h *SystemHandlers) SetJobs(names []string) {
	h.jobs = names
}

// HandleHealth returns a liveness response.
// GET /api/health
func (h *SystemHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, map[string]interface{}{
		"status":  "ok",
		"service": serviceName,
		"time":    time.Now().Unix(),
	})
}

// HandleSystemStatus returns uptime, resource usage, row counts and the
// registered jobs.
// GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting system status")

	cpuPercent, ramPercent := h.getSystemStats()

	jobs := h.jobs
	if jobs == nil {
		jobs = []string{}
	}

	dbHealthy := true
	if err := h.db.QuickCheck(r.Context()); err != nil {
		h.log.Warn().Err(err).Msg("Database ping failed")
		dbHealthy = false
	}

	response := map[string]interface{}{
		"status":         "ok",
		"service":        serviceName,
		"uptime_seconds": int64(time.Since(h.startupTime).Seconds()),
		"cpu_percent":    cpuPercent,
		"ram_percent":    ramPercent,
		"goroutines":     runtime.NumGoroutine(),
		"go_version":     runtime.Version(),
		"counts":         h.tableCounts(),
		"jobs":           jobs,
		"time":           time.Now().Unix(),
	}

	dbInfo := map[string]interface{}{"healthy": dbHealthy}
	if stats, err := h.db.GetStats(); err != nil {
		h.log.Warn().Err(err).Msg("Failed to collect database stats")
	} else {
		dbInfo["size_bytes"] = stats.SizeBytes
		dbInfo["wal_size_bytes"] = stats.WALSizeBytes
	}
	response["database"] = dbInfo

	h.writeJSON(w, response)
}

// HandleDatabaseStats returns page-level SQLite statistics.
// GET /api/system/database/stats
func (h *SystemHandlers) HandleDatabaseStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.db.GetStats()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get database stats")
		http.Error(w, "Failed to get database stats", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, map[string]interface{}{
		"size_bytes":     stats.SizeBytes,
		"wal_size_bytes": stats.WALSizeBytes,
		"page_count":     stats.PageCount,
		"page_size":      stats.PageSize,
		"freelist_count": stats.FreelistCount,
	})
}

// tableCounts collects row counts per table. Failures are logged and the
// table reported as -1 rather than failing the whole status call.
func (h *SystemHandlers) tableCounts() map[string]int64 {
	counts := make(map[string]int64, len(countQueries))
	for _, q := range countQueries {
		var n int64
		if err := h.db.QueryRow(q.query).Scan(&n); err != nil {
			h.log.Warn().Err(err).Str("table", q.label).Msg("Failed to count rows")
			counts[q.label] = -1
			continue
		}
		counts[q.label] = n
	}
	return counts
}

// getSystemStats calculates CPU and RAM usage percentages. A short sampling
// interval keeps the status endpoint responsive.
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

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}
