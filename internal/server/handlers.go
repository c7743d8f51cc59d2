package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// healthzResponse mirrors the teacher's handleHealth shape, extended with
// the gopsutil resource snapshot system_handlers.go reports elsewhere in the
// teacher's dashboard.
type healthzResponse struct {
	Status       string  `json:"status"`
	Service      string  `json:"service"`
	UptimeSec    float64 `json:"uptime_seconds"`
	CPUPercent   float64 `json:"cpu_percent,omitempty"`
	RAMPercent   float64 `json:"ram_percent,omitempty"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	resp := healthzResponse{
		Status:    "healthy",
		Service:   "sentinel",
		UptimeSec: time.Since(s.started).Seconds(),
	}
	if cpuPct, err := cpu.Percent(50*time.Millisecond, false); err == nil && len(cpuPct) > 0 {
		resp.CPUPercent = cpuPct[0]
	}
	if memStat, err := mem.VirtualMemory(); err == nil {
		resp.RAMPercent = memStat.UsedPercent
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if s.provider == nil {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "status provider not configured"})
		return
	}
	snapshot, err := s.provider.Status(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("failed to build status snapshot")
		s.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, snapshot)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("failed to encode JSON response")
	}
}
