package api

import (
	"net/http"

	"github.com/okian/pulse/internal/domain/filter"
)

type bandsResponse struct {
	Performance []string `json:"performance"`
	Attendance  []string `json:"attendance"`
}

// BandsHandler serves the band labels accepted by the filter parameters.
type BandsHandler struct{}

// NewBandsHandler creates a new bands handler.
func NewBandsHandler() *BandsHandler {
	return &BandsHandler{}
}

// HandleGetBands handles GET /bands requests.
func (h *BandsHandler) HandleGetBands(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, bandsResponse{
		Performance: filter.PerformanceBands(),
		Attendance:  filter.AttendanceBands(),
	})
}
