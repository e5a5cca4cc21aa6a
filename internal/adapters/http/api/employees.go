package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/pulse/internal/domain/filter"
	"github.com/okian/pulse/internal/domain/model"
)

// EmployeeDependencies defines the interface for record reads.
type EmployeeDependencies interface {
	Records(ctx context.Context, c filter.Criteria) ([]model.Employee, error)
	Record(ctx context.Context, id string) (model.Employee, error)
}

type employeesResponse struct {
	Count     int              `json:"count"`
	Employees []model.Employee `json:"employees"`
}

// EmployeesHandler handles employee requests.
type EmployeesHandler struct {
	deps EmployeeDependencies
}

// NewEmployeesHandler creates a new employees handler.
func NewEmployeesHandler(deps EmployeeDependencies) *EmployeesHandler {
	return &EmployeesHandler{deps: deps}
}

// HandleListEmployees handles GET /employees requests.
func (h *EmployeesHandler) HandleListEmployees(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_employees"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	records, err := h.deps.Records(r.Context(), parseCriteria(r.URL.Query()))
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, employeesResponse{Count: len(records), Employees: records})
}

// HandleGetEmployee handles GET /employees/{id} requests.
func (h *EmployeesHandler) HandleGetEmployee(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_employee"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/employees/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	e, err := h.deps.Record(r.Context(), id)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}
