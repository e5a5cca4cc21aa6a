package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	service "github.com/okian/pulse/internal/app"
	"github.com/okian/pulse/internal/domain/model"
)

// maxSnapshotBytes bounds a POST /snapshots body.
const maxSnapshotBytes = 32 << 20

// SnapshotDependencies defines the interface for snapshot ingestion.
type SnapshotDependencies interface {
	SubmitSnapshot(ctx context.Context, snap model.Snapshot) (service.SubmitResult, error)
}

// snapshotRequest mirrors the OpenAPI schema for POST /snapshots.
type snapshotRequest struct {
	SnapshotID string                 `json:"snapshot_id" validate:"omitempty,max=128"`
	Mode       string                 `json:"mode" validate:"omitempty,oneof=replace merge"`
	Records    []model.EmployeeRecord `json:"records" validate:"required,min=1,dive"`
}

type ackResponse struct {
	Status     string `json:"status"`
	SnapshotID string `json:"snapshot_id"`
	Records    int    `json:"records"`
	Duplicate  bool   `json:"duplicate"`
}

// SnapshotsHandler handles snapshot requests.
type SnapshotsHandler struct {
	deps     SnapshotDependencies
	validate *validator.Validate
}

// NewSnapshotsHandler creates a new snapshots handler.
func NewSnapshotsHandler(deps SnapshotDependencies) *SnapshotsHandler {
	return &SnapshotsHandler{deps: deps, validate: validator.New()}
}

// HandlePostSnapshot handles POST /snapshots requests.
func (h *SnapshotsHandler) HandlePostSnapshot(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_snapshot"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req snapshotRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSnapshotBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, validationMessage(err)))
		return
	}

	res, err := h.deps.SubmitSnapshot(r.Context(), model.Snapshot{
		SnapshotID: req.SnapshotID,
		Mode:       req.Mode,
		Records:    req.Records,
	})
	if err != nil {
		writeServiceError(w, op, err)
		return
	}

	if res.Duplicate {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", SnapshotID: res.SnapshotID, Records: res.Records, Duplicate: true})
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", SnapshotID: res.SnapshotID, Records: res.Records})
}

// validationMessage reduces validator output to the first failing field.
func validationMessage(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		ve := verrs[0]
		return fmt.Errorf("invalid %s: %s", ve.Namespace(), ve.Tag())
	}
	return err
}
