package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/channelwatch/channelwatch/internal/api/response"
	"github.com/channelwatch/channelwatch/internal/store"
	"github.com/channelwatch/channelwatch/pkg/models"
)

// JobReader defines the store access the poll handler depends on.
type JobReader interface {
	GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error)
}

// StatusReader is the Redis status mirror.
type StatusReader interface {
	GetJobStatus(ctx context.Context, jobID uuid.UUID) (string, bool, error)
}

// NewJobHandler returns an http.HandlerFunc for GET /api/v1/jobs/{jobID}.
// While a job is still in flight the cached status answers the poll; the
// full record is only fetched once the job is terminal or the mirror has
// expired.
func NewJobHandler(jobs JobReader, statuses StatusReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID, err := uuid.Parse(chi.URLParam(r, "jobID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"jobID must be a valid UUID", nil)
			return
		}

		status, found, err := statuses.GetJobStatus(r.Context(), jobID)
		if err == nil && found && !models.TerminalStatus(status) {
			response.JSON(w, jobStatusResponse{JobID: jobID.String(), Status: status})
			return
		}

		job, err := jobs.GetJob(r.Context(), jobID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "JOB_NOT_FOUND",
					"No job exists with that ID", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred", nil)
			return
		}

		response.JSON(w, job)
	}
}

type jobStatusResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}
