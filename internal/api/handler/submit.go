package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/channelwatch/channelwatch/internal/api/response"
	"github.com/channelwatch/channelwatch/internal/pipeline"
	"github.com/channelwatch/channelwatch/pkg/models"
)

// Submitter defines the interface the submit handler depends on.
type Submitter interface {
	Submit(ctx context.Context, channel, email string) (*models.Job, error)
}

// NewSubmitHandler returns an http.HandlerFunc for POST /api/v1/jobs.
// Validation failures are answered synchronously; an accepted request returns
// the job ID and continues asynchronously.
func NewSubmitHandler(svc Submitter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Channel string `json:"channel"`
			Email   string `json:"email"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		job, err := svc.Submit(r.Context(), req.Channel, req.Email)
		if err != nil {
			switch {
			case errors.Is(err, pipeline.ErrMissingChannel),
				errors.Is(err, pipeline.ErrMissingEmail):
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
					"Missing required fields: channel and email", nil)
			case errors.Is(err, pipeline.ErrInvalidEmail):
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
					"Invalid email format", nil)
			default:
				response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
					"An unexpected error occurred", nil)
			}
			return
		}

		response.Accepted(w, submitResponse{
			JobID:   job.ID.String(),
			Status:  job.Status,
			Message: "Your request has been queued. You will receive an email with suggestions for the channel's recent videos.",
		})
	}
}

type submitResponse struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}
