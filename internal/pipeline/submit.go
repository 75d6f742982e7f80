package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/channelwatch/channelwatch/internal/bus"
	"github.com/channelwatch/channelwatch/pkg/models"
)

// Validation errors are surfaced synchronously to the submitter; no job is
// created and nothing enters the async pipeline.
var (
	ErrMissingChannel = errors.New("channel is required")
	ErrMissingEmail   = errors.New("email is required")
	ErrInvalidEmail   = errors.New("email format is invalid")
)

// emailPattern is deliberately conservative: local-part@domain with at least
// one dot in the domain. Deliverability is the mail stage's problem.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Submit validates the request, creates the job record with status queued,
// and publishes the submitted event. The returned job carries the ID the
// caller polls with; the rest of the pipeline runs asynchronously.
func (p *Pipeline) Submit(ctx context.Context, channel, email string) (*models.Job, error) {
	if channel == "" {
		return nil, ErrMissingChannel
	}
	if email == "" {
		return nil, ErrMissingEmail
	}
	if !emailPattern.MatchString(email) {
		return nil, ErrInvalidEmail
	}

	now := time.Now().UTC()
	job := &models.Job{
		ID:        uuid.New(),
		Channel:   channel,
		Email:     email,
		Status:    models.JobStatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := p.store.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("creating job: %w", err)
	}
	_ = p.cache.SetJobStatus(ctx, job.ID, models.JobStatusQueued, statusTTL)

	slog.Info("job created", "job_id", job.ID, "channel", channel)

	err := p.bus.Publish(ctx, bus.TopicSubmitted, models.SubmittedEvent{
		JobID:   job.ID,
		Channel: channel,
		Email:   email,
	})
	if err != nil {
		// The record exists but nothing will pick it up; fail it so the
		// caller's poll does not hang on "queued" forever.
		p.failJob(ctx, job.ID, "Internal error. Please try again later.")
		return nil, fmt.Errorf("publishing submitted event: %w", err)
	}

	return job, nil
}
