// Package pipeline implements the three-stage job pipeline: Submit creates
// the job record, ResolveChannel turns a handle or name into a channel ID,
// FetchVideos pulls the channel's most recent uploads. Every stage durably
// updates the job record before emitting its outcome signal, so state visible
// to any later reader is never behind the signal that references it.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/channelwatch/channelwatch/internal/bus"
	"github.com/channelwatch/channelwatch/internal/cache"
	"github.com/channelwatch/channelwatch/internal/store"
	"github.com/channelwatch/channelwatch/internal/youtube"
	"github.com/channelwatch/channelwatch/pkg/models"
)

// statusTTL bounds how long the Redis status mirror outlives the last merge.
const statusTTL = 30 * time.Minute

// Pipeline wires the stages to their collaborators. A single Pipeline serves
// all jobs; per-job state lives only in the store.
type Pipeline struct {
	store     store.Store
	cache     cache.Cache
	bus       bus.Bus
	youtube   youtube.Client
	maxVideos int
}

// New creates a Pipeline.
func New(st store.Store, ca cache.Cache, b bus.Bus, yt youtube.Client, maxVideos int) *Pipeline {
	return &Pipeline{
		store:     st,
		cache:     ca,
		bus:       b,
		youtube:   yt,
		maxVideos: maxVideos,
	}
}

// Register subscribes the asynchronous stages to their input topics. Call
// before the bus starts dispatching.
func (p *Pipeline) Register() {
	p.bus.Subscribe(bus.TopicSubmitted, p.handleSubmitted)
	p.bus.Subscribe(bus.TopicChannelResolved, p.handleChannelResolved)
}

// failJob records a terminal failure on the job and mirrors it to the cache.
// Returns false when the record could not be updated (already terminal via a
// duplicate delivery, or missing entirely); callers skip their error emission
// in that case.
func (p *Pipeline) failJob(ctx context.Context, jobID uuid.UUID, reason string) bool {
	_, err := p.store.MergeJob(ctx, jobID,
		store.WithStatus(models.JobStatusFailed),
		store.WithErrorMessage(reason))
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			slog.Error("job record missing while recording failure", "job_id", jobID)
		case errors.Is(err, store.ErrTerminalStatus):
			slog.Info("job already terminal, skipping failure merge", "job_id", jobID)
		default:
			slog.Error("recording job failure", "job_id", jobID, "error", err)
		}
		return false
	}
	_ = p.cache.SetJobStatus(ctx, jobID, models.JobStatusFailed, statusTTL)
	return true
}

// advance merges a status-only progression and mirrors it. A nil job return
// with nil error means the event was a duplicate delivery and the caller
// should drop it.
func (p *Pipeline) advance(ctx context.Context, jobID uuid.UUID, status string) (*models.Job, error) {
	job, err := p.store.MergeJob(ctx, jobID, store.WithStatus(status))
	if err != nil {
		if errors.Is(err, store.ErrTerminalStatus) || errors.Is(err, store.ErrStatusRegression) {
			slog.Info("duplicate event delivery, dropping",
				"job_id", jobID, "target_status", status)
			return nil, nil
		}
		return nil, err
	}
	_ = p.cache.SetJobStatus(ctx, jobID, status, statusTTL)
	return job, nil
}
