package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/channelwatch/channelwatch/internal/bus"
	"github.com/channelwatch/channelwatch/internal/store"
	"github.com/channelwatch/channelwatch/pkg/models"
)

const (
	channelNotFoundReason = "Channel not found"
	channelNotFoundNotice = "Channel not found. Please try again."
	resolveFaultNotice    = "Failed to resolve channel. Please try again later."
)

// handleSubmitted is the channel resolution stage. It consumes submitted
// events and emits exactly one of channel.resolved or channel.error.
func (p *Pipeline) handleSubmitted(ctx context.Context, payload []byte) {
	var ev models.SubmittedEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		slog.Error("malformed submitted payload", "error", err)
		return
	}
	if err := ev.Validate(); err != nil {
		// Without job_id and email there is nobody to notify.
		slog.Error("dropping submitted event", "error", err)
		return
	}

	slog.Info("resolving channel", "job_id", ev.JobID, "channel", ev.Channel)

	job, err := p.advance(ctx, ev.JobID, models.JobStatusResolvingChannel)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			slog.Error("no job record for submitted event", "job_id", ev.JobID)
			return
		}
		slog.Error("marking job resolving", "job_id", ev.JobID, "error", err)
		return
	}
	if job == nil {
		return
	}

	// A handle and a plain name go through the same search endpoint; only
	// the @ marker is stripped.
	query := strings.TrimPrefix(ev.Channel, "@")

	channel, err := p.youtube.SearchChannel(ctx, query)
	if err != nil {
		slog.Error("channel search failed", "job_id", ev.JobID, "error", err)
		if p.failJob(ctx, ev.JobID, resolveFaultNotice) {
			p.publishChannelError(ctx, ev.JobID, ev.Email, resolveFaultNotice)
		}
		return
	}

	if channel == nil {
		slog.Warn("channel not found", "job_id", ev.JobID, "channel", ev.Channel)
		if p.failJob(ctx, ev.JobID, channelNotFoundReason) {
			p.publishChannelError(ctx, ev.JobID, ev.Email, channelNotFoundNotice)
		}
		return
	}

	// Persist the resolved identity before emitting, so a lost or redelivered
	// channel.resolved event can always be reconstructed from the record.
	_, err = p.store.MergeJob(ctx, ev.JobID,
		store.WithStatus(models.JobStatusChannelResolved),
		store.WithChannel(channel.ID, channel.Name))
	if err != nil {
		if errors.Is(err, store.ErrTerminalStatus) || errors.Is(err, store.ErrStatusRegression) {
			slog.Info("duplicate event delivery, dropping", "job_id", ev.JobID)
			return
		}
		slog.Error("persisting resolved channel", "job_id", ev.JobID, "error", err)
		return
	}
	_ = p.cache.SetJobStatus(ctx, ev.JobID, models.JobStatusChannelResolved, statusTTL)

	slog.Info("channel resolved",
		"job_id", ev.JobID, "channel_id", channel.ID, "channel_name", channel.Name)

	err = p.bus.Publish(ctx, bus.TopicChannelResolved, models.ChannelResolvedEvent{
		JobID:       ev.JobID,
		Email:       ev.Email,
		ChannelID:   channel.ID,
		ChannelName: channel.Name,
	})
	if err != nil {
		slog.Error("publishing channel.resolved", "job_id", ev.JobID, "error", err)
	}
}

func (p *Pipeline) publishChannelError(ctx context.Context, jobID uuid.UUID, email, notice string) {
	err := p.bus.Publish(ctx, bus.TopicChannelError, models.ChannelErrorEvent{
		JobID: jobID,
		Email: email,
		Error: notice,
	})
	if err != nil {
		slog.Error("publishing channel.error", "job_id", jobID, "error", err)
	}
}
