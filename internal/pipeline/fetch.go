package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/channelwatch/channelwatch/internal/bus"
	"github.com/channelwatch/channelwatch/internal/store"
	"github.com/channelwatch/channelwatch/pkg/models"
)

const (
	noVideosReason   = "No videos found"
	noVideosNotice   = "No videos found for this channel"
	fetchFaultNotice = "Failed to fetch videos. Please try again later."
)

// handleChannelResolved is the video fetch stage. It consumes
// channel.resolved events and emits exactly one of videos.fetched or
// videos.error.
func (p *Pipeline) handleChannelResolved(ctx context.Context, payload []byte) {
	var ev models.ChannelResolvedEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		slog.Error("malformed channel.resolved payload", "error", err)
		return
	}
	if err := ev.Validate(); err != nil {
		slog.Error("dropping channel.resolved event", "error", err)
		return
	}

	slog.Info("fetching videos", "job_id", ev.JobID, "channel_id", ev.ChannelID)

	job, err := p.advance(ctx, ev.JobID, models.JobStatusFetchingVideos)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			slog.Error("no job record for channel.resolved event", "job_id", ev.JobID)
			return
		}
		slog.Error("marking job fetching", "job_id", ev.JobID, "error", err)
		return
	}
	if job == nil {
		return
	}

	// The record carries the resolved channel from the previous stage, so a
	// payload that lost these fields in transit is still recoverable.
	channelID := ev.ChannelID
	if channelID == "" && job.ChannelID != nil {
		channelID = *job.ChannelID
	}
	channelName := ev.ChannelName
	if channelName == "" && job.ChannelName != nil {
		channelName = *job.ChannelName
	}
	if channelID == "" {
		slog.Error("no channel id on event or record", "job_id", ev.JobID)
		if p.failJob(ctx, ev.JobID, fetchFaultNotice) {
			p.publishVideosError(ctx, ev.JobID, ev.Email, fetchFaultNotice)
		}
		return
	}

	videos, err := p.youtube.ListRecentVideos(ctx, channelID, p.maxVideos)
	if err != nil {
		slog.Error("video listing failed", "job_id", ev.JobID, "error", err)
		if p.failJob(ctx, ev.JobID, fetchFaultNotice) {
			p.publishVideosError(ctx, ev.JobID, ev.Email, fetchFaultNotice)
		}
		return
	}

	if len(videos) == 0 {
		slog.Warn("no videos found", "job_id", ev.JobID, "channel_id", channelID)
		if p.failJob(ctx, ev.JobID, noVideosReason) {
			p.publishVideosError(ctx, ev.JobID, ev.Email, noVideosNotice)
		}
		return
	}

	_, err = p.store.MergeJob(ctx, ev.JobID,
		store.WithStatus(models.JobStatusVideosFetched),
		store.WithVideos(videos))
	if err != nil {
		if errors.Is(err, store.ErrTerminalStatus) || errors.Is(err, store.ErrStatusRegression) {
			slog.Info("duplicate event delivery, dropping", "job_id", ev.JobID)
			return
		}
		slog.Error("persisting fetched videos", "job_id", ev.JobID, "error", err)
		return
	}
	_ = p.cache.SetJobStatus(ctx, ev.JobID, models.JobStatusVideosFetched, statusTTL)

	slog.Info("videos fetched", "job_id", ev.JobID, "video_count", len(videos))

	err = p.bus.Publish(ctx, bus.TopicVideosFetched, models.VideosFetchedEvent{
		JobID:       ev.JobID,
		ChannelName: channelName,
		Videos:      videos,
		Email:       ev.Email,
	})
	if err != nil {
		slog.Error("publishing videos.fetched", "job_id", ev.JobID, "error", err)
	}
}

func (p *Pipeline) publishVideosError(ctx context.Context, jobID uuid.UUID, email, notice string) {
	err := p.bus.Publish(ctx, bus.TopicVideosError, models.VideosErrorEvent{
		JobID: jobID,
		Email: email,
		Error: notice,
	})
	if err != nil {
		slog.Error("publishing videos.error", "job_id", jobID, "error", err)
	}
}
