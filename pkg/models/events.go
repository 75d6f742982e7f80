package models

import (
	"errors"

	"github.com/google/uuid"
)

// Event payloads are fixed per topic: every field a downstream stage needs is
// declared here, nothing is read out of loose maps. All payloads carry the
// job ID and the notification email so error emissions are always addressable.

var (
	ErrMissingJobID = errors.New("event payload missing job_id")
	ErrMissingEmail = errors.New("event payload missing email")
)

// SubmittedEvent is published once per accepted submission.
type SubmittedEvent struct {
	JobID   uuid.UUID `json:"job_id"`
	Channel string    `json:"channel"`
	Email   string    `json:"email"`
}

func (e SubmittedEvent) Validate() error {
	if e.JobID == uuid.Nil {
		return ErrMissingJobID
	}
	if e.Email == "" {
		return ErrMissingEmail
	}
	return nil
}

// ChannelResolvedEvent carries the resolved channel identity forward to the
// video fetch stage.
type ChannelResolvedEvent struct {
	JobID       uuid.UUID `json:"job_id"`
	Email       string    `json:"email"`
	ChannelID   string    `json:"channel_id"`
	ChannelName string    `json:"channel_name"`
}

func (e ChannelResolvedEvent) Validate() error {
	if e.JobID == uuid.Nil {
		return ErrMissingJobID
	}
	if e.Email == "" {
		return ErrMissingEmail
	}
	return nil
}

// ChannelErrorEvent signals a terminal resolution failure.
type ChannelErrorEvent struct {
	JobID uuid.UUID `json:"job_id"`
	Email string    `json:"email"`
	Error string    `json:"error"`
}

func (e ChannelErrorEvent) Validate() error {
	if e.JobID == uuid.Nil {
		return ErrMissingJobID
	}
	if e.Email == "" {
		return ErrMissingEmail
	}
	return nil
}

// VideosFetchedEvent is the pipeline's terminal success signal.
type VideosFetchedEvent struct {
	JobID       uuid.UUID `json:"job_id"`
	ChannelName string    `json:"channel_name"`
	Videos      []Video   `json:"videos"`
	Email       string    `json:"email"`
}

func (e VideosFetchedEvent) Validate() error {
	if e.JobID == uuid.Nil {
		return ErrMissingJobID
	}
	if e.Email == "" {
		return ErrMissingEmail
	}
	return nil
}

// VideosErrorEvent signals a terminal video fetch failure.
type VideosErrorEvent struct {
	JobID uuid.UUID `json:"job_id"`
	Email string    `json:"email"`
	Error string    `json:"error"`
}

func (e VideosErrorEvent) Validate() error {
	if e.JobID == uuid.Nil {
		return ErrMissingJobID
	}
	if e.Email == "" {
		return ErrMissingEmail
	}
	return nil
}
