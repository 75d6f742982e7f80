package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/channelwatch/channelwatch/pkg/models"
)

var (
	ErrNotFound         = errors.New("resource not found")
	ErrDuplicateKey     = errors.New("duplicate key violation")
	ErrTerminalStatus   = errors.New("job is in a terminal status")
	ErrStatusRegression = errors.New("job status cannot move backwards")
)

// Store is the data access interface. All database operations go through here.
//
// MergeJob is the only mutation primitive: it reads the latest record under a
// row lock, shallow-merges the patch over it, and writes the result back, so
// no caller can blindly overwrite fields written by an earlier stage.
type Store interface {
	Ping(ctx context.Context) error

	CreateJob(ctx context.Context, job *models.Job) error
	GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error)
	MergeJob(ctx context.Context, id uuid.UUID, opts ...JobPatchOption) (*models.Job, error)
}

// JobPatch is the shallow-merge payload for MergeJob. Nil fields are left
// untouched on the record. Exported so fake stores in tests can apply the
// same option closures the real store receives.
type JobPatch struct {
	Status       *string
	ErrorMessage *string
	ChannelID    *string
	ChannelName  *string
	Videos       []models.Video
}

type JobPatchOption func(*JobPatch)

// BuildPatch folds the options into a patch value.
func BuildPatch(opts ...JobPatchOption) JobPatch {
	var p JobPatch
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

func WithStatus(status string) JobPatchOption {
	return func(p *JobPatch) {
		p.Status = &status
	}
}

func WithErrorMessage(msg string) JobPatchOption {
	return func(p *JobPatch) {
		p.ErrorMessage = &msg
	}
}

func WithChannel(channelID, channelName string) JobPatchOption {
	return func(p *JobPatch) {
		p.ChannelID = &channelID
		p.ChannelName = &channelName
	}
}

func WithVideos(videos []models.Video) JobPatchOption {
	return func(p *JobPatch) {
		p.Videos = videos
	}
}
