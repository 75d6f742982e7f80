package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	JobStatusQueued           = "queued"
	JobStatusResolvingChannel = "resolving_channel"
	JobStatusChannelResolved  = "channel_resolved"
	JobStatusFetchingVideos   = "fetching_videos"
	JobStatusVideosFetched    = "videos_fetched"
	JobStatusFailed           = "failed"
)

// statusRank orders statuses along the pipeline. Merges may never move a job
// to a lower rank; "failed" outranks everything so it is reachable from any
// non-terminal state.
var statusRank = map[string]int{
	JobStatusQueued:           0,
	JobStatusResolvingChannel: 1,
	JobStatusChannelResolved:  2,
	JobStatusFetchingVideos:   3,
	JobStatusVideosFetched:    4,
	JobStatusFailed:           5,
}

// ValidStatus reports whether s is one of the known job statuses.
func ValidStatus(s string) bool {
	_, ok := statusRank[s]
	return ok
}

// StatusRank returns the pipeline position of a status. Unknown statuses
// rank below all known ones.
func StatusRank(s string) int {
	r, ok := statusRank[s]
	if !ok {
		return -1
	}
	return r
}

// TerminalStatus reports whether a job in status s may never be mutated again.
func TerminalStatus(s string) bool {
	return s == JobStatusVideosFetched || s == JobStatusFailed
}

// Job tracks one submitted request through the pipeline. The API returns the
// job ID on POST /api/v1/jobs; the client polls GET /api/v1/jobs/{jobID}
// until status is videos_fetched or failed.
type Job struct {
	ID           uuid.UUID `db:"id"            json:"id"`
	Channel      string    `db:"channel"       json:"channel"`
	Email        string    `db:"email"         json:"email"`
	Status       string    `db:"status"        json:"status"`
	ErrorMessage *string   `db:"error_message" json:"error_message,omitempty"`
	ChannelID    *string   `db:"channel_id"    json:"channel_id,omitempty"`
	ChannelName  *string   `db:"channel_name"  json:"channel_name,omitempty"`
	Videos       []Video   `db:"videos"        json:"videos,omitempty"`
	CreatedAt    time.Time `db:"created_at"    json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"    json:"updated_at"`
}
