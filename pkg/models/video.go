package models

import "time"

// Video is one item from a channel's recent uploads. Immutable once built;
// persisted only as part of its Job's videos column.
type Video struct {
	VideoID     string    `json:"video_id"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"published_at"`
	Thumbnail   string    `json:"thumbnail"`
}
