package domain

import "time"

type MediaPurpose string

const (
	MediaPurposePost   MediaPurpose = "post"
	MediaPurposeAvatar MediaPurpose = "avatar"
)

type MediaKind string

const (
	MediaKindImage MediaKind = "image"
	MediaKindVideo MediaKind = "video"
)

type Media struct {
	MediaID     string       `json:"media_id"`
	OwnerID     string       `json:"owner_id"`
	PostID      *string      `json:"post_id,omitempty"`
	Purpose     MediaPurpose `json:"purpose"`
	Kind        MediaKind    `json:"kind"`
	StorageKey  string       `json:"-"`
	URL         string       `json:"url"`
	ContentType string       `json:"content_type"`
	SizeBytes   int64        `json:"size_bytes"`
	CreatedAt   time.Time    `json:"created_at"`
}
