package domain

import "time"

type FeedbackCategory string

const (
	FeedbackBug    FeedbackCategory = "bug"
	FeedbackIdea   FeedbackCategory = "idea"
	FeedbackPraise FeedbackCategory = "praise"
	FeedbackOther  FeedbackCategory = "other"
)

type Feedback struct {
	FeedbackID string           `json:"feedback_id"`
	UserID     *string          `json:"user_id,omitempty"`
	Category   FeedbackCategory `json:"category"`
	Message    string           `json:"message"`
	Rating     *int             `json:"rating,omitempty"`
	PageURL    string           `json:"page_url,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
}
