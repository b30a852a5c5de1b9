package domain

import "time"

type ReportCategory string

const (
	ReportSpam           ReportCategory = "spam"
	ReportHarassment     ReportCategory = "harassment"
	ReportHate           ReportCategory = "hate"
	ReportNudity         ReportCategory = "nudity"
	ReportViolence       ReportCategory = "violence"
	ReportCopyright      ReportCategory = "copyright"
	ReportMisinformation ReportCategory = "misinformation"
	ReportOther          ReportCategory = "other"
)

// categoryWeights is the base weight a single report contributes to the
// moderation queue.
var categoryWeights = map[ReportCategory]float64{
	ReportSpam:           1.0,
	ReportHarassment:     2.0,
	ReportHate:           2.5,
	ReportNudity:         2.0,
	ReportViolence:       2.5,
	ReportCopyright:      1.5,
	ReportMisinformation: 1.5,
	ReportOther:          0.5,
}

// BaseWeight returns the category weight and whether the category is known.
func (c ReportCategory) BaseWeight() (float64, bool) {
	w, ok := categoryWeights[c]
	return w, ok
}

// ReportCategories lists the known categories.
func ReportCategories() []interface{} {
	return []interface{}{
		ReportSpam, ReportHarassment, ReportHate, ReportNudity,
		ReportViolence, ReportCopyright, ReportMisinformation, ReportOther,
	}
}

type Report struct {
	ReportID   string         `json:"report_id"`
	PostID     string         `json:"post_id"`
	ReporterID string         `json:"reporter_id"`
	Category   ReportCategory `json:"category"`
	Reason     string         `json:"reason"`
	Weight     float64        `json:"weight"`
	CreatedAt  time.Time      `json:"created_at"`
}

type QueueStatus string

const (
	QueueStatusPending   QueueStatus = "pending"
	QueueStatusDismissed QueueStatus = "dismissed"
	QueueStatusActioned  QueueStatus = "actioned"
)

type QueueEntry struct {
	EntryID     string         `json:"entry_id"`
	PostID      string         `json:"post_id"`
	Category    ReportCategory `json:"category"`
	ReportCount int            `json:"report_count"`
	TotalWeight float64        `json:"total_weight"`
	Status      QueueStatus    `json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	ResolvedAt  *time.Time     `json:"resolved_at,omitempty"`
	ResolvedBy  *string        `json:"resolved_by,omitempty"`
}

type ResolveAction string

const (
	ResolveDismiss ResolveAction = "dismiss"
	ResolveRemove  ResolveAction = "remove"
)

// ReportOutcome describes what recording a report did to the queue.
type ReportOutcome struct {
	Report       *Report     `json:"report"`
	Entry        *QueueEntry `json:"-"`
	PendingTotal float64     `json:"-"`
	PostHidden   bool        `json:"-"`
}
