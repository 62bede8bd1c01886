package models

import (
	"time"

	"github.com/google/uuid"
)

type ReportReason string

const (
	ReasonSpam           ReportReason = "spam"
	ReasonHarassment     ReportReason = "harassment"
	ReasonHateSpeech     ReportReason = "hate_speech"
	ReasonViolence       ReportReason = "violence"
	ReasonMisinformation ReportReason = "misinformation"
	ReasonOther          ReportReason = "other"
)

func (r ReportReason) Valid() bool {
	switch r {
	case ReasonSpam, ReasonHarassment, ReasonHateSpeech, ReasonViolence, ReasonMisinformation, ReasonOther:
		return true
	}
	return false
}

type ReportStatus string

const (
	ReportPending     ReportStatus = "pending"
	ReportUnderReview ReportStatus = "under_review"
	ReportResolved    ReportStatus = "resolved"
	ReportDismissed   ReportStatus = "dismissed"
)

func (s ReportStatus) Valid() bool {
	switch s {
	case ReportPending, ReportUnderReview, ReportResolved, ReportDismissed:
		return true
	}
	return false
}

type Report struct {
	ID             uuid.UUID    `json:"id"`
	ReporterID     uuid.UUID    `json:"reporterId"`
	Target         ContentRef   `json:"target"`
	PostID         uuid.UUID    `json:"postId"` // the post itself, or the post a reported comment belongs to
	SubredditID    uuid.UUID    `json:"subredditId"`
	Reason         ReportReason `json:"reason"`
	Description    string       `json:"description,omitempty"`
	Status         ReportStatus `json:"status"`
	ModeratorNotes string       `json:"moderatorNotes,omitempty"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}
