package models

import "time"

// SubmissionState is the position of a (user, year, week) timesheet in the
// submit protocol: NOT_SUBMITTED -> REVIEW_REQUIRED -> SUBMITTED.
type SubmissionState string

const (
	StateNotSubmitted   SubmissionState = "NOT_SUBMITTED"
	StateReviewRequired SubmissionState = "REVIEW_REQUIRED"
	StateSubmitted      SubmissionState = "SUBMITTED"
)

// WeekSubmission records that a user's ISO week was submitted. SUBMITTED is
// terminal, so at most one row exists per (user, year, week).
type WeekSubmission struct {
	ID          string    `gorm:"type:varchar(36);primaryKey" json:"id" bson:"_id"`
	UserID      string    `gorm:"type:varchar(64);not null;uniqueIndex:ux_submission_user_week,priority:1" json:"user_id" bson:"user_id"`
	Year        int       `gorm:"not null;uniqueIndex:ux_submission_user_week,priority:2" json:"year" bson:"year"`
	Week        int       `gorm:"not null;check:week >= 1 AND week <= 53;uniqueIndex:ux_submission_user_week,priority:3" json:"week" bson:"week"`
	Reference   string    `gorm:"type:varchar(128)" json:"reference,omitempty" bson:"reference,omitempty"`
	Absences    int       `gorm:"not null;default:0" json:"absences" bson:"absences"`
	SubmittedAt time.Time `gorm:"not null" json:"submitted_at" bson:"submitted_at"`
}

func (WeekSubmission) TableName() string {
	return "week_submissions"
}
