package history

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spigell/jobtrail/internal/ats"
	"github.com/spigell/jobtrail/internal/jobs"
)

// Status is the pipeline stage of an application.
type Status string

const (
	StatusApplied            Status = "Applied"
	StatusInterviewScheduled Status = "Interview Scheduled"
	StatusInterviewCompleted Status = "Interview Completed"
	StatusRejected           Status = "Rejected"
	StatusOfferReceived      Status = "Offer Received"
	StatusWithdrawn          Status = "Withdrawn"
)

// Statuses lists the known statuses in pipeline order.
var Statuses = []Status{
	StatusApplied,
	StatusInterviewScheduled,
	StatusInterviewCompleted,
	StatusRejected,
	StatusOfferReceived,
	StatusWithdrawn,
}

var (
	ErrNotFound         = errors.New("application not found")
	ErrFollowUpNotFound = errors.New("follow-up not found")
)

// ParseStatus matches s against the known statuses ignoring case and
// separators, so "interview-scheduled" and "Interview Scheduled" are equal.
func ParseStatus(s string) (Status, error) {
	normalized := normalizeStatus(s)
	for _, status := range Statuses {
		if normalizeStatus(string(status)) == normalized {
			return status, nil
		}
	}
	return "", fmt.Errorf("unknown status %q", s)
}

func normalizeStatus(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("-", " ", "_", " ").Replace(s)
}

// Application is one tracked job application.
type Application struct {
	ID            string            `json:"id" yaml:"id"`
	AppliedAt     time.Time         `json:"applied_date" yaml:"applied_date"`
	Job           jobs.Posting      `json:"job_info" yaml:"job_info"`
	CVFiles       map[string]string `json:"cv_files" yaml:"cv_files"`
	Status        Status            `json:"status" yaml:"status"`
	NotionPageID  string            `json:"notion_page_id,omitempty" yaml:"notion_page_id,omitempty"`
	StatusHistory []StatusChange    `json:"status_history" yaml:"status_history"`
	FollowUps     []FollowUp        `json:"follow_ups" yaml:"follow_ups"`
	Interviews    []Interview       `json:"interviews" yaml:"interviews"`
	Notes         string            `json:"notes" yaml:"notes"`
	Tags          []string          `json:"tags" yaml:"tags"`
	ATS           *ats.Result       `json:"ats,omitempty" yaml:"ats,omitempty"`
}

// StatusChange is an entry of the status history.
type StatusChange struct {
	Status Status    `json:"status" yaml:"status"`
	Date   time.Time `json:"date" yaml:"date"`
	Notes  string    `json:"notes" yaml:"notes"`
}

// FollowUp is a reminder attached to an application.
type FollowUp struct {
	Date        time.Time  `json:"date" yaml:"date"`
	Type        string     `json:"type" yaml:"type"`
	Notes       string     `json:"notes" yaml:"notes"`
	AddedAt     time.Time  `json:"added_date" yaml:"added_date"`
	Completed   bool       `json:"completed" yaml:"completed"`
	CompletedAt *time.Time `json:"completed_date,omitempty" yaml:"completed_date,omitempty"`
}

// Interview is a scheduled or past interview.
type Interview struct {
	Date        time.Time `json:"date" yaml:"date"`
	Type        string    `json:"type" yaml:"type"`
	Interviewer string    `json:"interviewer" yaml:"interviewer"`
	Notes       string    `json:"notes" yaml:"notes"`
	AddedAt     time.Time `json:"added_date" yaml:"added_date"`
}

// Company returns the company name or "Unknown".
func (a *Application) Company() string {
	return valueOr(a.Job.Company, "Unknown")
}

// Position returns the job title or "Unknown".
func (a *Application) Position() string {
	return valueOr(a.Job.Title, "Unknown")
}

func valueOr(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

// ParseDate accepts a calendar date (2006-01-02), a date with minutes
// (2006-01-02 15:04) or an RFC3339 timestamp.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02T15:04", time.DateOnly} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD, YYYY-MM-DD HH:MM or RFC3339)", s)
}
