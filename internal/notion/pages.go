package notion

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/jobtrail/internal/logger"
)

const (
	statusInterviewScheduled = "Interview Scheduled"
	defaultCompany           = "Unknown Company"
	defaultPosition          = "Unknown Position"
	defaultLocation          = "Not specified"
)

// Record is one job application row in the Notion database.
type Record struct {
	PageID      string
	Company     string
	Position    string
	Location    string
	Status      string
	AppliedDate time.Time
	CVFiles     map[string]string
	Description string
	Salary      string
	JobType     string
}

type page struct {
	ID string `json:"id"`
}

func (r Record) properties() properties {
	p := properties{}
	p.title("Company", valueOr(r.Company, defaultCompany))
	p.richText("Position", valueOr(r.Position, defaultPosition))
	p.richText("Location", valueOr(r.Location, defaultLocation))
	p.selectOption("Status", valueOr(r.Status, "Applied"))

	applied := r.AppliedDate
	if applied.IsZero() {
		applied = time.Now()
	}
	p["Applied Date"] = map[string]any{"date": map[string]any{"start": applied.Format(time.DateOnly)}}

	p.richText("CV Files", formatFileLinks(r.CVFiles))
	p.richText("Job Description", r.Description)

	if salary := strings.TrimSpace(r.Salary); salary != "" {
		p.richText("Salary", salary)
	}
	if jobType := strings.TrimSpace(r.JobType); jobType != "" {
		p.selectOption("Job Type", jobType)
	}
	return p
}

// Upsert creates a page for r, or updates r.PageID when it is set, and
// returns the page id.
func (c *Client) Upsert(ctx context.Context, r Record) (string, error) {
	props := r.properties()
	fields := logger.ApplicationFields(r.PageID, r.Company, r.Position)

	if pageID := strings.TrimSpace(r.PageID); pageID != "" {
		if err := c.patchPage(ctx, pageID, props); err != nil {
			return "", err
		}
		c.logger.Info("notion entry updated", fields...)
		return pageID, nil
	}

	payload := map[string]any{
		"parent":     map[string]any{"database_id": c.databaseID},
		"properties": props,
	}

	var created page
	if err := c.do(ctx, http.MethodPost, "/v1/pages", payload, &created); err != nil {
		return "", err
	}
	if created.ID == "" {
		return "", errors.New("notion api returned a page without id")
	}

	c.logger.Info("notion entry created", append(fields, zap.String("page_id", created.ID))...)
	return created.ID, nil
}

// UpdateStatus sets the Status select and, when given, the Notes text.
func (c *Client) UpdateStatus(ctx context.Context, pageID, status, notes string) error {
	p := properties{}
	p.selectOption("Status", status)
	if notes = strings.TrimSpace(notes); notes != "" {
		p.richText("Notes", notes)
	}

	if err := c.patchPage(ctx, pageID, p); err != nil {
		return err
	}
	c.logger.Info("notion status updated", zap.String("page_id", pageID), zap.String("status", status))
	return nil
}

// ScheduleInterview marks the page as Interview Scheduled and stores the
// interview details.
func (c *Client) ScheduleInterview(ctx context.Context, pageID string, date time.Time, kind, interviewer, notes string) error {
	p := properties{}
	p.selectOption("Status", statusInterviewScheduled)
	p.date("Interview Date", date)
	p.selectOption("Interview Type", kind)
	if interviewer = strings.TrimSpace(interviewer); interviewer != "" {
		p.richText("Interviewer", interviewer)
	}
	if notes = strings.TrimSpace(notes); notes != "" {
		p.richText("Interview Notes", notes)
	}

	if err := c.patchPage(ctx, pageID, p); err != nil {
		return err
	}
	c.logger.Info("notion interview scheduled", zap.String("page_id", pageID), zap.Time("date", date))
	return nil
}

// AddFollowUp stores a follow-up reminder on the page.
func (c *Client) AddFollowUp(ctx context.Context, pageID string, date time.Time, kind, notes string) error {
	p := properties{}
	p.date("Follow-up Date", date)
	p.selectOption("Follow-up Type", kind)
	if notes = strings.TrimSpace(notes); notes != "" {
		p.richText("Follow-up Notes", notes)
	}

	if err := c.patchPage(ctx, pageID, p); err != nil {
		return err
	}
	c.logger.Info("notion follow-up added", zap.String("page_id", pageID), zap.Time("date", date))
	return nil
}

func (c *Client) patchPage(ctx context.Context, pageID string, props properties) error {
	pageID = strings.TrimSpace(pageID)
	if pageID == "" {
		return errors.New("notion page id is required")
	}
	return c.do(ctx, http.MethodPatch, "/v1/pages/"+pageID, map[string]any{"properties": props}, nil)
}

func valueOr(s, fallback string) string {
	if s = strings.TrimSpace(s); s == "" {
		return fallback
	}
	return s
}
