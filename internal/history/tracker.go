package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/jobtrail/internal/ats"
	"github.com/spigell/jobtrail/internal/jobs"
	"github.com/spigell/jobtrail/internal/logger"
)

// document is the on-disk layout of the history file.
type document struct {
	CreatedAt         time.Time      `json:"created_at" yaml:"created_at"`
	LastUpdated       time.Time      `json:"last_updated" yaml:"last_updated"`
	TotalApplications int            `json:"total_applications" yaml:"total_applications"`
	Applications      []*Application `json:"applications" yaml:"applications"`
}

// Tracker keeps the application history in a JSON file. Every mutation is
// written back before the call returns.
type Tracker struct {
	mu     sync.Mutex
	path   string
	doc    *document
	logger *zap.Logger
	now    func() time.Time
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// Open loads the history file, creating it when it does not exist.
func Open(path string, log *zap.Logger, opts ...Option) (*Tracker, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("history file path is required")
	}

	t := &Tracker{path: path, logger: logger.WithFields(log), now: time.Now}
	for _, opt := range opts {
		opt(t)
	}

	doc, err := readDocument(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		now := t.now()
		t.doc = &document{CreatedAt: now, Applications: []*Application{}}
		if err := t.save(); err != nil {
			return nil, err
		}
		t.logger.Info("created new application history", zap.String("path", path))
	case err != nil:
		return nil, err
	default:
		t.doc = doc
		t.logger.Debug("loaded application history",
			zap.String("path", path),
			zap.Int("applications", len(doc.Applications)),
		)
	}

	return t, nil
}

func readDocument(path string) (*document, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}

	doc := &document{Applications: []*Application{}}
	if stat.Size() == 0 {
		return doc, nil
	}

	if err := json.NewDecoder(file).Decode(doc); err != nil {
		return nil, fmt.Errorf("decode history file %q: %w", path, err)
	}
	return doc, nil
}

// save writes the document through a temporary file so a crash never leaves
// a truncated history behind. Callers hold t.mu.
func (t *Tracker) save() error {
	t.doc.LastUpdated = t.now()
	t.doc.TotalApplications = len(t.doc.Applications)

	if err := os.MkdirAll(filepath.Dir(t.path), 0o755); err != nil {
		return fmt.Errorf("create history directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(t.path), ".history-*.json")
	if err != nil {
		return fmt.Errorf("create temporary history file: %w", err)
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(t.doc); err != nil {
		tmp.Close()
		return fmt.Errorf("encode history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temporary history file: %w", err)
	}

	if err := os.Rename(tmp.Name(), t.path); err != nil {
		return fmt.Errorf("replace history file: %w", err)
	}
	return nil
}

// Path returns the history file location.
func (t *Tracker) Path() string { return t.path }

// Len returns the number of tracked applications.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.doc.Applications)
}

// Add records a new application. The status defaults to Applied.
func (t *Tracker) Add(job jobs.Posting, cvFiles map[string]string, status Status, notionPageID string, result *ats.Result) (*Application, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if status == "" {
		status = StatusApplied
	}
	if cvFiles == nil {
		cvFiles = map[string]string{}
	}

	app := &Application{
		ID:           fmt.Sprintf("app_%s_%s", now.Format("20060102_150405"), uuid.NewString()[:8]),
		AppliedAt:    now,
		Job:          job,
		CVFiles:      cvFiles,
		Status:       status,
		NotionPageID: notionPageID,
		StatusHistory: []StatusChange{{
			Status: status,
			Date:   now,
			Notes:  "Initial application",
		}},
		FollowUps:  []FollowUp{},
		Interviews: []Interview{},
		Tags:       []string{},
		ATS:        result,
	}

	t.doc.Applications = append(t.doc.Applications, app)
	if err := t.save(); err != nil {
		t.doc.Applications = t.doc.Applications[:len(t.doc.Applications)-1]
		return nil, err
	}

	t.logger.Info("application added to history", logger.ApplicationFields(app.ID, app.Job.Company, app.Job.Title)...)
	return cloneApplication(app), nil
}

// UpdateStatus moves an application to a new status and records the change.
func (t *Tracker) UpdateStatus(id string, status Status, notes string) error {
	return t.mutate(id, func(app *Application, now time.Time) error {
		app.setStatus(status, notes, now)
		t.logger.Info("application status updated",
			zap.String(logger.FieldApplicationID, id),
			zap.String("status", string(status)),
		)
		return nil
	})
}

// AddInterview attaches an interview. An application that is still Applied
// moves to Interview Scheduled.
func (t *Tracker) AddInterview(id string, iv Interview) error {
	return t.mutate(id, func(app *Application, now time.Time) error {
		iv.AddedAt = now
		app.Interviews = append(app.Interviews, iv)
		if app.Status == StatusApplied {
			app.setStatus(StatusInterviewScheduled, "Interview scheduled: "+iv.Type, now)
		}
		t.logger.Info("interview added to application",
			zap.String(logger.FieldApplicationID, id),
			zap.Time("date", iv.Date),
		)
		return nil
	})
}

// AddFollowUp attaches a follow-up reminder.
func (t *Tracker) AddFollowUp(id string, fu FollowUp) error {
	return t.mutate(id, func(app *Application, now time.Time) error {
		fu.AddedAt = now
		fu.Completed = false
		fu.CompletedAt = nil
		app.FollowUps = append(app.FollowUps, fu)
		t.logger.Info("follow-up added to application",
			zap.String(logger.FieldApplicationID, id),
			zap.Time("date", fu.Date),
		)
		return nil
	})
}

// CompleteFollowUp marks the follow-up scheduled at date as done.
func (t *Tracker) CompleteFollowUp(id string, date time.Time) error {
	return t.mutate(id, func(app *Application, now time.Time) error {
		for i := range app.FollowUps {
			if app.FollowUps[i].Date.Equal(date) {
				app.FollowUps[i].Completed = true
				app.FollowUps[i].CompletedAt = &now
				t.logger.Info("follow-up marked as completed", zap.String(logger.FieldApplicationID, id))
				return nil
			}
		}
		return fmt.Errorf("%w: %s at %s", ErrFollowUpNotFound, id, date.Format(time.RFC3339))
	})
}

// SetNotionPage stores the id of the Notion page mirroring the application.
func (t *Tracker) SetNotionPage(id, pageID string) error {
	return t.mutate(id, func(app *Application, _ time.Time) error {
		app.NotionPageID = pageID
		return nil
	})
}

// Annotate replaces the notes and appends tags that are not present yet.
func (t *Tracker) Annotate(id, notes string, tags ...string) error {
	return t.mutate(id, func(app *Application, _ time.Time) error {
		if notes != "" {
			app.Notes = notes
		}
		for _, tag := range tags {
			tag = strings.TrimSpace(tag)
			if tag != "" && !contains(app.Tags, tag) {
				app.Tags = append(app.Tags, tag)
			}
		}
		return nil
	})
}

func (t *Tracker) mutate(id string, fn func(app *Application, now time.Time) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	app := t.find(id)
	if app == nil {
		t.logger.Warn("application not found", zap.String(logger.FieldApplicationID, id))
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	backup := cloneApplication(app)
	if err := fn(app, t.now()); err != nil {
		return err
	}
	if err := t.save(); err != nil {
		*app = *backup
		return err
	}
	return nil
}

func (a *Application) setStatus(status Status, notes string, now time.Time) {
	a.Status = status
	a.StatusHistory = append(a.StatusHistory, StatusChange{Status: status, Date: now, Notes: notes})
}

func (t *Tracker) find(id string) *Application {
	for _, app := range t.doc.Applications {
		if app.ID == id {
			return app
		}
	}
	return nil
}

// Get returns a copy of one application.
func (t *Tracker) Get(id string) (*Application, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	app := t.find(id)
	if app == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return cloneApplication(app), nil
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	Status  Status
	Company string
	Limit   int
}

// List returns applications matching f, newest first.
func (t *Tracker) List(f Filter) []*Application {
	t.mu.Lock()
	defer t.mu.Unlock()

	company := strings.ToLower(strings.TrimSpace(f.Company))

	var result []*Application
	for _, app := range t.doc.Applications {
		if f.Status != "" && app.Status != f.Status {
			continue
		}
		if company != "" && !strings.Contains(strings.ToLower(app.Job.Company), company) {
			continue
		}
		result = append(result, cloneApplication(app))
	}

	sortNewestFirst(result)
	if f.Limit > 0 && len(result) > f.Limit {
		result = result[:f.Limit]
	}
	return result
}

// Search matches query against company, position, notes and description.
func (t *Tracker) Search(query string) []*Application {
	t.mu.Lock()
	defer t.mu.Unlock()

	q := strings.ToLower(strings.TrimSpace(query))

	var result []*Application
	for _, app := range t.doc.Applications {
		fields := []string{app.Job.Company, app.Job.Title, app.Notes, app.Job.Description}
		for _, field := range fields {
			if strings.Contains(strings.ToLower(field), q) {
				result = append(result, cloneApplication(app))
				break
			}
		}
	}

	sortNewestFirst(result)
	t.logger.Debug("searched applications", zap.String("query", query), zap.Int("found", len(result)))
	return result
}

func (t *Tracker) snapshot() []*Application {
	t.mu.Lock()
	defer t.mu.Unlock()

	apps := make([]*Application, 0, len(t.doc.Applications))
	for _, app := range t.doc.Applications {
		apps = append(apps, cloneApplication(app))
	}
	return apps
}

func sortNewestFirst(apps []*Application) {
	sort.SliceStable(apps, func(i, j int) bool {
		return apps[i].AppliedAt.After(apps[j].AppliedAt)
	})
}

func cloneApplication(app *Application) *Application {
	c := *app
	if app.CVFiles != nil {
		c.CVFiles = make(map[string]string, len(app.CVFiles))
		for k, v := range app.CVFiles {
			c.CVFiles[k] = v
		}
	}
	c.StatusHistory = append([]StatusChange(nil), app.StatusHistory...)
	c.FollowUps = append([]FollowUp(nil), app.FollowUps...)
	c.Interviews = append([]Interview(nil), app.Interviews...)
	c.Tags = append([]string(nil), app.Tags...)
	return &c
}

func contains(items []string, s string) bool {
	for _, item := range items {
		if item == s {
			return true
		}
	}
	return false
}
