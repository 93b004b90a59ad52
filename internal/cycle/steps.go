package cycle

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/jobtrail/internal/ai"
	"github.com/spigell/jobtrail/internal/ats"
	"github.com/spigell/jobtrail/internal/history"
	"github.com/spigell/jobtrail/internal/logger"
	"github.com/spigell/jobtrail/internal/notify"
	"github.com/spigell/jobtrail/internal/notion"
)

const (
	StepScore       = "score"
	StepThreshold   = "threshold"
	StepOptimize    = "optimize"
	StepCoverLetter = "cover_letter"
	StepRecord      = "record"
	StepNotion      = "notion"
	StepNotify      = "notify"
)

type toggle struct {
	disabled bool
	reason   string
}

func (t *toggle) Disable(reason string) {
	t.disabled = true
	t.reason = reason
}

func (t *toggle) IsEnabled() bool { return !t.disabled }

func scorer(deps Deps) *ats.Scorer {
	if deps.Scorer != nil {
		return deps.Scorer
	}
	return ats.NewScorer(deps.Logger)
}

func scoreCV(ctx context.Context, deps Deps, s *State, cv string) (*ats.Result, error) {
	in := ats.NewInput(cv, s.Posting.Description, s.Posting.Title, s.Posting.Company)
	result, err := scorer(deps).Score(ctx, in)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

type scoreStep struct{ toggle }

// NewScore creates the step that rates the CV against the posting.
func NewScore() Step { return &scoreStep{} }

func (f *scoreStep) Name() string { return StepScore }

// The score step cannot be turned off; every later step needs its result.
func (f *scoreStep) Disable(string) {}

func (f *scoreStep) Validate(*Config) error { return nil }

func (f *scoreStep) Apply(ctx context.Context, deps Deps, s *State) (Info, error) {
	if strings.TrimSpace(s.CV) == "" {
		return Info{}, errors.New("cv text is empty")
	}

	result, err := scoreCV(ctx, deps, s, s.CV)
	if err != nil {
		return Info{}, err
	}
	s.InitialResult = result
	s.Result = result

	return Info{Note: fmt.Sprintf("overall score %d/100", result.OverallScore)}, nil
}

func (f *scoreStep) Status() Status {
	return Status{Name: f.Name(), Enabled: true}
}

type thresholdStep struct {
	toggle
	minScore int
}

// NewThreshold creates the step that stops the cycle for weak CVs.
func NewThreshold() Step { return &thresholdStep{} }

func (f *thresholdStep) Name() string { return StepThreshold }

func (f *thresholdStep) Validate(cfg *Config) error {
	f.minScore = 0
	if cfg != nil {
		f.minScore = cfg.MinScore
	}
	if f.minScore < 0 || f.minScore > 100 {
		return fmt.Errorf("minimum score must be between 0 and 100, got %d", f.minScore)
	}
	return nil
}

func (f *thresholdStep) Apply(_ context.Context, _ Deps, s *State) (Info, error) {
	if s.Result == nil {
		return Info{}, errors.New("cv has not been scored")
	}
	if f.minScore == 0 {
		return Info{Skipped: true, Note: "no minimum score"}, nil
	}
	if s.Result.OverallScore < f.minScore {
		return Info{}, fmt.Errorf("%w: %d < %d", ErrBelowThreshold, s.Result.OverallScore, f.minScore)
	}
	return Info{Note: fmt.Sprintf("%d >= %d", s.Result.OverallScore, f.minScore)}, nil
}

func (f *thresholdStep) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.IsEnabled(),
		Reason:  f.reason,
		Details: map[string]string{"min_score": strconv.Itoa(f.minScore)},
	}
}

type optimizeStep struct{ toggle }

// NewOptimize creates the step that rewrites the CV with the language model
// and scores the rewrite.
func NewOptimize() Step { return &optimizeStep{} }

func (f *optimizeStep) Name() string { return StepOptimize }

func (f *optimizeStep) Validate(*Config) error { return nil }

func (f *optimizeStep) Apply(ctx context.Context, deps Deps, s *State) (Info, error) {
	if deps.Writer == nil {
		return Info{Skipped: true, Note: "ai writer is not configured"}, nil
	}
	if s.Result == nil {
		return Info{}, errors.New("cv has not been scored")
	}

	optimized, err := deps.Writer.OptimizeCV(ctx, ai.OptimizeRequest{
		CV:              s.CV,
		JobDescription:  s.Posting.Description,
		Recommendations: s.Result.Recommendations,
	})
	if err != nil {
		if ctx.Err() != nil {
			return Info{}, ctx.Err()
		}
		deps.logger().Warn("cv optimization failed, keeping the original cv", zap.Error(err))
		return Info{Skipped: true, Note: "optimization failed"}, nil
	}

	result, err := scoreCV(ctx, deps, s, optimized)
	if err != nil {
		return Info{}, err
	}

	before := s.Result.OverallScore
	s.OptimizedCV = optimized
	s.Result = result

	return Info{Note: fmt.Sprintf("score %d -> %d", before, result.OverallScore)}, nil
}

func (f *optimizeStep) Status() Status {
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason}
}

type coverLetterStep struct {
	toggle
	tone string
}

// NewCoverLetter creates the step that drafts a cover letter. Without a
// working writer it falls back to a template.
func NewCoverLetter() Step { return &coverLetterStep{} }

func (f *coverLetterStep) Name() string { return StepCoverLetter }

func (f *coverLetterStep) Validate(cfg *Config) error {
	f.tone = ""
	if cfg != nil {
		f.tone = strings.TrimSpace(cfg.Tone)
	}
	return nil
}

func (f *coverLetterStep) Apply(ctx context.Context, deps Deps, s *State) (Info, error) {
	if deps.Writer != nil {
		letter, err := deps.Writer.CoverLetter(ctx, ai.CoverLetterRequest{
			CV:   s.FinalCV(),
			Job:  s.Posting,
			Tone: f.tone,
		})
		if err == nil {
			s.CoverLetter = letter
			return Info{Note: "generated"}, nil
		}
		if ctx.Err() != nil {
			return Info{}, ctx.Err()
		}
		deps.logger().Warn("cover letter generation failed, using template", zap.Error(err))
	}

	s.CoverLetter = templateCoverLetter(s.Posting.Title, s.Posting.Company)
	return Info{Note: "template"}, nil
}

func (f *coverLetterStep) Status() Status {
	details := map[string]string{}
	if f.tone != "" {
		details["tone"] = f.tone
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}

func templateCoverLetter(title, company string) string {
	title = valueOr(title, "the open position")
	company = valueOr(company, "your company")
	return fmt.Sprintf(`Dear Hiring Manager,

I am writing to express my interest in %s at %s. My experience matches the requirements of the role, and I would welcome the opportunity to contribute to your team.

My CV is attached for your review. Thank you for your time and consideration.

Best regards`, title, company)
}

type recordStep struct {
	toggle
	outputDir string
	status    history.Status
}

// NewRecord creates the step that saves artifacts and adds the application
// to the history.
func NewRecord() Step { return &recordStep{} }

func (f *recordStep) Name() string { return StepRecord }

func (f *recordStep) Validate(cfg *Config) error {
	f.outputDir, f.status = "", history.StatusApplied
	if cfg != nil {
		f.outputDir = strings.TrimSpace(cfg.OutputDir)
		if cfg.Status != "" {
			f.status = cfg.Status
		}
	}
	return nil
}

func (f *recordStep) Apply(_ context.Context, deps Deps, s *State) (Info, error) {
	if deps.History == nil {
		return Info{}, errors.New("history tracker is required")
	}

	if f.outputDir != "" {
		files, err := saveArtifacts(f.outputDir, deps.now(), s)
		if err != nil {
			return Info{}, err
		}
		if s.CVFiles == nil {
			s.CVFiles = map[string]string{}
		}
		for kind, path := range files {
			s.CVFiles[kind] = path
			s.Files = append(s.Files, path)
		}
	}

	app, err := deps.History.Add(s.Posting, s.CVFiles, f.status, s.NotionPageID, s.Result)
	if err != nil {
		return Info{}, fmt.Errorf("add application to history: %w", err)
	}
	s.Application = app

	return Info{Note: app.ID}, nil
}

func (f *recordStep) Status() Status {
	details := map[string]string{"status": string(f.status)}
	if f.outputDir != "" {
		details["output_dir"] = f.outputDir
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}

type notionStep struct{ toggle }

// NewNotion creates the step that mirrors the application to Notion.
// Failures are logged and do not stop the cycle.
func NewNotion() Step { return &notionStep{} }

func (f *notionStep) Name() string { return StepNotion }

func (f *notionStep) Validate(*Config) error { return nil }

func (f *notionStep) Apply(ctx context.Context, deps Deps, s *State) (Info, error) {
	if deps.Notion == nil {
		return Info{Skipped: true, Note: "notion is not configured"}, nil
	}

	record := notion.Record{
		PageID:      s.NotionPageID,
		Company:     s.Posting.Company,
		Position:    s.Posting.Title,
		Location:    s.Posting.Location,
		Status:      string(history.StatusApplied),
		AppliedDate: deps.now(),
		CVFiles:     s.CVFiles,
		Description: s.Posting.Description,
		Salary:      s.Posting.Salary,
		JobType:     s.Posting.JobType,
	}
	if s.Application != nil {
		record.Status = string(s.Application.Status)
		record.AppliedDate = s.Application.AppliedAt
	}

	pageID, err := deps.Notion.Upsert(ctx, record)
	switch {
	case errors.Is(err, notion.ErrNotConfigured):
		return Info{Skipped: true, Note: "notion is not configured"}, nil
	case err != nil:
		if ctx.Err() != nil {
			return Info{}, ctx.Err()
		}
		deps.logger().Warn("notion sync failed, keeping local history only", zap.Error(err))
		return Info{Skipped: true, Note: "sync failed"}, nil
	}
	s.NotionPageID = pageID

	if s.Application != nil && deps.History != nil {
		if err := deps.History.SetNotionPage(s.Application.ID, pageID); err != nil {
			return Info{}, fmt.Errorf("store notion page id: %w", err)
		}
		s.Application.NotionPageID = pageID
	}

	return Info{Note: pageID}, nil
}

func (f *notionStep) Status() Status {
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason}
}

type notifyStep struct{ toggle }

// NewNotify creates the step that renders the report and sends it out.
func NewNotify() Step { return &notifyStep{} }

func (f *notifyStep) Name() string { return StepNotify }

func (f *notifyStep) Validate(*Config) error { return nil }

func (f *notifyStep) Apply(ctx context.Context, deps Deps, s *State) (Info, error) {
	if s.Result == nil {
		return Info{}, errors.New("cv has not been scored")
	}

	s.Report = ats.RenderReportWithOptions(*s.Result, ats.ReportOptions{
		Company:     s.Posting.Company,
		JobTitle:    s.Posting.Title,
		OptimizedCV: s.OptimizedCV,
		GeneratedAt: deps.now(),
	})

	if deps.Notifier == nil {
		return Info{Skipped: true, Note: "no notifiers"}, nil
	}

	msg := notify.Message{
		Subject: fmt.Sprintf("ATS-Optimized Application Ready - %s at %s",
			valueOr(s.Posting.Title, "Unknown Position"), valueOr(s.Posting.Company, "Unknown Company")),
		Body: s.Report,
		URL:  s.Posting.URL,
	}

	if err := deps.Notifier.Notify(ctx, msg); err != nil {
		fields := []zap.Field{zap.Error(err)}
		if s.Application != nil {
			fields = append(fields, logger.ApplicationFields(s.Application.ID, s.Posting.Company, s.Posting.Title)...)
		}
		deps.logger().Warn("notification failed", fields...)
		return Info{Skipped: true, Note: "delivery failed"}, nil
	}

	return Info{Note: deps.Notifier.Name()}, nil
}

func (f *notifyStep) Status() Status {
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason}
}

func valueOr(s, fallback string) string {
	if s = strings.TrimSpace(s); s == "" {
		return fallback
	}
	return s
}
