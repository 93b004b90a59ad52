package cycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/jobtrail/internal/ai"
	"github.com/spigell/jobtrail/internal/ats"
	"github.com/spigell/jobtrail/internal/history"
	"github.com/spigell/jobtrail/internal/jobs"
	"github.com/spigell/jobtrail/internal/notify"
	"github.com/spigell/jobtrail/internal/notion"
)

var ErrBelowThreshold = errors.New("ats score is below the minimum")

// Step is a single stage of the apply cycle.
type Step interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Validate(cfg *Config) error
	Apply(ctx context.Context, deps Deps, s *State) (Info, error)
}

// PageWriter stores an application in an external tracker.
type PageWriter interface {
	Upsert(ctx context.Context, r notion.Record) (string, error)
}

// Deps aggregates collaborators shared across the steps. Optional ones may be nil.
type Deps struct {
	Logger   *zap.Logger
	Scorer   *ats.Scorer
	Writer   ai.Writer
	History  *history.Tracker
	Notion   PageWriter
	Notifier notify.Notifier
	Now      func() time.Time
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d Deps) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}

// Config contains settings consumed by the steps.
type Config struct {
	MinScore  int
	Tone      string
	OutputDir string
	Status    history.Status
}

// State is the application being prepared. Steps read and fill it in order.
type State struct {
	CV      string
	Posting jobs.Posting
	CVFiles map[string]string

	InitialResult *ats.Result
	Result        *ats.Result
	OptimizedCV   string
	CoverLetter   string
	Report        string

	Application  *history.Application
	NotionPageID string
	Files        []string
}

// FinalCV returns the optimized CV when there is one.
func (s *State) FinalCV() string {
	if s.OptimizedCV != "" {
		return s.OptimizedCV
	}
	return s.CV
}

// Info describes the outcome of executing a step.
type Info struct {
	Skipped bool
	Note    string
}

// Status represents runtime information about a step.
type Status struct {
	Name    string
	Enabled bool
	Reason  string
	Details map[string]string
}

type statusProvider interface {
	Status() Status
}

// Default returns every step in execution order.
func Default() []Step {
	return []Step{
		NewScore(),
		NewThreshold(),
		NewOptimize(),
		NewCoverLetter(),
		NewRecord(),
		NewNotion(),
		NewNotify(),
	}
}

// DisableByName marks a step with the provided name as disabled while keeping it in the list.
func DisableByName(steps []Step, name, reason string) {
	for _, step := range steps {
		if step.Name() == name {
			step.Disable(reason)
		}
	}
}

// Run validates the enabled steps and executes them sequentially.
func Run(ctx context.Context, cfg *Config, deps Deps, steps []Step, s *State) (*State, error) {
	if s == nil {
		return nil, errors.New("cycle state is required")
	}

	for _, step := range steps {
		if !step.IsEnabled() {
			continue
		}
		if err := step.Validate(cfg); err != nil {
			return s, fmt.Errorf("%s: %w", step.Name(), err)
		}
	}

	log := deps.logger()
	for _, step := range steps {
		if !step.IsEnabled() {
			log.Info("cycle step disabled", zap.String("name", step.Name()))
			continue
		}

		info, err := step.Apply(ctx, deps, s)
		if err != nil {
			return s, fmt.Errorf("%s: %w", step.Name(), err)
		}

		fields := []zap.Field{zap.String("name", step.Name()), zap.Bool("skipped", info.Skipped)}
		if info.Note != "" {
			fields = append(fields, zap.String("note", info.Note))
		}
		log.Info("cycle step", fields...)
	}

	return s, nil
}

// Describe returns status entries for the provided steps.
func Describe(steps []Step) []Status {
	statuses := make([]Status, 0, len(steps))
	for _, step := range steps {
		if reporter, ok := step.(statusProvider); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}

		statuses = append(statuses, Status{
			Name:    step.Name(),
			Enabled: step.IsEnabled(),
		})
	}
	return statuses
}
