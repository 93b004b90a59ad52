package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spigell/jobtrail/internal/ats"
	"github.com/spigell/jobtrail/internal/cycle"
	"github.com/spigell/jobtrail/internal/history"
	"github.com/spigell/jobtrail/internal/logger"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	PromptYes          = "Yes"
	PromptNo           = "No"
	PromptBack         = "back"
	PromptShowReport   = "Show ATS report"
	PromptShowSteps    = "Show cycle steps"
	PromptResultToFile = "Dump score to file"
)

var errExit = errors.New("exit requested")

var prompt = promptui.Select{
	Label: "Proceed with the application?",
	Items: []string{PromptYes, PromptNo, PromptShowReport, PromptShowSteps, PromptResultToFile},
}

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Score, tailor and record an application for a job posting",
	Run: func(cmd *cobra.Command, _ []string) {
		runApply(cmd)
	},
}

func init() {
	rootCmd.AddCommand(applyCmd)

	applyCmd.Flags().String("cv", "", "plain text CV file")
	addPostingFlags(applyCmd)
	applyCmd.Flags().BoolP("auto-approve", "y", false, "do not ask for confirmation")
	applyCmd.Flags().BoolP("force", "f", false, "apply even if the score is below the minimum")
	applyCmd.Flags().Int("min-score", -1, "minimum ATS score, overrides the config")
	applyCmd.Flags().String("status", string(history.StatusApplied), "initial application status")
	applyCmd.Flags().StringSlice("skip", nil, "cycle steps to disable (optimize, cover_letter, notion, notify)")
}

// prepared is everything the apply prompt works with.
type prepared struct {
	cfg     *cycle.Config
	deps    cycle.Deps
	steps   []cycle.Step
	state   *cycle.State
	preview ats.Result
}

func runApply(cmd *cobra.Command) {
	ctx := context.Background()
	logger, config := setup()

	logger.Info("starting the jobtrail", zap.String("version", version))

	cvPath, _ := cmd.Flags().GetString("cv")
	cv, err := readText(cvPath, "cv")
	if err != nil {
		logger.Fatal("reading cv", zap.Error(err))
	}

	posting, err := loadPosting(ctx, cmd, config, logger)
	if err != nil {
		logger.Fatal("loading job posting", zap.Error(err))
	}
	if err := posting.Validate(); err != nil {
		logger.Fatal("job posting is required", zap.Error(err), zap.String("hint", "pass --job, --job-url or --title"))
	}

	p, err := prepareApply(ctx, cmd, config, logger)
	if err != nil {
		logger.Fatal("preparing the apply cycle", zap.Error(err))
	}
	p.state = &cycle.State{CV: cv, Posting: posting, CVFiles: map[string]string{"source": cvPath}}

	p.preview, err = p.deps.Scorer.Score(ctx, inputFor(cv, posting))
	if err != nil {
		logger.Fatal("scoring cv", zap.Error(err))
	}

	autoApprove, _ := cmd.Flags().GetBool("auto-approve")

	action := PromptYes
	for {
		var err error
		if !autoApprove {
			_, action, err = prompt.Run()
			if err != nil {
				logger.Fatal("exiting", zap.Error(err))
			}
		}

		if err := handleAction(ctx, action, logger, p); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func prepareApply(ctx context.Context, cmd *cobra.Command, config *Config, logger *zap.Logger) (*prepared, error) {
	cycleCfg := &cycle.Config{
		MinScore:  config.MinScore,
		Tone:      config.Tone,
		OutputDir: config.OutputDir,
	}
	if minScore, _ := cmd.Flags().GetInt("min-score"); minScore >= 0 {
		cycleCfg.MinScore = minScore
	}

	statusFlag, _ := cmd.Flags().GetString("status")
	status, err := history.ParseStatus(statusFlag)
	if err != nil {
		return nil, err
	}
	cycleCfg.Status = status

	steps := cycle.Default()
	if force, _ := cmd.Flags().GetBool("force"); force {
		cycle.DisableByName(steps, cycle.StepThreshold, "forced from command line")
	}
	skip, _ := cmd.Flags().GetStringSlice("skip")
	for _, name := range skip {
		cycle.DisableByName(steps, strings.TrimSpace(name), "skipped from command line")
	}

	writer, err := newWriter(ctx, config.AI, logger)
	if err != nil {
		logger.Warn("skipping ai rewriting", zap.Error(err))
		writer = nil
	}
	if writer == nil {
		cycle.DisableByName(steps, cycle.StepOptimize, "ai is disabled")
	}

	tracker, err := openHistory(config, logger)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}

	deps := cycle.Deps{
		Logger:   logger,
		Scorer:   ats.NewScorer(logger),
		Writer:   writer,
		History:  tracker,
		Notion:   newNotion(config.Notion, logger),
		Notifier: newNotifier(config.Notify, logger),
	}

	// Validation fills in the step settings shown by the steps prompt.
	for _, step := range steps {
		if !step.IsEnabled() {
			continue
		}
		if err := step.Validate(cycleCfg); err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}
	}

	return &prepared{cfg: cycleCfg, deps: deps, steps: steps}, nil
}

func handleAction(ctx context.Context, action string, logger *zap.Logger, p *prepared) error {
	switch action {
	case PromptYes:
		return applyCycle(ctx, logger, p)
	case PromptNo:
		logger.Info("exiting", zap.String("reason", "got no from prompt"))
		return errExit
	case PromptShowReport:
		fmt.Println(ats.RenderReportWithOptions(p.preview, ats.ReportOptions{
			Company:  p.state.Posting.Company,
			JobTitle: p.state.Posting.Title,
		}))
		return nil
	case PromptShowSteps:
		pretty, _ := json.MarshalIndent(cycle.Describe(p.steps), "", "  ")
		logger.Info(string(pretty), zap.Int("steps count", len(p.steps)))
		return nil
	case PromptResultToFile:
		filename, err := dumpToTmpFile(p.preview)
		if err != nil {
			return fmt.Errorf("dump results to file: %w", err)
		}
		logger.Info("dumping result to file", zap.String("filename", filename))
		return nil
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func applyCycle(ctx context.Context, log *zap.Logger, p *prepared) error {
	s, err := cycle.Run(ctx, p.cfg, p.deps, p.steps, p.state)
	if errors.Is(err, cycle.ErrBelowThreshold) {
		log.Info("exiting",
			zap.String("reason", err.Error()),
			zap.String("hint", "improve the cv or pass --force"),
		)
		return errExit
	}
	if err != nil {
		return err
	}

	fields := []zap.Field{zap.Strings("files", s.Files)}
	if s.Result != nil {
		fields = append(fields, zap.Int("ats_score", s.Result.OverallScore))
	}
	if s.Application != nil {
		fields = append(fields, logger.ApplicationFields(s.Application.ID, s.Application.Company(), s.Application.Position())...)
	}
	if s.NotionPageID != "" {
		fields = append(fields, zap.String("notion_page_id", s.NotionPageID))
	}
	log.Info("application recorded", fields...)

	return errExit
}

func dumpToTmpFile(v any) (string, error) {
	file, err := os.CreateTemp("", "ats_result_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return file.Name(), nil
}
