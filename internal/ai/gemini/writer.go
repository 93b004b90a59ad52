package gemini

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/jobtrail/internal/ai"
	"github.com/spigell/jobtrail/internal/utils"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, system, prompt string) (string, error)
}

//go:embed optimize_prompt.md
var optimizePromptTemplate string

//go:embed cover_letter_prompt.md
var coverLetterPromptTemplate string

const (
	optimizeSystem    = "You are an ATS optimization expert. Optimize CVs for maximum ATS compatibility while maintaining professional quality."
	coverLetterSystem = "You are a professional cover letter writer specializing in ATS optimization and technical roles."

	defaultTone         = "Professional"
	notProvided         = "Not provided"
	defaultMaxLogLength = 200
)

// Writer implements ai.Writer on top of a Gemini generator.
type Writer struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

var _ ai.Writer = (*Writer)(nil)

func NewWriter(generator contentGenerator, logger *zap.Logger, maxLogLength int) *Writer {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Writer{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

// OptimizeCV asks the model for an ATS-friendly rewrite of the CV.
func (w *Writer) OptimizeCV(ctx context.Context, req ai.OptimizeRequest) (string, error) {
	if strings.TrimSpace(req.CV) == "" {
		return "", errors.New("cv text is required")
	}

	recommendations := "- none"
	if len(req.Recommendations) > 0 {
		recommendations = "- " + strings.Join(req.Recommendations, "\n- ")
	}

	prompt := buildPrompt(optimizePromptTemplate, map[string]string{
		"CV":              strings.TrimSpace(req.CV),
		"JOB_DESCRIPTION": valueOr(req.JobDescription, notProvided),
		"RECOMMENDATIONS": recommendations,
	})

	return w.generate(ctx, "optimize_cv", optimizeSystem, prompt)
}

// CoverLetter asks the model for a cover letter addressed to req.Job.
func (w *Writer) CoverLetter(ctx context.Context, req ai.CoverLetterRequest) (string, error) {
	if strings.TrimSpace(req.CV) == "" {
		return "", errors.New("cv text is required")
	}

	prompt := buildPrompt(coverLetterPromptTemplate, map[string]string{
		"TITLE":           valueOr(req.Job.Title, notProvided),
		"COMPANY":         valueOr(req.Job.Company, notProvided),
		"LOCATION":        valueOr(req.Job.Location, notProvided),
		"JOB_DESCRIPTION": valueOr(req.Job.Description, notProvided),
		"CV":              strings.TrimSpace(req.CV),
		"TONE":            valueOr(req.Tone, defaultTone),
	})

	return w.generate(ctx, "cover_letter", coverLetterSystem, prompt)
}

func (w *Writer) generate(ctx context.Context, task, system, prompt string) (string, error) {
	w.logger.Debug("gemini generate content request",
		zap.String("task", task),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, w.maxLogLen)),
	)

	raw, err := w.generator.GenerateContent(ctx, system, prompt)
	if err != nil {
		return "", err
	}

	text := stripFences(raw)
	if text == "" {
		return "", errors.New("gemini api returned empty text")
	}

	w.logger.Debug("gemini generate content response",
		zap.String("task", task),
		zap.Int("response_length", utf8.RuneCountInString(text)),
		zap.String("response_preview", utils.TruncateForLog(text, w.maxLogLen)),
	)

	return text, nil
}

func buildPrompt(template string, values map[string]string) string {
	prompt := template
	for key, value := range values {
		prompt = strings.ReplaceAll(prompt, "{{"+key+"}}", value)
	}
	return prompt
}

// stripFences removes a markdown code fence the model sometimes wraps plain
// text into.
func stripFences(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		if idx := strings.Index(raw, "\n"); idx != -1 {
			raw = raw[idx+1:]
		} else {
			raw = strings.TrimPrefix(raw, "```")
		}
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	return strings.TrimSpace(raw)
}

func valueOr(s, fallback string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback
	}
	return s
}
