package ats

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// analyzer is one rubric dimension. The order of analyzers defines the order
// of missing elements in a Result.
type analyzer struct {
	name string
	run  func(in Input) AnalyzerResult
	set  func(r *Result, score int)
}

var analyzers = []analyzer{
	{
		name: "contact_info",
		run:  func(in Input) AnalyzerResult { return AnalyzeContact(in.CVText) },
		set:  func(r *Result, score int) { r.ContactInfoScore = score },
	},
	{
		name: "job_title_match",
		run:  func(in Input) AnalyzerResult { return AnalyzeJobTitle(in.CVText, in.JobTitle) },
		set:  func(r *Result, score int) { r.JobTitleMatchScore = score },
	},
	{
		name: "skill_match",
		run:  func(in Input) AnalyzerResult { return AnalyzeSkills(in.CVText, in.JobDescription) },
		set:  func(r *Result, score int) { r.SkillMatchScore = score },
	},
	{
		name: "formatting",
		run:  func(in Input) AnalyzerResult { return AnalyzeFormatting(in.CVText) },
		set:  func(r *Result, score int) { r.FormattingScore = score },
	},
	{
		name: "readability",
		run:  func(in Input) AnalyzerResult { return AnalyzeReadability(in.CVText) },
		set:  func(r *Result, score int) { r.ReadabilityScore = score },
	},
	{
		name: "web_presence",
		run:  func(in Input) AnalyzerResult { return AnalyzeWebPresence(in.CVText) },
		set:  func(r *Result, score int) { r.WebPresenceScore = score },
	},
}

// Score runs every analyzer in order and aggregates the outcome.
func Score(in Input) Result {
	results := make([]AnalyzerResult, len(analyzers))
	for i, a := range analyzers {
		results[i] = a.run(in)
	}
	return aggregate(in, results)
}

// Scorer runs the analyzers concurrently. The result is identical to Score.
type Scorer struct {
	logger *zap.Logger
}

// NewScorer returns a concurrent scorer. A nil logger is replaced with a no-op one.
func NewScorer(logger *zap.Logger) *Scorer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scorer{logger: logger}
}

// Score fans the analyzers out and joins them before aggregating. It only
// fails when ctx is done before all analyzers finished.
func (s *Scorer) Score(ctx context.Context, in Input) (Result, error) {
	results := make([]AnalyzerResult, len(analyzers))
	var mu sync.Mutex

	g, gCtx := errgroup.WithContext(ctx)
	for i, a := range analyzers {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			res := a.run(in)
			mu.Lock()
			results[i] = res
			mu.Unlock()
			s.logger.Debug("analyzer finished",
				zap.String("analyzer", a.name),
				zap.Int("score", res.Score),
				zap.Int("issues", len(res.Issues)),
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	result := aggregate(in, results)
	s.logger.Info("cv scored",
		zap.Int("overall_score", result.OverallScore),
		zap.Int("missing_elements", len(result.MissingElements)),
	)
	return result, nil
}

func aggregate(in Input, results []AnalyzerResult) Result {
	r := Result{MissingElements: make([]string, 0)}

	sum := 0
	for i, a := range analyzers {
		a.set(&r, results[i].Score)
		sum += results[i].Score
		r.MissingElements = append(r.MissingElements, results[i].Issues...)
	}
	r.OverallScore = sum / len(analyzers)

	r.Recommendations = Recommendations(r.MissingElements)
	r.KeywordSuggestions = KeywordSuggestions(in.CVText, in.JobDescription)
	return r
}

// Recommendations maps each issue to its remediation, appends the general
// advice and removes duplicates keeping the first occurrence.
func Recommendations(issues []string) []string {
	recommendations := make([]string, 0, len(issues)+len(generalRecommendations))
	for _, issue := range issues {
		if text, ok := recommendationFor(issue); ok {
			recommendations = append(recommendations, text)
		}
	}
	recommendations = append(recommendations, generalRecommendations...)
	return dedupe(recommendations)
}

func recommendationFor(issue string) (string, bool) {
	for _, rule := range recommendationRules {
		matched := true
		for _, part := range rule.contains {
			if !strings.Contains(issue, part) {
				matched = false
				break
			}
		}
		if matched {
			return rule.text, true
		}
	}
	return "", false
}

// KeywordSuggestions lists job description skills the CV never mentions plus
// generic industry keywords triggered by the job description.
func KeywordSuggestions(cv string, jobDescription *string) []string {
	suggestions := make([]string, 0)
	if !present(jobDescription) {
		return suggestions
	}

	cvLower := strings.ToLower(cv)
	var missing []string
	for _, skill := range ExtractSkills(*jobDescription) {
		if !strings.Contains(cvLower, strings.ToLower(skill)) {
			missing = append(missing, skill)
		}
	}
	suggestions = append(suggestions, head(missing, maxMissingKeywords)...)

	jdLower := strings.ToLower(*jobDescription)
	for _, hint := range industryHints {
		if containsAny(jdLower, hint.triggers) {
			suggestions = append(suggestions, hint.keywords...)
		}
	}

	return dedupe(suggestions)
}

func dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	result := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		result = append(result, item)
	}
	return result
}
