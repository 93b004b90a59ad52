package ats

import "strings"

// Input is a single scoring request. CVText is mandatory; the remaining fields
// are optional and treated as absent when nil or blank.
type Input struct {
	CVText         string
	JobDescription *string
	JobTitle       *string
	Company        *string
}

// NewInput builds an Input, mapping empty optional values to nil.
func NewInput(cv, jobDescription, jobTitle, company string) Input {
	return Input{
		CVText:         cv,
		JobDescription: optional(jobDescription),
		JobTitle:       optional(jobTitle),
		Company:        optional(company),
	}
}

// AnalyzerResult is the outcome of one analyzer.
type AnalyzerResult struct {
	Score  int
	Issues []string
}

// Result is the aggregated outcome of scoring one CV.
type Result struct {
	OverallScore       int      `json:"overall_score" yaml:"overall_score"`
	ContactInfoScore   int      `json:"contact_info_score" yaml:"contact_info_score"`
	JobTitleMatchScore int      `json:"job_title_match_score" yaml:"job_title_match_score"`
	SkillMatchScore    int      `json:"skill_match_score" yaml:"skill_match_score"`
	FormattingScore    int      `json:"formatting_score" yaml:"formatting_score"`
	ReadabilityScore   int      `json:"readability_score" yaml:"readability_score"`
	WebPresenceScore   int      `json:"web_presence_score" yaml:"web_presence_score"`
	Recommendations    []string `json:"recommendations" yaml:"recommendations"`
	MissingElements    []string `json:"missing_elements" yaml:"missing_elements"`
	KeywordSuggestions []string `json:"keyword_suggestions" yaml:"keyword_suggestions"`
}

// SubScores returns the six sub-scores in analyzer order.
func (r Result) SubScores() []int {
	return []int{
		r.ContactInfoScore,
		r.JobTitleMatchScore,
		r.SkillMatchScore,
		r.FormattingScore,
		r.ReadabilityScore,
		r.WebPresenceScore,
	}
}

func optional(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

// present reports whether an optional value carries usable text.
func present(s *string) bool {
	return s != nil && strings.TrimSpace(*s) != ""
}

func clamp(score int) int {
	switch {
	case score < 0:
		return 0
	case score > 100:
		return 100
	default:
		return score
	}
}

func newResult(score int, issues []string) AnalyzerResult {
	if issues == nil {
		issues = []string{}
	}
	return AnalyzerResult{Score: clamp(score), Issues: issues}
}
