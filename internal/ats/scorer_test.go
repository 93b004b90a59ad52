package ats

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const strongCV = `Jane Smith
jane.smith@janesmith.dev | +1 555 123 4567 | 12 Main Street, Springfield
linkedin.com/in/janesmith | github.com/janesmith | https://janesmith.dev

Summary
Senior Go Engineer with 8 years of experience building distributed systems.

Experience
Acme Corp, Senior Go Engineer, Jan 2019 - Dec 2023
Reduced latency by 40% and improved throughput by 3x. Cut cloud spend by $20000 across 12 services. Mentored 5+ engineers. Led migrations for 3 years.

Education
BSc Computer Science, 06/2014

Skills
Go, Kubernetes, Docker, PostgreSQL, AWS`

func TestScoreStrongCV(t *testing.T) {
	in := NewInput(strongCV, "Looking for a Go engineer with Kubernetes and AWS experience.", "Senior Go Engineer", "Acme")
	got := Score(in)

	for i, score := range got.SubScores() {
		if score != 100 {
			t.Fatalf("expected sub-score %d to be 100, got %d (missing: %v)", i, score, got.MissingElements)
		}
	}
	if got.OverallScore != 100 {
		t.Fatalf("expected overall 100, got %d", got.OverallScore)
	}
	if len(got.MissingElements) != 0 {
		t.Fatalf("expected no missing elements, got %v", got.MissingElements)
	}
	if !reflect.DeepEqual(got.Recommendations, generalRecommendations) {
		t.Fatalf("expected only general recommendations, got %v", got.Recommendations)
	}
	if len(got.KeywordSuggestions) != 0 {
		t.Fatalf("expected no keyword suggestions, got %v", got.KeywordSuggestions)
	}
}

func TestScoreContactOnlyScenario(t *testing.T) {
	cv := "John Doe, john@example.com, +1-555-123-4567, New York City, linkedin.com/in/johndoe, github.com/johndoe"
	got := Score(NewInput(cv, "", "", ""))

	if got.ContactInfoScore != 100 {
		t.Fatalf("expected contact score 100, got %d", got.ContactInfoScore)
	}
	if got.JobTitleMatchScore != 100 {
		t.Fatalf("expected job title score 100, got %d", got.JobTitleMatchScore)
	}
	// formatting: no dates and no headings; web presence: no portfolio.
	if got.FormattingScore != 65 || got.WebPresenceScore != 80 {
		t.Fatalf("unexpected formatting/web scores: %d/%d", got.FormattingScore, got.WebPresenceScore)
	}
	if got.OverallScore != 90 {
		t.Fatalf("expected overall 90, got %d", got.OverallScore)
	}
}

func TestScoreEmptyCV(t *testing.T) {
	got := Score(NewInput("", "", "", ""))

	if got.ContactInfoScore != 0 {
		t.Fatalf("expected contact score 0, got %d", got.ContactInfoScore)
	}
	for _, score := range got.SubScores() {
		if score < 0 || score > 100 {
			t.Fatalf("sub-score out of range: %d", score)
		}
	}
	if got.MissingElements[0] != "Email address not found in resume" {
		t.Fatalf("expected contact issues first, got %v", got.MissingElements)
	}
	if last := got.MissingElements[len(got.MissingElements)-1]; last != "Portfolio website not found" {
		t.Fatalf("expected web presence issues last, got %q", last)
	}
}

func TestAggregateFloorsMean(t *testing.T) {
	results := []AnalyzerResult{{Score: 100}, {Score: 100}, {Score: 100}, {Score: 100}, {Score: 100}, {Score: 99}}
	got := aggregate(Input{}, results)
	if got.OverallScore != 99 {
		t.Fatalf("expected floor of mean to be 99, got %d", got.OverallScore)
	}
}

func TestScoreIsIdempotent(t *testing.T) {
	in := NewInput(strongCV+"\nunfortunately", "React developer for web backend", "Staff Engineer", "")
	first := Score(in)
	second := Score(in)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical results:\n%+v\n%+v", first, second)
	}
}

func TestScorerMatchesSequentialScore(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	scorer := NewScorer(zap.New(core))

	in := NewInput("Frontend developer, React. image header", "Frontend developer: React, Docker, GraphQL", "Frontend Developer", "")
	got, err := scorer.Score(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if want := Score(in); !reflect.DeepEqual(got, want) {
		t.Fatalf("concurrent result differs:\n%+v\n%+v", got, want)
	}

	if n := logs.FilterMessage("analyzer finished").Len(); n != len(analyzers) {
		t.Fatalf("expected %d analyzer logs, got %d", len(analyzers), n)
	}
	if logs.FilterMessage("cv scored").Len() != 1 {
		t.Fatalf("expected summary log entry")
	}
}

func TestScorerCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewScorer(nil).Score(ctx, NewInput("cv", "", "", ""))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRecommendations(t *testing.T) {
	issues := []string{
		"Email address not found in resume",
		"Job title 'Go Engineer' not found in resume",
		"Only 1/2 words from job title found",
		"Email address not found in resume",
	}
	got := Recommendations(issues)

	want := append([]string{
		"Add a professional email address in the contact section",
		"Include the exact job title in your resume, preferably in the summary",
	}, generalRecommendations...)
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected recommendations: %v", got)
	}
}

func TestKeywordSuggestions(t *testing.T) {
	t.Parallel()

	t.Run("no job description", func(t *testing.T) {
		t.Parallel()
		if got := KeywordSuggestions("React", nil); len(got) != 0 {
			t.Fatalf("expected no suggestions, got %v", got)
		}
	})

	t.Run("missing skills and industry hints", func(t *testing.T) {
		t.Parallel()
		got := KeywordSuggestions("React", strPtr("Frontend developer: React, TypeScript, Docker"))
		want := []string{
			"Docker",
			"software development", "programming", "coding", "debugging",
			"web development", "responsive design", "user experience",
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("unexpected suggestions: %v", got)
		}
	})
}

func TestResultJSONFieldNames(t *testing.T) {
	data, err := json.Marshal(Score(NewInput("", "", "", "")))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	for _, key := range []string{
		"overall_score", "contact_info_score", "job_title_match_score", "skill_match_score",
		"formatting_score", "readability_score", "web_presence_score",
		"recommendations", "missing_elements", "keyword_suggestions",
	} {
		if _, ok := fields[key]; !ok {
			t.Fatalf("missing json field %q in %s", key, data)
		}
	}
	if len(fields) != 10 {
		t.Fatalf("expected exactly 10 fields, got %d", len(fields))
	}
	if !strings.Contains(string(data), `"keyword_suggestions":[]`) {
		t.Fatalf("expected empty collections to encode as arrays: %s", data)
	}
}
