package ats

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestRenderReportSections(t *testing.T) {
	report := RenderReport(Score(NewInput("", "web developer: React", "", "")))

	headers := []string{
		"ATS OPTIMIZATION REPORT",
		"OVERALL SCORE:",
		"DETAILED SCORES:",
		"MISSING ELEMENTS:",
		"KEYWORD SUGGESTIONS:",
		"RECOMMENDATIONS:",
	}

	last := -1
	for _, header := range headers {
		idx := strings.Index(report, header)
		if idx == -1 {
			t.Fatalf("header %q not found in report:\n%s", header, report)
		}
		if idx < last {
			t.Fatalf("header %q is out of order", header)
		}
		last = idx
	}

	if !strings.Contains(report, "• Contact Information: 0/100") {
		t.Fatalf("expected contact score line, got:\n%s", report)
	}
	if strings.Contains(report, "OPTIMIZED CV CONTENT") || strings.Contains(report, "Report generated on") {
		t.Fatalf("optional sections must be omitted by default")
	}
}

func TestRenderReportLimits(t *testing.T) {
	r := Result{}
	for i := 0; i < 20; i++ {
		r.Recommendations = append(r.Recommendations, fmt.Sprintf("rec-%d", i))
		r.KeywordSuggestions = append(r.KeywordSuggestions, fmt.Sprintf("kw-%d", i))
	}

	report := RenderReport(r)

	if !strings.Contains(report, "15. rec-14") || strings.Contains(report, "16. rec-15") {
		t.Fatalf("expected recommendations capped at 15:\n%s", report)
	}
	if !strings.Contains(report, "• kw-9\n") || strings.Contains(report, "kw-10") {
		t.Fatalf("expected keywords capped at 10:\n%s", report)
	}
}

func TestRenderReportWithOptions(t *testing.T) {
	generated := time.Date(2025, 3, 1, 14, 30, 0, 0, time.UTC)
	report := RenderReportWithOptions(Result{OverallScore: 77}, ReportOptions{
		Company:     "Acme",
		JobTitle:    "Go Engineer",
		OptimizedCV: "  Rewritten CV  ",
		GeneratedAt: generated,
	})

	for _, want := range []string{
		"TARGET: Go Engineer at Acme",
		"OVERALL SCORE: 77/100",
		"OPTIMIZED CV CONTENT:\nRewritten CV\n",
		"Report generated on: 2025-03-01 14:30:00",
	} {
		if !strings.Contains(report, want) {
			t.Fatalf("expected %q in report:\n%s", want, report)
		}
	}
}
