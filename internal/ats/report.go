package ats

import (
	"fmt"
	"strings"
	"time"
)

const (
	reportTitle           = "ATS OPTIMIZATION REPORT"
	maxReportKeywords     = 10
	maxReportRecommends   = 15
	reportTimestampLayout = "2006-01-02 15:04:05"
)

// ReportOptions carries the optional parts of a rendered report.
type ReportOptions struct {
	Company     string
	JobTitle    string
	OptimizedCV string
	GeneratedAt time.Time
}

// RenderReport renders the fixed-section text report for a result.
func RenderReport(r Result) string {
	return RenderReportWithOptions(r, ReportOptions{})
}

// RenderReportWithOptions renders the report and appends the target job, the
// optimized CV and a generation footer when they are provided.
func RenderReportWithOptions(r Result, opts ReportOptions) string {
	var b strings.Builder

	b.WriteString(reportTitle + "\n")
	b.WriteString(strings.Repeat("=", 50) + "\n\n")

	if target := targetLine(opts); target != "" {
		b.WriteString(target + "\n\n")
	}

	fmt.Fprintf(&b, "OVERALL SCORE: %d/100\n\n", r.OverallScore)

	b.WriteString("DETAILED SCORES:\n")
	fmt.Fprintf(&b, "• Contact Information: %d/100\n", r.ContactInfoScore)
	fmt.Fprintf(&b, "• Job Title Match: %d/100\n", r.JobTitleMatchScore)
	fmt.Fprintf(&b, "• Skill Matching: %d/100\n", r.SkillMatchScore)
	fmt.Fprintf(&b, "• Formatting: %d/100\n", r.FormattingScore)
	fmt.Fprintf(&b, "• Readability: %d/100\n", r.ReadabilityScore)
	fmt.Fprintf(&b, "• Web Presence: %d/100\n", r.WebPresenceScore)

	b.WriteString("\nMISSING ELEMENTS:\n")
	for _, issue := range r.MissingElements {
		fmt.Fprintf(&b, "• %s\n", issue)
	}

	b.WriteString("\nKEYWORD SUGGESTIONS:\n")
	for _, keyword := range head(r.KeywordSuggestions, maxReportKeywords) {
		fmt.Fprintf(&b, "• %s\n", keyword)
	}

	b.WriteString("\nRECOMMENDATIONS:\n")
	for i, rec := range head(r.Recommendations, maxReportRecommends) {
		fmt.Fprintf(&b, "%d. %s\n", i+1, rec)
	}

	if optimized := strings.TrimSpace(opts.OptimizedCV); optimized != "" {
		b.WriteString("\nOPTIMIZED CV CONTENT:\n")
		b.WriteString(optimized + "\n")
	}

	if !opts.GeneratedAt.IsZero() {
		b.WriteString("\n---\n")
		fmt.Fprintf(&b, "Report generated on: %s\n", opts.GeneratedAt.Format(reportTimestampLayout))
	}

	return b.String()
}

func targetLine(opts ReportOptions) string {
	title := strings.TrimSpace(opts.JobTitle)
	company := strings.TrimSpace(opts.Company)
	switch {
	case title != "" && company != "":
		return fmt.Sprintf("TARGET: %s at %s", title, company)
	case title != "":
		return "TARGET: " + title
	case company != "":
		return "TARGET: " + company
	default:
		return ""
	}
}
