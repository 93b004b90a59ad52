package ats

import (
	"fmt"
	"slices"
	"strings"
)

// AnalyzeContact checks that the CV carries the contact details recruiters
// expect and subtracts a fixed penalty for each one that is missing.
func AnalyzeContact(cv string) AnalyzerResult {
	score := 100
	var issues []string
	lower := strings.ToLower(cv)

	if !emailPattern.MatchString(cv) {
		issues = append(issues, "Email address not found in resume")
		score -= 30
	}

	if !phonePattern.MatchString(cv) {
		issues = append(issues, "Phone number not found in resume")
		score -= 25
	}

	if !containsAny(lower, addressIndicators) {
		issues = append(issues, "Address not found in resume")
		score -= 20
	}

	if !linkedInPattern.MatchString(cv) {
		issues = append(issues, "LinkedIn profile URL not found")
		score -= 15
	}

	if !gitHubPattern.MatchString(cv) {
		issues = append(issues, "GitHub profile URL not found")
		score -= 10
	}

	return newResult(score, issues)
}

// AnalyzeJobTitle rates how well the CV reflects the target job title.
// Without a title there is nothing to miss and the score is 100.
func AnalyzeJobTitle(cv string, title *string) AnalyzerResult {
	if !present(title) {
		return newResult(100, nil)
	}

	score := 100
	var issues []string
	cvLower := strings.ToLower(cv)
	titleLower := strings.ToLower(strings.TrimSpace(*title))

	if !strings.Contains(cvLower, titleLower) {
		issues = append(issues, fmt.Sprintf("Job title '%s' not found in resume", strings.TrimSpace(*title)))
		score -= 40

		words := strings.Fields(titleLower)
		matches := 0
		for _, word := range words {
			if strings.Contains(cvLower, word) {
				matches++
			}
		}
		if matches > 0 {
			score += matches * 20 / len(words)
			issues = append(issues, fmt.Sprintf("Only %d/%d words from job title found", matches, len(words)))
		}
	}

	summary := ExtractSection(cv, "summary")
	if summary != "" && !strings.Contains(strings.ToLower(summary), titleLower) {
		issues = append(issues, "Job title not mentioned in summary section")
		score -= 15
	}

	return newResult(score, issues)
}

// AnalyzeSkills compares the skill vocabulary of the job description with the
// CV and checks the CV for quantified achievements.
func AnalyzeSkills(cv string, jobDescription *string) AnalyzerResult {
	if !present(jobDescription) {
		return newResult(100, nil)
	}

	score := 100
	var issues []string

	missing := missingSkills(ExtractSkills(*jobDescription), ExtractSkills(cv))
	if len(missing) > 0 {
		issues = append(issues, "Missing skills from job description: "+strings.Join(head(missing, maxListedMissingSkill), ", "))
		score -= min(50, len(missing)*5)
	}

	if count := countMeasurableResults(cv); count < minMeasurableResults {
		issues = append(issues, fmt.Sprintf("Only %d measurable results found (recommended: 5+)", count))
		score -= 10
	}

	return newResult(score, issues)
}

// AnalyzeFormatting flags layout constructs that ATS parsers handle poorly.
func AnalyzeFormatting(cv string) AnalyzerResult {
	score := 100
	var issues []string
	lower := strings.ToLower(cv)

	if !hasDate(cv) {
		issues = append(issues, "No properly formatted dates found")
		score -= 20
	}

	if strings.Contains(lower, "<table") || strings.Count(cv, "|") > maxPipeCharacters {
		issues = append(issues, "Tables detected - may not be ATS-friendly")
		score -= 15
	}

	if strings.Contains(lower, "<img") || strings.Contains(lower, "image") {
		issues = append(issues, "Images detected - not ATS-friendly")
		score -= 20
	}

	if strings.Contains(lower, "header") || strings.Contains(lower, "footer") {
		issues = append(issues, "Headers/footers detected - may cause ATS issues")
		score -= 10
	}

	found := 0
	for _, heading := range SectionHeadings {
		if strings.Contains(lower, heading) {
			found++
		}
	}
	if found < minStandardSections {
		issues = append(issues, fmt.Sprintf("Only %d standard sections found", found))
		score -= 15
	}

	return newResult(score, issues)
}

// AnalyzeReadability penalises long paragraphs and negative wording.
func AnalyzeReadability(cv string) AnalyzerResult {
	score := 100
	var issues []string

	var long []string
	for i, paragraph := range paragraphs(cv) {
		if words := len(strings.Fields(paragraph)); words > maxParagraphWords {
			long = append(long, fmt.Sprintf("Paragraph %d: %d words", i+1, words))
		}
	}
	if len(long) > 0 {
		issues = append(issues, "Long paragraphs found: "+strings.Join(head(long, maxListedParagraphs), ", "))
		score -= min(30, len(long)*5)
	}

	lower := strings.ToLower(cv)
	var negative []string
	for _, phrase := range negativePhrases {
		if strings.Contains(lower, phrase) {
			negative = append(negative, phrase)
		}
	}
	if len(negative) > 0 {
		issues = append(issues, "Negative phrases found: "+strings.Join(negative, ", "))
		score -= 15
	}

	return newResult(score, issues)
}

// AnalyzeWebPresence checks for professional profile links and the e-mail domain.
func AnalyzeWebPresence(cv string) AnalyzerResult {
	score := 100
	var issues []string

	if !linkedInPattern.MatchString(cv) {
		issues = append(issues, "LinkedIn profile URL not found")
		score -= 30
	}

	if !gitHubPattern.MatchString(cv) {
		issues = append(issues, "GitHub profile URL not found")
		score -= 25
	}

	if !portfolioURLPattern.MatchString(cv) && !containsAny(strings.ToLower(cv), portfolioWords) {
		issues = append(issues, "Portfolio website not found")
		score -= 20
	}

	if email := emailPattern.FindString(cv); email != "" {
		domain := email[strings.LastIndex(email, "@")+1:]
		if slices.Contains(personalEmailDomains, strings.ToLower(domain)) {
			issues = append(issues, fmt.Sprintf("Consider using a professional email domain instead of %s", domain))
			score -= 10
		}
	}

	return newResult(score, issues)
}

// ExtractSection returns the lines between a heading equal to name and the
// next standard heading. It returns an empty string when the heading is absent.
func ExtractSection(cv, name string) string {
	name = strings.ToLower(strings.TrimSpace(name))

	var lines []string
	inSection := false
	for _, line := range strings.Split(cv, "\n") {
		normalized := strings.ToLower(strings.TrimSpace(line))
		switch {
		case normalized == name:
			inSection = true
		case inSection && slices.Contains(SectionHeadings, normalized):
			return strings.Join(lines, "\n")
		case inSection:
			lines = append(lines, line)
		}
	}

	return strings.Join(lines, "\n")
}

// ExtractSkills returns the vocabulary skills mentioned in text, ordered by
// pattern and then by position. Duplicates are dropped case-insensitively and
// the first spelling seen wins.
func ExtractSkills(text string) []string {
	seen := make(map[string]struct{})
	skills := make([]string, 0)
	for _, pattern := range skillPatterns {
		for _, match := range pattern.FindAllString(text, -1) {
			key := strings.ToLower(match)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			skills = append(skills, match)
		}
	}
	return skills
}

func missingSkills(jobSkills, cvSkills []string) []string {
	var missing []string
	for _, skill := range jobSkills {
		needle := strings.ToLower(skill)
		found := false
		for _, cvSkill := range cvSkills {
			if strings.Contains(strings.ToLower(cvSkill), needle) {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, skill)
		}
	}
	return missing
}

func countMeasurableResults(cv string) int {
	count := 0
	for _, pattern := range measurablePatterns {
		count += len(pattern.FindAllStringIndex(cv, -1))
	}
	return count
}

func hasDate(cv string) bool {
	for _, pattern := range datePatterns {
		if pattern.MatchString(cv) {
			return true
		}
	}
	return false
}

func paragraphs(cv string) []string {
	var result []string
	for _, p := range strings.Split(cv, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			result = append(result, p)
		}
	}
	return result
}

func containsAny(s string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(s, needle) {
			return true
		}
	}
	return false
}

func head(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}
