package ats

import (
	"reflect"
	"strings"
	"testing"
)

func strPtr(s string) *string { return &s }

func TestAnalyzeContact(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		cv         string
		wantScore  int
		wantIssues int
	}{
		{
			name:      "all elements present",
			cv:        "John Doe, john@example.com, +1-555-123-4567, New York City, linkedin.com/in/johndoe, github.com/johndoe",
			wantScore: 100,
		},
		{
			name:       "nothing present",
			cv:         "",
			wantScore:  0,
			wantIssues: 5,
		},
		{
			name:       "only email and phone",
			cv:         "jane@acme.io 555.123.4567",
			wantScore:  55,
			wantIssues: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := AnalyzeContact(tt.cv)
			if got.Score != tt.wantScore {
				t.Fatalf("expected score %d, got %d (issues: %v)", tt.wantScore, got.Score, got.Issues)
			}
			if len(got.Issues) != tt.wantIssues {
				t.Fatalf("expected %d issues, got %v", tt.wantIssues, got.Issues)
			}
		})
	}
}

func TestAnalyzeContactIssueOrder(t *testing.T) {
	got := AnalyzeContact("nothing useful")
	want := []string{
		"Email address not found in resume",
		"Phone number not found in resume",
		"Address not found in resume",
		"LinkedIn profile URL not found",
		"GitHub profile URL not found",
	}
	if !reflect.DeepEqual(got.Issues, want) {
		t.Fatalf("unexpected issues: %v", got.Issues)
	}
}

func TestAnalyzeContactAddingEmailNeverLowersScore(t *testing.T) {
	base := "Jane Roe, 555-123-4567, Main Street"
	without := AnalyzeContact(base)
	with := AnalyzeContact(base + ", jane@roe.dev")
	if with.Score <= without.Score {
		t.Fatalf("expected email to increase score: without=%d with=%d", without.Score, with.Score)
	}
}

func TestAnalyzeJobTitle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		cv         string
		title      *string
		wantScore  int
		wantIssues []string
	}{
		{
			name:      "no title requested",
			cv:        "anything",
			title:     nil,
			wantScore: 100,
		},
		{
			name:      "blank title is absent",
			cv:        "anything",
			title:     strPtr("   "),
			wantScore: 100,
		},
		{
			name:      "exact title present",
			cv:        "I am a senior product manager.",
			title:     strPtr("Senior Product Manager"),
			wantScore: 100,
		},
		{
			name:  "no words and summary without title",
			cv:    "Summary\nBackend engineer building payment services.\nExperience\nAcme Corp 2019",
			title: strPtr("Senior Product Manager"),
			wantIssues: []string{
				"Job title 'Senior Product Manager' not found in resume",
				"Job title not mentioned in summary section",
			},
			wantScore: 45,
		},
		{
			name:  "partial word credit is floored",
			cv:    "Go engineer",
			title: strPtr("Senior Go Engineer"),
			wantIssues: []string{
				"Job title 'Senior Go Engineer' not found in resume",
				"Only 2/3 words from job title found",
			},
			wantScore: 73,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := AnalyzeJobTitle(tt.cv, tt.title)
			if got.Score != tt.wantScore {
				t.Fatalf("expected score %d, got %d (issues: %v)", tt.wantScore, got.Score, got.Issues)
			}
			if len(tt.wantIssues) > 0 && !reflect.DeepEqual(got.Issues, tt.wantIssues) {
				t.Fatalf("unexpected issues: %v", got.Issues)
			}
		})
	}
}

func TestAnalyzeSkills(t *testing.T) {
	t.Parallel()

	t.Run("no job description", func(t *testing.T) {
		t.Parallel()
		got := AnalyzeSkills("React", nil)
		if got.Score != 100 || len(got.Issues) != 0 {
			t.Fatalf("expected untouched score, got %+v", got)
		}
	})

	t.Run("missing skills and few measurable results", func(t *testing.T) {
		t.Parallel()
		got := AnalyzeSkills("Built apps with React", strPtr("We need React, Node.js, MongoDB"))
		if got.Score != 80 {
			t.Fatalf("expected score 80, got %d (%v)", got.Score, got.Issues)
		}
		want := []string{
			"Missing skills from job description: Node.js, MongoDB",
			"Only 0 measurable results found (recommended: 5+)",
		}
		if !reflect.DeepEqual(got.Issues, want) {
			t.Fatalf("unexpected issues: %v", got.Issues)
		}
	})

	t.Run("enough measurable results", func(t *testing.T) {
		t.Parallel()
		cv := "React. Grew revenue 20%, cut costs 15%, mentored 5+ people, saved $300, shipped in 10 months"
		got := AnalyzeSkills(cv, strPtr("We need React, Node.js, MongoDB"))
		if got.Score != 90 {
			t.Fatalf("expected score 90, got %d (%v)", got.Score, got.Issues)
		}
	})

	t.Run("missing skill penalty is capped", func(t *testing.T) {
		t.Parallel()
		jd := "JavaScript Python Java PHP Ruby Swift Kotlin React Angular Vue Django Flask Laravel"
		got := AnalyzeSkills("", strPtr(jd))
		if got.Score != 40 {
			t.Fatalf("expected score 40, got %d", got.Score)
		}
		if !strings.HasSuffix(got.Issues[0], "JavaScript, Python, Java, PHP, Ruby") {
			t.Fatalf("expected first five missing skills, got %q", got.Issues[0])
		}
	})
}

func TestAnalyzeFormatting(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		cv        string
		wantScore int
	}{
		{
			name:      "clean layout",
			cv:        "Summary\nExperience 03/2020\nEducation\nSkills",
			wantScore: 100,
		},
		{
			name:      "every problem",
			cv:        "<table><img src=x> header",
			wantScore: 20,
		},
		{
			name:      "pipes only count above ten",
			cv:        "summary experience education skills Jan 2020 | | | | | | | | | |",
			wantScore: 100,
		},
		{
			name:      "eleven pipes look like a table",
			cv:        "summary experience education skills Jan 2020 | | | | | | | | | | |",
			wantScore: 85,
		},
		{
			name:      "full month name",
			cv:        "summary experience education skills september 2021",
			wantScore: 100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := AnalyzeFormatting(tt.cv)
			if got.Score != tt.wantScore {
				t.Fatalf("expected score %d, got %d (issues: %v)", tt.wantScore, got.Score, got.Issues)
			}
		})
	}
}

func TestAnalyzeReadability(t *testing.T) {
	t.Parallel()

	short := strings.Repeat("Shipped a feature on time.\n\n", 6)
	long := strings.TrimSpace(strings.Repeat("word ", 41))

	tests := []struct {
		name       string
		cv         string
		wantScore  int
		wantIssues []string
	}{
		{
			name:      "six short paragraphs",
			cv:        short,
			wantScore: 100,
		},
		{
			name:       "one long paragraph",
			cv:         "Intro\n\n" + long,
			wantScore:  95,
			wantIssues: []string{"Long paragraphs found: Paragraph 2: 41 words"},
		},
		{
			name:       "negative phrases flat penalty",
			cv:         "Failed twice and felt weak.",
			wantScore:  85,
			wantIssues: []string{"Negative phrases found: failed, weak"},
		},
		{
			name:      "long paragraph penalty capped",
			cv:        strings.Repeat(long+"\n\n", 8),
			wantScore: 70,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := AnalyzeReadability(tt.cv)
			if got.Score != tt.wantScore {
				t.Fatalf("expected score %d, got %d (issues: %v)", tt.wantScore, got.Score, got.Issues)
			}
			if tt.wantIssues != nil && !reflect.DeepEqual(got.Issues, tt.wantIssues) {
				t.Fatalf("unexpected issues: %v", got.Issues)
			}
		})
	}
}

func TestAnalyzeWebPresence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		cv        string
		wantScore int
		wantIssue string
	}{
		{
			name:      "complete presence",
			cv:        "me@me.dev linkedin.com/in/me github.com/me https://me.dev",
			wantScore: 100,
		},
		{
			name:      "personal mail domain",
			cv:        "me@Gmail.com linkedin.com/in/me github.com/me portfolio",
			wantScore: 90,
			wantIssue: "Consider using a professional email domain instead of Gmail.com",
		},
		{
			name:      "nothing at all",
			cv:        "",
			wantScore: 25,
			wantIssue: "Portfolio website not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := AnalyzeWebPresence(tt.cv)
			if got.Score != tt.wantScore {
				t.Fatalf("expected score %d, got %d (issues: %v)", tt.wantScore, got.Score, got.Issues)
			}
			if tt.wantIssue != "" && got.Issues[len(got.Issues)-1] != tt.wantIssue {
				t.Fatalf("expected last issue %q, got %v", tt.wantIssue, got.Issues)
			}
		})
	}
}

func TestExtractSection(t *testing.T) {
	cv := "Jane\nSUMMARY \nBuilds things.\nLikes Go.\nExperience\nAcme"
	if got := ExtractSection(cv, "summary"); got != "Builds things.\nLikes Go." {
		t.Fatalf("unexpected section: %q", got)
	}
	if got := ExtractSection(cv, "projects"); got != "" {
		t.Fatalf("expected empty section, got %q", got)
	}
}

func TestExtractSkills(t *testing.T) {
	got := ExtractSkills("python, Python, react and CI/CD")
	want := []string{"python", "react", "CI/CD"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}
