package gemini

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/spigell/jobtrail/internal/ai"
	"github.com/spigell/jobtrail/internal/jobs"
)

type stubGenerator struct {
	response   string
	err        error
	lastSystem string
	lastPrompt string
}

func (s *stubGenerator) GenerateContent(_ context.Context, system, prompt string) (string, error) {
	s.lastSystem = system
	s.lastPrompt = prompt
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func TestWriterOptimizeCV(t *testing.T) {
	stub := &stubGenerator{response: "```text\nJane Doe\nSummary\n```"}
	w := NewWriter(stub, zap.NewNop(), 0)

	out, err := w.OptimizeCV(context.Background(), ai.OptimizeRequest{
		CV:              "Jane Doe",
		JobDescription:  "Go, Kubernetes",
		Recommendations: []string{"Add a phone number", "Use standard headings"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "Jane Doe\nSummary" {
		t.Fatalf("expected fences to be stripped, got %q", out)
	}

	if stub.lastSystem != optimizeSystem {
		t.Fatalf("unexpected system instruction: %q", stub.lastSystem)
	}
	for _, want := range []string{"Jane Doe", "Go, Kubernetes", "- Add a phone number\n- Use standard headings"} {
		if !strings.Contains(stub.lastPrompt, want) {
			t.Fatalf("expected %q in prompt:\n%s", want, stub.lastPrompt)
		}
	}
	if strings.Contains(stub.lastPrompt, "{{") {
		t.Fatalf("unreplaced placeholder in prompt:\n%s", stub.lastPrompt)
	}
}

func TestWriterOptimizeCVDefaults(t *testing.T) {
	stub := &stubGenerator{response: "ok"}
	w := NewWriter(stub, nil, 0)

	if _, err := w.OptimizeCV(context.Background(), ai.OptimizeRequest{CV: "cv"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stub.lastPrompt, "Job Description:\nNot provided") {
		t.Fatalf("expected placeholder job description:\n%s", stub.lastPrompt)
	}
	if !strings.Contains(stub.lastPrompt, "- none") {
		t.Fatalf("expected empty recommendations marker")
	}
}

func TestWriterCoverLetter(t *testing.T) {
	stub := &stubGenerator{response: "Dear Hiring Manager"}
	w := NewWriter(stub, zap.NewNop(), 10)

	out, err := w.CoverLetter(context.Background(), ai.CoverLetterRequest{
		CV:  "Jane Doe, Go engineer",
		Job: jobs.Posting{Title: "SRE", Company: "Acme"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "Dear Hiring Manager" {
		t.Fatalf("unexpected letter: %q", out)
	}
	for _, want := range []string{"Job Title: SRE", "Company: Acme", "Location: Not provided", "Tone: Professional"} {
		if !strings.Contains(stub.lastPrompt, want) {
			t.Fatalf("expected %q in prompt:\n%s", want, stub.lastPrompt)
		}
	}
}

func TestWriterErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		stub *stubGenerator
		cv   string
	}{
		{name: "empty cv", stub: &stubGenerator{response: "ok"}, cv: " "},
		{name: "generator failure", stub: &stubGenerator{err: errors.New("boom")}, cv: "cv"},
		{name: "blank response", stub: &stubGenerator{response: "```\n```"}, cv: "cv"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			w := NewWriter(tc.stub, zap.NewNop(), 0)
			if _, err := w.OptimizeCV(context.Background(), ai.OptimizeRequest{CV: tc.cv}); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
