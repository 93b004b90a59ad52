package ai

import (
	"context"

	"github.com/spigell/jobtrail/internal/jobs"
)

// OptimizeRequest asks for an ATS-friendly rewrite of a CV.
type OptimizeRequest struct {
	CV              string
	JobDescription  string
	Recommendations []string
}

// CoverLetterRequest asks for a cover letter addressed to a posting.
type CoverLetterRequest struct {
	CV   string
	Job  jobs.Posting
	Tone string
}

// Writer produces text with a language model.
type Writer interface {
	OptimizeCV(ctx context.Context, req OptimizeRequest) (string, error)
	CoverLetter(ctx context.Context, req CoverLetterRequest) (string, error)
}
