package cycle

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/spigell/jobtrail/internal/ats"
)

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// saveArtifacts writes the CV, cover letter and report into dir and returns
// their paths keyed by kind.
func saveArtifacts(dir string, now time.Time, s *State) (map[string]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	suffix := fileSuffix(s.Posting.Company, s.Posting.Title, now)
	files := map[string]string{}

	write := func(kind, prefix, content string) error {
		if strings.TrimSpace(content) == "" {
			return nil
		}
		path := filepath.Join(dir, prefix+"_"+suffix+".txt")
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", kind, err)
		}
		files[kind] = path
		return nil
	}

	if err := write("txt", "cv", s.FinalCV()); err != nil {
		return nil, err
	}
	if err := write("cover_letter", "cover_letter", s.CoverLetter); err != nil {
		return nil, err
	}
	if s.Result != nil {
		report := ats.RenderReportWithOptions(*s.Result, ats.ReportOptions{
			Company:     s.Posting.Company,
			JobTitle:    s.Posting.Title,
			OptimizedCV: s.OptimizedCV,
			GeneratedAt: now,
		})
		if err := write("report", "ats_report", report); err != nil {
			return nil, err
		}
	}

	return files, nil
}

func fileSuffix(company, title string, now time.Time) string {
	parts := []string{}
	for _, p := range []string{company, title} {
		if p = strings.Trim(unsafeFileChars.ReplaceAllString(strings.TrimSpace(p), "_"), "_"); p != "" {
			parts = append(parts, p)
		}
	}
	parts = append(parts, now.Format("20060102_150405"))
	return strings.Join(parts, "_")
}
