package notion

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spigell/jobtrail/internal/utils"
)

// Notion rejects rich text longer than this.
const richTextLimit = 2000

type properties map[string]any

func textObject(content string) []map[string]any {
	return []map[string]any{{
		"text": map[string]any{"content": utils.TruncateRunes(content, richTextLimit)},
	}}
}

func (p properties) title(name, value string) {
	p[name] = map[string]any{"title": textObject(value)}
}

func (p properties) richText(name, value string) {
	p[name] = map[string]any{"rich_text": textObject(value)}
}

func (p properties) selectOption(name, value string) {
	p[name] = map[string]any{"select": map[string]any{"name": value}}
}

// date stores a calendar date, or a timestamp when the time of day is set.
func (p properties) date(name string, t time.Time) {
	start := t.Format(time.DateOnly)
	if h, m, s := t.Clock(); h != 0 || m != 0 || s != 0 {
		start = t.Format(time.RFC3339)
	}
	p[name] = map[string]any{"date": map[string]any{"start": start}}
}

// formatFileLinks renders "PDF: cv.pdf | TXT: cv.txt" for known document kinds.
func formatFileLinks(files map[string]string) string {
	kinds := make([]string, 0, len(files))
	for kind := range files {
		switch strings.ToLower(kind) {
		case "pdf", "docx", "txt":
			kinds = append(kinds, kind)
		}
	}
	sort.Strings(kinds)

	links := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		links = append(links, fmt.Sprintf("%s: %s", strings.ToUpper(kind), filepath.Base(files[kind])))
	}
	return strings.Join(links, " | ")
}
