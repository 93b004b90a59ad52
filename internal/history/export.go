package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Export formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatXLSX = "xlsx"
)

const exportTimestampLayout = "20060102_150405"

// exportDocument is what json and yaml exports contain.
type exportDocument struct {
	ExportedAt   time.Time      `json:"exported_at" yaml:"exported_at"`
	Statistics   Statistics     `json:"statistics" yaml:"statistics"`
	Applications []*Application `json:"applications" yaml:"applications"`
}

// Export writes the full history to path in the given format and returns the
// written location. An empty path yields a timestamped name in the current
// directory.
func (t *Tracker) Export(path, format string) (string, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = FormatJSON
	}
	if format == "yml" {
		format = FormatYAML
	}

	now := t.now()
	if strings.TrimSpace(path) == "" {
		path = fmt.Sprintf("job_application_history_export_%s.%s", now.Format(exportTimestampLayout), format)
	}

	apps := t.snapshot()
	sortNewestFirst(apps)
	doc := exportDocument{
		ExportedAt:   now,
		Statistics:   computeStatistics(apps, now),
		Applications: apps,
	}

	var err error
	switch format {
	case FormatJSON:
		err = exportJSON(path, doc)
	case FormatYAML:
		err = exportYAML(path, doc)
	case FormatXLSX:
		err = exportXLSX(path, doc)
	default:
		return "", fmt.Errorf("unsupported export format %q (use json, yaml or xlsx)", format)
	}
	if err != nil {
		return "", err
	}

	t.logger.Info("history exported", zap.String("path", path), zap.String("format", format))
	return path, nil
}

func createExportFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create export directory: %w", err)
		}
	}
	return os.Create(path)
}

func exportJSON(path string, doc exportDocument) error {
	file, err := createExportFile(path)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode json export: %w", err)
	}
	return file.Close()
}

func exportYAML(path string, doc exportDocument) error {
	file, err := createExportFile(path)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := yaml.NewEncoder(file)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode yaml export: %w", err)
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return file.Close()
}

var applicationColumns = []string{
	"ID", "Applied", "Company", "Position", "Location", "Status",
	"ATS Score", "Interviews", "Pending Follow-ups", "Notion Page", "URL", "Notes",
}

func exportXLSX(path string, doc exportDocument) error {
	f := excelize.NewFile()
	defer f.Close()

	const (
		summarySheet = "Summary"
		appsSheet    = "Applications"
	)

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(appsSheet); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
	})
	if err != nil {
		return err
	}

	if err := writeSummarySheet(f, summarySheet, headerStyle, doc); err != nil {
		return fmt.Errorf("write summary sheet: %w", err)
	}
	if err := writeApplicationsSheet(f, appsSheet, headerStyle, doc.Applications); err != nil {
		return fmt.Errorf("write applications sheet: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create export directory: %w", err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save xlsx export: %w", err)
	}
	return nil
}

func writeSummarySheet(f *excelize.File, sheet string, headerStyle int, doc exportDocument) error {
	stats := doc.Statistics

	rows := [][]any{
		{"Metric", "Value"},
		{"Exported", doc.ExportedAt.Format("2006-01-02 15:04:05")},
		{"Total applications", stats.TotalApplications},
		{"Applications in the last 30 days", stats.RecentApplicationsCount},
		{"Response rate, %", stats.ResponseRate},
		{"Interview rate, %", stats.InterviewRate},
		{"Offer rate, %", stats.OfferRate},
		{"Average response time, days", stats.AverageResponseDays},
	}
	for _, status := range Statuses {
		rows = append(rows, []any{"Status: " + string(status), stats.StatusBreakdown[status]})
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	if err := f.SetCellStyle(sheet, "A1", "B1", headerStyle); err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", "A", 35)
}

func writeApplicationsSheet(f *excelize.File, sheet string, headerStyle int, apps []*Application) error {
	header := make([]any, len(applicationColumns))
	for i, col := range applicationColumns {
		header[i] = col
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	lastHeader, err := excelize.CoordinatesToCellName(len(applicationColumns), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", lastHeader, headerStyle); err != nil {
		return err
	}

	for i, app := range apps {
		score := ""
		if app.ATS != nil {
			score = fmt.Sprintf("%d", app.ATS.OverallScore)
		}

		pending := 0
		for _, fu := range app.FollowUps {
			if !fu.Completed {
				pending++
			}
		}

		row := []any{
			app.ID,
			app.AppliedAt.Format("2006-01-02 15:04"),
			app.Company(),
			app.Position(),
			app.Job.Location,
			string(app.Status),
			score,
			len(app.Interviews),
			pending,
			app.NotionPageID,
			app.Job.URL,
			app.Notes,
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	return f.SetColWidth(sheet, "A", "D", 28)
}
