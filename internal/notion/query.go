package notion

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
)

const queryPageSize = 100

// Row is a decoded database entry.
type Row struct {
	ID             string `mapstructure:"id"`
	Company        string `mapstructure:"Company"`
	Position       string `mapstructure:"Position"`
	Location       string `mapstructure:"Location"`
	Status         string `mapstructure:"Status"`
	AppliedDate    string `mapstructure:"Applied Date"`
	JobType        string `mapstructure:"Job Type"`
	Salary         string `mapstructure:"Salary"`
	Notes          string `mapstructure:"Notes"`
	InterviewDate  string `mapstructure:"Interview Date"`
	InterviewType  string `mapstructure:"Interview Type"`
	FollowUpDate   string `mapstructure:"Follow-up Date"`
	FollowUpType   string `mapstructure:"Follow-up Type"`
	FollowUpNotes  string `mapstructure:"Follow-up Notes"`
	JobDescription string `mapstructure:"Job Description"`
}

type queryResponse struct {
	Results    []rawPage `json:"results"`
	HasMore    bool      `json:"has_more"`
	NextCursor *string   `json:"next_cursor"`
}

type rawPage struct {
	ID         string                     `json:"id"`
	Properties map[string]rawPropertyItem `json:"properties"`
}

type rawPropertyItem struct {
	Type     string         `json:"type"`
	Title    []richTextItem `json:"title"`
	RichText []richTextItem `json:"rich_text"`
	Select   *struct {
		Name string `json:"name"`
	} `json:"select"`
	Date *struct {
		Start string `json:"start"`
	} `json:"date"`
	Number *float64 `json:"number"`
	URL    *string  `json:"url"`
}

type richTextItem struct {
	PlainText string `json:"plain_text"`
	Text      *struct {
		Content string `json:"content"`
	} `json:"text"`
}

// Query reads every row of the database following pagination cursors.
func (c *Client) Query(ctx context.Context) ([]Row, error) {
	var rows []Row
	var cursor string

	for {
		payload := map[string]any{"page_size": queryPageSize}
		if cursor != "" {
			payload["start_cursor"] = cursor
		}

		var resp queryResponse
		if err := c.do(ctx, http.MethodPost, "/v1/databases/"+c.databaseID+"/query", payload, &resp); err != nil {
			return nil, err
		}

		for _, p := range resp.Results {
			row, err := decodeRow(p)
			if err != nil {
				return nil, err
			}
			rows = append(rows, row)
		}

		if !resp.HasMore || resp.NextCursor == nil || *resp.NextCursor == "" {
			break
		}
		cursor = *resp.NextCursor
		c.logger.Debug("additional query page needed", zap.String("cursor", cursor))
	}

	return rows, nil
}

func decodeRow(p rawPage) (Row, error) {
	flat := map[string]any{"id": p.ID}
	for name, prop := range p.Properties {
		flat[name] = prop.value()
	}

	var row Row
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &row,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return Row{}, err
	}
	if err := decoder.Decode(flat); err != nil {
		return Row{}, fmt.Errorf("decode notion page %s: %w", p.ID, err)
	}
	return row, nil
}

func (p rawPropertyItem) value() any {
	switch p.Type {
	case "title":
		return joinText(p.Title)
	case "rich_text":
		return joinText(p.RichText)
	case "select":
		if p.Select != nil {
			return p.Select.Name
		}
	case "date":
		if p.Date != nil {
			return p.Date.Start
		}
	case "number":
		if p.Number != nil {
			return *p.Number
		}
	case "url":
		if p.URL != nil {
			return *p.URL
		}
	}
	return nil
}

func joinText(items []richTextItem) string {
	var b strings.Builder
	for _, item := range items {
		switch {
		case item.PlainText != "":
			b.WriteString(item.PlainText)
		case item.Text != nil:
			b.WriteString(item.Text.Content)
		}
	}
	return b.String()
}

// Analytics summarises the database.
type Analytics struct {
	TotalApplications int            `json:"total_applications"`
	StatusBreakdown   map[string]int `json:"status_breakdown"`
	UniqueCompanies   int            `json:"unique_companies"`
	UniquePositions   int            `json:"unique_positions"`
	Companies         []string       `json:"companies"`
	Positions         []string       `json:"positions"`
	ResponseRate      float64        `json:"response_rate"`
	InterviewRate     float64        `json:"interview_rate"`
}

// Analytics queries the database and computes status counts and rates.
func (c *Client) Analytics(ctx context.Context) (*Analytics, error) {
	rows, err := c.Query(ctx)
	if err != nil {
		return nil, err
	}

	a := summarize(rows)
	c.logger.Info("notion analytics generated", zap.Int("total_applications", a.TotalApplications))
	return a, nil
}

func summarize(rows []Row) *Analytics {
	a := &Analytics{
		TotalApplications: len(rows),
		StatusBreakdown:   map[string]int{},
		Companies:         []string{},
		Positions:         []string{},
	}

	companies := map[string]struct{}{}
	positions := map[string]struct{}{}
	for _, row := range rows {
		a.StatusBreakdown[valueOr(row.Status, "Unknown")]++
		if row.Company != "" {
			companies[row.Company] = struct{}{}
		}
		if row.Position != "" {
			positions[row.Position] = struct{}{}
		}
	}

	for company := range companies {
		a.Companies = append(a.Companies, company)
	}
	for position := range positions {
		a.Positions = append(a.Positions, position)
	}
	sort.Strings(a.Companies)
	sort.Strings(a.Positions)
	a.UniqueCompanies = len(a.Companies)
	a.UniquePositions = len(a.Positions)

	if len(rows) > 0 {
		total := float64(len(rows))
		responded := a.StatusBreakdown["Interview Scheduled"] + a.StatusBreakdown["Rejected"] + a.StatusBreakdown["Offer Received"]
		interviews := a.StatusBreakdown["Interview Scheduled"] + a.StatusBreakdown["Interview Completed"]
		a.ResponseRate = math.Round(float64(responded)/total*1000) / 10
		a.InterviewRate = math.Round(float64(interviews)/total*1000) / 10
	}
	return a
}

// FollowUp is a pending reminder read back from the database.
type FollowUp struct {
	PageID   string
	Company  string
	Position string
	Date     time.Time
	Type     string
}

// UpcomingFollowUps returns rows with a follow-up date no later than a week
// from now, ordered by date.
func (c *Client) UpcomingFollowUps(ctx context.Context, now time.Time) ([]FollowUp, error) {
	rows, err := c.Query(ctx)
	if err != nil {
		return nil, err
	}

	horizon := now.Add(7 * 24 * time.Hour)
	var result []FollowUp
	for _, row := range rows {
		if row.FollowUpDate == "" {
			continue
		}
		date, err := parseNotionDate(row.FollowUpDate)
		if err != nil {
			c.logger.Warn("skip follow-up with invalid date", zap.String("page_id", row.ID), zap.Error(err))
			continue
		}
		if date.After(horizon) {
			continue
		}
		result = append(result, FollowUp{
			PageID:   row.ID,
			Company:  row.Company,
			Position: row.Position,
			Date:     date,
			Type:     row.FollowUpType,
		})
	}

	sort.SliceStable(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })
	return result, nil
}

func parseNotionDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.ParseInLocation(time.DateOnly, s, time.Local)
}
