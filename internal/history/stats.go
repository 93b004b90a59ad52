package history

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

const (
	recentWindow      = 30 * 24 * time.Hour
	followUpHorizon   = 7 * 24 * time.Hour
	topCompaniesLimit = 5
)

// CompanyCount is the number of applications sent to one company.
type CompanyCount struct {
	Company string `json:"company" yaml:"company"`
	Count   int    `json:"count" yaml:"count"`
}

// DayCount is the number of applications sent on one calendar day.
type DayCount struct {
	Date  string `json:"date" yaml:"date"`
	Count int    `json:"count" yaml:"count"`
}

// Statistics summarises the tracked applications.
type Statistics struct {
	TotalApplications       int            `json:"total_applications" yaml:"total_applications"`
	StatusBreakdown         map[Status]int `json:"status_breakdown" yaml:"status_breakdown"`
	CompanyBreakdown        map[string]int `json:"company_breakdown" yaml:"company_breakdown"`
	ResponseRate            float64        `json:"response_rate" yaml:"response_rate"`
	InterviewRate           float64        `json:"interview_rate" yaml:"interview_rate"`
	OfferRate               float64        `json:"offer_rate" yaml:"offer_rate"`
	AverageResponseDays     float64        `json:"average_response_time_days" yaml:"average_response_time_days"`
	MostAppliedCompanies    []CompanyCount `json:"most_applied_companies" yaml:"most_applied_companies"`
	RecentApplicationsCount int            `json:"recent_applications_count" yaml:"recent_applications_count"`
	Timeline                []DayCount     `json:"application_timeline" yaml:"application_timeline"`
}

// UpcomingFollowUp pairs a pending follow-up with its application.
type UpcomingFollowUp struct {
	ApplicationID string   `json:"application_id" yaml:"application_id"`
	Company       string   `json:"company" yaml:"company"`
	Position      string   `json:"position" yaml:"position"`
	FollowUp      FollowUp `json:"follow_up" yaml:"follow_up"`
}

// Statistics computes rates and breakdowns as of now.
func (t *Tracker) Statistics(now time.Time) Statistics {
	return computeStatistics(t.snapshot(), now)
}

func computeStatistics(apps []*Application, now time.Time) Statistics {
	stats := Statistics{
		TotalApplications:    len(apps),
		StatusBreakdown:      map[Status]int{},
		CompanyBreakdown:     map[string]int{},
		MostAppliedCompanies: []CompanyCount{},
		Timeline:             []DayCount{},
	}
	if len(apps) == 0 {
		return stats
	}

	var (
		responseDays []float64
		perDay       = map[string]int{}
		cutoff       = now.Add(-recentWindow)
	)

	for _, app := range apps {
		stats.StatusBreakdown[app.Status]++
		stats.CompanyBreakdown[app.Company()]++

		if days, ok := responseTime(app); ok {
			responseDays = append(responseDays, days)
		}

		if !app.AppliedAt.Before(cutoff) {
			stats.RecentApplicationsCount++
			perDay[app.AppliedAt.Format(time.DateOnly)]++
		}
	}

	total := float64(len(apps))
	responded := stats.StatusBreakdown[StatusInterviewScheduled] +
		stats.StatusBreakdown[StatusInterviewCompleted] +
		stats.StatusBreakdown[StatusRejected] +
		stats.StatusBreakdown[StatusOfferReceived]
	interviews := stats.StatusBreakdown[StatusInterviewScheduled] + stats.StatusBreakdown[StatusInterviewCompleted]

	stats.ResponseRate = round1(float64(responded) / total * 100)
	stats.InterviewRate = round1(float64(interviews) / total * 100)
	stats.OfferRate = round1(float64(stats.StatusBreakdown[StatusOfferReceived]) / total * 100)

	if len(responseDays) > 0 {
		var sum float64
		for _, d := range responseDays {
			sum += d
		}
		stats.AverageResponseDays = round1(sum / float64(len(responseDays)))
	}

	for company, count := range stats.CompanyBreakdown {
		stats.MostAppliedCompanies = append(stats.MostAppliedCompanies, CompanyCount{Company: company, Count: count})
	}
	sort.Slice(stats.MostAppliedCompanies, func(i, j int) bool {
		a, b := stats.MostAppliedCompanies[i], stats.MostAppliedCompanies[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Company < b.Company
	})
	if len(stats.MostAppliedCompanies) > topCompaniesLimit {
		stats.MostAppliedCompanies = stats.MostAppliedCompanies[:topCompaniesLimit]
	}

	for day, count := range perDay {
		stats.Timeline = append(stats.Timeline, DayCount{Date: day, Count: count})
	}
	sort.Slice(stats.Timeline, func(i, j int) bool {
		return stats.Timeline[i].Date > stats.Timeline[j].Date
	})

	return stats
}

// responseTime is the number of days between the first recorded status and
// the first status that means the company answered.
func responseTime(app *Application) (float64, bool) {
	if len(app.StatusHistory) < 2 {
		return 0, false
	}
	start := app.StatusHistory[0].Date
	for _, change := range app.StatusHistory[1:] {
		switch change.Status {
		case StatusInterviewScheduled, StatusRejected, StatusOfferReceived:
			return change.Date.Sub(start).Hours() / 24, true
		}
	}
	return 0, false
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// UpcomingFollowUps returns pending follow-ups due within a week of now,
// overdue ones included, ordered by date.
func (t *Tracker) UpcomingFollowUps(now time.Time) []UpcomingFollowUp {
	horizon := now.Add(followUpHorizon)

	var upcoming []UpcomingFollowUp
	for _, app := range t.snapshot() {
		for _, fu := range app.FollowUps {
			if fu.Completed || fu.Date.After(horizon) {
				continue
			}
			upcoming = append(upcoming, UpcomingFollowUp{
				ApplicationID: app.ID,
				Company:       app.Company(),
				Position:      app.Position(),
				FollowUp:      fu,
			})
		}
	}

	sort.SliceStable(upcoming, func(i, j int) bool {
		return upcoming[i].FollowUp.Date.Before(upcoming[j].FollowUp.Date)
	})
	return upcoming
}

// Summary renders statistics and pending follow-ups as plain text.
func (t *Tracker) Summary(now time.Time) string {
	stats := t.Statistics(now)
	followUps := t.UpcomingFollowUps(now)

	var b strings.Builder
	b.WriteString("JOB APPLICATION SUMMARY\n")
	b.WriteString(strings.Repeat("=", 50) + "\n\n")

	fmt.Fprintf(&b, "Total applications: %d\n", stats.TotalApplications)
	fmt.Fprintf(&b, "Applications in the last 30 days: %d\n", stats.RecentApplicationsCount)
	fmt.Fprintf(&b, "Response rate: %.1f%%\n", stats.ResponseRate)
	fmt.Fprintf(&b, "Interview rate: %.1f%%\n", stats.InterviewRate)
	fmt.Fprintf(&b, "Offer rate: %.1f%%\n", stats.OfferRate)
	if stats.AverageResponseDays > 0 {
		fmt.Fprintf(&b, "Average response time: %.1f days\n", stats.AverageResponseDays)
	}

	b.WriteString("\nSTATUS BREAKDOWN:\n")
	for _, status := range Statuses {
		if n := stats.StatusBreakdown[status]; n > 0 {
			fmt.Fprintf(&b, "• %s: %d\n", status, n)
		}
	}

	if len(stats.MostAppliedCompanies) > 0 {
		b.WriteString("\nTOP COMPANIES:\n")
		for _, c := range stats.MostAppliedCompanies {
			fmt.Fprintf(&b, "• %s: %d\n", c.Company, c.Count)
		}
	}

	b.WriteString("\nUPCOMING FOLLOW-UPS:\n")
	if len(followUps) == 0 {
		b.WriteString("• none\n")
	}
	for _, fu := range followUps {
		fmt.Fprintf(&b, "• %s %s at %s (%s)",
			fu.FollowUp.Date.Format("2006-01-02 15:04"), fu.Position, fu.Company, valueOr(fu.FollowUp.Type, "follow-up"))
		if fu.FollowUp.Date.Before(now) {
			b.WriteString(" overdue")
		}
		b.WriteString("\n")
	}

	return b.String()
}
