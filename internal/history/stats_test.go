package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/jobtrail/internal/jobs"
)

func TestStatisticsEmpty(t *testing.T) {
	tr, c := newTestTracker(t)

	stats := tr.Statistics(c.now)
	assert.Equal(t, 0, stats.TotalApplications)
	assert.Zero(t, stats.ResponseRate)
	assert.NotNil(t, stats.MostAppliedCompanies)
	assert.NotNil(t, stats.Timeline)
}

func TestStatistics(t *testing.T) {
	tr, c := newTestTracker(t)
	start := c.now

	add := func(company string) string {
		t.Helper()
		app, err := tr.Add(jobs.Posting{Company: company, Title: "Engineer"}, nil, "", "", nil)
		require.NoError(t, err)
		return app.ID
	}

	// Three applications on day one.
	a := add("Acme")
	b := add("Acme")
	d := add("Globex")

	// An old one outside the recent window.
	c.now = start.Add(-40 * 24 * time.Hour)
	add("Initech")
	c.now = start

	c.advance(36 * time.Hour)
	require.NoError(t, tr.UpdateStatus(a, StatusInterviewScheduled, ""))
	c.advance(12 * time.Hour)
	require.NoError(t, tr.UpdateStatus(b, StatusRejected, ""))
	require.NoError(t, tr.UpdateStatus(d, StatusWithdrawn, ""))
	c.advance(24 * time.Hour)
	require.NoError(t, tr.UpdateStatus(a, StatusOfferReceived, ""))

	stats := tr.Statistics(c.now)

	assert.Equal(t, 4, stats.TotalApplications)
	assert.Equal(t, 1, stats.StatusBreakdown[StatusOfferReceived])
	assert.Equal(t, 1, stats.StatusBreakdown[StatusRejected])
	assert.Equal(t, 1, stats.StatusBreakdown[StatusWithdrawn])
	assert.Equal(t, 1, stats.StatusBreakdown[StatusApplied])
	assert.Equal(t, 2, stats.CompanyBreakdown["Acme"])

	// Offer and Rejected count as responses.
	assert.Equal(t, 50.0, stats.ResponseRate)
	assert.Equal(t, 0.0, stats.InterviewRate)
	assert.Equal(t, 25.0, stats.OfferRate)
	// (1.5 + 2.0) / 2 days
	assert.Equal(t, 1.8, stats.AverageResponseDays)

	assert.Equal(t, 3, stats.RecentApplicationsCount)
	assert.Equal(t, []DayCount{{Date: "2025-03-10", Count: 3}}, stats.Timeline)

	require.Len(t, stats.MostAppliedCompanies, 3)
	assert.Equal(t, CompanyCount{Company: "Acme", Count: 2}, stats.MostAppliedCompanies[0])
	assert.Equal(t, "Globex", stats.MostAppliedCompanies[1].Company)
	assert.Equal(t, "Initech", stats.MostAppliedCompanies[2].Company)
}

func TestTopCompaniesLimit(t *testing.T) {
	tr, c := newTestTracker(t)
	for _, company := range []string{"A", "B", "C", "D", "E", "F", "F"} {
		_, err := tr.Add(jobs.Posting{Company: company}, nil, "", "", nil)
		require.NoError(t, err)
	}

	top := tr.Statistics(c.now).MostAppliedCompanies
	require.Len(t, top, 5)
	assert.Equal(t, "F", top[0].Company)
	assert.Equal(t, "A", top[1].Company)
}

func TestSummary(t *testing.T) {
	tr, c := newTestTracker(t)
	app, err := tr.Add(jobs.Posting{Company: "Acme", Title: "SRE"}, nil, "", "", nil)
	require.NoError(t, err)
	require.NoError(t, tr.AddFollowUp(app.ID, FollowUp{Date: c.now.Add(-time.Hour), Type: "email"}))

	summary := tr.Summary(c.now)
	for _, want := range []string{
		"JOB APPLICATION SUMMARY",
		"Total applications: 1",
		"Response rate: 0.0%",
		"• Applied: 1",
		"• Acme: 1",
		"SRE at Acme (email) overdue",
	} {
		assert.Contains(t, summary, want)
	}
}
