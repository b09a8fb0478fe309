package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nguyentranbao-ct/crm-assistant/internal/models"
)

func TestDashboard(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	now := time.Date(2024, 3, 31, 15, 0, 0, 0, time.UTC)

	contacts := NewContactUsecase(f.contacts, f.tags, f.activityUC).(*contactUsecase)
	contacts.now = func() time.Time { return now.AddDate(0, 0, -10) }
	for _, req := range []models.CreateContactRequest{
		{Name: "A", Email: "a@example.com", Company: "International Business Machines", Tags: []string{"vip"}},
		{Name: "B", Email: "b@example.com", Company: "International Business Machines", Tags: []string{"vip"}},
		{Name: "C", Email: "c@example.com"},
	} {
		_, err := contacts.Create(ctx, f.owner, req)
		require.NoError(t, err)
	}
	contacts.now = func() time.Time { return now }
	_, err := contacts.Create(ctx, f.owner, models.CreateContactRequest{Name: "D", Email: "d@example.com", Company: "Acme", Tags: []string{"new"}})
	require.NoError(t, err)
	_, err = f.tagUC().Create(ctx, f.owner, models.CreateTagRequest{TagName: "idle"})
	require.NoError(t, err)

	for _, ts := range []time.Time{now, now.Add(-time.Hour), now.AddDate(0, 0, -29), now.AddDate(0, 0, -45)} {
		require.NoError(t, f.activities.Insert(ctx, &models.Activity{User: &f.owner.ID, Action: models.ActionView, EntityType: models.EntityContact, Timestamp: ts}))
	}

	uc := NewDashboardUsecase(f.contacts, f.tags, f.activities).(*dashboardUsecase)
	uc.now = func() time.Time { return now }
	dash, err := uc.Get(ctx, f.owner)
	require.NoError(t, err)

	assert.Equal(t, models.DashboardStats{
		TotalContacts:       4,
		NewContactsThisWeek: 1,
		TotalActivities:     int64(len(f.activities.ofUser(f.owner.ID))),
		ActiveTags:          2,
	}, dash.Stats)

	assert.Equal(t, []models.CompanyCount{
		{Company: "International B...", Count: 2},
		{Company: "No Company", Count: 1},
		{Company: "Acme", Count: 1},
	}, dash.ContactsByCompany)

	require.Len(t, dash.ActivityTimeline, 30)
	first, last := dash.ActivityTimeline[0], dash.ActivityTimeline[29]
	assert.Equal(t, "2024-03-02", first.Date)
	assert.Equal(t, 2, first.Day)
	assert.Equal(t, "2024-03-31", last.Date)
	assert.Equal(t, 31, last.Day)
	assert.Equal(t, int64(1), first.Activities)
	assert.GreaterOrEqual(t, last.Activities, int64(2))
	assert.Equal(t, int64(0), dash.ActivityTimeline[15].Activities)

	assert.Equal(t, []models.TagDistribution{
		{Name: "vip", Value: 2, Color: models.DefaultTagColor},
		{Name: "new", Value: 1, Color: models.DefaultTagColor},
	}, dash.TagDistribution)
}

func TestAnalytics(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	createContact(t, f, "a@example.com", "vip")
	createContact(t, f, "b@example.com", "vip", "lead")

	analytics, err := NewDashboardUsecase(f.contacts, f.tags, f.activities).Analytics(ctx, f.owner)
	require.NoError(t, err)
	assert.Equal(t, int64(2), analytics.TotalContacts)
	assert.Equal(t, int64(2), analytics.TotalTags)
	assert.Equal(t, int64(2), analytics.ActivitiesLast7d)
	require.Len(t, analytics.TopTags, 2)
	assert.Equal(t, "vip", analytics.TopTags[0].TagName)
	assert.Equal(t, []models.CompanyCount{{Company: "No Company", Count: 2}}, analytics.ContactsByCompany)
}
