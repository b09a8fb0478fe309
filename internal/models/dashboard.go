package models

type DashboardResponse struct {
	Success bool       `json:"success"`
	Data    *Dashboard `json:"data"`
}

type Dashboard struct {
	Stats             DashboardStats    `json:"stats"`
	ContactsByCompany []CompanyCount    `json:"contactsByCompany"`
	ActivityTimeline  []TimelinePoint   `json:"activityTimeline"`
	TagDistribution   []TagDistribution `json:"tagDistribution"`
}

type DashboardStats struct {
	TotalContacts       int64 `json:"totalContacts"`
	NewContactsThisWeek int64 `json:"newContactsThisWeek"`
	TotalActivities     int64 `json:"totalActivities"`
	ActiveTags          int64 `json:"activeTags"`
}

// CompanyCount is a group-by bucket. Company is empty for contacts with no
// company.
type CompanyCount struct {
	Company string `bson:"_id" json:"company"`
	Count   int64  `bson:"count" json:"contacts"`
}

// DayCount is a per-day bucket keyed by "2006-01-02".
type DayCount struct {
	Day   string `bson:"_id"`
	Count int64  `bson:"count"`
}

type TimelinePoint struct {
	Date       string `json:"date"`
	Day        int    `json:"day"`
	Activities int64  `json:"activities"`
}

type TagDistribution struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
	Color string `json:"color"`
}

type InsightType string

const (
	InsightSummary    InsightType = "insights"
	InsightActions    InsightType = "actions"
	InsightEngagement InsightType = "engagement"
)

type InsightRequest struct {
	Type        InsightType `json:"type" validate:"required,oneof=insights actions engagement"`
	ContactName string      `json:"contactName"`
}

type InsightReply struct {
	Success bool        `json:"success"`
	Type    InsightType `json:"type"`
	Content string      `json:"content"`
}

// Analytics is the aggregate snapshot used to prompt for insights.
type Analytics struct {
	TotalContacts     int64
	TotalActivities   int64
	TotalTags         int64
	ActivitiesLast7d  int64
	TopTags           []*Tag
	ContactsByCompany []CompanyCount
}
