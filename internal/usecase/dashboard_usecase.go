package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/nguyentranbao-ct/crm-assistant/internal/models"
	"github.com/nguyentranbao-ct/crm-assistant/internal/repo/mongodb"
	"github.com/nguyentranbao-ct/crm-assistant/pkg/tmplx"
	"github.com/nguyentranbao-ct/crm-assistant/pkg/util"
	"golang.org/x/sync/errgroup"
)

const (
	timelineDays         = 30
	dashboardCompanies   = 5
	dashboardTags        = 10
	companyNameRunes     = 15
	noCompanyLabel       = "No Company"
	dayLayout            = "2006-01-02"
	newContactsWindow    = 7 * 24 * time.Hour
	analyticsCompanies   = 10
	analyticsTopTags     = 5
	analyticsActivityDur = 7 * 24 * time.Hour
)

type DashboardUsecase interface {
	Get(ctx context.Context, owner *models.User) (*models.Dashboard, error)
	// Analytics is the snapshot the insight prompts are built from.
	Analytics(ctx context.Context, owner *models.User) (*models.Analytics, error)
}

type dashboardUsecase struct {
	contactRepo  mongodb.ContactRepository
	tagRepo      mongodb.TagRepository
	activityRepo mongodb.ActivityRepository
	now          func() time.Time
}

func NewDashboardUsecase(
	contactRepo mongodb.ContactRepository,
	tagRepo mongodb.TagRepository,
	activityRepo mongodb.ActivityRepository,
) DashboardUsecase {
	return &dashboardUsecase{
		contactRepo:  contactRepo,
		tagRepo:      tagRepo,
		activityRepo: activityRepo,
		now:          time.Now,
	}
}

func (uc *dashboardUsecase) Get(ctx context.Context, owner *models.User) (*models.Dashboard, error) {
	now := uc.now().UTC()
	today := now.Truncate(24 * time.Hour)
	firstDay := today.AddDate(0, 0, -(timelineDays - 1))

	var (
		dash      = &models.Dashboard{}
		companies []models.CompanyCount
		perDay    []models.DayCount
		tags      []*models.Tag
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() (err error) {
		dash.Stats.TotalContacts, err = uc.contactRepo.Count(egCtx, owner.ID)
		return err
	})
	eg.Go(func() (err error) {
		dash.Stats.NewContactsThisWeek, err = uc.contactRepo.CountSince(egCtx, owner.ID, now.Add(-newContactsWindow))
		return err
	})
	eg.Go(func() (err error) {
		dash.Stats.TotalActivities, err = uc.activityRepo.Count(egCtx, owner.ID)
		return err
	})
	eg.Go(func() (err error) {
		dash.Stats.ActiveTags, err = uc.tagRepo.CountActive(egCtx, owner.ID)
		return err
	})
	eg.Go(func() (err error) {
		companies, err = uc.contactRepo.CountByCompany(egCtx, owner.ID, dashboardCompanies)
		return err
	})
	eg.Go(func() (err error) {
		perDay, err = uc.activityRepo.CountPerDay(egCtx, owner.ID, firstDay)
		return err
	})
	eg.Go(func() (err error) {
		tags, err = uc.tagRepo.Top(egCtx, owner.ID, dashboardTags, 1)
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load dashboard: %w", err)
	}

	dash.ContactsByCompany = util.ConvertList(companies, func(c models.CompanyCount) models.CompanyCount {
		return models.CompanyCount{Company: companyLabel(c.Company, true), Count: c.Count}
	})
	dash.ActivityTimeline = buildTimeline(firstDay, perDay)
	dash.TagDistribution = util.ConvertList(tags, func(t *models.Tag) models.TagDistribution {
		return models.TagDistribution{Name: t.TagName, Value: t.UsageCount, Color: t.Color}
	})
	return dash, nil
}

func (uc *dashboardUsecase) Analytics(ctx context.Context, owner *models.User) (*models.Analytics, error) {
	now := uc.now().UTC()
	out := &models.Analytics{}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() (err error) {
		out.TotalContacts, err = uc.contactRepo.Count(egCtx, owner.ID)
		return err
	})
	eg.Go(func() (err error) {
		out.TotalActivities, err = uc.activityRepo.Count(egCtx, owner.ID)
		return err
	})
	eg.Go(func() (err error) {
		out.TotalTags, err = uc.tagRepo.Count(egCtx, owner.ID)
		return err
	})
	eg.Go(func() (err error) {
		out.ActivitiesLast7d, err = uc.activityRepo.CountSince(egCtx, owner.ID, now.Add(-analyticsActivityDur))
		return err
	})
	eg.Go(func() (err error) {
		out.TopTags, err = uc.tagRepo.Top(egCtx, owner.ID, analyticsTopTags, 0)
		return err
	})
	eg.Go(func() (err error) {
		out.ContactsByCompany, err = uc.contactRepo.CountByCompany(egCtx, owner.ID, analyticsCompanies)
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load analytics: %w", err)
	}

	for i, c := range out.ContactsByCompany {
		out.ContactsByCompany[i].Company = companyLabel(c.Company, false)
	}
	return out, nil
}

// companyLabel names the bucket of contacts without a company and, when
// short is set, cuts long names for chart labels.
func companyLabel(company string, short bool) string {
	if company == "" {
		return noCompanyLabel
	}
	if short {
		return tmplx.Truncate(companyNameRunes, company)
	}
	return company
}

// buildTimeline returns one point per day from firstDay through today,
// zero-filling the days without activity.
func buildTimeline(firstDay time.Time, perDay []models.DayCount) []models.TimelinePoint {
	counts := make(map[string]int64, len(perDay))
	for _, d := range perDay {
		counts[d.Day] = d.Count
	}
	points := make([]models.TimelinePoint, 0, timelineDays)
	for i := range timelineDays {
		day := firstDay.AddDate(0, 0, i)
		key := day.Format(dayLayout)
		points = append(points, models.TimelinePoint{
			Date:       key,
			Day:        day.Day(),
			Activities: counts[key],
		})
	}
	return points
}
