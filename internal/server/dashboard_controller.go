package server

import (
	"github.com/labstack/echo/v4"

	"github.com/nguyentranbao-ct/crm-assistant/internal/models"
	"github.com/nguyentranbao-ct/crm-assistant/internal/usecase"
)

type DashboardController interface {
	Get(c echo.Context, req struct{}) (*models.DashboardResponse, error)
	Insights(c echo.Context, req models.InsightRequest) (*models.InsightReply, error)
}

type dashboardController struct {
	dashboardUsecase usecase.DashboardUsecase
	insightUsecase   usecase.InsightUsecase
}

func NewDashboardController(dashboardUsecase usecase.DashboardUsecase, insightUsecase usecase.InsightUsecase) DashboardController {
	return &dashboardController{
		dashboardUsecase: dashboardUsecase,
		insightUsecase:   insightUsecase,
	}
}

func (dc *dashboardController) Get(c echo.Context, _ struct{}) (*models.DashboardResponse, error) {
	dashboard, err := dc.dashboardUsecase.Get(c.Request().Context(), currentUser(c))
	if err != nil {
		return nil, err
	}
	return &models.DashboardResponse{Success: true, Data: dashboard}, nil
}

func (dc *dashboardController) Insights(c echo.Context, req models.InsightRequest) (*models.InsightReply, error) {
	return dc.insightUsecase.Generate(c.Request().Context(), currentUser(c), req)
}
