package server

import (
	"github.com/labstack/echo/v4"

	"github.com/nguyentranbao-ct/crm-assistant/internal/models"
	"github.com/nguyentranbao-ct/crm-assistant/internal/usecase"
)

type ActivityController interface {
	List(c echo.Context, query models.ActivityQuery) (*models.ActivityList, error)
	Create(c echo.Context, req models.CreateActivityRequest) (*models.ActivityResponse, error)
}

type activityController struct {
	activityUsecase usecase.ActivityUsecase
}

func NewActivityController(activityUsecase usecase.ActivityUsecase) ActivityController {
	return &activityController{activityUsecase: activityUsecase}
}

func (ac *activityController) List(c echo.Context, query models.ActivityQuery) (*models.ActivityList, error) {
	activities, err := ac.activityUsecase.List(c.Request().Context(), currentUser(c), query)
	if err != nil {
		return nil, err
	}
	return &models.ActivityList{Success: true, Activities: activities}, nil
}

// Create is mounted with optional auth; anonymous activities have no actor.
func (ac *activityController) Create(c echo.Context, req models.CreateActivityRequest) (*models.ActivityResponse, error) {
	activity, err := ac.activityUsecase.Create(c.Request().Context(), currentUser(c), req)
	if err != nil {
		return nil, err
	}
	return &models.ActivityResponse{Success: true, Activity: activity}, nil
}
