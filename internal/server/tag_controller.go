package server

import (
	"github.com/labstack/echo/v4"

	"github.com/nguyentranbao-ct/crm-assistant/internal/models"
	"github.com/nguyentranbao-ct/crm-assistant/internal/usecase"
)

type TagController interface {
	List(c echo.Context, req struct{}) (*models.TagList, error)
	Create(c echo.Context, req models.CreateTagRequest) (*models.TagResponse, error)
	Update(c echo.Context, req models.UpdateTagRequest) (*models.TagResponse, error)
	Delete(c echo.Context, req models.DeleteTagRequest) error
	Reconcile(c echo.Context, req struct{}) (*models.ReconcileResult, error)
}

type tagController struct {
	tagUsecase usecase.TagUsecase
}

func NewTagController(tagUsecase usecase.TagUsecase) TagController {
	return &tagController{tagUsecase: tagUsecase}
}

func (tc *tagController) List(c echo.Context, _ struct{}) (*models.TagList, error) {
	tags, err := tc.tagUsecase.List(c.Request().Context(), currentUser(c))
	if err != nil {
		return nil, err
	}
	return &models.TagList{Success: true, Tags: tags}, nil
}

func (tc *tagController) Create(c echo.Context, req models.CreateTagRequest) (*models.TagResponse, error) {
	tag, err := tc.tagUsecase.Create(c.Request().Context(), currentUser(c), req)
	if err != nil {
		return nil, err
	}
	return &models.TagResponse{Success: true, Tag: tag}, nil
}

func (tc *tagController) Update(c echo.Context, req models.UpdateTagRequest) (*models.TagResponse, error) {
	tag, err := tc.tagUsecase.Update(c.Request().Context(), currentUser(c), req)
	if err != nil {
		return nil, err
	}
	return &models.TagResponse{Success: true, Tag: tag}, nil
}

func (tc *tagController) Delete(c echo.Context, req models.DeleteTagRequest) error {
	return tc.tagUsecase.Delete(c.Request().Context(), currentUser(c), req)
}

func (tc *tagController) Reconcile(c echo.Context, _ struct{}) (*models.ReconcileResult, error) {
	return tc.tagUsecase.Reconcile(c.Request().Context(), currentUser(c).ID)
}
