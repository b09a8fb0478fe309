package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nguyentranbao-ct/crm-assistant/internal/models"
	pkgmdw "github.com/nguyentranbao-ct/crm-assistant/internal/server/middleware"
)

type HealthController interface {
	Health(c echo.Context) error
}

type healthController struct{}

func NewHealthController() HealthController {
	return &healthController{}
}

func (h *healthController) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "crm-assistant",
	})
}

// currentUser is only called behind SessionAuth, which guarantees a user.
func currentUser(c echo.Context) *models.User {
	return pkgmdw.CurrentUser(c)
}
