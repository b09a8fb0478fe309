package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nguyentranbao-ct/crm-assistant/internal/config"
	"github.com/nguyentranbao-ct/crm-assistant/internal/models"
	pkgmdw "github.com/nguyentranbao-ct/crm-assistant/internal/server/middleware"
	"github.com/nguyentranbao-ct/crm-assistant/internal/usecase"
)

type AuthController interface {
	Login(c echo.Context, req models.LoginRequest) (*models.LoginResponse, error)
	Logout(c echo.Context, req struct{}) error
	GetProfile(c echo.Context, req struct{}) (*models.ProfileResponse, error)
	UpdateProfile(c echo.Context, req models.ProfileUpdateRequest) (*models.ProfileResponse, error)
}

type authController struct {
	authUsecase  usecase.AuthUsecase
	cookieName   string
	cookieSecure bool
}

func NewAuthController(cfg *config.Config, authUsecase usecase.AuthUsecase) AuthController {
	return &authController{
		authUsecase:  authUsecase,
		cookieName:   cfg.Auth.CookieName,
		cookieSecure: cfg.Auth.CookieSecure,
	}
}

// Login opens a session and hands its token out as an http-only cookie.
func (ac *authController) Login(c echo.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	resp, err := ac.authUsecase.Login(c.Request().Context(), req)
	if err != nil {
		return nil, err
	}
	c.SetCookie(&http.Cookie{
		Name:     ac.cookieName,
		Value:    resp.Session.Token,
		Path:     "/",
		Expires:  resp.Session.ExpiresAt,
		HttpOnly: true,
		Secure:   ac.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return resp, nil
}

func (ac *authController) Logout(c echo.Context, _ struct{}) error {
	token := pkgmdw.SessionToken(c, ac.cookieName)
	if err := ac.authUsecase.Logout(c.Request().Context(), token); err != nil {
		return err
	}
	c.SetCookie(&http.Cookie{
		Name:     ac.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   ac.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (ac *authController) GetProfile(c echo.Context, _ struct{}) (*models.ProfileResponse, error) {
	profile, err := ac.authUsecase.Profile(c.Request().Context(), currentUser(c))
	if err != nil {
		return nil, err
	}
	return &models.ProfileResponse{Success: true, User: profile}, nil
}

func (ac *authController) UpdateProfile(c echo.Context, req models.ProfileUpdateRequest) (*models.ProfileResponse, error) {
	profile, err := ac.authUsecase.UpdateProfile(c.Request().Context(), currentUser(c), req)
	if err != nil {
		return nil, err
	}
	return &models.ProfileResponse{Success: true, User: profile}, nil
}
