package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nguyentranbao-ct/crm-assistant/internal/models"
)

// StatusClientClosedRequest is reported when the caller went away before
// the handler finished.
const StatusClientClosedRequest = 499

var statusByError = []struct {
	target error
	status int
}{
	{models.ErrValidation, http.StatusBadRequest},
	{models.ErrNotFound, http.StatusNotFound},
	{models.ErrDuplicate, http.StatusConflict},
	{models.ErrUnauthorized, http.StatusUnauthorized},
	{models.ErrInvalidCredential, http.StatusUnauthorized},
	{models.ErrStorageDisabled, http.StatusServiceUnavailable},
	{models.ErrUpstreamUnavailable, http.StatusServiceUnavailable},
}

// ErrorHandler renders errors as {success:false, message, error}. Domain
// errors are mapped to status codes, anything unknown is a 500 whose cause
// is logged but not echoed back.
func ErrorHandler(log Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if err == nil || c.Response().Committed {
			return
		}

		resp := NewResponseError(c, err)
		if resp.Status >= http.StatusInternalServerError {
			log.Errorw("request failed", "status", resp.Status, "uri", c.Request().RequestURI, "error", err)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(resp.Status)
		} else {
			err = c.JSON(resp.Status, resp)
		}
		if err != nil {
			log.Errorw("could not response", "code", resp.Status, "response_body", resp)
		}
	}
}

func NewResponseError(c echo.Context, err error) *ResponseError {
	var re *ResponseError
	if errors.As(err, &re) {
		return re
	}

	resp := &ResponseError{
		Status:  http.StatusInternalServerError,
		Success: false,
		Err:     err,
		Message: http.StatusText(http.StatusInternalServerError),
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		resp.Status = he.Code
		resp.Message = fmt.Sprint(he.Message)
		if resp.Status == http.StatusNotFound && isNotFoundHandler(c.Handler()) {
			resp.Message = "no route matched"
		}
		return resp
	}

	var ve *models.ValidationError
	if errors.As(err, &ve) {
		resp.Status = http.StatusBadRequest
		resp.Message = ve.Reason
		return resp
	}

	for _, m := range statusByError {
		if errors.Is(err, m.target) {
			resp.Status = m.status
			resp.Message = m.target.Error()
			if m.status < http.StatusInternalServerError {
				resp.Detail = err.Error()
			}
			return resp
		}
	}

	if errors.Is(err, context.Canceled) && errors.Is(c.Request().Context().Err(), context.Canceled) {
		resp.Status = StatusClientClosedRequest
		resp.Message = "request canceled"
	}
	return resp
}
