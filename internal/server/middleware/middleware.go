package middleware

import (
	"fmt"

	"github.com/labstack/echo/v4"
)

var (
	DefaultSkipper = func(c echo.Context) bool {
		return false
	}
)

type Skipper func(c echo.Context) bool

type Logger interface {
	Debugw(msg string, keysAndValues ...interface{})
	Infow(msg string, keysAndValues ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Errorw(msg string, keysAndValues ...interface{})
}

// ResponseError is the body of every failed request.
type ResponseError struct {
	Status  int    `json:"-"`
	Err     error  `json:"-"`
	Success bool   `json:"success"`
	Message string `json:"message"`
	Detail  string `json:"error,omitempty"`
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("status: %d, message: %s; error: %+v", e.Status, e.Message, e.Err)
}

func (e *ResponseError) Unwrap() error {
	return e.Err
}
