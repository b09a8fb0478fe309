package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/cstockton/go-conv"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/nguyentranbao-ct/crm-assistant/internal/models"
)

var queryBinder = &echo.DefaultBinder{}

// BindAndValidate bind request context and validate request struct.
// Bind includes request body, params, query, headers and the session user.
// Query parameters are bound for every method, so PUT ?contactId= works.
func BindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return err
	}

	switch c.Request().Method {
	case http.MethodGet, http.MethodDelete, http.MethodHead:
	default:
		if err := queryBinder.BindQueryParams(c, req); err != nil {
			return err
		}
	}

	if err := bindHeader(c.Request().Header, req); err != nil {
		return err
	}

	if err := bindSession(c, req); err != nil {
		return err
	}

	if err := c.Validate(req); err != nil {
		return validationError(err)
	}

	return nil
}

func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return models.NewValidationError("%s", err.Error())
	}
	reasons := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required", "notblank":
			reasons = append(reasons, fe.Field()+" is required")
		case "email":
			reasons = append(reasons, "invalid email format")
		case "oneof":
			reasons = append(reasons, fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param()))
		default:
			reasons = append(reasons, fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag()))
		}
	}
	return models.NewValidationError("%s", strings.Join(reasons, "; "))
}

// bindSession decodes the authenticated user to struct by tag
// `session:"id|email|name"`. Requests without a session are left untouched.
func bindSession(c echo.Context, dst interface{}) error {
	user := CurrentUser(c)
	if user == nil {
		return nil
	}

	getValueFn := func(tagValue string) (interface{}, error) {
		switch tagValue {
		case "id":
			return user.ID.Hex(), nil
		case "email":
			return user.Email, nil
		case "name":
			return user.Name, nil
		}
		return nil, fmt.Errorf("binding session field %s is not supported", tagValue)
	}

	return bindStruct(dst, "session", getValueFn)
}

// bindHeader decode http header to struct by tag `header:"<header_name>"`
// out must be a pointer to a struct
func bindHeader(header http.Header, dst interface{}) error {
	getValueFn := func(tagValue string) (interface{}, error) {
		return header.Get(tagValue), nil
	}

	return bindStruct(dst, "header", getValueFn)
}

// bindStruct decode to struct by custom tag `tagName:"tagValue"`
// dst must be a pointer to a struct
func bindStruct(dst interface{}, tagName string, getValueFn func(tagValue string) (interface{}, error)) error {
	ptr := reflect.ValueOf(dst)
	if ptr.Kind() != reflect.Ptr {
		return fmt.Errorf("non-pointer passed to Unmarshal")
	}

	indirect := reflect.Indirect(ptr)
	structType := indirect.Type()

	for i := 0; i < structType.NumField(); i++ {
		structField := structType.Field(i)
		tagValue := structField.Tag.Get(tagName)
		if tagValue == "-" || tagValue == "" {
			continue
		}

		field := indirect.Field(i)
		value, err := getValueFn(tagValue)
		if err != nil {
			return err
		}
		if err := conv.Infer(field, value); err != nil {
			return fmt.Errorf("cannot parse %s.%s as %s from: %#v / %s",
				structType.Name(), structField.Name, field.Type(), value, err)
		}
	}

	return nil
}
