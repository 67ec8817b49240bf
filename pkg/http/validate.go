package http

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var validate = validator.New()

// ReadAndValidateRequest binds query/body params into req, fills declared
// defaults, and validates. Returns nil on success or a serializable error
// value for BadRequestResponse.
func ReadAndValidateRequest(c echo.Context, req interface{}) interface{} {
	for _, step := range []func() error{
		func() error { return c.Bind(req) },
		func() error { return defaults.Set(req) },
		func() error { return validate.StructCtx(c.Request().Context(), req) },
	} {
		if err := step(); err != nil {
			return toValidationErrors(err)
		}
	}
	return nil
}

func toValidationErrors(err error) []ValidationError {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		out := make([]ValidationError, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			out = append(out, describeFieldError(fe))
		}
		return out
	}

	msg := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg = fmt.Sprintf("%v", he.Message)
	}
	return []ValidationError{{Code: "ERR_UNKNOWN", Message: msg}}
}

func describeFieldError(fe validator.FieldError) ValidationError {
	ve := ValidationError{
		Code:   "ERR_" + strings.ToUpper(fe.Tag()),
		Field:  fe.Field(),
		Params: map[string]interface{}{},
	}
	switch fe.Tag() {
	case "required":
		ve.Message = fmt.Sprintf("%s is required", fe.Field())
	case "oneof":
		ve.Message = fmt.Sprintf("%s must be one of: %s",
			fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "))
		ve.Params["options"] = strings.Split(fe.Param(), " ")
	case "min", "gte":
		ve.Message = boundMessage(fe, "at least")
		ve.Params["min"] = fe.Param()
	case "max", "lte":
		ve.Message = boundMessage(fe, "at most")
		ve.Params["max"] = fe.Param()
	default:
		ve.Message = fmt.Sprintf("%s failed validation: %s", fe.Field(), fe.Tag())
	}
	return ve
}

func boundMessage(fe validator.FieldError, bound string) string {
	// min/max on strings constrain length, everything else the value
	if fe.Type().Kind() == reflect.String && (fe.Tag() == "min" || fe.Tag() == "max") {
		return fmt.Sprintf("%s must be %s %s characters", fe.Field(), bound, fe.Param())
	}
	return fmt.Sprintf("%s must be %s %s", fe.Field(), bound, fe.Param())
}
