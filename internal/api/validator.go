package api

import (
	"fmt"
	"net/http"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
)

// RequestValidator validates bound request bodies by their `validate` tags.
// It is shared by concurrent handlers and must be built before serving.
type RequestValidator struct {
	Validator *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	return &RequestValidator{Validator: validator.New()}
}

func (rv *RequestValidator) Validate(i interface{}) error {
	if err := rv.Validator.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("received invalid request body: %v", err))
	}
	return nil
}
