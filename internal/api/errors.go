package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"virtualtourist/internal/download"
	"virtualtourist/internal/service"
	"virtualtourist/internal/store"
	"virtualtourist/pkg/flickr"
	"virtualtourist/pkg/geo"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// statusOf maps a domain error to its HTTP status and error code.
func statusOf(err error) (int, string) {
	var bindErr *echo.BindingError
	var httpErr *echo.HTTPError
	switch {
	case errors.As(err, &bindErr):
		return http.StatusBadRequest, "bad_request"
	case errors.As(err, &httpErr):
		return httpErr.Code, codeFor(httpErr.Code)
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrNoImage):
		return http.StatusNotFound, "no_image"
	case errors.Is(err, geo.ErrInvalidCoordinate):
		return http.StatusBadRequest, "invalid_coordinate"
	case errors.Is(err, download.ErrDownload):
		return http.StatusBadGateway, "download_failed"
	case errors.Is(err, flickr.ErrSearch):
		return http.StatusBadGateway, "photo_search_failed"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func codeFor(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	case http.StatusServiceUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

// errorHandler renders every error as {"error","message"}.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, code := statusOf(err)
	message := err.Error()
	var bindErr *echo.BindingError
	var httpErr *echo.HTTPError
	if errors.As(err, &bindErr) {
		message = fmt.Sprintf("invalid query parameter %s", bindErr.Field)
	} else if errors.As(err, &httpErr) {
		message = http.StatusText(httpErr.Code)
		if m, ok := httpErr.Message.(string); ok {
			message = m
		}
	}
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "method", c.Request().Method, "path", c.Path(), "status", status, "error", err)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, errorResponse{Error: code, Message: message})
	}
	if err != nil {
		slog.Error("failed to write error response", "error", err)
	}
}
