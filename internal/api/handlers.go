package api

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"virtualtourist/internal/service"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type APIService struct {
	maps   *service.MapService
	albums *service.AlbumService
	health Pinger
}

func NewAPIService(maps *service.MapService, albums *service.AlbumService, health Pinger) *APIService {
	return &APIService{maps: maps, albums: albums, health: health}
}

type dropPinRequest struct {
	Latitude  *float64 `json:"latitude" validate:"required,min=-90,max=90"`
	Longitude *float64 `json:"longitude" validate:"required,min=-180,max=180"`
}

type deletePhotoResponse struct {
	Remaining int `json:"remaining"`
}

func (s *APIService) SetRoutes(e *echo.Echo) {
	e.GET("/health", s.healthCheck)

	e.GET("/pins", s.listPins)
	e.POST("/pins", s.dropPin)
	e.DELETE("/pins", s.wipe)
	e.GET("/pins/lookup", s.findPin)
	e.GET("/pins/:id", s.getPin)
	e.GET("/pins/:id/photos", s.listPhotos)
	e.POST("/pins/:id/photos/refresh", s.refreshAlbum)

	e.GET("/photos/:id/image", s.photoImage)
	e.GET("/photos/:id/thumbnail", s.thumbnail)
	e.DELETE("/photos/:id", s.deletePhoto)
}

func (s *APIService) healthCheck(c echo.Context) error {
	if err := s.health.Ping(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "store unavailable")
	}
	return c.String(http.StatusOK, "ok")
}

func (s *APIService) listPins(c echo.Context) error {
	pins, err := s.maps.ListPins(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pins)
}

func (s *APIService) dropPin(c echo.Context) error {
	var req dropPinRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	pin, err := s.maps.DropPin(c.Request().Context(), *req.Latitude, *req.Longitude)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, pin)
}

func (s *APIService) findPin(c echo.Context) error {
	var lat, lon float64
	if err := echo.QueryParamsBinder(c).
		MustFloat64("lat", &lat).
		MustFloat64("lon", &lon).
		BindError(); err != nil {
		return err
	}

	pin, err := s.maps.FindPin(c.Request().Context(), lat, lon)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pin)
}

func (s *APIService) getPin(c echo.Context) error {
	pin, err := s.maps.GetPin(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pin)
}

func (s *APIService) wipe(c echo.Context) error {
	if err := s.maps.Wipe(c.Request().Context()); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *APIService) listPhotos(c echo.Context) error {
	photos, err := s.albums.ListPhotos(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, photos)
}

func (s *APIService) refreshAlbum(c echo.Context) error {
	photos, err := s.albums.RefreshAlbum(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, photos)
}

func (s *APIService) photoImage(c echo.Context) error {
	data, err := s.albums.PhotoImage(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, http.DetectContentType(data), data)
}

func (s *APIService) thumbnail(c echo.Context) error {
	var width int
	if err := echo.QueryParamsBinder(c).Int("width", &width).BindError(); err != nil {
		return err
	}

	data, err := s.albums.Thumbnail(c.Request().Context(), c.Param("id"), width)
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, "image/jpeg", data)
}

func (s *APIService) deletePhoto(c echo.Context) error {
	remaining, err := s.albums.DeletePhoto(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, deletePhotoResponse{Remaining: remaining})
}
