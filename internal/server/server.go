// Package server exposes a taxa store over a JSON REST API.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/taxa/pkg/types"
)

// maxBodySize bounds request bodies. A full taxon with presets is far below
// this.
const maxBodySize = 1 << 20

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields types.FieldErrors `json:"fields,omitempty"`
}

// OrderRequest is the body of PUT /api/taxa/order.
type OrderRequest struct {
	IDs []int64 `json:"ids"`
}

// New returns an echo instance with the taxa routes, request ids, panic
// recovery, and request logging installed.
func New(store types.Store, logger *log.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(requestLogger(logger))
	e.Use(middleware.Recover())
	Register(e, store, logger)
	return e
}

// Register wires the taxa routes on e.
func Register(e *echo.Echo, store types.Store, logger *log.Logger) {
	e.GET("/api/taxa", listTaxa(store, logger))
	e.POST("/api/taxa", createTaxon(store, logger))
	e.PUT("/api/taxa/order", reorderTaxa(store, logger))
	e.PATCH("/api/taxa/:id", updateTaxon(store, logger))
	e.DELETE("/api/taxa/:id", deleteTaxon(store, logger))
	e.GET("/api/taxon-types", listTypes())
	e.GET("/healthz", healthz(store))
}

func healthz(store types.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, err := store.ListTaxa(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: err.Error()})
		}
		return c.NoContent(http.StatusOK)
	}
}

func listTaxa(store types.Store, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		taxa, err := store.ListTaxa(c.Request().Context())
		if err != nil {
			return fail(c, logger, err)
		}
		return c.JSON(http.StatusOK, taxa)
	}
}

func createTaxon(store types.Store, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		var draft types.TaxonDraft
		if err := decode(c, &draft); err != nil {
			return fail(c, logger, err)
		}
		taxon, err := store.CreateTaxon(c.Request().Context(), draft)
		if err != nil {
			return fail(c, logger, err)
		}
		return c.JSON(http.StatusCreated, taxon)
	}
}

func updateTaxon(store types.Store, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := pathID(c)
		if err != nil {
			return fail(c, logger, err)
		}
		var taxon types.Taxon
		if err := decode(c, &taxon); err != nil {
			return fail(c, logger, err)
		}
		taxon.ID = id
		updated, err := store.UpdateTaxon(c.Request().Context(), id, taxon)
		if err != nil {
			return fail(c, logger, err)
		}
		return c.JSON(http.StatusOK, updated)
	}
}

func deleteTaxon(store types.Store, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := pathID(c)
		if err != nil {
			return fail(c, logger, err)
		}
		if err := store.DeleteTaxon(c.Request().Context(), id); err != nil {
			return fail(c, logger, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func reorderTaxa(store types.Store, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req OrderRequest
		if err := decode(c, &req); err != nil {
			return fail(c, logger, err)
		}
		taxa, err := store.ReorderTaxa(c.Request().Context(), req.IDs)
		if err != nil {
			return fail(c, logger, err)
		}
		return c.JSON(http.StatusOK, taxa)
	}
}

func listTypes() echo.HandlerFunc {
	descriptors := types.Descriptors()
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, descriptors)
	}
}

func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, types.ErrInvalidID
	}
	return id, nil
}

// errInvalidBody marks a request body that is not the expected JSON.
var errInvalidBody = errors.New("invalid request body")

func decode(c echo.Context, v any) error {
	dec := json.NewDecoder(io.LimitReader(c.Request().Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errInvalidBody
	}
	return nil
}

// statusFor maps store errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errInvalidBody),
		errors.Is(err, types.ErrValidation),
		errors.Is(err, types.ErrInvalidID),
		errors.Is(err, types.ErrInvalidData),
		errors.Is(err, types.ErrInvalidOrder),
		errors.Is(err, types.ErrInvalidDataType),
		errors.Is(err, types.ErrInvalidFilterType):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, types.ErrDuplicateName):
		return http.StatusConflict
	case errors.Is(err, types.ErrDetached):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func fail(c echo.Context, logger *log.Logger, err error) error {
	status := statusFor(err)
	resp := ErrorResponse{Error: err.Error()}
	var fields types.FieldErrors
	if errors.As(err, &fields) {
		resp.Fields = fields
	}
	if status >= http.StatusInternalServerError {
		logger.WithFields(log.Fields{
			"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
			"path":       c.Path(),
		}).WithError(err).Error("request failed")
	}
	return c.JSON(status, resp)
}

// requestLogger logs one line per request at debug level, or at warn level
// for 4xx and error level for 5xx responses.
func requestLogger(logger *log.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			status := c.Response().Status
			entry := logger.WithFields(log.Fields{
				"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
				"method":     c.Request().Method,
				"path":       c.Path(),
				"status":     status,
				"duration":   time.Since(start).String(),
			})
			switch {
			case status >= http.StatusInternalServerError:
				entry.Error("request")
			case status >= http.StatusBadRequest:
				entry.Warn("request")
			default:
				entry.Debug("request")
			}
			return nil
		}
	}
}
