package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	apperrors "bizcards/internal/errors"
	"bizcards/internal/report"
	"bizcards/internal/schema"
)

// maxBodyBytes caps request bodies read by decode.
const maxBodyBytes = 1 << 20

// base carries what every handler needs to decode input and report failures.
type base struct {
	schemas  *schema.Registry
	logger   *slog.Logger
	reporter *report.Reporter
}

func newBase(schemas *schema.Registry, logger *slog.Logger, reporter *report.Reporter) base {
	if logger == nil {
		logger = slog.Default()
	}
	return base{schemas: schemas, logger: logger, reporter: reporter}
}

// decode checks the raw body against the named schema, then unmarshals it
// into req and runs the struct validator.
func (b base) decode(c echo.Context, schemaName string, req interface{}) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: unreadable body", apperrors.ErrValidation)
	}
	if err := b.schemas.Validate(schemaName, body); err != nil {
		return err
	}
	if err := json.Unmarshal(body, req); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	if err := c.Validate(req); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	return nil
}

// fail converts err into the JSON error response. Internal failures are
// logged and reported; their detail never reaches the caller.
func (b base) fail(c echo.Context, operation string, err error) error {
	httpErr := apperrors.MapErrorToHTTP(err)
	requestID := c.Response().Header().Get(echo.HeaderXRequestID)

	if httpErr.IsInternal() {
		b.logger.Error("request failed",
			"operation", operation,
			"request_id", requestID,
			"error", err,
		)
		b.reporter.CaptureException(err, operation, requestID)
	} else {
		b.logger.Debug("request rejected",
			"operation", operation,
			"request_id", requestID,
			"code", httpErr.Code,
		)
	}
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid id", apperrors.ErrValidation)
	}
	return id, nil
}
