package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/campusmind/support_server/internal/model"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

const retryMessage = "Something went wrong on our side. Please try again."

// statusFor сопоставляет доменную ошибку с HTTP статусом и кодом ответа
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, model.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, model.ErrOverlappingRules):
		return http.StatusUnprocessableEntity, "overlapping_rules"
	case errors.Is(err, model.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, model.ErrSlotUnavailable):
		return http.StatusConflict, "slot_unavailable"
	case errors.Is(err, model.ErrInvalidTransition):
		return http.StatusConflict, "stale_state"
	case errors.Is(err, model.ErrSlotBooked):
		return http.StatusConflict, "slot_booked"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var resp errorResponse
	var status int

	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		resp.Code = strings.ReplaceAll(strings.ToLower(http.StatusText(he.Code)), " ", "_")
		if msg, ok := he.Message.(string); ok {
			resp.Message = msg
		} else {
			resp.Message = http.StatusText(he.Code)
		}
	} else {
		status, resp.Code = statusFor(err)
		resp.Message = err.Error()
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error("Unhandled error",
			zap.String("path", c.Path()),
			zap.Error(err))
		resp.Message = retryMessage
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, resp)
	}
	if err != nil {
		s.logger.Warn("Failed to write error response", zap.Error(err))
	}
}
