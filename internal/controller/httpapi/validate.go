package httpapi

import (
	"fmt"
	"strconv"

	"github.com/campusmind/support_server/internal/model"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type requestValidator struct {
	validate *validator.Validate
}

func (v *requestValidator) Validate(i any) error {
	if err := v.validate.Struct(i); err != nil {
		return fmt.Errorf("%s: %w", err.Error(), model.ErrInvalidInput)
	}
	return nil
}

func registerValidators(validate *validator.Validate) {
	_ = validate.RegisterValidation("hhmm", isTimeOfDay)
}

// isTimeOfDay принимает HH:MM и HH:MM:SS
func isTimeOfDay(fl validator.FieldLevel) bool {
	_, err := model.ParseTimeOfDay(fl.Field().String())
	return err == nil
}

// bind разбирает тело запроса и валидирует его
func bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return fmt.Errorf("malformed body: %w", model.ErrInvalidInput)
	}
	return c.Validate(req)
}

func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%s is not a valid id: %w", name, model.ErrInvalidInput)
	}
	return id, nil
}
