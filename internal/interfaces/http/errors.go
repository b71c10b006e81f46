package http

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/consumibles-api/internal/application/dto"
	"github.com/jhoicas/consumibles-api/internal/domain"
)

var validate = validator.New()

// statusByCode estado HTTP para cada código de dominio.
var statusByCode = map[string]int{
	"VALIDATION":         fiber.StatusBadRequest,
	"NOT_FOUND":          fiber.StatusNotFound,
	"PERIOD_CLOSED":      fiber.StatusConflict,
	"DUPLICATES_PENDING": fiber.StatusConflict,
	"ADR_PENDING":        fiber.StatusConflict,
	"INVALID_TRANSITION": fiber.StatusConflict,
	"CONFLICT":           fiber.StatusConflict,
	"DUPLICATE":          fiber.StatusConflict,
	"FORBIDDEN":          fiber.StatusForbidden,
	"UNAUTHORIZED":       fiber.StatusUnauthorized,
}

// writeError traduce un error de caso de uso a respuesta HTTP con dto.ErrorResponse.
func writeError(c *fiber.Ctx, err error) error {
	code := domain.Code(err)
	status, ok := statusByCode[code]
	if !ok {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
	}
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: err.Error()})
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}

// validateStruct aplica las etiquetas validate del DTO y responde 400 con los campos fallidos.
func validateStruct(c *fiber.Ctx, v any) (bool, error) {
	err := validate.Struct(v)
	if err == nil {
		return true, nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return false, writeError(c, domain.Invalid("body", err.Error()))
	}
	msgs := make([]string, 0, len(fieldErrs))
	fields := make([]dto.FieldError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fe.Field()+": "+fe.Tag())
		fields = append(fields, dto.FieldError{Field: fe.Field(), Rule: fe.Tag()})
	}
	return false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Code:    "VALIDATION",
		Message: strings.Join(msgs, "; "),
		Fields:  fields,
	})
}
