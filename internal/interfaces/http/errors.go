package http

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/ledger-api/internal/application/dto"
	"github.com/jhoicas/ledger-api/internal/domain"
	"github.com/jhoicas/ledger-api/pkg/validator"
)

// CodeConflict escritura concurrente detectada; el cliente puede reintentar.
const CodeConflict = "CONFLICT"

// statusFor traduce el código estable del dominio a un status HTTP.
func statusFor(kind string) int {
	switch kind {
	case domain.KindValidation:
		return fiber.StatusBadRequest
	case domain.KindNotFound:
		return fiber.StatusNotFound
	case domain.KindAmbiguousVariant:
		return fiber.StatusConflict
	case domain.KindInsufficientStock, domain.KindZeroCostSale,
		domain.KindOrphanedReference, domain.KindInsufficientHistoricalStock:
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

// writeError responde con dto.ErrorResponse según la taxonomía del dominio.
func writeError(c *fiber.Ctx, err error) error {
	if errors.Is(err, domain.ErrConflict) {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: CodeConflict, Message: err.Error()})
	}
	kind := domain.Kind(err)
	return c.Status(statusFor(kind)).JSON(dto.ErrorResponse{Code: kind, Message: err.Error()})
}

func badRequest(c *fiber.Ctx, code, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: code, Message: msg})
}

// parseBody decodifica y valida el body. Devuelve false si ya respondió con 400.
func parseBody(c *fiber.Ctx, out interface{}) (bool, error) {
	if err := c.BodyParser(out); err != nil {
		return false, badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	if errs := validator.ValidateStruct(out); len(errs) > 0 {
		return false, badRequest(c, domain.KindValidation, validator.Message(errs))
	}
	return true, nil
}

func paramID(c *fiber.Ctx) (int64, bool) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// queryID lee un id opcional de la query; ok=false si viene mal formado.
func queryID(c *fiber.Ctx, key string) (id *int64, ok bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		return nil, false
	}
	return &n, true
}
