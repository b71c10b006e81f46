package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/consumibles-api/internal/application/closing"
	"github.com/jhoicas/consumibles-api/internal/application/dto"
)

// ClosingHandler estado y transiciones de cierre de período (protegido).
type ClosingHandler struct {
	uc *closing.UseCase
}

// NewClosingHandler construye el handler.
func NewClosingHandler(uc *closing.UseCase) *ClosingHandler {
	return &ClosingHandler{uc: uc}
}

// GetClosing godoc
// @Summary      Estado de cierre del período
// @Tags         closings
// @Security     Bearer
// @Produce      json
// @Param        period  path  string  true  "YYYY-MM"
// @Success      200  {object}  dto.ClosingStatusDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/closings/{period} [get]
func (h *ClosingHandler) GetClosing(c *fiber.Ctx) error {
	st, err := h.uc.Status(c.UserContext(), c.Params("period"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(st)
}

// SetClosing godoc
// @Summary      Cerrar o reabrir un período
// @Description  CLOSED exige cero duplicados y desgloses ADR completos (skip_adr_check solo para roles elevados).
//
//	OPEN (reapertura) solo para admin y supervisor.
//
// @Tags         closings
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        period  path  string                 true  "YYYY-MM"
// @Param        body    body  dto.SetClosingRequest  true  "status, skip_adr_check"
// @Success      200  {object}  dto.ClosingStatusDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/closings/{period} [put]
func (h *ClosingHandler) SetClosing(c *fiber.Ctx) error {
	var in dto.SetClosingRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if ok, err := validateStruct(c, in); !ok {
		return err
	}
	st, err := h.uc.SetClosing(c.UserContext(), c.Params("period"), in.Status, in.SkipADR, GetActor(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(st)
}
