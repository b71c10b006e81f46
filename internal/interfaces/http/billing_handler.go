package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/consumibles-api/internal/application/billing"
	"github.com/jhoicas/consumibles-api/internal/application/dto"
)

// BillingHandler líneas de facturación, ajustes, almacenaje y palés (protegido).
type BillingHandler struct {
	uc *billing.UseCase
}

// NewBillingHandler construye el handler.
func NewBillingHandler(uc *billing.UseCase) *BillingHandler {
	return &BillingHandler{uc: uc}
}

// GetBilling godoc
// @Summary      Líneas facturables del período
// @Tags         billing
// @Security     Bearer
// @Produce      json
// @Param        period  path  string  true  "YYYY-MM"
// @Success      200  {object}  dto.BillingReportDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/billing/{period} [get]
func (h *BillingHandler) GetBilling(c *fiber.Ctx) error {
	rep, err := h.uc.BillingLines(c.UserContext(), c.Params("period"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(rep)
}

// SetOverride godoc
// @Summary      Ajustar la cantidad facturada de una línea
// @Description  quantity null elimina el ajuste. La cantidad real nunca se modifica.
// @Tags         billing
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        period  path  string                  true  "YYYY-MM"
// @Param        body    body  dto.SetOverrideRequest  true  "line_key, quantity"
// @Success      200  {object}  dto.BillingReportDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/billing/{period}/overrides [put]
func (h *BillingHandler) SetOverride(c *fiber.Ctx) error {
	var in dto.SetOverrideRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if ok, err := validateStruct(c, in); !ok {
		return err
	}
	rep, err := h.uc.SetOverride(c.UserContext(), c.Params("period"), in.LineKey, in.Quantity, GetActor(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(rep)
}

// RegisterStorageEntry godoc
// @Summary      Registrar entrada de contenedor en almacén
// @Tags         storage
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.StorageEntryRequest  true  "container_id, entry_date"
// @Success      201  {object}  dto.StorageEntryResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/storage [post]
func (h *BillingHandler) RegisterStorageEntry(c *fiber.Ctx) error {
	var in dto.StorageEntryRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if ok, err := validateStruct(c, in); !ok {
		return err
	}
	e, err := h.uc.RegisterStorageEntry(c.UserContext(), in, GetActor(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(e)
}

// RegisterStorageExit godoc
// @Summary      Registrar salida de contenedor
// @Tags         storage
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                  true  "id de la entrada"
// @Param        body  body  dto.StorageExitRequest  true  "exit_date, procedure (RECOGER|ENVIAR|DESTRUIR)"
// @Success      200  {object}  dto.StorageEntryResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/storage/{id}/exit [post]
func (h *BillingHandler) RegisterStorageExit(c *fiber.Ctx) error {
	var in dto.StorageExitRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if ok, err := validateStruct(c, in); !ok {
		return err
	}
	e, err := h.uc.RegisterStorageExit(c.UserContext(), c.Params("id"), in, GetActor(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(e)
}

// RegisterPalletExpedition godoc
// @Summary      Registrar expedición con palés
// @Tags         pallets
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.PalletExpeditionRequest  true  "reference, date, resulting_pallets"
// @Success      201  {object}  dto.PalletExpeditionResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/pallets [post]
func (h *BillingHandler) RegisterPalletExpedition(c *fiber.Ctx) error {
	var in dto.PalletExpeditionRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if ok, err := validateStruct(c, in); !ok {
		return err
	}
	x, err := h.uc.RegisterPalletExpedition(c.UserContext(), in, GetActor(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(x)
}
