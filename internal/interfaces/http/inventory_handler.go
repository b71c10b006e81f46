package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/consumibles-api/internal/application/dto"
	"github.com/jhoicas/consumibles-api/internal/application/inventory"
)

// InventoryHandler movimientos manuales y proyección de inventario (protegido).
type InventoryHandler struct {
	uc *inventory.UseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(uc *inventory.UseCase) *InventoryHandler {
	return &InventoryHandler{uc: uc}
}

// RegisterMovement godoc
// @Summary      Registrar movimiento manual
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterMovementRequest  true  "sku, kind (INBOUND|OUTBOUND), quantity, date"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/movements [post]
func (h *InventoryHandler) RegisterMovement(c *fiber.Ctx) error {
	var in dto.RegisterMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if ok, err := validateStruct(c, in); !ok {
		return err
	}
	mov, err := h.uc.RegisterMovement(c.UserContext(), in, GetActor(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(mov)
}

// ListMovements godoc
// @Summary      Listar movimientos del libro
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        sku             query  string  false  "SKU"
// @Param        period          query  string  false  "YYYY-MM"
// @Param        kind            query  string  false  "INBOUND|OUTBOUND"
// @Param        load_reference  query  string  false  "carga"
// @Param        manual          query  bool    false  "solo manuales"
// @Param        limit           query  int     false  "límite (1-100)"
// @Param        offset          query  int     false  "desplazamiento"
// @Success      200  {object}  dto.MovementListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/movements [get]
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	var f dto.MovementFilter
	if err := c.QueryParser(&f); err != nil {
		return invalidBody(c)
	}
	f.DefaultPage()
	if ok, err := validateStruct(c, f); !ok {
		return err
	}
	list, err := h.uc.ListMovements(c.UserContext(), f)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(list)
}

// ProjectInventory godoc
// @Summary      Proyección de inventario
// @Description  Stock, velocidad de consumo y estado de reposición por artículo activo.
//
//	Con period se excluyen los movimientos posteriores al fin del período.
//
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        period  query  string  false  "YYYY-MM"
// @Success      200  {object}  dto.InventoryProjectionDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory [get]
func (h *InventoryHandler) ProjectInventory(c *fiber.Ctx) error {
	proj, err := h.uc.ProjectInventory(c.UserContext(), c.Query("period"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(proj)
}
