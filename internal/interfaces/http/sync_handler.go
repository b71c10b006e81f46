package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/consumibles-api/internal/application/dto"
	loadsync "github.com/jhoicas/consumibles-api/internal/application/sync"
)

// SyncHandler sincronización de cargas desde la hoja externa y consulta de cargas (protegido).
type SyncHandler struct {
	uc *loadsync.UseCase
}

// NewSyncHandler construye el handler.
func NewSyncHandler(uc *loadsync.UseCase) *SyncHandler {
	return &SyncHandler{uc: uc}
}

// SyncLoads godoc
// @Summary      Reconciliar un lote de cargas
// @Description  Cada carga se reconcilia por separado: un registro inválido o en período cerrado
//
//	aparece como FAILED en outcomes sin abortar el resto del lote.
//
// @Tags         sync
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SyncLoadsRequest  true  "cargas"
// @Success      200   {object}  dto.ReconcileResult
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/sync/loads [post]
func (h *SyncHandler) SyncLoads(c *fiber.Ctx) error {
	var in dto.SyncLoadsRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if ok, err := validateStruct(c, in); !ok {
		return err
	}
	return c.JSON(h.uc.Reconcile(c.UserContext(), in.Loads))
}

// ListLoads godoc
// @Summary      Listar cargas con marcas de duplicado y modificación
// @Tags         loads
// @Security     Bearer
// @Produce      json
// @Param        period             query  string  false  "YYYY-MM"
// @Param        vehicle_id         query  string  false  "matrícula"
// @Param        duplicates         query  bool    false  "solo duplicadas"
// @Param        modified           query  bool    false  "solo modificadas"
// @Param        pending_breakdown  query  bool    false  "solo con desglose ADR pendiente"
// @Success      200  {array}   dto.LoadResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/loads [get]
func (h *SyncHandler) ListLoads(c *fiber.Ctx) error {
	var f dto.LoadFilter
	if err := c.QueryParser(&f); err != nil {
		return invalidBody(c)
	}
	loads, err := h.uc.ListLoads(c.UserContext(), f)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"total": len(loads), "loads": loads})
}

// GetLoad godoc
// @Summary      Detalle de una carga
// @Tags         loads
// @Security     Bearer
// @Produce      json
// @Param        ref  path  string  true  "referencia de carga"
// @Success      200  {object}  dto.LoadResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/loads/{ref} [get]
func (h *SyncHandler) GetLoad(c *fiber.Ctx) error {
	load, err := h.uc.GetLoad(c.UserContext(), c.Params("ref"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(load)
}

// SetADRBreakdown godoc
// @Summary      Fijar el desglose ADR de una carga
// @Description  Sustituye la pegatina ADR genérica por pegatinas específicas. Lista vacía elimina el desglose.
// @Tags         loads
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        ref   path  string                   true  "referencia de carga"
// @Param        body  body  dto.ADRBreakdownRequest  true  "líneas del desglose"
// @Success      200   {object}  dto.LoadResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/loads/{ref}/adr-breakdown [put]
func (h *SyncHandler) SetADRBreakdown(c *fiber.Ctx) error {
	var in dto.ADRBreakdownRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if ok, err := validateStruct(c, in); !ok {
		return err
	}
	load, err := h.uc.SetADRBreakdown(c.UserContext(), c.Params("ref"), in.Lines, GetActor(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(load)
}
