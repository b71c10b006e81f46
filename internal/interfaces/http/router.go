package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/consumibles-api/internal/application/billing"
	"github.com/jhoicas/consumibles-api/internal/application/closing"
	"github.com/jhoicas/consumibles-api/internal/application/inventory"
	loadsync "github.com/jhoicas/consumibles-api/internal/application/sync"
	"github.com/jhoicas/consumibles-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Sync      *loadsync.UseCase
	Inventory *inventory.UseCase
	Billing   *billing.UseCase
	Closing   *closing.UseCase
	JWTSecret string
}

// Router registra las rutas de la API. Todo /api requiere Bearer Token; las escrituras
// exigen un rol operativo y la reapertura de períodos se valida por rol en el caso de uso.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))
	write := RequireRole(entity.RoleAdmin, entity.RoleSupervisor, entity.RoleOperador)

	syncHandler := NewSyncHandler(deps.Sync)
	api.Post("/sync/loads", write, syncHandler.SyncLoads)
	api.Get("/loads", syncHandler.ListLoads)
	api.Get("/loads/:ref", syncHandler.GetLoad)
	api.Put("/loads/:ref/adr-breakdown", write, syncHandler.SetADRBreakdown)

	inventoryHandler := NewInventoryHandler(deps.Inventory)
	api.Post("/movements", write, inventoryHandler.RegisterMovement)
	api.Get("/movements", inventoryHandler.ListMovements)
	api.Get("/inventory", inventoryHandler.ProjectInventory)

	billingHandler := NewBillingHandler(deps.Billing)
	api.Get("/billing/:period", billingHandler.GetBilling)
	api.Put("/billing/:period/overrides", write, billingHandler.SetOverride)
	api.Post("/storage", write, billingHandler.RegisterStorageEntry)
	api.Post("/storage/:id/exit", write, billingHandler.RegisterStorageExit)
	api.Post("/pallets", write, billingHandler.RegisterPalletExpedition)

	closingHandler := NewClosingHandler(deps.Closing)
	api.Get("/closings/:period", closingHandler.GetClosing)
	api.Put("/closings/:period", write, closingHandler.SetClosing)
}
