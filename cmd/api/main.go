package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/consumibles-api/internal/application/billing"
	"github.com/jhoicas/consumibles-api/internal/application/closing"
	"github.com/jhoicas/consumibles-api/internal/application/dto"
	"github.com/jhoicas/consumibles-api/internal/application/inventory"
	loadsync "github.com/jhoicas/consumibles-api/internal/application/sync"
	"github.com/jhoicas/consumibles-api/internal/domain/repository"
	"github.com/jhoicas/consumibles-api/internal/infrastructure/catalog"
	"github.com/jhoicas/consumibles-api/internal/infrastructure/memory"
	"github.com/jhoicas/consumibles-api/internal/infrastructure/metrics"
	"github.com/jhoicas/consumibles-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/consumibles-api/internal/interfaces/http"
	"github.com/jhoicas/consumibles-api/pkg/config"
	"github.com/jhoicas/consumibles-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.App.Storage).
		Msg("iniciando aplicación")

	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("JWT_SECRET es obligatorio")
	}

	ctx := context.Background()
	var tx repository.TxRunner
	switch cfg.App.Storage {
	case "memory":
		store := memory.NewStore()
		if err := loadCatalog(store, cfg.App); err != nil {
			log.Fatal().Err(err).Msg("cargar catálogo")
		}
		tx = store
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		if err := postgres.Migrate(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("migración del esquema")
		}
		tx = postgres.NewTxRunner(pool)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	syncUC := loadsync.NewUseCase(tx, log, m)
	inventoryUC := inventory.NewUseCase(tx, cfg.Billing.VelocityWindowDays, log, m)
	billingUC := billing.NewUseCase(tx, billing.Rates{
		StorageGraceDays: cfg.Billing.StorageGraceDays,
		StorageDailyRate: cfg.Billing.StorageDailyRate,
		PalletUnitPrice:  cfg.Billing.PalletUnitPrice,
	}, log, m)
	closingUC := closing.NewUseCase(tx, log, m)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
		BodyLimit:    16 * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			status := fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
			if status >= fiber.StatusInternalServerError {
				log.Error().Err(err).Str("path", c.Path()).Msg("error no controlado")
			}
			return c.Status(status).JSON(dto.ErrorResponse{Code: "HTTP_ERROR", Message: err.Error()})
		},
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Consumibles API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "storage": cfg.App.Storage})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	httpRouter.Router(app, httpRouter.RouterDeps{
		Sync:      syncUC,
		Inventory: inventoryUC,
		Billing:   billingUC,
		Closing:   closingUC,
		JWTSecret: cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

func loadCatalog(store *memory.Store, cfg config.AppConfig) error {
	if cfg.CatalogFile == "" {
		return nil
	}
	f, err := os.Open(cfg.CatalogFile)
	if err != nil {
		return err
	}
	defer f.Close()
	articles, err := catalog.Read(f, cfg.CatalogCharset)
	if err != nil {
		return err
	}
	store.PutArticles(articles...)
	return nil
}
