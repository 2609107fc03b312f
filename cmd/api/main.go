package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	_ "github.com/jhoicas/weight-dispute-api/docs"
	"github.com/jhoicas/weight-dispute-api/internal/app"
	"github.com/jhoicas/weight-dispute-api/internal/application/webhook"
	httpRouter "github.com/jhoicas/weight-dispute-api/internal/interfaces/http"
	"github.com/jhoicas/weight-dispute-api/pkg/config"
	"github.com/jhoicas/weight-dispute-api/pkg/logger"
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
		Str("db_driver", cfg.DB.Driver).
		Msg("iniciando aplicación")

	ctx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()

	c, err := app.Build(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar dependencias")
	}
	defer c.Close()

	schedulerDone := make(chan error, 1)
	go func() { schedulerDone <- c.Scheduler(log).Run(ctx) }()

	srv := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  time.Second * 60,
		// 1 MB extra sobre el límite de evidencia para el sobre multipart.
		BodyLimit: (cfg.HTTP.BodyLimitMB + 1) * 1024 * 1024,
	})
	srv.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	srv.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Weight Dispute API",
	}))

	if len(cfg.Webhook.Tokens) == 0 {
		log.Warn().Msg("WEBHOOK_TOKENS vacío: webhooks sin autenticación")
	}
	httpRouter.Router(srv, httpRouter.RouterDeps{
		Webhooks:        httpRouter.NewWebhookHandler(webhook.DefaultRegistry(), c.Detector, c.Manager, cfg.Webhook.Tokens, log),
		Shipments:       httpRouter.NewShipmentHandler(c.Shipments),
		Disputes:        httpRouter.NewDisputeHandler(c.Manager),
		SKUs:            httpRouter.NewSKUHandler(c.Learner),
		Reconciliations: httpRouter.NewReconciliationHandler(c.Reconciler),
		Settings:        httpRouter.NewSettingsHandler(c.Settings, c.Analyzer),
		Health:          httpRouter.NewHealthHandler(cfg.App.Name, c.Usage),
		JWTSecret:       cfg.JWT.Secret,
	})

	go func() {
		if err := srv.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	stopWorkers()
	if err := <-schedulerDone; err != nil {
		log.Error().Err(err).Msg("trabajos periódicos")
	}

	log.Info().Msg("aplicación detenida")
}
