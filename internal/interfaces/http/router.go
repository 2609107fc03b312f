package http

import (
	"github.com/gofiber/fiber/v2"
)

// RouterDeps handlers y secreto JWT para el router.
type RouterDeps struct {
	Webhooks        *WebhookHandler
	Shipments       *ShipmentHandler
	Disputes        *DisputeHandler
	SKUs            *SKUHandler
	Reconciliations *ReconciliationHandler
	Settings        *SettingsHandler
	Health          *HealthHandler
	JWTSecret       string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", deps.Health.Health)

	api := app.Group("/api")

	// Webhooks de transportadoras (token compartido, sin JWT)
	hooks := api.Group("/webhooks/:carrier", deps.Webhooks.VerifyToken)
	hooks.Post("/", deps.Webhooks.Ingest)
	hooks.Post("/responses", deps.Webhooks.CarrierResponse)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))
	staff := RequireRole(RoleAdmin, RoleReviewer)

	shipments := protected.Group("/shipments")
	shipments.Post("/", deps.Shipments.Create)
	shipments.Get("/:id", deps.Shipments.GetByID)

	disputes := protected.Group("/disputes")
	disputes.Get("/", deps.Disputes.List)
	disputes.Get("/:id", deps.Disputes.Get)
	disputes.Post("/:id/evidence", deps.Disputes.AddEvidence)
	disputes.Post("/:id/accept", deps.Disputes.Accept)
	disputes.Post("/:id/reject", deps.Disputes.Reject)
	disputes.Post("/:id/review", staff, deps.Disputes.Review)

	skus := protected.Group("/skus")
	skus.Get("/:sku", deps.SKUs.Get)
	skus.Get("/:sku/suggestion", deps.SKUs.Suggest)
	skus.Post("/:sku/freeze", deps.SKUs.Freeze)
	skus.Delete("/:sku/freeze", deps.SKUs.Unfreeze)

	// Conciliación: solo staff
	recon := protected.Group("/reconciliations", staff)
	recon.Post("/", deps.Reconciliations.Upload)
	recon.Get("/", deps.Reconciliations.List)
	recon.Get("/:id", deps.Reconciliations.Get)
	recon.Get("/:id/report", deps.Reconciliations.Report)

	protected.Get("/settings", deps.Settings.Get)
	protected.Put("/settings", deps.Settings.Update)

	fraud := protected.Group("/fraud", staff)
	fraud.Get("/:company_id", deps.Settings.LatestFraud)
	fraud.Post("/:company_id/analyze", RequireRole(RoleAdmin), deps.Settings.AnalyzeFraud)
	fraud.Delete("/:company_id/flag", RequireRole(RoleAdmin), deps.Settings.ClearFraudFlag)

	protected.Get("/pricing/usage", staff, deps.Health.PricingUsage)
}
