// reconcile concilia un archivo MIS de facturación desde la línea de comandos (cron).
//
// Uso: go run ./cmd/reconcile -carrier velocity -month 2024-06 -file mis_junio.xlsx [-out ./reportes]
// Con -out escribe el reporte en cada formato configurado (json, xlsx, pdf).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/jhoicas/weight-dispute-api/internal/app"
	"github.com/jhoicas/weight-dispute-api/internal/application/reconciliation"
	"github.com/jhoicas/weight-dispute-api/pkg/config"
	"github.com/jhoicas/weight-dispute-api/pkg/logger"
)

func main() {
	carrierID := flag.String("carrier", "", "transportadora del archivo MIS")
	month := flag.String("month", "", "mes de facturación AAAA-MM")
	file := flag.String("file", "", "ruta del archivo MIS (.csv o .xlsx)")
	outDir := flag.String("out", "", "directorio para guardar los reportes (opcional)")
	flag.Parse()

	if *carrierID == "" || *month == "" || *file == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	content, err := os.ReadFile(*file)
	if err != nil {
		log.Fatal().Err(err).Str("file", *file).Msg("leer archivo MIS")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := app.Build(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar dependencias")
	}
	defer c.Close()

	rep, err := c.Reconciler.Run(ctx, reconciliation.Input{
		CarrierID:    *carrierID,
		BillingMonth: *month,
		Filename:     filepath.Base(*file),
		Content:      content,
		CreatedBy:    "cli",
	})
	if err != nil {
		c.Close()
		log.Fatal().Err(err).Msg("conciliación fallida")
	}

	run := rep.Run
	log.Info().
		Str("run_id", run.ID).
		Int("version", run.Version).
		Int("rows", run.Counts.TotalRows).
		Int("disputes_created", run.Counts.DisputesCreated).
		Msg("conciliación completada")

	if *outDir == "" {
		return
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		c.Close()
		log.Fatal().Err(err).Msg("crear directorio de salida")
	}
	for _, format := range c.Reconciler.Formats() {
		data, _, err := c.Reconciler.Report(ctx, run.ID, format)
		if err != nil {
			log.Error().Err(err).Str("format", format).Msg("generar reporte")
			continue
		}
		path := filepath.Join(*outDir, fmt.Sprintf("conciliacion-%s-v%d.%s", run.CarrierID, run.Version, format))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			log.Error().Err(err).Str("path", path).Msg("escribir reporte")
			continue
		}
		fmt.Println(path)
	}
}
