// Package app arma el grafo de dependencias compartido por el servidor y la CLI de conciliación.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/weight-dispute-api/internal/application/detection"
	"github.com/jhoicas/weight-dispute-api/internal/application/dispute"
	"github.com/jhoicas/weight-dispute-api/internal/application/evidence"
	"github.com/jhoicas/weight-dispute-api/internal/application/fraud"
	"github.com/jhoicas/weight-dispute-api/internal/application/ports"
	"github.com/jhoicas/weight-dispute-api/internal/application/pricing"
	"github.com/jhoicas/weight-dispute-api/internal/application/reconciliation"
	"github.com/jhoicas/weight-dispute-api/internal/application/settings"
	"github.com/jhoicas/weight-dispute-api/internal/application/shipment"
	"github.com/jhoicas/weight-dispute-api/internal/application/skuweight"
	"github.com/jhoicas/weight-dispute-api/internal/application/worker"
	"github.com/jhoicas/weight-dispute-api/internal/domain/repository"
	"github.com/jhoicas/weight-dispute-api/internal/infrastructure/ai"
	"github.com/jhoicas/weight-dispute-api/internal/infrastructure/carrier"
	"github.com/jhoicas/weight-dispute-api/internal/infrastructure/imagequality"
	"github.com/jhoicas/weight-dispute-api/internal/infrastructure/ledger"
	"github.com/jhoicas/weight-dispute-api/internal/infrastructure/memory"
	"github.com/jhoicas/weight-dispute-api/internal/infrastructure/misfile"
	"github.com/jhoicas/weight-dispute-api/internal/infrastructure/notification"
	"github.com/jhoicas/weight-dispute-api/internal/infrastructure/postgres"
	"github.com/jhoicas/weight-dispute-api/internal/infrastructure/pricingapi"
	infraredis "github.com/jhoicas/weight-dispute-api/internal/infrastructure/redis"
	"github.com/jhoicas/weight-dispute-api/internal/infrastructure/report"
	"github.com/jhoicas/weight-dispute-api/internal/infrastructure/storage"
	"github.com/jhoicas/weight-dispute-api/pkg/config"
	"github.com/jhoicas/weight-dispute-api/pkg/logger"
)

// Repos repositorios del backend elegido (PostgreSQL o memoria).
type Repos struct {
	Tx              ports.TxRunner
	Shipments       repository.ShipmentRepository
	Disputes        repository.DisputeRepository
	Settlements     repository.SettlementRepository
	SKUWeights      repository.SKUWeightRepository
	Reconciliations repository.ReconciliationRepository
	Settings        repository.SettingsRepository
	Assessments     repository.FraudAssessmentRepository
	ZoneOverrides   repository.ZoneOverrideRepository
}

// Container servicios de aplicación listos para usar.
type Container struct {
	Repos      Repos
	Locker     ports.Locker
	JobLocker  ports.Locker
	Objects    ports.ObjectStore
	Notifier   ports.NotificationSender
	Usage      *pricing.Usage
	Settings   *settings.Service
	Learner    *skuweight.Learner
	Manager    *dispute.Manager
	Detector   *detection.Detector
	Reconciler *reconciliation.Reconciler
	Analyzer   *fraud.Analyzer
	Shipments  *shipment.Service

	cfg     *config.Config
	closers []func()
}

// Build conecta almacenamiento, bloqueos, artefactos, notificaciones y colaboradores externos.
// Ante un error libera lo que ya se abrió.
func Build(ctx context.Context, cfg *config.Config, log *logger.Logger) (_ *Container, err error) {
	c := &Container{cfg: cfg, Usage: &pricing.Usage{}}
	defer func() {
		if err != nil {
			c.Close()
		}
	}()

	if err = c.openRepos(ctx, log); err != nil {
		return nil, err
	}

	var zoneCache ports.ZoneCache
	if cfg.Redis.Addr != "" {
		connectCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
		rdb, cerr := infraredis.Connect(connectCtx, cfg.Redis, log)
		cancel()
		if cerr != nil {
			return nil, cerr
		}
		c.closers = append(c.closers, func() { _ = rdb.Close() })
		c.Locker = infraredis.NewLocker(rdb, cfg.Redis.LockTTL, log)
		c.JobLocker = infraredis.NewLocker(rdb, cfg.Redis.JobLockTTL, log)
		zoneCache = infraredis.NewZoneCache(rdb)
	} else {
		log.Warn().Msg("REDIS_ADDR vacío: bloqueos y caché de zonas en memoria (una sola instancia)")
		c.Locker = memory.NewLocker()
		c.JobLocker = c.Locker
		zoneCache = memory.NewZoneCache()
	}

	if cfg.Storage.Bucket != "" {
		gcs, serr := storage.NewGCSStore(ctx, cfg.Storage)
		if serr != nil {
			return nil, fmt.Errorf("cloud storage: %w", serr)
		}
		c.closers = append(c.closers, func() { _ = gcs.Close() })
		c.Objects = gcs
	} else {
		local, serr := storage.NewLocalStore(cfg.Storage.LocalDir, cfg.Storage.PublicBaseURL)
		if serr != nil {
			return nil, fmt.Errorf("almacenamiento local: %w", serr)
		}
		c.Objects = local
	}

	if cfg.PubSub.ProjectID != "" {
		ps, perr := notification.NewPubSubSender(ctx, cfg.PubSub, log)
		if perr != nil {
			return nil, fmt.Errorf("pub/sub: %w", perr)
		}
		c.closers = append(c.closers, func() { _ = ps.Close() })
		c.Notifier = ps
	} else {
		c.Notifier = notification.NewLogSender(log)
	}

	// Canales de envío a transportadoras: API JSON, XML firmado (mTLS) o correo vía notificaciones.
	submitter := carrier.NewRouter(cfg.Carrier.Channels).
		Register(carrier.ChannelAPI, carrier.NewHTTPSubmitter(cfg.Carrier.Endpoints, cfg.Carrier.APIKey, cfg.Carrier.Timeout)).
		Register(carrier.ChannelEmail, carrier.NewEmailSubmitter(cfg.Carrier.IntakeEmails, c.Notifier))
	if cfg.Carrier.ClientCertPath != "" {
		cert, lerr := carrier.LoadP12(cfg.Carrier.ClientCertPath, cfg.Carrier.ClientCertPass)
		if lerr != nil {
			return nil, fmt.Errorf("certificado del canal XML: %w", lerr)
		}
		submitter.Register(carrier.ChannelXML, carrier.NewXMLSubmitter(cfg.Carrier.Endpoints, &cert, cfg.Carrier.Timeout))
	}

	zones := pricing.NewZoneResolver(c.Repos.ZoneOverrides, zoneCache, cfg.Redis.ZoneTTL, log)
	impact := pricing.NewImpactCalculator(pricingapi.NewClient(cfg.Pricing), zones, c.Usage, log)

	c.Settings = settings.NewService(c.Repos.Settings, settings.Defaults{
		ThresholdPercent: cfg.Dispute.ThresholdPercent,
		HighValueAmount:  decimal.NewFromFloat(cfg.Dispute.HighValueAmount),
	}, log)
	c.Learner = skuweight.NewLearner(c.Repos.Tx, c.Repos.SKUWeights, c.Locker, log)
	validator := evidence.NewValidator(ai.NewInspector(cfg.AI), imagequality.NewScorer(), log)

	disputeCfg := dispute.DefaultConfig()
	disputeCfg.GracePeriod = cfg.Dispute.GracePeriod
	disputeCfg.HighValueAmount = decimal.NewFromFloat(cfg.Dispute.HighValueAmount)
	disputeCfg.SubmissionAttempts = cfg.Dispute.SubmissionAttempts
	disputeCfg.SubmissionBackoff = cfg.Dispute.SubmissionBackoff
	disputeCfg.StuckAfter = cfg.Dispute.StuckSubmissionAfter
	c.Manager = dispute.NewManager(dispute.Deps{
		Tx:          c.Repos.Tx,
		Disputes:    c.Repos.Disputes,
		Shipments:   c.Repos.Shipments,
		Settlements: c.Repos.Settlements,
		Locker:      c.Locker,
		Submitter:   submitter,
		Ledger:      ledger.NewClient(cfg.Settlement),
		Notifier:    c.Notifier,
		Validator:   validator,
		Store:       c.Objects,
		Pricer:      impact,
		Learner:     c.Learner,
		Log:         log,
	}, disputeCfg)

	c.Detector = detection.NewDetector(detection.Deps{
		Tx:         c.Repos.Tx,
		Shipments:  c.Repos.Shipments,
		Disputes:   c.Repos.Disputes,
		Locker:     c.Locker,
		Settings:   c.Settings,
		Impact:     impact,
		Opener:     c.Manager,
		Learner:    c.Learner,
		DimDivisor: cfg.Dispute.DimDivisor,
		Log:        log,
	})

	c.Reconciler = reconciliation.NewReconciler(reconciliation.Deps{
		Tx:              c.Repos.Tx,
		Shipments:       c.Repos.Shipments,
		Disputes:        c.Repos.Disputes,
		Reconciliations: c.Repos.Reconciliations,
		Locker:          c.Locker,
		RunLocker:       c.JobLocker,
		Parser:          misfile.NewParser(),
		Store:           c.Objects,
		Renderers:       report.All(),
		Settings:        c.Settings,
		Impact:          impact,
		Opener:          c.Manager,
		DimDivisor:      cfg.Dispute.DimDivisor,
		LeadDays:        cfg.Dispute.BillingLeadDays,
		Log:             log,
	})

	c.Analyzer = fraud.NewAnalyzer(c.Repos.Disputes, c.Repos.Settings, c.Repos.Assessments, c.Settings, c.Manager, fraud.Config{
		Window:         cfg.Fraud.Window,
		ScoreThreshold: cfg.Fraud.ScoreThreshold,
		MinDisputes:    cfg.Fraud.MinDisputes,
		BulkThreshold:  cfg.Fraud.BulkThreshold,
		Workers:        cfg.Fraud.Workers,
	}, log)
	c.Shipments = shipment.NewService(c.Repos.Shipments, c.Learner, log)
	return c, nil
}

// Scheduler trabajos periódicos: barrido de vencidas, envíos atascados, liquidaciones y fraude.
func (c *Container) Scheduler(log *logger.Logger) *worker.Scheduler {
	return worker.NewScheduler(c.Locker, log,
		worker.Job{Name: "auto_resolve", Interval: c.cfg.Dispute.SweepInterval, Run: func(ctx context.Context) (int, error) {
			return c.Manager.AutoResolveSweep(ctx, time.Now())
		}},
		worker.Job{Name: "stuck_submissions", Interval: c.cfg.Dispute.SweepInterval, Run: c.Manager.RecoverStuckSubmissions},
		worker.Job{Name: "settlement_retry", Interval: c.cfg.Dispute.SettlementRetryEvery, Run: c.Manager.RetryPendingSettlements},
		worker.Job{Name: "fraud_analysis", Interval: c.cfg.Fraud.Interval, Run: c.Analyzer.RunAll},
	)
}

// Close espera las tareas asíncronas del Manager y cierra las conexiones en orden inverso.
func (c *Container) Close() {
	if c.Manager != nil {
		c.Manager.Wait()
	}
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

func (c *Container) openRepos(ctx context.Context, log *logger.Logger) error {
	switch c.cfg.DB.Driver {
	case "memory":
		log.Warn().Msg("DB_DRIVER=memory: los datos se pierden al reiniciar")
		st := memory.NewStore()
		c.Repos = Repos{
			Tx:              st,
			Shipments:       st.Shipments(),
			Disputes:        st.Disputes(),
			Settlements:     st.Settlements(),
			SKUWeights:      st.SKUWeights(),
			Reconciliations: st.Reconciliations(),
			Settings:        st.Settings(),
			Assessments:     st.FraudAssessments(),
			ZoneOverrides:   st.ZoneOverrides(),
		}
		return nil
	case "postgres":
	default:
		return errors.New("DB_DRIVER debe ser postgres o memory")
	}

	pool, err := postgres.NewPool(ctx, c.cfg.DB)
	if err != nil {
		return err
	}
	c.closers = append(c.closers, pool.Close)
	applied, err := postgres.Migrate(ctx, pool)
	if err != nil {
		return err
	}
	if len(applied) > 0 {
		log.Info().Strs("migrations", applied).Msg("migraciones aplicadas")
	}
	c.Repos = Repos{
		Tx:              postgres.NewTxRunner(pool),
		Shipments:       postgres.NewShipmentRepository(pool),
		Disputes:        postgres.NewDisputeRepository(pool),
		Settlements:     postgres.NewSettlementRepository(pool),
		SKUWeights:      postgres.NewSKUWeightRepository(pool),
		Reconciliations: postgres.NewReconciliationRepository(pool),
		Settings:        postgres.NewSettingsRepository(pool),
		Assessments:     postgres.NewFraudAssessmentRepository(pool),
		ZoneOverrides:   postgres.NewZoneOverrideRepository(pool),
	}
	return nil
}
