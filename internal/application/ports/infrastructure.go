package ports

import (
	"context"
	"time"

	"github.com/jhoicas/weight-dispute-api/internal/domain/entity"
	"github.com/jhoicas/weight-dispute-api/internal/domain/repository"
)

// TxRunner ejecuta fn dentro de una transacción con todos los repositorios atados a ella.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos repository.TxRepos) error) error
}

// Locker exclusión mutua por clave (envío, SKU, liquidación).
type Locker interface {
	// Lock devuelve domain.ErrLockNotObtained si no lo consigue antes de que venza ctx o el reintento.
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// ObjectStore artefactos binarios (evidencias, reportes).
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (url string, err error)
	Get(ctx context.Context, key string) ([]byte, error)
}

// ZoneCache caché de zonas por par origen/destino.
type ZoneCache interface {
	Get(ctx context.Context, key string) (entity.Zone, bool, error)
	Set(ctx context.Context, key string, zone entity.Zone, ttl time.Duration) error
}

// MISParser interpreta el archivo de liquidación de la transportadora.
type MISParser interface {
	Parse(content []byte, filename string) ([]entity.InvoiceRow, []entity.RowError, error)
}

// ReportRenderer genera un formato del reporte de conciliación.
type ReportRenderer interface {
	Format() string
	ContentType() string
	Render(report *entity.ReconciliationReport) ([]byte, error)
}
