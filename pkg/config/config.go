package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App        AppConfig
	DB         DBConfig
	JWT        JWTConfig
	HTTP       HTTPConfig
	Redis      RedisConfig
	Pricing    PricingConfig
	Carrier    CarrierConfig
	Settlement SettlementConfig
	PubSub     PubSubConfig
	Storage    StorageConfig
	AI         AIConfig
	Dispute    DisputeConfig
	Fraud      FraudConfig
	Webhook    WebhookConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env      string // development, staging, production
	Name     string
	LogLevel string
}

// DBConfig configuración de PostgreSQL.
// Driver "memory" levanta el almacenamiento en memoria (demo y pruebas locales).
type DBConfig struct {
	Driver      string
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	MaxConns    int
}

// ConnectionString devuelve el DSN a usar: DATABASE_URL si está definido, si no el construido con DSN().
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN devuelve el connection string para PostgreSQL con URL encoding para caracteres especiales.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

// JWTConfig configuración de JWT.
type JWTConfig struct {
	Secret string
	Issuer string
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host         string
	Port         int
	BodyLimitMB  int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RedisConfig conexión a Redis (locks por envío y caché de zonas). Addr vacío = modo en memoria.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	LockTTL  time.Duration
	ZoneTTL  time.Duration

	// JobLockTTL vida del bloqueo de procesos por lote (conciliación MIS).
	JobLockTTL time.Duration
}

// PricingConfig motor de tarifas externo.
type PricingConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// CarrierConfig canales de envío de disputas a transportadoras.
// Channels mapea carrier -> canal ("api", "xml", "email"); Endpoints y Emails por carrier.
type CarrierConfig struct {
	Channels       map[string]string
	Endpoints      map[string]string
	IntakeEmails   map[string]string
	APIKey         string
	Timeout        time.Duration
	ClientCertPath string // .p12 para mTLS en el canal XML
	ClientCertPass string
}

// SettlementConfig libro contable (wallet) externo.
type SettlementConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// PubSubConfig notificaciones vía Google Pub/Sub. ProjectID vacío = notificaciones solo a log.
type PubSubConfig struct {
	ProjectID       string
	Topic           string
	CredentialsJSON string
}

// StorageConfig artefactos (evidencias y reportes). Bucket vacío = disco local en LocalDir.
type StorageConfig struct {
	Bucket          string
	CredentialsJSON string
	LocalDir        string
	PublicBaseURL   string
}

// AIConfig proveedor de visión para inspeccionar evidencias ("anthropic", "gemini" o vacío).
type AIConfig struct {
	Provider        string
	AnthropicAPIKey string
	AnthropicModel  string
	GeminiAPIKey    string
	GeminiModel     string
}

// DisputeConfig reglas del ciclo de vida de disputas.
type DisputeConfig struct {
	ThresholdPercent     float64
	GracePeriod          time.Duration
	HighValueAmount      float64
	SweepInterval        time.Duration
	SubmissionAttempts   int
	SubmissionBackoff    time.Duration
	StuckSubmissionAfter time.Duration
	SettlementRetryEvery time.Duration
	DimDivisor           float64
	BillingLeadDays      int
}

// FraudConfig análisis periódico de patrones de fraude.
type FraudConfig struct {
	Interval       time.Duration
	Window         time.Duration
	ScoreThreshold float64
	Workers        int
	MinDisputes    int
	BulkThreshold  int
}

// WebhookConfig tokens compartidos por transportadora (header X-Webhook-Token).
type WebhookConfig struct {
	Tokens map[string]string
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, DB_HOST, REDIS_ADDR, DISPUTE_THRESHOLD_PERCENT, etc.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig()

	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		App: AppConfig{
			Env:      getString(v, "APP_ENV", "development"),
			Name:     getString(v, "APP_NAME", "weight-dispute-api"),
			LogLevel: getString(v, "LOG_LEVEL", "info"),
		},
		DB: DBConfig{
			Driver:      getString(v, "DB_DRIVER", "postgres"),
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "weight_disputes"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
			MaxConns:    getInt(v, "DB_MAX_CONNS", 25),
		},
		JWT: JWTConfig{
			Secret: getString(v, "JWT_SECRET", ""),
			Issuer: getString(v, "JWT_ISSUER", "weight-dispute-api"),
		},
		HTTP: HTTPConfig{
			Host:         getString(v, "HTTP_HOST", "0.0.0.0"),
			Port:         getInt(v, "HTTP_PORT", 8080),
			BodyLimitMB:  getInt(v, "HTTP_BODY_LIMIT_MB", 25),
			ReadTimeout:  getDuration(v, "HTTP_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getDuration(v, "HTTP_WRITE_TIMEOUT", 30*time.Second),
		},
		Redis: RedisConfig{
			Addr:       getString(v, "REDIS_ADDR", ""),
			Password:   getString(v, "REDIS_PASSWORD", ""),
			DB:         getInt(v, "REDIS_DB", 0),
			LockTTL:    getDuration(v, "REDIS_LOCK_TTL", 30*time.Second),
			JobLockTTL: getDuration(v, "REDIS_JOB_LOCK_TTL", 30*time.Minute),
			ZoneTTL:    getDuration(v, "REDIS_ZONE_TTL", 24*time.Hour),
		},
		Pricing: PricingConfig{
			BaseURL: getString(v, "PRICING_BASE_URL", ""),
			APIKey:  getString(v, "PRICING_API_KEY", ""),
			Timeout: getDuration(v, "PRICING_TIMEOUT", 3*time.Second),
		},
		Carrier: CarrierConfig{
			Channels:       getMap(v, "CARRIER_CHANNELS"),
			Endpoints:      getMap(v, "CARRIER_ENDPOINTS"),
			IntakeEmails:   getMap(v, "CARRIER_INTAKE_EMAILS"),
			APIKey:         getString(v, "CARRIER_API_KEY", ""),
			Timeout:        getDuration(v, "CARRIER_TIMEOUT", 10*time.Second),
			ClientCertPath: getString(v, "CARRIER_CLIENT_CERT_PATH", ""),
			ClientCertPass: getString(v, "CARRIER_CLIENT_CERT_PASSWORD", ""),
		},
		Settlement: SettlementConfig{
			BaseURL: getString(v, "LEDGER_BASE_URL", ""),
			APIKey:  getString(v, "LEDGER_API_KEY", ""),
			Timeout: getDuration(v, "LEDGER_TIMEOUT", 5*time.Second),
		},
		PubSub: PubSubConfig{
			ProjectID:       getString(v, "PUBSUB_PROJECT_ID", ""),
			Topic:           getString(v, "PUBSUB_TOPIC", "weight-dispute-notifications"),
			CredentialsJSON: getString(v, "PUBSUB_CREDENTIALS_JSON", ""),
		},
		Storage: StorageConfig{
			Bucket:          getString(v, "GCS_BUCKET", ""),
			CredentialsJSON: getString(v, "GCS_CREDENTIALS_JSON", ""),
			LocalDir:        getString(v, "STORAGE_LOCAL_DIR", "./data"),
			PublicBaseURL:   getString(v, "STORAGE_PUBLIC_BASE_URL", ""),
		},
		AI: AIConfig{
			Provider:        getString(v, "AI_PROVIDER", ""),
			AnthropicAPIKey: getString(v, "ANTHROPIC_API_KEY", ""),
			AnthropicModel:  getString(v, "ANTHROPIC_MODEL", "claude-3-5-haiku-20241022"),
			GeminiAPIKey:    getString(v, "GEMINI_API_KEY", ""),
			GeminiModel:     getString(v, "GEMINI_MODEL", "gemini-1.5-flash"),
		},
		Dispute: DisputeConfig{
			ThresholdPercent:     getFloat(v, "DISPUTE_THRESHOLD_PERCENT", 5),
			GracePeriod:          getDuration(v, "DISPUTE_GRACE_PERIOD", 7*24*time.Hour),
			HighValueAmount:      getFloat(v, "DISPUTE_HIGH_VALUE_AMOUNT", 500),
			SweepInterval:        getDuration(v, "DISPUTE_SWEEP_INTERVAL", time.Minute),
			SubmissionAttempts:   getInt(v, "DISPUTE_SUBMISSION_ATTEMPTS", 3),
			SubmissionBackoff:    getDuration(v, "DISPUTE_SUBMISSION_BACKOFF", 2*time.Second),
			StuckSubmissionAfter: getDuration(v, "DISPUTE_STUCK_SUBMISSION_AFTER", 15*time.Minute),
			SettlementRetryEvery: getDuration(v, "DISPUTE_SETTLEMENT_RETRY_INTERVAL", 5*time.Minute),
			DimDivisor:           getFloat(v, "DISPUTE_DIM_DIVISOR", 5000),
			BillingLeadDays:      getInt(v, "RECONCILIATION_BILLING_LEAD_DAYS", 15),
		},
		Fraud: FraudConfig{
			Interval:       getDuration(v, "FRAUD_INTERVAL", time.Hour),
			Window:         getDuration(v, "FRAUD_WINDOW", 30*24*time.Hour),
			ScoreThreshold: getFloat(v, "FRAUD_SCORE_THRESHOLD", 0.7),
			Workers:        getInt(v, "FRAUD_WORKERS", 4),
			MinDisputes:    getInt(v, "FRAUD_MIN_DISPUTES", 5),
			BulkThreshold:  getInt(v, "FRAUD_BULK_THRESHOLD", 10),
		},
		Webhook: WebhookConfig{
			Tokens: getMap(v, "WEBHOOK_TOKENS"),
		},
	}

	if cfg.DB.Driver != "postgres" && cfg.DB.Driver != "memory" {
		return nil, fmt.Errorf("config: DB_DRIVER inválido %q", cfg.DB.Driver)
	}
	return cfg, nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
			if err != nil {
				return def
			}
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

func getFloat(v *viper.Viper, key string, def float64) float64 {
	if v.IsSet(key) {
		f, err := strconv.ParseFloat(strings.TrimSpace(v.GetString(key)), 64)
		if err != nil {
			return def
		}
		return f
	}
	return def
}

func getDuration(v *viper.Viper, key string, def time.Duration) time.Duration {
	if v.IsSet(key) {
		d, err := time.ParseDuration(strings.TrimSpace(v.GetString(key)))
		if err != nil {
			return def
		}
		return d
	}
	return def
}

// getMap lee pares "clave=valor" separados por coma: "velocity=api,ekart=email".
func getMap(v *viper.Viper, key string) map[string]string {
	out := map[string]string{}
	if !v.IsSet(key) {
		return out
	}
	return ParsePairs(v.GetString(key))
}

// ParsePairs convierte "a=1,b=2" en un mapa. Las claves se normalizan a minúsculas.
func ParsePairs(raw string) map[string]string {
	out := map[string]string{}
	for _, part := range strings.Split(raw, ",") {
		k, val, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		out[k] = strings.TrimSpace(val)
	}
	return out
}
