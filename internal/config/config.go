package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/doyaji/rift-rewind/internal/platform/logging"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv         string
	ServiceName    string
	ServiceVersion string
	HTTPAddr       string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration

	CORSAllowedOrigins []string
	LogLevel           logging.Level

	// DBURL is optional; when empty the collection run audit trail is
	// disabled and a noop repository is wired instead.
	DBURL string

	RiotTimeout               time.Duration
	RiotMaxAttempts           int
	RiotTokenSecretName       string
	RiotSecretsDir            string
	RiotCircuitFailureCount   int
	RiotCircuitOpenTimeout    time.Duration
	RiotCircuitHalfOpenSucces int

	StorageEnabled  bool
	StorageEndpoint string
	StorageAccess   string
	StorageSecret   string
	StorageBucket   string
	StorageUseSSL   bool
	ChampionDataKey string

	CollectDefaultMatchCount int
	CollectMatchTimeout      time.Duration
	CollectMasteryTimeout    time.Duration

	PprofEnabled bool
	PprofAddr    string

	UptraceEnabled bool
	UptraceDSN     string

	PyroscopeEnabled       bool
	PyroscopeServerAddress string
	PyroscopeAppName       string
	PyroscopeAuthToken     string
	PyroscopeUploadRate    time.Duration
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	riotTimeout, err := time.ParseDuration(getEnv("RIOT_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse RIOT_TIMEOUT: %w", err)
	}
	if riotTimeout <= 0 {
		return Config{}, fmt.Errorf("RIOT_TIMEOUT must be > 0")
	}
	riotMaxAttempts, err := getEnvAsInt("RIOT_MAX_ATTEMPTS", 3)
	if err != nil {
		return Config{}, fmt.Errorf("parse RIOT_MAX_ATTEMPTS: %w", err)
	}
	if riotMaxAttempts < 1 {
		return Config{}, fmt.Errorf("RIOT_MAX_ATTEMPTS must be >= 1")
	}
	riotCircuitFailureCount, err := getEnvAsInt("RIOT_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse RIOT_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if riotCircuitFailureCount < 1 {
		return Config{}, fmt.Errorf("RIOT_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	riotCircuitOpenTimeout, err := time.ParseDuration(getEnv("RIOT_CIRCUIT_OPEN_TIMEOUT", "30s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse RIOT_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if riotCircuitOpenTimeout <= 0 {
		return Config{}, fmt.Errorf("RIOT_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}
	riotCircuitHalfOpenSuccesses, err := getEnvAsInt("RIOT_CIRCUIT_HALF_OPEN_SUCCESSES", 1)
	if err != nil {
		return Config{}, fmt.Errorf("parse RIOT_CIRCUIT_HALF_OPEN_SUCCESSES: %w", err)
	}
	if riotCircuitHalfOpenSuccesses < 1 {
		return Config{}, fmt.Errorf("RIOT_CIRCUIT_HALF_OPEN_SUCCESSES must be >= 1")
	}

	storageEnabled, err := strconv.ParseBool(getEnv("STORAGE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse STORAGE_ENABLED: %w", err)
	}
	storageEndpoint := strings.TrimSpace(getEnv("STORAGE_ENDPOINT", ""))
	storageBucket := strings.TrimSpace(getEnv("STORAGE_BUCKET", "rift-rewind"))
	storageUseSSL, err := strconv.ParseBool(getEnv("STORAGE_USE_SSL", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse STORAGE_USE_SSL: %w", err)
	}
	if storageEnabled {
		if storageEndpoint == "" {
			return Config{}, fmt.Errorf("STORAGE_ENDPOINT is required when STORAGE_ENABLED=true")
		}
		if storageBucket == "" {
			return Config{}, fmt.Errorf("STORAGE_BUCKET is required when STORAGE_ENABLED=true")
		}
	}

	collectDefaultMatchCount, err := getEnvAsInt("COLLECT_DEFAULT_MATCH_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse COLLECT_DEFAULT_MATCH_COUNT: %w", err)
	}
	if collectDefaultMatchCount < 1 || collectDefaultMatchCount > 20 {
		return Config{}, fmt.Errorf("COLLECT_DEFAULT_MATCH_COUNT must be between 1 and 20")
	}
	collectMatchTimeout, err := time.ParseDuration(getEnv("COLLECT_MATCH_TIMEOUT", "50s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse COLLECT_MATCH_TIMEOUT: %w", err)
	}
	if collectMatchTimeout <= 0 {
		return Config{}, fmt.Errorf("COLLECT_MATCH_TIMEOUT must be > 0")
	}
	collectMasteryTimeout, err := time.ParseDuration(getEnv("COLLECT_MASTERY_TIMEOUT", "30s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse COLLECT_MASTERY_TIMEOUT: %w", err)
	}
	if collectMasteryTimeout <= 0 {
		return Config{}, fmt.Errorf("COLLECT_MASTERY_TIMEOUT must be > 0")
	}

	pprofEnabled, err := strconv.ParseBool(getEnv("PPROF_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}
	pprofAddr := strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))
	if pprofEnabled && pprofAddr == "" {
		return Config{}, fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceDSN == "" {
		uptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := time.ParseDuration(getEnv("PYROSCOPE_UPLOAD_RATE", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_UPLOAD_RATE: %w", err)
	}
	if pyroscopeUploadRate <= 0 {
		return Config{}, fmt.Errorf("PYROSCOPE_UPLOAD_RATE must be > 0")
	}

	readTimeout, err := time.ParseDuration(getEnv("APP_READ_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_READ_TIMEOUT: %w", err)
	}
	writeTimeout, err := time.ParseDuration(getEnv("APP_WRITE_TIMEOUT", "90s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_WRITE_TIMEOUT: %w", err)
	}

	cfg := Config{
		AppEnv:                    appEnv,
		ServiceName:               getEnv("APP_SERVICE_NAME", "rift-rewind-api"),
		ServiceVersion:            getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:                  getEnv("APP_HTTP_ADDR", ":8080"),
		ReadTimeout:               readTimeout,
		WriteTimeout:              writeTimeout,
		CORSAllowedOrigins:        splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		LogLevel:                  parseLogLevel(getEnv("APP_LOG_LEVEL", "info")),
		DBURL:                     strings.TrimSpace(getEnv("DB_URL", "")),
		RiotTimeout:               riotTimeout,
		RiotMaxAttempts:           riotMaxAttempts,
		RiotTokenSecretName:       getEnv("RIOT_TOKEN_SECRET_NAME", "riot-api-key"),
		RiotSecretsDir:            strings.TrimSpace(getEnv("RIOT_SECRETS_DIR", "")),
		RiotCircuitFailureCount:   riotCircuitFailureCount,
		RiotCircuitOpenTimeout:    riotCircuitOpenTimeout,
		RiotCircuitHalfOpenSucces: riotCircuitHalfOpenSuccesses,
		StorageEnabled:            storageEnabled,
		StorageEndpoint:           storageEndpoint,
		StorageAccess:             strings.TrimSpace(getEnv("STORAGE_ACCESS_KEY", "")),
		StorageSecret:             strings.TrimSpace(getEnv("STORAGE_SECRET_KEY", "")),
		StorageBucket:             storageBucket,
		StorageUseSSL:             storageUseSSL,
		ChampionDataKey:           strings.TrimSpace(getEnv("CHAMPION_DATA_KEY", "")),
		CollectDefaultMatchCount:  collectDefaultMatchCount,
		CollectMatchTimeout:       collectMatchTimeout,
		CollectMasteryTimeout:     collectMasteryTimeout,
		PprofEnabled:              pprofEnabled,
		PprofAddr:                 pprofAddr,
		UptraceEnabled:            uptraceEnabled,
		UptraceDSN:                uptraceDSN,
		PyroscopeEnabled:          pyroscopeEnabled,
		PyroscopeServerAddress:    pyroscopeServerAddress,
		PyroscopeAuthToken:        strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeUploadRate:       pyroscopeUploadRate,
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	if cfg.PyroscopeEnabled && cfg.PyroscopeAppName == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_APP_NAME cannot be empty when PYROSCOPE_ENABLED=true")
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}

	return cfg, nil
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	items := strings.Split(raw, ",")
	for _, item := range items {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			value := strings.TrimSpace(parts[1])
			return strings.Trim(value, "\"'")
		}
	}

	return ""
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
