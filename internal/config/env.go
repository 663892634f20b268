package config

import (
    "os"
    "strconv"
    "strings"
    "time"

    "github.com/joho/godotenv"
)

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
    Level        string
    Pretty       bool
    File         string
    MaxSizeMB    int
    MaxBackups   int
    MaxAgeDays   int
    Compress     bool
}

// AxiomConfig holds Axiom logging configuration.
type AxiomConfig struct {
    Send          bool
    APIKey        string
    OrgID         string
    Dataset       string
    FlushInterval time.Duration
}

// CleanConfig controls output serialization and side outputs.
type CleanConfig struct {
    Compaction int // 0..4, >0 runs the optimizer with object streams
    Deflate    bool
    TempDir    string
    Preview    bool
}

// S3Config holds bucket access for uploads and s3:// inputs.
type S3Config struct {
    Bucket       string
    Region       string
    Endpoint     string
    AccessKey    string
    SecretKey    string
    UsePathStyle bool
    Prefix       string
    LinkTTL      time.Duration
}

// UploadConfig defines the upload chain.
type UploadConfig struct {
    Enabled       bool
    Order         []string // strategy names, "s3" | "http"
    Timeout       time.Duration
    HTTPEndpoints []string
    HTTPField     string
    S3            S3Config
}

// RedisConfig defines Redis connectivity and breaker tuning. An empty URL
// disables Redis-backed components.
type RedisConfig struct {
    URL                string
    BreakerBaseBackoff time.Duration
    BreakerMaxBackoff  time.Duration
}

// HTTPConfig defines the serve surface.
type HTTPConfig struct {
    Port            string
    UploadDir       string
    ResultDir       string
    APIUsername     string
    APIPasswordHash string
    MaxInflight     int // concurrent clean runs before 429
    // AllowRemoteInput lets POST /clean fetch http(s) input URLs.
    AllowRemoteInput bool
}

// Config is the top-level configuration.
type Config struct {
    Logging LoggingConfig
    Axiom   AxiomConfig
    Clean   CleanConfig
    Upload  UploadConfig
    Redis   RedisConfig
    HTTP    HTTPConfig
}

// LoadDotEnv reads .env files into the environment without overriding
// variables that are already set. A missing file is not an error.
func LoadDotEnv(files ...string) error {
    if len(files) == 0 { files = []string{".env"} }
    var existing []string
    for _, f := range files {
        if _, err := os.Stat(f); err == nil { existing = append(existing, f) }
    }
    if len(existing) == 0 { return nil }
    return godotenv.Load(existing...)
}

// FromEnv loads configuration from environment with sensible defaults.
func FromEnv() Config {
    cfg := Config{}

    // Logging defaults
    cfg.Logging = LoggingConfig{
        Level:      getEnv("LOG_LEVEL", "info"),
        Pretty:     parseBool(getEnv("LOG_PRETTY", devDefaultPretty())),
        File:       getEnv("LOG_FILE", "logs/pdfclean.log"),
        MaxSizeMB:  parseInt(getEnv("LOG_MAX_SIZE_MB", "100"), 100),
        MaxBackups: parseInt(getEnv("LOG_MAX_BACKUPS", "10"), 10),
        MaxAgeDays: parseInt(getEnv("LOG_MAX_AGE_DAYS", "30"), 30),
        Compress:   parseBool(getEnv("LOG_COMPRESS", "true")),
    }

    // Axiom defaults
    baseDataset := getEnv("AXIOM_DATASET", "dev")
    cfg.Axiom = AxiomConfig{
        Send:          parseBool(getEnv("SEND_LOGS_TO_AXIOM", "0")),
        APIKey:        getEnv("AXIOM_API_KEY", ""),
        OrgID:         getEnv("AXIOM_ORG_ID", ""),
        Dataset:       baseDataset + "_pdfclean",
        FlushInterval: parseDuration(getEnv("AXIOM_FLUSH_INTERVAL", "10s"), 10*time.Second),
    }

    cfg.Clean = CleanConfig{
        Compaction: clamp(parseInt(getEnv("CLEAN_COMPACTION", "0"), 0), 0, 4),
        Deflate:    parseBool(getEnv("CLEAN_DEFLATE", "true")),
        TempDir:    getEnv("CLEAN_TEMP_DIR", os.TempDir()),
        Preview:    parseBool(getEnv("CLEAN_PREVIEW", "false")),
    }

    cfg.Upload = UploadConfig{
        Enabled:       parseBool(getEnv("UPLOAD_ENABLED", "false")),
        Order:         parseList(getEnv("UPLOAD_ORDER", "s3,http")),
        Timeout:       parseDuration(getEnv("UPLOAD_TIMEOUT", "60s"), 60*time.Second),
        HTTPEndpoints: parseList(getEnv("UPLOAD_HTTP_ENDPOINTS", "")),
        HTTPField:     getEnv("UPLOAD_HTTP_FIELD", "file"),
        S3: S3Config{
            Bucket:       getEnv("AWS_S3_BUCKET", ""),
            Region:       getEnv("AWS_REGION", ""),
            Endpoint:     getEnv("AWS_S3_ENDPOINT", ""),
            AccessKey:    getEnv("AWS_ACCESS_KEY_ID", ""),
            SecretKey:    getEnv("AWS_SECRET_ACCESS_KEY", ""),
            UsePathStyle: parseBool(getEnv("AWS_S3_PATH_STYLE", "false")),
            Prefix:       getEnv("UPLOAD_S3_PREFIX", "cleaned/"),
            LinkTTL:      parseDuration(getEnv("UPLOAD_LINK_TTL", "168h"), 168*time.Hour),
        },
    }

    cfg.Redis = RedisConfig{
        URL:                getEnv("REDIS_URL", ""),
        BreakerBaseBackoff: parseDuration(getEnv("BREAKER_BASE_BACKOFF", "30s"), 30*time.Second),
        BreakerMaxBackoff:  parseDuration(getEnv("BREAKER_MAX_BACKOFF", "5m"), 5*time.Minute),
    }

    cfg.HTTP = HTTPConfig{
        Port:             getEnv("PORT", "8080"),
        UploadDir:        getEnv("UPLOAD_DIR", "uploads"),
        ResultDir:        getEnv("RESULT_DIR", "uploads/results"),
        APIUsername:      getEnv("API_USERNAME", ""),
        APIPasswordHash:  getEnv("API_PASSWORD_HASH", ""),
        MaxInflight:      parseInt(getEnv("CLEAN_MAX_INFLIGHT", "2"), 2),
        AllowRemoteInput: parseBool(getEnv("HTTP_ALLOW_REMOTE_INPUT", "false")),
    }

    return cfg
}

// Helpers
func getEnv(key, def string) string {
    if v := os.Getenv(key); v != "" {
        return v
    }
    return def
}

func parseInt(s string, def int) int {
    if s == "" { return def }
    if n, err := strconv.Atoi(s); err == nil { return n }
    return def
}

func parseBool(s string) bool {
    v := strings.ToLower(strings.TrimSpace(s))
    return v == "1" || v == "true" || v == "yes" || v == "on"
}

func parseDuration(s string, def time.Duration) time.Duration {
    if s == "" { return def }
    if d, err := time.ParseDuration(s); err == nil { return d }
    return def
}

func parseList(s string) []string {
    var out []string
    for _, p := range strings.Split(s, ",") {
        if p = strings.TrimSpace(p); p != "" { out = append(out, p) }
    }
    return out
}

func clamp(v, lo, hi int) int {
    if v < lo { return lo }
    if v > hi { return hi }
    return v
}

func devDefaultPretty() string {
    env := strings.ToLower(os.Getenv("ENVIRONMENT"))
    if env == "dev" || env == "development" || env == "local" { return "true" }
    return "false"
}
