package config

import (
	"bufio"
	"fmt"
	"net/netip"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultInventoryURL   = "https://download.brainimagelibrary.org/inventory/daily/reports/today.json"
	DefaultDatasetBaseURL = "https://download.brainimagelibrary.org/inventory/datasets"
)

// Config holds runtime configuration for the report service and CLI.
type Config struct {
	ListenAddr      string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	InventoryURL      string
	DatasetBaseURL    string
	FetchTimeout      time.Duration
	MaxBlobBytes      int64
	DefaultCollection string
	PreviewLimit      int

	ViewsDriver      string
	ViewsSQLitePath  string
	ViewsDBHost      string
	ViewsDBPort      int
	ViewsDBUser      string
	ViewsDBPassword  string
	ViewsDBName      string
	ViewsConnTimeout time.Duration

	RateLimitPerMin int
	RateLimitBurst  int
	// TrustedProxies are the peers whose X-Forwarded-For header is honored.
	TrustedProxies []netip.Prefix

	LogLevel string
}

// FromEnv loads configuration from environment variables with sensible defaults.
func FromEnv() Config {
	loadConfigDefaultsFromFile()
	loadSecretsDefaultsFromFile()

	return Config{
		ListenAddr:        getEnv("APP_LISTEN_ADDR", ":8080"),
		ReadTimeout:       time.Duration(getEnvInt("APP_READ_TIMEOUT_SEC", 10)) * time.Second,
		WriteTimeout:      time.Duration(getEnvInt("APP_WRITE_TIMEOUT_SEC", 120)) * time.Second,
		ShutdownTimeout:   time.Duration(getEnvInt("APP_SHUTDOWN_TIMEOUT_SEC", 10)) * time.Second,
		InventoryURL:      getEnv("APP_INVENTORY_URL", DefaultInventoryURL),
		DatasetBaseURL:    strings.TrimRight(getEnv("APP_DATASET_BASE_URL", DefaultDatasetBaseURL), "/"),
		FetchTimeout:      time.Duration(getEnvInt("APP_FETCH_TIMEOUT_SEC", 0)) * time.Second,
		MaxBlobBytes:      int64(getEnvInt("APP_MAX_BLOB_MB", 512)) << 20,
		DefaultCollection: getEnv("APP_DEFAULT_COLLECTION", "26"),
		PreviewLimit:      getEnvInt("APP_PREVIEW_LIMIT", 200),
		ViewsDriver:       strings.ToLower(strings.TrimSpace(getEnv("APP_VIEWS_DRIVER", ""))),
		ViewsSQLitePath:   getEnv("APP_VIEWS_SQLITE_PATH", "./bil-report-views.db"),
		ViewsDBHost:       getEnv("APP_VIEWS_DB_HOST", "127.0.0.1"),
		ViewsDBPort:       getEnvInt("APP_VIEWS_DB_PORT", 3306),
		ViewsDBUser:       getEnv("APP_VIEWS_DB_USER", "bilreport"),
		ViewsDBPassword:   getEnv("APP_VIEWS_DB_PASSWORD", ""),
		ViewsDBName:       getEnv("APP_VIEWS_DB_NAME", "bilreport"),
		ViewsConnTimeout:  time.Duration(getEnvInt("APP_VIEWS_DB_CONN_TIMEOUT_SEC", 5)) * time.Second,
		RateLimitPerMin:   getEnvInt("APP_RATE_LIMIT_PER_MIN", 120),
		RateLimitBurst:    getEnvInt("APP_RATE_LIMIT_BURST", 20),
		TrustedProxies:    getEnvPrefixes("APP_TRUSTED_PROXIES"),
		LogLevel:          strings.ToLower(getEnv("APP_LOG_LEVEL", "info")),
	}
}

func loadConfigDefaultsFromFile() {
	bootstrapCandidates := []string{
		"./bil-report.env",
		"/etc/default/bil-report",
	}

	for _, candidate := range bootstrapCandidates {
		_ = applyEnvDefaultsFromFile(absPath(candidate))
	}

	candidates := make([]string, 0, 2)
	if explicit := strings.TrimSpace(os.Getenv("APP_CONFIG_FILE")); explicit != "" {
		candidates = append(candidates, explicit)
	}
	candidates = append(candidates, "/etc/bil-report/config.env")

	for _, candidate := range candidates {
		if err := applyEnvDefaultsFromFile(absPath(candidate)); err == nil {
			return
		}
	}
}

func loadSecretsDefaultsFromFile() {
	candidates := make([]string, 0, 3)
	if explicit := strings.TrimSpace(os.Getenv("APP_SECRETS_FILE")); explicit != "" {
		candidates = append(candidates, explicit)
	}
	if credDir := strings.TrimSpace(os.Getenv("CREDENTIALS_DIRECTORY")); credDir != "" {
		credName := strings.TrimSpace(os.Getenv("APP_SECRETS_CREDENTIAL_NAME"))
		if credName == "" {
			credName = "app-secrets"
		}
		candidates = append(candidates, filepath.Join(credDir, credName))
	}
	candidates = append(candidates, "/etc/bil-report/secrets.env")
	for _, candidate := range candidates {
		if err := applyEnvDefaultsFromFile(candidate); err == nil {
			return
		}
	}
}

func absPath(candidate string) string {
	if filepath.IsAbs(candidate) {
		return candidate
	}
	if wd, err := os.Getwd(); err == nil {
		return filepath.Join(wd, candidate)
	}
	return candidate
}

// applyEnvDefaultsFromFile sets KEY=VALUE pairs from path without overriding
// variables already present in the environment.
func applyEnvDefaultsFromFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		kv := strings.SplitN(line, "=", 2)
		if len(kv) != 2 {
			continue
		}

		key := strings.TrimSpace(kv[0])
		val := strings.TrimSpace(kv[1])
		if key == "" {
			continue
		}

		if len(val) >= 2 {
			if (val[0] == '"' && val[len(val)-1] == '"') || (val[0] == '\'' && val[len(val)-1] == '\'') {
				val = val[1 : len(val)-1]
			}
		}

		if os.Getenv(key) == "" {
			_ = os.Setenv(key, val)
		}
	}

	return scanner.Err()
}

// ViewsMySQLDSN returns a mysql driver DSN for the saved views store.
func (c Config) ViewsMySQLDSN() string {
	params := url.Values{}
	params.Set("parseTime", "true")
	params.Set("timeout", c.ViewsConnTimeout.String())
	params.Set("charset", "utf8mb4")
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s", c.ViewsDBUser, c.ViewsDBPassword, c.ViewsDBHost, c.ViewsDBPort, c.ViewsDBName, params.Encode())
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return def
	}
	return parsed
}

// getEnvPrefixes parses a comma separated list of IP addresses and CIDR
// ranges. Entries that parse as neither are skipped.
func getEnvPrefixes(key string) []netip.Prefix {
	var out []netip.Prefix
	for _, raw := range strings.Split(os.Getenv(key), ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if p, err := netip.ParsePrefix(raw); err == nil {
			out = append(out, p.Masked())
			continue
		}
		if addr, err := netip.ParseAddr(raw); err == nil {
			addr = addr.Unmap()
			out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
		}
	}
	return out
}
