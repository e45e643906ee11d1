package config

import (
	"net/netip"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyEnvDefaultsFromFile_DoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	body := "# comment\nAPP_TEST_CFG_A=\"from-file\"\nAPP_TEST_CFG_B='quoted'\nbroken line\n=novalue\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	t.Setenv("APP_TEST_CFG_A", "from-env")
	t.Setenv("APP_TEST_CFG_B", "")

	require.NoError(t, applyEnvDefaultsFromFile(path))
	assert.Equal(t, "from-env", os.Getenv("APP_TEST_CFG_A"))
	assert.Equal(t, "quoted", os.Getenv("APP_TEST_CFG_B"))
}

func TestApplyEnvDefaultsFromFile_Missing(t *testing.T) {
	assert.Error(t, applyEnvDefaultsFromFile(filepath.Join(t.TempDir(), "nope.env")))
}

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("APP_INVENTORY_URL", "")
	t.Setenv("APP_DEFAULT_COLLECTION", "")
	t.Setenv("APP_FETCH_TIMEOUT_SEC", "")
	t.Setenv("APP_TRUSTED_PROXIES", "")
	t.Setenv("APP_DATASET_BASE_URL", "https://example.org/datasets/")

	cfg := FromEnv()
	assert.Equal(t, DefaultInventoryURL, cfg.InventoryURL)
	assert.Equal(t, "26", cfg.DefaultCollection)
	assert.Equal(t, time.Duration(0), cfg.FetchTimeout)
	assert.Equal(t, "https://example.org/datasets", cfg.DatasetBaseURL)
	assert.Empty(t, cfg.TrustedProxies)
}

func TestGetEnvInt_InvalidFallsBack(t *testing.T) {
	t.Setenv("APP_TEST_INT", "abc")
	assert.Equal(t, 7, getEnvInt("APP_TEST_INT", 7))
	t.Setenv("APP_TEST_INT", "12")
	assert.Equal(t, 12, getEnvInt("APP_TEST_INT", 7))
}

func TestGetEnvPrefixes(t *testing.T) {
	t.Setenv("APP_TEST_PROXIES", " 10.0.0.0/8, 192.0.2.1 ,bogus,,2001:db8::/32")
	assert.Equal(t, []netip.Prefix{
		netip.MustParsePrefix("10.0.0.0/8"),
		netip.MustParsePrefix("192.0.2.1/32"),
		netip.MustParsePrefix("2001:db8::/32"),
	}, getEnvPrefixes("APP_TEST_PROXIES"))

	t.Setenv("APP_TEST_PROXIES", "")
	assert.Nil(t, getEnvPrefixes("APP_TEST_PROXIES"))
}

func TestViewsMySQLDSN(t *testing.T) {
	cfg := Config{
		ViewsDBUser:      "u",
		ViewsDBPassword:  "p",
		ViewsDBHost:      "db",
		ViewsDBPort:      3307,
		ViewsDBName:      "views",
		ViewsConnTimeout: 5 * time.Second,
	}
	dsn := cfg.ViewsMySQLDSN()
	assert.Contains(t, dsn, "u:p@tcp(db:3307)/views?")
	assert.Contains(t, dsn, "parseTime=true")
}
