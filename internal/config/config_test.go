package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/kasir-pos/internal/config"
)

func baseEnv() map[string]string {
	return map[string]string{
		"REDIS_URL":        "redis://localhost:6379/0",
		"CATALOG_BASE_URL": "http://catalog.local",
		"COUPON_BASE_URL":  "http://coupon.local",
		"CREDIT_BASE_URL":  "http://credit.local",
		"ORDERS_BASE_URL":  "http://orders.local",

		// Unset anything the host environment might carry.
		"PORT":              "",
		"APP_ENV":           "",
		"CURRENCY":          "",
		"CATALOG_CACHE_TTL": "",
		"UPSTREAM_TIMEOUT":  "",
		"RATE_LIMIT":        "",
		"LOG_FORMAT":        "",
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.LoadForTests(baseEnv())
	require.NoError(t, err)
	require.Equal(t, "development", cfg.AppEnv)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, "IDR", cfg.Currency)
	require.Equal(t, 5*time.Minute, cfg.CatalogCacheTTL)
	require.Equal(t, 5*time.Second, cfg.UpstreamTimeout)
	require.Equal(t, "300-M", cfg.RateLimit)
	require.Equal(t, "json", cfg.LogFormat)
}

func TestLoadOverrides(t *testing.T) {
	env := baseEnv()
	env["PORT"] = "9090"
	env["CURRENCY"] = "USD"
	env["CATALOG_CACHE_TTL"] = "30s"
	env["CORS_ALLOWED_ORIGINS"] = "http://a.local, http://b.local"
	env["LOG_FORMAT"] = "console"

	cfg, err := config.LoadForTests(env)
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTPAddr())
	require.Equal(t, "USD", cfg.Currency)
	require.Equal(t, 30*time.Second, cfg.CatalogCacheTTL)
	require.Equal(t, []string{"http://a.local", "http://b.local"}, cfg.CORSAllowedOrigins)
	require.Equal(t, "console", cfg.LogFormat)
}

func TestLoadRequiredValues(t *testing.T) {
	for _, key := range []string{"REDIS_URL", "CATALOG_BASE_URL", "ORDERS_BASE_URL"} {
		env := baseEnv()
		env[key] = ""
		_, err := config.LoadForTests(env)
		require.Error(t, err, key)
	}
}

func TestParseDurationFallback(t *testing.T) {
	env := baseEnv()
	env["UPSTREAM_TIMEOUT"] = "not-a-duration"
	cfg, err := config.LoadForTests(env)
	require.NoError(t, err)
	require.Equal(t, 5*time.Second, cfg.UpstreamTimeout)
}
