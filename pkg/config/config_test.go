package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("APP_KEY", "test-app-key")
	t.Setenv("APP_SECRET", "test-app-secret")
	t.Setenv("URL_BASE", "https://openapi.example.com:9443/")
	t.Setenv("CANO", "12345678")
	t.Setenv("ACNT_PRDT_CD", "01")
}

func TestLoad(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	// Defaults
	assert.Equal(t, "8089", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "https://openapi.example.com:9443", cfg.KIS.BaseURL, "trailing slash is trimmed")
	assert.Equal(t, "https://open.er-api.com/v6/latest/USD", cfg.FX.URL)
	assert.Equal(t, 1350.0, cfg.FX.FallbackRate)
	assert.Equal(t, time.Hour, cfg.FX.CacheTTL)
	assert.Equal(t, "USD", cfg.Portfolio.DisplayCurrency)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.False(t, cfg.Database.Enabled())
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoadWithCustomValues(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "9000")
	t.Setenv("ENV", "production")
	t.Setenv("FX_FALLBACK_RATE", "1450")
	t.Setenv("FX_CACHE_TTL", "30m")
	t.Setenv("DISPLAY_CURRENCY", "krw")
	t.Setenv("KIS_IS_VIRTUAL", "true")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/db")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, 1450.0, cfg.FX.FallbackRate)
	assert.Equal(t, 30*time.Minute, cfg.FX.CacheTTL)
	assert.Equal(t, "KRW", cfg.Portfolio.DisplayCurrency)
	assert.True(t, cfg.KIS.IsVirtual)
	assert.True(t, cfg.Database.Enabled())
}

func TestLoadPrefixedKeys(t *testing.T) {
	t.Setenv("KIS_APP_KEY", "k")
	t.Setenv("KIS_APP_SECRET", "s")
	t.Setenv("KIS_BASE_URL", "https://openapivts.example.com:29443")
	t.Setenv("KIS_ACCOUNT_NO", "87654321")
	t.Setenv("KIS_ACCOUNT_PRODUCT_CODE", "01")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "k", cfg.KIS.AppKey)
	assert.Equal(t, "87654321", cfg.KIS.AccountNo)
}

func TestValidateMissingCredentials(t *testing.T) {
	setRequired(t)
	t.Setenv("APP_SECRET", "")
	t.Setenv("CANO", "")

	_, err := Load()
	require.Error(t, err)

	var cerr *ConfigError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, []string{"APP_SECRET", "CANO"}, cerr.Missing)
	assert.Contains(t, err.Error(), "APP_SECRET")
}

func TestValidateInvalidValues(t *testing.T) {
	setRequired(t)
	t.Setenv("ENV", "qa")
	t.Setenv("DISPLAY_CURRENCY", "EUR")

	_, err := Load()

	var cerr *ConfigError
	require.True(t, errors.As(err, &cerr))
	assert.Empty(t, cerr.Missing)
	assert.Len(t, cerr.Invalid, 2)
}

func TestKISConfigStringRedactsSecrets(t *testing.T) {
	k := KISConfig{
		AppKey:             "super-secret-key",
		AppSecret:          "super-secret-secret",
		BaseURL:            "https://openapi.example.com",
		AccountNo:          "12345678",
		AccountProductCode: "01",
	}

	s := k.String()
	assert.NotContains(t, s, "super-secret")
	assert.NotContains(t, s, "12345678")
	assert.Contains(t, s, "****5678")
}
