package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/overseas-dashboard/pkg/config"
)

func TestNew_Disabled(t *testing.T) {
	client, err := New(&config.Config{Redis: config.RedisConfig{Enabled: false}})
	require.NoError(t, err)

	assert.False(t, client.Enabled())
	assert.Empty(t, client.Addr())
	assert.NoError(t, client.Close())
}

func TestNew_Unreachable(t *testing.T) {
	cfg := &config.Config{
		HTTPTimeout: 200 * time.Millisecond,
		Redis:       config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: "1"},
	}

	_, err := New(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "127.0.0.1:1")
}

func TestCache_DisabledIsNoop(t *testing.T) {
	cache := NewCache(Disabled(), "dashboard")
	ctx := context.Background()
	key := ExchangeRateKey("USD", "KRW")

	var result float64
	found, err := cache.Get(ctx, key, &result)
	require.NoError(t, err)
	assert.False(t, found)

	assert.NoError(t, cache.Set(ctx, key, 1380.5, time.Minute))
	assert.NoError(t, cache.Delete(ctx, key))
}

func TestCache_Key(t *testing.T) {
	cache := NewCache(Disabled(), "dashboard")
	assert.Equal(t, "dashboard:cache:fx:USD:KRW", cache.Key(ExchangeRateKey("usd", "krw")))
}

func TestExchangeRateKey(t *testing.T) {
	assert.Equal(t, "fx:USD:KRW", ExchangeRateKey("USD", "KRW"))
	assert.Equal(t, "fx:USD:KRW", ExchangeRateKey("usd", "Krw"))
}
