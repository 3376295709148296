package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/overseas-dashboard/pkg/config"
)

func newBuffered(level string) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewWithWriter(&config.Config{Env: "test", LogLevel: level, LogFormat: "json"}, &buf), &buf
}

func decode(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), buf.String())
	return entry
}

func TestNew(t *testing.T) {
	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			log, _ := newBuffered(tt.level)
			assert.Equal(t, tt.want, log.Level())
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"invalid", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogLevel(tt.input))
		})
	}
}

func TestLoggerMethods(t *testing.T) {
	log, buf := newBuffered("debug")

	tests := []struct {
		name    string
		logFunc func(string)
		level   string
	}{
		{"debug", log.Debug, "debug"},
		{"info", log.Info, "info"},
		{"warn", log.Warn, "warn"},
		{"error", log.Error, "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.logFunc(tt.name + " message")

			entry := decode(t, buf)
			assert.Equal(t, tt.level, entry["level"])
			assert.Equal(t, tt.name+" message", entry["message"])
			assert.Equal(t, "overseas-dashboard", entry["service"])
			assert.Equal(t, "test", entry["env"])
		})
	}
}

func TestLevelFilters(t *testing.T) {
	log, buf := newBuffered("warn")

	log.Info("hidden")
	assert.Empty(t, buf.String())

	log.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestWithFields(t *testing.T) {
	log, buf := newBuffered("debug")

	log.WithFields(map[string]interface{}{
		"tr_id":  "JTTT3012R",
		"status": 200,
	}).Info("Balance fetched")

	entry := decode(t, buf)
	assert.Equal(t, "JTTT3012R", entry["tr_id"])
	assert.Equal(t, float64(200), entry["status"])
}

func TestCredentialsAreRedacted(t *testing.T) {
	log, buf := newBuffered("debug")

	log.WithFields(map[string]interface{}{
		"appkey":        "PSabc",
		"AppSecret":     "secret",
		"authorization": "Bearer xyz",
		"CANO":          "12345678",
		"url":           "openapi.koreainvestment.com/oauth2/tokenP",
	}).WithField("access_token", "xyz").Info("request")

	out := buf.String()
	for _, leaked := range []string{"PSabc", "secret", "Bearer xyz", "12345678", `"xyz"`} {
		assert.NotContains(t, out, leaked)
	}

	entry := decode(t, buf)
	assert.Equal(t, redacted, entry["appkey"])
	assert.Equal(t, redacted, entry["access_token"])
	assert.Equal(t, "openapi.koreainvestment.com/oauth2/tokenP", entry["url"])
}

func TestWithError(t *testing.T) {
	log, buf := newBuffered("debug")

	log.WithError(errors.New("connection refused")).Error("KIS request failed")

	entry := decode(t, buf)
	assert.Equal(t, "connection refused", entry["error"])
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() {
		Nop().WithField("k", "v").Info("discarded")
	})
}
