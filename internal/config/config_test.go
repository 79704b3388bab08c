package config

import (
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"
)

// requiredVars — минимальный набор обязательных переменных окружения.
var requiredVars = map[string]string{
	"DM_DATA_DIR":    "/tmp/dm-data",
	"DM_DB_HOST":     "localhost",
	"DM_DB_NAME":     "eteeap",
	"DM_DB_USER":     "eteeap",
	"DM_DB_PASSWORD": "secret",
	"DM_JWKS_URL":    "https://auth.example.com/jwks.json",
	"DM_PROFILE_URL": "https://profiles.example.com",
}

// allVars — все переменные окружения DM_*, очищаемые перед тестом.
var allVars = []string{
	"DM_PORT", "DM_DATA_DIR", "DM_MAX_FILE_SIZE",
	"DM_DB_HOST", "DM_DB_PORT", "DM_DB_NAME", "DM_DB_USER", "DM_DB_PASSWORD", "DM_DB_SSL_MODE",
	"DM_JWKS_URL", "DM_JWKS_CA_CERT", "DM_TLS_SKIP_VERIFY",
	"DM_JWKS_CLIENT_TIMEOUT", "DM_JWKS_REFRESH_INTERVAL", "DM_JWT_LEEWAY",
	"DM_PROFILE_URL", "DM_PROFILE_CA_CERT", "DM_PROFILE_TOKEN", "DM_PROFILE_TIMEOUT",
	"DM_CACHE_SIZE", "DM_CACHE_TTL",
	"DM_LOG_LEVEL", "DM_LOG_FORMAT", "DM_DEBUG_ERRORS",
	"DM_HTTP_READ_TIMEOUT", "DM_HTTP_WRITE_TIMEOUT", "DM_HTTP_IDLE_TIMEOUT",
	"DM_SHUTDOWN_TIMEOUT",
	"DM_DEPHEALTH_CHECK_INTERVAL", "DM_DEPHEALTH_GROUP", "DM_DEPHEALTH_ISENTRY",
}

// setupEnv очищает все DM_* переменные и устанавливает переданные.
func setupEnv(t *testing.T, vars map[string]string) {
	t.Helper()
	for _, k := range allVars {
		if v, ok := os.LookupEnv(k); ok {
			orig := v
			key := k
			t.Cleanup(func() { os.Setenv(key, orig) })
			os.Unsetenv(k)
		}
	}
	for k, v := range vars {
		os.Setenv(k, v)
		key := k
		t.Cleanup(func() { os.Unsetenv(key) })
	}
}

// TestLoad_Defaults проверяет значения по умолчанию при минимальной конфигурации.
func TestLoad_Defaults(t *testing.T) {
	setupEnv(t, requiredVars)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}

	if cfg.Port != 8040 {
		t.Errorf("Port = %d, ожидался 8040", cfg.Port)
	}
	if cfg.MaxFileSize != 52428800 {
		t.Errorf("MaxFileSize = %d, ожидался 52428800", cfg.MaxFileSize)
	}
	if cfg.DBPort != 5432 {
		t.Errorf("DBPort = %d, ожидался 5432", cfg.DBPort)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat = %q, ожидался json", cfg.LogFormat)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, ожидался info", cfg.LogLevel)
	}
	if cfg.CacheSize != 1024 {
		t.Errorf("CacheSize = %d, ожидался 1024", cfg.CacheSize)
	}
	if cfg.CacheTTL != 5*time.Minute {
		t.Errorf("CacheTTL = %v, ожидался 5m", cfg.CacheTTL)
	}
	if cfg.DebugErrors {
		t.Error("DebugErrors = true, ожидался false по умолчанию")
	}
	if cfg.DephealthGroup != "document-module" {
		t.Errorf("DephealthGroup = %q, ожидался document-module", cfg.DephealthGroup)
	}
}

// TestLoad_MissingRequired проверяет, что отсутствие обязательной переменной — ошибка.
func TestLoad_MissingRequired(t *testing.T) {
	for missing := range requiredVars {
		vars := make(map[string]string)
		for k, v := range requiredVars {
			if k != missing {
				vars[k] = v
			}
		}
		setupEnv(t, vars)

		if _, err := Load(); err == nil {
			t.Errorf("Load() без %s должен возвращать ошибку", missing)
		} else if !strings.Contains(err.Error(), missing) {
			t.Errorf("ошибка %q не упоминает %s", err.Error(), missing)
		}
	}
}

// TestLoad_InvalidValues проверяет валидацию некорректных значений.
func TestLoad_InvalidValues(t *testing.T) {
	cases := []struct {
		name string
		key  string
		val  string
	}{
		{"некорректный порт", "DM_PORT", "not-a-number"},
		{"порт вне диапазона", "DM_PORT", "99999"},
		{"отрицательный размер файла", "DM_MAX_FILE_SIZE", "-1"},
		{"некорректный уровень логирования", "DM_LOG_LEVEL", "verbose"},
		{"некорректный формат логов", "DM_LOG_FORMAT", "xml"},
		{"некорректная длительность", "DM_CACHE_TTL", "5 minutes"},
		{"нулевой размер кэша", "DM_CACHE_SIZE", "0"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			vars := make(map[string]string, len(requiredVars)+1)
			for k, v := range requiredVars {
				vars[k] = v
			}
			vars[tc.key] = tc.val
			setupEnv(t, vars)

			if _, err := Load(); err == nil {
				t.Errorf("Load() с %s=%q должен возвращать ошибку", tc.key, tc.val)
			}
		})
	}
}

// TestDatabaseDSN проверяет формирование DSN для pgxpool.
func TestDatabaseDSN(t *testing.T) {
	setupEnv(t, requiredVars)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}

	dsn := cfg.DatabaseDSN()
	for _, part := range []string{"host=localhost", "port=5432", "dbname=eteeap", "sslmode=disable"} {
		if !strings.Contains(dsn, part) {
			t.Errorf("DSN %q не содержит %q", dsn, part)
		}
	}
}

// TestLoad_BoolParsing проверяет разбор булевых переменных.
func TestLoad_BoolParsing(t *testing.T) {
	vars := make(map[string]string, len(requiredVars)+2)
	for k, v := range requiredVars {
		vars[k] = v
	}
	vars["DM_DEBUG_ERRORS"] = "true"
	vars["DM_TLS_SKIP_VERIFY"] = "1"
	setupEnv(t, vars)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}
	if !cfg.DebugErrors {
		t.Error("DebugErrors = false, ожидался true")
	}
	if !cfg.TLSSkipVerify {
		t.Error("TLSSkipVerify = false, ожидался true")
	}
}
