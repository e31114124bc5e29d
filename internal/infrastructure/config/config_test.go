package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnvKeys = []string{
	"ERP_APP_NAME",
	"ERP_APP_ENV",
	"ERP_APP_PORT",
	"ERP_DATABASE_DRIVER",
	"ERP_DATABASE_HOST",
	"ERP_DATABASE_PORT",
	"ERP_DATABASE_USER",
	"ERP_DATABASE_PASSWORD",
	"ERP_DATABASE_DBNAME",
	"ERP_DATABASE_SSLMODE",
	"ERP_DATABASE_MAX_OPEN_CONNS",
	"ERP_DATABASE_MAX_IDLE_CONNS",
	"ERP_CONSIGNMENT_REQUIRE_RESELLER",
	"ERP_CONSIGNMENT_LOCK_TTL",
	"ERP_CONSIGNMENT_IDEMPOTENCY_TTL",
	"ERP_KAFKA_ENABLED",
	"ERP_KAFKA_BROKERS",
	"ERP_STORAGE_ENABLED",
	"ERP_STORAGE_BUCKET",
	"ERP_TELEMETRY_SAMPLING_RATIO",
	"ERP_HTTP_SWAGGER_ENABLED",
	"ERP_TELEMETRY_LOGS_ENABLED",
	"ERP_TELEMETRY_PROFILING_ENABLED",
}

// isolateEnv clears the config env vars for the duration of the test
func isolateEnv(t *testing.T) {
	t.Helper()
	original := make(map[string]string, len(configEnvKeys))
	for _, k := range configEnvKeys {
		original[k] = os.Getenv(k)
		os.Unsetenv(k)
	}
	t.Cleanup(func() {
		for k, v := range original {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	})
}

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		isolateEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "consignment", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "postgres", cfg.Database.Driver)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "consignment", cfg.Database.DBName)
		assert.Equal(t, "disable", cfg.Database.SSLMode)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)
		assert.True(t, cfg.Consignment.RequireReseller)
		assert.Equal(t, 30*time.Second, cfg.Consignment.LockTTL)
		assert.Equal(t, 24*time.Hour, cfg.Consignment.IdempotencyTTL)
		assert.Equal(t, "consignment-events", cfg.Kafka.Topic)
		assert.False(t, cfg.Kafka.Enabled)
		assert.False(t, cfg.Storage.Enabled)
		assert.Equal(t, "consignment", cfg.Telemetry.ServiceName)
		assert.Contains(t, cfg.HTTP.CORSAllowHeaders, "Idempotency-Key")
		assert.True(t, cfg.HTTP.SwaggerEnabled)
		assert.False(t, cfg.Telemetry.LogsEnabled)
		assert.Equal(t, 15*time.Second, cfg.Telemetry.DBPoolStatsEvery)
		assert.False(t, cfg.Telemetry.ProfilingEnabled)
		assert.Equal(t, "http://localhost:4040", cfg.Telemetry.ProfilingServerAddress)
		assert.Equal(t, []string{"cpu", "alloc_space", "inuse_space", "goroutines"}, cfg.Telemetry.ProfilingTypes)
	})

	t.Run("loads values from environment variables with ERP prefix", func(t *testing.T) {
		isolateEnv(t)
		os.Setenv("ERP_APP_NAME", "test-app")
		os.Setenv("ERP_APP_PORT", "9000")
		os.Setenv("ERP_DATABASE_DRIVER", "sqlite")
		os.Setenv("ERP_DATABASE_HOST", "testdb.local")
		os.Setenv("ERP_DATABASE_PORT", "5433")
		os.Setenv("ERP_DATABASE_MAX_OPEN_CONNS", "50")
		os.Setenv("ERP_DATABASE_MAX_IDLE_CONNS", "10")
		os.Setenv("ERP_CONSIGNMENT_REQUIRE_RESELLER", "false")
		os.Setenv("ERP_CONSIGNMENT_LOCK_TTL", "5s")
		os.Setenv("ERP_CONSIGNMENT_IDEMPOTENCY_TTL", "1h")
		os.Setenv("ERP_HTTP_SWAGGER_ENABLED", "false")
		os.Setenv("ERP_TELEMETRY_LOGS_ENABLED", "true")
		os.Setenv("ERP_TELEMETRY_PROFILING_ENABLED", "true")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "sqlite", cfg.Database.Driver)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, 50, cfg.Database.MaxOpenConns)
		assert.Equal(t, 10, cfg.Database.MaxIdleConns)
		assert.False(t, cfg.Consignment.RequireReseller)
		assert.Equal(t, 5*time.Second, cfg.Consignment.LockTTL)
		assert.Equal(t, time.Hour, cfg.Consignment.IdempotencyTTL)
		assert.Equal(t, "test-app", cfg.Telemetry.ServiceName)
		assert.False(t, cfg.HTTP.SwaggerEnabled)
		assert.True(t, cfg.Telemetry.LogsEnabled)
		assert.True(t, cfg.Telemetry.ProfilingEnabled)
	})

	t.Run("rejects unknown database driver", func(t *testing.T) {
		isolateEnv(t)
		os.Setenv("ERP_DATABASE_DRIVER", "mysql")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.driver must be one of postgres, sqlite")
	})

	t.Run("rejects idle conns above open conns", func(t *testing.T) {
		isolateEnv(t)
		os.Setenv("ERP_DATABASE_MAX_OPEN_CONNS", "5")
		os.Setenv("ERP_DATABASE_MAX_IDLE_CONNS", "10")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed database.max_open_conns")
	})

	t.Run("rejects negative idle conns", func(t *testing.T) {
		isolateEnv(t)
		os.Setenv("ERP_DATABASE_MAX_IDLE_CONNS", "-1")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns cannot be negative")
	})

	t.Run("rejects sub-second lock ttl", func(t *testing.T) {
		isolateEnv(t)
		os.Setenv("ERP_CONSIGNMENT_LOCK_TTL", "500ms")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "consignment.lock_ttl must be at least 1s")
	})

	t.Run("requires brokers when kafka is enabled", func(t *testing.T) {
		isolateEnv(t)
		os.Setenv("ERP_KAFKA_ENABLED", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "kafka.brokers is required")
	})

	t.Run("requires bucket when storage is enabled", func(t *testing.T) {
		isolateEnv(t)
		os.Setenv("ERP_STORAGE_ENABLED", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage.bucket is required")
	})

	t.Run("rejects sampling ratio out of range", func(t *testing.T) {
		isolateEnv(t)
		os.Setenv("ERP_TELEMETRY_SAMPLING_RATIO", "1.5")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "telemetry.sampling_ratio must be between 0.0 and 1.0")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	setValidProductionBase := func() {
		os.Setenv("ERP_APP_ENV", "production")
		os.Setenv("ERP_DATABASE_PASSWORD", "secure-password")
		os.Setenv("ERP_DATABASE_SSLMODE", "require")
	}

	t.Run("requires database.password in production", func(t *testing.T) {
		isolateEnv(t)
		os.Setenv("ERP_APP_ENV", "production")
		os.Setenv("ERP_DATABASE_SSLMODE", "require")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password is required in production")
	})

	t.Run("requires SSL enabled in production", func(t *testing.T) {
		isolateEnv(t)
		setValidProductionBase()
		os.Setenv("ERP_DATABASE_SSLMODE", "disable")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.sslmode cannot be 'disable' in production")
	})

	t.Run("requires postgres in production", func(t *testing.T) {
		isolateEnv(t)
		setValidProductionBase()
		os.Setenv("ERP_DATABASE_DRIVER", "sqlite")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.driver must be postgres in production")
	})

	t.Run("passes validation with valid production config", func(t *testing.T) {
		isolateEnv(t)
		setValidProductionBase()

		cfg, err := Load()
		require.NoError(t, err)
		assert.True(t, cfg.IsProduction())
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "testuser",
			Password: "testpass",
			DBName:   "testdb",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost")
		assert.Contains(t, dsn, "5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "pass@word#123",
			DBName:   "db",
			SSLMode:  "disable",
		}

		assert.Contains(t, cfg.DSN(), "pass%40word%23123")
	})
}

func TestRedisConfig_Addr(t *testing.T) {
	cfg := RedisConfig{Host: "cache.local", Port: 6380}
	assert.Equal(t, "cache.local:6380", cfg.Addr())
}
