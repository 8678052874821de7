package config_test

import (
	"slices"
	"testing"
	"time"

	cfg "github.com/Gunvolt24/shop_pricing/config"
)

// TestLoadWithPrefix_Defaults — проверка наличия значений по умолчанию.
func TestLoadWithPrefix_Defaults(t *testing.T) {
	t.Parallel()

	c, err := cfg.LoadWithPrefix("PRICING_TEST_DEFAULTS")
	if err != nil {
		t.Fatalf("LoadWithPrefix error: %v", err)
	}

	// HTTP
	if c.HTTP.Addr != ":8080" {
		t.Fatalf("HTTP.Addr: want :8080, got %q", c.HTTP.Addr)
	}
	if c.HTTP.GinMode != "debug" {
		t.Fatalf("HTTP.GinMode: want debug, got %q", c.HTTP.GinMode)
	}
	if c.HTTP.ReadTimeout != 10*time.Second || c.HTTP.WriteTimeout != 10*time.Second {
		t.Fatalf("HTTP timeouts wrong: %+v", c.HTTP)
	}
	if c.HTTP.ReadHeaderTimeout != 5*time.Second || c.HTTP.IdleTimeout != 60*time.Second {
		t.Fatalf("HTTP header/idle timeouts wrong: %+v", c.HTTP)
	}
	if c.HTTP.HandlerTimeout != 3*time.Second || c.HTTP.GracefulTimeout != 5*time.Second {
		t.Fatalf("HTTP handler/graceful timeouts wrong: %+v", c.HTTP)
	}

	// Metrics
	if c.Metrics.Enabled || c.Metrics.Addr != ":2112" {
		t.Fatalf("Metrics defaults wrong: %+v", c.Metrics)
	}

	// Tracing
	if c.Tracing.Enabled {
		t.Fatalf("Tracing.Enabled: want false, got true")
	}
	if c.Tracing.ServiceName != "shop-pricing" || c.Tracing.Endpoint != "jaeger:4318" || c.Tracing.SampleRatio != 1 {
		t.Fatalf("Tracing defaults wrong: %+v", c.Tracing)
	}

	// Postgres / Storage
	if c.Postgres.DSN == "" {
		t.Fatalf("Postgres.DSN should have default, got empty")
	}
	if c.Postgres.MaxConns != 10 || c.Postgres.AutoMigrate {
		t.Fatalf("Postgres defaults: want max_conns=10 auto_migrate=false, got %+v", c.Postgres)
	}
	if c.Storage.Driver != "postgres" {
		t.Fatalf("Storage.Driver: want postgres, got %q", c.Storage.Driver)
	}

	// Kafka
	if !c.Kafka.Enabled {
		t.Fatalf("Kafka.Enabled: want true")
	}
	if !slices.Equal(c.Kafka.Brokers, []string{"kafka:9092"}) {
		t.Fatalf("Kafka.Brokers: want [kafka:9092], got %v", c.Kafka.Brokers)
	}
	if c.Kafka.Topic != "orders.confirmed" || c.Kafka.GroupID != "pricing" || c.Kafka.StartOffset != "last" {
		t.Fatalf("Kafka defaults wrong: %+v", c.Kafka)
	}
	if c.Kafka.ProcessTimeout != 5*time.Second || c.Kafka.RetryInitial != 1*time.Second || c.Kafka.RetryMax != 30*time.Second {
		t.Fatalf("Kafka timeouts wrong: %+v", c.Kafka)
	}

	// Cache
	if c.Cache.Driver != "memory" || c.Cache.Capacity != 1000 || c.Cache.TTL != time.Minute || c.Cache.WarmUpN != 0 {
		t.Fatalf("Cache defaults wrong: %+v", c.Cache)
	}
	if c.Cache.RedisAddr != "redis:6379" || c.Cache.RedisDB != 0 || c.Cache.RedisPassword != "" {
		t.Fatalf("Cache redis defaults wrong: %+v", c.Cache)
	}

	// Catalog
	if c.Catalog.Timeout != 2*time.Second || c.Catalog.SeedFile != "" {
		t.Fatalf("Catalog defaults wrong: %+v", c.Catalog)
	}

	// Logger
	if c.Logger.IsProd {
		t.Fatalf("Logger.IsProd: want false, got true")
	}
}

// Меняем окружение.
func TestLoadWithPrefix_Overrides(t *testing.T) {
	const p = "PRICING_TEST_OVR"

	// HTTP
	t.Setenv(p+"_HTTP_ADDR", ":9999")
	t.Setenv(p+"_HTTP_GIN_MODE", "release")
	t.Setenv(p+"_HTTP_READ_TIMEOUT", "2s")
	t.Setenv(p+"_HTTP_WRITE_TIMEOUT", "3s")
	t.Setenv(p+"_HTTP_READ_HEADER_TIMEOUT", "1s")
	t.Setenv(p+"_HTTP_IDLE_TIMEOUT", "15s")
	t.Setenv(p+"_HTTP_HANDLER_TIMEOUT", "4500ms")
	t.Setenv(p+"_HTTP_GRACEFUL_TIMEOUT", "9s")

	// Metrics
	t.Setenv(p+"_METRICS_ENABLED", "true")
	t.Setenv(p+"_METRICS_ADDR", ":9998")

	// Tracing
	t.Setenv(p+"_TRACING_OTEL_ENABLED", "true")
	t.Setenv(p+"_TRACING_OTEL_SERVICE_NAME", "svc")
	t.Setenv(p+"_TRACING_OTEL_ENDPOINT", "collector:4318")
	t.Setenv(p+"_TRACING_OTEL_SAMPLE_RATIO", "0.25")

	// Postgres / Storage
	t.Setenv(p+"_POSTGRES_DSN", "postgres://u:p@h:5432/db?sslmode=disable")
	t.Setenv(p+"_POSTGRES_MAX_CONNS", "42")
	t.Setenv(p+"_POSTGRES_AUTO_MIGRATE", "true")
	t.Setenv(p+"_STORAGE_DRIVER", " Memory ")

	// Kafka
	t.Setenv(p+"_KAFKA_ENABLED", "false")
	t.Setenv(p+"_KAFKA_BROKERS", "k1:9092,k2:9093")
	t.Setenv(p+"_KAFKA_TOPIC", "orders-test")
	t.Setenv(p+"_KAFKA_GROUP_ID", "g-test")
	t.Setenv(p+"_KAFKA_START_OFFSET", "first")
	t.Setenv(p+"_KAFKA_PROCESS_TIMEOUT", "7s")
	t.Setenv(p+"_KAFKA_RETRY_INITIAL", "250ms")
	t.Setenv(p+"_KAFKA_RETRY_MAX", "2m")

	// Cache
	t.Setenv(p+"_CACHE_DRIVER", "redis")
	t.Setenv(p+"_CACHE_CAPACITY", "777")
	t.Setenv(p+"_CACHE_TTL", "30m")
	t.Setenv(p+"_CACHE_WARMUP_N", "50")
	t.Setenv(p+"_CACHE_REDIS_ADDR", "cache:6380")
	t.Setenv(p+"_CACHE_REDIS_PASSWORD", "pw")
	t.Setenv(p+"_CACHE_REDIS_DB", "3")

	// Catalog
	t.Setenv(p+"_CATALOG_TIMEOUT", "800ms")
	t.Setenv(p+"_CATALOG_SEED_FILE", "/data/catalog.json")

	// Logger
	t.Setenv(p+"_LOGGER_IS_PROD", "true")

	c, err := cfg.LoadWithPrefix(p)
	if err != nil {
		t.Fatalf("LoadWithPrefix error: %v", err)
	}

	// Проверки
	if c.HTTP.Addr != ":9999" || c.HTTP.GinMode != "release" {
		t.Fatalf("HTTP overrides wrong: %+v", c.HTTP)
	}
	if c.HTTP.ReadTimeout != 2*time.Second || c.HTTP.WriteTimeout != 3*time.Second ||
		c.HTTP.ReadHeaderTimeout != 1*time.Second || c.HTTP.IdleTimeout != 15*time.Second ||
		c.HTTP.HandlerTimeout != 4500*time.Millisecond || c.HTTP.GracefulTimeout != 9*time.Second {
		t.Fatalf("HTTP timeouts override wrong: %+v", c.HTTP)
	}
	if !c.Metrics.Enabled || c.Metrics.Addr != ":9998" {
		t.Fatalf("Metrics override wrong: %+v", c.Metrics)
	}
	if !c.Tracing.Enabled || c.Tracing.ServiceName != "svc" || c.Tracing.Endpoint != "collector:4318" || c.Tracing.SampleRatio != 0.25 {
		t.Fatalf("Tracing overrides wrong: %+v", c.Tracing)
	}
	if c.Postgres.DSN != "postgres://u:p@h:5432/db?sslmode=disable" || c.Postgres.MaxConns != 42 || !c.Postgres.AutoMigrate {
		t.Fatalf("Postgres overrides wrong: %+v", c.Postgres)
	}
	if c.Storage.Driver != "memory" {
		t.Fatalf("Storage.Driver must be normalized, got %q", c.Storage.Driver)
	}
	if c.Kafka.Enabled || !slices.Equal(c.Kafka.Brokers, []string{"k1:9092", "k2:9093"}) ||
		c.Kafka.Topic != "orders-test" || c.Kafka.GroupID != "g-test" || c.Kafka.StartOffset != "first" {
		t.Fatalf("Kafka basic overrides wrong: %+v", c.Kafka)
	}
	if c.Kafka.ProcessTimeout != 7*time.Second || c.Kafka.RetryInitial != 250*time.Millisecond || c.Kafka.RetryMax != 2*time.Minute {
		t.Fatalf("Kafka timeouts override wrong: %+v", c.Kafka)
	}
	if c.Cache.Driver != "redis" || c.Cache.Capacity != 777 || c.Cache.TTL != 30*time.Minute || c.Cache.WarmUpN != 50 {
		t.Fatalf("Cache overrides wrong: %+v", c.Cache)
	}
	if c.Cache.RedisAddr != "cache:6380" || c.Cache.RedisPassword != "pw" || c.Cache.RedisDB != 3 {
		t.Fatalf("Cache redis overrides wrong: %+v", c.Cache)
	}
	if c.Catalog.Timeout != 800*time.Millisecond || c.Catalog.SeedFile != "/data/catalog.json" {
		t.Fatalf("Catalog overrides wrong: %+v", c.Catalog)
	}
	if !c.Logger.IsProd {
		t.Fatalf("Logger.IsProd override wrong: %+v", c.Logger)
	}
}

// Тоже меняем окружение — но с невалидными значениями.
func TestLoadWithPrefix_InvalidValue_ReturnsError(t *testing.T) {
	cases := map[string]struct{ key, value string }{
		"bad duration":       {"_HTTP_READ_TIMEOUT", "not-a-duration"},
		"bad storage driver": {"_STORAGE_DRIVER", "sqlite"},
		"bad cache driver":   {"_CACHE_DRIVER", "memcached"},
		"bad sample ratio":   {"_TRACING_OTEL_SAMPLE_RATIO", "1.5"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			const p = "PRICING_TEST_BAD"
			t.Setenv(p+tc.key, tc.value)

			if _, err := cfg.LoadWithPrefix(p); err == nil {
				t.Fatalf("expected error for %s=%q, got nil", tc.key, tc.value)
			}
		})
	}
}
