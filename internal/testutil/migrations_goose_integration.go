//go:build integration

package testutil

import (
	"context"
	"time"

	"github.com/Gunvolt24/shop_pricing/internal/repo/postgres"
)

// ApplyMigrationsGoose накатывает встроенные миграции схемы на контейнерную БД.
func ApplyMigrationsGoose(dsn string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return postgres.Migrate(ctx, dsn, postgres.MigrateUp)
}
