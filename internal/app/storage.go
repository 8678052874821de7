package app

import (
	"context"
	"fmt"

	"github.com/Gunvolt24/shop_pricing/config"
	cachemem "github.com/Gunvolt24/shop_pricing/internal/cache/memory"
	rediscache "github.com/Gunvolt24/shop_pricing/internal/cache/redis"
	"github.com/Gunvolt24/shop_pricing/internal/ports"
	"github.com/Gunvolt24/shop_pricing/internal/repo/memory"
	"github.com/Gunvolt24/shop_pricing/internal/repo/postgres"
)

// storage — хранилища, выбранные драйвером из конфигурации.
type storage struct {
	carts     ports.CartRepository
	discounts ports.DiscountRepository
	catalog   ports.Catalog
	close     func()
}

// openStorage — memory: всё в процессе, каталог из SeedFile (если задан);
// postgres: пул подключений и репозитории поверх него.
func openStorage(ctx context.Context, cfg *config.Config, log ports.Logger) (*storage, error) {
	switch cfg.Storage.Driver {
	case "memory":
		catalog := memory.NewCatalog()
		if path := cfg.Catalog.SeedFile; path != "" {
			seeded, err := memory.LoadCatalogFile(path)
			if err != nil {
				return nil, err
			}
			catalog = seeded
		}
		log.Infof(ctx, "storage driver=memory catalog_seed=%q", cfg.Catalog.SeedFile)
		return &storage{
			carts:     memory.NewCartStore(),
			discounts: memory.NewDiscountStore(),
			catalog:   catalog,
			close:     func() {},
		}, nil

	case "postgres":
		if cfg.Postgres.AutoMigrate {
			if err := postgres.Migrate(ctx, cfg.Postgres.DSN, postgres.MigrateUp); err != nil {
				return nil, err
			}
			log.Infof(ctx, "postgres migrations applied")
		}
		pool, err := postgres.NewPool(ctx, postgres.PoolOptions{DSN: cfg.Postgres.DSN, MaxConns: cfg.Postgres.MaxConns})
		if err != nil {
			return nil, err
		}
		log.Infof(ctx, "storage driver=postgres max_conns=%d", cfg.Postgres.MaxConns)
		return &storage{
			carts:     postgres.NewCartRepository(pool),
			discounts: postgres.NewDiscountRepository(pool),
			catalog:   postgres.NewCatalogRepository(pool),
			close:     pool.Close,
		}, nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}

// openCache — кэш определений промокодов: LRU в процессе или общий Redis.
func openCache(ctx context.Context, cfg *config.Config, log ports.Logger) (ports.DiscountCache, func(), error) {
	switch cfg.Cache.Driver {
	case "memory":
		return cachemem.NewLRUCacheTTL(cfg.Cache.Capacity, cfg.Cache.TTL), func() {}, nil

	case "redis":
		opts := rediscache.Options{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
			TTL:      cfg.Cache.TTL,
		}
		client, err := rediscache.NewClient(ctx, opts)
		if err != nil {
			return nil, nil, err
		}
		closeClient := func() {
			if err := client.Close(); err != nil {
				log.Warnf(ctx, "redis close: %v", err)
			}
		}
		log.Infof(ctx, "discount cache driver=redis addr=%s db=%d ttl=%s", opts.Addr, opts.DB, opts.TTL)
		return rediscache.NewDiscountCache(client, opts, log), closeClient, nil
	}
	return nil, nil, fmt.Errorf("unknown cache driver %q", cfg.Cache.Driver)
}
