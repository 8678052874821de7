package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/Gunvolt24/shop_pricing/config"
	"github.com/Gunvolt24/shop_pricing/internal/repo/postgres"
)

// migrate - применение встроенных миграций схемы к Postgres.
//
//	migrate [-dsn ...] up|down|status|version|reset
//
// DSN по умолчанию берётся из PRICING_POSTGRES_DSN.
func main() {
	dsn := flag.String("dsn", "", "postgres DSN (overrides PRICING_POSTGRES_DSN)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] up|down|status|version|reset\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	command := postgres.MigrateUp
	if flag.NArg() > 0 {
		command = flag.Arg(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *dsn, command); err != nil {
		log.Fatalf("migrate %s: %v", command, err)
	}
}

func run(ctx context.Context, dsn, command string) error {
	if dsn == "" {
		_ = godotenv.Load(".env.local")
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		dsn = cfg.Postgres.DSN
	}
	return postgres.Migrate(ctx, dsn, command)
}
