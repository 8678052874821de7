//go:build integration

package postgres_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gunvolt24/shop_pricing/internal/domain"
	pgrepo "github.com/Gunvolt24/shop_pricing/internal/repo/postgres"
	"github.com/Gunvolt24/shop_pricing/internal/testutil"
)

// startDB — контейнер Postgres с применёнными миграциями и пул для тестов.
func startDB(t *testing.T) (*pgxpool.Pool, context.Context) {
	t.Helper()

	// длинный контекст — только на подъём контейнера
	ctxStart, cancelStart := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancelStart()

	pg, stopPG, err := testutil.StartPostgresTC(ctxStart)
	require.NoError(t, err)
	t.Cleanup(func() { _ = stopPG(context.Background()) })

	require.NoError(t, testutil.ApplyMigrationsGoose(pg.DSN))

	// короткий контекст — на сами БД-операции
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	t.Cleanup(cancel)

	pool, err := pgrepo.NewPool(ctx, pgrepo.PoolOptions{DSN: pg.DSN, MaxConns: 20})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return pool, ctx
}

func TestCartRepo_UpdateAndGet_TC(t *testing.T) {
	t.Parallel()
	pool, ctx := startDB(t)
	repo := pgrepo.NewCartRepository(pool)

	_, err := repo.Update(ctx, "u-1", false, func(context.Context, *domain.Cart) error { return nil })
	require.ErrorIs(t, err, domain.ErrCartNotFound)

	now := time.Now().UTC().Truncate(time.Second)
	cart, err := repo.Update(ctx, "u-1", true, func(_ context.Context, c *domain.Cart) error {
		c.Items = append(c.Items,
			domain.CartItem{ProductID: "p1", StoreID: "s1", Size: "M", Quantity: 2},
			domain.CartItem{ProductID: "p2", StoreID: "s1", Quantity: 1},
		)
		c.Totals = domain.Totals{
			Subtotal:           decimal.RequireFromString("25.50"),
			DiscountedSubtotal: decimal.RequireFromString("20.00"),
			TotalDiscount:      decimal.RequireFromString("5.50"),
		}
		c.UpdatedAt = now
		return nil
	})
	require.NoError(t, err)
	require.Len(t, cart.Items, 2)

	got, err := repo.Get(ctx, "u-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, cart.Items, got.Items)
	require.True(t, got.Totals.Subtotal.Equal(decimal.RequireFromString("25.5")))
	require.True(t, got.Totals.TotalDiscount.Equal(decimal.RequireFromString("5.5")))

	missing, err := repo.Get(ctx, "nobody")
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestCartRepo_ConcurrentUpdatesAreSerialized_TC(t *testing.T) {
	t.Parallel()
	pool, ctx := startDB(t)
	repo := pgrepo.NewCartRepository(pool)

	const n = 10
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Update(ctx, "u-c", true, func(_ context.Context, c *domain.Cart) error {
				if len(c.Items) == 0 {
					c.Items = append(c.Items, domain.CartItem{ProductID: "p1", StoreID: "s1"})
				}
				c.Items[0].Quantity++
				c.UpdatedAt = time.Now().UTC()
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := repo.Get(ctx, "u-c")
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	require.Equal(t, n, got.Items[0].Quantity)
}

func TestDiscountRepo_CreateGetDuplicate_TC(t *testing.T) {
	t.Parallel()
	pool, ctx := startDB(t)
	repo := pgrepo.NewDiscountRepository(pool)

	d := testutil.MakeDiscount(testutil.WithPercentage("20", "50"), testutil.WithProducts("p1", "p2"), testutil.WithTotalLimit(5))
	require.NoError(t, repo.Create(ctx, d))

	got, err := repo.GetByCode(ctx, d.Code)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, d.ID, got.ID)
	require.Equal(t, domain.KindPercentage, got.Kind)
	require.True(t, got.MaxDiscountAmount.Equal(decimal.NewFromInt(50)))
	require.Equal(t, []string{"p1", "p2"}, got.ApplicableProducts)
	require.Empty(t, got.ApplicableCategories)
	require.Equal(t, 5, *got.TotalUsageLimit)
	require.Nil(t, got.PerCustomerLimit)
	require.Nil(t, got.ValidUntil)

	dup := testutil.MakeDiscount()
	dup.Code = d.Code
	err = repo.Create(ctx, dup)
	require.ErrorIs(t, err, domain.ErrConflict)

	none, err := repo.GetByID(ctx, dup.ID)
	require.NoError(t, err)
	require.Nil(t, none, "duplicate must not be persisted")
}

func TestDiscountRepo_ConcurrentRedeemHonoursLimit_TC(t *testing.T) {
	t.Parallel()
	pool, ctx := startDB(t)
	repo := pgrepo.NewDiscountRepository(pool)

	const limit = 10
	d := testutil.MakeDiscount(testutil.WithTotalLimit(limit))
	require.NoError(t, repo.Create(ctx, d))

	var ok, rejected atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 2*limit; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.Redeem(ctx, domain.Redemption{
				DiscountID: d.ID,
				OrderID:    fmt.Sprintf("o-%s-%d", d.ID, i),
				CustomerID: fmt.Sprintf("c-%d", i),
				RedeemedAt: time.Now().UTC(),
			})
			if err == nil {
				ok.Add(1)
				return
			}
			reason, isIneligible := domain.IneligibilityOf(err)
			if assert.True(t, isIneligible, "unexpected error: %v", err) &&
				assert.Equal(t, domain.IneligibleLimitReached, reason) {
				rejected.Add(1)
			}
		}(i)
	}
	wg.Wait()

	require.EqualValues(t, limit, ok.Load())
	require.EqualValues(t, limit, rejected.Load())

	got, err := repo.GetByID(ctx, d.ID)
	require.NoError(t, err)
	require.Equal(t, limit, got.UsedCount)
}

func TestDiscountRepo_RedeemReplayAndCustomerLimit_TC(t *testing.T) {
	t.Parallel()
	pool, ctx := startDB(t)
	repo := pgrepo.NewDiscountRepository(pool)

	d := testutil.MakeDiscount(testutil.WithCustomerLimit(1))
	require.NoError(t, repo.Create(ctx, d))

	red := domain.Redemption{DiscountID: d.ID, OrderID: "o-1", CustomerID: "c-1", RedeemedAt: time.Now().UTC()}
	first, err := repo.Redeem(ctx, red)
	require.NoError(t, err)
	require.Equal(t, 1, first.UsedCount)
	require.Equal(t, d.Code, first.Code)

	again, err := repo.Redeem(ctx, red)
	require.NoError(t, err)
	require.True(t, again.Replayed)
	require.Equal(t, 1, again.UsedCount)

	red.OrderID = "o-2"
	_, err = repo.Redeem(ctx, red)
	reason, ok := domain.IneligibilityOf(err)
	require.True(t, ok)
	require.Equal(t, domain.IneligibleCustomerLimitReached, reason)

	got, err := repo.GetByID(ctx, d.ID)
	require.NoError(t, err)
	require.Equal(t, 1, got.UsedCount, "rejected redemption must roll back the increment")

	n, err := repo.CustomerRedemptions(ctx, d.ID, "c-1")
	require.NoError(t, err)
	require.Equal(t, 1, n)

	_, err = repo.Redeem(ctx, domain.Redemption{DiscountID: "missing", RedeemedAt: time.Now().UTC()})
	require.ErrorIs(t, err, domain.ErrDiscountNotFound)
}

func TestDiscountRepo_UpdateListDelete_TC(t *testing.T) {
	t.Parallel()
	pool, ctx := startDB(t)
	repo := pgrepo.NewDiscountRepository(pool)

	base := time.Now().UTC().Truncate(time.Second)
	older := testutil.MakeDiscount(testutil.WithCreatedAt(base.Add(-time.Hour)))
	newer := testutil.MakeDiscount(testutil.WithCreatedAt(base))
	newer.Description = "Black Friday"
	require.NoError(t, repo.Create(ctx, older))
	require.NoError(t, repo.Create(ctx, newer))

	list, err := repo.List(ctx, domain.DiscountFilter{Now: base, Limit: 10})
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, newer.ID, list[0].ID)

	found, err := repo.List(ctx, domain.DiscountFilter{Search: "friday", Now: base})
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, newer.ID, found[0].ID)

	past := base.Add(-time.Minute)
	older.ValidUntil = &past
	older.IsActive = false
	older.ApplicableCategories = []string{"cat-1"}
	require.NoError(t, repo.Update(ctx, older))

	yes := true
	expired, err := repo.List(ctx, domain.DiscountFilter{Expired: &yes, Now: base})
	require.NoError(t, err)
	require.Len(t, expired, 1)
	require.Equal(t, older.ID, expired[0].ID)
	require.False(t, expired[0].IsActive)
	require.Equal(t, []string{"cat-1"}, expired[0].ApplicableCategories)

	require.NoError(t, repo.Delete(ctx, older.ID))
	require.ErrorIs(t, repo.Delete(ctx, older.ID), domain.ErrNotFound)
}

func TestCatalogRepo_Lookup_TC(t *testing.T) {
	t.Parallel()
	pool, ctx := startDB(t)
	catalog := pgrepo.NewCatalogRepository(pool)

	discount := decimal.RequireFromString("8.00")
	require.NoError(t, testutil.SeedProduct(ctx, pool, domain.ProductPrice{
		ProductID: "p1", StoreID: "s1", RegularPrice: decimal.RequireFromString("10.00"), DiscountPrice: &discount,
	}))
	require.NoError(t, testutil.SeedProduct(ctx, pool, domain.ProductPrice{
		ProductID: "p2", StoreID: "s2", RegularPrice: decimal.RequireFromString("3.00"),
	}))
	require.NoError(t, testutil.SeedCategory(ctx, pool, "c1"))

	prices, err := catalog.LookupPrices(ctx, []string{"p1", "p2", "gone"})
	require.NoError(t, err)
	require.Len(t, prices, 2)
	require.Equal(t, "s1", prices["p1"].StoreID)
	require.True(t, prices["p1"].DiscountPrice.Equal(discount))
	require.Nil(t, prices["p2"].DiscountPrice)

	ok, err := catalog.ProductExists(ctx, "gone")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = catalog.CategoryExists(ctx, "c1")
	require.NoError(t, err)
	require.True(t, ok)
}
