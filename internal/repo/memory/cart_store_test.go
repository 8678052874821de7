package memory_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/Gunvolt24/shop_pricing/internal/domain"
	"github.com/Gunvolt24/shop_pricing/internal/repo/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartStore_UpdateRequiresCartUnlessCreate(t *testing.T) {
	s := memory.NewCartStore()
	ctx := context.Background()

	_, err := s.Update(ctx, "u1", false, func(context.Context, *domain.Cart) error { return nil })
	require.ErrorIs(t, err, domain.ErrCartNotFound)

	cart, err := s.Update(ctx, "u1", true, func(_ context.Context, c *domain.Cart) error {
		c.Items = append(c.Items, domain.CartItem{ProductID: "p1", StoreID: "s1", Quantity: 1})
		return nil
	})
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)

	stored, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, cart.Items, stored.Items)
}

func TestCartStore_MutationErrorRollsBack(t *testing.T) {
	s := memory.NewCartStore()
	ctx := context.Background()

	_, err := s.Update(ctx, "u1", true, func(_ context.Context, c *domain.Cart) error {
		c.Items = append(c.Items, domain.CartItem{ProductID: "p1", StoreID: "s1", Quantity: 1})
		return nil
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = s.Update(ctx, "u1", false, func(_ context.Context, c *domain.Cart) error {
		c.Items = nil
		return boom
	})
	require.ErrorIs(t, err, boom)

	stored, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
}

func TestCartStore_ConcurrentIncrementsAreSerialized(t *testing.T) {
	const n = 50

	s := memory.NewCartStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Update(ctx, "u1", true, func(_ context.Context, c *domain.Cart) error {
				if len(c.Items) == 0 {
					c.Items = append(c.Items, domain.CartItem{ProductID: "p1", StoreID: "s1"})
				}
				c.Items[0].Quantity++
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stored, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	require.Equal(t, n, stored.Items[0].Quantity)
}

func TestCatalog_LoadFileAndLookup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"products": [
			{"product_id": "p1", "store_id": "s1", "regular_price": "10.00", "discount_price": "8.00"},
			{"product_id": "p2", "store_id": "s1", "regular_price": "3.50"}
		],
		"categories": ["c1"]
	}`), 0o600))

	c, err := memory.LoadCatalogFile(path)
	require.NoError(t, err)

	ctx := context.Background()
	prices, err := c.LookupPrices(ctx, []string{"p1", "p2", "gone"})
	require.NoError(t, err)
	require.Len(t, prices, 2)
	require.Equal(t, "8", prices["p1"].DiscountPrice.String())

	ok, err := c.CategoryExists(ctx, "c1")
	require.NoError(t, err)
	require.True(t, ok)

	c.DeleteProduct("p1")
	ok, err = c.ProductExists(ctx, "p1")
	require.NoError(t, err)
	require.False(t, ok)
}
