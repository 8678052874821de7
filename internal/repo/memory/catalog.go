package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/Gunvolt24/shop_pricing/internal/domain"
	"github.com/Gunvolt24/shop_pricing/internal/ports"
)

// Catalog — каталог товаров в памяти (для драйвера memory и тестов).
type Catalog struct {
	mu         sync.RWMutex
	products   map[string]domain.ProductPrice
	categories map[string]struct{}
}

var _ ports.Catalog = (*Catalog)(nil)

func NewCatalog() *Catalog {
	return &Catalog{
		products:   make(map[string]domain.ProductPrice),
		categories: make(map[string]struct{}),
	}
}

// CatalogSeed — формат файла начального наполнения каталога.
type CatalogSeed struct {
	Products   []domain.ProductPrice `json:"products"`
	Categories []string              `json:"categories"`
}

// LoadCatalogFile — каталог из JSON-файла формата CatalogSeed.
func LoadCatalogFile(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog seed: %w", err)
	}
	var seed CatalogSeed
	if err := json.Unmarshal(raw, &seed); err != nil {
		return nil, fmt.Errorf("parse catalog seed %s: %w", path, err)
	}

	c := NewCatalog()
	for _, p := range seed.Products {
		c.PutProduct(p)
	}
	for _, id := range seed.Categories {
		c.PutCategory(id)
	}
	return c, nil
}

func (c *Catalog) PutProduct(p domain.ProductPrice) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products[p.ProductID] = p
}

// DeleteProduct — имитация удаления товара из каталога (позиции корзин становятся stale).
func (c *Catalog) DeleteProduct(productID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.products, productID)
}

func (c *Catalog) PutCategory(categoryID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.categories[categoryID] = struct{}{}
}

func (c *Catalog) LookupPrices(ctx context.Context, productIDs []string) (map[string]domain.ProductPrice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]domain.ProductPrice, len(productIDs))
	for _, id := range productIDs {
		if p, ok := c.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (c *Catalog) ProductExists(ctx context.Context, productID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.products[productID]
	return ok, nil
}

func (c *Catalog) CategoryExists(ctx context.Context, categoryID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.categories[categoryID]
	return ok, nil
}
