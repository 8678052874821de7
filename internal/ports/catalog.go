package ports

import (
	"context"
	"time"

	"github.com/Gunvolt24/shop_pricing/internal/domain"
)

// Catalog - внешний каталог товаров (только чтение).
type Catalog interface {
	// LookupPrices - цены для существующих товаров; отсутствие ключа означает удалённый товар.
	LookupPrices(ctx context.Context, productIDs []string) (map[string]domain.ProductPrice, error)
	ProductExists(ctx context.Context, productID string) (bool, error)
	CategoryExists(ctx context.Context, categoryID string) (bool, error)
}

// Clock - источник текущего времени (подменяется в тестах).
type Clock interface {
	Now() time.Time
}
