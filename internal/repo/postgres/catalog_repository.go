package postgres

import (
	"context"
	"fmt"

	"github.com/Gunvolt24/shop_pricing/internal/domain"
	"github.com/Gunvolt24/shop_pricing/internal/ports"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var _ ports.Catalog = (*CatalogRepository)(nil)

// CatalogRepository — чтение цен и существования товаров/категорий из таблиц каталога.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository - конструктор CatalogRepository.
func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

// LookupPrices — одним запросом по всем id; отсутствующие товары в результат не попадают.
func (r *CatalogRepository) LookupPrices(ctx context.Context, productIDs []string) (map[string]domain.ProductPrice, error) {
	out := make(map[string]domain.ProductPrice, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, store_id, price, discount_price
		FROM products
		WHERE id = ANY($1::text[])
	`, productIDs)
	if err != nil {
		return nil, fmt.Errorf("select prices: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			p        domain.ProductPrice
			discount decimal.NullDecimal
		)
		if err := rows.Scan(&p.ProductID, &p.StoreID, &p.RegularPrice, &discount); err != nil {
			return nil, fmt.Errorf("scan price: %w", err)
		}
		if discount.Valid {
			v := discount.Decimal
			p.DiscountPrice = &v
		}
		out[p.ProductID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("prices rows: %w", err)
	}
	return out, nil
}

func (r *CatalogRepository) ProductExists(ctx context.Context, productID string) (bool, error) {
	var ok bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, productID).Scan(&ok); err != nil {
		return false, fmt.Errorf("product exists: %w", err)
	}
	return ok, nil
}

func (r *CatalogRepository) CategoryExists(ctx context.Context, categoryID string) (bool, error) {
	var ok bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM categories WHERE id = $1)`, categoryID).Scan(&ok); err != nil {
		return false, fmt.Errorf("category exists: %w", err)
	}
	return ok, nil
}
