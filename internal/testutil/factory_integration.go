//go:build integration

package testutil

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/Gunvolt24/shop_pricing/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

func randHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func UniqSuffix() string { return randHex(6) }

// MakeDiscount — валидный активный фиксированный код с уникальным значением.
func MakeDiscount(opts ...func(*domain.DiscountCode)) *domain.DiscountCode {
	now := time.Now().UTC().Truncate(time.Second)

	d := &domain.DiscountCode{
		ID:                   uuid.NewString(),
		Code:                 "TC" + UniqSuffix(),
		Kind:                 domain.KindFixed,
		Value:                decimal.NewFromInt(10),
		MinOrderAmount:       decimal.Zero,
		ValidFrom:            now.Add(-time.Hour),
		IsActive:             true,
		ApplicableProducts:   []string{},
		ApplicableCategories: []string{},
		CreatedBy:            "admin-" + UniqSuffix(),
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	for _, fn := range opts {
		fn(d)
	}
	return d
}

func WithTotalLimit(n int) func(*domain.DiscountCode) {
	return func(d *domain.DiscountCode) { d.TotalUsageLimit = &n }
}

func WithCustomerLimit(n int) func(*domain.DiscountCode) {
	return func(d *domain.DiscountCode) { d.PerCustomerLimit = &n }
}

func WithPercentage(value, maxAmount string) func(*domain.DiscountCode) {
	return func(d *domain.DiscountCode) {
		d.Kind = domain.KindPercentage
		d.Value = decimal.RequireFromString(value)
		if maxAmount != "" {
			m := decimal.RequireFromString(maxAmount)
			d.MaxDiscountAmount = &m
		}
	}
}

func WithProducts(ids ...string) func(*domain.DiscountCode) {
	return func(d *domain.DiscountCode) { d.ApplicableProducts = ids }
}

func WithCreatedAt(t time.Time) func(*domain.DiscountCode) {
	return func(d *domain.DiscountCode) { d.CreatedAt = t }
}

// SeedProduct — товар в таблице каталога.
func SeedProduct(ctx context.Context, pool *pgxpool.Pool, p domain.ProductPrice) error {
	var discount any
	if p.DiscountPrice != nil {
		discount = *p.DiscountPrice
	}
	_, err := pool.Exec(ctx, `
		INSERT INTO products (id, store_id, name, price, discount_price)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			store_id = EXCLUDED.store_id,
			price = EXCLUDED.price,
			discount_price = EXCLUDED.discount_price
	`, p.ProductID, p.StoreID, "product "+p.ProductID, p.RegularPrice, discount)
	return err
}

// SeedCategory — категория в таблице каталога.
func SeedCategory(ctx context.Context, pool *pgxpool.Pool, id string) error {
	_, err := pool.Exec(ctx, `INSERT INTO categories (id, name) VALUES ($1, $1) ON CONFLICT (id) DO NOTHING`, id)
	return err
}
