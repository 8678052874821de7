package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Gunvolt24/shop_pricing/internal/domain"
	"github.com/Gunvolt24/shop_pricing/internal/ports"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Проверка, что CartRepository удовлетворяет интерфейсу ports.CartRepository.
var _ ports.CartRepository = (*CartRepository)(nil)

// CartRepository — корзины в Postgres. Каждое изменение выполняется в транзакции
// с блокировкой строки корзины (SELECT ... FOR UPDATE), другие корзины не блокируются.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository - конструктор CartRepository.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository { return &CartRepository{pool: pool} }

// querier — общий интерфейс пула и транзакции для чтения.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Get — корзина пользователя. Если не нашли, возвращает (nil, nil).
func (r *CartRepository) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	return loadCart(ctx, r.pool, userID, false)
}

// Update — read-modify-write одной корзины в транзакции:
//  1. при create=true создаём пустую строку корзины (если её нет);
//  2. блокируем строку корзины и читаем позиции;
//  3. применяем mutate;
//  4. заменяем позиции (DELETE + COPY) и перезаписываем суммы.
func (r *CartRepository) Update(ctx context.Context, userID string, create bool, mutate ports.CartMutation) (*domain.Cart, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer rollback(ctx, tx)

	if create {
		if _, err = tx.Exec(ctx, `
			INSERT INTO carts (user_id) VALUES ($1)
			ON CONFLICT (user_id) DO NOTHING
		`, userID); err != nil {
			return nil, fmt.Errorf("insert cart: %w", err)
		}
	}

	cart, err := loadCart(ctx, tx, userID, true)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, domain.ErrCartNotFound
	}

	if err := mutate(ctx, cart); err != nil {
		return nil, err
	}

	if _, err = tx.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID); err != nil {
		return nil, fmt.Errorf("delete cart items: %w", err)
	}
	if len(cart.Items) > 0 {
		if err = copyCartItems(ctx, tx, userID, cart.Items); err != nil {
			return nil, err
		}
	}

	if _, err = tx.Exec(ctx, `
		UPDATE carts
		SET subtotal = $2, discounted_subtotal = $3, total_discount = $4, updated_at = $5
		WHERE user_id = $1
	`, userID, cart.Totals.Subtotal, cart.Totals.DiscountedSubtotal, cart.Totals.TotalDiscount, cart.UpdatedAt); err != nil {
		return nil, fmt.Errorf("update cart totals: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return cart, nil
}

// loadCart — строка корзины и её позиции в порядке добавления; forUpdate блокирует строку корзины.
func loadCart(ctx context.Context, q querier, userID string, forUpdate bool) (*domain.Cart, error) {
	query := `
		SELECT user_id, subtotal, discounted_subtotal, total_discount, updated_at
		FROM carts WHERE user_id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	cart := domain.NewCart(userID)
	err := q.QueryRow(ctx, query, userID).Scan(
		&cart.UserID, &cart.Totals.Subtotal, &cart.Totals.DiscountedSubtotal, &cart.Totals.TotalDiscount, &cart.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select cart: %w", err)
	}

	rows, err := q.Query(ctx, `
		SELECT product_id, store_id, size, quantity
		FROM cart_items WHERE user_id = $1
		ORDER BY position
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("select cart items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(&item.ProductID, &item.StoreID, &item.Size, &item.Quantity); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		cart.Items = append(cart.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cart items rows: %w", err)
	}
	return cart, nil
}

// copyCartItems — вставка позиций через COPY; position сохраняет порядок добавления.
func copyCartItems(ctx context.Context, tx pgx.Tx, userID string, items []domain.CartItem) error {
	rows := make([][]any, 0, len(items))
	for i, item := range items {
		rows = append(rows, []any{userID, i, item.ProductID, item.StoreID, item.Size, item.Quantity})
	}
	_, err := tx.CopyFrom(
		ctx,
		pgx.Identifier{"cart_items"},
		[]string{"user_id", "position", "product_id", "store_id", "size", "quantity"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("copy cart items: %w", err)
	}
	return nil
}
