package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Gunvolt24/shop_pricing/internal/domain"
	"github.com/Gunvolt24/shop_pricing/internal/ports"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var _ ports.DiscountRepository = (*DiscountRepository)(nil)

const (
	constraintDiscountCode  = "discount_codes_code_key"
	constraintRedemptionKey = "discount_redemptions_order_key"
)

const discountColumns = `d.id, d.code, d.kind, d.value, d.min_order_amount, d.max_discount_amount,
		d.valid_from, d.valid_until, d.total_usage_limit, d.used_count, d.per_customer_limit,
		d.is_active, d.description, d.created_by, d.created_at, d.updated_at,
		ARRAY(SELECT p.product_id FROM discount_products p WHERE p.discount_id = d.id ORDER BY p.product_id),
		ARRAY(SELECT c.category_id FROM discount_categories c WHERE c.discount_id = d.id ORDER BY c.category_id)`

// DiscountRepository — промокоды и журнал их использований в Postgres.
type DiscountRepository struct {
	pool *pgxpool.Pool
}

// NewDiscountRepository - конструктор DiscountRepository.
func NewDiscountRepository(pool *pgxpool.Pool) *DiscountRepository {
	return &DiscountRepository{pool: pool}
}

// Create — код и его множества применимости в одной транзакции.
func (r *DiscountRepository) Create(ctx context.Context, code *domain.DiscountCode) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer rollback(ctx, tx)

	if _, err = tx.Exec(ctx, `
		INSERT INTO discount_codes (
			id, code, kind, value, min_order_amount, max_discount_amount,
			valid_from, valid_until, total_usage_limit, used_count, per_customer_limit,
			is_active, description, created_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`,
		code.ID, code.Code, string(code.Kind), code.Value, code.MinOrderAmount, nullDecimal(code.MaxDiscountAmount),
		code.ValidFrom, code.ValidUntil, code.TotalUsageLimit, code.UsedCount, code.PerCustomerLimit,
		code.IsActive, code.Description, code.CreatedBy, code.CreatedAt, code.UpdatedAt,
	); err != nil {
		if isUniqueViolation(err, constraintDiscountCode) {
			return domain.ErrDuplicateCode(code.Code)
		}
		return fmt.Errorf("insert discount: %w", err)
	}

	if err = copyApplicability(ctx, tx, code); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Update — редактируемые поля и множества применимости; used_count и автор не меняются.
func (r *DiscountRepository) Update(ctx context.Context, code *domain.DiscountCode) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer rollback(ctx, tx)

	tag, err := tx.Exec(ctx, `
		UPDATE discount_codes SET
			code = $2,
			kind = $3,
			value = $4,
			min_order_amount = $5,
			max_discount_amount = $6,
			valid_from = $7,
			valid_until = $8,
			total_usage_limit = $9,
			per_customer_limit = $10,
			is_active = $11,
			description = $12,
			updated_at = $13
		WHERE id = $1
	`,
		code.ID, code.Code, string(code.Kind), code.Value, code.MinOrderAmount, nullDecimal(code.MaxDiscountAmount),
		code.ValidFrom, code.ValidUntil, code.TotalUsageLimit, code.PerCustomerLimit,
		code.IsActive, code.Description, code.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, constraintDiscountCode) {
			return domain.ErrDuplicateCode(code.Code)
		}
		return fmt.Errorf("update discount: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDiscountNotFound
	}

	if _, err = tx.Exec(ctx, `DELETE FROM discount_products WHERE discount_id = $1`, code.ID); err != nil {
		return fmt.Errorf("delete discount products: %w", err)
	}
	if _, err = tx.Exec(ctx, `DELETE FROM discount_categories WHERE discount_id = $1`, code.ID); err != nil {
		return fmt.Errorf("delete discount categories: %w", err)
	}
	if err = copyApplicability(ctx, tx, code); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Delete — удаление кода; применимость и журнал удаляются каскадно.
func (r *DiscountRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM discount_codes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete discount: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDiscountNotFound
	}
	return nil
}

// GetByID — код по id. Если не нашли, возвращает (nil, nil).
func (r *DiscountRepository) GetByID(ctx context.Context, id string) (*domain.DiscountCode, error) {
	return r.getOne(ctx, `SELECT `+discountColumns+` FROM discount_codes d WHERE d.id = $1`, id)
}

// GetByCode — код по нормализованному значению. Если не нашли, возвращает (nil, nil).
func (r *DiscountRepository) GetByCode(ctx context.Context, code string) (*domain.DiscountCode, error) {
	return r.getOne(ctx, `SELECT `+discountColumns+` FROM discount_codes d WHERE d.code = $1`, code)
}

func (r *DiscountRepository) getOne(ctx context.Context, query string, arg string) (*domain.DiscountCode, error) {
	code, err := scanDiscount(r.pool.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select discount: %w", err)
	}
	return code, nil
}

// List — административный список: фильтры active/expired/search, новые первыми.
func (r *DiscountRepository) List(ctx context.Context, filter domain.DiscountFilter) ([]*domain.DiscountCode, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter.Active != nil {
		where = append(where, "d.is_active = "+arg(*filter.Active))
	}
	if filter.Expired != nil {
		now := arg(filter.Now)
		if *filter.Expired {
			where = append(where, "d.valid_until < "+now)
		} else {
			where = append(where, "(d.valid_until IS NULL OR d.valid_until >= "+now+")")
		}
	}
	if filter.Search != "" {
		pattern := arg("%" + escapeLike(filter.Search) + "%")
		where = append(where, "(d.code ILIKE "+pattern+" OR d.description ILIKE "+pattern+")")
	}

	query := `SELECT ` + discountColumns + ` FROM discount_codes d`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY d.created_at DESC, d.code`
	if filter.Limit > 0 {
		query += ` LIMIT ` + arg(filter.Limit)
	}
	if filter.Offset > 0 {
		query += ` OFFSET ` + arg(filter.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select discounts: %w", err)
	}
	defer rows.Close()

	list := make([]*domain.DiscountCode, 0)
	for rows.Next() {
		code, err := scanDiscount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan discount: %w", err)
		}
		list = append(list, code)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("discounts rows: %w", err)
	}
	return list, nil
}

// Redeem — фиксация одного использования в транзакции:
//  1. повтор по order_id возвращает текущий счётчик без изменений;
//  2. условный инкремент used_count (только пока лимит не исчерпан) - блокирует строку кода;
//  3. персональный лимит по журналу (проверка сериализована блокировкой строки кода);
//  4. запись в журнал.
func (r *DiscountRepository) Redeem(ctx context.Context, red domain.Redemption) (domain.RedemptionResult, error) {
	if red.OrderID != "" {
		res, found, err := r.replayed(ctx, red)
		if err != nil || found {
			return res, err
		}
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.RedemptionResult{}, err
	}
	defer rollback(ctx, tx)

	var (
		code             string
		usedCount        int
		perCustomerLimit *int
	)
	err = tx.QueryRow(ctx, `
		UPDATE discount_codes
		SET used_count = used_count + 1, updated_at = $2
		WHERE id = $1 AND (total_usage_limit IS NULL OR used_count < total_usage_limit)
		RETURNING code, used_count, per_customer_limit
	`, red.DiscountID, red.RedeemedAt).Scan(&code, &usedCount, &perCustomerLimit)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.RedemptionResult{}, r.noRedeemReason(ctx, tx, red.DiscountID)
	}
	if err != nil {
		return domain.RedemptionResult{}, fmt.Errorf("increment used_count: %w", err)
	}

	if red.CustomerID != "" && perCustomerLimit != nil {
		var used int
		if err := tx.QueryRow(ctx, `
			SELECT count(*) FROM discount_redemptions
			WHERE discount_id = $1 AND customer_id = $2
		`, red.DiscountID, red.CustomerID).Scan(&used); err != nil {
			return domain.RedemptionResult{}, fmt.Errorf("count customer redemptions: %w", err)
		}
		if used >= *perCustomerLimit {
			return domain.RedemptionResult{}, domain.Ineligible(code, domain.IneligibleCustomerLimitReached)
		}
	}

	var orderID *string
	if red.OrderID != "" {
		orderID = &red.OrderID
	}
	if _, err = tx.Exec(ctx, `
		INSERT INTO discount_redemptions (id, discount_id, order_id, customer_id, redeemed_at)
		VALUES ($1, $2, $3, $4, $5)
	`, uuid.NewString(), red.DiscountID, orderID, red.CustomerID, red.RedeemedAt); err != nil {
		if isUniqueViolation(err, constraintRedemptionKey) {
			// Параллельный запрос с тем же order_id успел первым.
			rollback(ctx, tx)
			res, found, rErr := r.replayed(ctx, red)
			if rErr == nil && !found {
				rErr = fmt.Errorf("insert redemption: %w", err)
			}
			return res, rErr
		}
		return domain.RedemptionResult{}, fmt.Errorf("insert redemption: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.RedemptionResult{}, fmt.Errorf("commit: %w", err)
	}
	return domain.RedemptionResult{DiscountID: red.DiscountID, Code: code, UsedCount: usedCount}, nil
}

// CustomerRedemptions — число записей журнала клиента по коду.
func (r *DiscountRepository) CustomerRedemptions(ctx context.Context, discountID, customerID string) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `
		SELECT count(*) FROM discount_redemptions
		WHERE discount_id = $1 AND customer_id = $2
	`, discountID, customerID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count customer redemptions: %w", err)
	}
	return n, nil
}

// replayed — использование с таким order_id уже зафиксировано.
func (r *DiscountRepository) replayed(ctx context.Context, red domain.Redemption) (domain.RedemptionResult, bool, error) {
	var discountID, code string
	var usedCount int
	err := r.pool.QueryRow(ctx, `
		SELECT d.id, d.code, d.used_count
		FROM discount_redemptions rd
		JOIN discount_codes d ON d.id = rd.discount_id
		WHERE rd.order_id = $1
	`, red.OrderID).Scan(&discountID, &code, &usedCount)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.RedemptionResult{}, false, nil
	}
	if err != nil {
		return domain.RedemptionResult{}, false, fmt.Errorf("select redemption: %w", err)
	}
	if discountID != red.DiscountID {
		return domain.RedemptionResult{}, false, &domain.ValidationError{
			Field:   "order_id",
			Message: "order already redeemed another discount",
			Cause:   domain.ErrConflict,
		}
	}
	return domain.RedemptionResult{DiscountID: discountID, Code: code, UsedCount: usedCount, Replayed: true}, true, nil
}

// noRedeemReason — условный UPDATE не затронул строк: кода нет или лимит исчерпан.
func (r *DiscountRepository) noRedeemReason(ctx context.Context, tx pgx.Tx, id string) error {
	var code string
	err := tx.QueryRow(ctx, `SELECT code FROM discount_codes WHERE id = $1`, id).Scan(&code)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrDiscountNotFound
	}
	if err != nil {
		return fmt.Errorf("select discount: %w", err)
	}
	return domain.Ineligible(code, domain.IneligibleLimitReached)
}

func scanDiscount(row pgx.Row) (*domain.DiscountCode, error) {
	var (
		d        domain.DiscountCode
		kind     string
		maxLimit decimal.NullDecimal
	)
	if err := row.Scan(
		&d.ID, &d.Code, &kind, &d.Value, &d.MinOrderAmount, &maxLimit,
		&d.ValidFrom, &d.ValidUntil, &d.TotalUsageLimit, &d.UsedCount, &d.PerCustomerLimit,
		&d.IsActive, &d.Description, &d.CreatedBy, &d.CreatedAt, &d.UpdatedAt,
		&d.ApplicableProducts, &d.ApplicableCategories,
	); err != nil {
		return nil, err
	}
	d.Kind = domain.DiscountKind(kind)
	if maxLimit.Valid {
		v := maxLimit.Decimal
		d.MaxDiscountAmount = &v
	}
	return &d, nil
}

func copyApplicability(ctx context.Context, tx pgx.Tx, code *domain.DiscountCode) error {
	if len(code.ApplicableProducts) > 0 {
		rows := make([][]any, 0, len(code.ApplicableProducts))
		for _, id := range dedupe(code.ApplicableProducts) {
			rows = append(rows, []any{code.ID, id})
		}
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"discount_products"},
			[]string{"discount_id", "product_id"}, pgx.CopyFromRows(rows)); err != nil {
			return fmt.Errorf("copy discount products: %w", err)
		}
	}
	if len(code.ApplicableCategories) > 0 {
		rows := make([][]any, 0, len(code.ApplicableCategories))
		for _, id := range dedupe(code.ApplicableCategories) {
			rows = append(rows, []any{code.ID, id})
		}
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"discount_categories"},
			[]string{"discount_id", "category_id"}, pgx.CopyFromRows(rows)); err != nil {
			return fmt.Errorf("copy discount categories: %w", err)
		}
	}
	return nil
}

func nullDecimal(v *decimal.Decimal) decimal.NullDecimal {
	if v == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *v, Valid: true}
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
