package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DiscountKind - тип скидки.
type DiscountKind string

const (
	KindPercentage DiscountKind = "percentage"
	KindFixed      DiscountKind = "fixed"
)

// Valid - допустимое значение типа.
func (k DiscountKind) Valid() bool {
	return k == KindPercentage || k == KindFixed
}

// DiscountCode - промокод и правила его применения.
type DiscountCode struct {
	ID                   string           `json:"id"`
	Code                 string           `json:"code"`
	Kind                 DiscountKind     `json:"kind"`
	Value                decimal.Decimal  `json:"value"`
	MinOrderAmount       decimal.Decimal  `json:"min_order_amount"`
	MaxDiscountAmount    *decimal.Decimal `json:"max_discount_amount,omitempty"`
	ValidFrom            time.Time        `json:"valid_from"`
	ValidUntil           *time.Time       `json:"valid_until,omitempty"`
	TotalUsageLimit      *int             `json:"total_usage_limit,omitempty"`
	UsedCount            int              `json:"used_count"`
	PerCustomerLimit     *int             `json:"per_customer_limit,omitempty"`
	ApplicableProducts   []string         `json:"applicable_products"`
	ApplicableCategories []string         `json:"applicable_categories"`
	IsActive             bool             `json:"is_active"`
	Description          string           `json:"description,omitempty"`
	CreatedBy            string           `json:"created_by"`
	CreatedAt            time.Time        `json:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at"`
}

// Exhausted - общий лимит использований исчерпан.
func (d *DiscountCode) Exhausted() bool {
	return d.TotalUsageLimit != nil && d.UsedCount >= *d.TotalUsageLimit
}

// Clone - копия кода, не разделяющая слайсы и указатели с оригиналом.
func (d *DiscountCode) Clone() *DiscountCode {
	if d == nil {
		return nil
	}
	cloned := *d
	cloned.ApplicableProducts = append([]string{}, d.ApplicableProducts...)
	cloned.ApplicableCategories = append([]string{}, d.ApplicableCategories...)
	if d.MaxDiscountAmount != nil {
		v := *d.MaxDiscountAmount
		cloned.MaxDiscountAmount = &v
	}
	if d.ValidUntil != nil {
		v := *d.ValidUntil
		cloned.ValidUntil = &v
	}
	if d.TotalUsageLimit != nil {
		v := *d.TotalUsageLimit
		cloned.TotalUsageLimit = &v
	}
	if d.PerCustomerLimit != nil {
		v := *d.PerCustomerLimit
		cloned.PerCustomerLimit = &v
	}
	return &cloned
}

// NormalizeCode - канонический вид кода (trim + upper case).
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// DiscountSpec - входные данные администратора для создания/редактирования кода.
type DiscountSpec struct {
	Code                 string           `json:"code"`
	Kind                 DiscountKind     `json:"kind"`
	Value                decimal.Decimal  `json:"value"`
	MinOrderAmount       decimal.Decimal  `json:"min_order_amount"`
	MaxDiscountAmount    *decimal.Decimal `json:"max_discount_amount,omitempty"`
	ValidFrom            *time.Time       `json:"valid_from,omitempty"`
	ValidUntil           *time.Time       `json:"valid_until,omitempty"`
	TotalUsageLimit      *int             `json:"total_usage_limit,omitempty"`
	PerCustomerLimit     *int             `json:"per_customer_limit,omitempty"`
	ApplicableProducts   []string         `json:"applicable_products,omitempty"`
	ApplicableCategories []string         `json:"applicable_categories,omitempty"`
	IsActive             *bool            `json:"is_active,omitempty"`
	Description          string           `json:"description,omitempty"`
	CreatedBy            string           `json:"created_by"`
}

// OrderContext - контекст заказа, против которого проверяется код.
type OrderContext struct {
	OrderAmount decimal.Decimal `json:"order_amount"`
	ProductIDs  []string        `json:"product_ids,omitempty"`
	CategoryIDs []string        `json:"category_ids,omitempty"`
	CustomerID  string          `json:"customer_id,omitempty"`
}

// Quote - проверенный, но ещё не зафиксированный результат применения кода.
type Quote struct {
	DiscountID  string          `json:"discount_id"`
	Code        string          `json:"code"`
	Kind        DiscountKind    `json:"kind"`
	OrderAmount decimal.Decimal `json:"order_amount"`
	Deduction   decimal.Decimal `json:"deduction"`
	FinalAmount decimal.Decimal `json:"final_amount"`
}

// Redemption - запрос на фиксацию одного использования кода.
type Redemption struct {
	DiscountID string
	// OrderID - ключ идемпотентности; пустой - без идемпотентности.
	OrderID    string
	CustomerID string
	RedeemedAt time.Time
}

// RedemptionResult - итог фиксации.
type RedemptionResult struct {
	DiscountID string `json:"discount_id"`
	Code       string `json:"code"`
	UsedCount  int    `json:"used_count"`
	// Replayed - запрос с тем же OrderID уже был зафиксирован ранее, счётчик не менялся.
	Replayed bool `json:"replayed"`
}

// DiscountFilter - фильтры административного списка.
type DiscountFilter struct {
	Active  *bool
	Expired *bool
	Search  string
	Now     time.Time
	Limit   int
	Offset  int
}
