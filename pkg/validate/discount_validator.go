package validate

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Gunvolt24/shop_pricing/internal/domain"
	"github.com/Gunvolt24/shop_pricing/internal/ports"
	"github.com/shopspring/decimal"
)

// Проверка, что DiscountValidator удовлетворяет интерфейсу DiscountSpecValidator.
var _ ports.DiscountSpecValidator = (*DiscountValidator)(nil)

// Ограничения полей промокода.
const (
	MinCodeLength        = 3
	MaxDescriptionLength = 500
	// Суммы хранятся как NUMERIC(14,2).
	AmountPlaces = 2
)

var (
	hundred = decimal.NewFromInt(100)
	// amountLimit — первое значение, не помещающееся в NUMERIC(14,2).
	amountLimit = decimal.New(1, 12)
)

// DiscountValidator — проверка полей и диапазонов входных данных промокода.
// Ссылки на товары/категории и уникальность кода здесь не проверяются:
// для этого нужно хранилище.
type DiscountValidator struct{}

// NewDiscountValidator — конструктор DiscountValidator.
// Возвращает *domain.ValidationError с именем поля при первой найденной проблеме.
func NewDiscountValidator() *DiscountValidator { return &DiscountValidator{} }

// Validate — проверяет корректность полей промокода.
func (v *DiscountValidator) Validate(_ context.Context, spec *domain.DiscountSpec) error {
	if spec == nil {
		return domain.NewValidationError("", "discount is required")
	}
	if err := v.validateCode(spec); err != nil {
		return err
	}
	if err := v.validateAmounts(spec); err != nil {
		return err
	}
	if err := v.validateWindow(spec); err != nil {
		return err
	}
	if err := v.validateLimits(spec); err != nil {
		return err
	}
	return v.validateTargets(spec)
}

// validateCode — код, тип и описание.
func (v *DiscountValidator) validateCode(spec *domain.DiscountSpec) error {
	code := domain.NormalizeCode(spec.Code)
	if code == "" {
		return domain.NewValidationError("code", "is required")
	}
	if utf8.RuneCountInString(code) < MinCodeLength {
		return domain.NewValidationError("code", "must be at least %d characters", MinCodeLength)
	}
	if strings.ContainsFunc(code, isSpaceOrControl) {
		return domain.NewValidationError("code", "must not contain whitespace")
	}
	if !spec.Kind.Valid() {
		return domain.NewValidationError("kind", "must be one of percentage, fixed")
	}
	if utf8.RuneCountInString(strings.TrimSpace(spec.Description)) > MaxDescriptionLength {
		return domain.NewValidationError("description", "must be at most %d characters", MaxDescriptionLength)
	}
	return nil
}

// Валидация сумм
func (v *DiscountValidator) validateAmounts(spec *domain.DiscountSpec) error {
	if !spec.Value.IsPositive() {
		return domain.NewValidationError("value", "must be positive")
	}
	if spec.Kind == domain.KindPercentage && spec.Value.GreaterThan(hundred) {
		return domain.NewValidationError("value", "percentage must not exceed 100")
	}
	if spec.MinOrderAmount.IsNegative() {
		return domain.NewValidationError("min_order_amount", "must not be negative")
	}
	if spec.MaxDiscountAmount != nil {
		if spec.Kind != domain.KindPercentage {
			return domain.NewValidationError("max_discount_amount", "is allowed only for percentage discounts")
		}
		if !spec.MaxDiscountAmount.IsPositive() {
			return domain.NewValidationError("max_discount_amount", "must be positive")
		}
		if err := checkStorable("max_discount_amount", *spec.MaxDiscountAmount); err != nil {
			return err
		}
	}
	if err := checkStorable("value", spec.Value); err != nil {
		return err
	}
	return checkStorable("min_order_amount", spec.MinOrderAmount)
}

// checkStorable — не больше двух знаков после запятой и не больше 12 знаков в целой части.
func checkStorable(field string, d decimal.Decimal) error {
	if !d.Equal(d.Round(AmountPlaces)) {
		return domain.NewValidationError(field, "must have at most %d decimal places", AmountPlaces)
	}
	if d.Abs().GreaterThanOrEqual(amountLimit) {
		return domain.NewValidationError(field, "must be less than %s", amountLimit)
	}
	return nil
}

// Валидация окна действия
func (v *DiscountValidator) validateWindow(spec *domain.DiscountSpec) error {
	if spec.ValidFrom != nil && spec.ValidUntil != nil && !spec.ValidUntil.After(*spec.ValidFrom) {
		return domain.NewValidationError("valid_until", "must be after valid_from")
	}
	return nil
}

// Валидация лимитов
func (v *DiscountValidator) validateLimits(spec *domain.DiscountSpec) error {
	if spec.TotalUsageLimit != nil && *spec.TotalUsageLimit < 1 {
		return domain.NewValidationError("total_usage_limit", "must be at least 1")
	}
	if spec.PerCustomerLimit != nil && *spec.PerCustomerLimit < 1 {
		return domain.NewValidationError("per_customer_limit", "must be at least 1")
	}
	return nil
}

// Валидация списков применимости: идентификаторы непустые.
func (v *DiscountValidator) validateTargets(spec *domain.DiscountSpec) error {
	for i, id := range spec.ApplicableProducts {
		if strings.TrimSpace(id) == "" {
			return domain.NewValidationError("applicable_products", "item %d is empty", i)
		}
	}
	for i, id := range spec.ApplicableCategories {
		if strings.TrimSpace(id) == "" {
			return domain.NewValidationError("applicable_categories", "item %d is empty", i)
		}
	}
	return nil
}

func isSpaceOrControl(r rune) bool {
	return unicode.IsSpace(r) || unicode.IsControl(r)
}
