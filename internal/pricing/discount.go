package pricing

import (
	"time"

	"github.com/Gunvolt24/shop_pricing/internal/domain"
	"github.com/shopspring/decimal"
)

// moneyPlaces - точность денежных сумм (минорные единицы).
const moneyPlaces = 2

var hundred = decimal.NewFromInt(100)

// Evaluate проверяет код против контекста заказа на момент now.
// Порядок проверок фиксирован: активность, начало действия, окончание, общий лимит,
// минимальная сумма, применимость к товарам/категориям.
// Функция чистая: состояние кода не меняется.
func Evaluate(code *domain.DiscountCode, order domain.OrderContext, now time.Time) (domain.Quote, error) {
	if code == nil {
		return domain.Quote{}, domain.ErrDiscountNotFound
	}

	if err := Available(code, now); err != nil {
		return domain.Quote{}, err
	}

	switch {
	case order.OrderAmount.LessThan(code.MinOrderAmount):
		return domain.Quote{}, domain.Ineligible(code.Code, domain.IneligibleMinimumNotMet)
	case !Applies(code, order):
		return domain.Quote{}, domain.Ineligible(code.Code, domain.IneligibleNotApplicable)
	}

	deduction := Deduction(code, order.OrderAmount)
	return domain.Quote{
		DiscountID:  code.ID,
		Code:        code.Code,
		Kind:        code.Kind,
		OrderAmount: order.OrderAmount,
		Deduction:   deduction,
		FinalAmount: order.OrderAmount.Sub(deduction),
	}, nil
}

// Available - первые четыре шага проверки, не зависящие от заказа:
// активность, начало действия, окончание, общий лимит.
func Available(code *domain.DiscountCode, now time.Time) error {
	if code == nil {
		return domain.ErrDiscountNotFound
	}
	switch {
	case !code.IsActive:
		return domain.Ineligible(code.Code, domain.IneligibleInactive)
	case now.Before(code.ValidFrom):
		return domain.Ineligible(code.Code, domain.IneligibleNotYetValid)
	case code.ValidUntil != nil && now.After(*code.ValidUntil):
		return domain.Ineligible(code.Code, domain.IneligibleExpired)
	case code.Exhausted():
		return domain.Ineligible(code.Code, domain.IneligibleLimitReached)
	}
	return nil
}

// CheckCustomerLimit - проверка персонального лимита по числу уже зафиксированных использований клиентом.
func CheckCustomerLimit(code *domain.DiscountCode, customerRedemptions int) error {
	if code.PerCustomerLimit != nil && customerRedemptions >= *code.PerCustomerLimit {
		return domain.Ineligible(code.Code, domain.IneligibleCustomerLimitReached)
	}
	return nil
}

// Applies - пустые множества означают "применим ко всему";
// иначе заказ должен пересекаться хотя бы с одним перечисленным товаром или категорией.
func Applies(code *domain.DiscountCode, order domain.OrderContext) bool {
	if len(code.ApplicableProducts) == 0 && len(code.ApplicableCategories) == 0 {
		return true
	}
	return intersects(code.ApplicableProducts, order.ProductIDs) ||
		intersects(code.ApplicableCategories, order.CategoryIDs)
}

// Deduction - размер скидки для суммы amount; никогда не превышает amount.
func Deduction(code *domain.DiscountCode, amount decimal.Decimal) decimal.Decimal {
	if !amount.IsPositive() {
		return decimal.Zero
	}

	var deduction decimal.Decimal
	switch code.Kind {
	case domain.KindPercentage:
		deduction = amount.Mul(code.Value).Div(hundred).Round(moneyPlaces)
		if code.MaxDiscountAmount != nil && deduction.GreaterThan(*code.MaxDiscountAmount) {
			deduction = *code.MaxDiscountAmount
		}
	case domain.KindFixed:
		deduction = code.Value
	default:
		return decimal.Zero
	}

	return decimal.Min(deduction, amount)
}

func intersects(allowed, given []string) bool {
	if len(allowed) == 0 || len(given) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(allowed))
	for _, id := range allowed {
		set[id] = struct{}{}
	}
	for _, id := range given {
		if _, ok := set[id]; ok {
			return true
		}
	}
	return false
}
