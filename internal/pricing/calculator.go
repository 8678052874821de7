// Package pricing - чистые функции расчёта сумм корзины и скидок по промокодам.
// Пакет не ходит в хранилища и не знает о времени: всё передаётся аргументами.
package pricing

import (
	"github.com/Gunvolt24/shop_pricing/internal/domain"
	"github.com/shopspring/decimal"
)

// EffectivePrice - цена со скидкой, если она положительна и строго меньше обычной, иначе обычная цена.
func EffectivePrice(p domain.ProductPrice) decimal.Decimal {
	if p.DiscountPrice != nil && p.DiscountPrice.IsPositive() && p.DiscountPrice.LessThan(p.RegularPrice) {
		return *p.DiscountPrice
	}
	return p.RegularPrice
}

// HasActiveDiscount - у товара действует скидочная цена.
func HasActiveDiscount(p domain.ProductPrice) bool {
	return !EffectivePrice(p).Equal(p.RegularPrice)
}

// Recompute - пересчёт сумм по текущим ценам каталога.
// Позиции, для которых нет цены (товар удалён), в сумму не входят и возвращаются как stale.
func Recompute(items []domain.CartItem, prices map[string]domain.ProductPrice) (domain.Totals, []domain.CartItem) {
	subtotal := decimal.Zero
	discounted := decimal.Zero
	var stale []domain.CartItem

	for _, item := range items {
		price, ok := prices[item.ProductID]
		if !ok {
			stale = append(stale, item)
			continue
		}
		qty := decimal.NewFromInt(int64(item.Quantity))
		subtotal = subtotal.Add(qty.Mul(price.RegularPrice))
		discounted = discounted.Add(qty.Mul(EffectivePrice(price)))
	}

	return domain.Totals{
		Subtotal:           subtotal,
		DiscountedSubtotal: discounted,
		TotalDiscount:      subtotal.Sub(discounted),
	}, stale
}
