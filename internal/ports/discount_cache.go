package ports

import (
	"context"

	"github.com/Gunvolt24/shop_pricing/internal/domain"
)

// DiscountCache - кэш определений промокодов по нормализованному коду.
// Требования к реализации: потокобезопасность; возврат копий сущности.
type DiscountCache interface {
	// Get - (code, true) при попадании, (nil, false) при промахе/истечении.
	Get(ctx context.Context, code string) (*domain.DiscountCode, bool)
	Set(ctx context.Context, discount *domain.DiscountCode) error
	Invalidate(ctx context.Context, code string) error
	// WarmUp - загрузка набора кодов при старте.
	WarmUp(ctx context.Context, discounts []*domain.DiscountCode) error
}
