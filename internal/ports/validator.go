package ports

import (
	"context"

	"github.com/Gunvolt24/shop_pricing/internal/domain"
)

// DiscountSpecValidator - проверка полей и диапазонов входных данных промокода.
type DiscountSpecValidator interface {
	Validate(ctx context.Context, spec *domain.DiscountSpec) error
}
