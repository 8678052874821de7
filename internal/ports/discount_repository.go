package ports

import (
	"context"

	"github.com/Gunvolt24/shop_pricing/internal/domain"
)

// DiscountRepository - хранилище промокодов и журнала их использований.
type DiscountRepository interface {
	// Create - сохраняет код целиком или ничего; дубликат кода -> domain.ErrDuplicateCode.
	Create(ctx context.Context, code *domain.DiscountCode) error
	// Update - заменяет редактируемые поля кода (UsedCount не трогает).
	Update(ctx context.Context, code *domain.DiscountCode) error
	Delete(ctx context.Context, id string) error

	// GetByID / GetByCode - (nil, nil), если записи нет.
	GetByID(ctx context.Context, id string) (*domain.DiscountCode, error)
	GetByCode(ctx context.Context, code string) (*domain.DiscountCode, error)
	List(ctx context.Context, filter domain.DiscountFilter) ([]*domain.DiscountCode, error)

	// Redeem - атомарный условный инкремент used_count (только если лимит не исчерпан)
	// и запись в журнал использований.
	Redeem(ctx context.Context, redemption domain.Redemption) (domain.RedemptionResult, error)
	// CustomerRedemptions - сколько раз клиент уже использовал код.
	CustomerRedemptions(ctx context.Context, discountID, customerID string) (int, error)
}
