package ports

import (
	"context"

	"github.com/Gunvolt24/shop_pricing/internal/domain"
)

// CartService - операции над корзиной, которые использует HTTP-слой.
type CartService interface {
	Recompute(ctx context.Context, items []domain.CartItem) (domain.Totals, error)
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	AddOrUpdateItem(ctx context.Context, userID string, item domain.CartItem) (*domain.Cart, error)
	SetItemQuantity(ctx context.Context, userID, productID string, quantity int) (*domain.Cart, error)
	RemoveItem(ctx context.Context, userID, productID string) (*domain.Cart, error)
	ClearCart(ctx context.Context, userID string) (*domain.Cart, error)
	RefreshCart(ctx context.Context, userID string) (*domain.Cart, error)
}

// DiscountService - операции над промокодами, которые использует HTTP-слой.
type DiscountService interface {
	Validate(ctx context.Context, code string, order domain.OrderContext) (domain.Quote, error)
	Lookup(ctx context.Context, code string) (*domain.DiscountCode, error)
	Redeem(ctx context.Context, redemption domain.Redemption) (domain.RedemptionResult, error)
	Create(ctx context.Context, spec *domain.DiscountSpec) (*domain.DiscountCode, error)
	Update(ctx context.Context, id string, spec *domain.DiscountSpec) (*domain.DiscountCode, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*domain.DiscountCode, error)
	List(ctx context.Context, filter domain.DiscountFilter) ([]*domain.DiscountCode, error)
}
