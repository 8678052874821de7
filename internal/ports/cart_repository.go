package ports

import (
	"context"

	"github.com/Gunvolt24/shop_pricing/internal/domain"
)

// CartMutation - изменение корзины внутри атомарной единицы работы.
// Ошибка из функции откатывает всю единицу работы.
type CartMutation func(ctx context.Context, cart *domain.Cart) error

// CartRepository - хранилище корзин.
// Update выполняет read-modify-write одной корзины атомарно относительно других изменений той же корзины.
type CartRepository interface {
	// Get - корзина пользователя; (nil, nil), если корзины нет.
	Get(ctx context.Context, userID string) (*domain.Cart, error)

	// Update - блокирует корзину, применяет mutate и сохраняет позиции вместе с суммами.
	// create=true создаёт пустую корзину при отсутствии, иначе возвращается domain.ErrCartNotFound.
	Update(ctx context.Context, userID string, create bool, mutate CartMutation) (*domain.Cart, error)
}
