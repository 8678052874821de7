package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItem - позиция корзины. Ключ позиции: (ProductID, StoreID, Size).
type CartItem struct {
	ProductID string `json:"product_id"`
	StoreID   string `json:"store_id"`
	Size      string `json:"size,omitempty"` // пустая строка - без варианта размера
	Quantity  int    `json:"quantity"`
}

// SameLine - позиции описывают один и тот же товар (product, store, size).
func (i CartItem) SameLine(productID, storeID, size string) bool {
	return i.ProductID == productID && i.StoreID == storeID && i.Size == size
}

// Totals - производные суммы корзины.
type Totals struct {
	Subtotal           decimal.Decimal `json:"subtotal"`
	DiscountedSubtotal decimal.Decimal `json:"discounted_subtotal"`
	TotalDiscount      decimal.Decimal `json:"total_discount"`
}

// Cart - корзина пользователя. Totals не являются самостоятельным источником истины:
// они пересчитываются при каждом изменении Items.
type Cart struct {
	UserID    string     `json:"user_id"`
	Items     []CartItem `json:"items"`
	Totals    Totals     `json:"totals"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// NewCart - пустая корзина пользователя.
func NewCart(userID string) *Cart {
	return &Cart{
		UserID: userID,
		Items:  []CartItem{},
		Totals: Totals{Subtotal: decimal.Zero, DiscountedSubtotal: decimal.Zero, TotalDiscount: decimal.Zero},
	}
}

// ProductIDs - уникальные идентификаторы товаров корзины в порядке появления.
func (c *Cart) ProductIDs() []string {
	return DistinctProductIDs(c.Items)
}

// Clone - глубокая копия корзины.
func (c *Cart) Clone() *Cart {
	if c == nil {
		return nil
	}
	cloned := *c
	cloned.Items = append([]CartItem{}, c.Items...)
	return &cloned
}

// DistinctProductIDs - уникальные product_id из списка позиций.
func DistinctProductIDs(items []CartItem) []string {
	seen := make(map[string]struct{}, len(items))
	ids := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}
	return ids
}

// ProductPrice - актуальные цены товара из каталога.
type ProductPrice struct {
	ProductID     string           `json:"product_id"`
	StoreID       string           `json:"store_id"`
	RegularPrice  decimal.Decimal  `json:"regular_price"`
	DiscountPrice *decimal.Decimal `json:"discount_price,omitempty"`
}
