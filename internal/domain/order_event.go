package domain

import "time"

// OrderConfirmed - событие подтверждения заказа, после которого фиксируется использование промокода.
type OrderConfirmed struct {
	OrderID     string    `json:"order_id"`
	CustomerID  string    `json:"customer_id"`
	DiscountID  string    `json:"discount_id,omitempty"`
	ConfirmedAt time.Time `json:"confirmed_at"`
}
