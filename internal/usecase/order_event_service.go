package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/Gunvolt24/shop_pricing/internal/domain"
	"github.com/Gunvolt24/shop_pricing/internal/ports"
	"github.com/Gunvolt24/shop_pricing/pkg/ctxmeta"
)

// OrderEventService — обработка событий подтверждения заказа из Kafka:
// каждое событие с промокодом фиксирует одно его использование.
type OrderEventService struct {
	discounts ports.DiscountService
	log       ports.Logger
}

// NewOrderEventService — DI-конструктор.
func NewOrderEventService(discounts ports.DiscountService, log ports.Logger) *OrderEventService {
	return &OrderEventService{discounts: discounts, log: log}
}

// HandleOrderConfirmed — обработать событие (raw JSON).
// Шаги:
//  1. строгий парсинг JSON (DisallowUnknownFields, без хвостовых данных);
//  2. проверка обязательных полей;
//  3. фиксация использования кода с order_id в качестве ключа идемпотентности.
//
// Ошибки разбора и проверки возвращаются как domain.ErrValidation - консьюмер коммитит такие сообщения.
func (s *OrderEventService) HandleOrderConfirmed(ctx context.Context, raw []byte) error {
	var event domain.OrderConfirmed
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&event); err != nil {
		s.log.Warnf(ctx, "invalid json err=%v", err)
		return domain.NewValidationError("payload", "invalid json: %v", err)
	}
	if err := dec.Decode(new(struct{})); !errors.Is(err, io.EOF) {
		s.log.Warnf(ctx, "invalid json: trailing data")
		return domain.NewValidationError("payload", "invalid json: trailing data")
	}

	if strings.TrimSpace(event.OrderID) == "" {
		return domain.NewValidationError("order_id", "is required")
	}
	if strings.TrimSpace(event.CustomerID) == "" {
		return domain.NewValidationError("customer_id", "is required")
	}
	ctx = ctxmeta.WithOrderID(ctx, event.OrderID)
	if event.DiscountID == "" {
		s.log.Infof(ctx, "order confirmed without discount order_id=%s", event.OrderID)
		return nil
	}

	res, err := s.discounts.Redeem(ctx, domain.Redemption{
		DiscountID: event.DiscountID,
		OrderID:    event.OrderID,
		CustomerID: event.CustomerID,
		RedeemedAt: event.ConfirmedAt,
	})
	if err != nil {
		return err
	}

	s.log.Infof(ctx, "order confirmed order_id=%s discount_id=%s used=%d replayed=%t",
		event.OrderID, res.DiscountID, res.UsedCount, res.Replayed)
	return nil
}
