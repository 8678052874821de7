package usecase_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/Gunvolt24/shop_pricing/internal/domain"
	"github.com/Gunvolt24/shop_pricing/internal/ports/mocks"
	"github.com/Gunvolt24/shop_pricing/internal/usecase"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
)

func confirmedEvent(t *testing.T, ev domain.OrderConfirmed) []byte {
	t.Helper()
	raw, err := json.Marshal(ev)
	require.NoError(t, err)
	return raw
}

func TestHandleOrderConfirmed_InvalidJSON(t *testing.T) {
	ctrl := gomock.NewController(t)
	discounts := mocks.NewMockDiscountService(ctrl)
	svc := usecase.NewOrderEventService(discounts, noopLogger{})

	err := svc.HandleOrderConfirmed(context.Background(), []byte("{"))
	require.ErrorIs(t, err, domain.ErrValidation)
	require.Contains(t, err.Error(), "invalid json")
}

func TestHandleOrderConfirmed_UnknownField(t *testing.T) {
	ctrl := gomock.NewController(t)
	discounts := mocks.NewMockDiscountService(ctrl)
	svc := usecase.NewOrderEventService(discounts, noopLogger{})

	err := svc.HandleOrderConfirmed(context.Background(), []byte(`{"order_id":"o-1","customer_id":"c-1","coupon":"X"}`))
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestHandleOrderConfirmed_TrailingData(t *testing.T) {
	ctrl := gomock.NewController(t)
	discounts := mocks.NewMockDiscountService(ctrl)
	discounts.EXPECT().Redeem(gomock.Any(), gomock.Any()).Times(0)
	svc := usecase.NewOrderEventService(discounts, noopLogger{})

	raw := confirmedEvent(t, domain.OrderConfirmed{OrderID: "o-1", CustomerID: "c-1", DiscountID: "d-1"})
	raw = append(raw, []byte(" {}")...)

	err := svc.HandleOrderConfirmed(context.Background(), raw)
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "trailing data"))
}

func TestHandleOrderConfirmed_MissingOrderID(t *testing.T) {
	ctrl := gomock.NewController(t)
	discounts := mocks.NewMockDiscountService(ctrl)
	svc := usecase.NewOrderEventService(discounts, noopLogger{})

	err := svc.HandleOrderConfirmed(context.Background(), confirmedEvent(t, domain.OrderConfirmed{CustomerID: "c-1", DiscountID: "d-1"}))
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	require.Equal(t, "order_id", ve.Field)
}

func TestHandleOrderConfirmed_NoDiscountIsNoop(t *testing.T) {
	ctrl := gomock.NewController(t)
	discounts := mocks.NewMockDiscountService(ctrl)
	discounts.EXPECT().Redeem(gomock.Any(), gomock.Any()).Times(0)
	svc := usecase.NewOrderEventService(discounts, noopLogger{})

	err := svc.HandleOrderConfirmed(context.Background(), confirmedEvent(t, domain.OrderConfirmed{OrderID: "o-1", CustomerID: "c-1"}))
	require.NoError(t, err)
}

func TestHandleOrderConfirmed_RedeemsWithOrderKey(t *testing.T) {
	ctrl := gomock.NewController(t)
	discounts := mocks.NewMockDiscountService(ctrl)
	svc := usecase.NewOrderEventService(discounts, noopLogger{})

	discounts.EXPECT().Redeem(gomock.Any(), domain.Redemption{
		DiscountID: "d-1", OrderID: "o-1", CustomerID: "c-1", RedeemedAt: now,
	}).Return(domain.RedemptionResult{DiscountID: "d-1", UsedCount: 1}, nil)

	err := svc.HandleOrderConfirmed(context.Background(), confirmedEvent(t, domain.OrderConfirmed{
		OrderID: "o-1", CustomerID: "c-1", DiscountID: "d-1", ConfirmedAt: now,
	}))
	require.NoError(t, err)
}

func TestHandleOrderConfirmed_RedeemErrorPropagates(t *testing.T) {
	ctrl := gomock.NewController(t)
	discounts := mocks.NewMockDiscountService(ctrl)
	svc := usecase.NewOrderEventService(discounts, noopLogger{})

	dbErr := errors.New("db down")
	discounts.EXPECT().Redeem(gomock.Any(), gomock.Any()).Return(domain.RedemptionResult{}, dbErr)

	err := svc.HandleOrderConfirmed(context.Background(), confirmedEvent(t, domain.OrderConfirmed{
		OrderID: "o-1", CustomerID: "c-1", DiscountID: "d-1",
	}))
	require.ErrorIs(t, err, dbErr)
}
