package pricing_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Gunvolt24/shop_pricing/internal/domain"
	"github.com/Gunvolt24/shop_pricing/internal/pricing"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func intPtr(v int) *int { return &v }

func TestEffectivePrice(t *testing.T) {
	cases := []struct {
		name string
		sale *decimal.Decimal
		want string
	}{
		{"no sale price", nil, "10"},
		{"lower sale price", decPtr("7.5"), "7.5"},
		{"equal sale price", decPtr("10"), "10"},
		{"higher sale price", decPtr("12"), "10"},
		{"zero sale price", decPtr("0"), "10"},
		{"negative sale price", decPtr("-1"), "10"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := domain.ProductPrice{ProductID: "p1", RegularPrice: dec("10"), DiscountPrice: tc.sale}
			got := pricing.EffectivePrice(p)
			require.True(t, got.Equal(dec(tc.want)), "got %s", got)
			require.Equal(t, tc.want != "10", pricing.HasActiveDiscount(p))
		})
	}
}

func TestRecompute(t *testing.T) {
	prices := map[string]domain.ProductPrice{
		"p1": {ProductID: "p1", RegularPrice: dec("19.99"), DiscountPrice: decPtr("14.99")},
		"p2": {ProductID: "p2", RegularPrice: dec("3.10")},
	}
	items := []domain.CartItem{
		{ProductID: "p1", StoreID: "s1", Quantity: 3},
		{ProductID: "p2", StoreID: "s1", Size: "M", Quantity: 2},
		{ProductID: "gone", StoreID: "s1", Quantity: 1},
	}

	totals, stale := pricing.Recompute(items, prices)

	require.True(t, totals.Subtotal.Equal(dec("66.17")), "subtotal %s", totals.Subtotal)
	require.True(t, totals.DiscountedSubtotal.Equal(dec("51.17")), "discounted %s", totals.DiscountedSubtotal)
	require.True(t, totals.TotalDiscount.Equal(dec("15")), "discount %s", totals.TotalDiscount)
	require.Equal(t, []domain.CartItem{{ProductID: "gone", StoreID: "s1", Quantity: 1}}, stale)
}

func TestRecompute_Empty(t *testing.T) {
	totals, stale := pricing.Recompute(nil, nil)
	require.True(t, totals.Subtotal.IsZero())
	require.True(t, totals.DiscountedSubtotal.IsZero())
	require.True(t, totals.TotalDiscount.IsZero())
	require.Empty(t, stale)
}

func TestDeduction(t *testing.T) {
	cases := []struct {
		name   string
		code   domain.DiscountCode
		amount string
		want   string
	}{
		{"percentage", domain.DiscountCode{Kind: domain.KindPercentage, Value: dec("15")}, "200", "30"},
		{"percentage rounds half up", domain.DiscountCode{Kind: domain.KindPercentage, Value: dec("12.5")}, "0.9", "0.11"},
		{"percentage capped", domain.DiscountCode{Kind: domain.KindPercentage, Value: dec("50"), MaxDiscountAmount: decPtr("30")}, "200", "30"},
		{"cap above deduction", domain.DiscountCode{Kind: domain.KindPercentage, Value: dec("10"), MaxDiscountAmount: decPtr("30")}, "100", "10"},
		{"hundred percent", domain.DiscountCode{Kind: domain.KindPercentage, Value: dec("100")}, "42.42", "42.42"},
		{"fixed", domain.DiscountCode{Kind: domain.KindFixed, Value: dec("5")}, "20", "5"},
		{"fixed above amount", domain.DiscountCode{Kind: domain.KindFixed, Value: dec("25")}, "20", "20"},
		{"zero amount", domain.DiscountCode{Kind: domain.KindFixed, Value: dec("5")}, "0", "0"},
		{"unknown kind", domain.DiscountCode{Kind: "bogus", Value: dec("5")}, "20", "0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code := tc.code
			got := pricing.Deduction(&code, dec(tc.amount))
			require.True(t, got.Equal(dec(tc.want)), "got %s want %s", got, tc.want)
		})
	}
}

func TestApplies(t *testing.T) {
	order := domain.OrderContext{ProductIDs: []string{"p1", "p2"}, CategoryIDs: []string{"c1"}}

	cases := []struct {
		name       string
		products   []string
		categories []string
		want       bool
	}{
		{"unrestricted", nil, nil, true},
		{"product match", []string{"p2"}, nil, true},
		{"category match", nil, []string{"c9", "c1"}, true},
		{"product miss, category match", []string{"p9"}, []string{"c1"}, true},
		{"no match", []string{"p9"}, []string{"c9"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code := &domain.DiscountCode{ApplicableProducts: tc.products, ApplicableCategories: tc.categories}
			require.Equal(t, tc.want, pricing.Applies(code, order))
		})
	}

	restricted := &domain.DiscountCode{ApplicableProducts: []string{"p1"}}
	require.False(t, pricing.Applies(restricted, domain.OrderContext{}))
}

func TestAvailable(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	until := now.Add(time.Hour)
	past := now.Add(-time.Second)

	cases := []struct {
		name   string
		mutate func(*domain.DiscountCode)
		want   domain.Ineligibility
	}{
		{"available", func(*domain.DiscountCode) {}, 0},
		{"starts exactly now", func(d *domain.DiscountCode) { d.ValidFrom = now }, 0},
		{"ends exactly now", func(d *domain.DiscountCode) { t := now; d.ValidUntil = &t }, 0},
		{"inactive", func(d *domain.DiscountCode) { d.IsActive = false }, domain.IneligibleInactive},
		{"not yet valid", func(d *domain.DiscountCode) { d.ValidFrom = now.Add(time.Minute) }, domain.IneligibleNotYetValid},
		{"expired", func(d *domain.DiscountCode) { d.ValidUntil = &past }, domain.IneligibleExpired},
		{"limit reached", func(d *domain.DiscountCode) { d.TotalUsageLimit = intPtr(2); d.UsedCount = 2 }, domain.IneligibleLimitReached},
		{"inactive wins over expired", func(d *domain.DiscountCode) { d.IsActive = false; d.ValidUntil = &past }, domain.IneligibleInactive},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code := &domain.DiscountCode{
				Code:       "X",
				Kind:       domain.KindFixed,
				Value:      dec("1"),
				ValidFrom:  now.Add(-time.Hour),
				ValidUntil: &until,
				IsActive:   true,
			}
			tc.mutate(code)

			err := pricing.Available(code, now)
			if tc.want == 0 {
				require.NoError(t, err)
				return
			}
			reason, ok := domain.IneligibilityOf(err)
			require.True(t, ok, "err=%v", err)
			require.Equal(t, tc.want, reason)
			require.ErrorIs(t, err, domain.ErrIneligible)
		})
	}

	require.ErrorIs(t, pricing.Available(nil, now), domain.ErrNotFound)
}

func TestEvaluate(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	code := &domain.DiscountCode{
		ID:                "d1",
		Code:              "SAVE10",
		Kind:              domain.KindPercentage,
		Value:             dec("10"),
		MinOrderAmount:    dec("50"),
		MaxDiscountAmount: decPtr("8"),
		ValidFrom:         now.Add(-time.Hour),
		IsActive:          true,
	}

	q, err := pricing.Evaluate(code, domain.OrderContext{OrderAmount: dec("60")}, now)
	require.NoError(t, err)
	require.Equal(t, "d1", q.DiscountID)
	require.Equal(t, "SAVE10", q.Code)
	require.Equal(t, domain.KindPercentage, q.Kind)
	require.True(t, q.Deduction.Equal(dec("6")))
	require.True(t, q.FinalAmount.Equal(dec("54")))

	q, err = pricing.Evaluate(code, domain.OrderContext{OrderAmount: dec("500")}, now)
	require.NoError(t, err)
	require.True(t, q.Deduction.Equal(dec("8")))

	_, err = pricing.Evaluate(code, domain.OrderContext{OrderAmount: dec("49.99")}, now)
	reason, ok := domain.IneligibilityOf(err)
	require.True(t, ok)
	require.Equal(t, domain.IneligibleMinimumNotMet, reason)

	_, err = pricing.Evaluate(nil, domain.OrderContext{OrderAmount: dec("60")}, now)
	require.ErrorIs(t, err, domain.ErrNotFound)

	require.Equal(t, 0, code.UsedCount, "evaluation must not change the code")
}

func TestCheckCustomerLimit(t *testing.T) {
	unlimited := &domain.DiscountCode{Code: "U"}
	require.NoError(t, pricing.CheckCustomerLimit(unlimited, 100))

	limited := &domain.DiscountCode{Code: "L", PerCustomerLimit: intPtr(2)}
	require.NoError(t, pricing.CheckCustomerLimit(limited, 1))

	err := pricing.CheckCustomerLimit(limited, 2)
	reason, ok := domain.IneligibilityOf(err)
	require.True(t, ok)
	require.Equal(t, domain.IneligibleCustomerLimitReached, reason)
}
