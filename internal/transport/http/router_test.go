package rest_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Gunvolt24/shop_pricing/internal/domain"
	"github.com/Gunvolt24/shop_pricing/internal/ports/mocks"
	"github.com/Gunvolt24/shop_pricing/pkg/ctxmeta"
	rest "github.com/Gunvolt24/shop_pricing/internal/transport/http"
	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
)

type noopLogger struct{}

func (noopLogger) Infof(context.Context, string, ...any)  {}
func (noopLogger) Warnf(context.Context, string, ...any)  {}
func (noopLogger) Errorf(context.Context, string, ...any) {}

type fixture struct {
	carts     *mocks.MockCartService
	discounts *mocks.MockDiscountService
	router    *gin.Engine
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctrl := gomock.NewController(t)

	f := fixture{
		carts:     mocks.NewMockCartService(ctrl),
		discounts: mocks.NewMockDiscountService(ctrl),
	}
	h := rest.NewHandler(f.carts, f.discounts, noopLogger{}, time.Second)
	f.router = rest.NewRouter(h, "")
	return f
}

func (f fixture) do(method, path, body string) *httptest.ResponseRecorder {
	var r io.Reader = http.NoBody
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), dst); err != nil {
		t.Fatalf("invalid json: %v body=%s", err, w.Body.String())
	}
}

func wantStatus(t *testing.T, w *httptest.ResponseRecorder, code int) {
	t.Helper()
	if w.Code != code {
		t.Fatalf("want %d, got %d, body=%s", code, w.Code, w.Body.String())
	}
}

func TestRecomputeTotals_OK(t *testing.T) {
	f := newFixture(t)

	items := []domain.CartItem{{ProductID: "p1", StoreID: "s1", Quantity: 2}}
	f.carts.EXPECT().Recompute(gomock.Any(), items).Return(domain.Totals{
		Subtotal:           decimal.NewFromInt(20),
		DiscountedSubtotal: decimal.NewFromInt(16),
		TotalDiscount:      decimal.NewFromInt(4),
	}, nil)

	w := f.do(http.MethodPost, "/pricing/totals", `{"items":[{"product_id":"p1","store_id":"s1","quantity":2}]}`)
	wantStatus(t, w, http.StatusOK)

	var got domain.Totals
	decodeBody(t, w, &got)
	if !got.TotalDiscount.Equal(decimal.NewFromInt(4)) {
		t.Fatalf("total_discount: got %s", got.TotalDiscount)
	}
}

func TestRecomputeTotals_InvalidJSON(t *testing.T) {
	f := newFixture(t)

	for _, body := range []string{`{"items":`, `{"items":[],"extra":1}`, `{"items":[]} {}`} {
		w := f.do(http.MethodPost, "/pricing/totals", body)
		wantStatus(t, w, http.StatusBadRequest)
	}
	wantStatus(t, f.do(http.MethodPost, "/pricing/totals", ""), http.StatusBadRequest)
}

func TestGetCart_NotFound(t *testing.T) {
	f := newFixture(t)
	f.carts.EXPECT().GetCart(gomock.Any(), "u-1").Return(nil, domain.ErrCartNotFound)

	w := f.do(http.MethodGet, "/carts/u-1", "")
	wantStatus(t, w, http.StatusNotFound)
}

func TestCartRoutes_PutUserIDIntoContext(t *testing.T) {
	f := newFixture(t)
	f.carts.EXPECT().GetCart(gomock.Any(), "u-42").
		DoAndReturn(func(ctx context.Context, userID string) (*domain.Cart, error) {
			if got, ok := ctxmeta.UserIDFromContext(ctx); !ok || got != userID {
				t.Fatalf("user_id in ctx: got %q ok=%v", got, ok)
			}
			if _, ok := ctxmeta.RequestIDFromContext(ctx); !ok {
				t.Fatalf("request_id must be in ctx")
			}
			return domain.NewCart(userID), nil
		})

	w := f.do(http.MethodGet, "/carts/u-42", "")
	wantStatus(t, w, http.StatusOK)
}

func TestAddItem_PassesDelta(t *testing.T) {
	f := newFixture(t)

	cart := domain.NewCart("u-1")
	cart.Items = []domain.CartItem{{ProductID: "p1", StoreID: "s1", Size: "M", Quantity: 3}}
	f.carts.EXPECT().
		AddOrUpdateItem(gomock.Any(), "u-1", domain.CartItem{ProductID: "p1", StoreID: "s1", Size: "M", Quantity: -1}).
		Return(cart, nil)

	w := f.do(http.MethodPost, "/carts/u-1/items", `{"product_id":"p1","store_id":"s1","size":"M","quantity":-1}`)
	wantStatus(t, w, http.StatusOK)

	var got domain.Cart
	decodeBody(t, w, &got)
	if got.UserID != "u-1" || len(got.Items) != 1 || got.Items[0].Quantity != 3 {
		t.Fatalf("unexpected cart: %+v", got)
	}
}

func TestAddItem_ProductNotFound(t *testing.T) {
	f := newFixture(t)
	f.carts.EXPECT().AddOrUpdateItem(gomock.Any(), "u-1", gomock.Any()).Return(nil, domain.ErrProductNotFound)

	w := f.do(http.MethodPost, "/carts/u-1/items", `{"product_id":"gone","store_id":"s1","quantity":1}`)
	wantStatus(t, w, http.StatusNotFound)
}

func TestSetItemQuantity(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPatch, "/carts/u-1/items/p1", `{}`)
	wantStatus(t, w, http.StatusBadRequest)

	var resp map[string]string
	decodeBody(t, w, &resp)
	if resp["field"] != "quantity" {
		t.Fatalf("want field=quantity, got %v", resp)
	}

	f.carts.EXPECT().SetItemQuantity(gomock.Any(), "u-1", "p1", 0).Return(domain.NewCart("u-1"), nil)
	wantStatus(t, f.do(http.MethodPatch, "/carts/u-1/items/p1", `{"quantity":0}`), http.StatusOK)

	f.carts.EXPECT().SetItemQuantity(gomock.Any(), "u-1", "p9", 2).Return(nil, domain.ErrCartItemNotFound)
	wantStatus(t, f.do(http.MethodPatch, "/carts/u-1/items/p9", `{"quantity":2}`), http.StatusNotFound)
}

func TestCartMutations_RouteToService(t *testing.T) {
	f := newFixture(t)

	f.carts.EXPECT().RemoveItem(gomock.Any(), "u-1", "p1").Return(domain.NewCart("u-1"), nil)
	f.carts.EXPECT().ClearCart(gomock.Any(), "u-1").Return(domain.NewCart("u-1"), nil)
	f.carts.EXPECT().RefreshCart(gomock.Any(), "u-1").Return(domain.NewCart("u-1"), nil)

	wantStatus(t, f.do(http.MethodDelete, "/carts/u-1/items/p1", ""), http.StatusOK)
	wantStatus(t, f.do(http.MethodDelete, "/carts/u-1", ""), http.StatusOK)
	wantStatus(t, f.do(http.MethodPost, "/carts/u-1/refresh", ""), http.StatusOK)
}

func TestValidateDiscount_Quote(t *testing.T) {
	f := newFixture(t)

	f.discounts.EXPECT().Validate(gomock.Any(), "save10", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, order domain.OrderContext) (domain.Quote, error) {
			if !order.OrderAmount.Equal(decimal.NewFromInt(100)) || order.CustomerID != "c-1" || len(order.ProductIDs) != 1 {
				t.Errorf("unexpected order context: %+v", order)
			}
			return domain.Quote{
				Code:        "SAVE10",
				OrderAmount: decimal.NewFromInt(100),
				Deduction:   decimal.NewFromInt(10),
				FinalAmount: decimal.NewFromInt(90),
			}, nil
		})

	w := f.do(http.MethodPost, "/discounts/validate",
		`{"code":"save10","order_amount":"100","product_ids":["p1"],"customer_id":"c-1"}`)
	wantStatus(t, w, http.StatusOK)

	var got domain.Quote
	decodeBody(t, w, &got)
	if !got.FinalAmount.Equal(decimal.NewFromInt(90)) {
		t.Fatalf("final_amount: got %s", got.FinalAmount)
	}
}

func TestValidateDiscount_IneligibleReturnsReason(t *testing.T) {
	f := newFixture(t)

	f.discounts.EXPECT().Validate(gomock.Any(), "OLD", gomock.Any()).
		Return(domain.Quote{}, domain.Ineligible("OLD", domain.IneligibleExpired))

	w := f.do(http.MethodPost, "/discounts/validate", `{"code":"OLD","order_amount":50}`)
	wantStatus(t, w, http.StatusUnprocessableEntity)

	var resp map[string]string
	decodeBody(t, w, &resp)
	if resp["reason"] != "expired" {
		t.Fatalf("want reason=expired, got %v", resp)
	}
}

func TestLookupDiscount_NotFound(t *testing.T) {
	f := newFixture(t)
	f.discounts.EXPECT().Lookup(gomock.Any(), "NOPE").Return(nil, domain.ErrDiscountNotFound)

	wantStatus(t, f.do(http.MethodGet, "/discounts/code/NOPE", ""), http.StatusNotFound)
}

func TestCreateDiscount(t *testing.T) {
	f := newFixture(t)

	f.discounts.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, spec *domain.DiscountSpec) (*domain.DiscountCode, error) {
			if spec.Code != "SPRING" || spec.Kind != domain.KindPercentage {
				t.Errorf("unexpected spec: %+v", spec)
			}
			return &domain.DiscountCode{ID: "d-1", Code: "SPRING", Kind: domain.KindPercentage}, nil
		})

	w := f.do(http.MethodPost, "/discounts", `{"code":"SPRING","kind":"percentage","value":"15","created_by":"admin"}`)
	wantStatus(t, w, http.StatusCreated)
	if loc := w.Header().Get("Location"); loc != "/discounts/d-1" {
		t.Fatalf("Location: got %q", loc)
	}
}

func TestCreateDiscount_DuplicateIsConflict(t *testing.T) {
	f := newFixture(t)
	f.discounts.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil, domain.ErrDuplicateCode("SPRING"))

	w := f.do(http.MethodPost, "/discounts", `{"code":"SPRING","kind":"fixed","value":5,"created_by":"admin"}`)
	wantStatus(t, w, http.StatusConflict)

	var resp map[string]string
	decodeBody(t, w, &resp)
	if resp["field"] != "code" {
		t.Fatalf("want field=code, got %v", resp)
	}
}

func TestCreateDiscount_ValidationError(t *testing.T) {
	f := newFixture(t)
	f.discounts.EXPECT().Create(gomock.Any(), gomock.Any()).
		Return(nil, domain.NewValidationError("value", "must not exceed 100 for percentage"))

	w := f.do(http.MethodPost, "/discounts", `{"code":"BIG","kind":"percentage","value":150,"created_by":"admin"}`)
	wantStatus(t, w, http.StatusBadRequest)

	var resp map[string]string
	decodeBody(t, w, &resp)
	if resp["field"] != "value" {
		t.Fatalf("want field=value, got %v", resp)
	}
}

func TestListDiscounts_Filters(t *testing.T) {
	f := newFixture(t)

	f.discounts.EXPECT().List(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, filter domain.DiscountFilter) ([]*domain.DiscountCode, error) {
			if filter.Active == nil || !*filter.Active || filter.Expired != nil {
				t.Errorf("unexpected flags: %+v", filter)
			}
			if filter.Search != "spring" || filter.Limit != 5 || filter.Offset != 10 {
				t.Errorf("unexpected filter: %+v", filter)
			}
			return nil, nil
		})

	w := f.do(http.MethodGet, "/discounts?active=true&search=spring&limit=5&offset=10", "")
	wantStatus(t, w, http.StatusOK)
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Fatalf("want empty array, got %s", w.Body.String())
	}
}

func TestListDiscounts_DefaultsAndBadParams(t *testing.T) {
	f := newFixture(t)

	f.discounts.EXPECT().List(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, filter domain.DiscountFilter) ([]*domain.DiscountCode, error) {
			if filter.Limit != 50 || filter.Offset != 0 {
				t.Errorf("want default limit=50 offset=0, got %+v", filter)
			}
			return []*domain.DiscountCode{{ID: "d-1"}}, nil
		})
	wantStatus(t, f.do(http.MethodGet, "/discounts", ""), http.StatusOK)

	for _, q := range []string{"limit=abc", "offset=-1", "active=maybe"} {
		wantStatus(t, f.do(http.MethodGet, "/discounts?"+q, ""), http.StatusBadRequest)
	}
}

func TestDiscountByID_GetUpdateDelete(t *testing.T) {
	f := newFixture(t)

	f.discounts.EXPECT().Get(gomock.Any(), "d-1").Return(&domain.DiscountCode{ID: "d-1"}, nil)
	f.discounts.EXPECT().Update(gomock.Any(), "d-1", gomock.Any()).Return(&domain.DiscountCode{ID: "d-1"}, nil)
	f.discounts.EXPECT().Delete(gomock.Any(), "d-1").Return(nil)
	f.discounts.EXPECT().Delete(gomock.Any(), "d-2").Return(domain.ErrDiscountNotFound)

	wantStatus(t, f.do(http.MethodGet, "/discounts/d-1", ""), http.StatusOK)
	wantStatus(t, f.do(http.MethodPut, "/discounts/d-1", `{"code":"X1X","kind":"fixed","value":1}`), http.StatusOK)
	wantStatus(t, f.do(http.MethodDelete, "/discounts/d-1", ""), http.StatusNoContent)
	wantStatus(t, f.do(http.MethodDelete, "/discounts/d-2", ""), http.StatusNotFound)
}

func TestRedeemDiscount(t *testing.T) {
	f := newFixture(t)

	f.discounts.EXPECT().
		Redeem(gomock.Any(), domain.Redemption{DiscountID: "d-1", OrderID: "o-1", CustomerID: "c-1"}).
		Return(domain.RedemptionResult{DiscountID: "d-1", Code: "SPRING", UsedCount: 3, Replayed: true}, nil)

	w := f.do(http.MethodPost, "/discounts/d-1/redeem", `{"order_id":"o-1","customer_id":"c-1"}`)
	wantStatus(t, w, http.StatusOK)

	var got domain.RedemptionResult
	decodeBody(t, w, &got)
	if !got.Replayed || got.UsedCount != 3 {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestRedeemDiscount_LimitReached(t *testing.T) {
	f := newFixture(t)
	f.discounts.EXPECT().Redeem(gomock.Any(), gomock.Any()).
		Return(domain.RedemptionResult{}, domain.Ineligible("SPRING", domain.IneligibleLimitReached))

	w := f.do(http.MethodPost, "/discounts/d-1/redeem", `{"order_id":"o-2"}`)
	wantStatus(t, w, http.StatusUnprocessableEntity)
}

func TestInternalErrorIsHidden(t *testing.T) {
	f := newFixture(t)
	f.discounts.EXPECT().Get(gomock.Any(), "d-1").Return(nil, errors.New("db down: password=secret"))

	w := f.do(http.MethodGet, "/discounts/d-1", "")
	wantStatus(t, w, http.StatusInternalServerError)
	if strings.Contains(w.Body.String(), "secret") {
		t.Fatalf("internal details leaked: %s", w.Body.String())
	}
}

func TestTimeoutMapsTo504(t *testing.T) {
	f := newFixture(t)
	f.carts.EXPECT().GetCart(gomock.Any(), "u-1").Return(nil, context.DeadlineExceeded)

	wantStatus(t, f.do(http.MethodGet, "/carts/u-1", ""), http.StatusGatewayTimeout)
}

func TestRouter_NoRouteAndMethodNotAllowed(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodGet, "/nope", "")
	wantStatus(t, w, http.StatusNotFound)

	w = f.do(http.MethodPatch, "/discounts", "")
	wantStatus(t, w, http.StatusMethodNotAllowed)

	var resp map[string]string
	decodeBody(t, w, &resp)
	if resp["error"] != "method not allowed" {
		t.Fatalf("unexpected body: %v", resp)
	}
}

func TestRouter_PingAndRequestID(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodGet, "/ping", "")
	wantStatus(t, w, http.StatusOK)
	if w.Body.String() != "pong" {
		t.Fatalf("want pong, got %q", w.Body.String())
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatalf("X-Request-ID must be set")
	}
}
