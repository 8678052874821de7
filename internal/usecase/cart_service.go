package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Gunvolt24/shop_pricing/internal/domain"
	"github.com/Gunvolt24/shop_pricing/internal/ports"
	"github.com/Gunvolt24/shop_pricing/internal/pricing"
	"github.com/Gunvolt24/shop_pricing/pkg/metrics"
)

// DefaultCatalogTimeout - таймаут обращения к каталогу, если не задан в конфиге.
const DefaultCatalogTimeout = 2 * time.Second

// CartService - изменение корзин и пересчёт их сумм (без знаний о транспорте).
type CartService struct {
	repo    ports.CartRepository
	catalog ports.Catalog
	log     ports.Logger
	clock   ports.Clock

	catalogTimeout time.Duration
}

var _ ports.CartService = (*CartService)(nil)

// NewCartService — DI-конструктор. catalogTimeout <= 0 заменяется на DefaultCatalogTimeout.
func NewCartService(
	repo ports.CartRepository,
	catalog ports.Catalog,
	log ports.Logger,
	clock ports.Clock,
	catalogTimeout time.Duration,
) *CartService {
	if catalogTimeout <= 0 {
		catalogTimeout = DefaultCatalogTimeout
	}
	return &CartService{
		repo:           repo,
		catalog:        catalog,
		log:            log,
		clock:          clock,
		catalogTimeout: catalogTimeout,
	}
}

// Recompute — суммы для произвольного набора позиций без сохранения.
func (s *CartService) Recompute(ctx context.Context, items []domain.CartItem) (domain.Totals, error) {
	for i, item := range items {
		if err := validateLine(item); err != nil {
			return domain.Totals{}, err
		}
		if item.Quantity <= 0 {
			return domain.Totals{}, domain.NewValidationError(fmt.Sprintf("items[%d].quantity", i), "must be positive")
		}
	}
	return s.totals(ctx, "", items), nil
}

// GetCart — сохранённая корзина пользователя; domain.ErrCartNotFound, если её нет.
func (s *CartService) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}

	cart, err := s.repo.Get(ctx, userID)
	if err != nil {
		s.log.Errorf(ctx, "cart repo.Get failed user_id=%s err=%v", userID, err)
		return nil, err
	}
	if cart == nil {
		return nil, domain.ErrCartNotFound
	}
	return cart, nil
}

// AddOrUpdateItem — добавляет к позиции (product, store, size) item.Quantity единиц.
// Положительная дельта требует, чтобы товар существовал и принадлежал магазину;
// отрицательная уменьшает количество и удаляет позицию при <= 0; нулевая только пересчитывает суммы.
func (s *CartService) AddOrUpdateItem(ctx context.Context, userID string, item domain.CartItem) (*domain.Cart, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	if err := validateLine(item); err != nil {
		return nil, err
	}

	delta := item.Quantity
	if delta > 0 {
		if err := s.checkProduct(ctx, item.ProductID, item.StoreID); err != nil {
			return nil, err
		}
	}

	cart, err := s.repo.Update(ctx, userID, delta > 0, func(ctx context.Context, cart *domain.Cart) error {
		applyDelta(cart, item)
		s.refreshTotals(ctx, cart)
		return nil
	})
	if delta <= 0 && errors.Is(err, domain.ErrCartNotFound) {
		// уменьшать нечего: пустая корзина без записи в хранилище
		empty := domain.NewCart(userID)
		empty.UpdatedAt = s.clock.Now().UTC()
		return empty, nil
	}
	if err != nil {
		return nil, s.storageErr(ctx, "add item", userID, err)
	}

	s.log.Infof(ctx, "cart item updated user_id=%s product_id=%s delta=%d items=%d", userID, item.ProductID, delta, len(cart.Items))
	return cart, nil
}

// SetItemQuantity — абсолютное количество первой позиции товара; 0 удаляет позицию.
func (s *CartService) SetItemQuantity(ctx context.Context, userID, productID string, quantity int) (*domain.Cart, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(productID) == "" {
		return nil, domain.NewValidationError("product_id", "is required")
	}
	if quantity < 0 {
		return nil, domain.NewValidationError("quantity", "must not be negative")
	}

	cart, err := s.repo.Update(ctx, userID, false, func(ctx context.Context, cart *domain.Cart) error {
		idx := -1
		for i := range cart.Items {
			if cart.Items[i].ProductID == productID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return domain.ErrCartItemNotFound
		}
		if quantity == 0 {
			cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
		} else {
			cart.Items[idx].Quantity = quantity
		}
		s.refreshTotals(ctx, cart)
		return nil
	})
	if err != nil {
		return nil, s.storageErr(ctx, "set quantity", userID, err)
	}
	return cart, nil
}

// RemoveItem — удаляет все позиции товара; отсутствие позиции не ошибка.
func (s *CartService) RemoveItem(ctx context.Context, userID, productID string) (*domain.Cart, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(productID) == "" {
		return nil, domain.NewValidationError("product_id", "is required")
	}

	cart, err := s.repo.Update(ctx, userID, false, func(ctx context.Context, cart *domain.Cart) error {
		kept := cart.Items[:0]
		for _, it := range cart.Items {
			if it.ProductID != productID {
				kept = append(kept, it)
			}
		}
		cart.Items = kept
		s.refreshTotals(ctx, cart)
		return nil
	})
	if err != nil {
		return nil, s.storageErr(ctx, "remove item", userID, err)
	}
	return cart, nil
}

// ClearCart — удаляет все позиции, суммы обнуляются.
func (s *CartService) ClearCart(ctx context.Context, userID string) (*domain.Cart, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}

	cart, err := s.repo.Update(ctx, userID, false, func(ctx context.Context, cart *domain.Cart) error {
		cart.Items = []domain.CartItem{}
		s.refreshTotals(ctx, cart)
		return nil
	})
	if err != nil {
		return nil, s.storageErr(ctx, "clear", userID, err)
	}
	s.log.Infof(ctx, "cart cleared user_id=%s", userID)
	return cart, nil
}

// RefreshCart — пересчёт сохранённой корзины по текущим ценам каталога.
func (s *CartService) RefreshCart(ctx context.Context, userID string) (*domain.Cart, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}

	cart, err := s.repo.Update(ctx, userID, false, func(ctx context.Context, cart *domain.Cart) error {
		s.refreshTotals(ctx, cart)
		return nil
	})
	if err != nil {
		return nil, s.storageErr(ctx, "refresh", userID, err)
	}
	return cart, nil
}

// refreshTotals — пересчитывает суммы внутри единицы работы, изменившей позиции.
func (s *CartService) refreshTotals(ctx context.Context, cart *domain.Cart) {
	cart.Totals = s.totals(ctx, cart.UserID, cart.Items)
	cart.UpdatedAt = s.clock.Now().UTC()
}

// totals — цены из каталога + чистый пересчёт. Сбой каталога не прерывает операцию:
// все позиции считаются устаревшими и исключаются из сумм.
func (s *CartService) totals(ctx context.Context, userID string, items []domain.CartItem) domain.Totals {
	prices, err := s.lookupPrices(ctx, domain.DistinctProductIDs(items))
	if err != nil {
		metrics.CatalogLookupFailures.Inc()
		s.log.Warnf(ctx, "catalog lookup failed, items excluded from totals user_id=%s err=%v", userID, err)
		prices = map[string]domain.ProductPrice{}
	}

	totals, stale := pricing.Recompute(items, prices)
	metrics.CartRecomputations.Inc()
	for _, it := range stale {
		metrics.CartStaleItems.Inc()
		s.log.Warnf(ctx, "stale cart item excluded user_id=%s product_id=%s store_id=%s", userID, it.ProductID, it.StoreID)
	}
	return totals
}

func (s *CartService) lookupPrices(ctx context.Context, ids []string) (map[string]domain.ProductPrice, error) {
	if len(ids) == 0 {
		return map[string]domain.ProductPrice{}, nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.catalogTimeout)
	defer cancel()
	return s.catalog.LookupPrices(ctx, ids)
}

// checkProduct — товар существует и принадлежит магазину storeID.
func (s *CartService) checkProduct(ctx context.Context, productID, storeID string) error {
	prices, err := s.lookupPrices(ctx, []string{productID})
	if err != nil {
		metrics.CatalogLookupFailures.Inc()
		s.log.Errorf(ctx, "catalog lookup failed product_id=%s err=%v", productID, err)
		return fmt.Errorf("catalog lookup: %w", err)
	}
	price, ok := prices[productID]
	if !ok {
		return domain.ErrProductNotFound
	}
	if price.StoreID != storeID {
		return domain.NewValidationError("store_id", "product %s does not belong to store %s", productID, storeID)
	}
	return nil
}

func (s *CartService) storageErr(ctx context.Context, op, userID string, err error) error {
	if domain.IsExpected(err) {
		s.log.Warnf(ctx, "cart %s rejected user_id=%s err=%v", op, userID, err)
		return err
	}
	s.log.Errorf(ctx, "cart %s failed user_id=%s err=%v", op, userID, err)
	return fmt.Errorf("cart %s: %w", op, err)
}

// applyDelta — слияние позиции с существующей строкой (product, store, size).
func applyDelta(cart *domain.Cart, item domain.CartItem) {
	for i := range cart.Items {
		if !cart.Items[i].SameLine(item.ProductID, item.StoreID, item.Size) {
			continue
		}
		cart.Items[i].Quantity += item.Quantity
		if cart.Items[i].Quantity <= 0 {
			cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
		}
		return
	}
	if item.Quantity > 0 {
		cart.Items = append(cart.Items, item)
	}
}

func validateUserID(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return domain.NewValidationError("user_id", "is required")
	}
	return nil
}

func validateLine(item domain.CartItem) error {
	if strings.TrimSpace(item.ProductID) == "" {
		return domain.NewValidationError("product_id", "is required")
	}
	if strings.TrimSpace(item.StoreID) == "" {
		return domain.NewValidationError("store_id", "is required")
	}
	return nil
}
