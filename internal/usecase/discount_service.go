package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Gunvolt24/shop_pricing/internal/domain"
	"github.com/Gunvolt24/shop_pricing/internal/ports"
	"github.com/Gunvolt24/shop_pricing/internal/pricing"
	"github.com/Gunvolt24/shop_pricing/pkg/ctxmeta"
	"github.com/Gunvolt24/shop_pricing/pkg/metrics"
	"github.com/Gunvolt24/shop_pricing/pkg/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"
)

// Пагинация административного списка.
const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// DiscountService — проверка, фиксация и администрирование промокодов.
// Определения кодов читаются через кэш (cache-aside), одновременные промахи по одному коду
// схлопываются в один запрос к хранилищу.
type DiscountService struct {
	repo      ports.DiscountRepository
	cache     ports.DiscountCache
	catalog   ports.Catalog
	validator ports.DiscountSpecValidator
	log       ports.Logger
	clock     ports.Clock

	catalogTimeout time.Duration
	loads          singleflight.Group

	// поколения кодов: инвалидация увеличивает счётчик, загрузка из хранилища
	// сверяет его после записи в кэш
	genMu sync.Mutex
	gens  map[string]uint64
}

var _ ports.DiscountService = (*DiscountService)(nil)

// NewDiscountService — DI-конструктор.
func NewDiscountService(
	repo ports.DiscountRepository,
	cache ports.DiscountCache,
	catalog ports.Catalog,
	validator ports.DiscountSpecValidator,
	log ports.Logger,
	clock ports.Clock,
	catalogTimeout time.Duration,
) *DiscountService {
	if catalogTimeout <= 0 {
		catalogTimeout = DefaultCatalogTimeout
	}
	return &DiscountService{
		repo:           repo,
		cache:          cache,
		catalog:        catalog,
		validator:      validator,
		log:            log,
		clock:          clock,
		catalogTimeout: catalogTimeout,
		gens:           make(map[string]uint64),
	}
}

// Validate — расчёт скидки для заказа без изменения состояния кода.
// Неприменимость возвращается как *domain.IneligibleError.
func (s *DiscountService) Validate(ctx context.Context, code string, order domain.OrderContext) (domain.Quote, error) {
	ctx = ctxmeta.WithDiscountCode(ctx, domain.NormalizeCode(code))
	ctx, span := telemetry.StartSpan(ctx, "discount.validate", attribute.String("discount.code", domain.NormalizeCode(code)))
	quote, err := s.validate(ctx, code, order)
	telemetry.EndSpan(span, unexpected(err))
	return quote, err
}

func (s *DiscountService) validate(ctx context.Context, code string, order domain.OrderContext) (domain.Quote, error) {
	if order.OrderAmount.IsNegative() {
		return domain.Quote{}, domain.NewValidationError("order_amount", "must not be negative")
	}

	discount, err := s.load(ctx, code)
	if err != nil {
		s.countValidation(err)
		return domain.Quote{}, err
	}

	quote, err := pricing.Evaluate(discount, order, s.clock.Now())
	if err == nil && order.CustomerID != "" && discount.PerCustomerLimit != nil {
		err = s.checkCustomerLimit(ctx, discount, order.CustomerID)
	}
	s.countValidation(err)
	if err != nil {
		if domain.IsExpected(err) {
			s.log.Infof(ctx, "discount rejected code=%s err=%v", discount.Code, err)
		}
		return domain.Quote{}, err
	}

	s.log.Infof(ctx, "discount quoted code=%s amount=%s deduction=%s", quote.Code, quote.OrderAmount, quote.Deduction)
	return quote, nil
}

// Lookup — публичный поиск действующего кода: активен, в окне действия, лимит не исчерпан.
func (s *DiscountService) Lookup(ctx context.Context, code string) (*domain.DiscountCode, error) {
	discount, err := s.load(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := pricing.Available(discount, s.clock.Now()); err != nil {
		return nil, err
	}
	return discount, nil
}

// Redeem — фиксирует одно использование кода. Проверка общего и персонального лимитов
// и инкремент выполняются хранилищем атомарно; повтор с тем же OrderID не меняет счётчик.
func (s *DiscountService) Redeem(ctx context.Context, redemption domain.Redemption) (domain.RedemptionResult, error) {
	ctx = ctxmeta.WithOrderID(ctx, redemption.OrderID)
	ctx, span := telemetry.StartSpan(ctx, "discount.redeem",
		attribute.String("discount.id", redemption.DiscountID),
		attribute.String("order.id", redemption.OrderID),
	)
	res, err := s.redeem(ctx, redemption)
	telemetry.EndSpan(span, unexpected(err))
	return res, err
}

func (s *DiscountService) redeem(ctx context.Context, redemption domain.Redemption) (domain.RedemptionResult, error) {
	if strings.TrimSpace(redemption.DiscountID) == "" {
		return domain.RedemptionResult{}, domain.NewValidationError("discount_id", "is required")
	}
	if redemption.RedeemedAt.IsZero() {
		redemption.RedeemedAt = s.clock.Now().UTC()
	}

	res, err := s.repo.Redeem(ctx, redemption)
	if err != nil {
		s.countRedemption(err)
		if domain.IsExpected(err) {
			s.log.Warnf(ctx, "redemption rejected discount_id=%s order_id=%s err=%v", redemption.DiscountID, redemption.OrderID, err)
			return domain.RedemptionResult{}, err
		}
		s.log.Errorf(ctx, "repo.Redeem failed discount_id=%s order_id=%s err=%v", redemption.DiscountID, redemption.OrderID, err)
		return domain.RedemptionResult{}, fmt.Errorf("redeem discount: %w", err)
	}

	if res.Replayed {
		metrics.DiscountRedemptions.WithLabelValues("replayed").Inc()
		s.log.Infof(ctx, "redemption replayed discount_id=%s order_id=%s used=%d", res.DiscountID, redemption.OrderID, res.UsedCount)
		return res, nil
	}

	metrics.DiscountRedemptions.WithLabelValues("ok").Inc()
	s.invalidate(ctx, res.Code)
	s.log.Infof(ctx, "discount redeemed discount_id=%s order_id=%s used=%d", res.DiscountID, redemption.OrderID, res.UsedCount)
	return res, nil
}

// Create — проверка полей, ссылок на товары/категории и единственная запись в хранилище.
func (s *DiscountService) Create(ctx context.Context, spec *domain.DiscountSpec) (*domain.DiscountCode, error) {
	if spec == nil {
		return nil, domain.NewValidationError("", "discount is required")
	}
	if err := s.validator.Validate(ctx, spec); err != nil {
		return nil, err
	}
	if strings.TrimSpace(spec.CreatedBy) == "" {
		return nil, domain.NewValidationError("created_by", "is required")
	}
	if err := s.checkReferences(ctx, spec); err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	discount := &domain.DiscountCode{
		ID:        uuid.NewString(),
		IsActive:  true,
		ValidFrom: now,
		CreatedBy: spec.CreatedBy,
		CreatedAt: now,
	}
	applySpec(discount, spec, now)

	if err := s.repo.Create(ctx, discount); err != nil {
		if domain.IsExpected(err) {
			s.log.Warnf(ctx, "discount create rejected code=%s err=%v", discount.Code, err)
			return nil, err
		}
		s.log.Errorf(ctx, "repo.Create failed code=%s err=%v", discount.Code, err)
		return nil, fmt.Errorf("create discount: %w", err)
	}
	s.invalidate(ctx, discount.Code)

	s.log.Infof(ctx, "discount created id=%s code=%s kind=%s", discount.ID, discount.Code, discount.Kind)
	return discount, nil
}

// Update — замена редактируемых полей кода. UsedCount и автор не меняются.
func (s *DiscountService) Update(ctx context.Context, id string, spec *domain.DiscountSpec) (*domain.DiscountCode, error) {
	if spec == nil {
		return nil, domain.NewValidationError("", "discount is required")
	}
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(ctx, spec); err != nil {
		return nil, err
	}
	if err := s.checkReferences(ctx, spec); err != nil {
		return nil, err
	}

	updated := existing.Clone()
	applySpec(updated, spec, s.clock.Now().UTC())

	if err := s.repo.Update(ctx, updated); err != nil {
		if domain.IsExpected(err) {
			s.log.Warnf(ctx, "discount update rejected id=%s err=%v", id, err)
			return nil, err
		}
		s.log.Errorf(ctx, "repo.Update failed id=%s err=%v", id, err)
		return nil, fmt.Errorf("update discount: %w", err)
	}
	s.invalidate(ctx, existing.Code)
	if updated.Code != existing.Code {
		s.invalidate(ctx, updated.Code)
	}

	s.log.Infof(ctx, "discount updated id=%s code=%s", updated.ID, updated.Code)
	return updated, nil
}

// Delete — безвозвратное удаление кода вместе с журналом использований.
func (s *DiscountService) Delete(ctx context.Context, id string) error {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if domain.IsExpected(err) {
			return err
		}
		s.log.Errorf(ctx, "repo.Delete failed id=%s err=%v", id, err)
		return fmt.Errorf("delete discount: %w", err)
	}
	s.invalidate(ctx, existing.Code)

	s.log.Infof(ctx, "discount deleted id=%s code=%s", id, existing.Code)
	return nil
}

// Get — код по идентификатору, всегда из хранилища.
func (s *DiscountService) Get(ctx context.Context, id string) (*domain.DiscountCode, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.NewValidationError("id", "is required")
	}
	discount, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.log.Errorf(ctx, "repo.GetByID failed id=%s err=%v", id, err)
		return nil, fmt.Errorf("get discount: %w", err)
	}
	if discount == nil {
		return nil, domain.ErrDiscountNotFound
	}
	return discount, nil
}

// List — административный список с фильтрами; Now подставляется из часов сервиса.
func (s *DiscountService) List(ctx context.Context, filter domain.DiscountFilter) ([]*domain.DiscountCode, error) {
	if filter.Limit < 0 {
		return nil, domain.NewValidationError("limit", "must not be negative")
	}
	if filter.Offset < 0 {
		return nil, domain.NewValidationError("offset", "must not be negative")
	}
	if filter.Limit == 0 {
		filter.Limit = DefaultListLimit
	}
	if filter.Limit > MaxListLimit {
		filter.Limit = MaxListLimit
	}
	filter.Search = strings.TrimSpace(filter.Search)
	filter.Now = s.clock.Now().UTC()

	list, err := s.repo.List(ctx, filter)
	if err != nil {
		s.log.Errorf(ctx, "repo.List failed err=%v", err)
		return nil, fmt.Errorf("list discounts: %w", err)
	}
	return list, nil
}

// WarmUpCache — прогрев кэша первыми n активными кодами из хранилища.
// n <= 0 — прогрев не выполняется; сбой кэша не считается ошибкой.
func (s *DiscountService) WarmUpCache(ctx context.Context, n int) error {
	if n <= 0 {
		return nil
	}

	start := time.Now()
	active := true
	list, err := s.repo.List(ctx, domain.DiscountFilter{
		Active: &active,
		Now:    s.clock.Now().UTC(),
		Limit:  min(n, MaxListLimit),
	})
	if err != nil {
		s.log.Errorf(ctx, "repo.List failed n=%d err=%v", n, err)
		return fmt.Errorf("warm-up list: %w", err)
	}
	if err := s.cache.WarmUp(ctx, list); err != nil {
		s.log.Warnf(ctx, "cache.WarmUp failed err=%v", err)
	}
	s.log.Infof(ctx, "discount cache warmed with %d codes in %s", len(list), time.Since(start))
	return nil
}

// load — определение кода: кэш, затем хранилище (один запрос на код при конкурентных промахах).
func (s *DiscountService) load(ctx context.Context, code string) (*domain.DiscountCode, error) {
	code = domain.NormalizeCode(code)
	if code == "" {
		return nil, domain.NewValidationError("code", "is required")
	}

	if discount, found := s.cache.Get(ctx, code); found {
		return discount, nil
	}

	v, err, _ := s.loads.Do(code, func() (any, error) {
		gen := s.generation(code)
		discount, err := s.repo.GetByCode(ctx, code)
		if err != nil {
			s.log.Errorf(ctx, "repo.GetByCode failed code=%s err=%v", code, err)
			return nil, fmt.Errorf("load discount: %w", err)
		}
		if discount == nil {
			return nil, domain.ErrDiscountNotFound
		}
		if setErr := s.cache.Set(ctx, discount); setErr != nil {
			s.log.Warnf(ctx, "discount cache.Set failed code=%s err=%v", code, setErr)
		}
		// Код изменился, пока шло чтение: снимок мог устареть, из кэша его убираем.
		if s.generation(code) != gen {
			s.dropCached(ctx, code)
		}
		return discount, nil
	})
	if err != nil {
		return nil, err
	}
	// Результат singleflight общий для всех ожидающих - каждому своя копия.
	return v.(*domain.DiscountCode).Clone(), nil
}

func (s *DiscountService) checkCustomerLimit(ctx context.Context, discount *domain.DiscountCode, customerID string) error {
	used, err := s.repo.CustomerRedemptions(ctx, discount.ID, customerID)
	if err != nil {
		s.log.Errorf(ctx, "repo.CustomerRedemptions failed discount_id=%s err=%v", discount.ID, err)
		return fmt.Errorf("customer redemptions: %w", err)
	}
	return pricing.CheckCustomerLimit(discount, used)
}

// checkReferences — все перечисленные товары и категории существуют в каталоге.
func (s *DiscountService) checkReferences(ctx context.Context, spec *domain.DiscountSpec) error {
	if len(spec.ApplicableProducts) == 0 && len(spec.ApplicableCategories) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.catalogTimeout)
	defer cancel()

	for _, id := range spec.ApplicableProducts {
		ok, err := s.catalog.ProductExists(ctx, id)
		if err != nil {
			metrics.CatalogLookupFailures.Inc()
			s.log.Errorf(ctx, "catalog.ProductExists failed product_id=%s err=%v", id, err)
			return fmt.Errorf("check product %s: %w", id, err)
		}
		if !ok {
			return domain.NewValidationError("applicable_products", "product %s does not exist", id)
		}
	}
	for _, id := range spec.ApplicableCategories {
		ok, err := s.catalog.CategoryExists(ctx, id)
		if err != nil {
			metrics.CatalogLookupFailures.Inc()
			s.log.Errorf(ctx, "catalog.CategoryExists failed category_id=%s err=%v", id, err)
			return fmt.Errorf("check category %s: %w", id, err)
		}
		if !ok {
			return domain.NewValidationError("applicable_categories", "category %s does not exist", id)
		}
	}
	return nil
}

func (s *DiscountService) generation(code string) uint64 {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	return s.gens[code]
}

// invalidate — новое поколение кода, затем удаление из кэша. Порядок важен: загрузка,
// записавшая снимок после удаления, увидит новое поколение и уберёт его сама.
func (s *DiscountService) invalidate(ctx context.Context, code string) {
	if code == "" {
		return
	}
	s.genMu.Lock()
	s.gens[code]++
	s.genMu.Unlock()
	s.dropCached(ctx, code)
}

func (s *DiscountService) dropCached(ctx context.Context, code string) {
	if err := s.cache.Invalidate(ctx, code); err != nil {
		s.log.Warnf(ctx, "discount cache.Invalidate failed code=%s err=%v", code, err)
	}
}

func (s *DiscountService) countValidation(err error) {
	outcome := "ok"
	if err != nil {
		outcome = outcomeOf(err)
	}
	metrics.DiscountValidations.WithLabelValues(outcome).Inc()
}

func (s *DiscountService) countRedemption(err error) {
	metrics.DiscountRedemptions.WithLabelValues(outcomeOf(err)).Inc()
}

func outcomeOf(err error) string {
	if reason, ok := domain.IneligibilityOf(err); ok {
		return reason.String()
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrValidation):
		return "invalid"
	default:
		return "error"
	}
}

// applySpec — перенос полей входных данных в сущность. Необязательные ValidFrom и IsActive
// сохраняют текущее значение, если не заданы.
func applySpec(d *domain.DiscountCode, spec *domain.DiscountSpec, now time.Time) {
	d.Code = domain.NormalizeCode(spec.Code)
	d.Kind = spec.Kind
	d.Value = spec.Value
	d.MinOrderAmount = spec.MinOrderAmount
	d.MaxDiscountAmount = spec.MaxDiscountAmount
	if spec.ValidFrom != nil {
		d.ValidFrom = spec.ValidFrom.UTC()
	}
	d.ValidUntil = nil
	if spec.ValidUntil != nil {
		until := spec.ValidUntil.UTC()
		d.ValidUntil = &until
	}
	d.TotalUsageLimit = spec.TotalUsageLimit
	d.PerCustomerLimit = spec.PerCustomerLimit
	d.ApplicableProducts = append([]string{}, spec.ApplicableProducts...)
	d.ApplicableCategories = append([]string{}, spec.ApplicableCategories...)
	if spec.IsActive != nil {
		d.IsActive = *spec.IsActive
	}
	d.Description = strings.TrimSpace(spec.Description)
	d.UpdatedAt = now
}

// unexpected — ошибка для статуса спана: ожидаемые бизнес-исходы сбоем не считаются.
func unexpected(err error) error {
	if err == nil || domain.IsExpected(err) {
		return nil
	}
	return err
}
