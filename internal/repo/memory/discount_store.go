package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/Gunvolt24/shop_pricing/internal/domain"
	"github.com/Gunvolt24/shop_pricing/internal/ports"
)

type customerKey struct {
	discountID string
	customerID string
}

// DiscountStore — промокоды и журнал использований в памяти.
// Redeem выполняет проверку лимитов и инкремент под одним мьютексом.
type DiscountStore struct {
	mu sync.RWMutex

	byID   map[string]*domain.DiscountCode
	byCode map[string]string // code -> id

	byOrder   map[string]string // order_id -> discount_id
	customers map[customerKey]int
}

var _ ports.DiscountRepository = (*DiscountStore)(nil)

func NewDiscountStore() *DiscountStore {
	return &DiscountStore{
		byID:      make(map[string]*domain.DiscountCode),
		byCode:    make(map[string]string),
		byOrder:   make(map[string]string),
		customers: make(map[customerKey]int),
	}
}

func (s *DiscountStore) Create(_ context.Context, code *domain.DiscountCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byCode[code.Code]; exists {
		return domain.ErrDuplicateCode(code.Code)
	}
	s.byID[code.ID] = code.Clone()
	s.byCode[code.Code] = code.ID
	return nil
}

func (s *DiscountStore) Update(_ context.Context, code *domain.DiscountCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.byID[code.ID]
	if !ok {
		return domain.ErrDiscountNotFound
	}
	if id, exists := s.byCode[code.Code]; exists && id != code.ID {
		return domain.ErrDuplicateCode(code.Code)
	}

	updated := code.Clone()
	updated.UsedCount = current.UsedCount
	updated.CreatedBy = current.CreatedBy
	updated.CreatedAt = current.CreatedAt

	delete(s.byCode, current.Code)
	s.byID[code.ID] = updated
	s.byCode[updated.Code] = code.ID
	return nil
}

func (s *DiscountStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.byID[id]
	if !ok {
		return domain.ErrDiscountNotFound
	}
	delete(s.byID, id)
	delete(s.byCode, current.Code)
	for orderID, discountID := range s.byOrder {
		if discountID == id {
			delete(s.byOrder, orderID)
		}
	}
	for key := range s.customers {
		if key.discountID == id {
			delete(s.customers, key)
		}
	}
	return nil
}

func (s *DiscountStore) GetByID(_ context.Context, id string) (*domain.DiscountCode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byID[id].Clone(), nil
}

func (s *DiscountStore) GetByCode(_ context.Context, code string) (*domain.DiscountCode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byCode[code]
	if !ok {
		return nil, nil
	}
	return s.byID[id].Clone(), nil
}

// List — фильтрация и сортировка по дате создания (новые первыми).
func (s *DiscountStore) List(_ context.Context, filter domain.DiscountFilter) ([]*domain.DiscountCode, error) {
	s.mu.RLock()
	out := make([]*domain.DiscountCode, 0, len(s.byID))
	for _, d := range s.byID {
		if matches(d, filter) {
			out = append(out, d.Clone())
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Code < out[j].Code
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if filter.Offset >= len(out) {
		return []*domain.DiscountCode{}, nil
	}
	out = out[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}

// Redeem — повтор по OrderID, общий лимит, персональный лимит, инкремент и запись в журнал.
func (s *DiscountStore) Redeem(_ context.Context, r domain.Redemption) (domain.RedemptionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.byID[r.DiscountID]
	if !ok {
		return domain.RedemptionResult{}, domain.ErrDiscountNotFound
	}

	if r.OrderID != "" {
		if discountID, seen := s.byOrder[r.OrderID]; seen {
			if discountID != r.DiscountID {
				return domain.RedemptionResult{}, &domain.ValidationError{
					Field:   "order_id",
					Message: "order already redeemed another discount",
					Cause:   domain.ErrConflict,
				}
			}
			return domain.RedemptionResult{DiscountID: d.ID, Code: d.Code, UsedCount: d.UsedCount, Replayed: true}, nil
		}
	}

	if d.Exhausted() {
		return domain.RedemptionResult{}, domain.Ineligible(d.Code, domain.IneligibleLimitReached)
	}
	key := customerKey{discountID: d.ID, customerID: r.CustomerID}
	if r.CustomerID != "" && d.PerCustomerLimit != nil && s.customers[key] >= *d.PerCustomerLimit {
		return domain.RedemptionResult{}, domain.Ineligible(d.Code, domain.IneligibleCustomerLimitReached)
	}

	d.UsedCount++
	d.UpdatedAt = r.RedeemedAt
	if r.CustomerID != "" {
		s.customers[key]++
	}
	if r.OrderID != "" {
		s.byOrder[r.OrderID] = d.ID
	}
	return domain.RedemptionResult{DiscountID: d.ID, Code: d.Code, UsedCount: d.UsedCount}, nil
}

func (s *DiscountStore) CustomerRedemptions(_ context.Context, discountID, customerID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.customers[customerKey{discountID: discountID, customerID: customerID}], nil
}

func matches(d *domain.DiscountCode, f domain.DiscountFilter) bool {
	if f.Active != nil && d.IsActive != *f.Active {
		return false
	}
	if f.Expired != nil {
		expired := d.ValidUntil != nil && d.ValidUntil.Before(f.Now)
		if expired != *f.Expired {
			return false
		}
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(d.Code), q) && !strings.Contains(strings.ToLower(d.Description), q) {
			return false
		}
	}
	return true
}
