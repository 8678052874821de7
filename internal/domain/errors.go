package domain

import (
	"errors"
	"fmt"
)

// Базовые классы ошибок. Конкретные ошибки оборачивают их через %w,
// транспорт различает их через errors.Is.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrIneligible = errors.New("discount not applicable")
)

var (
	ErrCartNotFound     = fmt.Errorf("cart %w", ErrNotFound)
	ErrCartItemNotFound = fmt.Errorf("cart item %w", ErrNotFound)
	ErrProductNotFound  = fmt.Errorf("product %w", ErrNotFound)
	ErrDiscountNotFound = fmt.Errorf("discount %w", ErrNotFound)
)

// ValidationError - ошибка входных данных с указанием конкретного поля.
type ValidationError struct {
	Field   string
	Message string
	// Cause - дополнительный класс ошибки (например, ErrConflict для дубликата кода).
	Cause error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrValidation, e.Cause}
	}
	return []error{ErrValidation}
}

// NewValidationError - конструктор ValidationError.
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ErrDuplicateCode возвращается при попытке создать код, который уже существует.
func ErrDuplicateCode(code string) *ValidationError {
	return &ValidationError{Field: "code", Message: fmt.Sprintf("code %q already exists", code), Cause: ErrConflict}
}

// Ineligibility - закрытый набор причин, по которым код скидки неприменим к заказу.
type Ineligibility uint8

const (
	IneligibleInactive Ineligibility = iota + 1
	IneligibleNotYetValid
	IneligibleExpired
	IneligibleLimitReached
	IneligibleCustomerLimitReached
	IneligibleMinimumNotMet
	IneligibleNotApplicable
)

var ineligibilityNames = map[Ineligibility]string{
	IneligibleInactive:             "inactive",
	IneligibleNotYetValid:          "not_yet_valid",
	IneligibleExpired:              "expired",
	IneligibleLimitReached:         "limit_reached",
	IneligibleCustomerLimitReached: "customer_limit_reached",
	IneligibleMinimumNotMet:        "minimum_not_met",
	IneligibleNotApplicable:        "not_applicable",
}

func (r Ineligibility) String() string {
	if name, ok := ineligibilityNames[r]; ok {
		return name
	}
	return "unknown"
}

// IneligibleError - ожидаемый (не аварийный) отказ в применении кода.
type IneligibleError struct {
	Code   string
	Reason Ineligibility
}

func (e *IneligibleError) Error() string {
	return fmt.Sprintf("discount %s: %s", e.Code, e.Reason)
}

func (e *IneligibleError) Unwrap() error { return ErrIneligible }

// Ineligible - конструктор IneligibleError.
func Ineligible(code string, reason Ineligibility) *IneligibleError {
	return &IneligibleError{Code: code, Reason: reason}
}

// IneligibilityOf достаёт причину отказа из цепочки ошибок.
func IneligibilityOf(err error) (Ineligibility, bool) {
	var ie *IneligibleError
	if errors.As(err, &ie) {
		return ie.Reason, true
	}
	return 0, false
}

// IsExpected - ошибка относится к ожидаемым бизнес-исходам (не логируем как сбой).
func IsExpected(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrIneligible)
}
