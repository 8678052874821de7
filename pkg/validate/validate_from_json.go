package validate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/Gunvolt24/shop_pricing/internal/domain"
	"github.com/Gunvolt24/shop_pricing/internal/ports"
)

// ErrInvalidRecord — единственное описание в JSON-файле не прошло проверку.
var ErrInvalidRecord = errors.New("invalid discount")

// ValidateDiscountFromJSON — строгий разбор и проверка одного описания промокода.
// Возвращает описание с нормализованным кодом.
func ValidateDiscountFromJSON(ctx context.Context, validator ports.DiscountSpecValidator, raw []byte) (*domain.DiscountSpec, error) {
	var spec domain.DiscountSpec
	if err := decodeStrict(raw, &spec); err != nil {
		return nil, err
	}
	if err := validator.Validate(ctx, &spec); err != nil {
		return nil, err
	}
	spec.Code = domain.NormalizeCode(spec.Code)
	return &spec, nil
}

// ValidateDiscountJSON — JSON-документ: один объект или массив объектов (файл начальной загрузки).
// Для одиночного объекта причина отказа возвращается ошибкой (обёрнута в ErrInvalidRecord);
// для массива невалидные элементы и повторы кодов попадают в отчёт.
func ValidateDiscountJSON(ctx context.Context, validator ports.DiscountSpecValidator, raw []byte, ow io.Writer) (Report, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		b := newBatch(validator, ow, "record")
		if err := b.add(ctx, 1, raw); err != nil {
			return b.report, err
		}
		if reason, bad := b.report.Errors[1]; bad {
			return b.report, fmt.Errorf("%w: %w", ErrInvalidRecord, reason)
		}
		return b.report, nil
	}

	var records []json.RawMessage
	if err := decodeStrict(trimmed, &records); err != nil {
		return Report{}, err
	}
	b := newBatch(validator, ow, "record")
	for i, rec := range records {
		if err := b.add(ctx, i+1, rec); err != nil {
			return b.report, err
		}
	}
	return b.report, nil
}

func decodeStrict(raw []byte, dst any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	// после документа ничего быть не должно
	if err := dec.Decode(new(struct{})); err != io.EOF {
		return fmt.Errorf("invalid json: trailing data")
	}
	return nil
}
