package validate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/Gunvolt24/shop_pricing/internal/ports"
)

// Report — итог проверки набора промокодов.
type Report struct {
	Valid   int
	Invalid int
	// Errors — причины отказа по позициям (строка JSONL или элемент массива, с 1).
	Errors map[int]error
	// Unit — как называть позицию в выводе: line | record.
	Unit string
}

func (r Report) String() string {
	return fmt.Sprintf("%d valid / %d invalid", r.Valid, r.Invalid)
}

// WriteErrors — причины отказа по возрастанию позиции, по одной на строку.
func (r Report) WriteErrors(w io.Writer) {
	for _, pos := range slices.Sorted(maps.Keys(r.Errors)) {
		fmt.Fprintf(w, "%s %d: %v\n", r.Unit, pos, r.Errors[pos])
	}
}

// batch — проверка набора описаний: поля, повтор кода внутри набора, канонический вывод.
type batch struct {
	validator ports.DiscountSpecValidator
	out       io.Writer
	seen      map[string]int // нормализованный код -> позиция первой записи
	report    Report
}

func newBatch(validator ports.DiscountSpecValidator, out io.Writer, unit string) *batch {
	return &batch{
		validator: validator,
		out:       out,
		seen:      make(map[string]int),
		report:    Report{Errors: make(map[int]error), Unit: unit},
	}
}

// add — проверяет одну запись. Ошибка только при сбое записи в out;
// невалидная запись попадает в отчёт.
func (b *batch) add(ctx context.Context, pos int, raw []byte) error {
	spec, err := ValidateDiscountFromJSON(ctx, b.validator, raw)
	if err == nil {
		if first, dup := b.seen[spec.Code]; dup {
			err = fmt.Errorf("code %s duplicates %s %d", spec.Code, b.report.Unit, first)
		}
	}
	if err != nil {
		b.report.Invalid++
		b.report.Errors[pos] = err
		return nil
	}
	b.seen[spec.Code] = pos

	canonical, err := json.Marshal(spec)
	if err != nil {
		return fmt.Errorf("marshal %s %d: %w", b.report.Unit, pos, err)
	}
	if _, err := b.out.Write(append(canonical, '\n')); err != nil {
		return fmt.Errorf("write %s %d: %w", b.report.Unit, pos, err)
	}
	b.report.Valid++
	return nil
}
