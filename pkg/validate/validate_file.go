package validate

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Gunvolt24/shop_pricing/internal/ports"
)

// InputFormat допустимые значения.
type InputFormat string

const (
	FormatAuto  InputFormat = "auto"
	FormatJSON  InputFormat = "json"
	FormatJSONL InputFormat = "jsonl"
)

// formatOf — формат по расширению; всё, кроме .jsonl, читается как JSON.
func formatOf(path string) InputFormat {
	if strings.EqualFold(filepath.Ext(path), ".jsonl") {
		return FormatJSONL
	}
	return FormatJSON
}

// ValidateFile — проверка файла описаний промокодов; валидные записи пишутся в ow
// каноническим JSON, причины отказа по позициям — в ew (nil - не писать).
func ValidateFile(ctx context.Context, validator ports.DiscountSpecValidator, filePath string, format InputFormat, ow, ew io.Writer) (Report, error) {
	if format == FormatAuto {
		format = formatOf(filePath)
	}
	if format != FormatJSON && format != FormatJSONL {
		return Report{}, fmt.Errorf("unsupported format: %s", format)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return Report{}, fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	var report Report
	if format == FormatJSONL {
		report, err = ValidateJSONLStream(ctx, validator, file, ow)
	} else {
		var raw []byte
		if raw, err = io.ReadAll(file); err != nil {
			return Report{}, fmt.Errorf("read file: %w", err)
		}
		report, err = ValidateDiscountJSON(ctx, validator, raw, ow)
	}
	if ew != nil && err == nil {
		report.WriteErrors(ew)
	}
	return report, err
}
