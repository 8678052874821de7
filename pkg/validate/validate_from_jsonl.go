package validate

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/Gunvolt24/shop_pricing/internal/ports"
)

// ValidateJSONLStream — по описанию промокода на строку; валидные пишутся в ow
// каноническим JSON. Пустые строки пропускаются, повтор кода в потоке — невалидная строка.
func ValidateJSONLStream(ctx context.Context, validator ports.DiscountSpecValidator, ir io.Reader, ow io.Writer) (Report, error) {
	b := newBatch(validator, ow, "line")

	scanner := bufio.NewScanner(ir)
	// запас на длинные списки применимости
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		if err := b.add(ctx, lineNo, line); err != nil {
			return b.report, err
		}
	}
	if err := scanner.Err(); err != nil {
		return b.report, fmt.Errorf("scan: %w", err)
	}
	return b.report, nil
}
