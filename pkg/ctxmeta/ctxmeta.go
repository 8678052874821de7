// Пакет ctxmeta — метаданные запроса в context.Context: request_id, владелец корзины,
// промокод и заказ. HTTP-слой, usecase и логгер зависят от него, но не друг от друга.
package ctxmeta

import "context"

type ctxKey string

const (
	KeyRequestID    ctxKey = "request_id"
	KeyUserID       ctxKey = "user_id"
	KeyDiscountCode ctxKey = "discount_code"
	KeyOrderID      ctxKey = "order_id"
)

// порядок полей в логе
var logKeys = []ctxKey{KeyRequestID, KeyUserID, KeyDiscountCode, KeyOrderID}

func with(ctx context.Context, key ctxKey, value string) context.Context {
	if ctx == nil || value == "" {
		return ctx
	}
	return context.WithValue(ctx, key, value)
}

func from(ctx context.Context, key ctxKey) (string, bool) {
	if ctx == nil {
		return "", false
	}
	if v, ok := ctx.Value(key).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRequestID кладёт request_id в контекст (пустое значение игнорируется).
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return with(ctx, KeyRequestID, requestID)
}

func RequestIDFromContext(ctx context.Context) (string, bool) { return from(ctx, KeyRequestID) }

// WithUserID — владелец корзины, с которой работает запрос.
func WithUserID(ctx context.Context, userID string) context.Context {
	return with(ctx, KeyUserID, userID)
}

func UserIDFromContext(ctx context.Context) (string, bool) { return from(ctx, KeyUserID) }

// WithDiscountCode — нормализованный промокод текущей операции.
func WithDiscountCode(ctx context.Context, code string) context.Context {
	return with(ctx, KeyDiscountCode, code)
}

func DiscountCodeFromContext(ctx context.Context) (string, bool) { return from(ctx, KeyDiscountCode) }

// WithOrderID — заказ, к которому относится фиксация использования.
func WithOrderID(ctx context.Context, orderID string) context.Context {
	return with(ctx, KeyOrderID, orderID)
}

func OrderIDFromContext(ctx context.Context) (string, bool) { return from(ctx, KeyOrderID) }

// Fields — пары ключ/значение для структурного лога: все известные метаданные
// плюс trace_id/span_id активного спана. Пустой контекст → nil.
func Fields(ctx context.Context) []any {
	if ctx == nil {
		return nil
	}
	var fields []any
	for _, key := range logKeys {
		if v, ok := from(ctx, key); ok {
			fields = append(fields, string(key), v)
		}
	}
	if tid, ok := TraceIDFromContext(ctx); ok {
		fields = append(fields, "trace_id", tid)
	}
	if sid, ok := SpanIDFromContext(ctx); ok {
		fields = append(fields, "span_id", sid)
	}
	return fields
}
