package httpx

import (
	"context"

	"github.com/Gunvolt24/shop_pricing/pkg/ctxmeta"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	HeaderRequestID = "X-Request-ID"

	maxRequestIDLen = 128
)

// RequestIDMiddleware:
// - принимает X-Request-ID от клиента, если он короткий и из безопасных символов, иначе генерирует UUID
// - кладёт request_id в контекст
// - возвращает его в ответном заголовке X-Request-ID
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if !validRequestID(requestID) {
			requestID = uuid.NewString()
		}
		c.Header(HeaderRequestID, requestID)

		c.Request = c.Request.WithContext(ctxmeta.WithRequestID(c.Request.Context(), requestID))
		c.Next()
	}
}

// ParamToContext — переносит path-параметр в метаданные контекста (например, владельца корзины),
// чтобы он попадал в логи usecase-слоя.
func ParamToContext(param string, put func(ctx context.Context, value string) context.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		if v := c.Param(param); v != "" {
			c.Request = c.Request.WithContext(put(c.Request.Context(), v))
		}
		c.Next()
	}
}

// validRequestID — непустой, не длиннее maxRequestIDLen, только [A-Za-z0-9._-];
// иначе значение из заголовка не пускаем в логи.
func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		switch ch := id[i]; {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9':
		case ch == '-', ch == '_', ch == '.':
		default:
			return false
		}
	}
	return true
}
