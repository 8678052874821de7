package httpx

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// ParamError — некорректный параметр запроса.
type ParamError struct {
	Param string
	Value string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("invalid query parameter %s=%q", e.Param, e.Value)
}

// ClampInt — ограничение значения v в диапазоне [min, max].
func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ParseLimitOffset - читает limit/offset из query с дефолтами и границами.
// Нечисловые и отрицательные значения - *ParamError; limit больше maxLimit урезается.
// limit=0 означает значение по умолчанию.
func ParseLimitOffset(c *gin.Context, defaultLimit, maxLimit int) (limit, offset int, err error) {
	limit = defaultLimit
	if raw, ok := c.GetQuery("limit"); ok {
		v, convErr := strconv.Atoi(raw)
		if convErr != nil || v < 0 {
			return 0, 0, &ParamError{Param: "limit", Value: raw}
		}
		if v > 0 {
			limit = v
		}
	}
	limit = ClampInt(limit, 1, maxLimit)

	if raw, ok := c.GetQuery("offset"); ok {
		v, convErr := strconv.Atoi(raw)
		if convErr != nil || v < 0 {
			return 0, 0, &ParamError{Param: "offset", Value: raw}
		}
		offset = v
	}
	return limit, offset, nil
}

// ParseOptionalBool - необязательный булев фильтр: нет параметра - nil.
func ParseOptionalBool(c *gin.Context, key string) (*bool, error) {
	raw, ok := c.GetQuery(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return nil, &ParamError{Param: key, Value: raw}
	}
	return &v, nil
}
