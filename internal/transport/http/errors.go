package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/Gunvolt24/shop_pricing/internal/domain"
	"github.com/Gunvolt24/shop_pricing/pkg/httpx"
	"github.com/gin-gonic/gin"
)

// errorResponse — тело ответа об ошибке.
type errorResponse struct {
	Error  string `json:"error"`
	Field  string `json:"field,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// writeError — отображение доменных ошибок в HTTP-статусы:
// неприменимость кода → 422 с причиной, конфликт → 409, валидация → 400, не найдено → 404.
// Всё остальное логируется и отдаётся как 500 без подробностей.
func (h *Handler) writeError(c *gin.Context, op string, err error) {
	var (
		ineligible *domain.IneligibleError
		invalid    *domain.ValidationError
		param      *httpx.ParamError
	)

	switch {
	case errors.As(err, &ineligible):
		c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Reason: ineligible.Reason.String()})
	case errors.Is(err, domain.ErrConflict):
		resp := errorResponse{Error: err.Error()}
		if errors.As(err, &invalid) {
			resp.Field = invalid.Field
		}
		c.JSON(http.StatusConflict, resp)
	case errors.As(err, &invalid):
		c.JSON(http.StatusBadRequest, errorResponse{Error: invalid.Message, Field: invalid.Field})
	case errors.As(err, &param):
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error(), Field: param.Param})
	case errors.Is(err, domain.ErrValidation):
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		h.log.Warnf(c.Request.Context(), "%s timed out: %v", op, err)
		c.JSON(http.StatusGatewayTimeout, errorResponse{Error: "request timed out"})
	default:
		h.log.Errorf(c.Request.Context(), "%s failed: %v", op, err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

// decodeJSON — строгое чтение тела запроса: неизвестные поля и хвост после объекта запрещены.
func decodeJSON(c *gin.Context, dst any) error {
	dec := json.NewDecoder(c.Request.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.NewValidationError("body", "request body is required")
		}
		return domain.NewValidationError("body", "invalid json: %v", err)
	}
	if dec.More() {
		return domain.NewValidationError("body", "unexpected data after json object")
	}
	return nil
}
