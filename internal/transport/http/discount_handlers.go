package rest

import (
	"net/http"

	"github.com/Gunvolt24/shop_pricing/internal/domain"
	"github.com/Gunvolt24/shop_pricing/internal/usecase"
	"github.com/Gunvolt24/shop_pricing/pkg/httpx"
	"github.com/gin-gonic/gin"
)

type validateRequest struct {
	Code string `json:"code"`
	domain.OrderContext
}

type redeemRequest struct {
	OrderID    string `json:"order_id"`
	CustomerID string `json:"customer_id"`
}

// validateDiscount — расчёт скидки без фиксации; неприменимость → 422 с причиной.
func (h *Handler) validateDiscount(c *gin.Context) {
	var req validateRequest
	if err := decodeJSON(c, &req); err != nil {
		h.writeError(c, "validate discount", err)
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	quote, err := h.discounts.Validate(ctx, req.Code, req.OrderContext)
	if err != nil {
		h.writeError(c, "validate discount", err)
		return
	}
	c.JSON(http.StatusOK, quote)
}

// lookupDiscount — публичный поиск действующего кода.
func (h *Handler) lookupDiscount(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	discount, err := h.discounts.Lookup(ctx, c.Param("code"))
	if err != nil {
		h.writeError(c, "lookup discount", err)
		return
	}
	c.JSON(http.StatusOK, discount)
}

func (h *Handler) createDiscount(c *gin.Context) {
	var spec domain.DiscountSpec
	if err := decodeJSON(c, &spec); err != nil {
		h.writeError(c, "create discount", err)
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	discount, err := h.discounts.Create(ctx, &spec)
	if err != nil {
		h.writeError(c, "create discount", err)
		return
	}
	c.Header("Location", "/discounts/"+discount.ID)
	c.JSON(http.StatusCreated, discount)
}

// listDiscounts — ?active=&expired=&search=&limit=&offset=
func (h *Handler) listDiscounts(c *gin.Context) {
	limit, offset, err := httpx.ParseLimitOffset(c, usecase.DefaultListLimit, usecase.MaxListLimit)
	if err != nil {
		h.writeError(c, "list discounts", err)
		return
	}
	active, err := httpx.ParseOptionalBool(c, "active")
	if err != nil {
		h.writeError(c, "list discounts", err)
		return
	}
	expired, err := httpx.ParseOptionalBool(c, "expired")
	if err != nil {
		h.writeError(c, "list discounts", err)
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	list, err := h.discounts.List(ctx, domain.DiscountFilter{
		Active:  active,
		Expired: expired,
		Search:  c.Query("search"),
		Limit:   limit,
		Offset:  offset,
	})
	if err != nil {
		h.writeError(c, "list discounts", err)
		return
	}
	if list == nil {
		list = []*domain.DiscountCode{}
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) getDiscount(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	discount, err := h.discounts.Get(ctx, c.Param("id"))
	if err != nil {
		h.writeError(c, "get discount", err)
		return
	}
	c.JSON(http.StatusOK, discount)
}

func (h *Handler) updateDiscount(c *gin.Context) {
	var spec domain.DiscountSpec
	if err := decodeJSON(c, &spec); err != nil {
		h.writeError(c, "update discount", err)
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	discount, err := h.discounts.Update(ctx, c.Param("id"), &spec)
	if err != nil {
		h.writeError(c, "update discount", err)
		return
	}
	c.JSON(http.StatusOK, discount)
}

func (h *Handler) deleteDiscount(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	if err := h.discounts.Delete(ctx, c.Param("id")); err != nil {
		h.writeError(c, "delete discount", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// redeemDiscount — фиксация одного использования; повтор с тем же order_id отдаёт replayed=true.
func (h *Handler) redeemDiscount(c *gin.Context) {
	var req redeemRequest
	if err := decodeJSON(c, &req); err != nil {
		h.writeError(c, "redeem discount", err)
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	res, err := h.discounts.Redeem(ctx, domain.Redemption{
		DiscountID: c.Param("id"),
		OrderID:    req.OrderID,
		CustomerID: req.CustomerID,
	})
	if err != nil {
		h.writeError(c, "redeem discount", err)
		return
	}
	c.JSON(http.StatusOK, res)
}
