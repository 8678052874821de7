package rest

import (
	"net/http"

	"github.com/Gunvolt24/shop_pricing/internal/domain"
	"github.com/gin-gonic/gin"
)

type totalsRequest struct {
	Items []domain.CartItem `json:"items"`
}

type quantityRequest struct {
	Quantity *int `json:"quantity"`
}

// recomputeTotals — суммы для произвольного набора позиций без сохранения.
func (h *Handler) recomputeTotals(c *gin.Context) {
	var req totalsRequest
	if err := decodeJSON(c, &req); err != nil {
		h.writeError(c, "recompute totals", err)
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	totals, err := h.carts.Recompute(ctx, req.Items)
	if err != nil {
		h.writeError(c, "recompute totals", err)
		return
	}
	c.JSON(http.StatusOK, totals)
}

func (h *Handler) getCart(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	cart, err := h.carts.GetCart(ctx, c.Param("userId"))
	if err != nil {
		h.writeError(c, "get cart", err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// addItem — quantity в теле трактуется как дельта к существующей позиции.
func (h *Handler) addItem(c *gin.Context) {
	var item domain.CartItem
	if err := decodeJSON(c, &item); err != nil {
		h.writeError(c, "add cart item", err)
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	cart, err := h.carts.AddOrUpdateItem(ctx, c.Param("userId"), item)
	if err != nil {
		h.writeError(c, "add cart item", err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (h *Handler) setItemQuantity(c *gin.Context) {
	var req quantityRequest
	if err := decodeJSON(c, &req); err != nil {
		h.writeError(c, "set item quantity", err)
		return
	}
	if req.Quantity == nil {
		h.writeError(c, "set item quantity", domain.NewValidationError("quantity", "is required"))
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	cart, err := h.carts.SetItemQuantity(ctx, c.Param("userId"), c.Param("productId"), *req.Quantity)
	if err != nil {
		h.writeError(c, "set item quantity", err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (h *Handler) removeItem(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	cart, err := h.carts.RemoveItem(ctx, c.Param("userId"), c.Param("productId"))
	if err != nil {
		h.writeError(c, "remove cart item", err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (h *Handler) clearCart(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	cart, err := h.carts.ClearCart(ctx, c.Param("userId"))
	if err != nil {
		h.writeError(c, "clear cart", err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (h *Handler) refreshCart(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	cart, err := h.carts.RefreshCart(ctx, c.Param("userId"))
	if err != nil {
		h.writeError(c, "refresh cart", err)
		return
	}
	c.JSON(http.StatusOK, cart)
}
