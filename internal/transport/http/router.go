package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/Gunvolt24/shop_pricing/internal/ports"
	"github.com/Gunvolt24/shop_pricing/pkg/ctxmeta"
	"github.com/Gunvolt24/shop_pricing/pkg/httpx"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Handler — HTTP-обработчики корзин и промокодов.
type Handler struct {
	carts     ports.CartService
	discounts ports.DiscountService
	log       ports.Logger
	timeout   time.Duration // дедлайн на обработку одного запроса; 0 — без дедлайна
}

// NewHandler — DI-конструктор.
func NewHandler(carts ports.CartService, discounts ports.DiscountService, log ports.Logger, timeout time.Duration) *Handler {
	return &Handler{carts: carts, discounts: discounts, log: log, timeout: timeout}
}

// NewRouter — gin.Engine с middleware и маршрутами.
// otelServiceName != "" включает otelgin (спан на каждый запрос).
func NewRouter(h *Handler, otelServiceName string) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true

	r.Use(gin.Recovery())
	r.Use(httpx.RequestIDMiddleware())
	if otelServiceName != "" {
		r.Use(otelgin.Middleware(otelServiceName))
	}
	r.Use(httpx.RequestMetrics())
	r.Use(httpx.RequestLogger(h.log))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "method not allowed"})
	})

	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/pricing/totals", h.recomputeTotals)

	carts := r.Group("/carts/:userId", httpx.ParamToContext("userId", ctxmeta.WithUserID))
	carts.GET("", h.getCart)
	carts.DELETE("", h.clearCart)
	carts.POST("/items", h.addItem)
	carts.PATCH("/items/:productId", h.setItemQuantity)
	carts.DELETE("/items/:productId", h.removeItem)
	carts.POST("/refresh", h.refreshCart)

	discounts := r.Group("/discounts")
	discounts.POST("/validate", h.validateDiscount)
	discounts.GET("/code/:code", h.lookupDiscount)
	discounts.POST("", h.createDiscount)
	discounts.GET("", h.listDiscounts)
	discounts.GET("/:id", h.getDiscount)
	discounts.PUT("/:id", h.updateDiscount)
	discounts.DELETE("/:id", h.deleteDiscount)
	discounts.POST("/:id/redeem", h.redeemDiscount)

	return r
}

// requestContext — контекст запроса с дедлайном обработчика.
func (h *Handler) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return context.WithCancel(c.Request.Context())
	}
	return context.WithTimeout(c.Request.Context(), h.timeout)
}
