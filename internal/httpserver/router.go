package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"storefront/internal/domain"
	"storefront/internal/metrics"
	cartsvc "storefront/internal/service/cart"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type cartRegistry interface {
	Store(ctx context.Context, sessionID string) (*cartsvc.Store, error)
}

type catalogService interface {
	List(ctx context.Context) ([]domain.Product, error)
	Get(ctx context.Context, handle string) (*domain.Product, error)
	Variant(ctx context.Context, handle, variantID string) (*domain.Product, domain.Variant, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the services behind the HTTP routes. Catalog, Remote, Ready and
// Metrics are optional.
type Deps struct {
	Carts   cartRegistry
	Catalog catalogService
	// Remote backs the raw cart proxy routes.
	Remote  cartsvc.RemoteCarts
	Ready   pinger
	Metrics *metrics.ServerMetrics

	CORSOrigins   []string
	SecureCookies bool
}

type handler struct {
	deps   Deps
	logger zerolog.Logger
}

// buildRouter wires routes for the API.
func buildRouter(logger zerolog.Logger, deps Deps) (*gin.Engine, error) {
	if deps.Carts == nil {
		return nil, errors.New("httpserver: cart registry required")
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	// Variant ids are provider gids and arrive percent-encoded in paths.
	router.UseRawPath = true
	router.Use(requestLogger(logger), gin.Recovery())
	if deps.Metrics != nil {
		router.Use(deps.Metrics.Middleware())
	}
	if len(deps.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     deps.CORSOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
			AllowHeaders:     []string{"Content-Type"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(deps.Ready))
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	h := &handler{deps: deps, logger: logger}

	api := router.Group("/api")
	api.GET("/products", h.listProducts)
	api.GET("/products/:handle", h.getProduct)

	api.POST("/cart/create", h.proxyCreateCart)
	api.POST("/cart/add", h.proxyAddToCart)

	cart := api.Group("/cart", sessionMiddleware(deps.Carts, deps.SecureCookies))
	cart.GET("", h.getCart)
	cart.DELETE("", h.clearCart)
	cart.POST("/items", h.addItem)
	cart.PUT("/items/:variantId", h.setQuantity)
	cart.DELETE("/items/:variantId", h.removeItem)
	cart.POST("/open", h.openCart)
	cart.POST("/close", h.closeCart)
	cart.POST("/checkout", h.checkoutJSON)

	router.POST("/checkout", sessionMiddleware(deps.Carts, deps.SecureCookies), h.checkoutRedirect)

	return router, nil
}
