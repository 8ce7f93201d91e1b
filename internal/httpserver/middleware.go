package httpserver

import (
	"net/http"
	"time"

	cartsvc "storefront/internal/service/cart"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	sessionCookie = "cart_session"
	sessionMaxAge = 30 * 24 * 60 * 60
	storeCtxKey   = "cartStore"
	sessionCtxKey = "cartSession"
)

// requestLogger logs one line per completed request.
func requestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		ev := logger.Info()
		if status >= http.StatusInternalServerError {
			ev = logger.Error()
		}
		ev.Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("took", time.Since(start)).
			Str("session", c.GetString(sessionCtxKey)).
			Msg("request completed")
	}
}

// sessionMiddleware resolves the buyer's cart from the session cookie.
// Writes without a valid cookie get a fresh session id; reads without one
// see an empty cart and register nothing.
func sessionMiddleware(carts cartRegistry, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(sessionCookie)
		if err != nil || uuid.Validate(id) != nil {
			if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead {
				c.Next()
				return
			}
			id = uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(sessionCookie, id, sessionMaxAge, "/", "", secure, true)
		}

		store, err := carts.Store(c.Request.Context(), id)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody{Error: "cart unavailable"})
			return
		}
		c.Set(sessionCtxKey, id)
		c.Set(storeCtxKey, store)
		c.Next()
	}
}

func storeFrom(c *gin.Context) *cartsvc.Store {
	return c.MustGet(storeCtxKey).(*cartsvc.Store)
}

// optionalStore returns the session's store when the request carried one.
func optionalStore(c *gin.Context) (*cartsvc.Store, bool) {
	v, ok := c.Get(storeCtxKey)
	if !ok {
		return nil, false
	}
	return v.(*cartsvc.Store), true
}
