package httpserver

import (
	"errors"
	"net/http"

	"storefront/internal/metrics"
	cartsvc "storefront/internal/service/cart"

	"github.com/gin-gonic/gin"
)

func (h *handler) checkoutJSON(c *gin.Context) {
	url, ok := h.checkout(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"checkoutUrl": url})
}

// checkoutRedirect serves plain form posts from the cart drawer.
func (h *handler) checkoutRedirect(c *gin.Context) {
	url, ok := h.checkout(c)
	if !ok {
		return
	}
	c.Redirect(http.StatusSeeOther, url)
}

// checkout runs the store checkout and writes the error response itself
// when it reports false.
func (h *handler) checkout(c *gin.Context) (string, bool) {
	url, err := storeFrom(c).Checkout(c.Request.Context())
	switch {
	case err == nil:
		h.recordCheckout(metrics.OutcomeSuccess)
		return url, true
	case errors.Is(err, cartsvc.ErrEmptyCart):
		h.recordCheckout(metrics.OutcomeEmpty)
		c.Status(http.StatusNoContent)
	case errors.Is(err, cartsvc.ErrCheckoutInProgress):
		h.recordCheckout(metrics.OutcomeConflict)
		c.JSON(http.StatusConflict, errorBody{Error: err.Error()})
	default:
		h.recordCheckout(metrics.OutcomeFailed)
		c.JSON(http.StatusBadGateway, errorBody{Error: cartsvc.RetryMessage})
	}
	return "", false
}

func (h *handler) recordCheckout(outcome string) {
	if h.deps.Metrics != nil {
		h.deps.Metrics.Checkout(outcome)
	}
}
