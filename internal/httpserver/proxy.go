package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type proxyAddRequest struct {
	CartID        string `json:"cartId"`
	MerchandiseID string `json:"merchandiseId"`
	Quantity      int    `json:"quantity"`
}

// proxyCreateCart creates an empty provider cart on behalf of the browser.
func (h *handler) proxyCreateCart(c *gin.Context) {
	if h.deps.Remote == nil {
		c.JSON(http.StatusInternalServerError, errorBody{Error: "Failed to create cart"})
		return
	}
	remote, err := h.deps.Remote.CreateCart(c.Request.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("proxy create cart")
		c.JSON(http.StatusInternalServerError, errorBody{Error: "Failed to create cart"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": remote})
}

func (h *handler) proxyAddToCart(c *gin.Context) {
	var req proxyAddRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.CartID == "" || req.MerchandiseID == "" {
		c.JSON(http.StatusBadRequest, errorBody{Error: "Missing required fields"})
		return
	}
	switch {
	case req.Quantity < 0:
		c.JSON(http.StatusBadRequest, errorBody{Error: "Invalid quantity"})
		return
	case req.Quantity == 0:
		req.Quantity = 1
	}
	if h.deps.Remote == nil {
		c.JSON(http.StatusInternalServerError, errorBody{Error: "Failed to add item to cart"})
		return
	}
	remote, err := h.deps.Remote.AddLine(c.Request.Context(), req.CartID, req.MerchandiseID, req.Quantity)
	if err != nil {
		h.logger.Error().Err(err).Str("cart_id", req.CartID).Msg("proxy add to cart")
		c.JSON(http.StatusInternalServerError, errorBody{Error: "Failed to add item to cart"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": remote})
}
