package httpserver

import (
	"errors"
	"net/http"

	"storefront/internal/domain"

	"github.com/gin-gonic/gin"
)

func (h *handler) listProducts(c *gin.Context) {
	if h.deps.Catalog == nil {
		c.JSON(http.StatusOK, gin.H{"products": []productView{}})
		return
	}
	products, err := h.deps.Catalog.List(c.Request.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("list products")
		c.JSON(http.StatusBadGateway, errorBody{Error: "catalog unavailable"})
		return
	}
	out := make([]productView, 0, len(products))
	for _, p := range products {
		out = append(out, toProductView(p))
	}
	c.JSON(http.StatusOK, gin.H{"products": out})
}

func (h *handler) getProduct(c *gin.Context) {
	if h.deps.Catalog == nil {
		c.JSON(http.StatusNotFound, errorBody{Error: "product not found"})
		return
	}
	p, err := h.deps.Catalog.Get(c.Request.Context(), c.Param("handle"))
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, errorBody{Error: "product not found"})
	case err != nil:
		h.logger.Error().Err(err).Str("handle", c.Param("handle")).Msg("get product")
		c.JSON(http.StatusBadGateway, errorBody{Error: "catalog unavailable"})
	default:
		c.JSON(http.StatusOK, gin.H{"product": toProductView(*p)})
	}
}
