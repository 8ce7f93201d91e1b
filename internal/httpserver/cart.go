package httpserver

import (
	"errors"
	"net/http"

	"storefront/internal/domain"
	cartsvc "storefront/internal/service/cart"
	"storefront/internal/service/catalog"

	"github.com/gin-gonic/gin"
)

// addItemRequest either names a catalog product by handle, in which case
// titles and price come from the catalog, or carries a full line item.
type addItemRequest struct {
	Handle       string `json:"handle"`
	VariantID    string `json:"variantId"`
	Quantity     int    `json:"quantity"`
	ProductTitle string `json:"productTitle"`
	VariantTitle string `json:"variantTitle"`
	UnitPrice    string `json:"unitPrice"`
	CurrencyCode string `json:"currencyCode"`
	ImageURL     string `json:"imageUrl"`
}

type quantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

func (h *handler) getCart(c *gin.Context) {
	store, ok := optionalStore(c)
	if !ok {
		c.JSON(http.StatusOK, toCartView(cartsvc.State{}))
		return
	}
	c.JSON(http.StatusOK, toCartView(store.Snapshot()))
}

func (h *handler) addItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}

	in := cartsvc.LineItemInput{
		VariantID:    req.VariantID,
		ProductTitle: req.ProductTitle,
		VariantTitle: req.VariantTitle,
		UnitPrice:    req.UnitPrice,
		CurrencyCode: req.CurrencyCode,
		Quantity:     req.Quantity,
		ImageURL:     req.ImageURL,
	}
	if req.Handle != "" {
		resolved, ok := h.resolveVariant(c, req)
		if !ok {
			return
		}
		in = resolved
	}

	store := storeFrom(c)
	if err := store.AddItem(c.Request.Context(), in); err != nil {
		h.writeMutationError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartView(store.Snapshot()))
}

func (h *handler) resolveVariant(c *gin.Context, req addItemRequest) (cartsvc.LineItemInput, bool) {
	if h.deps.Catalog == nil {
		c.JSON(http.StatusNotFound, errorBody{Error: "product not found"})
		return cartsvc.LineItemInput{}, false
	}
	p, v, err := h.deps.Catalog.Variant(c.Request.Context(), req.Handle, req.VariantID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, errorBody{Error: "product not found"})
		return cartsvc.LineItemInput{}, false
	case errors.Is(err, catalog.ErrVariantUnavailable):
		c.JSON(http.StatusConflict, errorBody{Error: "Out of Stock"})
		return cartsvc.LineItemInput{}, false
	case err != nil:
		h.logger.Error().Err(err).Str("handle", req.Handle).Msg("resolve variant")
		c.JSON(http.StatusBadGateway, errorBody{Error: "catalog unavailable"})
		return cartsvc.LineItemInput{}, false
	}
	return cartsvc.LineItemInput{
		VariantID:    v.ID,
		ProductTitle: p.Title,
		VariantTitle: v.Title,
		UnitPrice:    v.Price.Amount.String(),
		CurrencyCode: v.Price.CurrencyCode,
		Quantity:     req.Quantity,
		ImageURL:     p.FirstImageURL(),
	}, true
}

func (h *handler) setQuantity(c *gin.Context) {
	var req quantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: "quantity required"})
		return
	}
	store := storeFrom(c)
	if err := store.SetQuantity(c.Request.Context(), c.Param("variantId"), *req.Quantity); err != nil {
		h.writeMutationError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartView(store.Snapshot()))
}

func (h *handler) removeItem(c *gin.Context) {
	store := storeFrom(c)
	if err := store.RemoveItem(c.Request.Context(), c.Param("variantId")); err != nil {
		h.writeMutationError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartView(store.Snapshot()))
}

func (h *handler) clearCart(c *gin.Context) {
	store := storeFrom(c)
	if err := store.Clear(c.Request.Context()); err != nil {
		h.writeMutationError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartView(store.Snapshot()))
}

func (h *handler) openCart(c *gin.Context) {
	store := storeFrom(c)
	store.Open()
	c.JSON(http.StatusOK, toCartView(store.Snapshot()))
}

func (h *handler) closeCart(c *gin.Context) {
	store := storeFrom(c)
	store.Close()
	c.JSON(http.StatusOK, toCartView(store.Snapshot()))
}

func (h *handler) writeMutationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, cartsvc.ErrInvalidItem):
		c.JSON(http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.Is(err, cartsvc.ErrCheckoutInProgress):
		c.JSON(http.StatusConflict, errorBody{Error: err.Error()})
	default:
		h.logger.Error().Err(err).Str("session", c.GetString(sessionCtxKey)).Msg("cart mutation")
		c.JSON(http.StatusInternalServerError, errorBody{Error: "cart update failed"})
	}
}
