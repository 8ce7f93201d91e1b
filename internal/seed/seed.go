package seed

import (
	"context"
	"fmt"

	slotrepo "storefront/internal/repository/slot"
	cartsvc "storefront/internal/service/cart"

	"github.com/rs/zerolog"
)

var demoItems = []cartsvc.LineItemInput{
	{
		VariantID:    "gid://shopify/ProductVariant/demo-tshirt-m",
		ProductTitle: "Demo T-Shirt",
		VariantTitle: "M",
		UnitPrice:    "19.99",
		CurrencyCode: "USD",
		Quantity:     2,
	},
	{
		VariantID:    "gid://shopify/ProductVariant/demo-mug",
		ProductTitle: "Demo Mug",
		VariantTitle: "Default Title",
		UnitPrice:    "12.99",
		CurrencyCode: "USD",
		Quantity:     1,
	},
}

// Apply replaces the draft cart of sessionID with demo items for manual
// testing. Running it twice leaves the same cart.
func Apply(ctx context.Context, slot slotrepo.Repository, sessionID string, logger zerolog.Logger) (cartsvc.State, error) {
	store, err := cartsvc.NewRegistry(slot, nil, "", logger).Store(ctx, sessionID)
	if err != nil {
		return cartsvc.State{}, err
	}
	if err := store.Clear(ctx); err != nil {
		return cartsvc.State{}, fmt.Errorf("clear cart: %w", err)
	}
	for _, it := range demoItems {
		if err := store.AddItem(ctx, it); err != nil {
			return cartsvc.State{}, fmt.Errorf("add %s: %w", it.VariantID, err)
		}
	}
	return store.Snapshot(), nil
}
