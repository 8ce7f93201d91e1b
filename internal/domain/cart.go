package domain

import "github.com/shopspring/decimal"

// LineItem is one distinct variant in the draft cart, keyed by VariantID.
type LineItem struct {
	VariantID    string          `json:"variantId"`
	ProductTitle string          `json:"productTitle"`
	VariantTitle string          `json:"variantTitle"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	CurrencyCode string          `json:"currencyCode"`
	Quantity     int             `json:"quantity"`
	ImageURL     string          `json:"imageUrl,omitempty"`
}

// LineTotal returns UnitPrice * Quantity.
func (l LineItem) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// RemoteCart is the provider-side cart created at checkout time.
type RemoteCart struct {
	ID          string           `json:"id"`
	CheckoutURL string           `json:"checkoutUrl"`
	Lines       []RemoteCartLine `json:"lines"`
	Total       Money            `json:"total"`
}

type RemoteCartLine struct {
	ID               string `json:"id"`
	Quantity         int    `json:"quantity"`
	MerchandiseID    string `json:"merchandiseId"`
	MerchandiseTitle string `json:"merchandiseTitle"`
	Price            Money  `json:"price"`
}
