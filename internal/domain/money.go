package domain

import "github.com/shopspring/decimal"

// Money is a provider-supplied amount. Amounts are never converted between
// currencies.
type Money struct {
	Amount       decimal.Decimal `json:"amount"`
	CurrencyCode string          `json:"currencyCode"`
}
