package httpserver

import (
	"storefront/internal/domain"
	cartsvc "storefront/internal/service/cart"
)

type errorBody struct {
	Error string `json:"error"`
}

type cartView struct {
	Items        []lineItemView `json:"items"`
	ItemCount    int            `json:"itemCount"`
	TotalPrice   string         `json:"totalPrice"`
	CurrencyCode string         `json:"currencyCode"`
	IsOpen       bool           `json:"isOpen"`
}

type lineItemView struct {
	VariantID    string `json:"variantId"`
	ProductTitle string `json:"productTitle"`
	VariantTitle string `json:"variantTitle"`
	UnitPrice    string `json:"unitPrice"`
	CurrencyCode string `json:"currencyCode"`
	Quantity     int    `json:"quantity"`
	LineTotal    string `json:"lineTotal"`
	ImageURL     string `json:"imageUrl,omitempty"`
}

type moneyView struct {
	Amount       string `json:"amount"`
	CurrencyCode string `json:"currencyCode"`
}

type productView struct {
	ID               string        `json:"id"`
	Title            string        `json:"title"`
	Handle           string        `json:"handle"`
	Description      string        `json:"description,omitempty"`
	DescriptionHTML  string        `json:"descriptionHtml,omitempty"`
	Price            moneyView     `json:"price"`
	Images           []imageView   `json:"images"`
	Variants         []variantView `json:"variants"`
	AvailableForSale bool          `json:"availableForSale"`
}

type imageView struct {
	URL     string `json:"url"`
	AltText string `json:"altText,omitempty"`
}

type variantView struct {
	ID               string                  `json:"id"`
	Title            string                  `json:"title"`
	AvailableForSale bool                    `json:"availableForSale"`
	Price            moneyView               `json:"price"`
	SelectedOptions  []domain.SelectedOption `json:"selectedOptions,omitempty"`
}

func toMoneyView(m domain.Money) moneyView {
	return moneyView{Amount: m.Amount.StringFixed(2), CurrencyCode: m.CurrencyCode}
}

func toCartView(st cartsvc.State) cartView {
	items := make([]lineItemView, 0, len(st.Items))
	for _, it := range st.Items {
		items = append(items, lineItemView{
			VariantID:    it.VariantID,
			ProductTitle: it.ProductTitle,
			VariantTitle: it.VariantTitle,
			UnitPrice:    it.UnitPrice.StringFixed(2),
			CurrencyCode: it.CurrencyCode,
			Quantity:     it.Quantity,
			LineTotal:    it.LineTotal().StringFixed(2),
			ImageURL:     it.ImageURL,
		})
	}
	return cartView{
		Items:        items,
		ItemCount:    st.ItemCount,
		TotalPrice:   st.TotalPrice.StringFixed(2),
		CurrencyCode: st.CurrencyCode,
		IsOpen:       st.IsOpen,
	}
}

func toProductView(p domain.Product) productView {
	images := make([]imageView, 0, len(p.Images))
	for _, img := range p.Images {
		images = append(images, imageView{URL: img.URL, AltText: img.AltText})
	}
	variants := make([]variantView, 0, len(p.Variants))
	available := false
	for _, v := range p.Variants {
		available = available || v.AvailableForSale
		variants = append(variants, variantView{
			ID:               v.ID,
			Title:            v.Title,
			AvailableForSale: v.AvailableForSale,
			Price:            toMoneyView(v.Price),
			SelectedOptions:  v.SelectedOptions,
		})
	}
	return productView{
		ID:               p.ID,
		Title:            p.Title,
		Handle:           p.Handle,
		Description:      p.Description,
		DescriptionHTML:  p.DescriptionHTML,
		Price:            toMoneyView(p.MinPrice),
		Images:           images,
		Variants:         variants,
		AvailableForSale: available,
	}
}
