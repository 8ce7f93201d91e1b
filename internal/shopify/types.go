package shopify

import (
	"storefront/internal/domain"

	"github.com/shopspring/decimal"
)

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type userError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
}

type moneyV2 struct {
	Amount       decimal.Decimal `json:"amount"`
	CurrencyCode string          `json:"currencyCode"`
}

func (m moneyV2) toDomain() domain.Money {
	return domain.Money{Amount: m.Amount, CurrencyCode: m.CurrencyCode}
}

type imageNode struct {
	URL     string  `json:"url"`
	AltText *string `json:"altText"`
	Width   int     `json:"width"`
	Height  int     `json:"height"`
}

type variantNode struct {
	ID               string  `json:"id"`
	Title            string  `json:"title"`
	AvailableForSale bool    `json:"availableForSale"`
	PriceV2          moneyV2 `json:"priceV2"`
	SelectedOptions  []struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	} `json:"selectedOptions"`
}

type productNode struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Handle          string `json:"handle"`
	Description     string `json:"description"`
	DescriptionHTML string `json:"descriptionHtml"`
	PriceRange      struct {
		MinVariantPrice moneyV2 `json:"minVariantPrice"`
	} `json:"priceRange"`
	Images struct {
		Edges []struct {
			Node imageNode `json:"node"`
		} `json:"edges"`
	} `json:"images"`
	Variants struct {
		Edges []struct {
			Node variantNode `json:"node"`
		} `json:"edges"`
	} `json:"variants"`
}

func (p productNode) toDomain() domain.Product {
	out := domain.Product{
		ID:              p.ID,
		Title:           p.Title,
		Handle:          p.Handle,
		Description:     p.Description,
		DescriptionHTML: p.DescriptionHTML,
		MinPrice:        p.PriceRange.MinVariantPrice.toDomain(),
		Images:          make([]domain.Image, 0, len(p.Images.Edges)),
		Variants:        make([]domain.Variant, 0, len(p.Variants.Edges)),
	}
	for _, e := range p.Images.Edges {
		img := domain.Image{URL: e.Node.URL, Width: e.Node.Width, Height: e.Node.Height}
		if e.Node.AltText != nil {
			img.AltText = *e.Node.AltText
		}
		out.Images = append(out.Images, img)
	}
	for _, e := range p.Variants.Edges {
		v := domain.Variant{
			ID:               e.Node.ID,
			Title:            e.Node.Title,
			AvailableForSale: e.Node.AvailableForSale,
			Price:            e.Node.PriceV2.toDomain(),
		}
		for _, o := range e.Node.SelectedOptions {
			v.SelectedOptions = append(v.SelectedOptions, domain.SelectedOption{Name: o.Name, Value: o.Value})
		}
		out.Variants = append(out.Variants, v)
	}
	return out
}

type cartNode struct {
	ID          string `json:"id"`
	CheckoutURL string `json:"checkoutUrl"`
	Lines       struct {
		Edges []struct {
			Node struct {
				ID          string `json:"id"`
				Quantity    int    `json:"quantity"`
				Merchandise struct {
					ID      string  `json:"id"`
					Title   string  `json:"title"`
					PriceV2 moneyV2 `json:"priceV2"`
				} `json:"merchandise"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"lines"`
	Cost struct {
		TotalAmount moneyV2 `json:"totalAmount"`
	} `json:"cost"`
}

func (c cartNode) toDomain() *domain.RemoteCart {
	out := &domain.RemoteCart{
		ID:          c.ID,
		CheckoutURL: c.CheckoutURL,
		Lines:       make([]domain.RemoteCartLine, 0, len(c.Lines.Edges)),
		Total:       c.Cost.TotalAmount.toDomain(),
	}
	for _, e := range c.Lines.Edges {
		out.Lines = append(out.Lines, domain.RemoteCartLine{
			ID:               e.Node.ID,
			Quantity:         e.Node.Quantity,
			MerchandiseID:    e.Node.Merchandise.ID,
			MerchandiseTitle: e.Node.Merchandise.Title,
			Price:            e.Node.Merchandise.PriceV2.toDomain(),
		})
	}
	return out
}

type cartPayload struct {
	Cart       *cartNode   `json:"cart"`
	UserErrors []userError `json:"userErrors"`
}
