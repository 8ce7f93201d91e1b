package domain

// Product is a catalog entry as published by the storefront provider.
type Product struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Handle          string    `json:"handle"`
	Description     string    `json:"description,omitempty"`
	DescriptionHTML string    `json:"descriptionHtml,omitempty"`
	MinPrice        Money     `json:"minPrice"`
	Images          []Image   `json:"images"`
	Variants        []Variant `json:"variants"`
}

type Image struct {
	URL     string `json:"url"`
	AltText string `json:"altText,omitempty"`
	Width   int    `json:"width,omitempty"`
	Height  int    `json:"height,omitempty"`
}

type Variant struct {
	ID               string           `json:"id"`
	Title            string           `json:"title"`
	AvailableForSale bool             `json:"availableForSale"`
	Price            Money            `json:"price"`
	SelectedOptions  []SelectedOption `json:"selectedOptions,omitempty"`
}

type SelectedOption struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Variant returns the variant with the given id.
func (p Product) Variant(id string) (Variant, bool) {
	for _, v := range p.Variants {
		if v.ID == id {
			return v, true
		}
	}
	return Variant{}, false
}

// DefaultVariant is the preselected variant: the first one, or the first
// one still for sale when it is sold out. ok is false when nothing is for
// sale.
func (p Product) DefaultVariant() (Variant, bool) {
	for _, v := range p.Variants {
		if v.AvailableForSale {
			return v, true
		}
	}
	return Variant{}, false
}

// FirstImageURL returns the URL of the first image, or "".
func (p Product) FirstImageURL() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0].URL
}
