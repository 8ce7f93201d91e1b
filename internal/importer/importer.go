// Package importer reads product catalogs exported as CSV and serves them
// as a read-only catalog source.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"storefront/internal/domain"

	"github.com/shopspring/decimal"
)

// CSVReader reads product CSV exports. A row with a handle starts a new
// product; rows without one add variants or images to the current product.
type CSVReader struct {
	reader *csv.Reader
}

func NewCSVReader(r io.Reader) *CSVReader {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	return &CSVReader{reader: csvr}
}

type csvRow struct {
	Handle      string
	ID          string
	Title       string
	Desc        string
	VariantID   string
	VariantName string
	Price       string
	Currency    string
	Available   string
	OptionName  string
	OptionValue string
	ImageURL    string
	ImageAlt    string
}

// Read parses all rows and returns products in file order.
func (i *CSVReader) Read() ([]domain.Product, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	if _, ok := index["handle"]; !ok {
		return nil, errors.New("read headers: missing handle column")
	}

	var (
		products []domain.Product
		current  *domain.Product
		seen     = map[string]bool{}
		line     = 1
	)

	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		line++

		row := parseRow(record, index)
		if row == nil {
			continue
		}

		if row.Handle != "" {
			if current != nil {
				if err := finish(current); err != nil {
					return nil, err
				}
				products = append(products, *current)
			}
			if seen[row.Handle] {
				return nil, fmt.Errorf("line %d: duplicate handle %q", line, row.Handle)
			}
			seen[row.Handle] = true
			current = &domain.Product{
				ID:          row.ID,
				Handle:      row.Handle,
				Title:       row.Title,
				Description: row.Desc,
			}
			if current.ID == "" {
				current.ID = "csv:" + row.Handle
			}
		} else if current == nil {
			return nil, fmt.Errorf("line %d: continuation row before first product", line)
		}

		if err := apply(current, row); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}

	if current != nil {
		if err := finish(current); err != nil {
			return nil, err
		}
		products = append(products, *current)
	}

	return products, nil
}

func apply(p *domain.Product, row *csvRow) error {
	if row.ImageURL != "" {
		p.Images = append(p.Images, domain.Image{URL: row.ImageURL, AltText: row.ImageAlt})
	}
	if row.VariantID == "" {
		return nil
	}
	if _, dup := p.Variant(row.VariantID); dup {
		return fmt.Errorf("duplicate variant %q", row.VariantID)
	}
	price, err := decimal.NewFromString(row.Price)
	if err != nil || price.IsNegative() {
		return fmt.Errorf("invalid price %q for variant %q", row.Price, row.VariantID)
	}
	if row.Currency == "" {
		return fmt.Errorf("missing currency for variant %q", row.VariantID)
	}
	available := true
	if row.Available != "" {
		available, err = strconv.ParseBool(row.Available)
		if err != nil {
			return fmt.Errorf("invalid availability %q for variant %q", row.Available, row.VariantID)
		}
	}
	v := domain.Variant{
		ID:               row.VariantID,
		Title:            row.VariantName,
		AvailableForSale: available,
		Price:            domain.Money{Amount: price, CurrencyCode: strings.ToUpper(row.Currency)},
	}
	if v.Title == "" {
		v.Title = "Default Title"
	}
	if row.OptionName != "" {
		v.SelectedOptions = []domain.SelectedOption{{Name: row.OptionName, Value: row.OptionValue}}
	}
	p.Variants = append(p.Variants, v)
	return nil
}

// finish checks required fields and derives the minimum variant price.
func finish(p *domain.Product) error {
	if p.Title == "" || len(p.Variants) == 0 {
		return fmt.Errorf("invalid product %q (missing title or variants)", p.Handle)
	}
	lowest := p.Variants[0].Price
	for _, v := range p.Variants[1:] {
		if v.Price.Amount.LessThan(lowest.Amount) {
			lowest = v.Price
		}
	}
	p.MinPrice = lowest
	return nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.TrimSpace(h)] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int) *csvRow {
	row := &csvRow{
		Handle:      pick(record, index, "handle"),
		ID:          pick(record, index, "id"),
		Title:       pick(record, index, "title"),
		Desc:        pick(record, index, "description"),
		VariantID:   pick(record, index, "variant.id"),
		VariantName: pick(record, index, "variant.title"),
		Price:       pick(record, index, "variant.price"),
		Currency:    pick(record, index, "variant.currencyCode"),
		Available:   pick(record, index, "variant.availableForSale"),
		OptionName:  pick(record, index, "variant.option.name"),
		OptionValue: pick(record, index, "variant.option.value"),
		ImageURL:    pick(record, index, "image.url"),
		ImageAlt:    pick(record, index, "image.altText"),
	}
	if row.Handle == "" && row.VariantID == "" && row.ImageURL == "" {
		return nil
	}
	return row
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}

// Catalog serves products loaded from a CSV export.
type Catalog struct {
	products []domain.Product
	byHandle map[string]int
}

func NewCatalog(products []domain.Product) *Catalog {
	idx := make(map[string]int, len(products))
	for i, p := range products {
		idx[p.Handle] = i
	}
	return &Catalog{products: products, byHandle: idx}
}

// LoadFile reads the CSV export at path.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	products, err := NewCSVReader(f).Read()
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", path, err)
	}
	return NewCatalog(products), nil
}

func (c *Catalog) AllProducts(ctx context.Context) ([]domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]domain.Product, len(c.products))
	copy(out, c.products)
	return out, nil
}

// ProductByHandle returns domain.ErrNotFound for unknown handles.
func (c *Catalog) ProductByHandle(ctx context.Context, handle string) (*domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	i, ok := c.byHandle[handle]
	if !ok {
		return nil, domain.ErrNotFound
	}
	p := c.products[i]
	return &p, nil
}
