package shopify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"storefront/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Token     string
	Query     string
	Variables map[string]any
}

type recorder struct {
	mu   sync.Mutex
	reqs []recordedRequest
}

func (r *recorder) at(i int) recordedRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reqs[i]
}

func (r *recorder) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.reqs)
}

func newTestClient(t *testing.T, handler func(w http.ResponseWriter, req recordedRequest)) (*Client, *recorder) {
	t.Helper()
	rec := &recorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var in graphQLRequest
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		req := recordedRequest{Token: r.Header.Get(tokenHeader), Query: in.Query, Variables: in.Variables}
		rec.mu.Lock()
		rec.reqs = append(rec.reqs, req)
		rec.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		handler(w, req)
	}))
	t.Cleanup(srv.Close)

	c, err := New(Config{Endpoint: srv.URL, Token: "tok-123"}, zerolog.Nop())
	require.NoError(t, err)
	return c, rec
}

func TestNew_DerivesEndpoint(t *testing.T) {
	c, err := New(Config{Domain: "example.myshopify.com"}, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "https://example.myshopify.com/api/2024-01/graphql.json", c.endpoint)

	c, err = New(Config{Domain: "example.myshopify.com", APIVersion: "2024-07"}, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "https://example.myshopify.com/api/2024-07/graphql.json", c.endpoint)

	_, err = New(Config{}, zerolog.Nop())
	require.Error(t, err)
}

func TestValidateDocuments(t *testing.T) {
	require.NoError(t, validateDocuments())
}

func TestAllProducts(t *testing.T) {
	c, seen := newTestClient(t, func(w http.ResponseWriter, _ recordedRequest) {
		io.WriteString(w, `{"data":{"products":{"edges":[
			{"node":{"id":"gid://shopify/Product/1","title":"Tee","handle":"tee","description":"Soft",
			 "priceRange":{"minVariantPrice":{"amount":"19.99","currencyCode":"USD"}},
			 "images":{"edges":[{"node":{"url":"https://cdn.example.com/tee.jpg","altText":null,"width":800,"height":600}}]},
			 "variants":{"edges":[{"node":{"id":"gid://shopify/ProductVariant/11","title":"S","availableForSale":true,
			   "priceV2":{"amount":"19.99","currencyCode":"USD"},"selectedOptions":[{"name":"Size","value":"S"}]}}]}}},
			{"node":{"id":"gid://shopify/Product/2","title":"Mug","handle":"mug",
			 "priceRange":{"minVariantPrice":{"amount":"12.00","currencyCode":"USD"}},
			 "images":{"edges":[]},"variants":{"edges":[]}}}
		]}}}`)
	})

	products, err := c.AllProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)

	tee := products[0]
	assert.Equal(t, "tee", tee.Handle)
	assert.Equal(t, "19.99", tee.MinPrice.Amount.StringFixed(2))
	assert.Equal(t, "https://cdn.example.com/tee.jpg", tee.FirstImageURL())
	require.Len(t, tee.Variants, 1)
	assert.True(t, tee.Variants[0].AvailableForSale)
	assert.Equal(t, []domain.SelectedOption{{Name: "Size", Value: "S"}}, tee.Variants[0].SelectedOptions)
	assert.Empty(t, products[1].Variants)

	require.Equal(t, 1, seen.len())
	assert.Equal(t, "tok-123", seen.at(0).Token)
	assert.Contains(t, seen.at(0).Query, "products(first: 100)")
}

func TestProductByHandle(t *testing.T) {
	c, seen := newTestClient(t, func(w http.ResponseWriter, req recordedRequest) {
		if req.Variables["handle"] == "missing" {
			io.WriteString(w, `{"data":{"productByHandle":null}}`)
			return
		}
		io.WriteString(w, `{"data":{"productByHandle":{"id":"gid://shopify/Product/1","title":"Tee","handle":"tee",
			"priceRange":{"minVariantPrice":{"amount":"5","currencyCode":"EUR"}},
			"images":{"edges":[]},"variants":{"edges":[]}}}}`)
	})

	p, err := c.ProductByHandle(context.Background(), "tee")
	require.NoError(t, err)
	assert.Equal(t, "Tee", p.Title)
	assert.Equal(t, "EUR", p.MinPrice.CurrencyCode)

	_, err = c.ProductByHandle(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, "missing", seen.at(1).Variables["handle"])
}

func TestCreateCartAndAddLine(t *testing.T) {
	c, seen := newTestClient(t, func(w http.ResponseWriter, req recordedRequest) {
		if strings.Contains(req.Query, "cartCreate") {
			io.WriteString(w, `{"data":{"cartCreate":{"cart":{"id":"gid://shopify/Cart/1","checkoutUrl":"https://alt.example.net/cart/c/1?key=k",
				"lines":{"edges":[]},"cost":{"totalAmount":{"amount":"0.0","currencyCode":"USD"}}},"userErrors":[]}}}`)
			return
		}
		io.WriteString(w, `{"data":{"cartLinesAdd":{"cart":{"id":"gid://shopify/Cart/1","checkoutUrl":"https://alt.example.net/cart/c/1?key=k",
			"lines":{"edges":[{"node":{"id":"gid://shopify/CartLine/9","quantity":2,
			  "merchandise":{"id":"gid://shopify/ProductVariant/11","title":"S","priceV2":{"amount":"19.99","currencyCode":"USD"}}}}]},
			"cost":{"totalAmount":{"amount":"39.98","currencyCode":"USD"}}},"userErrors":[]}}}`)
	})

	ctx := context.Background()
	created, err := c.CreateCart(ctx)
	require.NoError(t, err)
	assert.Equal(t, "gid://shopify/Cart/1", created.ID)
	assert.Empty(t, created.Lines)

	updated, err := c.AddLine(ctx, created.ID, "gid://shopify/ProductVariant/11", 2)
	require.NoError(t, err)
	require.Len(t, updated.Lines, 1)
	assert.Equal(t, 2, updated.Lines[0].Quantity)
	assert.Equal(t, "gid://shopify/ProductVariant/11", updated.Lines[0].MerchandiseID)
	assert.Equal(t, "39.98", updated.Total.Amount.StringFixed(2))
	assert.Equal(t, "https://alt.example.net/cart/c/1?key=k", updated.CheckoutURL)

	vars := seen.at(1).Variables
	assert.Equal(t, "gid://shopify/Cart/1", vars["cartId"])
	lines, ok := vars["lines"].([]any)
	require.True(t, ok)
	require.Len(t, lines, 1)
	line := lines[0].(map[string]any)
	assert.Equal(t, "gid://shopify/ProductVariant/11", line["merchandiseId"])
	assert.EqualValues(t, 2, line["quantity"])
}

func TestErrors(t *testing.T) {
	cases := []struct {
		name     string
		status   int
		body     string
		upstream bool
	}{
		{name: "http status", status: http.StatusBadGateway, body: `oops`, upstream: true},
		{name: "graphql errors", status: http.StatusOK, body: `{"errors":[{"message":"Throttled"}]}`, upstream: true},
		{name: "user errors", status: http.StatusOK, body: `{"data":{"cartLinesAdd":{"cart":null,"userErrors":[{"field":["lines"],"message":"invalid merchandise"}]}}}`, upstream: true},
		{name: "no cart", status: http.StatusOK, body: `{"data":{"cartLinesAdd":{"cart":null,"userErrors":[]}}}`, upstream: true},
		{name: "null data", status: http.StatusOK, body: `{"data":null}`, upstream: true},
		{name: "bad json", status: http.StatusOK, body: `{"data":`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, _ recordedRequest) {
				w.WriteHeader(tc.status)
				io.WriteString(w, tc.body)
			})
			_, err := c.AddLine(context.Background(), "gid://shopify/Cart/1", "v", 1)
			require.Error(t, err)
			if tc.upstream {
				assert.ErrorIs(t, err, ErrUpstream)
			}
		})
	}
}

func TestContextCancellation(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ recordedRequest) {
		io.WriteString(w, `{"data":{"cartCreate":{"cart":{"id":"x"}}}}`)
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.CreateCart(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
