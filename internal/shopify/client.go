// Package shopify talks to the Shopify Storefront GraphQL API: catalog reads
// and the cart mutations used at checkout.
package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"storefront/internal/domain"

	"github.com/rs/zerolog"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

const tokenHeader = "X-Shopify-Storefront-Access-Token"

// ErrUpstream marks failures reported by the Storefront API itself.
var ErrUpstream = errors.New("shopify api error")

type Config struct {
	Domain     string
	Token      string
	APIVersion string
	// Endpoint overrides the URL derived from Domain and APIVersion.
	Endpoint   string
	HTTPClient *http.Client
}

type Client struct {
	endpoint string
	token    string
	http     *http.Client
	logger   zerolog.Logger
}

func New(cfg Config, logger zerolog.Logger) (*Client, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		domain := strings.TrimSpace(cfg.Domain)
		if domain == "" {
			return nil, errors.New("shopify store domain required")
		}
		version := cfg.APIVersion
		if version == "" {
			version = "2024-01"
		}
		endpoint = fmt.Sprintf("https://%s/api/%s/graphql.json", domain, version)
	}
	if err := validateDocuments(); err != nil {
		return nil, err
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		endpoint: endpoint,
		token:    cfg.Token,
		http:     httpClient,
		logger:   logger.With().Str("component", "shopify").Logger(),
	}, nil
}

func validateDocuments() error {
	docs := map[string]string{
		"GetAllProducts":     allProductsQuery,
		"GetProductByHandle": productByHandleQuery,
		"CreateCart":         createCartMutation,
		"AddToCart":          addLinesMutation,
	}
	for name, q := range docs {
		doc, err := parser.ParseQuery(&ast.Source{Name: name, Input: q})
		if err != nil {
			return fmt.Errorf("parse %s: %w", name, err)
		}
		if len(doc.Operations) != 1 || doc.Operations[0].Name != name {
			return fmt.Errorf("document %s must hold exactly one operation named %s", name, name)
		}
	}
	return nil
}

// do posts one GraphQL operation and decodes its data into out.
func (c *Client) do(ctx context.Context, op, query string, vars map[string]any, out any) error {
	body, err := json.Marshal(graphQLRequest{Query: query, Variables: vars})
	if err != nil {
		return fmt.Errorf("encode %s: %w", op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(tokenHeader, c.token)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("op", op).Msg("request failed")
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		c.logger.Error().Str("op", op).Int("status", resp.StatusCode).Msg("unexpected status")
		return fmt.Errorf("%w: %s: %s", ErrUpstream, op, resp.Status)
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []graphQLError  `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode %s: %w", op, err)
	}
	if len(envelope.Errors) > 0 {
		msgs := make([]string, 0, len(envelope.Errors))
		for _, e := range envelope.Errors {
			msgs = append(msgs, e.Message)
		}
		c.logger.Error().Str("op", op).Strs("errors", msgs).Msg("graphql errors")
		return fmt.Errorf("%w: %s: %s", ErrUpstream, op, strings.Join(msgs, "; "))
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return fmt.Errorf("%w: %s: empty data", ErrUpstream, op)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("decode %s data: %w", op, err)
	}
	c.logger.Debug().Str("op", op).Dur("took", time.Since(start)).Msg("graphql ok")
	return nil
}

func (c *Client) AllProducts(ctx context.Context) ([]domain.Product, error) {
	var data struct {
		Products struct {
			Edges []struct {
				Node productNode `json:"node"`
			} `json:"edges"`
		} `json:"products"`
	}
	if err := c.do(ctx, "GetAllProducts", allProductsQuery, nil, &data); err != nil {
		return nil, err
	}
	products := make([]domain.Product, 0, len(data.Products.Edges))
	for _, e := range data.Products.Edges {
		products = append(products, e.Node.toDomain())
	}
	return products, nil
}

// ProductByHandle returns domain.ErrNotFound when no product has handle.
func (c *Client) ProductByHandle(ctx context.Context, handle string) (*domain.Product, error) {
	var data struct {
		ProductByHandle *productNode `json:"productByHandle"`
	}
	vars := map[string]any{"handle": handle}
	if err := c.do(ctx, "GetProductByHandle", productByHandleQuery, vars, &data); err != nil {
		return nil, err
	}
	if data.ProductByHandle == nil {
		return nil, domain.ErrNotFound
	}
	p := data.ProductByHandle.toDomain()
	return &p, nil
}

func (c *Client) CreateCart(ctx context.Context) (*domain.RemoteCart, error) {
	var data struct {
		CartCreate cartPayload `json:"cartCreate"`
	}
	if err := c.do(ctx, "CreateCart", createCartMutation, nil, &data); err != nil {
		return nil, err
	}
	return data.CartCreate.result("CreateCart")
}

// AddLine adds quantity of variantID to the remote cart.
func (c *Client) AddLine(ctx context.Context, cartID, variantID string, quantity int) (*domain.RemoteCart, error) {
	var data struct {
		CartLinesAdd cartPayload `json:"cartLinesAdd"`
	}
	vars := map[string]any{
		"cartId": cartID,
		"lines": []map[string]any{
			{"merchandiseId": variantID, "quantity": quantity},
		},
	}
	if err := c.do(ctx, "AddToCart", addLinesMutation, vars, &data); err != nil {
		return nil, err
	}
	return data.CartLinesAdd.result("AddToCart")
}

func (p cartPayload) result(op string) (*domain.RemoteCart, error) {
	if len(p.UserErrors) > 0 {
		msgs := make([]string, 0, len(p.UserErrors))
		for _, e := range p.UserErrors {
			msgs = append(msgs, e.Message)
		}
		return nil, fmt.Errorf("%w: %s: %s", ErrUpstream, op, strings.Join(msgs, "; "))
	}
	if p.Cart == nil {
		return nil, fmt.Errorf("%w: %s: no cart returned", ErrUpstream, op)
	}
	return p.Cart.toDomain(), nil
}
