package cart

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"storefront/internal/domain"
)

// Checkout submits the cart to the remote provider and returns the buyer's
// redirect URL. On success local state is cleared. On any failure the items
// are left untouched and the returned error wraps ErrCheckoutFailed.
func (s *Store) Checkout(ctx context.Context) (string, error) {
	s.mu.Lock()
	if s.checkingOut {
		s.mu.Unlock()
		return "", ErrCheckoutInProgress
	}
	if len(s.items) == 0 {
		s.mu.Unlock()
		return "", ErrEmptyCart
	}
	items := cloneItems(s.items)
	s.checkingOut = true
	s.mu.Unlock()

	start := time.Now()
	checkoutURL, err := s.submit(ctx, items)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkingOut = false
	if err != nil {
		s.logger.Error().Err(err).Int("lines", len(items)).Dur("took", time.Since(start)).Msg("checkout failed")
		return "", fmt.Errorf("%w: %w", ErrCheckoutFailed, err)
	}
	s.reset(ctx)
	s.logger.Info().Int("lines", len(items)).Dur("took", time.Since(start)).Str("checkout_url", checkoutURL).Msg("checkout ready")
	return checkoutURL, nil
}

func (s *Store) submit(ctx context.Context, items []domain.LineItem) (string, error) {
	if s.remote == nil {
		return "", errors.New("remote cart provider not configured")
	}
	remote, err := s.remote.CreateCart(ctx)
	if err != nil {
		return "", fmt.Errorf("create remote cart: %w", err)
	}
	if remote == nil || remote.ID == "" {
		return "", errors.New("create remote cart: empty cart id")
	}
	if err := s.slot.Set(ctx, remoteCartKey, remote.ID); err != nil {
		s.logger.Warn().Err(err).Msg("cache remote cart id")
	}

	cartID := remote.ID
	for _, item := range items {
		remote, err = s.remote.AddLine(ctx, cartID, item.VariantID, item.Quantity)
		if err != nil {
			return "", fmt.Errorf("add line %s: %w", item.VariantID, err)
		}
		if remote == nil || remote.ID == "" {
			return "", fmt.Errorf("add line %s: empty cart id", item.VariantID)
		}
		cartID = remote.ID
	}

	if strings.TrimSpace(remote.CheckoutURL) == "" {
		return "", errors.New("remote cart has no checkout url")
	}
	return NormalizeCheckoutURL(remote.CheckoutURL, s.checkoutDomain)
}

// NormalizeCheckoutURL moves a provider checkout URL onto the public shop
// domain over https. Path and query are kept verbatim.
func NormalizeCheckoutURL(raw, domain string) (string, error) {
	domain = strings.TrimSpace(domain)
	if domain == "" {
		return "", errors.New("checkout domain not configured")
	}
	if strings.ContainsAny(domain, "/?#@ ") {
		return "", fmt.Errorf("checkout domain %q is not a bare host", domain)
	}
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("parse checkout url: %w", err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("checkout url %q has no host", raw)
	}
	out := url.URL{
		Scheme:   "https",
		Host:     domain,
		Path:     u.Path,
		RawPath:  u.RawPath,
		RawQuery: u.RawQuery,
	}
	return out.String(), nil
}
