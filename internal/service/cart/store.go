package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"storefront/internal/domain"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidItem        = errors.New("invalid line item")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrCheckoutInProgress = errors.New("checkout already in progress")
	ErrCheckoutFailed     = errors.New("checkout failed")
)

// RetryMessage is the only text shown to a buyer when checkout fails.
const RetryMessage = "Failed to proceed to checkout. Please try again."

const (
	itemsKey      = "cart_items"
	remoteCartKey = "remote_cart_id"
)

type slotRepo interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// RemoteCarts creates provider-side carts at checkout time.
type RemoteCarts interface {
	CreateCart(ctx context.Context) (*domain.RemoteCart, error)
	AddLine(ctx context.Context, cartID, variantID string, quantity int) (*domain.RemoteCart, error)
}

type LineItemInput struct {
	VariantID    string `json:"variantId"`
	ProductTitle string `json:"productTitle"`
	VariantTitle string `json:"variantTitle"`
	UnitPrice    string `json:"unitPrice"`
	CurrencyCode string `json:"currencyCode"`
	Quantity     int    `json:"quantity"`
	ImageURL     string `json:"imageUrl,omitempty"`
}

// State is a consistent copy of the cart taken under one lock.
type State struct {
	Items        []domain.LineItem `json:"items"`
	IsOpen       bool              `json:"isOpen"`
	ItemCount    int               `json:"itemCount"`
	TotalPrice   decimal.Decimal   `json:"totalPrice"`
	CurrencyCode string            `json:"currencyCode,omitempty"`
}

// Store is the draft cart of a single buyer. All mutations go through its
// methods; each one persists items to the slot before returning.
type Store struct {
	mu          sync.Mutex
	items       []domain.LineItem
	open        bool
	checkingOut bool

	slot           slotRepo
	remote         RemoteCarts
	checkoutDomain string
	logger         zerolog.Logger
}

// New builds a Store and rehydrates it from slot. Unreadable slot contents
// produce an empty cart.
func New(ctx context.Context, slot slotRepo, remote RemoteCarts, checkoutDomain string, logger zerolog.Logger) *Store {
	s := &Store{
		slot:           slot,
		remote:         remote,
		checkoutDomain: checkoutDomain,
		logger:         logger,
	}
	s.items = s.load(ctx)
	return s
}

func (s *Store) AddItem(ctx context.Context, in LineItemInput) error {
	item, err := in.lineItem()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.checkingOut {
		return ErrCheckoutInProgress
	}

	if i := s.indexOf(item.VariantID); i >= 0 {
		// Display fields of the first add win.
		s.items[i].Quantity += item.Quantity
	} else {
		s.items = append(s.items, item)
	}
	s.open = true
	s.persist(ctx)
	return nil
}

// RemoveItem drops the item with variantID. Unknown ids are ignored.
func (s *Store) RemoveItem(ctx context.Context, variantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.checkingOut {
		return ErrCheckoutInProgress
	}
	s.remove(ctx, variantID)
	return nil
}

// SetQuantity overwrites the quantity of an existing item. quantity <= 0
// removes it; unknown ids are ignored.
func (s *Store) SetQuantity(ctx context.Context, variantID string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.checkingOut {
		return ErrCheckoutInProgress
	}
	if quantity <= 0 {
		s.remove(ctx, variantID)
		return nil
	}
	i := s.indexOf(variantID)
	if i < 0 {
		return nil
	}
	s.items[i].Quantity = quantity
	s.persist(ctx)
	return nil
}

// Clear empties the cart and forgets any remote cart created for it.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.checkingOut {
		return ErrCheckoutInProgress
	}
	s.reset(ctx)
	return nil
}

func (s *Store) Open() {
	s.mu.Lock()
	s.open = true
	s.mu.Unlock()
}

func (s *Store) Close() {
	s.mu.Lock()
	s.open = false
	s.mu.Unlock()
}

func (s *Store) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// Items returns a copy of the items in insertion order.
func (s *Store) Items() []domain.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneItems(s.items)
}

func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return itemCount(s.items)
}

func (s *Store) TotalPrice() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return totalPrice(s.items)
}

// CurrencyCode is the currency of the first item, or "" for an empty cart.
func (s *Store) CurrencyCode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.items) == 0 {
		return ""
	}
	return s.items[0].CurrencyCode
}

func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := State{
		Items:      cloneItems(s.items),
		IsOpen:     s.open,
		ItemCount:  itemCount(s.items),
		TotalPrice: totalPrice(s.items),
	}
	if len(s.items) > 0 {
		st.CurrencyCode = s.items[0].CurrencyCode
	}
	return st
}

func (s *Store) checkoutPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checkingOut
}

func (s *Store) indexOf(variantID string) int {
	for i, item := range s.items {
		if item.VariantID == variantID {
			return i
		}
	}
	return -1
}

func (s *Store) remove(ctx context.Context, variantID string) {
	i := s.indexOf(variantID)
	if i < 0 {
		return
	}
	s.items = append(s.items[:i:i], s.items[i+1:]...)
	s.persist(ctx)
}

// reset empties the cart. The slot writes are detached from ctx so a
// buyer who disconnects after checkout cannot leave the old items stored.
// When the delete fails an empty list is written instead, so a later
// rehydrate still finds an empty cart.
func (s *Store) reset(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	s.items = nil
	if err := s.slot.Delete(ctx, itemsKey); err != nil {
		s.logger.Warn().Err(err).Msg("delete cart items, overwriting with empty list")
		if err := s.slot.Set(ctx, itemsKey, "[]"); err != nil {
			s.logger.Error().Err(err).Msg("clear persisted cart items")
		}
	}
	if err := s.slot.Delete(ctx, remoteCartKey); err != nil {
		s.logger.Warn().Err(err).Msg("delete remote cart id")
	}
}

// persist writes items to the slot. Failures are logged; in-memory state
// stays authoritative for the session.
func (s *Store) persist(ctx context.Context) {
	items := s.items
	if items == nil {
		items = []domain.LineItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		s.logger.Error().Err(err).Msg("encode cart items")
		return
	}
	if err := s.slot.Set(ctx, itemsKey, string(data)); err != nil {
		s.logger.Warn().Err(err).Msg("persist cart items")
	}
}

func (s *Store) load(ctx context.Context) []domain.LineItem {
	raw, found, err := s.slot.Get(ctx, itemsKey)
	if err != nil {
		s.logger.Warn().Err(err).Msg("read persisted cart, starting empty")
		return nil
	}
	if !found || strings.TrimSpace(raw) == "" {
		return nil
	}
	var items []domain.LineItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		s.logger.Warn().Err(err).Msg("persisted cart is corrupt, starting empty")
		return nil
	}
	if err := validateItems(items); err != nil {
		s.logger.Warn().Err(err).Msg("persisted cart is corrupt, starting empty")
		return nil
	}
	s.logger.Debug().Int("items", len(items)).Msg("cart rehydrated")
	return items
}

func validateItems(items []domain.LineItem) error {
	seen := make(map[string]struct{}, len(items))
	for i, item := range items {
		if item.VariantID == "" {
			return fmt.Errorf("item %d: empty variant id", i)
		}
		if item.Quantity <= 0 {
			return fmt.Errorf("item %s: quantity %d", item.VariantID, item.Quantity)
		}
		if item.UnitPrice.IsNegative() {
			return fmt.Errorf("item %s: negative price", item.VariantID)
		}
		if _, dup := seen[item.VariantID]; dup {
			return fmt.Errorf("item %s: duplicate", item.VariantID)
		}
		seen[item.VariantID] = struct{}{}
	}
	return nil
}

func (in LineItemInput) lineItem() (domain.LineItem, error) {
	variantID := strings.TrimSpace(in.VariantID)
	if variantID == "" {
		return domain.LineItem{}, fmt.Errorf("%w: variantId required", ErrInvalidItem)
	}
	qty := in.Quantity
	if qty == 0 {
		qty = 1
	}
	if qty < 0 {
		return domain.LineItem{}, fmt.Errorf("%w: quantity must be positive", ErrInvalidItem)
	}
	price, err := decimal.NewFromString(strings.TrimSpace(in.UnitPrice))
	if err != nil {
		return domain.LineItem{}, fmt.Errorf("%w: unitPrice %q", ErrInvalidItem, in.UnitPrice)
	}
	if price.IsNegative() {
		return domain.LineItem{}, fmt.Errorf("%w: unitPrice must not be negative", ErrInvalidItem)
	}
	currency := strings.ToUpper(strings.TrimSpace(in.CurrencyCode))
	if currency == "" {
		return domain.LineItem{}, fmt.Errorf("%w: currencyCode required", ErrInvalidItem)
	}
	return domain.LineItem{
		VariantID:    variantID,
		ProductTitle: in.ProductTitle,
		VariantTitle: in.VariantTitle,
		UnitPrice:    price,
		CurrencyCode: currency,
		Quantity:     qty,
		ImageURL:     strings.TrimSpace(in.ImageURL),
	}, nil
}

func cloneItems(items []domain.LineItem) []domain.LineItem {
	out := make([]domain.LineItem, len(items))
	copy(out, items)
	return out
}

func itemCount(items []domain.LineItem) int {
	n := 0
	for _, item := range items {
		n += item.Quantity
	}
	return n
}

func totalPrice(items []domain.LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	return total
}
