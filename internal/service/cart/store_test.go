package cart

import (
	"context"
	"errors"
	"testing"

	slotrepo "storefront/internal/repository/slot"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSlot struct {
	values   map[string]string
	getErr   error
	setErr   error
	setCalls int
	deleted  []string

	deleteErr error
	// honorCtx makes Delete fail once its context is done.
	honorCtx bool
}

func newStubSlot() *stubSlot {
	return &stubSlot{values: map[string]string{}}
}

func (s *stubSlot) Get(_ context.Context, key string) (string, bool, error) {
	if s.getErr != nil {
		return "", false, s.getErr
	}
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *stubSlot) Set(_ context.Context, key, value string) error {
	s.setCalls++
	if s.setErr != nil {
		return s.setErr
	}
	s.values[key] = value
	return nil
}

func (s *stubSlot) Delete(ctx context.Context, key string) error {
	if s.honorCtx && ctx.Err() != nil {
		return ctx.Err()
	}
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleted = append(s.deleted, key)
	delete(s.values, key)
	return nil
}

func newTestStore(t *testing.T, slot slotRepo) *Store {
	t.Helper()
	return New(context.Background(), slot, nil, "shop.example.com", zerolog.Nop())
}

func item(variantID, price string, qty int) LineItemInput {
	return LineItemInput{
		VariantID:    variantID,
		ProductTitle: "Product " + variantID,
		VariantTitle: "Default Title",
		UnitPrice:    price,
		CurrencyCode: "USD",
		Quantity:     qty,
	}
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func TestAddItem_SameVariantAccumulates(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, newStubSlot())

	require.NoError(t, s.AddItem(ctx, item("A", "10.00", 1)))
	second := item("A", "99.99", 2)
	second.ProductTitle = "Renamed"
	require.NoError(t, s.AddItem(ctx, second))

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Quantity)
	assert.Equal(t, "Product A", items[0].ProductTitle)
	assert.True(t, items[0].UnitPrice.Equal(dec(t, "10")))
	assert.True(t, s.TotalPrice().Equal(dec(t, "30.00")), "total %s", s.TotalPrice())
	assert.Equal(t, 3, s.ItemCount())
}

func TestAddItem_PreservesInsertionOrderAndOpensCart(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, newStubSlot())
	assert.False(t, s.IsOpen())

	require.NoError(t, s.AddItem(ctx, item("B", "1", 1)))
	s.Close()
	require.NoError(t, s.AddItem(ctx, item("A", "1", 1)))
	require.NoError(t, s.AddItem(ctx, item("C", "1", 1)))
	require.NoError(t, s.AddItem(ctx, item("B", "1", 1)))

	ids := []string{}
	for _, it := range s.Items() {
		ids = append(ids, it.VariantID)
	}
	assert.Equal(t, []string{"B", "A", "C"}, ids)
	assert.True(t, s.IsOpen())
}

func TestAddItem_DefaultsQuantityToOne(t *testing.T) {
	s := newTestStore(t, newStubSlot())
	require.NoError(t, s.AddItem(context.Background(), item("A", "5", 0)))
	assert.Equal(t, 1, s.ItemCount())
}

func TestAddItem_RejectsInvalidInput(t *testing.T) {
	cases := map[string]LineItemInput{
		"empty variant":    item("  ", "1", 1),
		"negative qty":     item("A", "1", -1),
		"bad price":        item("A", "ten", 1),
		"negative price":   item("A", "-1", 1),
		"missing currency": {VariantID: "A", UnitPrice: "1", Quantity: 1},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			slot := newStubSlot()
			s := newTestStore(t, slot)
			err := s.AddItem(context.Background(), in)
			require.ErrorIs(t, err, ErrInvalidItem)
			assert.Empty(t, s.Items())
			assert.False(t, s.IsOpen())
			assert.Zero(t, slot.setCalls)
		})
	}
}

func TestRemoveItem(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, newStubSlot())
	require.NoError(t, s.AddItem(ctx, item("A", "10", 1)))
	require.NoError(t, s.AddItem(ctx, item("B", "25", 1)))

	require.NoError(t, s.RemoveItem(ctx, "A"))
	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "B", items[0].VariantID)
	assert.True(t, s.TotalPrice().Equal(dec(t, "25.00")))

	require.NoError(t, s.RemoveItem(ctx, "A"))
	require.NoError(t, s.RemoveItem(ctx, "missing"))
	assert.Len(t, s.Items(), 1)
}

func TestSetQuantity(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, newStubSlot())
	require.NoError(t, s.AddItem(ctx, item("A", "2.50", 1)))
	require.NoError(t, s.AddItem(ctx, item("B", "1", 1)))

	require.NoError(t, s.SetQuantity(ctx, "A", 4))
	assert.Equal(t, 5, s.ItemCount())
	assert.True(t, s.TotalPrice().Equal(dec(t, "11")))

	require.NoError(t, s.SetQuantity(ctx, "missing", 3))
	assert.Len(t, s.Items(), 2)

	require.NoError(t, s.SetQuantity(ctx, "A", 0))
	require.Len(t, s.Items(), 1)
	assert.Equal(t, "B", s.Items()[0].VariantID)

	require.NoError(t, s.SetQuantity(ctx, "B", -2))
	assert.Empty(t, s.Items())
}

func TestTotalPrice_IsExactDecimal(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, newStubSlot())
	require.NoError(t, s.AddItem(ctx, item("A", "0.10", 3)))
	require.NoError(t, s.AddItem(ctx, item("B", "0.20", 1)))
	for i := 0; i < 7; i++ {
		require.NoError(t, s.AddItem(ctx, item("C", "0.01", 1)))
	}

	assert.Equal(t, "0.57", s.TotalPrice().StringFixed(2))
	assert.True(t, s.TotalPrice().Equal(dec(t, "0.57")))
	assert.Equal(t, 11, s.ItemCount())
}

func TestOpenClose(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, newStubSlot())
	require.NoError(t, s.AddItem(ctx, item("A", "1", 1)))

	s.Close()
	assert.False(t, s.IsOpen())
	s.Open()
	assert.True(t, s.IsOpen())
	assert.Len(t, s.Items(), 1)
}

func TestClear_RemovesItemsAndRemoteCartID(t *testing.T) {
	ctx := context.Background()
	slot := newStubSlot()
	slot.values[remoteCartKey] = "gid://shopify/Cart/old"
	s := newTestStore(t, slot)
	require.NoError(t, s.AddItem(ctx, item("A", "1", 2)))

	require.NoError(t, s.Clear(ctx))
	assert.Empty(t, s.Items())
	assert.Zero(t, s.ItemCount())
	assert.True(t, s.TotalPrice().IsZero())
	assert.ElementsMatch(t, []string{itemsKey, remoteCartKey}, slot.deleted)
	assert.NotContains(t, slot.values, remoteCartKey)
}

func TestClear_DeleteFailureLeavesEmptyListStored(t *testing.T) {
	ctx := context.Background()
	slot := newStubSlot()
	s := newTestStore(t, slot)
	require.NoError(t, s.AddItem(ctx, item("A", "1", 2)))

	slot.deleteErr = errors.New("connection reset")
	require.NoError(t, s.Clear(ctx))
	assert.Equal(t, "[]", slot.values[itemsKey])

	restored := newTestStore(t, slot)
	assert.Empty(t, restored.Items())
}

func TestPersistence_RoundTrip(t *testing.T) {
	ctx := context.Background()
	slot := slotrepo.NewMemory()
	s := New(ctx, slot, nil, "", zerolog.Nop())

	in := item("A", "19.99", 2)
	in.ImageURL = "https://cdn.example.com/a.jpg"
	require.NoError(t, s.AddItem(ctx, in))
	require.NoError(t, s.AddItem(ctx, item("B", "5", 1)))
	require.NoError(t, s.AddItem(ctx, item("C", "0.5", 3)))
	require.NoError(t, s.RemoveItem(ctx, "B"))

	reloaded := New(ctx, slot, nil, "", zerolog.Nop())
	want := s.Items()
	got := reloaded.Items()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].VariantID, got[i].VariantID)
		assert.Equal(t, want[i].ProductTitle, got[i].ProductTitle)
		assert.Equal(t, want[i].VariantTitle, got[i].VariantTitle)
		assert.Equal(t, want[i].CurrencyCode, got[i].CurrencyCode)
		assert.Equal(t, want[i].Quantity, got[i].Quantity)
		assert.Equal(t, want[i].ImageURL, got[i].ImageURL)
		assert.True(t, want[i].UnitPrice.Equal(got[i].UnitPrice))
	}
	assert.True(t, reloaded.TotalPrice().Equal(s.TotalPrice()))
	assert.False(t, reloaded.IsOpen())
}

func TestLoad_CorruptDataYieldsEmptyCart(t *testing.T) {
	cases := map[string]string{
		"not json":       "{oops",
		"wrong shape":    `{"variantId":"A"}`,
		"zero quantity":  `[{"variantId":"A","unitPrice":"1","currencyCode":"USD","quantity":0}]`,
		"empty variant":  `[{"variantId":"","unitPrice":"1","currencyCode":"USD","quantity":1}]`,
		"duplicate id":   `[{"variantId":"A","unitPrice":"1","currencyCode":"USD","quantity":1},{"variantId":"A","unitPrice":"1","currencyCode":"USD","quantity":1}]`,
		"bad price text": `[{"variantId":"A","unitPrice":"abc","currencyCode":"USD","quantity":1}]`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			slot := newStubSlot()
			slot.values[itemsKey] = raw
			s := newTestStore(t, slot)
			assert.Empty(t, s.Items())
			assert.Zero(t, s.ItemCount())

			require.NoError(t, s.AddItem(context.Background(), item("B", "1", 1)))
			assert.Len(t, s.Items(), 1)
		})
	}
}

func TestLoad_SlotReadErrorYieldsEmptyCart(t *testing.T) {
	slot := newStubSlot()
	slot.getErr = errors.New("connection refused")
	s := newTestStore(t, slot)
	assert.Empty(t, s.Items())
}

func TestLoad_MissingDataYieldsEmptyCart(t *testing.T) {
	s := newTestStore(t, newStubSlot())
	assert.Empty(t, s.Items())
	assert.True(t, s.TotalPrice().IsZero())
}

func TestPersistFailureDoesNotFailMutation(t *testing.T) {
	slot := newStubSlot()
	slot.setErr = errors.New("disk full")
	s := newTestStore(t, slot)

	require.NoError(t, s.AddItem(context.Background(), item("A", "1", 1)))
	assert.Len(t, s.Items(), 1)
	assert.Equal(t, 1, slot.setCalls)
}

func TestEveryMutationPersists(t *testing.T) {
	ctx := context.Background()
	slot := newStubSlot()
	s := newTestStore(t, slot)

	require.NoError(t, s.AddItem(ctx, item("A", "1", 1)))
	assert.Contains(t, slot.values[itemsKey], `"variantId":"A"`)
	require.NoError(t, s.SetQuantity(ctx, "A", 7))
	assert.Contains(t, slot.values[itemsKey], `"quantity":7`)
	require.NoError(t, s.RemoveItem(ctx, "A"))
	assert.Equal(t, "[]", slot.values[itemsKey])
}

func TestSnapshot(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, newStubSlot())
	empty := s.Snapshot()
	assert.Empty(t, empty.Items)
	assert.Empty(t, empty.CurrencyCode)

	require.NoError(t, s.AddItem(ctx, item("A", "10", 2)))
	st := s.Snapshot()
	assert.True(t, st.IsOpen)
	assert.Equal(t, 2, st.ItemCount)
	assert.Equal(t, "USD", st.CurrencyCode)
	assert.True(t, st.TotalPrice.Equal(dec(t, "20")))

	st.Items[0].Quantity = 99
	assert.Equal(t, 2, s.Items()[0].Quantity)
}
