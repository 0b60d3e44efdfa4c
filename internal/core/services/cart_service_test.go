package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zing-commerce/cart-engine/internal/core/domain"
	"github.com/zing-commerce/cart-engine/internal/core/events"
	"github.com/zing-commerce/cart-engine/internal/core/services"
)

func ptr[T any](v T) *T {
	return &v
}

type MockGuestStore struct {
	store         map[string][]domain.CartEntry
	simulateError error
	clearCalls    int
}

func NewMockGuestStore() *MockGuestStore {
	return &MockGuestStore{store: make(map[string][]domain.CartEntry)}
}

func (m *MockGuestStore) Load(ctx context.Context, sessionID string) ([]domain.CartEntry, error) {
	if m.simulateError != nil {
		return nil, m.simulateError
	}
	entries := m.store[sessionID]
	out := make([]domain.CartEntry, len(entries))
	copy(out, entries)
	return out, nil
}

func (m *MockGuestStore) Save(ctx context.Context, sessionID string, entries []domain.CartEntry) error {
	if m.simulateError != nil {
		return m.simulateError
	}
	stored := make([]domain.CartEntry, len(entries))
	copy(stored, entries)
	m.store[sessionID] = stored
	return nil
}

func (m *MockGuestStore) Clear(ctx context.Context, sessionID string) error {
	m.clearCalls++
	if m.simulateError != nil {
		return m.simulateError
	}
	delete(m.store, sessionID)
	return nil
}

type MockRemoteCart struct {
	items         []domain.CartEntry
	addCalls      []domain.CartEntry
	updateCalls   []string
	removeCalls   []string
	failProducts  map[string]error
	simulateError error
}

func NewMockRemoteCart() *MockRemoteCart {
	return &MockRemoteCart{failProducts: make(map[string]error)}
}

func (m *MockRemoteCart) List(ctx context.Context, token string) ([]domain.CartEntry, error) {
	if m.simulateError != nil {
		return nil, m.simulateError
	}
	return m.items, nil
}

func (m *MockRemoteCart) Add(ctx context.Context, token string, entry domain.CartEntry) error {
	if m.simulateError != nil {
		return m.simulateError
	}
	if err, ok := m.failProducts[entry.ProductID]; ok {
		return err
	}
	m.addCalls = append(m.addCalls, entry)
	return nil
}

func (m *MockRemoteCart) UpdateQuantity(ctx context.Context, token, itemID string, quantity int) error {
	if m.simulateError != nil {
		return m.simulateError
	}
	m.updateCalls = append(m.updateCalls, itemID)
	return nil
}

func (m *MockRemoteCart) Remove(ctx context.Context, token, itemID string) error {
	if m.simulateError != nil {
		return m.simulateError
	}
	m.removeCalls = append(m.removeCalls, itemID)
	return nil
}

type MockCatalog struct {
	mu            sync.Mutex
	products      map[string]*domain.ProductSummary
	productErrs   map[string]error
	productDelays map[string]time.Duration
	attrs         *domain.AttributeReferenceSet
	attrsErr      error
	attrFetches   int
}

func NewMockCatalog() *MockCatalog {
	return &MockCatalog{
		products:      make(map[string]*domain.ProductSummary),
		productErrs:   make(map[string]error),
		productDelays: make(map[string]time.Duration),
		attrs:         &domain.AttributeReferenceSet{},
	}
}

func (m *MockCatalog) FetchAttributes(ctx context.Context) (*domain.AttributeReferenceSet, error) {
	m.mu.Lock()
	m.attrFetches++
	m.mu.Unlock()
	if m.attrsErr != nil {
		return nil, m.attrsErr
	}
	return m.attrs, nil
}

func (m *MockCatalog) FetchProduct(ctx context.Context, productID string) (*domain.ProductSummary, error) {
	m.mu.Lock()
	delay := m.productDelays[productID]
	err := m.productErrs[productID]
	product := m.products[productID]
	m.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, errors.New("product not found")
	}
	clone := *product
	return &clone, nil
}

type CapturePublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *CapturePublisher) Publish(event events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *CapturePublisher) Events() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Event, len(p.events))
	copy(out, p.events)
	return out
}

type cartFixture struct {
	guest   *MockGuestStore
	remote  *MockRemoteCart
	catalog *MockCatalog
	pub     *CapturePublisher
	svc     *services.CartService
}

func newCartFixture() *cartFixture {
	f := &cartFixture{
		guest:   NewMockGuestStore(),
		remote:  NewMockRemoteCart(),
		catalog: NewMockCatalog(),
		pub:     &CapturePublisher{},
	}
	f.catalog.products["p1"] = &domain.ProductSummary{ID: "p1", Name: "Tote Bag", Price: 40}
	f.catalog.products["p2"] = &domain.ProductSummary{ID: "p2", Name: "Scarf", Price: 25}
	f.catalog.products["shirt"] = &domain.ProductSummary{
		ID: "shirt", Name: "Shirt", Price: 60,
		ColorIDs: []string{"c1"}, SizeIDs: []string{"s1", "s2"},
	}
	f.svc = services.NewCartService(f.guest, f.remote, f.catalog, f.pub)
	return f
}

func TestCartServiceAdd(t *testing.T) {
	ctx := context.Background()
	guest := domain.GuestActor("sess-1")

	t.Run("Success: guest add merges by identity", func(t *testing.T) {
		f := newCartFixture()

		input := services.AddInput{ProductID: "shirt", Quantity: 1, ColorID: ptr("c1"), SizeID: ptr("s1")}
		require.NoError(t, f.svc.Add(ctx, guest, input))
		require.NoError(t, f.svc.Add(ctx, guest, input))

		entries := f.guest.store["sess-1"]
		require.Len(t, entries, 1)
		assert.Equal(t, 2, entries[0].Quantity)
	})

	t.Run("Success: guest add with different variant appends", func(t *testing.T) {
		f := newCartFixture()

		require.NoError(t, f.svc.Add(ctx, guest, services.AddInput{ProductID: "shirt", Quantity: 1, SizeID: ptr("s1")}))
		require.NoError(t, f.svc.Add(ctx, guest, services.AddInput{ProductID: "shirt", Quantity: 1, SizeID: ptr("s2")}))

		assert.Len(t, f.guest.store["sess-1"], 2)
	})

	t.Run("Success: authenticated adds are sent verbatim, never pre-merged", func(t *testing.T) {
		f := newCartFixture()
		user := domain.AuthenticatedActor("user-1", "tok")

		input := services.AddInput{ProductID: "p1", Quantity: 1}
		require.NoError(t, f.svc.Add(ctx, user, input))
		require.NoError(t, f.svc.Add(ctx, user, input))

		require.Len(t, f.remote.addCalls, 2)
		assert.Equal(t, 1, f.remote.addCalls[0].Quantity)
		assert.Equal(t, 1, f.remote.addCalls[1].Quantity)
		assert.Empty(t, f.guest.store, "authenticated add must not touch the guest store")
	})

	t.Run("Fail: quantity below 1", func(t *testing.T) {
		f := newCartFixture()

		err := f.svc.Add(ctx, guest, services.AddInput{ProductID: "p1", Quantity: 0})
		assert.ErrorIs(t, err, domain.ErrQuantityTooLow)
		assert.Empty(t, f.pub.Events())
	})

	t.Run("Fail: quick add on a variant product", func(t *testing.T) {
		f := newCartFixture()

		err := f.svc.Add(ctx, guest, services.AddInput{ProductID: "shirt", Quantity: 1})
		assert.ErrorIs(t, err, domain.ErrVariantRequired)
		assert.Empty(t, f.guest.store)
	})

	t.Run("Variant check is skipped when the product lookup fails", func(t *testing.T) {
		f := newCartFixture()
		f.catalog.productErrs["ghost"] = errors.New("upstream down")

		err := f.svc.Add(ctx, guest, services.AddInput{ProductID: "ghost", Quantity: 1})
		assert.NoError(t, err)
		assert.Len(t, f.guest.store["sess-1"], 1)
	})

	t.Run("Broadcast fires once after a committed add, not on failure", func(t *testing.T) {
		f := newCartFixture()
		user := domain.AuthenticatedActor("user-1", "tok")

		require.NoError(t, f.svc.Add(ctx, user, services.AddInput{ProductID: "p1", Quantity: 1}))
		require.Len(t, f.pub.Events(), 1)
		assert.Equal(t, user.Scope(), f.pub.Events()[0].Scope)

		f.remote.simulateError = errors.New("boom")
		err := f.svc.Add(ctx, user, services.AddInput{ProductID: "p1", Quantity: 1})
		assert.Error(t, err)
		assert.Len(t, f.pub.Events(), 1, "failed mutation must not broadcast")
	})
}

func TestCartServiceUpdateQuantity(t *testing.T) {
	ctx := context.Background()
	guest := domain.GuestActor("sess-1")

	t.Run("Success: guest quantity updated in place", func(t *testing.T) {
		f := newCartFixture()
		require.NoError(t, f.svc.Add(ctx, guest, services.AddInput{ProductID: "p1", Quantity: 1}))

		err := f.svc.UpdateQuantity(ctx, guest, domain.Identity{ProductID: "p1"}, 5)
		require.NoError(t, err)
		assert.Equal(t, 5, f.guest.store["sess-1"][0].Quantity)
	})

	t.Run("Fail: zero quantity is rejected, entry unchanged", func(t *testing.T) {
		f := newCartFixture()
		require.NoError(t, f.svc.Add(ctx, guest, services.AddInput{ProductID: "p1", Quantity: 2}))

		err := f.svc.UpdateQuantity(ctx, guest, domain.Identity{ProductID: "p1"}, 0)
		assert.ErrorIs(t, err, domain.ErrQuantityTooLow)
		assert.Equal(t, 2, f.guest.store["sess-1"][0].Quantity)
	})

	t.Run("Fail: unknown guest identity", func(t *testing.T) {
		f := newCartFixture()

		err := f.svc.UpdateQuantity(ctx, guest, domain.Identity{ProductID: "p1"}, 3)
		assert.ErrorIs(t, err, domain.ErrEntryNotFound)
	})

	t.Run("Authenticated update requires the server item id", func(t *testing.T) {
		f := newCartFixture()
		user := domain.AuthenticatedActor("user-1", "tok")

		err := f.svc.UpdateQuantity(ctx, user, domain.Identity{ProductID: "p1"}, 3)
		assert.ErrorIs(t, err, domain.ErrMissingServerItemID)

		err = f.svc.UpdateQuantity(ctx, user, domain.Identity{ServerItemID: ptr("item-9")}, 3)
		require.NoError(t, err)
		assert.Equal(t, []string{"item-9"}, f.remote.updateCalls)
	})
}

func TestCartServiceRemove(t *testing.T) {
	ctx := context.Background()
	guest := domain.GuestActor("sess-1")

	t.Run("Success: guest remove matches the identity key only", func(t *testing.T) {
		f := newCartFixture()
		require.NoError(t, f.svc.Add(ctx, guest, services.AddInput{ProductID: "shirt", Quantity: 1, SizeID: ptr("s1")}))
		require.NoError(t, f.svc.Add(ctx, guest, services.AddInput{ProductID: "shirt", Quantity: 1, SizeID: ptr("s2")}))

		err := f.svc.Remove(ctx, guest, domain.Identity{ProductID: "shirt", SizeID: ptr("s1")})
		require.NoError(t, err)

		entries := f.guest.store["sess-1"]
		require.Len(t, entries, 1)
		assert.Equal(t, "s2", *entries[0].SizeID)
	})

	t.Run("Fail: unknown guest identity", func(t *testing.T) {
		f := newCartFixture()

		err := f.svc.Remove(ctx, guest, domain.Identity{ProductID: "p1"})
		assert.ErrorIs(t, err, domain.ErrEntryNotFound)
	})

	t.Run("Authenticated remove fails fast without the server item id", func(t *testing.T) {
		f := newCartFixture()
		user := domain.AuthenticatedActor("user-1", "tok")

		err := f.svc.Remove(ctx, user, domain.Identity{ProductID: "p1"})
		assert.ErrorIs(t, err, domain.ErrMissingServerItemID)
		assert.Empty(t, f.remote.removeCalls)

		require.NoError(t, f.svc.Remove(ctx, user, domain.Identity{ServerItemID: ptr("item-3")}))
		assert.Equal(t, []string{"item-3"}, f.remote.removeCalls)
	})
}

func TestCartServiceListAndCount(t *testing.T) {
	ctx := context.Background()

	t.Run("Guest count sums quantities from the store", func(t *testing.T) {
		f := newCartFixture()
		guest := domain.GuestActor("sess-1")
		require.NoError(t, f.svc.Add(ctx, guest, services.AddInput{ProductID: "p1", Quantity: 2}))
		require.NoError(t, f.svc.Add(ctx, guest, services.AddInput{ProductID: "p2", Quantity: 3}))

		count, err := f.svc.Count(ctx, guest)
		require.NoError(t, err)
		assert.Equal(t, 5, count)
	})

	t.Run("Authenticated list returns the server cart verbatim", func(t *testing.T) {
		f := newCartFixture()
		user := domain.AuthenticatedActor("user-1", "tok")
		f.remote.items = []domain.CartEntry{
			{ProductID: "p1", Quantity: 4, ServerItemID: ptr("item-1")},
		}

		entries, err := f.svc.List(ctx, user)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "item-1", *entries[0].ServerItemID)

		count, err := f.svc.Count(ctx, user)
		require.NoError(t, err)
		assert.Equal(t, 4, count)
	})
}
