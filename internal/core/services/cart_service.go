package services

import (
	"context"
	"fmt"
	"log"

	"github.com/zing-commerce/cart-engine/internal/core/domain"
	"github.com/zing-commerce/cart-engine/internal/core/events"
)

// CartService is the single source of truth for "what is in the cart right
// now". It hides the guest/authenticated storage split: guest carts live in
// the GuestCartStore, authenticated carts live behind the RemoteCartGateway.
// Every successful mutation publishes exactly one cart-changed event, after
// the write is committed, never before.
type CartService struct {
	guest     domain.GuestCartStore
	remote    domain.RemoteCartGateway
	catalog   domain.CatalogGateway
	publisher events.Publisher
}

func NewCartService(guest domain.GuestCartStore, remote domain.RemoteCartGateway, catalog domain.CatalogGateway, publisher events.Publisher) *CartService {
	return &CartService{
		guest:     guest,
		remote:    remote,
		catalog:   catalog,
		publisher: publisher,
	}
}

type AddInput struct {
	ProductID string
	Quantity  int
	ColorID   *string
	SizeID    *string
}

func (s *CartService) Add(ctx context.Context, actor domain.Actor, input AddInput) error {
	entry, err := domain.NewCartEntry(input.ProductID, input.Quantity, input.ColorID, input.SizeID)
	if err != nil {
		return err
	}

	// Quick-add with no selection: a product that offers color/size axes
	// must go through variant selection instead of guessing one. When the
	// product lookup itself fails the check is skipped and the server has
	// the final word.
	if entry.ColorID == nil && entry.SizeID == nil {
		product, err := s.catalog.FetchProduct(ctx, entry.ProductID)
		if err != nil {
			log.Printf("[CART] variant check skipped for product %s: %v", entry.ProductID, err)
		} else if product.RequiresVariant() {
			return domain.ErrVariantRequired
		}
	}

	if !actor.Authenticated() {
		entries, err := s.guest.Load(ctx, actor.SessionID)
		if err != nil {
			return fmt.Errorf("cart service: load guest cart: %w", err)
		}

		entries = domain.MergeAdd(entries, *entry)

		if err := s.guest.Save(ctx, actor.SessionID, entries); err != nil {
			return fmt.Errorf("cart service: save guest cart: %w", err)
		}

		s.publisher.Publish(events.Event{Scope: actor.Scope()})
		return nil
	}

	// The server owns merge-by-identity for authenticated carts: the add is
	// sent verbatim, with no pre-merge and no optimistic local state.
	if err := s.remote.Add(ctx, actor.Token, *entry); err != nil {
		return fmt.Errorf("cart service: remote add: %w", err)
	}

	s.publisher.Publish(events.Event{Scope: actor.Scope()})
	return nil
}

func (s *CartService) UpdateQuantity(ctx context.Context, actor domain.Actor, identity domain.Identity, quantity int) error {
	// Removal is the only path to zero; a quantity floor of 1 means a cart
	// line can never be persisted empty.
	if quantity < 1 {
		return domain.ErrQuantityTooLow
	}

	if !actor.Authenticated() {
		entries, err := s.guest.Load(ctx, actor.SessionID)
		if err != nil {
			return fmt.Errorf("cart service: load guest cart: %w", err)
		}

		key := identity.Key()
		found := false
		for i := range entries {
			if entries[i].IdentityKey() == key {
				entries[i].Quantity = quantity
				found = true
				break
			}
		}
		if !found {
			return domain.ErrEntryNotFound
		}

		if err := s.guest.Save(ctx, actor.SessionID, entries); err != nil {
			return fmt.Errorf("cart service: save guest cart: %w", err)
		}

		s.publisher.Publish(events.Event{Scope: actor.Scope()})
		return nil
	}

	if identity.ServerItemID == nil {
		return domain.ErrMissingServerItemID
	}

	if err := s.remote.UpdateQuantity(ctx, actor.Token, *identity.ServerItemID, quantity); err != nil {
		return fmt.Errorf("cart service: remote update: %w", err)
	}

	s.publisher.Publish(events.Event{Scope: actor.Scope()})
	return nil
}

func (s *CartService) Remove(ctx context.Context, actor domain.Actor, identity domain.Identity) error {
	if !actor.Authenticated() {
		entries, err := s.guest.Load(ctx, actor.SessionID)
		if err != nil {
			return fmt.Errorf("cart service: load guest cart: %w", err)
		}

		// Guest removal matches on the identity key only; positional
		// indexes are fragile once the view and the store diverge.
		key := identity.Key()
		kept := entries[:0]
		removed := false
		for _, e := range entries {
			if !removed && e.IdentityKey() == key {
				removed = true
				continue
			}
			kept = append(kept, e)
		}
		if !removed {
			return domain.ErrEntryNotFound
		}

		if err := s.guest.Save(ctx, actor.SessionID, kept); err != nil {
			return fmt.Errorf("cart service: save guest cart: %w", err)
		}

		s.publisher.Publish(events.Event{Scope: actor.Scope()})
		return nil
	}

	if identity.ServerItemID == nil {
		return domain.ErrMissingServerItemID
	}

	if err := s.remote.Remove(ctx, actor.Token, *identity.ServerItemID); err != nil {
		return fmt.Errorf("cart service: remote remove: %w", err)
	}

	s.publisher.Publish(events.Event{Scope: actor.Scope()})
	return nil
}

func (s *CartService) List(ctx context.Context, actor domain.Actor) ([]domain.CartEntry, error) {
	if !actor.Authenticated() {
		return s.guest.Load(ctx, actor.SessionID)
	}
	return s.remote.List(ctx, actor.Token)
}

// Count is the badge number: the sum of quantities, recomputed from List on
// every call so it cannot drift from the stored cart.
func (s *CartService) Count(ctx context.Context, actor domain.Actor) (int, error) {
	entries, err := s.List(ctx, actor)
	if err != nil {
		return 0, err
	}
	return domain.TotalQuantity(entries), nil
}
