package services

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/zing-commerce/cart-engine/internal/core/domain"
	"github.com/zing-commerce/cart-engine/internal/core/events"
)

// MergeService transfers a guest cart into the authenticated cart once, at
// the moment a login succeeds. The merge is best-effort, not atomic: each
// entry is replayed as a single-shot add-to-cart call, a failed entry never
// aborts the rest, and the guest cart is cleared unconditionally once every
// transfer has been attempted so a later login cannot replay entries twice.
// Lost lines survive only in the MergeReport.
type MergeService struct {
	guest     domain.GuestCartStore
	remote    domain.RemoteCartGateway
	reports   domain.MergeReportRepository
	publisher events.Publisher

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewMergeService builds the coordinator. reports may be nil, in which case
// outcomes are only returned to the caller, not persisted.
func NewMergeService(guest domain.GuestCartStore, remote domain.RemoteCartGateway, reports domain.MergeReportRepository, publisher events.Publisher) *MergeService {
	return &MergeService{
		guest:     guest,
		remote:    remote,
		reports:   reports,
		publisher: publisher,
		inFlight:  make(map[string]struct{}),
	}
}

// MergeGuestCart runs the coordinator for one login event. The actor must be
// authenticated; sessionID names the guest cart being absorbed. A session
// with no guest entries is a no-op, as is a second trigger for a session
// whose merge is still in flight.
func (s *MergeService) MergeGuestCart(ctx context.Context, sessionID string, actor domain.Actor) (*domain.MergeReport, error) {
	if !actor.Authenticated() {
		return nil, domain.ErrNotAuthenticated
	}
	if sessionID == "" {
		report := domain.NewMergeReport(sessionID, actor.UserID)
		report.Finish()
		return report, nil
	}

	s.mu.Lock()
	if _, busy := s.inFlight[sessionID]; busy {
		s.mu.Unlock()
		log.Printf("[MERGE] session %s already merging, skipping duplicate trigger", sessionID)
		report := domain.NewMergeReport(sessionID, actor.UserID)
		report.Finish()
		return report, nil
	}
	s.inFlight[sessionID] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.inFlight, sessionID)
		s.mu.Unlock()
	}()

	report := domain.NewMergeReport(sessionID, actor.UserID)

	entries, err := s.guest.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("merge service: load guest cart: %w", err)
	}

	if len(entries) == 0 {
		report.Finish()
		return report, nil
	}

	for _, entry := range entries {
		// Replay only the identity tuple and quantity; server item ids
		// never exist on guest entries.
		add := domain.CartEntry{
			ProductID: entry.ProductID,
			Quantity:  entry.Quantity,
			ColorID:   entry.ColorID,
			SizeID:    entry.SizeID,
		}
		if err := s.remote.Add(ctx, actor.Token, add); err != nil {
			log.Printf("[MERGE] transfer of product %s failed: %v", entry.ProductID, err)
			report.RecordFailure(entry, err.Error())
			continue
		}
		report.RecordSuccess()
	}

	// Cleared even after partial failure: re-sending already-processed
	// entries on the next login would duplicate them.
	if err := s.guest.Clear(ctx, sessionID); err != nil {
		log.Printf("[MERGE] failed to clear guest cart %s: %v", sessionID, err)
	}

	report.Finish()

	if s.reports != nil {
		if err := s.reports.Create(ctx, report); err != nil {
			log.Printf("[MERGE] failed to persist report %s: %v", report.ID, err)
		}
	}

	s.publisher.Publish(events.Event{Scope: actor.Scope()})

	return report, nil
}
