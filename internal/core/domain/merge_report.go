package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// MergeFailure records one guest entry that could not be replayed into the
// authenticated cart (out of stock, deleted product, upstream error).
type MergeFailure struct {
	ProductID string  `json:"product_id"`
	Quantity  int     `json:"quantity"`
	ColorID   *string `json:"color_id,omitempty"`
	SizeID    *string `json:"size_id,omitempty"`
	Reason    string  `json:"reason"`
}

// MergeReport is the outcome of one guest-to-authenticated cart merge. The
// merge itself is best-effort and clears the guest cart regardless, so the
// report is the only trace of lines that were lost; it is returned to the
// caller ("2 of 3 items could not be added") and persisted best-effort.
type MergeReport struct {
	ID         string         `json:"id" db:"id"`
	SessionID  string         `json:"session_id" db:"session_id"`
	UserID     string         `json:"user_id" db:"user_id"`
	Attempted  int            `json:"attempted" db:"attempted"`
	Succeeded  int            `json:"succeeded" db:"succeeded"`
	Failures   []MergeFailure `json:"failures,omitempty" db:"-"`
	StartedAt  time.Time      `json:"started_at" db:"started_at"`
	FinishedAt time.Time      `json:"finished_at" db:"finished_at"`
}

func NewMergeReport(sessionID, userID string) *MergeReport {
	return &MergeReport{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		UserID:    userID,
		StartedAt: time.Now().UTC(),
	}
}

func (r *MergeReport) RecordSuccess() {
	r.Attempted++
	r.Succeeded++
}

func (r *MergeReport) RecordFailure(entry CartEntry, reason string) {
	r.Attempted++
	r.Failures = append(r.Failures, MergeFailure{
		ProductID: entry.ProductID,
		Quantity:  entry.Quantity,
		ColorID:   entry.ColorID,
		SizeID:    entry.SizeID,
		Reason:    reason,
	})
}

func (r *MergeReport) Finish() {
	r.FinishedAt = time.Now().UTC()
}

// AllTransferred reports whether every attempted line reached the server cart.
func (r *MergeReport) AllTransferred() bool {
	return len(r.Failures) == 0
}

type MergeReportRepository interface {
	// Create persists a finished merge report.
	Create(ctx context.Context, report *MergeReport) error

	// ListByUserID returns the reports for a user, most recent first.
	ListByUserID(ctx context.Context, userID string) ([]*MergeReport, error)
}
