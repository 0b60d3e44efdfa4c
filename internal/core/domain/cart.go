package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrQuantityTooLow      = errors.New("quantity must be at least 1")
	ErrProductIDEmpty      = errors.New("product id cannot be empty")
	ErrVariantRequired     = errors.New("product requires a color/size selection")
	ErrMissingServerItemID = errors.New("server item id is required for this operation")
	ErrEntryNotFound       = errors.New("cart entry not found")
)

// CartEntry is one line of a cart, guest or authenticated. Guest entries are
// identified by the (product, color, size) tuple; authenticated entries carry
// the server-assigned item id instead.
type CartEntry struct {
	ProductID    string  `json:"product_id"`
	Quantity     int     `json:"quantity"`
	ColorID      *string `json:"color_id,omitempty"`
	SizeID       *string `json:"size_id,omitempty"`
	ServerItemID *string `json:"item_id,omitempty"`
}

func NewCartEntry(productID string, quantity int, colorID, sizeID *string) (*CartEntry, error) {
	if strings.TrimSpace(productID) == "" {
		return nil, ErrProductIDEmpty
	}
	if quantity < 1 {
		return nil, ErrQuantityTooLow
	}

	return &CartEntry{
		ProductID: productID,
		Quantity:  quantity,
		ColorID:   normalizeID(colorID),
		SizeID:    normalizeID(sizeID),
	}, nil
}

// normalizeID collapses empty-string ids to nil so that "no color" has a
// single representation across storage and transport.
func normalizeID(id *string) *string {
	if id == nil || strings.TrimSpace(*id) == "" {
		return nil
	}
	return id
}

func idOrEmpty(id *string) string {
	if id == nil {
		return ""
	}
	return *id
}

// IdentityKey returns the guest identity of the entry. Two entries with the
// same key belong to the same cart line and must be merged, never duplicated.
func (e CartEntry) IdentityKey() string {
	return fmt.Sprintf("%s|%s|%s", e.ProductID, idOrEmpty(e.ColorID), idOrEmpty(e.SizeID))
}

// Identity addresses one cart line for update/remove. Guest lines match on
// the product/variant tuple; authenticated lines match on ServerItemID.
type Identity struct {
	ProductID    string  `json:"product_id,omitempty"`
	ColorID      *string `json:"color_id,omitempty"`
	SizeID       *string `json:"size_id,omitempty"`
	ServerItemID *string `json:"item_id,omitempty"`
}

func (id Identity) Key() string {
	return fmt.Sprintf("%s|%s|%s", id.ProductID, idOrEmpty(normalizeID(id.ColorID)), idOrEmpty(normalizeID(id.SizeID)))
}

// MergeAdd folds a new entry into an existing guest cart: an entry with the
// same identity key has its quantity incremented, anything else is appended.
func MergeAdd(entries []CartEntry, add CartEntry) []CartEntry {
	key := add.IdentityKey()
	for i := range entries {
		if entries[i].IdentityKey() == key {
			entries[i].Quantity += add.Quantity
			return entries
		}
	}
	return append(entries, add)
}

// TotalQuantity sums the quantities of all entries. Badge counts are always
// recomputed from the list so they cannot drift.
func TotalQuantity(entries []CartEntry) int {
	total := 0
	for _, e := range entries {
		total += e.Quantity
	}
	return total
}
