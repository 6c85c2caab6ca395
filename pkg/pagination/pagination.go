package pagination

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 50
	// MaxLimit caps how many rows a single page can return.
	MaxLimit = 500
)

// Params holds cursor pagination inputs from controllers.
type Params struct {
	Limit  int
	Cursor string
}

// Cursor points after an audit sequence number on one ticket.
type Cursor struct {
	TicketID uuid.UUID
	Seq      int
}

// Page is one slice of an ordered listing.
type Page[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"nextCursor,omitempty"`
}

// NormalizeLimit enforces the configured default and maximum limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// EncodeCursor builds a base64 cursor string from the provided values.
func EncodeCursor(cursor Cursor) string {
	payload := fmt.Sprintf("%s|%d", cursor.TicketID.String(), cursor.Seq)
	return base64.RawURLEncoding.EncodeToString([]byte(payload))
}

// ParseCursor decodes the cursor string back into its components. An empty
// value yields a nil cursor.
func ParseCursor(value string) (*Cursor, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}

	decoded, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}
	parts := strings.SplitN(string(decoded), "|", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid cursor format")
	}

	id, err := uuid.Parse(parts[0])
	if err != nil {
		return nil, fmt.Errorf("invalid cursor id: %w", err)
	}
	seq, err := strconv.Atoi(parts[1])
	if err != nil || seq < 0 {
		return nil, fmt.Errorf("invalid cursor seq")
	}
	return &Cursor{
		TicketID: id,
		Seq:      seq,
	}, nil
}

// SliceAfter pages items ordered by ascending seq, starting after cursor.
func SliceAfter[T any](ticketID uuid.UUID, items []T, seq func(T) int, cursor *Cursor, limit int) Page[T] {
	after := 0
	if cursor != nil {
		after = cursor.Seq
	}
	limit = NormalizeLimit(limit)

	page := Page[T]{Items: make([]T, 0, limit)}
	for _, item := range items {
		if seq(item) <= after {
			continue
		}
		if len(page.Items) == limit {
			last := page.Items[len(page.Items)-1]
			page.NextCursor = EncodeCursor(Cursor{TicketID: ticketID, Seq: seq(last)})
			break
		}
		page.Items = append(page.Items, item)
	}
	return page
}
