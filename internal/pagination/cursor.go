// Package pagination implements composite (created_at, id) keyset pagination.
// It computes boundaries only; it never runs queries of its own.
package pagination

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"nyx/internal/models"
)

// Keyed is implemented by every record that can be paginated.
type Keyed interface {
	CursorKey() (time.Time, string)
}

// Cursor is the decoded form of a pagination token.
type Cursor struct {
	CreatedAt time.Time
	ID        string
}

type wireCursor struct {
	CreatedAt *string `json:"created_at"`
	ID        *string `json:"id"`
}

// CursorOf builds the cursor that points at record.
func CursorOf(record Keyed) Cursor {
	createdAt, id := record.CursorKey()
	return Cursor{CreatedAt: createdAt, ID: id}
}

// Encode returns the opaque token for record.
func Encode(record Keyed) string {
	return EncodeCursor(CursorOf(record))
}

// EncodeCursor serializes c as base64url (unpadded) JSON.
func EncodeCursor(c Cursor) string {
	createdAt := c.CreatedAt.UTC().Format(time.RFC3339Nano)
	id := c.ID
	// marshalling two strings cannot fail
	payload, _ := json.Marshal(wireCursor{CreatedAt: &createdAt, ID: &id})
	return base64.RawURLEncoding.EncodeToString(payload)
}

// Decode parses a token produced by Encode. An empty token means "first page"
// and yields a nil cursor. Every other failure wraps models.ErrMalformedCursor.
func Decode(token string) (*Cursor, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, malformed("not base64url")
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()

	var wc wireCursor
	if err := dec.Decode(&wc); err != nil {
		return nil, malformed("not a cursor object")
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, malformed("trailing data")
	}
	if wc.CreatedAt == nil || wc.ID == nil || *wc.ID == "" {
		return nil, malformed("missing created_at or id")
	}

	createdAt, err := time.Parse(time.RFC3339Nano, *wc.CreatedAt)
	if err != nil {
		return nil, malformed("created_at is not RFC3339")
	}

	return &Cursor{CreatedAt: createdAt.UTC(), ID: *wc.ID}, nil
}

func malformed(reason string) error {
	return fmt.Errorf("%w: %s", models.ErrMalformedCursor, reason)
}

// After reports whether record sorts strictly after c under
// (created_at DESC, id DESC), i.e. whether it belongs to the page following c.
func After(record Keyed, c Cursor) bool {
	createdAt, id := record.CursorKey()
	if createdAt.Equal(c.CreatedAt) {
		return id < c.ID
	}
	return createdAt.Before(c.CreatedAt)
}
