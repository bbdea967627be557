package pagination

import (
	"encoding/base64"
	"testing"
	"time"

	"nyx/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	at time.Time
	id string
}

func (r row) CursorKey() (time.Time, string) { return r.at, r.id }

func TestEncodeDecodeRoundTrip(t *testing.T) {
	at := time.Date(2025, 3, 14, 15, 9, 26, 535897000, time.FixedZone("JST", 9*3600))
	token := Encode(row{at: at, id: "item-42"})

	c, err := Decode(token)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.True(t, c.CreatedAt.Equal(at))
	assert.Equal(t, time.UTC, c.CreatedAt.Location())
	assert.Equal(t, "item-42", c.ID)
}

func TestEncodeCursorWireFormat(t *testing.T) {
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	token := EncodeCursor(Cursor{CreatedAt: at, ID: "abc"})

	raw, err := base64.RawURLEncoding.DecodeString(token)
	require.NoError(t, err)
	assert.JSONEq(t, `{"created_at":"2025-01-02T03:04:05Z","id":"abc"}`, string(raw))
	assert.NotContains(t, token, "=")
}

func TestDecodeEmptyTokenIsFirstPage(t *testing.T) {
	c, err := Decode("")
	assert.NoError(t, err)
	assert.Nil(t, c)

	c, err = Decode("   ")
	assert.NoError(t, err)
	assert.Nil(t, c)
}

func TestDecodeMalformed(t *testing.T) {
	enc := func(s string) string { return base64.RawURLEncoding.EncodeToString([]byte(s)) }

	tests := []struct {
		name  string
		token string
	}{
		{"not base64", "%%%not-base64%%%"},
		{"not json", enc("hello")},
		{"json array", enc(`["2025-01-02T03:04:05Z","abc"]`)},
		{"json null", enc(`null`)},
		{"missing id", enc(`{"created_at":"2025-01-02T03:04:05Z"}`)},
		{"empty id", enc(`{"created_at":"2025-01-02T03:04:05Z","id":""}`)},
		{"missing created_at", enc(`{"id":"abc"}`)},
		{"bad timestamp", enc(`{"created_at":"yesterday","id":"abc"}`)},
		{"unix timestamp", enc(`{"created_at":1735787045,"id":"abc"}`)},
		{"unknown field", enc(`{"created_at":"2025-01-02T03:04:05Z","id":"abc","extra":1}`)},
		{"trailing data", enc(`{"created_at":"2025-01-02T03:04:05Z","id":"abc"}{}`)},
		{"numeric id", enc(`{"created_at":"2025-01-02T03:04:05Z","id":7}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Decode(tt.token)
			assert.Nil(t, c)
			assert.ErrorIs(t, err, models.ErrMalformedCursor)
		})
	}
}

func TestAfterUsesIDTieBreak(t *testing.T) {
	at := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	c := Cursor{CreatedAt: at, ID: "m"}

	assert.True(t, After(row{at: at.Add(-time.Second), id: "z"}, c))
	assert.False(t, After(row{at: at.Add(time.Second), id: "a"}, c))
	assert.True(t, After(row{at: at, id: "a"}, c))
	assert.False(t, After(row{at: at, id: "m"}, c))
	assert.False(t, After(row{at: at, id: "z"}, c))
}
