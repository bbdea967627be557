package pagination

import (
	"fmt"
	"math/rand"
	"sort"
	"testing"
	"time"

	"nyx/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestPaginateBoundaries(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := make([]row, 4)
	for i := range rows {
		rows[i] = row{at: base.Add(-time.Duration(i) * time.Minute), id: fmt.Sprintf("r%d", i)}
	}

	t.Run("more rows than limit", func(t *testing.T) {
		p := Paginate(rows, 3)
		assert.Len(t, p.Items, 3)
		assert.True(t, p.HasMore)
		assert.Equal(t, Encode(rows[2]), p.NextCursor)
	})

	t.Run("exactly limit rows", func(t *testing.T) {
		p := Paginate(rows[:3], 3)
		assert.Len(t, p.Items, 3)
		assert.False(t, p.HasMore)
		assert.Empty(t, p.NextCursor)
	})

	t.Run("no rows", func(t *testing.T) {
		p := Paginate[row](nil, 3)
		assert.NotNil(t, p.Items)
		assert.Empty(t, p.Items)
		assert.False(t, p.HasMore)
	})

	t.Run("non-positive limit acts as one", func(t *testing.T) {
		p := Paginate(rows, 0)
		assert.Len(t, p.Items, 1)
		assert.True(t, p.HasMore)
	})
}

func TestNormalizeLimit(t *testing.T) {
	assert.Equal(t, 20, NormalizeLimit(0, 20, 50))
	assert.Equal(t, 20, NormalizeLimit(-3, 20, 50))
	assert.Equal(t, 1, NormalizeLimit(1, 20, 50))
	assert.Equal(t, 50, NormalizeLimit(500, 20, 50))
	assert.Equal(t, 5, NormalizeLimit(0, 0, 5))
	assert.Equal(t, 100, NormalizeLimit(0, 0, 100))
	assert.Equal(t, 1, NormalizeLimit(0, 0, 0))
}

// fetch simulates a storage collaborator answering a keyset query.
func fetch(sorted []row, cursor *Cursor, limit int) []row {
	out := []row{}
	for _, r := range sorted {
		if cursor != nil && !After(r, *cursor) {
			continue
		}
		out = append(out, r)
		if len(out) == FetchSize(limit) {
			break
		}
	}
	return out
}

func TestPaginationVisitsEveryRowOnceUnderTies(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	for trial := 0; trial < 25; trial++ {
		n := 1 + rng.Intn(60)
		rows := make([]row, n)
		for i := range rows {
			// few distinct timestamps to force many ties
			rows[i] = row{
				at: base.Add(time.Duration(rng.Intn(5)) * time.Second),
				id: fmt.Sprintf("id-%03d-%d", i, rng.Intn(1000)),
			}
		}
		sort.Slice(rows, func(i, j int) bool {
			if rows[i].at.Equal(rows[j].at) {
				return rows[i].id > rows[j].id
			}
			return rows[i].at.After(rows[j].at)
		})

		limit := 1 + rng.Intn(7)
		var seen []row
		var cursor *Cursor
		for pages := 0; ; pages++ {
			require.Less(t, pages, n+2, "pagination did not terminate")
			p := Paginate(fetch(rows, cursor, limit), limit)
			seen = append(seen, p.Items...)
			if !p.HasMore {
				break
			}
			c, err := Decode(p.NextCursor)
			require.NoError(t, err)
			cursor = c
		}

		require.Equal(t, rows, seen, "trial %d limit %d", trial, limit)
	}
}

func TestScopeBuildsCompositePredicate(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	at := time.Date(2025, 2, 2, 2, 2, 2, 0, time.UTC)
	stmt := db.Session(&gorm.Session{DryRun: true}).
		Scopes(Scope("items", &Cursor{CreatedAt: at, ID: "x"}, 10)).
		Find(&[]models.Item{}).Statement

	sql := stmt.SQL.String()
	assert.Contains(t, sql, "(items.created_at < ? OR (items.created_at = ? AND items.id < ?))")
	assert.Contains(t, sql, "items.created_at DESC")
	assert.Contains(t, sql, "items.id DESC")
	assert.Contains(t, sql, "LIMIT 11")
	require.Len(t, stmt.Vars, 3)
	assert.Equal(t, at, stmt.Vars[0])
	assert.Equal(t, at, stmt.Vars[1])
	assert.Equal(t, "x", stmt.Vars[2])
}

func TestScopeWithoutCursorOnlyOrders(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	stmt := db.Session(&gorm.Session{DryRun: true}).
		Scopes(Scope("", nil, 5)).
		Find(&[]models.Item{}).Statement

	sql := stmt.SQL.String()
	assert.NotContains(t, sql, "WHERE")
	assert.Contains(t, sql, "created_at DESC")
	assert.Contains(t, sql, "LIMIT 6")
	assert.Empty(t, stmt.Vars)
}

func TestMapKeepsBoundaries(t *testing.T) {
	p := Page[row]{Items: []row{{id: "a"}, {id: "b"}}, HasMore: true, NextCursor: "tok"}
	ids := Map(p, func(r row) string { return r.id })
	assert.Equal(t, []string{"a", "b"}, ids.Items)
	assert.True(t, ids.HasMore)
	assert.Equal(t, "tok", ids.NextCursor)
}
