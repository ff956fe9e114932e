package storage

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckReadOnly(t *testing.T) {
	accepted := map[string]string{
		"SELECT * FROM Articles":                        "SELECT * FROM Articles",
		"  select title from Articles;  ":               "select title from Articles",
		"```sql\nSELECT id FROM Articles\n```":          "SELECT id FROM Articles",
		"WITH t AS (SELECT 1) SELECT * FROM t":          "WITH t AS (SELECT 1) SELECT * FROM t",
		"SELECT title FROM Articles WHERE tone = 'pos'": "SELECT title FROM Articles WHERE tone = 'pos'",

		"SELECT title FROM Articles WHERE keywords LIKE '%update%'":   "SELECT title FROM Articles WHERE keywords LIKE '%update%'",
		"SELECT title FROM Articles WHERE topics LIKE '%merger%'":     "SELECT title FROM Articles WHERE topics LIKE '%merger%'",
		"SELECT title FROM Articles WHERE title = 'a; b'":             "SELECT title FROM Articles WHERE title = 'a; b'",
		"SELECT title FROM Articles WHERE title = 'Don''t delete me'": "SELECT title FROM Articles WHERE title = 'Don''t delete me'",
		`SELECT "copy" FROM Articles`:                                 `SELECT "copy" FROM Articles`,
	}
	for in, want := range accepted {
		got, err := CheckReadOnly(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	rejected := []string{
		"",
		";",
		"DELETE FROM Articles",
		"SELECT 1; DROP TABLE Articles",
		"UPDATE Articles SET title = 'x'",
		"WITH x AS (DELETE FROM Articles RETURNING *) SELECT * FROM x",
		"PRAGMA table_info(Articles)",
		"EXPLAIN SELECT 1",
		"SELECT 'x'; DELETE FROM Articles",
		"SELECT 'it''s'; DROP TABLE Articles",
		"SELECT 'unterminated FROM Articles",
	}
	for _, in := range rejected {
		_, err := CheckReadOnly(in)
		assert.True(t, errors.Is(err, ErrReadOnlyQuery), "expected rejection of %q", in)
	}
}

func TestQueryResult_String(t *testing.T) {
	var nilResult *QueryResult
	assert.Equal(t, "", nilResult.String())

	assert.Equal(t, "(no rows)", (&QueryResult{Columns: []string{"title"}}).String())

	r := &QueryResult{
		Columns:   []string{"title", "tone"},
		Rows:      [][]string{{"Merger", "positive"}, {"Storm", "negative"}},
		Truncated: true,
	}
	assert.Equal(t, "title | tone\nMerger | positive\nStorm | negative\n(truncated after 2 rows)", r.String())
}
