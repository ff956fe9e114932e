package storage

import (
	"fmt"
	"strings"
)

// QueryResult is the rendered result of a read-only query.
type QueryResult struct {
	SQL       string
	Columns   []string
	Rows      [][]string
	Truncated bool
}

// String renders the result as a pipe-separated table.
func (r *QueryResult) String() string {
	if r == nil {
		return ""
	}
	if len(r.Rows) == 0 {
		return "(no rows)"
	}

	var b strings.Builder
	b.WriteString(strings.Join(r.Columns, " | "))
	b.WriteByte('\n')
	for _, row := range r.Rows {
		b.WriteString(strings.Join(row, " | "))
		b.WriteByte('\n')
	}
	if r.Truncated {
		fmt.Fprintf(&b, "(truncated after %d rows)\n", len(r.Rows))
	}
	return strings.TrimRight(b.String(), "\n")
}

var forbiddenKeywords = []string{
	"insert", "update", "delete", "drop", "alter", "create", "replace",
	"truncate", "attach", "detach", "pragma", "vacuum", "grant", "revoke",
	"copy", "merge", "reindex",
}

// CheckReadOnly normalizes sql and verifies it is a single SELECT or WITH
// statement with no write keywords outside quoted literals. It returns the
// statement without a trailing semicolon or markdown fences. Stores still
// execute the result on a read-only handle.
func CheckReadOnly(sql string) (string, error) {
	stmt := strings.TrimSpace(sql)
	stmt = strings.TrimPrefix(stmt, "```sql")
	stmt = strings.TrimPrefix(stmt, "```")
	stmt = strings.TrimSuffix(stmt, "```")
	stmt = strings.TrimSpace(stmt)
	stmt = strings.TrimRight(stmt, "; \n\t")

	if stmt == "" {
		return "", fmt.Errorf("%w: empty statement", ErrReadOnlyQuery)
	}
	code, ok := blankLiterals(stmt)
	if !ok {
		return "", fmt.Errorf("%w: unterminated quote", ErrReadOnlyQuery)
	}
	if strings.Contains(code, ";") {
		return "", fmt.Errorf("%w: multiple statements", ErrReadOnlyQuery)
	}

	words := strings.FieldsFunc(strings.ToLower(code), func(r rune) bool {
		return !(r == '_' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'))
	})
	if len(words) == 0 || (words[0] != "select" && words[0] != "with") {
		return "", fmt.Errorf("%w: must start with SELECT or WITH", ErrReadOnlyQuery)
	}
	for _, w := range words {
		for _, kw := range forbiddenKeywords {
			if w == kw {
				return "", fmt.Errorf("%w: %s is not allowed", ErrReadOnlyQuery, strings.ToUpper(kw))
			}
		}
	}
	return stmt, nil
}

// blankLiterals replaces the contents of quoted strings and identifiers with
// spaces. Doubled quotes are escapes. ok is false for an unterminated quote.
func blankLiterals(stmt string) (string, bool) {
	b := []byte(stmt)
	var quote byte
	for i := 0; i < len(b); i++ {
		c := b[i]
		switch {
		case quote == 0 && (c == '\'' || c == '"'):
			quote = c
		case quote != 0 && c == quote:
			if i+1 < len(b) && b[i+1] == quote {
				b[i], b[i+1] = ' ', ' '
				i++
				continue
			}
			quote = 0
		case quote != 0:
			b[i] = ' '
		}
	}
	return string(b), quote == 0
}
