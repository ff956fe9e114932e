// Package sqlstore implements storage.ArticleStore over SQLite or Postgres.
package sqlstore

import (
	"bytes"
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	"github.com/poiesic/newsdesk/core"
	"github.com/poiesic/newsdesk/storage"
	_ "modernc.org/sqlite"
)

const (
	// DialectSQLite selects the embedded modernc.org/sqlite driver.
	DialectSQLite = "sqlite"
	// DialectPostgres selects lib/pq.
	DialectPostgres = "postgres"

	defaultMaxRows      = 50
	defaultQueryTimeout = 10 * time.Second

	table = "Articles"
)

// ErrUnknownDialect is returned for a dialect other than sqlite or postgres.
var ErrUnknownDialect = errors.New("unknown sql dialect")

var articleColumns = []string{
	"id", "title", "tone", "sentiment_score", "keywords", "topics",
	"people", "organizations", "locations", "created_at",
}

// Config selects the database and tunes the store.
type Config struct {
	// Dialect is "sqlite" or "postgres".
	Dialect string
	// DSN is a file path for sqlite or a connection URL for postgres.
	DSN string
	// MaxRows caps rows returned by Query. Default 50.
	MaxRows int
	// QueryTimeout bounds Query. Default 10s.
	QueryTimeout time.Duration
	// MaxOpenConns is applied to postgres pools. sqlite always uses one.
	MaxOpenConns int
	// SkipMigrations leaves the schema untouched on Open.
	SkipMigrations bool
}

// Store is a database/sql backed ArticleStore.
type Store struct {
	db           *sql.DB
	dialect      string
	builder      sq.StatementBuilderType
	maxRows      int
	queryTimeout time.Duration
	logger       *slog.Logger
}

var _ storage.ArticleStore = (*Store)(nil)

// Option configures a Store.
type Option func(*Store) error

// WithMaxRows caps rows returned by Query.
func WithMaxRows(n int) Option {
	return func(s *Store) error {
		if n <= 0 {
			return fmt.Errorf("%w: max rows must be positive", storage.ErrInvalidQuery)
		}
		s.maxRows = n
		return nil
	}
}

// WithQueryTimeout bounds Query.
func WithQueryTimeout(d time.Duration) Option {
	return func(s *Store) error {
		s.queryTimeout = d
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		s.logger = logger
		return nil
	}
}

// Open connects to the configured database, applies migrations and returns the store.
//
// Returns storage.ArticleStore interface to enforce abstraction.
func Open(ctx context.Context, cfg Config, opts ...Option) (storage.ArticleStore, error) {
	db, err := OpenDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if !cfg.SkipMigrations {
		if err := Migrate(db, cfg.Dialect, "up", 0); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	if cfg.MaxRows > 0 {
		opts = append([]Option{WithMaxRows(cfg.MaxRows)}, opts...)
	}
	if cfg.QueryTimeout > 0 {
		opts = append([]Option{WithQueryTimeout(cfg.QueryTimeout)}, opts...)
	}

	store, err := New(db, cfg.Dialect, opts...)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// OpenDB opens and pings the database described by cfg.
func OpenDB(ctx context.Context, cfg Config) (*sql.DB, error) {
	switch cfg.Dialect {
	case DialectSQLite, DialectPostgres:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDialect, cfg.Dialect)
	}
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, errors.New("dsn cannot be empty")
	}

	db, err := sql.Open(cfg.Dialect, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.Dialect == DialectSQLite {
		// a single connection serializes writers and avoids SQLITE_BUSY
		db.SetMaxOpenConns(1)
	} else if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// New wraps an open database. The schema must already exist.
func New(db *sql.DB, dialect string, opts ...Option) (*Store, error) {
	if db == nil {
		return nil, errors.New("db cannot be nil")
	}

	s := &Store{
		db:           db,
		dialect:      dialect,
		maxRows:      defaultMaxRows,
		queryTimeout: defaultQueryTimeout,
		logger:       slog.Default(),
	}
	switch dialect {
	case DialectSQLite:
		s.builder = sq.StatementBuilder.PlaceholderFormat(sq.Question)
	case DialectPostgres:
		s.builder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDialect, dialect)
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "article-store", "dialect", dialect)
	return s, nil
}

// DB exposes the underlying handle for migrations and health checks.
func (s *Store) DB() *sql.DB {
	return s.db
}

// AddArticle inserts article and returns a copy with the assigned id.
func (s *Store) AddArticle(ctx context.Context, article *core.Article) (*core.Article, error) {
	if err := core.ValidateArticle(article); err != nil {
		return nil, err
	}

	lists := make([]string, 0, 5)
	for _, l := range [][]string{article.Keywords, article.Topics, article.People, article.Organizations, article.Locations} {
		encoded, err := encodeList(l)
		if err != nil {
			return nil, err
		}
		lists = append(lists, encoded)
	}

	query, args, err := s.builder.
		Insert(table).
		Columns(articleColumns[1:]...).
		Values(article.Title, article.Tone, article.SentimentScore,
			lists[0], lists[1], lists[2], lists[3], lists[4],
			formatTime(article.CreatedAt)).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert: %w", err)
	}

	var id int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return nil, fmt.Errorf("insert article: %w", err)
	}

	saved := *article
	saved.Id = core.ID(id)
	saved.CreatedAt = article.CreatedAt.UTC()
	s.logger.Debug("article inserted", "id", id, "title", article.Title)
	return &saved, nil
}

// GetArticle retrieves one article by id.
func (s *Store) GetArticle(ctx context.Context, id core.ID) (*core.Article, error) {
	query, args, err := s.builder.
		Select(articleColumns...).
		From(table).
		Where(sq.Eq{"id": int64(id)}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	article, err := scanArticle(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	return article, err
}

// ListArticles returns up to limit articles, newest first.
func (s *Store) ListArticles(ctx context.Context, limit int) ([]*core.Article, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", storage.ErrInvalidQuery)
	}

	query, args, err := s.builder.
		Select(articleColumns...).
		From(table).
		OrderBy("id DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	defer rows.Close()

	var articles []*core.Article
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, article)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return articles, nil
}

// CountArticles returns the number of stored articles.
func (s *Store) CountArticles(ctx context.Context) (int, error) {
	query, args, err := s.builder.Select("COUNT(*)").From(table).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count: %w", err)
	}

	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count articles: %w", err)
	}
	return n, nil
}

// Query runs one read-only statement, returning at most MaxRows rows.
func (s *Store) Query(ctx context.Context, statement string) (*storage.QueryResult, error) {
	stmt, err := storage.CheckReadOnly(statement)
	if err != nil {
		return nil, err
	}

	if s.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.queryTimeout)
		defer cancel()
	}

	q, release, err := s.readOnly(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	rows, err := q.QueryContext(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrInvalidQuery, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	result := &storage.QueryResult{SQL: stmt, Columns: columns}
	for rows.Next() {
		if len(result.Rows) == s.maxRows {
			result.Truncated = true
			break
		}

		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		row := make([]string, len(values))
		for i, v := range values {
			row[i] = renderValue(v)
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	s.logger.Debug("read-only query", "sql", stmt, "rows", len(result.Rows), "truncated", result.Truncated)
	return result, nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// readOnly returns a handle the database itself keeps from writing.
// postgres gets a READ ONLY transaction. sqlite ignores that flag, so a
// dedicated connection is switched to query_only for the duration.
func (s *Store) readOnly(ctx context.Context) (querier, func(), error) {
	if s.dialect == DialectPostgres {
		tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
		if err != nil {
			return nil, nil, fmt.Errorf("begin read-only transaction: %w", err)
		}
		return tx, func() { _ = tx.Rollback() }, nil
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("acquire connection: %w", err)
	}
	if _, err := conn.ExecContext(ctx, "PRAGMA query_only = ON"); err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("enable query_only: %w", err)
	}
	return conn, func() {
		if _, err := conn.ExecContext(context.Background(), "PRAGMA query_only = OFF"); err != nil {
			s.logger.Error("failed to reset query_only, discarding connection", "err", err)
			// a connection left in query_only must not return to the pool
			_ = conn.Raw(func(any) error { return driver.ErrBadConn })
		}
		conn.Close()
	}, nil
}

// Schema describes the Articles table for SQL generation prompts.
func (s *Store) Schema() string {
	return `Table Articles (
  id INTEGER PRIMARY KEY,
  title TEXT,
  tone TEXT,            -- one word, e.g. positive, neutral, negative
  sentiment_score REAL, -- -1.0 (negative) to 1.0 (positive)
  keywords TEXT,        -- JSON array of strings
  topics TEXT,          -- JSON array of strings
  people TEXT,          -- JSON array of strings
  organizations TEXT,   -- JSON array of strings
  locations TEXT,       -- JSON array of strings
  created_at TEXT       -- ISO-8601 UTC timestamp
)`
}

// Dialect returns "sqlite" or "postgres".
func (s *Store) Dialect() string {
	return s.dialect
}

// Close closes the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row rowScanner) (*core.Article, error) {
	var (
		article   core.Article
		id        int64
		lists     [5]string
		createdAt string
	)
	err := row.Scan(&id, &article.Title, &article.Tone, &article.SentimentScore,
		&lists[0], &lists[1], &lists[2], &lists[3], &lists[4], &createdAt)
	if err != nil {
		return nil, err
	}
	article.Id = core.ID(id)

	targets := []*[]string{&article.Keywords, &article.Topics, &article.People, &article.Organizations, &article.Locations}
	for i, dst := range targets {
		if *dst, err = decodeList(lists[i]); err != nil {
			return nil, fmt.Errorf("%w: article %d: %w", storage.ErrSerializationFailed, id, err)
		}
	}

	if article.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("%w: article %d created_at: %w", storage.ErrSerializationFailed, id, err)
	}
	return &article, nil
}

func encodeList(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	// entity names are matched with LIKE, so keep & < > literal
	enc.SetEscapeHTML(false)
	if err := enc.Encode(values); err != nil {
		return "", fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

func decodeList(s string) ([]string, error) {
	values := []string{}
	if strings.TrimSpace(s) == "" {
		return values, nil
	}
	if err := json.Unmarshal([]byte(s), &values); err != nil {
		return nil, err
	}
	if values == nil {
		values = []string{}
	}
	return values, nil
}

// timeLayout is fixed width so created_at strings sort chronologically.
// RFC3339Nano parses it as well as rows written without padding.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func renderValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(val)
	case string:
		return val
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		return formatTime(val)
	default:
		return fmt.Sprint(val)
	}
}
