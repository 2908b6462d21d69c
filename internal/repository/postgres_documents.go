package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/lib/pq"
)

const documentsSchema = `
	CREATE TABLE IF NOT EXISTS documents (
		seq        BIGSERIAL,
		collection TEXT  NOT NULL,
		doc_id     TEXT  NOT NULL,
		doc        JSONB NOT NULL,
		PRIMARY KEY (collection, doc_id)
	)
`

var fieldNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// EnsureSchema 创建 documents 表
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, documentsSchema); err != nil {
		return fmt.Errorf("failed to create documents table: %w", err)
	}
	return nil
}

// PostgresDocumentStore PostgreSQL JSONB 文档存储
// 所有集合共用 documents 表，按 seq 保持插入顺序
type PostgresDocumentStore[T any] struct {
	db         *sql.DB
	collection string
}

func NewPostgresDocumentStore[T any](db *sql.DB) *PostgresDocumentStore[T] {
	return &PostgresDocumentStore[T]{db: db, collection: CollectionName[T]()}
}

var _ DocumentStore[struct{}] = (*PostgresDocumentStore[struct{}])(nil)

func (s *PostgresDocumentStore[T]) Find(ctx context.Context, filter Filter) ([]T, error) {
	where, args, err := s.where(filter)
	if err != nil {
		return nil, err
	}
	return s.query(ctx, `SELECT doc FROM documents WHERE `+where+` ORDER BY seq`, args...)
}

func (s *PostgresDocumentStore[T]) FindOne(ctx context.Context, filter Filter) (T, error) {
	var zero T
	where, args, err := s.where(filter)
	if err != nil {
		return zero, err
	}
	docs, err := s.query(ctx, `SELECT doc FROM documents WHERE `+where+` ORDER BY seq LIMIT 1`, args...)
	if err != nil {
		return zero, err
	}
	if len(docs) == 0 {
		return zero, ErrNotFound
	}
	return docs[0], nil
}

func (s *PostgresDocumentStore[T]) InsertOne(ctx context.Context, doc T) (T, error) {
	raw, id, err := encodeDocument(doc)
	if err != nil {
		return doc, err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (collection, doc_id, doc) VALUES ($1, $2, $3)`,
		s.collection, id, string(raw),
	)
	if err != nil {
		return doc, fmt.Errorf("failed to insert %s: %w", s.collection, err)
	}
	return doc, nil
}

// ReplaceOne 先按 seq 原位更新第一个匹配行，未命中则插入
func (s *PostgresDocumentStore[T]) ReplaceOne(ctx context.Context, filter Filter, doc T) error {
	raw, id, err := encodeDocument(doc)
	if err != nil {
		return err
	}
	where, args, err := s.where(filter)
	if err != nil {
		return err
	}
	n := len(args)
	args = append(args, id, string(raw))
	query := fmt.Sprintf(`
		UPDATE documents SET doc_id = $%d, doc = $%d
		WHERE seq = (SELECT seq FROM documents WHERE %s ORDER BY seq LIMIT 1)
	`, n+1, n+2, where)
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to replace %s: %w", s.collection, err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected > 0 {
		return nil
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (collection, doc_id, doc) VALUES ($1, $2, $3)
		ON CONFLICT (collection, doc_id) DO UPDATE SET doc = EXCLUDED.doc
	`, s.collection, id, string(raw))
	if err != nil {
		return fmt.Errorf("failed to upsert %s: %w", s.collection, err)
	}
	return nil
}

func (s *PostgresDocumentStore[T]) DeleteOne(ctx context.Context, filter Filter) error {
	where, args, err := s.where(filter)
	if err != nil {
		return err
	}
	query := `DELETE FROM documents WHERE seq = (SELECT seq FROM documents WHERE ` + where + ` ORDER BY seq LIMIT 1)`
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete %s: %w", s.collection, err)
	}
	return nil
}

func (s *PostgresDocumentStore[T]) FindIn(ctx context.Context, field string, values []string) ([]T, error) {
	if !fieldNamePattern.MatchString(field) {
		return nil, fmt.Errorf("invalid field name %q", field)
	}
	return s.query(ctx,
		`SELECT doc FROM documents WHERE collection = $1 AND doc->>'`+field+`' = ANY($2) ORDER BY seq`,
		s.collection, pq.Array(values),
	)
}

// where collection = $1 AND doc->>'k' = $n ...（按字段名排序，SQL 稳定）
func (s *PostgresDocumentStore[T]) where(filter Filter) (string, []any, error) {
	keys := make([]string, 0, len(filter))
	for k := range filter {
		if !fieldNamePattern.MatchString(k) {
			return "", nil, fmt.Errorf("invalid field name %q", k)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	clauses := []string{"collection = $1"}
	args := []any{s.collection}
	for _, k := range keys {
		args = append(args, fmt.Sprint(filter[k]))
		clauses = append(clauses, fmt.Sprintf("doc->>'%s' = $%d", k, len(args)))
	}
	return strings.Join(clauses, " AND "), args, nil
}

func (s *PostgresDocumentStore[T]) query(ctx context.Context, query string, args ...any) ([]T, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", s.collection, err)
	}
	defer rows.Close()

	out := make([]T, 0)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", s.collection, err)
		}
		var doc T
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", s.collection, err)
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s: %w", s.collection, err)
	}
	return out, nil
}

func encodeDocument[T any](doc T) ([]byte, string, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, "", fmt.Errorf("encode document: %w", err)
	}
	id, err := documentID(raw)
	if err != nil {
		return nil, "", err
	}
	return raw, id, nil
}

// IsNotFound ErrNotFound 或 sql.ErrNoRows
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, sql.ErrNoRows)
}
