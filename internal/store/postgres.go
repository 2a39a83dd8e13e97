package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"go.mongodb.org/mongo-driver/v2/bson"
)

const uniqueViolation = "23505"

// PostgresBackend stores each collection as a table of JSON documents:
//
//	(seq BIGSERIAL, id TEXT PRIMARY KEY, doc JSON NOT NULL)
//
// doc is kept as json rather than jsonb so that field order is preserved.
// Filters use jsonb containment; updates lock the row and apply in Go.
type PostgresBackend struct {
	db *sql.DB
}

// NewPostgresBackend wraps an open database handle.
func NewPostgresBackend(db *sql.DB) *PostgresBackend {
	return &PostgresBackend{db: db}
}

func (b *PostgresBackend) FindOne(ctx context.Context, collection string, filter, projection bson.D) (bson.D, error) {
	where, args, err := whereClause(filter)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT doc FROM %s WHERE %s ORDER BY seq LIMIT 1`, collection, where)

	var raw string
	if err := b.db.QueryRowContext(ctx, query, args...).Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	doc, err := decodeJSON(raw)
	if err != nil {
		return nil, err
	}
	return Project(doc, projection), nil
}

func (b *PostgresBackend) Find(ctx context.Context, collection string, filter, projection, sort bson.D) ([]bson.D, error) {
	where, args, err := whereClause(filter)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT doc FROM %s WHERE %s ORDER BY seq`, collection, where)

	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := make([]bson.D, 0)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		doc, err := decodeJSON(raw)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	SortDocuments(docs, sort)
	for i := range docs {
		docs[i] = Project(docs[i], projection)
	}
	return docs, nil
}

func (b *PostgresBackend) UpdateOne(ctx context.Context, collection string, filter bson.D, update Update) (bson.D, error) {
	where, args, err := whereClause(filter)
	if err != nil {
		return nil, err
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := fmt.Sprintf(`SELECT id, doc FROM %s WHERE %s ORDER BY seq LIMIT 1 FOR UPDATE`, collection, where)
	var id, raw string
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&id, &raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	doc, err := decodeJSON(raw)
	if err != nil {
		return nil, err
	}
	updated, err := Apply(doc, update)
	if err != nil {
		return nil, err
	}
	encoded, err := encodeJSON(updated)
	if err != nil {
		return nil, err
	}

	updateQuery := fmt.Sprintf(`UPDATE %s SET doc = $1 WHERE id = $2`, collection)
	if _, err := tx.ExecContext(ctx, updateQuery, encoded, id); err != nil {
		return nil, mapPQError(err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return updated, nil
}

func (b *PostgresBackend) InsertOne(ctx context.Context, collection string, doc bson.D) error {
	id, _ := Lookup(doc, IDField)
	encoded, err := encodeJSON(doc)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`INSERT INTO %s (id, doc) VALUES ($1, $2)`, collection)
	if _, err := b.db.ExecContext(ctx, query, fmt.Sprint(id), encoded); err != nil {
		return mapPQError(err)
	}
	return nil
}

func mapPQError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return ErrDuplicate
	}
	return err
}

func (b *PostgresBackend) DeleteOne(ctx context.Context, collection string, filter bson.D) error {
	where, args, err := whereClause(filter)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(
		`DELETE FROM %[1]s WHERE id = (SELECT id FROM %[1]s WHERE %[2]s ORDER BY seq LIMIT 1)`,
		collection, where,
	)
	result, err := b.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Close closes the database handle.
func (b *PostgresBackend) Close(ctx context.Context) error {
	return b.db.Close()
}

// whereClause turns an equality filter into SQL. Each condition matches the
// scalar itself or an array containing it, mirroring MongoDB semantics.
func whereClause(filter bson.D) (string, []any, error) {
	if len(filter) == 0 {
		return "TRUE", nil, nil
	}

	conds := make([]string, 0, len(filter))
	args := make([]any, 0, len(filter)*2)
	for _, cond := range filter {
		if cond.Key == IDField {
			args = append(args, fmt.Sprint(cond.Value))
			conds = append(conds, fmt.Sprintf("id = $%d", len(args)))
			continue
		}

		scalar, err := encodeJSON(nest(cond.Key, cond.Value))
		if err != nil {
			return "", nil, err
		}
		inArray, err := encodeJSON(nest(cond.Key, bson.A{cond.Value}))
		if err != nil {
			return "", nil, err
		}
		args = append(args, scalar, inArray)
		conds = append(conds, fmt.Sprintf(
			"(doc::jsonb @> $%d::jsonb OR doc::jsonb @> $%d::jsonb)",
			len(args)-1, len(args),
		))
	}
	return strings.Join(conds, " AND "), args, nil
}

// nest expands a dotted path into nested documents: ("a.b", v) -> {a: {b: v}}.
func nest(path string, value any) bson.D {
	segments := strings.Split(path, ".")
	out := bson.D{{Key: segments[len(segments)-1], Value: value}}
	for i := len(segments) - 2; i >= 0; i-- {
		out = bson.D{{Key: segments[i], Value: out}}
	}
	return out
}

func encodeJSON(doc bson.D) (string, error) {
	raw, err := bson.MarshalExtJSON(doc, false, false)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func decodeJSON(raw string) (bson.D, error) {
	var doc bson.D
	if err := bson.UnmarshalExtJSON([]byte(raw), false, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}
