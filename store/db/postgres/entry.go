package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hrygo/guestbook/store"
)

func (d *DB) CreateEntry(ctx context.Context, create *store.Entry) (*store.Entry, error) {
	if create.CreatedAt.IsZero() {
		create.CreatedAt = time.Now().UTC()
	}
	create.CreatedAt = create.CreatedAt.UTC().Truncate(time.Second)

	fields := []string{"name", "message", "created_at"}
	placeholderValues := []any{create.Name, create.Message, create.CreatedAt.Format(time.RFC3339)}

	stmt := `INSERT INTO entry (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(placeholderValues)) + `)
		RETURNING id`

	if err := d.db.QueryRowContext(ctx, stmt, placeholderValues...).Scan(
		&create.ID,
	); err != nil {
		return nil, fmt.Errorf("failed to create entry: %w", err)
	}

	return create, nil
}

func (d *DB) ListEntries(ctx context.Context, find *store.FindEntry) ([]*store.Entry, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "entry.id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.AfterID; v != nil {
		where, args = append(where, "entry.id > "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `
		SELECT
			id, name, message, created_at
		FROM entry
		WHERE ` + strings.Join(where, " AND ") + ` ORDER BY entry.id DESC`

	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Entry, 0)
	for rows.Next() {
		var entry store.Entry
		var createdAt string

		if err := rows.Scan(
			&entry.ID,
			&entry.Name,
			&entry.Message,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}

		ts, err := time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse entry timestamp %q: %w", createdAt, err)
		}
		entry.CreatedAt = ts

		list = append(list, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate entries: %w", err)
	}

	return list, nil
}
