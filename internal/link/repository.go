package link

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lumina-home/lumina-core/internal/thing"
)

// Repository defines the interface for link persistence operations.
type Repository interface {
	// List retrieves all links.
	List(ctx context.Context) ([]Link, error)

	// Create inserts a link. Inserting an existing link is a no-op.
	Create(ctx context.Context, l *Link) error

	// Delete removes a link. Deleting a missing link is a no-op.
	Delete(ctx context.Context, ch thing.ChannelUID, itemName string) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// List retrieves all links ordered by channel then item.
func (r *SQLiteRepository) List(ctx context.Context) ([]Link, error) {
	query := `
		SELECT channel_uid, item_name, created_at
		FROM links
		ORDER BY channel_uid, item_name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing links: %w", err)
	}
	defer rows.Close()

	var links []Link
	for rows.Next() {
		var (
			l         Link
			channel   string
			createdAt string
		)
		if err := rows.Scan(&channel, &l.ItemName, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning link: %w", err)
		}
		l.ChannelUID = thing.ChannelUID(channel)
		if l.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating links: %w", err)
	}
	return links, nil
}

// Create inserts a link.
func (r *SQLiteRepository) Create(ctx context.Context, l *Link) error {
	query := `
		INSERT INTO links (channel_uid, item_name, created_at)
		VALUES (?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		l.ChannelUID.String(), l.ItemName,
		l.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil
		}
		return fmt.Errorf("inserting link %s -> %s: %w", l.ChannelUID, l.ItemName, err)
	}
	return nil
}

// Delete removes a link.
func (r *SQLiteRepository) Delete(ctx context.Context, ch thing.ChannelUID, itemName string) error {
	query := `DELETE FROM links WHERE channel_uid = ? AND item_name = ?`
	if _, err := r.db.ExecContext(ctx, query, ch.String(), itemName); err != nil {
		return fmt.Errorf("deleting link %s -> %s: %w", ch, itemName, err)
	}
	return nil
}
