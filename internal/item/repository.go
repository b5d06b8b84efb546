package item

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Repository defines the interface for item persistence operations.
type Repository interface {
	// GetByName retrieves an item by name.
	// Returns ErrItemNotFound if the item does not exist.
	GetByName(ctx context.Context, name string) (*Item, error)

	// List retrieves all items.
	List(ctx context.Context) ([]Item, error)

	// Create inserts a new item.
	// Returns ErrItemExists if an item with the same name already exists.
	Create(ctx context.Context, i *Item) error

	// Update modifies an existing item.
	// Returns ErrItemNotFound if the item does not exist.
	Update(ctx context.Context, i *Item) error

	// Delete removes an item by name.
	// Returns ErrItemNotFound if the item does not exist.
	Delete(ctx context.Context, name string) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// GetByName retrieves an item by name.
func (r *SQLiteRepository) GetByName(ctx context.Context, name string) (*Item, error) {
	query := `
		SELECT name, item_type, label, tags, created_at, updated_at
		FROM items
		WHERE name = ?`

	row := r.db.QueryRowContext(ctx, query, name)
	i, err := scanItemRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("querying item %s: %w", name, err)
	}
	return i, nil
}

// List retrieves all items ordered by name.
func (r *SQLiteRepository) List(ctx context.Context) ([]Item, error) {
	query := `
		SELECT name, item_type, label, tags, created_at, updated_at
		FROM items
		ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		i, err := scanItemRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating items: %w", err)
	}
	return items, nil
}

// Create inserts a new item.
func (r *SQLiteRepository) Create(ctx context.Context, i *Item) error {
	tagsJSON, err := json.Marshal(i.Tags)
	if err != nil {
		return fmt.Errorf("marshalling tags: %w", err)
	}

	query := `
		INSERT INTO items (name, item_type, label, tags, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	_, err = r.db.ExecContext(ctx, query,
		i.Name, i.Type, i.Label, string(tagsJSON),
		i.CreatedAt.UTC().Format(time.RFC3339Nano),
		i.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrItemExists
		}
		return fmt.Errorf("inserting item %s: %w", i.Name, err)
	}
	return nil
}

// Update modifies an existing item.
func (r *SQLiteRepository) Update(ctx context.Context, i *Item) error {
	tagsJSON, err := json.Marshal(i.Tags)
	if err != nil {
		return fmt.Errorf("marshalling tags: %w", err)
	}

	query := `
		UPDATE items
		SET item_type = ?, label = ?, tags = ?, updated_at = ?
		WHERE name = ?`

	result, err := r.db.ExecContext(ctx, query,
		i.Type, i.Label, string(tagsJSON),
		i.UpdatedAt.UTC().Format(time.RFC3339Nano), i.Name,
	)
	if err != nil {
		return fmt.Errorf("updating item %s: %w", i.Name, err)
	}
	return requireRowAffected(result, i.Name)
}

// Delete removes an item by name.
func (r *SQLiteRepository) Delete(ctx context.Context, name string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM items WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("deleting item %s: %w", name, err)
	}
	return requireRowAffected(result, name)
}

func requireRowAffected(result sql.Result, name string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected for %s: %w", name, err)
	}
	if affected == 0 {
		return ErrItemNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItemRow(scanner rowScanner) (*Item, error) {
	var (
		i         Item
		tagsJSON  string
		createdAt string
		updatedAt string
	)

	err := scanner.Scan(&i.Name, &i.Type, &i.Label, &tagsJSON, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if tagsJSON != "" {
		if err := json.Unmarshal([]byte(tagsJSON), &i.Tags); err != nil {
			return nil, fmt.Errorf("unmarshalling tags: %w", err)
		}
	}
	if i.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if i.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &i, nil
}
