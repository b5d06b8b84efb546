package thing

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Repository defines the interface for thing persistence operations.
// This abstraction allows for different implementations (SQLite, mock, etc.)
// and enables unit testing without database dependencies.
type Repository interface {
	// GetByUID retrieves a thing by its unique identifier.
	// Returns ErrThingNotFound if the thing does not exist.
	GetByUID(ctx context.Context, uid UID) (*Thing, error)

	// List retrieves all things.
	List(ctx context.Context) ([]Thing, error)

	// Create inserts a new thing.
	// Returns ErrThingExists if a thing with the same UID already exists.
	Create(ctx context.Context, t *Thing) error

	// Update modifies an existing thing.
	// Returns ErrThingNotFound if the thing does not exist.
	Update(ctx context.Context, t *Thing) error

	// Delete removes a thing by UID.
	// Returns ErrThingNotFound if the thing does not exist.
	Delete(ctx context.Context, uid UID) error

	// UpdateStatus updates only the status field of a thing.
	UpdateStatus(ctx context.Context, uid UID, status Status) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
// The db parameter should be an open SQLite connection.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// GetByUID retrieves a thing by its unique identifier.
func (r *SQLiteRepository) GetByUID(ctx context.Context, uid UID) (*Thing, error) {
	query := `
		SELECT uid, type_uid, bridge_uid, label, status, config, channels,
			created_at, updated_at
		FROM things
		WHERE uid = ?`

	row := r.db.QueryRowContext(ctx, query, string(uid))
	t, err := scanThingRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrThingNotFound
		}
		return nil, fmt.Errorf("querying thing %s: %w", uid, err)
	}
	return t, nil
}

// List retrieves all things ordered by UID.
func (r *SQLiteRepository) List(ctx context.Context) ([]Thing, error) {
	query := `
		SELECT uid, type_uid, bridge_uid, label, status, config, channels,
			created_at, updated_at
		FROM things
		ORDER BY uid`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing things: %w", err)
	}
	defer rows.Close()

	var things []Thing
	for rows.Next() {
		t, err := scanThingRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning thing: %w", err)
		}
		things = append(things, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating things: %w", err)
	}
	return things, nil
}

// Create inserts a new thing.
func (r *SQLiteRepository) Create(ctx context.Context, t *Thing) error {
	configJSON, err := json.Marshal(t.Config)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	channelsJSON, err := json.Marshal(t.Channels)
	if err != nil {
		return fmt.Errorf("marshalling channels: %w", err)
	}

	query := `
		INSERT INTO things (uid, type_uid, bridge_uid, label, status, config,
			channels, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.ExecContext(ctx, query,
		string(t.UID), t.TypeUID, nullableUID(t.BridgeUID), t.Label,
		string(t.Status), string(configJSON), string(channelsJSON),
		t.CreatedAt.UTC().Format(time.RFC3339Nano),
		t.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrThingExists
		}
		return fmt.Errorf("inserting thing %s: %w", t.UID, err)
	}
	return nil
}

// Update modifies an existing thing.
func (r *SQLiteRepository) Update(ctx context.Context, t *Thing) error {
	configJSON, err := json.Marshal(t.Config)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	channelsJSON, err := json.Marshal(t.Channels)
	if err != nil {
		return fmt.Errorf("marshalling channels: %w", err)
	}

	query := `
		UPDATE things
		SET type_uid = ?, bridge_uid = ?, label = ?, status = ?, config = ?,
			channels = ?, updated_at = ?
		WHERE uid = ?`

	result, err := r.db.ExecContext(ctx, query,
		t.TypeUID, nullableUID(t.BridgeUID), t.Label, string(t.Status),
		string(configJSON), string(channelsJSON),
		t.UpdatedAt.UTC().Format(time.RFC3339Nano), string(t.UID),
	)
	if err != nil {
		return fmt.Errorf("updating thing %s: %w", t.UID, err)
	}
	return requireRowAffected(result, t.UID)
}

// Delete removes a thing by UID.
func (r *SQLiteRepository) Delete(ctx context.Context, uid UID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM things WHERE uid = ?`, string(uid))
	if err != nil {
		return fmt.Errorf("deleting thing %s: %w", uid, err)
	}
	return requireRowAffected(result, uid)
}

// UpdateStatus updates only the status field of a thing.
func (r *SQLiteRepository) UpdateStatus(ctx context.Context, uid UID, status Status) error {
	query := `UPDATE things SET status = ?, updated_at = ? WHERE uid = ?`
	result, err := r.db.ExecContext(ctx, query,
		string(status), time.Now().UTC().Format(time.RFC3339Nano), string(uid))
	if err != nil {
		return fmt.Errorf("updating thing status %s: %w", uid, err)
	}
	return requireRowAffected(result, uid)
}

func requireRowAffected(result sql.Result, uid UID) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected for %s: %w", uid, err)
	}
	if affected == 0 {
		return ErrThingNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanThingRow(scanner rowScanner) (*Thing, error) {
	var (
		t            Thing
		uid          string
		bridgeUID    sql.NullString
		status       string
		configJSON   string
		channelsJSON string
		createdAt    string
		updatedAt    string
	)

	err := scanner.Scan(&uid, &t.TypeUID, &bridgeUID, &t.Label, &status,
		&configJSON, &channelsJSON, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	t.UID = UID(uid)
	t.Status = Status(status)
	if bridgeUID.Valid {
		b := UID(bridgeUID.String)
		t.BridgeUID = &b
	}
	if configJSON != "" {
		if err := json.Unmarshal([]byte(configJSON), &t.Config); err != nil {
			return nil, fmt.Errorf("unmarshalling config: %w", err)
		}
	}
	if channelsJSON != "" {
		if err := json.Unmarshal([]byte(channelsJSON), &t.Channels); err != nil {
			return nil, fmt.Errorf("unmarshalling channels: %w", err)
		}
	}
	if t.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if t.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &t, nil
}

func nullableUID(u *UID) sql.NullString {
	if u == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*u), Valid: true}
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
