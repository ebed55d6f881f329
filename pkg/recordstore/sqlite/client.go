// Package sqlite provides the SQLite implementation of the record store.
//
// SQLite is a lightweight, file-based database suitable for local
// development, tests, and small single-node deployments. Metadata is stored
// as a JSON string in a TEXT field.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/homecare-labs/caremem-go/pkg/recordstore"
)

// Client implements recordstore.RecordStore using SQLite as the backend.
type Client struct {
	// db is the SQLite database connection.
	db *sql.DB

	// tableName is the name of the table storing memory records.
	tableName string
}

// Config contains configuration for creating a SQLite record store.
type Config struct {
	// DBPath is the path to the SQLite database file.
	DBPath string

	// TableName is the name of the table to use.
	TableName string
}

// NewClient creates a new SQLite record store client.
//
// Parameters:
//   - cfg: Configuration containing database path and table name
//
// Returns:
//   - *Client: The SQLite client instance
//   - error: Error if database connection or table creation fails
func NewClient(cfg *Config) (*Client, error) {
	// Create parent directory if it doesn't exist
	dbDir := filepath.Dir(cfg.DBPath)
	if dbDir != "" && dbDir != "." {
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return nil, fmt.Errorf("NewSQLiteClient: failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.DBPath+"?_foreign_keys=1&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("NewSQLiteClient: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("NewSQLiteClient: %w", err)
	}

	client := &Client{
		db:        db,
		tableName: cfg.TableName,
	}

	// Initialize table structure
	if err := client.initTables(context.Background()); err != nil {
		return nil, err
	}

	return client, nil
}

// initTables initializes the database table structure.
func (c *Client) initTables(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			patient_id TEXT NOT NULL,
			category TEXT NOT NULL,
			priority TEXT NOT NULL,
			content TEXT NOT NULL,
			metadata TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			deleted_at DATETIME
		)
	`, c.tableName)

	_, err := c.db.ExecContext(ctx, query)
	if err != nil {
		return fmt.Errorf("initTables: %w", err)
	}

	// Create index for patient-scoped queries
	indexQuery := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS idx_%s_patient_category ON %s(patient_id, category)
	`, c.tableName, c.tableName)
	_, err = c.db.ExecContext(ctx, indexQuery)
	if err != nil {
		return fmt.Errorf("initTables: %w", err)
	}

	return nil
}

// Insert inserts a memory record into the SQLite database.
func (c *Client) Insert(ctx context.Context, record *recordstore.Record) error {
	query := fmt.Sprintf(`
		INSERT INTO %s
		(id, patient_id, category, priority, content, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, c.tableName)

	metadataJSON, err := json.Marshal(record.Metadata)
	if err != nil {
		return fmt.Errorf("Insert: %w", err)
	}

	_, err = c.db.ExecContext(ctx, query,
		record.ID,
		record.PatientID,
		record.Category,
		record.Priority,
		record.Content,
		string(metadataJSON),
		record.CreatedAt,
		record.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("Insert: %w", err)
	}

	return nil
}

// GetByIDs retrieves non-deleted records among the given IDs, ordered by
// priority rank ascending then creation time descending.
func (c *Client) GetByIDs(ctx context.Context, ids []string, opts *recordstore.GetByIDsOptions) ([]*recordstore.Record, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if opts == nil {
		opts = &recordstore.GetByIDsOptions{}
	}

	args := make([]interface{}, 0, len(ids)+1)
	for _, id := range ids {
		args = append(args, id)
	}

	whereClause := fmt.Sprintf("WHERE id IN (%s) AND deleted_at IS NULL", placeholders(len(ids)))
	if opts.Category != "" {
		whereClause += " AND category = ?"
		args = append(args, opts.Category)
	}

	query := fmt.Sprintf(`
		SELECT id, patient_id, category, priority, content, metadata,
		       created_at, updated_at, deleted_at
		FROM %s
		%s
		ORDER BY %s, created_at DESC
	`, c.tableName, whereClause, priorityRankExpr)

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("GetByIDs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []*recordstore.Record
	for rows.Next() {
		record, err := c.scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetByIDs: %w", err)
	}

	return records, nil
}

// Update replaces the content of a non-deleted record and refreshes its
// updated_at timestamp.
func (c *Client) Update(ctx context.Context, id string, content string) (*recordstore.Record, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET content = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`, c.tableName)

	result, err := c.db.ExecContext(ctx, query, content, time.Now().UTC(), id)
	if err != nil {
		return nil, fmt.Errorf("Update: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("Update: %w", err)
	}

	if rowsAffected == 0 {
		return nil, recordstore.ErrNotFound
	}

	return c.get(ctx, id)
}

// Delete soft-deletes a record by setting its deleted_at timestamp.
func (c *Client) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`, c.tableName)

	result, err := c.db.ExecContext(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}

	if rowsAffected == 0 {
		return recordstore.ErrNotFound
	}

	return nil
}

// CountByPatient returns total, critical, and per-category counts of the
// patient's non-deleted records.
func (c *Client) CountByPatient(ctx context.Context, patientID string) (*recordstore.PatientCounts, error) {
	counts := &recordstore.PatientCounts{
		ByCategory: make(map[string]int),
	}

	totalQuery := fmt.Sprintf(`
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN priority = 'critical' THEN 1 ELSE 0 END), 0)
		FROM %s
		WHERE patient_id = ? AND deleted_at IS NULL
	`, c.tableName)

	row := c.db.QueryRowContext(ctx, totalQuery, patientID)
	if err := row.Scan(&counts.Total, &counts.Critical); err != nil {
		return nil, fmt.Errorf("CountByPatient: %w", err)
	}

	categoryQuery := fmt.Sprintf(`
		SELECT category, COUNT(*)
		FROM %s
		WHERE patient_id = ? AND deleted_at IS NULL
		GROUP BY category
	`, c.tableName)

	rows, err := c.db.QueryContext(ctx, categoryQuery, patientID)
	if err != nil {
		return nil, fmt.Errorf("CountByPatient: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return nil, fmt.Errorf("CountByPatient: %w", err)
		}
		counts.ByCategory[category] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("CountByPatient: %w", err)
	}

	return counts, nil
}

// RecentByCategory returns up to limit non-deleted records of the given
// category created at or after since, newest first.
func (c *Client) RecentByCategory(ctx context.Context, patientID, category string, since time.Time, limit int) ([]*recordstore.Record, error) {
	query := fmt.Sprintf(`
		SELECT id, patient_id, category, priority, content, metadata,
		       created_at, updated_at, deleted_at
		FROM %s
		WHERE patient_id = ?
		  AND deleted_at IS NULL
		  AND category = ?
		  AND created_at >= ?
		ORDER BY created_at DESC
		LIMIT ?
	`, c.tableName)

	rows, err := c.db.QueryContext(ctx, query, patientID, category, since, limit)
	if err != nil {
		return nil, fmt.Errorf("RecentByCategory: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []*recordstore.Record
	for rows.Next() {
		record, err := c.scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("RecentByCategory: %w", err)
	}

	return records, nil
}

// Close closes the database connection.
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// get retrieves a single non-deleted record by ID.
func (c *Client) get(ctx context.Context, id string) (*recordstore.Record, error) {
	query := fmt.Sprintf(`
		SELECT id, patient_id, category, priority, content, metadata,
		       created_at, updated_at, deleted_at
		FROM %s
		WHERE id = ? AND deleted_at IS NULL
	`, c.tableName)

	row := c.db.QueryRowContext(ctx, query, id)

	record, err := c.scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, recordstore.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get: %w", err)
	}

	return record, nil
}

// scanRecord scans a record from a database row or rows.
func (c *Client) scanRecord(scanner interface{}) (*recordstore.Record, error) {
	var record recordstore.Record
	var metadataStr sql.NullString
	var deletedAt sql.NullTime

	var err error
	switch s := scanner.(type) {
	case *sql.Row:
		err = s.Scan(
			&record.ID,
			&record.PatientID,
			&record.Category,
			&record.Priority,
			&record.Content,
			&metadataStr,
			&record.CreatedAt,
			&record.UpdatedAt,
			&deletedAt,
		)
	case *sql.Rows:
		err = s.Scan(
			&record.ID,
			&record.PatientID,
			&record.Category,
			&record.Priority,
			&record.Content,
			&metadataStr,
			&record.CreatedAt,
			&record.UpdatedAt,
			&deletedAt,
		)
	default:
		return nil, fmt.Errorf("unsupported scanner type")
	}

	if err != nil {
		return nil, err
	}

	// Parse metadata
	if metadataStr.Valid && metadataStr.String != "" {
		if err := json.Unmarshal([]byte(metadataStr.String), &record.Metadata); err != nil {
			return nil, fmt.Errorf("parse metadata: %w", err)
		}
	}

	// Handle deleted_at
	if deletedAt.Valid {
		record.DeletedAt = &deletedAt.Time
	}

	return &record, nil
}
