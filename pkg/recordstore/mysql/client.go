// Package mysql provides the MySQL-compatible implementation of the record
// store. It works against MySQL and MySQL-protocol databases such as
// OceanBase.
package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/homecare-labs/caremem-go/pkg/recordstore"
)

// Client is a MySQL record store client.
type Client struct {
	db        *sql.DB
	tableName string
}

// Config contains MySQL configuration.
type Config struct {
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	TableName string

	// MaxOpenConns bounds the connection pool (0 means driver default).
	MaxOpenConns int
}

// NewClient creates a new MySQL client.
func NewClient(cfg *Config) (*Client, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("NewMySQLClient: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("NewMySQLClient: %w", err)
	}

	client := &Client{
		db:        db,
		tableName: cfg.TableName,
	}

	if err := client.initTables(context.Background()); err != nil {
		return nil, err
	}

	return client, nil
}

// initTables initializes the database table.
func (c *Client) initTables(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id VARCHAR(64) PRIMARY KEY,
			patient_id VARCHAR(255) NOT NULL,
			category VARCHAR(64) NOT NULL,
			priority VARCHAR(16) NOT NULL,
			content TEXT NOT NULL,
			metadata JSON,
			created_at DATETIME(6) NOT NULL,
			updated_at DATETIME(6) NOT NULL,
			deleted_at DATETIME(6) NULL,
			INDEX idx_patient_category (patient_id, category)
		)
	`, c.tableName)

	_, err := c.db.ExecContext(ctx, query)
	if err != nil {
		return fmt.Errorf("initTables: %w", err)
	}

	return nil
}

// Insert inserts a memory record.
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
		ORDER BY
			CASE priority
				WHEN 'critical' THEN 1
				WHEN 'high' THEN 2
				ELSE 3
			END,
			created_at DESC
	`, c.tableName, whereClause)

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("GetByIDs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return c.scanRecords(rows)
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

	return c.scanRecords(rows)
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

// scanRecords scans all records from a result set.
func (c *Client) scanRecords(rows *sql.Rows) ([]*recordstore.Record, error) {
	var records []*recordstore.Record
	for rows.Next() {
		record, err := c.scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
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

	if metadataStr.Valid && metadataStr.String != "" {
		if err := json.Unmarshal([]byte(metadataStr.String), &record.Metadata); err != nil {
			return nil, fmt.Errorf("parse metadata: %w", err)
		}
	}

	if deletedAt.Valid {
		record.DeletedAt = &deletedAt.Time
	}

	return &record, nil
}

// placeholders builds a comma-separated list of n "?" placeholders.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
