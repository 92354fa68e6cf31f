package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// timeLayout has a fixed width so created_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// =============================================================================
// Executor Interface - Shared by DB and Transaction
// =============================================================================

// executor abstracts database operations that can be performed on both
// a database connection and a transaction.
type executor interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	NamedExecContext(ctx context.Context, query string, arg any) (sql.Result, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// =============================================================================
// SQLiteStore
// =============================================================================

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore creates a new SQLite store and runs migrations.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	// Open database connection
	db, err := sqlx.Open("sqlite3", dsn+"?_foreign_keys=on")
	if err != nil {
		return nil, NewStoreError("NewSQLiteStore", "", "failed to open database", ErrConnectionFailed)
	}

	// Every connection to :memory: is a separate database
	if dsn == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, NewStoreError("NewSQLiteStore", "", "failed to ping database", ErrConnectionFailed)
	}

	// Run migrations
	if err := runMigrations(db.DB); err != nil {
		db.Close()
		return nil, NewStoreError("NewSQLiteStore", "", err.Error(), ErrMigrationFailed)
	}

	return &SQLiteStore{db: db}, nil
}

// runMigrations runs database migrations using embedded SQL files.
func runMigrations(db *sql.DB) error {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// WithTx runs fn inside a transaction, rolling back if it returns an error.
func (s *SQLiteStore) WithTx(ctx context.Context, fn func(Store) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return NewStoreError("WithTx", "", "failed to begin transaction", ErrTxFailed)
	}

	txS := &txSQLiteStore{tx: tx}

	if err := fn(txS); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return NewStoreError("WithTx", "", fmt.Sprintf("rollback failed after error: %v", err), ErrTxFailed)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return NewStoreError("WithTx", "", "failed to commit transaction", ErrTxFailed)
	}

	return nil
}

// =============================================================================
// Generation Operations
// =============================================================================

// generationRow represents a generation row in the database.
type generationRow struct {
	ID               string `db:"id"`
	Selection        string `db:"selection"`
	Tier             string `db:"tier"`
	IncludeOptional  bool   `db:"include_optional"`
	IncludeSuggested bool   `db:"include_suggested"`
	Services         string `db:"services"`
	StartOrder       string `db:"start_order"`
	ComposeYAML      string `db:"compose_yaml"`
	Valid            bool   `db:"valid"`
	Warnings         string `db:"warnings"`
	Errors           string `db:"errors"`
	CreatedAt        string `db:"created_at"`
}

func (s *SQLiteStore) CreateGeneration(ctx context.Context, gen *Generation) error {
	return createGeneration(ctx, s.db, gen)
}

func (s *SQLiteStore) GetGeneration(ctx context.Context, id string) (*Generation, error) {
	return getGeneration(ctx, s.db, id)
}

func (s *SQLiteStore) ListGenerations(ctx context.Context, opts ListOptions) ([]Generation, error) {
	return listGenerations(ctx, s.db, opts)
}

func (s *SQLiteStore) DeleteGeneration(ctx context.Context, id string) error {
	return deleteGeneration(ctx, s.db, id)
}

func (s *SQLiteStore) CountGenerations(ctx context.Context) (int, error) {
	return countGenerations(ctx, s.db)
}

func (s *SQLiteStore) PruneGenerations(ctx context.Context, before time.Time, keep int) (int, error) {
	return pruneGenerations(ctx, s.db, before, keep)
}

// =============================================================================
// Transaction Store
// =============================================================================

// txSQLiteStore implements Store within a transaction.
type txSQLiteStore struct {
	tx *sqlx.Tx
}

func (s *txSQLiteStore) CreateGeneration(ctx context.Context, gen *Generation) error {
	return createGeneration(ctx, s.tx, gen)
}

func (s *txSQLiteStore) GetGeneration(ctx context.Context, id string) (*Generation, error) {
	return getGeneration(ctx, s.tx, id)
}

func (s *txSQLiteStore) ListGenerations(ctx context.Context, opts ListOptions) ([]Generation, error) {
	return listGenerations(ctx, s.tx, opts)
}

func (s *txSQLiteStore) DeleteGeneration(ctx context.Context, id string) error {
	return deleteGeneration(ctx, s.tx, id)
}

func (s *txSQLiteStore) CountGenerations(ctx context.Context) (int, error) {
	return countGenerations(ctx, s.tx)
}

func (s *txSQLiteStore) PruneGenerations(ctx context.Context, before time.Time, keep int) (int, error) {
	return pruneGenerations(ctx, s.tx, before, keep)
}

func (s *txSQLiteStore) WithTx(ctx context.Context, fn func(Store) error) error {
	// Already in a transaction, just run the function
	return fn(s)
}

func (s *txSQLiteStore) Close() error {
	// No-op for tx store
	return nil
}

// =============================================================================
// Shared Implementation Functions
// =============================================================================

// createGeneration inserts gen, assigning an ID and creation time when unset.
func createGeneration(ctx context.Context, exec executor, gen *Generation) error {
	if gen.ID == "" {
		gen.ID = uuid.NewString()
	}
	if gen.CreatedAt.IsZero() {
		gen.CreatedAt = time.Now().UTC()
	}

	lists := map[string][]string{
		"selection":   gen.Selection,
		"services":    gen.Services,
		"start_order": gen.StartOrder,
		"warnings":    gen.Warnings,
		"errors":      gen.Errors,
	}
	row := map[string]any{
		"id":                gen.ID,
		"tier":              gen.Tier,
		"include_optional":  gen.IncludeOptional,
		"include_suggested": gen.IncludeSuggested,
		"compose_yaml":      gen.ComposeYAML,
		"valid":             gen.Valid,
		"created_at":        gen.CreatedAt.UTC().Format(timeLayout),
	}
	for column, values := range lists {
		encoded, err := encodeList(values)
		if err != nil {
			return NewStoreError("CreateGeneration", gen.ID, "failed to serialize "+column, ErrInvalidData)
		}
		row[column] = encoded
	}

	query := `
		INSERT INTO generations (
			id, selection, tier, include_optional, include_suggested, services,
			start_order, compose_yaml, valid, warnings, errors, created_at
		) VALUES (
			:id, :selection, :tier, :include_optional, :include_suggested, :services,
			:start_order, :compose_yaml, :valid, :warnings, :errors, :created_at
		)`

	if _, err := exec.NamedExecContext(ctx, query, row); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: generations.id") {
			return NewStoreError("CreateGeneration", gen.ID, "generation with this ID already exists", ErrDuplicateID)
		}
		return NewStoreError("CreateGeneration", gen.ID, err.Error(), err)
	}

	return nil
}

func getGeneration(ctx context.Context, exec executor, id string) (*Generation, error) {
	query := `SELECT * FROM generations WHERE id = ?`

	var row generationRow
	err := exec.GetContext(ctx, &row, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetGeneration", id, "generation not found", ErrNotFound)
		}
		return nil, NewStoreError("GetGeneration", id, err.Error(), err)
	}

	return rowToGeneration(&row)
}

func listGenerations(ctx context.Context, exec executor, opts ListOptions) ([]Generation, error) {
	opts = opts.Normalize()
	query := `SELECT * FROM generations ORDER BY created_at DESC, id LIMIT ? OFFSET ?`

	var rows []generationRow
	err := exec.SelectContext(ctx, &rows, query, opts.Limit, opts.Offset)
	if err != nil {
		return nil, NewStoreError("ListGenerations", "", err.Error(), err)
	}

	generations := make([]Generation, 0, len(rows))
	for _, row := range rows {
		gen, err := rowToGeneration(&row)
		if err != nil {
			return nil, err
		}
		generations = append(generations, *gen)
	}

	return generations, nil
}

func deleteGeneration(ctx context.Context, exec executor, id string) error {
	result, err := exec.ExecContext(ctx, `DELETE FROM generations WHERE id = ?`, id)
	if err != nil {
		return NewStoreError("DeleteGeneration", id, err.Error(), err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return NewStoreError("DeleteGeneration", id, err.Error(), err)
	}
	if affected == 0 {
		return NewStoreError("DeleteGeneration", id, "generation not found", ErrNotFound)
	}

	return nil
}

func countGenerations(ctx context.Context, exec executor) (int, error) {
	var count int
	if err := exec.GetContext(ctx, &count, `SELECT COUNT(*) FROM generations`); err != nil {
		return 0, NewStoreError("CountGenerations", "", err.Error(), err)
	}
	return count, nil
}

// pruneGenerations deletes generations created before the cutoff, sparing
// the keep most recent ones regardless of age.
func pruneGenerations(ctx context.Context, exec executor, before time.Time, keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}
	query := `
		DELETE FROM generations
		WHERE created_at < ?
		AND id NOT IN (
			SELECT id FROM generations ORDER BY created_at DESC, id LIMIT ?
		)`

	result, err := exec.ExecContext(ctx, query, before.UTC().Format(timeLayout), keep)
	if err != nil {
		return 0, NewStoreError("PruneGenerations", "", err.Error(), err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, NewStoreError("PruneGenerations", "", err.Error(), err)
	}
	return int(affected), nil
}

// =============================================================================
// Row Conversion
// =============================================================================

func rowToGeneration(row *generationRow) (*Generation, error) {
	gen := &Generation{
		ID:               row.ID,
		Tier:             row.Tier,
		IncludeOptional:  row.IncludeOptional,
		IncludeSuggested: row.IncludeSuggested,
		ComposeYAML:      row.ComposeYAML,
		Valid:            row.Valid,
	}

	targets := []struct {
		column string
		raw    string
		dest   *[]string
	}{
		{"selection", row.Selection, &gen.Selection},
		{"services", row.Services, &gen.Services},
		{"start_order", row.StartOrder, &gen.StartOrder},
		{"warnings", row.Warnings, &gen.Warnings},
		{"errors", row.Errors, &gen.Errors},
	}
	for _, target := range targets {
		values, err := decodeList(target.raw)
		if err != nil {
			return nil, NewStoreError("rowToGeneration", row.ID, "failed to parse "+target.column, ErrInvalidData)
		}
		*target.dest = values
	}

	createdAt, err := time.Parse(timeLayout, row.CreatedAt)
	if err != nil {
		return nil, NewStoreError("rowToGeneration", row.ID, "failed to parse created_at", ErrInvalidData)
	}
	gen.CreatedAt = createdAt

	return gen, nil
}

// encodeList stores a nil slice as an empty JSON array.
func encodeList(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeList(raw string) ([]string, error) {
	values := []string{}
	if raw == "" {
		return values, nil
	}
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, err
	}
	return values, nil
}
