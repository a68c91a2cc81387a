package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"registros/internal/core"

	_ "modernc.org/sqlite"
)

// ErrPersistentDSN is returned for a DSN that would write to disk.
var ErrPersistentDSN = errors.New("sqlite dsn must name an in-memory database")

// SQLiteRepository keeps records in an in-memory SQLite database. Nothing
// outlives the process: the database disappears with its last connection.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	dsn     string
}

// IsMemoryDSN reports whether dsn names an in-memory database.
func IsMemoryDSN(dsn string) bool {
	dsn = strings.TrimSpace(dsn)
	if dsn == ":memory:" || strings.HasPrefix(dsn, "file::memory:") {
		return true
	}
	return strings.HasPrefix(dsn, "file:") && strings.Contains(dsn, "mode=memory")
}

// sharedDSN turns a plain memory DSN into a named shared-cache one so the
// migration connection and the repository pool see the same database.
func sharedDSN(dsn string) string {
	dsn = strings.TrimSpace(dsn)
	if dsn == ":memory:" || strings.HasPrefix(dsn, "file::memory:") {
		return "file:registros-" + uuid.NewString() + "?mode=memory&cache=shared"
	}
	if !strings.Contains(dsn, "cache=shared") {
		return dsn + "&cache=shared"
	}
	return dsn
}

func NewSQLiteRepository(dsn string) (*SQLiteRepository, error) {
	if !IsMemoryDSN(dsn) {
		return nil, fmt.Errorf("%w: %q", ErrPersistentDSN, dsn)
	}
	dsn = sharedDSN(dsn)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One long-lived connection keeps the memory database alive and
	// serializes access to it.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		dsn:     dsn,
	}, nil
}

// DSN returns the effective data source name.
func (r *SQLiteRepository) DSN() string {
	return r.dsn
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Insert implements records.RecordWriter
func (r *SQLiteRepository) Insert(ctx context.Context, rec core.Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	err := r.queries.InsertRecord(ctx, InsertRecordParams{
		ID:          rec.ID,
		Date:        rec.Date,
		Amount:      rec.Amount,
		Description: rec.Description,
		Notes:       rec.Notes,
		Status:      rec.Status.String(),
	})
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}

	slog.DebugContext(ctx, "Record saved to SQLite",
		"id", rec.ID,
		"description", rec.Description,
		"amount", rec.Amount.String())
	return nil
}

// Replace implements records.RecordWriter
func (r *SQLiteRepository) Replace(ctx context.Context, rec core.Record) (bool, error) {
	if err := rec.Validate(); err != nil {
		return false, err
	}
	n, err := r.queries.UpdateRecord(ctx, UpdateRecordParams{
		Date:        rec.Date,
		Amount:      rec.Amount,
		Description: rec.Description,
		Notes:       rec.Notes,
		Status:      rec.Status.String(),
		ID:          rec.ID,
	})
	if err != nil {
		return false, fmt.Errorf("update record: %w", err)
	}
	return n > 0, nil
}

// Remove implements records.RecordWriter
func (r *SQLiteRepository) Remove(ctx context.Context, id string) (bool, error) {
	n, err := r.queries.DeleteRecord(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete record: %w", err)
	}
	return n > 0, nil
}

// SetStatus implements records.RecordWriter. All updates share one
// transaction.
func (r *SQLiteRepository) SetStatus(ctx context.Context, ids []string, status core.Status) (int, error) {
	if err := status.Validate(); err != nil {
		return 0, err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	total := 0
	for _, id := range ids {
		n, err := q.SetRecordStatus(ctx, status.String(), id)
		if err != nil {
			return 0, fmt.Errorf("set status of %s: %w", id, err)
		}
		total += int(n)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}
	return total, nil
}

// Get implements records.RecordReader
func (r *SQLiteRepository) Get(ctx context.Context, id string) (core.Record, bool, error) {
	row, err := r.queries.GetRecord(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Record{}, false, nil
	}
	if err != nil {
		return core.Record{}, false, fmt.Errorf("get record by id: %w", err)
	}
	return toCore(row), true, nil
}

// All implements records.RecordReader
func (r *SQLiteRepository) All(ctx context.Context) ([]core.Record, error) {
	rows, err := r.queries.ListRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	out := make([]core.Record, len(rows))
	for i, row := range rows {
		out[i] = toCore(row)
	}
	return out, nil
}

// Summarize implements records.Summarizer. Amounts are added as decimals
// in Go; SQLite would sum the TEXT column as floats.
func (r *SQLiteRepository) Summarize(ctx context.Context) ([]core.StatusTotal, error) {
	rows, err := r.queries.ListStatusAmounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list status amounts: %w", err)
	}
	recs := make([]core.Record, len(rows))
	for i, row := range rows {
		recs[i] = core.Record{Status: core.Status(row.Status), Amount: row.Amount}
	}
	return core.SummarizeRecords(recs), nil
}

func toCore(row Record) core.Record {
	return core.Record{
		ID:          row.ID,
		Date:        row.Date,
		Amount:      row.Amount,
		Description: row.Description,
		Notes:       row.Notes,
		Status:      core.Status(row.Status),
	}
}
