// Package storage is the SQLite entry store. Decimal amounts are stored as
// TEXT so values round-trip exactly; timestamps are stored as RFC 3339
// strings carrying their UTC offset.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"fcd/internal/core"
	"fcd/internal/ledger"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// AppendEntry implements ledger.EntryWriter.
func (r *SQLiteRepository) AppendEntry(ctx context.Context, e core.Entry) (core.Entry, error) {
	createdAt := time.Now()

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO entries (tx_type, status, entry_date, usd, thb, rate, note, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		string(e.Type),
		e.Status,
		e.Date.Format(time.RFC3339),
		e.USD.String(),
		decimalText(e.THB),
		decimalText(e.Rate),
		e.Note,
		createdAt.Format(time.RFC3339),
	)
	if err != nil {
		return core.Entry{}, fmt.Errorf("%w: insert entry: %v", ledger.ErrStorage, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.Entry{}, fmt.Errorf("%w: last insert id: %v", ledger.ErrStorage, err)
	}

	e.ID = id
	e.CreatedAt = createdAt

	slog.InfoContext(ctx, "Entry saved to SQLite",
		"id", e.ID,
		"tx_type", e.Type,
		"status", e.Status,
		"usd", e.USD.String())

	return e, nil
}

// ListEntries implements ledger.EntryLister.
func (r *SQLiteRepository) ListEntries(ctx context.Context) ([]core.Entry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, tx_type, status, entry_date, usd, thb, rate, note, created_at
		 FROM entries ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("%w: query entries: %v", ledger.ErrStorage, err)
	}
	defer rows.Close()

	var list []core.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate entries: %v", ledger.ErrStorage, err)
	}
	return list, nil
}

// GetEntry retrieves a single entry by ID.
func (r *SQLiteRepository) GetEntry(ctx context.Context, id int64) (core.Entry, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, tx_type, status, entry_date, usd, thb, rate, note, created_at
		 FROM entries WHERE id = ?`, id)
	e, err := scanEntry(row)
	if err != nil {
		return core.Entry{}, err
	}
	return e, nil
}

// UnmirroredEntry is the minimal row needed to drive the mirror queue.
type UnmirroredEntry struct {
	ID        int64
	CreatedAt time.Time
}

// ListUnmirrored returns entries that have not been mirrored to the
// external journal yet, oldest first.
func (r *SQLiteRepository) ListUnmirrored(ctx context.Context, limit int) ([]UnmirroredEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, created_at FROM entries WHERE mirrored_at IS NULL ORDER BY id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: query unmirrored: %v", ledger.ErrStorage, err)
	}
	defer rows.Close()

	var list []UnmirroredEntry
	for rows.Next() {
		var u UnmirroredEntry
		var created string
		if err := rows.Scan(&u.ID, &created); err != nil {
			return nil, fmt.Errorf("%w: scan unmirrored: %v", ledger.ErrStorage, err)
		}
		if u.CreatedAt, err = time.Parse(time.RFC3339, created); err != nil {
			return nil, fmt.Errorf("%w: parse created_at %q: %v", ledger.ErrStorage, created, err)
		}
		list = append(list, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate unmirrored: %v", ledger.ErrStorage, err)
	}
	return list, nil
}

// MarkMirrored records a successful journal mirror.
func (r *SQLiteRepository) MarkMirrored(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE entries SET mirrored_at = ?, mirror_error = 0 WHERE id = ?`,
		time.Now().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("%w: mark mirrored: %v", ledger.ErrStorage, err)
	}
	slog.InfoContext(ctx, "Entry marked as mirrored", "id", id)
	return nil
}

// MarkMirrorError flags an entry whose mirror attempt failed; the periodic
// sweep will pick it up again.
func (r *SQLiteRepository) MarkMirrorError(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE entries SET mirror_error = mirror_error + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("%w: mark mirror error: %v", ledger.ErrStorage, err)
	}
	slog.WarnContext(ctx, "Entry marked with mirror error", "id", id)
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (core.Entry, error) {
	var (
		e                  core.Entry
		txType             string
		dateStr, createdAt string
		usd                string
		thb, rate          sql.NullString
	)
	if err := row.Scan(&e.ID, &txType, &e.Status, &dateStr, &usd, &thb, &rate, &e.Note, &createdAt); err != nil {
		return core.Entry{}, fmt.Errorf("%w: scan entry: %v", ledger.ErrStorage, err)
	}

	e.Type = core.TransactionType(txType)

	var err error
	if e.Date, err = time.Parse(time.RFC3339, dateStr); err != nil {
		return core.Entry{}, fmt.Errorf("%w: parse entry date %q: %v", ledger.ErrStorage, dateStr, err)
	}
	if e.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return core.Entry{}, fmt.Errorf("%w: parse created_at %q: %v", ledger.ErrStorage, createdAt, err)
	}
	if e.USD, err = decimal.NewFromString(usd); err != nil {
		return core.Entry{}, fmt.Errorf("%w: parse usd %q: %v", ledger.ErrStorage, usd, err)
	}
	if e.THB, err = decimalFromText(thb); err != nil {
		return core.Entry{}, fmt.Errorf("%w: parse thb: %v", ledger.ErrStorage, err)
	}
	if e.Rate, err = decimalFromText(rate); err != nil {
		return core.Entry{}, fmt.Errorf("%w: parse rate: %v", ledger.ErrStorage, err)
	}
	return e, nil
}

func decimalText(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func decimalFromText(s sql.NullString) (*decimal.Decimal, error) {
	if !s.Valid {
		return nil, nil
	}
	d, err := decimal.NewFromString(s.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
