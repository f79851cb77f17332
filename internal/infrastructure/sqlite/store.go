// Package sqlite implementa los puertos del ledger sobre una base SQLite embebida (modernc, sin cgo).
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/jhoicas/almacen-ledger/internal/application/inventory"
	"github.com/jhoicas/almacen-ledger/internal/domain"
	"github.com/jhoicas/almacen-ledger/internal/domain/repository"
)

var _ inventory.TxRunner = (*Store)(nil)

// Querier es lo común entre *sql.DB y *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store base SQLite. Las transacciones abren con BEGIN IMMEDIATE, así que las escrituras
// quedan serializadas a nivel de base y Lock no necesita hacer nada.
type Store struct {
	DB *sql.DB
}

// Open abre (o crea) la base en path y aplica el esquema.
func Open(ctx context.Context, path string, busyTimeout time.Duration) (*Store, error) {
	if busyTimeout <= 0 {
		busyTimeout = 5 * time.Second
	}
	dsn := fmt.Sprintf("%s?_txlock=immediate&_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=foreign_keys(1)",
		path, busyTimeout.Milliseconds())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("abrir sqlite: %w", err)
	}
	db.SetConnMaxIdleTime(2 * time.Minute)
	db.SetMaxOpenConns(1)

	s := &Store{DB: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close cierra la base.
func (s *Store) Close() error { return s.DB.Close() }

func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, schema); err != nil {
		return classify("migrate", err)
	}
	return nil
}

// Run implementa inventory.TxRunner.
func (s *Store) Run(ctx context.Context, fn func(
	records repository.InventoryRecordRepository,
	movements repository.InventoryMovementRepository,
) error) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return classify("begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(NewInventoryRecordRepository(tx), NewInventoryMovementRepository(tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return classify("commit transaction", err)
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS products (
	id            INTEGER PRIMARY KEY,
	enterprise_id INTEGER NOT NULL,
	sku           TEXT    NOT NULL,
	name          TEXT    NOT NULL,
	min_quantity  INTEGER NOT NULL DEFAULT 0 CHECK (min_quantity >= 0),
	updated_at    INTEGER NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_products_enterprise_sku ON products(enterprise_id, sku);

CREATE TABLE IF NOT EXISTS inventory_records (
	product_id        INTEGER NOT NULL,
	warehouse_id      INTEGER NOT NULL,
	zone_id           INTEGER NOT NULL DEFAULT 0,
	cell_id           INTEGER NOT NULL DEFAULT 0,
	quantity          INTEGER NOT NULL,
	reserved_quantity INTEGER NOT NULL DEFAULT 0,
	updated_at        INTEGER NOT NULL,
	PRIMARY KEY (product_id, warehouse_id, zone_id, cell_id),
	CHECK (quantity >= 0 AND reserved_quantity >= 0 AND reserved_quantity <= quantity)
);

CREATE TABLE IF NOT EXISTS inventory_movements (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	operation_id   TEXT    NOT NULL,
	enterprise_id  INTEGER NOT NULL,
	product_id     INTEGER NOT NULL,
	warehouse_id   INTEGER NOT NULL,
	source_zone_id INTEGER,
	source_cell_id INTEGER,
	dest_zone_id   INTEGER,
	dest_cell_id   INTEGER,
	quantity       INTEGER NOT NULL CHECK (quantity > 0),
	type           TEXT    NOT NULL CHECK (type IN ('RECEIPT', 'ISSUE', 'TRANSFER', 'ADJUSTMENT')),
	reference_id   TEXT,
	comment        TEXT,
	actor          INTEGER NOT NULL DEFAULT 0,
	created_at     INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_inventory_movements_product ON inventory_movements(product_id, created_at DESC, id DESC);
`

// classify traduce errores del driver a errores de dominio.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var sqErr *sqlite.Error
	if errors.As(err, &sqErr) {
		if sqErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE || sqErr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY {
			return fmt.Errorf("%w: %s: %v", domain.ErrDuplicate, op, err)
		}
		switch sqErr.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return fmt.Errorf("%w: %s: %v", domain.ErrConflict, op, err)
		case sqlite3.SQLITE_CONSTRAINT:
			return fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, op, err)
		case sqlite3.SQLITE_CANTOPEN, sqlite3.SQLITE_IOERR, sqlite3.SQLITE_FULL:
			return fmt.Errorf("%w: %s: %v", domain.ErrStoreUnavailable, op, err)
		}
	}
	if errors.Is(err, sql.ErrConnDone) {
		return fmt.Errorf("%w: %s: %v", domain.ErrStoreUnavailable, op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func toMicros(t time.Time) int64 { return t.UTC().UnixMicro() }

func fromMicros(us int64) time.Time { return time.UnixMicro(us).UTC() }
