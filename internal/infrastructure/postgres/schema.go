package postgres

import (
	"context"
)

// schema DDL del ledger. inventory_records tiene una fila por ubicación con stock;
// inventory_movements solo admite inserciones.
const schema = `
CREATE TABLE IF NOT EXISTS products (
	id            BIGINT PRIMARY KEY,
	enterprise_id BIGINT NOT NULL,
	sku           TEXT   NOT NULL,
	name          TEXT   NOT NULL,
	min_quantity  BIGINT NOT NULL DEFAULT 0 CHECK (min_quantity >= 0),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_products_enterprise_sku ON products (enterprise_id, sku);

CREATE TABLE IF NOT EXISTS inventory_records (
	product_id        BIGINT NOT NULL,
	warehouse_id      BIGINT NOT NULL,
	zone_id           BIGINT NOT NULL DEFAULT 0,
	cell_id           BIGINT NOT NULL DEFAULT 0,
	quantity          BIGINT NOT NULL,
	reserved_quantity BIGINT NOT NULL DEFAULT 0,
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (product_id, warehouse_id, zone_id, cell_id),
	CONSTRAINT inventory_records_balance
		CHECK (quantity >= 0 AND reserved_quantity >= 0 AND reserved_quantity <= quantity)
);

CREATE TABLE IF NOT EXISTS inventory_movements (
	id             BIGSERIAL PRIMARY KEY,
	operation_id   UUID   NOT NULL,
	enterprise_id  BIGINT NOT NULL,
	product_id     BIGINT NOT NULL,
	warehouse_id   BIGINT NOT NULL,
	source_zone_id BIGINT,
	source_cell_id BIGINT,
	dest_zone_id   BIGINT,
	dest_cell_id   BIGINT,
	quantity       BIGINT NOT NULL CHECK (quantity > 0),
	type           TEXT   NOT NULL CHECK (type IN ('RECEIPT', 'ISSUE', 'TRANSFER', 'ADJUSTMENT')),
	reference_id   TEXT,
	comment        TEXT,
	actor          BIGINT NOT NULL DEFAULT 0,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_inventory_movements_product
	ON inventory_movements (product_id, created_at DESC, id DESC);
CREATE INDEX IF NOT EXISTS idx_inventory_movements_operation ON inventory_movements (operation_id);
`

// Migrate crea las tablas del ledger si no existen.
func Migrate(ctx context.Context, q Querier) error {
	if _, err := q.Exec(ctx, schema); err != nil {
		return classify("migrate", err)
	}
	return nil
}
