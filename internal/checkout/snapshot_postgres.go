package checkout

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

type PostgresSnapshotRepository struct {
	db *sql.DB
}

func NewPostgresSnapshotRepository(db *sql.DB) *PostgresSnapshotRepository {
	return &PostgresSnapshotRepository{db: db}
}

// EnsureSchema creates the payment_snapshots table when it does not exist yet.
func (r *PostgresSnapshotRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS payment_snapshots (
        session_id TEXT PRIMARY KEY,
        order_id INT NOT NULL,
        customer_id INT NOT NULL DEFAULT 0,
        customer_name TEXT,
        phone TEXT,
        address TEXT,
        total numeric NOT NULL DEFAULT 0,
        items jsonb NOT NULL DEFAULT '[]',
        product_ids integer[] NOT NULL DEFAULT '{}',
        created_at TIMESTAMPTZ NOT NULL DEFAULT now()
    )`)
	return err
}

func (r *PostgresSnapshotRepository) Save(ctx context.Context, s Snapshot) error {
	itemsJSON, err := json.Marshal(s.Items)
	if err != nil {
		return fmt.Errorf("marshal snapshot items: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `INSERT INTO payment_snapshots
        (session_id, order_id, customer_id, customer_name, phone, address, total, items, product_ids, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        ON CONFLICT (session_id) DO UPDATE SET
            order_id = EXCLUDED.order_id,
            customer_id = EXCLUDED.customer_id,
            customer_name = EXCLUDED.customer_name,
            phone = EXCLUDED.phone,
            address = EXCLUDED.address,
            total = EXCLUDED.total,
            items = EXCLUDED.items,
            product_ids = EXCLUDED.product_ids,
            created_at = EXCLUDED.created_at`,
		s.SessionID, s.OrderID, s.CustomerID, s.CustomerName, s.Phone, s.Address, s.Total,
		itemsJSON, pq.Array(s.ProductIDs()), s.CreatedAt)
	return err
}

func (r *PostgresSnapshotRepository) Load(ctx context.Context, sessionID string) (Snapshot, error) {
	var s Snapshot
	var itemsJSON []byte
	var name, phone, address sql.NullString
	err := r.db.QueryRowContext(ctx, `SELECT session_id, order_id, customer_id, customer_name, phone, address, total, items, created_at
        FROM payment_snapshots WHERE session_id = $1`, sessionID).Scan(
		&s.SessionID, &s.OrderID, &s.CustomerID, &name, &phone, &address, &s.Total, &itemsJSON, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, ErrNoSnapshot
	}
	if err != nil {
		return Snapshot{}, err
	}
	s.CustomerName, s.Phone, s.Address = name.String, phone.String, address.String
	if err := json.Unmarshal(itemsJSON, &s.Items); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot items: %w", err)
	}
	return s, nil
}

func (r *PostgresSnapshotRepository) Delete(ctx context.Context, sessionID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM payment_snapshots WHERE session_id = $1`, sessionID)
	return err
}
