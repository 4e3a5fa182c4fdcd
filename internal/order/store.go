package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store interface {
	Create(ctx context.Context, o *Order) error
	Get(ctx context.Context, id string) (*Order, error)
	GetByExternalID(ctx context.Context, externalID string) (*Order, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	ListAll(ctx context.Context, f Filter) ([]Order, error)

	// Transition moves the order status only if the row still holds `from`
	// (compare-and-swap) and reports whether it took effect. This is what
	// makes retried cancellations restore stock at most once.
	Transition(ctx context.Context, id string, from, to Status) (bool, error)

	// SetStatuses applies the admin update; nil fields are left untouched.
	SetStatuses(ctx context.Context, id string, status *Status, pay *PaymentStatus) error
}

type PGStore struct{ DB *pgxpool.Pool }

const orderCols = `id, external_id, user_id,
	customer_name, customer_email, customer_phone,
	total, street, city, state, zip_code, country,
	payment_method, order_status, payment_status, created_at, updated_at`

func (s *PGStore) Create(ctx context.Context, o *Order) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO orders(id, external_id, user_id,
			customer_name, customer_email, customer_phone,
			total, street, city, state, zip_code, country,
			payment_method, order_status, payment_status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		RETURNING created_at, updated_at`,
		o.ID, nullable(o.ExternalID), o.UserID,
		o.CustomerInfo.Name, o.CustomerInfo.Email, o.CustomerInfo.Phone,
		o.Total, o.ShippingAddress.Street, o.ShippingAddress.City,
		o.ShippingAddress.State, o.ShippingAddress.ZipCode, o.ShippingAddress.Country,
		o.PaymentMethod, o.Status, o.PaymentStatus,
	).Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return err
	}

	for _, it := range o.Items {
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items(order_id, product_id, name, size, quantity, price)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			o.ID, it.ProductID, it.Name, it.Size, it.Quantity, it.Price); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *PGStore) Get(ctx context.Context, id string) (*Order, error) {
	return s.getWhere(ctx, `id=$1`, id)
}

func (s *PGStore) GetByExternalID(ctx context.Context, externalID string) (*Order, error) {
	return s.getWhere(ctx, `external_id=$1`, externalID)
}

func (s *PGStore) getWhere(ctx context.Context, where string, arg any) (*Order, error) {
	row := s.DB.QueryRow(ctx, `SELECT `+orderCols+` FROM orders WHERE `+where, arg)
	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("order %v: %w", arg, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if err := s.loadItems(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *PGStore) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	return s.list(ctx, `SELECT `+orderCols+` FROM orders WHERE user_id=$1 ORDER BY created_at DESC`, userID)
}

func (s *PGStore) ListAll(ctx context.Context, f Filter) ([]Order, error) {
	if f.Status != nil {
		return s.list(ctx, `SELECT `+orderCols+` FROM orders WHERE order_status=$1 ORDER BY created_at DESC`, *f.Status)
	}
	return s.list(ctx, `SELECT ` + orderCols + ` FROM orders ORDER BY created_at DESC`)
}

func (s *PGStore) list(ctx context.Context, q string, args ...any) ([]Order, error) {
	rows, err := s.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if err := s.loadItems(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *PGStore) loadItems(ctx context.Context, o *Order) error {
	rows, err := s.DB.Query(ctx, `
		SELECT product_id, name, size, quantity, price
		FROM order_items WHERE order_id=$1 ORDER BY position`, o.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ProductID, &it.Name, &it.Size, &it.Quantity, &it.Price); err != nil {
			return err
		}
		o.Items = append(o.Items, it)
	}
	return rows.Err()
}

func (s *PGStore) Transition(ctx context.Context, id string, from, to Status) (bool, error) {
	ct, err := s.DB.Exec(ctx, `
		UPDATE orders SET order_status=$3, updated_at=now()
		WHERE id=$1 AND order_status=$2`, id, from, to)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}

func (s *PGStore) SetStatuses(ctx context.Context, id string, status *Status, pay *PaymentStatus) error {
	ct, err := s.DB.Exec(ctx, `
		UPDATE orders SET
			order_status   = COALESCE($2, order_status),
			payment_status = COALESCE($3, payment_status),
			updated_at     = now()
		WHERE id=$1`, id, status, pay)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	return nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

type scannable interface {
	Scan(dest ...any) error
}

func scanOrder(row scannable) (*Order, error) {
	var (
		o   Order
		ext *string
	)
	err := row.Scan(&o.ID, &ext, &o.UserID,
		&o.CustomerInfo.Name, &o.CustomerInfo.Email, &o.CustomerInfo.Phone,
		&o.Total, &o.ShippingAddress.Street, &o.ShippingAddress.City,
		&o.ShippingAddress.State, &o.ShippingAddress.ZipCode, &o.ShippingAddress.Country,
		&o.PaymentMethod, &o.Status, &o.PaymentStatus, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if ext != nil {
		o.ExternalID = *ext
	}
	return &o, nil
}
