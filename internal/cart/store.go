package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store interface {
	GetByOwner(ctx context.Context, ownerKey string) (*Cart, error)
	Create(ctx context.Context, c *Cart) error
	// ReplaceItems swaps the cart's line items wholesale. Carts are owned
	// per-request, so last-write-wins is acceptable here.
	ReplaceItems(ctx context.Context, cartID string, items []Item) error
}

type PGStore struct{ DB *pgxpool.Pool }

func (s *PGStore) GetByOwner(ctx context.Context, ownerKey string) (*Cart, error) {
	var c Cart
	err := s.DB.QueryRow(ctx, `
		SELECT id, owner_key, created_at, updated_at FROM carts WHERE owner_key=$1`,
		ownerKey).Scan(&c.ID, &c.OwnerKey, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("owner %s: %w", ownerKey, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.DB.Query(ctx, `
		SELECT id, product_id, quantity FROM cart_items WHERE cart_id=$1 ORDER BY added_at`, c.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.ProductID, &it.Quantity); err != nil {
			return nil, err
		}
		c.Items = append(c.Items, it)
	}
	return &c, rows.Err()
}

func (s *PGStore) Create(ctx context.Context, c *Cart) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return s.DB.QueryRow(ctx, `
		INSERT INTO carts(id, owner_key) VALUES ($1,$2)
		RETURNING created_at, updated_at`,
		c.ID, c.OwnerKey).Scan(&c.CreatedAt, &c.UpdatedAt)
}

func (s *PGStore) ReplaceItems(ctx context.Context, cartID string, items []Item) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id=$1`, cartID); err != nil {
		return err
	}
	for _, it := range items {
		if _, err := tx.Exec(ctx, `
			INSERT INTO cart_items(id, cart_id, product_id, quantity)
			VALUES ($1,$2,$3,$4)`, it.ID, cartID, it.ProductID, it.Quantity); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(ctx, `UPDATE carts SET updated_at=now() WHERE id=$1`, cartID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
