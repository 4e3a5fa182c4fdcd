package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the catalog persistence contract. Stock is mutated exclusively
// through DecrementStock / IncrementStock so a stale read-modify-write can
// never be interleaved by a concurrent checkout.
type Store interface {
	Find(ctx context.Context, id string) (*Product, error)
	List(ctx context.Context, f Filter) ([]Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error

	// DecrementStock applies "stock = stock - qty where stock >= qty" as one
	// conditional update and reports whether it took effect.
	DecrementStock(ctx context.Context, id string, qty int) (bool, error)
	// IncrementStock restores stock unconditionally.
	IncrementStock(ctx context.Context, id string, qty int) error
}

type PGStore struct{ DB *pgxpool.Pool }

func (s *PGStore) Find(ctx context.Context, id string) (*Product, error) {
	row := s.DB.QueryRow(ctx, `
		SELECT id, name, description, size, price, image_url, stock, popular, features, created_at, updated_at
		FROM products WHERE id=$1`, id)
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Size, &p.Price, &p.ImageURL,
		&p.Stock, &p.Popular, &p.Features, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PGStore) List(ctx context.Context, f Filter) ([]Product, error) {
	q := `SELECT id, name, description, size, price, image_url, stock, popular, features, created_at, updated_at
	      FROM products`
	var args []any
	var where []string
	if f.Popular != nil {
		args = append(args, *f.Popular)
		where = append(where, fmt.Sprintf("popular=$%d", len(args)))
	}
	if f.Size != nil {
		args = append(args, *f.Size)
		where = append(where, fmt.Sprintf("size=$%d", len(args)))
	}
	for i, w := range where {
		if i == 0 {
			q += " WHERE " + w
		} else {
			q += " AND " + w
		}
	}
	q += " ORDER BY size"

	rows, err := s.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Size, &p.Price, &p.ImageURL,
			&p.Stock, &p.Popular, &p.Features, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PGStore) Create(ctx context.Context, p *Product) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return s.DB.QueryRow(ctx, `
		INSERT INTO products(id, name, description, size, price, image_url, stock, popular, features)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING created_at, updated_at`,
		p.ID, p.Name, p.Description, p.Size, p.Price, p.ImageURL, p.Stock, p.Popular, p.Features,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (s *PGStore) Update(ctx context.Context, p *Product) error {
	ct, err := s.DB.Exec(ctx, `
		UPDATE products SET name=$2, description=$3, size=$4, price=$5, image_url=$6, popular=$7, features=$8, updated_at=now()
		WHERE id=$1`,
		p.ID, p.Name, p.Description, p.Size, p.Price, p.ImageURL, p.Popular, p.Features)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("product %s: %w", p.ID, ErrNotFound)
	}
	return nil
}

func (s *PGStore) DecrementStock(ctx context.Context, id string, qty int) (bool, error) {
	ct, err := s.DB.Exec(ctx, `
		UPDATE products SET stock = stock - $2, updated_at=now()
		WHERE id=$1 AND stock >= $2`, id, qty)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}

func (s *PGStore) IncrementStock(ctx context.Context, id string, qty int) error {
	_, err := s.DB.Exec(ctx, `
		UPDATE products SET stock = stock + $2, updated_at=now()
		WHERE id=$1`, id, qty)
	return err
}
