package order

import (
	"context"
	"fmt"
	"log"

	"github.com/shopspring/decimal"

	"github.com/liquidguard/shop/internal/catalog"
)

// Reserver converts a batch of requested line items into reserved stock.
//
// Each product's decrement is a single conditional update exposed by the
// catalog store ("stock = stock - n where stock >= n"), so no two checkouts
// can both win the last unit. The batch is all-or-nothing: if any line
// fails, every decrement already applied is compensated before the error is
// returned, leaving zero net stock change.
type Reserver struct {
	Catalog catalog.Store
}

// Reserve validates and decrements stock for every line item, in the
// client-submitted order, and returns the frozen order-item snapshots plus
// the recomputed total. On failure the first offending line is reported and
// no stock is left decremented.
func (r *Reserver) Reserve(ctx context.Context, items []LineItem) ([]Item, decimal.Decimal, error) {
	if len(items) == 0 {
		return nil, decimal.Zero, &ValidationError{Field: "items", Msg: "order must contain at least one item"}
	}
	for _, li := range items {
		if li.Quantity <= 0 {
			return nil, decimal.Zero, &ValidationError{
				Field: "quantity",
				Msg:   fmt.Sprintf("must be a positive integer for product %s", li.ProductID),
			}
		}
	}

	var (
		applied   []LineItem
		snapshots []Item
		total     = decimal.Zero
	)
	for _, li := range items {
		p, err := r.Catalog.Find(ctx, li.ProductID)
		if err != nil {
			r.compensate(ctx, applied)
			return nil, decimal.Zero, err
		}

		ok, err := r.Catalog.DecrementStock(ctx, li.ProductID, li.Quantity)
		if err != nil {
			r.compensate(ctx, applied)
			return nil, decimal.Zero, err
		}
		if !ok {
			r.compensate(ctx, applied)
			// re-read after the lost decrement: the stock seen before it can
			// be stale under concurrent checkouts
			available := p.Stock
			if cur, err := r.Catalog.Find(ctx, li.ProductID); err == nil {
				available = cur.Stock
			}
			return nil, decimal.Zero, &InsufficientStockError{
				ProductID: p.ID,
				Name:      p.Name,
				Requested: li.Quantity,
				Available: available,
			}
		}

		applied = append(applied, li)
		snapshots = append(snapshots, Item{
			ProductID: p.ID,
			Name:      p.Name,
			Size:      p.Size,
			Quantity:  li.Quantity,
			Price:     p.Price,
		})
		total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(li.Quantity))))
	}
	return snapshots, total, nil
}

// Restore re-increments stock for every item of a cancelled order. The
// increment is unconditional: stock is a fungible counter, not a fixed
// capacity. Double restoration is prevented upstream by the terminal-state
// check on the order, not here.
func (r *Reserver) Restore(ctx context.Context, items []Item) error {
	for _, it := range items {
		if err := r.Catalog.IncrementStock(ctx, it.ProductID, it.Quantity); err != nil {
			return fmt.Errorf("restore stock for product %s: %w", it.ProductID, err)
		}
	}
	return nil
}

// compensate undoes decrements already applied in a batch that failed
// part-way. It runs detached from the request context so a caller timeout
// cannot strand a half-reserved batch.
func (r *Reserver) compensate(ctx context.Context, applied []LineItem) {
	if len(applied) == 0 {
		return
	}
	ctx = context.WithoutCancel(ctx)
	for _, li := range applied {
		if err := r.Catalog.IncrementStock(ctx, li.ProductID, li.Quantity); err != nil {
			log.Printf("compensate reservation: product %s qty %d: %v", li.ProductID, li.Quantity, err)
		}
	}
}
