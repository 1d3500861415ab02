package flowers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx, so the
// conditional-adjust statement can run standalone or inside a
// surrounding transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const flowerCols = `id, name, description, quantity, threshold`

// InventoryRepo owns the flowers table.
type InventoryRepo struct{ DB *pgxpool.Pool }

func scanFlower(row pgx.Row) (Flower, error) {
	var f Flower
	err := row.Scan(&f.ID, &f.Name, &f.Description, &f.Quantity, &f.Threshold)
	return f, err
}

func (r *InventoryRepo) GetItem(ctx context.Context, id int64) (Flower, error) {
	f, err := scanFlower(r.DB.QueryRow(ctx,
		`SELECT `+flowerCols+` FROM flowers WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Flower{}, ErrNotFound
	}
	return f, err
}

func (r *InventoryRepo) ListItems(ctx context.Context) ([]Flower, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+flowerCols+` FROM flowers ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectFlowers(rows)
}

// SearchItems filters by name substring and/or minimum quantity. Empty
// name and minQty < 0 mean "no constraint".
func (r *InventoryRepo) SearchItems(ctx context.Context, name string, minQty int) ([]Flower, error) {
	where := []string{}
	args := []any{}
	i := 1
	if name != "" {
		where = append(where, fmt.Sprintf(`name ILIKE $%d`, i))
		args = append(args, "%"+name+"%")
		i++
	}
	if minQty >= 0 {
		where = append(where, fmt.Sprintf(`quantity >= $%d`, i))
		args = append(args, minQty)
		i++
	}
	sql := `SELECT ` + flowerCols + ` FROM flowers`
	if len(where) > 0 {
		sql += ` WHERE ` + strings.Join(where, ` AND `)
	}
	sql += ` ORDER BY name`
	rows, err := r.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectFlowers(rows)
}

func (r *InventoryRepo) CreateItem(ctx context.Context, f Flower) (Flower, error) {
	return scanFlower(r.DB.QueryRow(ctx, `
		INSERT INTO flowers(name, description, quantity, threshold)
		VALUES ($1, $2, $3, $4) RETURNING `+flowerCols,
		f.Name, f.Description, f.Quantity, f.Threshold))
}

func (r *InventoryRepo) UpdateItem(ctx context.Context, f Flower) (Flower, error) {
	out, err := scanFlower(r.DB.QueryRow(ctx, `
		UPDATE flowers SET name=$2, description=$3, quantity=$4, threshold=$5
		WHERE id=$1 RETURNING `+flowerCols,
		f.ID, f.Name, f.Description, f.Quantity, f.Threshold))
	if errors.Is(err, pgx.ErrNoRows) {
		return Flower{}, ErrNotFound
	}
	return out, err
}

// DeleteItemCascade removes the flower and every reservation referencing
// it in one transaction, so no reservation outlives its flower.
func (r *InventoryRepo) DeleteItemCascade(ctx context.Context, id int64) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM reservations WHERE flower_id=$1`, id); err != nil {
		return err
	}
	ct, err := tx.Exec(ctx, `DELETE FROM flowers WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound // rollback via defer
	}
	return tx.Commit(ctx)
}

// AdjustQuantity applies quantity += delta only if the result stays
// non-negative. One conditional UPDATE; there is no read-then-write
// window for a concurrent caller to slip into.
func (r *InventoryRepo) AdjustQuantity(ctx context.Context, id int64, delta int) (Flower, error) {
	return adjustQuantity(ctx, r.DB, id, delta)
}

func adjustQuantity(ctx context.Context, q querier, id int64, delta int) (Flower, error) {
	f, err := scanFlower(q.QueryRow(ctx, `
		UPDATE flowers SET quantity = quantity + $2
		WHERE id=$1 AND quantity + $2 >= 0
		RETURNING `+flowerCols, id, delta))
	if errors.Is(err, pgx.ErrNoRows) {
		// Either the flower is missing or the deduct would go negative.
		var exists bool
		if err2 := q.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM flowers WHERE id=$1)`, id).Scan(&exists); err2 != nil {
			return Flower{}, err2
		}
		if !exists {
			return Flower{}, ErrNotFound
		}
		return Flower{}, ErrInsufficientStock
	}
	return f, err
}

// ListLowStock returns flowers at or below threshold, worst shortage
// first, each with a derived status label.
func (r *InventoryRepo) ListLowStock(ctx context.Context) ([]LowStockItem, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT `+flowerCols+` FROM flowers
		WHERE quantity <= threshold
		ORDER BY (threshold - quantity) DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LowStockItem
	for rows.Next() {
		f, err := scanFlower(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, LowStockItem{
			Flower:   f,
			Shortage: f.Threshold - f.Quantity,
			Label:    StockLabel(f.Quantity),
		})
	}
	return out, rows.Err()
}

func collectFlowers(rows pgx.Rows) ([]Flower, error) {
	var out []Flower
	for rows.Next() {
		f, err := scanFlower(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
