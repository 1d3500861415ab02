package flowers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const reservationCols = `id, user_id, flower_id, quantity, sell_date, party_name, status, processed_by`

type ReservationRepo struct{ DB *pgxpool.Pool }

func scanReservation(row pgx.Row) (Reservation, error) {
	var r Reservation
	err := row.Scan(&r.ID, &r.UserID, &r.FlowerID, &r.Quantity, &r.SellDate,
		&r.PartyName, &r.Status, &r.ProcessedBy)
	return r, err
}

func (s *ReservationRepo) Get(ctx context.Context, id int64) (Reservation, error) {
	r, err := scanReservation(s.DB.QueryRow(ctx,
		`SELECT `+reservationCols+` FROM reservations WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Reservation{}, ErrNotFound
	}
	return r, err
}

// ReservationFilter narrows List. Zero values mean "no constraint";
// Month is "YYYY-MM" and is validated by the manager before it gets here.
type ReservationFilter struct {
	UserID      int64
	ProcessedBy int64
	PartyName   string
	FlowerName  string
	Month       string
}

func (s *ReservationRepo) List(ctx context.Context, f ReservationFilter) ([]Reservation, error) {
	where := []string{}
	args := []any{}
	i := 1
	add := func(cond string, arg any) {
		where = append(where, fmt.Sprintf(cond, i))
		args = append(args, arg)
		i++
	}
	if f.UserID != 0 {
		add(`r.user_id = $%d`, f.UserID)
	}
	if f.ProcessedBy != 0 {
		add(`r.processed_by = $%d`, f.ProcessedBy)
	}
	if f.PartyName != "" {
		add(`r.party_name ILIKE $%d`, "%"+f.PartyName+"%")
	}
	if f.FlowerName != "" {
		add(`fl.name ILIKE $%d`, "%"+f.FlowerName+"%")
	}
	if f.Month != "" {
		add(`to_char(r.sell_date, 'YYYY-MM') = $%d`, f.Month)
	}

	sql := `
		SELECT r.id, r.user_id, r.flower_id, r.quantity, r.sell_date,
		       r.party_name, r.status, r.processed_by
		FROM reservations r
		JOIN flowers fl ON fl.id = r.flower_id`
	if len(where) > 0 {
		sql += ` WHERE ` + strings.Join(where, ` AND `)
	}
	sql += ` ORDER BY r.id`

	rows, err := s.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Reservation
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *ReservationRepo) Create(ctx context.Context, r Reservation) (Reservation, error) {
	return scanReservation(s.DB.QueryRow(ctx, `
		INSERT INTO reservations(user_id, flower_id, quantity, sell_date, party_name, status)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING `+reservationCols,
		r.UserID, r.FlowerID, r.Quantity, r.SellDate, r.PartyName, StatusPending))
}

// ReservationUpdate carries the partial fields of an update; nil means
// "leave unchanged".
type ReservationUpdate struct {
	FlowerID  *int64
	Quantity  *int
	SellDate  *time.Time
	PartyName *string
	Status    *ReservationStatus
}

func (u ReservationUpdate) Empty() bool {
	return u.FlowerID == nil && u.Quantity == nil && u.SellDate == nil &&
		u.PartyName == nil && u.Status == nil
}

func (s *ReservationRepo) Update(ctx context.Context, id int64, u ReservationUpdate) (Reservation, error) {
	set := []string{}
	args := []any{}
	i := 1
	add := func(col string, v any) {
		set = append(set, fmt.Sprintf(`%s = $%d`, col, i))
		args = append(args, v)
		i++
	}
	if u.FlowerID != nil {
		add(`flower_id`, *u.FlowerID)
	}
	if u.Quantity != nil {
		add(`quantity`, *u.Quantity)
	}
	if u.SellDate != nil {
		add(`sell_date`, *u.SellDate)
	}
	if u.PartyName != nil {
		add(`party_name`, *u.PartyName)
	}
	if u.Status != nil {
		add(`status`, *u.Status)
	}
	if len(set) == 0 {
		return Reservation{}, ErrInvalidInput
	}
	args = append(args, id)

	sql := fmt.Sprintf(`UPDATE reservations SET %s WHERE id=$%d RETURNING `+reservationCols,
		strings.Join(set, ", "), i)
	r, err := scanReservation(s.DB.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return Reservation{}, ErrNotFound
	}
	return r, err
}

func (s *ReservationRepo) Delete(ctx context.Context, id int64) error {
	ct, err := s.DB.Exec(ctx, `DELETE FROM reservations WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteProcessed purges every processed reservation in one statement
// and reports exactly which ids went away.
func (s *ReservationRepo) DeleteProcessed(ctx context.Context) ([]int64, error) {
	rows, err := s.DB.Query(ctx,
		`DELETE FROM reservations WHERE status=$1 RETURNING id`, StatusProcessed)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Process converts a pending reservation into a stock deduction inside
// one transaction: lock the row, conditionally deduct, then either flip
// the status (retain=true) or drop the row (retain=false, parity with
// the delete-on-process behavior). Any failure rolls the whole thing
// back, leaving reservation and stock untouched.
func (s *ReservationRepo) Process(ctx context.Context, id, actorID int64, retain bool) (Reservation, error) {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Reservation{}, err
	}
	defer tx.Rollback(ctx)

	r, err := scanReservation(tx.QueryRow(ctx,
		`SELECT `+reservationCols+` FROM reservations WHERE id=$1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Reservation{}, ErrNotFound
	}
	if err != nil {
		return Reservation{}, err
	}
	if r.Status == StatusProcessed {
		return Reservation{}, ErrConflict
	}

	if _, err := adjustQuantity(ctx, tx, r.FlowerID, -r.Quantity); err != nil {
		return Reservation{}, err
	}

	if retain {
		r, err = scanReservation(tx.QueryRow(ctx, `
			UPDATE reservations SET status=$2, processed_by=$3
			WHERE id=$1 RETURNING `+reservationCols,
			id, StatusProcessed, actorID))
		if err != nil {
			return Reservation{}, err
		}
	} else {
		if _, err := tx.Exec(ctx, `DELETE FROM reservations WHERE id=$1`, id); err != nil {
			return Reservation{}, err
		}
		r.Status = StatusProcessed
		r.ProcessedBy = &actorID
	}

	if err := tx.Commit(ctx); err != nil {
		return Reservation{}, err
	}
	return r, nil
}
