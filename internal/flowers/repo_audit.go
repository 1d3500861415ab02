package flowers

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type AuditRepo struct{ DB *pgxpool.Pool }

// Record appends one entry. The timestamp is assigned by the store.
func (a *AuditRepo) Record(ctx context.Context, userID int64, action AuditAction, details string, reservationID *int64) error {
	_, err := a.DB.Exec(ctx, `
		INSERT INTO audit_logs(user_id, action, details, reservation_id)
		VALUES ($1, $2, $3, $4)`,
		userID, action, details, reservationID)
	return err
}

// Supersede drops prior entries linked to a reservation so the next
// Record leaves one authoritative line per reservation state. Keyed on
// the structural reservation_id column, not a substring match.
func (a *AuditRepo) Supersede(ctx context.Context, reservationID int64) error {
	_, err := a.DB.Exec(ctx,
		`DELETE FROM audit_logs WHERE reservation_id=$1`, reservationID)
	return err
}

func (a *AuditRepo) List(ctx context.Context) ([]AuditEntry, error) {
	rows, err := a.DB.Query(ctx, `
		SELECT l.id, l.user_id, l.action, l.details, l.reservation_id, l.timestamp, u.username
		FROM audit_logs l
		JOIN users u ON u.id = l.user_id
		ORDER BY l.timestamp DESC, l.id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AuditEntry
	for rows.Next() {
		var e AuditEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Action, &e.Details,
			&e.ReservationID, &e.Timestamp, &e.Username); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
