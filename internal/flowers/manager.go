package flowers

import (
	"context"
	"fmt"
	"log"
	"time"
)

// InventoryStore owns stock quantities and thresholds.
type InventoryStore interface {
	GetItem(ctx context.Context, id int64) (Flower, error)
	ListItems(ctx context.Context) ([]Flower, error)
	SearchItems(ctx context.Context, name string, minQty int) ([]Flower, error)
	CreateItem(ctx context.Context, f Flower) (Flower, error)
	UpdateItem(ctx context.Context, f Flower) (Flower, error)
	DeleteItemCascade(ctx context.Context, id int64) error
	AdjustQuantity(ctx context.Context, id int64, delta int) (Flower, error)
	ListLowStock(ctx context.Context) ([]LowStockItem, error)
}

// ReservationStore owns reservation rows. Process runs its whole
// load/deduct/flip sequence atomically.
type ReservationStore interface {
	Get(ctx context.Context, id int64) (Reservation, error)
	List(ctx context.Context, f ReservationFilter) ([]Reservation, error)
	Create(ctx context.Context, r Reservation) (Reservation, error)
	Update(ctx context.Context, id int64, u ReservationUpdate) (Reservation, error)
	Delete(ctx context.Context, id int64) error
	DeleteProcessed(ctx context.Context) ([]int64, error)
	Process(ctx context.Context, id, actorID int64, retain bool) (Reservation, error)
}

// AuditLog is append-only; callers treat writes as fire-and-forget.
type AuditLog interface {
	Record(ctx context.Context, userID int64, action AuditAction, details string, reservationID *int64) error
	Supersede(ctx context.Context, reservationID int64) error
	List(ctx context.Context) ([]AuditEntry, error)
}

// Notifier receives the low-stock diagnostic signal. Best-effort: a
// failed or absent notifier never fails the operation that tripped it.
type Notifier interface {
	StockLow(ctx context.Context, f Flower)
}

// Manager mediates every mutating operation: authorization first, then
// the store mutation, then an audit entry on success.
type Manager struct {
	Inventory       InventoryStore
	Reservations    ReservationStore
	Audit           AuditLog
	Notifier        Notifier
	RetainProcessed bool // false = delete-on-process parity mode
}

func (m *Manager) audit(ctx context.Context, userID int64, action AuditAction, details string, reservationID *int64) {
	if err := m.Audit.Record(ctx, userID, action, details, reservationID); err != nil {
		log.Printf("audit log: %v", err)
	}
}

type CreateReservationInput struct {
	FlowerID  int64
	Quantity  int
	SellDate  time.Time
	PartyName string
}

// CreateReservation records a claim of intent; no stock moves until the
// reservation is processed.
func (m *Manager) CreateReservation(ctx context.Context, actor Actor, in CreateReservationInput) (Reservation, error) {
	if !Permits(actor.Role, ActionCreateReservation) {
		return Reservation{}, ErrForbidden
	}
	if in.FlowerID <= 0 || in.Quantity <= 0 || in.PartyName == "" || in.SellDate.IsZero() {
		return Reservation{}, ErrInvalidInput
	}
	if _, err := m.Inventory.GetItem(ctx, in.FlowerID); err != nil {
		return Reservation{}, err
	}
	r, err := m.Reservations.Create(ctx, Reservation{
		UserID:    actor.ID,
		FlowerID:  in.FlowerID,
		Quantity:  in.Quantity,
		SellDate:  in.SellDate,
		PartyName: in.PartyName,
		Status:    StatusPending,
	})
	if err != nil {
		return Reservation{}, err
	}
	m.audit(ctx, actor.ID, AuditCreateReservation,
		fmt.Sprintf("Created reservation with ID %d", r.ID), &r.ID)
	return r, nil
}

func (m *Manager) GetReservation(ctx context.Context, id int64) (Reservation, error) {
	return m.Reservations.Get(ctx, id)
}

func (m *Manager) ListReservations(ctx context.Context, f ReservationFilter) ([]Reservation, error) {
	if f.Month != "" {
		if _, err := time.Parse("2006-01", f.Month); err != nil {
			return nil, ErrInvalidInput
		}
	}
	return m.Reservations.List(ctx, f)
}

// UpdateReservation applies a partial update. Owners may touch their own
// pending reservation's fields; Admin and Manager may touch any, status
// included. A status change always needs the change-status capability,
// so Staff can never flip one.
func (m *Manager) UpdateReservation(ctx context.Context, actor Actor, id int64, u ReservationUpdate) (Reservation, error) {
	if u.Empty() {
		return Reservation{}, ErrInvalidInput
	}
	r, err := m.Reservations.Get(ctx, id)
	if err != nil {
		return Reservation{}, err
	}

	switch {
	case Permits(actor.Role, ActionUpdateAnyReservation):
	case Permits(actor.Role, ActionUpdateOwnReservation) && r.UserID == actor.ID && r.Status == StatusPending:
	default:
		return Reservation{}, ErrForbidden
	}
	if u.Status != nil && !Permits(actor.Role, ActionChangeStatus) {
		return Reservation{}, ErrForbidden
	}

	if u.Quantity != nil && *u.Quantity <= 0 {
		return Reservation{}, ErrInvalidInput
	}
	if u.Status != nil && *u.Status != StatusPending && *u.Status != StatusProcessed {
		return Reservation{}, ErrInvalidInput
	}
	if u.FlowerID != nil {
		if _, err := m.Inventory.GetItem(ctx, *u.FlowerID); err != nil {
			return Reservation{}, err
		}
	}

	out, err := m.Reservations.Update(ctx, id, u)
	if err != nil {
		return Reservation{}, err
	}
	// One authoritative audit line per reservation state.
	if err := m.Audit.Supersede(ctx, id); err != nil {
		log.Printf("audit supersede: %v", err)
	}
	m.audit(ctx, actor.ID, AuditUpdateReservation,
		fmt.Sprintf("Updated reservation with ID %d", id), &id)
	return out, nil
}

// ProcessReservation is the single point where a pending claim becomes a
// real deduction. The store runs the transition atomically; the
// low-stock check afterwards is best-effort and cannot undo it.
func (m *Manager) ProcessReservation(ctx context.Context, actor Actor, id int64) (Reservation, error) {
	if !Permits(actor.Role, ActionProcessReservation) {
		return Reservation{}, ErrForbidden
	}
	r, err := m.Reservations.Process(ctx, id, actor.ID, m.RetainProcessed)
	if err != nil {
		return Reservation{}, err
	}
	m.audit(ctx, actor.ID, AuditProcessReservation,
		fmt.Sprintf("Processed reservation ID: %d for flower ID: %d", r.ID, r.FlowerID), &r.ID)
	m.CheckLowStock(ctx, r.FlowerID)
	return r, nil
}

// CheckLowStock reports whether the flower sits at or below its
// threshold and, when it does, emits the diagnostic signal.
func (m *Manager) CheckLowStock(ctx context.Context, flowerID int64) bool {
	f, err := m.Inventory.GetItem(ctx, flowerID)
	if err != nil {
		log.Printf("low stock check flower %d: %v", flowerID, err)
		return false
	}
	if f.Quantity > f.Threshold {
		return false
	}
	if m.Notifier != nil {
		m.Notifier.StockLow(ctx, f)
	}
	return true
}

func (m *Manager) DeleteReservation(ctx context.Context, actor Actor, id int64) error {
	r, err := m.Reservations.Get(ctx, id)
	if err != nil {
		return err
	}
	switch {
	case Permits(actor.Role, ActionDeleteAnyReservation):
	case Permits(actor.Role, ActionDeleteOwnReservation) && r.UserID == actor.ID:
	default:
		return ErrForbidden
	}
	if err := m.Reservations.Delete(ctx, id); err != nil {
		return err
	}
	// The linked id is allowed to dangle; history survives deletion.
	m.audit(ctx, actor.ID, AuditDeleteReservation,
		fmt.Sprintf("Deleted reservation with ID %d", id), &id)
	return nil
}

// DeleteAllProcessed purges processed reservations and emits one audit
// entry per deleted id, keeping one-entry-per-state-change intact.
func (m *Manager) DeleteAllProcessed(ctx context.Context, actor Actor) ([]int64, error) {
	if !Permits(actor.Role, ActionBulkDeleteProcessed) {
		return nil, ErrForbidden
	}
	ids, err := m.Reservations.DeleteProcessed(ctx)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		id := id
		m.audit(ctx, actor.ID, AuditBulkDeleteProcessed,
			fmt.Sprintf("Deleted processed reservation with ID %d", id), &id)
	}
	return ids, nil
}

func (m *Manager) GetItem(ctx context.Context, id int64) (Flower, error) {
	return m.Inventory.GetItem(ctx, id)
}

func (m *Manager) ListItems(ctx context.Context) ([]Flower, error) {
	return m.Inventory.ListItems(ctx)
}

func (m *Manager) SearchItems(ctx context.Context, name string, minQty int) ([]Flower, error) {
	return m.Inventory.SearchItems(ctx, name, minQty)
}

func (m *Manager) ListLowStock(ctx context.Context) ([]LowStockItem, error) {
	return m.Inventory.ListLowStock(ctx)
}

func (m *Manager) CreateItem(ctx context.Context, actor Actor, f Flower) (Flower, error) {
	if !Permits(actor.Role, ActionCreateItem) {
		return Flower{}, ErrForbidden
	}
	if f.Name == "" || f.Quantity < 0 || f.Threshold < 0 {
		return Flower{}, ErrInvalidInput
	}
	return m.Inventory.CreateItem(ctx, f)
}

func (m *Manager) UpdateItem(ctx context.Context, actor Actor, f Flower) (Flower, error) {
	if !Permits(actor.Role, ActionUpdateItem) {
		return Flower{}, ErrForbidden
	}
	if f.ID <= 0 || f.Name == "" || f.Quantity < 0 || f.Threshold < 0 {
		return Flower{}, ErrInvalidInput
	}
	return m.Inventory.UpdateItem(ctx, f)
}

// DeleteItem cascades over the item's reservations; Admin only.
func (m *Manager) DeleteItem(ctx context.Context, actor Actor, id int64) error {
	if !Permits(actor.Role, ActionDeleteItem) {
		return ErrForbidden
	}
	return m.Inventory.DeleteItemCascade(ctx, id)
}

func (m *Manager) ListAuditEntries(ctx context.Context) ([]AuditEntry, error) {
	return m.Audit.List(ctx)
}
