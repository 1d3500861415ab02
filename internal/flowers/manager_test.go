package flowers

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore backs the manager in tests. One mutex guards every mutation,
// so Process keeps the same all-or-nothing semantics as the SQL repo.
type memStore struct {
	mu     sync.Mutex
	items  map[int64]Flower
	resv   map[int64]Reservation
	alerts []Flower
	nextID int64

	*memAudit
}

func newMemStore() *memStore {
	return &memStore{
		items:    map[int64]Flower{},
		resv:     map[int64]Reservation{},
		memAudit: &memAudit{},
	}
}

func (s *memStore) id() int64 { s.nextID++; return s.nextID }

// InventoryStore

func (s *memStore) GetItem(_ context.Context, id int64) (Flower, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.items[id]
	if !ok {
		return Flower{}, ErrNotFound
	}
	return f, nil
}

func (s *memStore) ListItems(_ context.Context) ([]Flower, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Flower
	for _, f := range s.items {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *memStore) SearchItems(_ context.Context, name string, minQty int) ([]Flower, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Flower
	for _, f := range s.items {
		if name != "" && !strings.Contains(strings.ToLower(f.Name), strings.ToLower(name)) {
			continue
		}
		if minQty >= 0 && f.Quantity < minQty {
			continue
		}
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *memStore) CreateItem(_ context.Context, f Flower) (Flower, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f.ID = s.id()
	s.items[f.ID] = f
	return f, nil
}

func (s *memStore) UpdateItem(_ context.Context, f Flower) (Flower, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[f.ID]; !ok {
		return Flower{}, ErrNotFound
	}
	s.items[f.ID] = f
	return f, nil
}

func (s *memStore) DeleteItemCascade(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return ErrNotFound
	}
	for rid, r := range s.resv {
		if r.FlowerID == id {
			delete(s.resv, rid)
		}
	}
	delete(s.items, id)
	return nil
}

func (s *memStore) AdjustQuantity(_ context.Context, id int64, delta int) (Flower, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.adjustLocked(id, delta)
}

func (s *memStore) adjustLocked(id int64, delta int) (Flower, error) {
	f, ok := s.items[id]
	if !ok {
		return Flower{}, ErrNotFound
	}
	if f.Quantity+delta < 0 {
		return Flower{}, ErrInsufficientStock
	}
	f.Quantity += delta
	s.items[id] = f
	return f, nil
}

func (s *memStore) ListLowStock(_ context.Context) ([]LowStockItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []LowStockItem
	for _, f := range s.items {
		if f.Quantity <= f.Threshold {
			out = append(out, LowStockItem{
				Flower:   f,
				Shortage: f.Threshold - f.Quantity,
				Label:    StockLabel(f.Quantity),
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Shortage > out[j].Shortage })
	return out, nil
}

// ReservationStore

func (s *memStore) Get(_ context.Context, id int64) (Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.resv[id]
	if !ok {
		return Reservation{}, ErrNotFound
	}
	return r, nil
}

func (s *memStore) List(_ context.Context, f ReservationFilter) ([]Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Reservation
	for _, r := range s.resv {
		if f.UserID != 0 && r.UserID != f.UserID {
			continue
		}
		if f.ProcessedBy != 0 && (r.ProcessedBy == nil || *r.ProcessedBy != f.ProcessedBy) {
			continue
		}
		if f.PartyName != "" && !strings.Contains(strings.ToLower(r.PartyName), strings.ToLower(f.PartyName)) {
			continue
		}
		if f.FlowerName != "" {
			fl, ok := s.items[r.FlowerID]
			if !ok || !strings.Contains(strings.ToLower(fl.Name), strings.ToLower(f.FlowerName)) {
				continue
			}
		}
		if f.Month != "" && r.SellDate.Format("2006-01") != f.Month {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) Create(_ context.Context, r Reservation) (Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = s.id()
	r.Status = StatusPending
	s.resv[r.ID] = r
	return r, nil
}

func (s *memStore) Update(_ context.Context, id int64, u ReservationUpdate) (Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.resv[id]
	if !ok {
		return Reservation{}, ErrNotFound
	}
	if u.Empty() {
		return Reservation{}, ErrInvalidInput
	}
	if u.FlowerID != nil {
		r.FlowerID = *u.FlowerID
	}
	if u.Quantity != nil {
		r.Quantity = *u.Quantity
	}
	if u.SellDate != nil {
		r.SellDate = *u.SellDate
	}
	if u.PartyName != nil {
		r.PartyName = *u.PartyName
	}
	if u.Status != nil {
		r.Status = *u.Status
	}
	s.resv[id] = r
	return r, nil
}

func (s *memStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.resv[id]; !ok {
		return ErrNotFound
	}
	delete(s.resv, id)
	return nil
}

func (s *memStore) DeleteProcessed(_ context.Context) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []int64
	for id, r := range s.resv {
		if r.Status == StatusProcessed {
			ids = append(ids, id)
			delete(s.resv, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *memStore) Process(_ context.Context, id, actorID int64, retain bool) (Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.resv[id]
	if !ok {
		return Reservation{}, ErrNotFound
	}
	if r.Status == StatusProcessed {
		return Reservation{}, ErrConflict
	}
	if _, err := s.adjustLocked(r.FlowerID, -r.Quantity); err != nil {
		return Reservation{}, err
	}
	r.Status = StatusProcessed
	r.ProcessedBy = &actorID
	if retain {
		s.resv[id] = r
	} else {
		delete(s.resv, id)
	}
	return r, nil
}

// AuditLog

type memAudit struct {
	mu      sync.Mutex
	entries []AuditEntry
	nextID  int64
}

func (a *memAudit) Record(_ context.Context, userID int64, action AuditAction, details string, reservationID *int64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nextID++
	e := AuditEntry{
		ID:        a.nextID,
		UserID:    userID,
		Action:    action,
		Details:   details,
		Timestamp: time.Now(),
	}
	if reservationID != nil {
		v := *reservationID
		e.ReservationID = &v
	}
	a.entries = append(a.entries, e)
	return nil
}

func (a *memAudit) Supersede(_ context.Context, reservationID int64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	kept := a.entries[:0]
	for _, e := range a.entries {
		if e.ReservationID == nil || *e.ReservationID != reservationID {
			kept = append(kept, e)
		}
	}
	a.entries = kept
	return nil
}

func (a *memAudit) List(_ context.Context) ([]AuditEntry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]AuditEntry, len(a.entries))
	copy(out, a.entries)
	return out, nil
}

func (a *memAudit) auditsFor(reservationID int64) []AuditEntry {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []AuditEntry
	for _, e := range a.entries {
		if e.ReservationID != nil && *e.ReservationID == reservationID {
			out = append(out, e)
		}
	}
	return out
}

// Notifier

func (s *memStore) StockLow(_ context.Context, f Flower) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, f)
}

func newTestManager(t *testing.T) (*Manager, *memStore) {
	t.Helper()
	ms := newMemStore()
	return &Manager{
		Inventory:       ms,
		Reservations:    ms,
		Audit:           ms.memAudit,
		Notifier:        ms,
		RetainProcessed: true,
	}, ms
}

var (
	admin   = Actor{ID: 1, Role: RoleAdmin}
	manager = Actor{ID: 2, Role: RoleManager}
	staff   = Actor{ID: 3, Role: RoleStaff}

	sellDate = time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC)
)

func seedFlower(t *testing.T, ms *memStore, qty, threshold int) Flower {
	t.Helper()
	f, err := ms.CreateItem(context.Background(), Flower{
		Name: "Rose", Description: "red", Quantity: qty, Threshold: threshold,
	})
	require.NoError(t, err)
	return f
}

func seedReservation(t *testing.T, m *Manager, actor Actor, flowerID int64, qty int) Reservation {
	t.Helper()
	r, err := m.CreateReservation(context.Background(), actor, CreateReservationInput{
		FlowerID: flowerID, Quantity: qty, SellDate: sellDate, PartyName: "Wedding",
	})
	require.NoError(t, err)
	return r
}

func TestCreateReservation(t *testing.T) {
	m, ms := newTestManager(t)
	f := seedFlower(t, ms, 10, 2)

	r := seedReservation(t, m, staff, f.ID, 4)
	assert.Equal(t, StatusPending, r.Status)
	assert.Equal(t, staff.ID, r.UserID)

	// A reservation is a claim of intent; stock is untouched.
	got, err := ms.GetItem(context.Background(), f.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Quantity)

	entries := ms.auditsFor(r.ID)
	require.Len(t, entries, 1)
	assert.Equal(t, AuditCreateReservation, entries[0].Action)
}

func TestCreateReservationValidation(t *testing.T) {
	m, ms := newTestManager(t)
	f := seedFlower(t, ms, 10, 2)

	ctx := context.Background()
	_, err := m.CreateReservation(ctx, staff, CreateReservationInput{
		FlowerID: f.ID, Quantity: 0, SellDate: sellDate, PartyName: "Wedding",
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = m.CreateReservation(ctx, staff, CreateReservationInput{
		FlowerID: 999, Quantity: 1, SellDate: sellDate, PartyName: "Wedding",
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateReservation(t *testing.T) {
	m, ms := newTestManager(t)
	f := seedFlower(t, ms, 10, 2)
	r := seedReservation(t, m, staff, f.ID, 4)
	ctx := context.Background()

	qty := 6
	out, err := m.UpdateReservation(ctx, staff, r.ID, ReservationUpdate{Quantity: &qty})
	require.NoError(t, err)
	assert.Equal(t, 6, out.Quantity)

	// Updates supersede older audit lines: one authoritative entry left.
	entries := ms.auditsFor(r.ID)
	require.Len(t, entries, 1)
	assert.Equal(t, AuditUpdateReservation, entries[0].Action)
}

func TestUpdateReservationAuthorization(t *testing.T) {
	m, ms := newTestManager(t)
	f := seedFlower(t, ms, 10, 2)
	r := seedReservation(t, m, staff, f.ID, 4)
	ctx := context.Background()

	otherStaff := Actor{ID: 99, Role: RoleStaff}
	qty := 6
	_, err := m.UpdateReservation(ctx, otherStaff, r.ID, ReservationUpdate{Quantity: &qty})
	assert.ErrorIs(t, err, ErrForbidden)

	// Staff may never flip status, not even on their own reservation.
	st := StatusProcessed
	_, err = m.UpdateReservation(ctx, staff, r.ID, ReservationUpdate{Status: &st})
	assert.ErrorIs(t, err, ErrForbidden)

	// Managers may.
	_, err = m.UpdateReservation(ctx, manager, r.ID, ReservationUpdate{Status: &st})
	assert.NoError(t, err)

	// Empty update is a bad request.
	_, err = m.UpdateReservation(ctx, manager, r.ID, ReservationUpdate{})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = m.UpdateReservation(ctx, manager, 12345, ReservationUpdate{Quantity: &qty})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProcessReservation(t *testing.T) {
	m, ms := newTestManager(t)
	f := seedFlower(t, ms, 10, 2)
	r := seedReservation(t, m, staff, f.ID, 4)
	ctx := context.Background()

	out, err := m.ProcessReservation(ctx, manager, r.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusProcessed, out.Status)
	require.NotNil(t, out.ProcessedBy)
	assert.Equal(t, manager.ID, *out.ProcessedBy)

	got, err := ms.GetItem(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, got.Quantity)

	entries := ms.auditsFor(r.ID)
	require.Len(t, entries, 2) // create + process
	assert.Equal(t, AuditProcessReservation, entries[1].Action)

	// Processing is terminal.
	_, err = m.ProcessReservation(ctx, manager, r.ID)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestProcessReservationDeleteMode(t *testing.T) {
	m, ms := newTestManager(t)
	m.RetainProcessed = false
	f := seedFlower(t, ms, 10, 2)
	r := seedReservation(t, m, staff, f.ID, 4)
	ctx := context.Background()

	out, err := m.ProcessReservation(ctx, manager, r.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusProcessed, out.Status)

	_, err = m.GetReservation(ctx, r.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	got, _ := ms.GetItem(ctx, f.ID)
	assert.Equal(t, 6, got.Quantity)
}

func TestProcessInsufficientStock(t *testing.T) {
	m, ms := newTestManager(t)
	f := seedFlower(t, ms, 3, 1) // q-1 against a reservation for 4
	r := seedReservation(t, m, staff, f.ID, 4)
	ctx := context.Background()

	_, err := m.ProcessReservation(ctx, manager, r.ID)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	// Nothing moved: quantity and status are exactly as before.
	got, _ := ms.GetItem(ctx, f.ID)
	assert.Equal(t, 3, got.Quantity)
	res, err := m.GetReservation(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, res.Status)
}

func TestProcessForbiddenForStaff(t *testing.T) {
	m, ms := newTestManager(t)
	f := seedFlower(t, ms, 10, 2)
	r := seedReservation(t, m, staff, f.ID, 4)
	ctx := context.Background()

	_, err := m.ProcessReservation(ctx, staff, r.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	got, _ := ms.GetItem(ctx, f.ID)
	assert.Equal(t, 10, got.Quantity)
	res, _ := m.GetReservation(ctx, r.ID)
	assert.Equal(t, StatusPending, res.Status)
}

func TestProcessConcurrent(t *testing.T) {
	m, ms := newTestManager(t)
	f := seedFlower(t, ms, 5, 0)
	r1 := seedReservation(t, m, staff, f.ID, 4)
	r2 := seedReservation(t, m, staff, f.ID, 4)
	ctx := context.Background()

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for _, id := range []int64{r1.ID, r2.ID} {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			_, err := m.ProcessReservation(ctx, manager, id)
			errs <- err
		}(id)
	}
	wg.Wait()
	close(errs)

	var ok, short int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case assert.ErrorIs(t, err, ErrInsufficientStock):
			short++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, short)

	got, _ := ms.GetItem(ctx, f.ID)
	assert.Equal(t, 1, got.Quantity) // 5 - 4 from the single winner
}

func TestDeleteReservation(t *testing.T) {
	m, ms := newTestManager(t)
	f := seedFlower(t, ms, 10, 2)
	ctx := context.Background()

	mine := seedReservation(t, m, staff, f.ID, 2)
	theirs := seedReservation(t, m, Actor{ID: 42, Role: RoleStaff}, f.ID, 2)

	require.NoError(t, m.DeleteReservation(ctx, staff, mine.ID))
	assert.ErrorIs(t, m.DeleteReservation(ctx, staff, theirs.ID), ErrForbidden)
	require.NoError(t, m.DeleteReservation(ctx, manager, theirs.ID))

	// History survives deletion: the delete entry still links the id.
	entries := ms.auditsFor(mine.ID)
	require.NotEmpty(t, entries)
	assert.Equal(t, AuditDeleteReservation, entries[len(entries)-1].Action)
}

func TestDeleteAllProcessed(t *testing.T) {
	m, ms := newTestManager(t)
	f := seedFlower(t, ms, 20, 2)
	ctx := context.Background()

	p1 := seedReservation(t, m, staff, f.ID, 2)
	p2 := seedReservation(t, m, staff, f.ID, 3)
	pending := seedReservation(t, m, staff, f.ID, 4)
	_, err := m.ProcessReservation(ctx, manager, p1.ID)
	require.NoError(t, err)
	_, err = m.ProcessReservation(ctx, manager, p2.ID)
	require.NoError(t, err)

	_, err = m.DeleteAllProcessed(ctx, manager)
	assert.ErrorIs(t, err, ErrForbidden) // Admin-exclusive, Managers included

	ids, err := m.DeleteAllProcessed(ctx, admin)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{p1.ID, p2.ID}, ids)

	// Pending reservations are untouched.
	_, err = m.GetReservation(ctx, pending.ID)
	assert.NoError(t, err)

	// One audit entry per deleted id.
	for _, id := range ids {
		var bulk int
		for _, e := range ms.auditsFor(id) {
			if e.Action == AuditBulkDeleteProcessed {
				bulk++
			}
		}
		assert.Equal(t, 1, bulk, "id %d", id)
	}
}

func TestDeleteItemCascade(t *testing.T) {
	m, ms := newTestManager(t)
	f := seedFlower(t, ms, 10, 2)
	r := seedReservation(t, m, staff, f.ID, 2)
	ctx := context.Background()

	assert.ErrorIs(t, m.DeleteItem(ctx, manager, f.ID), ErrForbidden)
	assert.ErrorIs(t, m.DeleteItem(ctx, admin, 999), ErrNotFound)

	require.NoError(t, m.DeleteItem(ctx, admin, f.ID))
	_, err := m.GetReservation(ctx, r.ID)
	assert.ErrorIs(t, err, ErrNotFound, "no reservation outlives its flower")
}

func TestItemManagement(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	_, err := m.CreateItem(ctx, staff, Flower{Name: "Tulip", Quantity: 5})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = m.CreateItem(ctx, manager, Flower{Name: "", Quantity: 5})
	assert.ErrorIs(t, err, ErrInvalidInput)

	f, err := m.CreateItem(ctx, manager, Flower{Name: "Tulip", Quantity: 5, Threshold: 1})
	require.NoError(t, err)

	f.Quantity = 7
	out, err := m.UpdateItem(ctx, manager, f)
	require.NoError(t, err)
	assert.Equal(t, 7, out.Quantity)
}

func TestEndToEndOutOfStock(t *testing.T) {
	m, ms := newTestManager(t)
	ctx := context.Background()

	f, err := m.CreateItem(ctx, admin, Flower{Name: "Lily", Quantity: 10, Threshold: 2})
	require.NoError(t, err)
	r := seedReservation(t, m, staff, f.ID, 10)

	out, err := m.ProcessReservation(ctx, manager, r.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusProcessed, out.Status)

	got, _ := ms.GetItem(ctx, f.ID)
	assert.Equal(t, 0, got.Quantity)

	assert.True(t, m.CheckLowStock(ctx, f.ID))
	low, err := m.ListLowStock(ctx)
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, LabelOutOfStock, low[0].Label)

	// The processing itself already tripped the signal once.
	require.NotEmpty(t, ms.alerts)
	assert.Equal(t, f.ID, ms.alerts[0].ID)
}

func TestEndToEndSecondShortfall(t *testing.T) {
	m, ms := newTestManager(t)
	ctx := context.Background()

	f, err := m.CreateItem(ctx, admin, Flower{Name: "Iris", Quantity: 5, Threshold: 0})
	require.NoError(t, err)
	r1 := seedReservation(t, m, staff, f.ID, 3)
	r2 := seedReservation(t, m, staff, f.ID, 3)

	_, err = m.ProcessReservation(ctx, manager, r1.ID)
	require.NoError(t, err)
	got, _ := ms.GetItem(ctx, f.ID)
	assert.Equal(t, 2, got.Quantity)

	_, err = m.ProcessReservation(ctx, manager, r2.ID)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	got, _ = ms.GetItem(ctx, f.ID)
	assert.Equal(t, 2, got.Quantity)
	res, _ := m.GetReservation(ctx, r2.ID)
	assert.Equal(t, StatusPending, res.Status)
}

func TestListReservationsFilter(t *testing.T) {
	m, ms := newTestManager(t)
	f := seedFlower(t, ms, 20, 2)
	ctx := context.Background()

	seedReservation(t, m, staff, f.ID, 2)
	other, err := m.CreateReservation(ctx, Actor{ID: 42, Role: RoleStaff}, CreateReservationInput{
		FlowerID: f.ID, Quantity: 1,
		SellDate:  time.Date(2026, 12, 24, 0, 0, 0, 0, time.UTC),
		PartyName: "Christmas Gala",
	})
	require.NoError(t, err)

	out, err := m.ListReservations(ctx, ReservationFilter{UserID: 42})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, other.ID, out[0].ID)

	out, err = m.ListReservations(ctx, ReservationFilter{Month: "2026-12"})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, other.ID, out[0].ID)

	_, err = m.ListReservations(ctx, ReservationFilter{Month: "December"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
