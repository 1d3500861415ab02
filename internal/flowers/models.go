package flowers

import "time"

type Flower struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	Threshold   int    `json:"threshold"`
}

type ReservationStatus string

const (
	StatusPending   ReservationStatus = "pending"
	StatusProcessed ReservationStatus = "processed"
)

type Reservation struct {
	ID          int64             `json:"id"`
	UserID      int64             `json:"user_id"`
	FlowerID    int64             `json:"flower_id"`
	Quantity    int               `json:"quantity"`
	SellDate    time.Time         `json:"sell_date"`
	PartyName   string            `json:"party_name"`
	Status      ReservationStatus `json:"status"`
	ProcessedBy *int64            `json:"processed_by,omitempty"`
}

// AuditAction tags the kind of mutation an audit entry records.
type AuditAction string

const (
	AuditCreateReservation   AuditAction = "CREATE_RESERVATION"
	AuditUpdateReservation   AuditAction = "UPDATE_RESERVATION"
	AuditDeleteReservation   AuditAction = "DELETE_RESERVATION"
	AuditProcessReservation  AuditAction = "PROCESS_RESERVATION"
	AuditBulkDeleteProcessed AuditAction = "BULK_DELETE_PROCESSED"
)

// AuditEntry is append-only. ReservationID is a structural link; it may
// dangle once the reservation itself is deleted.
type AuditEntry struct {
	ID            int64       `json:"id"`
	UserID        int64       `json:"user_id"`
	Action        AuditAction `json:"action"`
	Details       string      `json:"details"`
	ReservationID *int64      `json:"reservation_id,omitempty"`
	Timestamp     time.Time   `json:"timestamp"`
	Username      string      `json:"username,omitempty"` // filled on listing only
}

// Actor is the verified principal handed in by the auth boundary.
type Actor struct {
	ID   int64
	Role Role
}

const (
	LabelOutOfStock = "Out of Stock"
	LabelLowStock   = "Low Stock"
)

// LowStockItem annotates a flower at or below its threshold.
type LowStockItem struct {
	Flower
	Shortage int    `json:"shortage"`
	Label    string `json:"label"`
}

// StockLabel derives the display label for a flower already known to be
// at or below its threshold.
func StockLabel(quantity int) string {
	if quantity == 0 {
		return LabelOutOfStock
	}
	return LabelLowStock
}
