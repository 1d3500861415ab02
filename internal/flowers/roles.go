package flowers

type Role string

const (
	RoleAdmin   Role = "Admin"
	RoleManager Role = "Manager"
	RoleStaff   Role = "Staff"
)

func ValidRole(r Role) bool {
	switch r {
	case RoleAdmin, RoleManager, RoleStaff:
		return true
	}
	return false
}

// Action is a capability checked against the role grant table. Every
// call site goes through Permits; no handler compares role strings.
type Action string

const (
	ActionCreateReservation    Action = "reservation:create"
	ActionUpdateOwnReservation Action = "reservation:update-own"
	ActionUpdateAnyReservation Action = "reservation:update-any"
	ActionChangeStatus         Action = "reservation:change-status"
	ActionDeleteOwnReservation Action = "reservation:delete-own"
	ActionDeleteAnyReservation Action = "reservation:delete-any"
	ActionProcessReservation   Action = "reservation:process"
	ActionBulkDeleteProcessed  Action = "reservation:bulk-delete-processed"
	ActionCreateItem           Action = "flower:create"
	ActionUpdateItem           Action = "flower:update"
	ActionDeleteItem           Action = "flower:delete"
)

// grants is the whole authorization policy. Staff < Manager < Admin,
// except flower deletion and the bulk purge of processed reservations,
// which stay Admin-only even though Managers otherwise manage inventory.
var grants = map[Role]map[Action]bool{
	RoleStaff: {
		ActionCreateReservation:    true,
		ActionUpdateOwnReservation: true,
		ActionDeleteOwnReservation: true,
	},
	RoleManager: {
		ActionCreateReservation:    true,
		ActionUpdateOwnReservation: true,
		ActionUpdateAnyReservation: true,
		ActionChangeStatus:         true,
		ActionDeleteOwnReservation: true,
		ActionDeleteAnyReservation: true,
		ActionProcessReservation:   true,
		ActionCreateItem:           true,
		ActionUpdateItem:           true,
	},
	RoleAdmin: {
		ActionCreateReservation:    true,
		ActionUpdateOwnReservation: true,
		ActionUpdateAnyReservation: true,
		ActionChangeStatus:         true,
		ActionDeleteOwnReservation: true,
		ActionDeleteAnyReservation: true,
		ActionProcessReservation:   true,
		ActionBulkDeleteProcessed:  true,
		ActionCreateItem:           true,
		ActionUpdateItem:           true,
		ActionDeleteItem:           true,
	},
}

func Permits(role Role, action Action) bool {
	return grants[role][action]
}
