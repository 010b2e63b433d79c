package admitq

// Role is the typed caller role evaluated by the engine's capability
// checks. The engine does not authenticate callers; the surrounding
// application resolves credentials to an Actor before calling in.
type Role string

const (
	// RolePatient may admit themselves and cancel their own token.
	RolePatient Role = "patient"
	// RoleStaff may admit on behalf of a patient, reprioritize, complete,
	// and cancel any token.
	RoleStaff Role = "staff"
	// RoleAdmin has the same queue capabilities as staff.
	RoleAdmin Role = "admin"
)

// Actor represents an authenticated caller.
type Actor struct {
	// ID is the authenticated user/service ID.
	ID string `json:"id"`

	// Name is the caller's display name.
	Name string `json:"name,omitempty"`

	// Phone is the caller's contact number, carried onto tokens the
	// caller admits for themselves.
	Phone string `json:"phone,omitempty"`

	// Role determines which operations are permitted.
	Role Role `json:"role"`
}

// CanManageQueue reports whether the actor may reprioritize or complete
// tokens.
func (a Actor) CanManageQueue() bool {
	return a.Role == RoleStaff || a.Role == RoleAdmin
}

// CanCancel reports whether the actor may cancel the token owned by the
// given patient ID. Patients may cancel their own token; staff and admin
// may cancel any.
func (a Actor) CanCancel(patientID string) bool {
	if a.CanManageQueue() {
		return true
	}
	return a.Role == RolePatient && a.ID == patientID
}

// CanRead reports whether the actor may read the token owned by the given
// patient ID.
func (a Actor) CanRead(patientID string) bool {
	if a.CanManageQueue() {
		return true
	}
	return a.ID == patientID
}
