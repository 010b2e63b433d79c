package audithook

// Audit event actions. Each constant corresponds to one ext lifecycle hook
// and becomes the Action field of the audit event.
const (
	ActionTokenAdmitted      = "token.admitted"
	ActionTokenReprioritized = "token.reprioritized"
	ActionTokenCompleted     = "token.completed"
	ActionTokenCancelled     = "token.cancelled"
)

// CategoryToken groups the token lifecycle actions.
const CategoryToken = "admitq.token"

// ResourceToken is the Resource field used in token audit events.
const ResourceToken = "token"

// AllActions returns every action this extension can emit.
func AllActions() []string {
	return []string{
		ActionTokenAdmitted,
		ActionTokenReprioritized,
		ActionTokenCompleted,
		ActionTokenCancelled,
	}
}
