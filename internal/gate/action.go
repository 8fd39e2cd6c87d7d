package gate

// Action describes the kind of operation a user wants to perform on a module.
type Action string

const (
	ActionList          Action = "list"
	ActionRetrieve      Action = "retrieve"
	ActionCreate        Action = "create"
	ActionUpdate        Action = "update"
	ActionPartialUpdate Action = "partial_update"
	ActionDestroy       Action = "destroy"
)

// Capability is one of the four permission flags stored per role and module.
type Capability string

const (
	CanRead   Capability = "can_read"
	CanWrite  Capability = "can_write"
	CanUpdate Capability = "can_update"
	CanDelete Capability = "can_delete"
)

var actionCapabilities = map[Action]Capability{
	ActionList:          CanRead,
	ActionRetrieve:      CanRead,
	ActionCreate:        CanWrite,
	ActionUpdate:        CanUpdate,
	ActionPartialUpdate: CanUpdate,
	ActionDestroy:       CanDelete,
}

// Capability returns the flag required for the action.
// Custom actions (pdf, reports, bulk operations) have no mapping.
func (a Action) Capability() (Capability, bool) {
	c, ok := actionCapabilities[a]
	return c, ok
}
