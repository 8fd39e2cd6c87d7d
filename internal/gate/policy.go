package gate

import "context"

// Policy defines object-level rules for a module.
// U is the user key type. Implementations check whether user may perform
// action on a loaded resource; they run after the role check succeeded.
type Policy[U any] interface {
	Can(ctx context.Context, user U, action Action, resource any) bool
}
