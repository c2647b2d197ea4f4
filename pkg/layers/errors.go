package layers

import "errors"

// Sentinel errors for operation failures. Operations that reference an id no
// longer present are silent no-ops and return nil; these errors cover the
// cases that must surface to the user or abort a drag.
var (
	// ErrStructural is returned when an operation would violate the tree's
	// structural guarantees: deleting or reparenting the root or the base
	// group, or renaming the root.
	ErrStructural = errors.New("operation not allowed on root or base layer")

	// ErrInvalidDrop is returned when a drag gesture cannot be committed:
	// the drop target is unresolved, the item was dropped onto itself in a
	// way that means nothing, or committing would create a cycle.
	ErrInvalidDrop = errors.New("invalid drop target")

	// ErrDragActive is returned when a second drag is started while one is
	// already in progress.
	ErrDragActive = errors.New("drag already in progress")
)
