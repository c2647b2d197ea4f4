package layers

import "github.com/MateenKhan/tracedraw/pkg/model"

// LeafInfo is the engine's read-only view of an externally owned drawable.
// The canvas owns geometry and styling; the engine only ever touches the
// container assignment, the lock/visibility flags, and the paint index.
type LeafInfo struct {
	ID         model.ID
	Name       string
	Kind       string // shape kind, used by the type filter ("path", "rect", ...)
	Container  model.ID
	Locked     bool
	Visible    bool
	PaintIndex int // 0 = backmost
}

// ChangeKind identifies a canvas change notification.
type ChangeKind int

const (
	// LeafAdded means a new drawable appeared on the canvas.
	LeafAdded ChangeKind = iota
	// LeafRemoved means a drawable was deleted by the canvas.
	LeafRemoved
	// LeafModified means a drawable's renderer-owned fields changed.
	LeafModified
)

// Change describes a single canvas-side mutation.
type Change struct {
	Kind ChangeKind
	ID   model.ID
}

// Canvas is the rendering collaborator. All methods are synchronous; the
// engine and the canvas run on the same thread. The canvas never writes a
// leaf's container assignment or paint index (those belong to the engine),
// and the engine never reads renderer-owned geometry.
type Canvas interface {
	// EnumerateLeaves returns every drawable in current paint order,
	// ascending (index 0 = backmost).
	EnumerateLeaves() []LeafInfo

	// LeafContainer returns the container assignment of a leaf.
	LeafContainer(id model.ID) (model.ID, bool)

	// SetLeafContainer reassigns a leaf to a group.
	SetLeafContainer(id, group model.ID) error

	// SetLeafLocked sets the externally visible lock flag of a leaf.
	SetLeafLocked(id model.ID, locked bool) error

	// SetLeafVisible sets the externally visible visibility flag of a leaf.
	SetLeafVisible(id model.ID, visible bool) error

	// ReorderLeaf moves a leaf to the given paint index.
	ReorderLeaf(id model.ID, paintIndex int) error

	// DuplicateLeaf clones a drawable with a deterministic positional
	// offset and returns the clone.
	DuplicateLeaf(id model.ID) (LeafInfo, error)

	// RemoveLeaf deletes a drawable (cascading group deletion).
	RemoveLeaf(id model.ID) error
}
