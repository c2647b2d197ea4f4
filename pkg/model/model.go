// Package model defines the core records of the tracedraw layer tree:
// container nodes (the user-facing "projects" and "layers") and the
// engine-visible view of externally owned drawable leaves.
package model

import "github.com/google/uuid"

// ID is an opaque unique identifier for nodes and leaves.
type ID string

// Nil is the zero ID. The root node's Parent is Nil.
const Nil ID = ""

// NewID returns a fresh random ID.
func NewID() ID {
	return ID(uuid.NewString())
}

// NodeKind classifies a container node. Projects and groups are structurally
// identical; the kind only changes the display label and the auto-naming
// prefix.
type NodeKind int

const (
	// KindRoot is the single document root. It has no parent, cannot be
	// deleted, renamed, or reparented.
	KindRoot NodeKind = iota
	// KindProject is a top-level container flavor.
	KindProject
	// KindGroup is a nested container flavor.
	KindGroup
)

// String returns the display label for the kind.
func (k NodeKind) String() string {
	switch k {
	case KindRoot:
		return "Root"
	case KindProject:
		return "Project"
	case KindGroup:
		return "Group"
	default:
		return "Unknown"
	}
}

// NamePrefix returns the auto-naming prefix used by node creation
// ("Project-N" / "Group-N").
func (k NodeKind) NamePrefix() string {
	if k == KindProject {
		return "Project"
	}
	return "Group"
}

// Node is a container in the layer tree. Children order is paint order,
// nearest-to-top first.
type Node struct {
	ID       ID       `json:"id"`
	Kind     NodeKind `json:"kind"`
	Name     string   `json:"name"`
	Parent   ID       `json:"parent,omitempty"` // Nil for the root
	Children []ID     `json:"children,omitempty"` // ordered, front of list = top of panel
	Expanded bool     `json:"expanded"` // view-only; does not affect structural validity
	Locked   bool     `json:"locked"`   // forces descendants into a non-interactive state
	Visible  bool     `json:"visible"`  // hiding a node hides every descendant leaf
}

// Clone returns a deep copy of the node (fresh Children slice, same IDs).
func (n *Node) Clone() *Node {
	c := *n
	c.Children = append([]ID(nil), n.Children...)
	return &c
}
