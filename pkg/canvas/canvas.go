// Package canvas provides the in-memory reference canvas: a flat shape
// store with an explicit paint order that implements the engine's Canvas
// contract. The real renderer in a drawing app sits behind the same
// interface; this implementation backs the TUI, the document store, and the
// exporters.
package canvas

import (
	"fmt"

	"github.com/MateenKhan/tracedraw/pkg/layers"
	"github.com/MateenKhan/tracedraw/pkg/model"
)

// DuplicateOffset is the positional nudge applied to duplicated shapes so
// the copy is visibly distinct from the original.
const DuplicateOffset = 10

// Shape is one drawable. The canvas owns geometry and styling; the layer
// engine only ever reads or writes Container, Locked, Visible, and the paint
// position.
type Shape struct {
	ID        model.ID `json:"id"`
	Name      string   `json:"name"`
	Kind      string   `json:"kind"` // "rect", "ellipse", "path", "text"
	Container model.ID `json:"container"`

	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`

	// Path points, in order, for kind "path".
	Points []Point `json:"points,omitempty"`
	// Text content for kind "text".
	Text string `json:"text,omitempty"`

	Fill        string  `json:"fill"`
	Stroke      string  `json:"stroke"`
	StrokeWidth float64 `json:"strokeWidth"`

	Locked  bool `json:"locked"`
	Visible bool `json:"visible"`
}

// Point is a single path vertex.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Clone returns a deep copy of the shape.
func (s *Shape) Clone() *Shape {
	c := *s
	c.Points = append([]Point(nil), s.Points...)
	return &c
}

// Canvas is the in-memory shape store. Paint order is the order slice,
// ascending (index 0 = backmost). Not safe for concurrent use; the engine
// contract is single-threaded.
type Canvas struct {
	shapes    map[model.ID]*Shape
	order     []model.ID
	listeners []func(layers.Change)
}

// New returns an empty canvas.
func New() *Canvas {
	return &Canvas{shapes: make(map[model.ID]*Shape)}
}

// Subscribe registers a listener for shape-side changes. The layer engine's
// HandleCanvasChange hangs off this.
func (c *Canvas) Subscribe(fn func(layers.Change)) {
	c.listeners = append(c.listeners, fn)
}

func (c *Canvas) notify(kind layers.ChangeKind, id model.ID) {
	for _, fn := range c.listeners {
		fn(layers.Change{Kind: kind, ID: id})
	}
}

// AddShape inserts a shape at the front of the paint order (new shapes land
// on top) and notifies listeners. A missing id gets a fresh one.
func (c *Canvas) AddShape(s *Shape) model.ID {
	if s.ID == model.Nil {
		s.ID = model.NewID()
	}
	c.shapes[s.ID] = s
	c.order = append(c.order, s.ID)
	c.notify(layers.LeafAdded, s.ID)
	return s.ID
}

// RestoreShapes replaces the whole store with persisted shapes, preserving
// the given slice order as paint order. No notifications fire; callers wire
// the engine afterwards.
func (c *Canvas) RestoreShapes(shapes []*Shape) {
	c.shapes = make(map[model.ID]*Shape, len(shapes))
	c.order = c.order[:0]
	for _, s := range shapes {
		c.shapes[s.ID] = s
		c.order = append(c.order, s.ID)
	}
}

// Shape returns the shape for id, or nil.
func (c *Canvas) Shape(id model.ID) *Shape {
	return c.shapes[id]
}

// Shapes returns every shape in ascending paint order.
func (c *Canvas) Shapes() []*Shape {
	out := make([]*Shape, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.shapes[id])
	}
	return out
}

// Len returns the number of shapes.
func (c *Canvas) Len() int { return len(c.shapes) }

// Touch notifies listeners that a shape's renderer-owned fields changed.
func (c *Canvas) Touch(id model.ID) {
	if _, ok := c.shapes[id]; ok {
		c.notify(layers.LeafModified, id)
	}
}

// EnumerateLeaves implements layers.Canvas.
func (c *Canvas) EnumerateLeaves() []layers.LeafInfo {
	out := make([]layers.LeafInfo, 0, len(c.order))
	for i, id := range c.order {
		s := c.shapes[id]
		out = append(out, layers.LeafInfo{
			ID:         s.ID,
			Name:       s.Name,
			Kind:       s.Kind,
			Container:  s.Container,
			Locked:     s.Locked,
			Visible:    s.Visible,
			PaintIndex: i,
		})
	}
	return out
}

// LeafContainer implements layers.Canvas.
func (c *Canvas) LeafContainer(id model.ID) (model.ID, bool) {
	if s, ok := c.shapes[id]; ok {
		return s.Container, true
	}
	return model.Nil, false
}

// SetLeafContainer implements layers.Canvas.
func (c *Canvas) SetLeafContainer(id, group model.ID) error {
	s, ok := c.shapes[id]
	if !ok {
		return fmt.Errorf("canvas: no shape %s", id)
	}
	s.Container = group
	return nil
}

// SetLeafLocked implements layers.Canvas.
func (c *Canvas) SetLeafLocked(id model.ID, locked bool) error {
	s, ok := c.shapes[id]
	if !ok {
		return fmt.Errorf("canvas: no shape %s", id)
	}
	s.Locked = locked
	return nil
}

// SetLeafVisible implements layers.Canvas.
func (c *Canvas) SetLeafVisible(id model.ID, visible bool) error {
	s, ok := c.shapes[id]
	if !ok {
		return fmt.Errorf("canvas: no shape %s", id)
	}
	s.Visible = visible
	return nil
}

// ReorderLeaf implements layers.Canvas: remove the shape from the paint
// order and reinsert it at paintIndex, clamped.
func (c *Canvas) ReorderLeaf(id model.ID, paintIndex int) error {
	if _, ok := c.shapes[id]; !ok {
		return fmt.Errorf("canvas: no shape %s", id)
	}
	for i, cur := range c.order {
		if cur == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	if paintIndex < 0 {
		paintIndex = 0
	}
	if paintIndex > len(c.order) {
		paintIndex = len(c.order)
	}
	c.order = append(c.order, model.Nil)
	copy(c.order[paintIndex+1:], c.order[paintIndex:])
	c.order[paintIndex] = id
	return nil
}

// DuplicateLeaf implements layers.Canvas: deep-copy the shape with a fresh
// id and a fixed positional offset, painting just above the original.
func (c *Canvas) DuplicateLeaf(id model.ID) (layers.LeafInfo, error) {
	s, ok := c.shapes[id]
	if !ok {
		return layers.LeafInfo{}, fmt.Errorf("canvas: no shape %s", id)
	}
	dup := s.Clone()
	dup.ID = model.NewID()
	dup.X += DuplicateOffset
	dup.Y += DuplicateOffset
	for i := range dup.Points {
		dup.Points[i].X += DuplicateOffset
		dup.Points[i].Y += DuplicateOffset
	}
	c.shapes[dup.ID] = dup

	at := len(c.order)
	for i, cur := range c.order {
		if cur == id {
			at = i + 1
			break
		}
	}
	c.order = append(c.order, model.Nil)
	copy(c.order[at+1:], c.order[at:])
	c.order[at] = dup.ID

	c.notify(layers.LeafAdded, dup.ID)
	info := layers.LeafInfo{
		ID: dup.ID, Name: dup.Name, Kind: dup.Kind, Container: dup.Container,
		Locked: dup.Locked, Visible: dup.Visible, PaintIndex: at,
	}
	return info, nil
}

// RemoveLeaf implements layers.Canvas.
func (c *Canvas) RemoveLeaf(id model.ID) error {
	if _, ok := c.shapes[id]; !ok {
		return fmt.Errorf("canvas: no shape %s", id)
	}
	delete(c.shapes, id)
	for i, cur := range c.order {
		if cur == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	c.notify(layers.LeafRemoved, id)
	return nil
}
