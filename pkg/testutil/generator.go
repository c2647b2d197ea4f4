// Package testutil provides assertions and deterministic fixture builders
// for layer-tree tests. All generators are seeded for reproducible output.
package testutil

import (
	"fmt"
	"math/rand"

	"github.com/MateenKhan/tracedraw/pkg/canvas"
	"github.com/MateenKhan/tracedraw/pkg/layers"
	"github.com/MateenKhan/tracedraw/pkg/model"
)

// Document is a wired engine plus direct handles on its collaborators, with
// name-based lookup for readable tests.
type Document struct {
	Engine *layers.Engine
	Tree   *layers.Tree
	Canvas *canvas.Canvas

	byName map[string]model.ID
}

// NewDocument builds an empty document: fresh tree, fresh canvas, wired
// engine with canvas notifications connected.
func NewDocument() *Document {
	tree := layers.NewTree()
	cv := canvas.New()
	eng := layers.NewEngine(tree, cv)
	cv.Subscribe(eng.HandleCanvasChange)
	return &Document{Engine: eng, Tree: tree, Canvas: cv, byName: make(map[string]model.ID)}
}

// Group creates a group under the named parent ("" means the root) and
// registers it under name. The group keeps the given name instead of the
// auto-generated one.
func (d *Document) Group(name, parent string) model.ID {
	id, err := d.Engine.CreateNode(d.ID(parent), model.KindGroup)
	if err != nil {
		panic(fmt.Sprintf("testutil: create group %s: %v", name, err))
	}
	d.Tree.Get(id).Name = name
	d.byName[name] = id
	return id
}

// Shape adds a rect shape to the named container and registers it under
// name.
func (d *Document) Shape(name, container string) model.ID {
	s := &canvas.Shape{
		Name:      name,
		Kind:      "rect",
		Container: d.ID(container),
		W:         100, H: 100,
		Fill:    "#888888",
		Visible: true,
	}
	id := d.Canvas.AddShape(s)
	d.byName[name] = id
	return id
}

// ID resolves a registered name to its id. "" resolves to the root, "base"
// to the base group.
func (d *Document) ID(name string) model.ID {
	switch name {
	case "":
		return d.Tree.RootID()
	case "base":
		return d.Tree.BaseID()
	}
	id, ok := d.byName[name]
	if !ok {
		panic(fmt.Sprintf("testutil: unknown fixture name %q", name))
	}
	return id
}

// Name resolves an id back to its registered name, for failure messages.
func (d *Document) Name(id model.ID) string {
	if id == d.Tree.RootID() {
		return "<root>"
	}
	if id == d.Tree.BaseID() {
		return "base"
	}
	for name, x := range d.byName {
		if x == id {
			return name
		}
	}
	return string(id)
}

// RandomDocument builds a document with a random tree of the given size:
// groups nested up to maxDepth, shapes scattered across them. Deterministic
// for a fixed seed.
func RandomDocument(seed int64, groups, shapes, maxDepth int) *Document {
	rng := rand.New(rand.NewSource(seed))
	d := NewDocument()

	names := []string{""}
	depths := map[string]int{"": -1}
	for i := 0; i < groups; i++ {
		var parent string
		for {
			parent = names[rng.Intn(len(names))]
			if depths[parent] < maxDepth-1 {
				break
			}
		}
		name := fmt.Sprintf("g%d", i)
		d.Group(name, parent)
		names = append(names, name)
		depths[name] = depths[parent] + 1
	}
	for i := 0; i < shapes; i++ {
		container := names[rng.Intn(len(names))]
		if container == "" {
			container = "base"
		}
		d.Shape(fmt.Sprintf("s%d", i), container)
	}
	return d
}
