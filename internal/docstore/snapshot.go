package docstore

import (
	"github.com/MateenKhan/tracedraw/pkg/canvas"
	"github.com/MateenKhan/tracedraw/pkg/layers"
	"github.com/MateenKhan/tracedraw/pkg/model"
)

// Snapshot captures the live tree and canvas as a persistable document.
// Nodes are emitted in depth-first order from the root so repeated saves of
// an unchanged document produce identical bytes.
func Snapshot(name string, tree *layers.Tree, cv *canvas.Canvas) *Document {
	doc := &Document{
		Version: FormatVersion,
		Name:    name,
		BaseID:  tree.BaseID(),
	}
	tree.Walk(tree.RootID(), func(n *model.Node) {
		doc.Nodes = append(doc.Nodes, n.Clone())
	})
	for _, s := range cv.Shapes() {
		doc.Shapes = append(doc.Shapes, s.Clone())
	}
	return doc
}

// Restore materializes a loaded document into a tree and canvas ready for
// an engine. Corrupt trees fall back to a fresh document (see
// layers.Restore); shapes always restore as-is.
func (doc *Document) Restore() (*layers.Tree, *canvas.Canvas) {
	tree := layers.Restore(doc.Nodes, doc.BaseID)
	cv := canvas.New()
	cv.RestoreShapes(doc.Shapes)
	return tree, cv
}
