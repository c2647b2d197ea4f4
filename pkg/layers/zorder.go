package layers

// syncZOrder recomputes the canvas paint order from the flattened tree.
// Flattening ignores collapse (paint order covers the whole document) and
// yields rows top-of-panel first, which is front-most first; walking the
// leaf rows bottom-up therefore assigns paint indices 0..N-1 backmost first.
// Indices are pushed in ascending order so each ReorderLeaf lands on its
// final slot.
func (e *Engine) syncZOrder() {
	flat := e.Flatten(FlattenOptions{IgnoreCollapse: true})
	var leaves []FlatItem
	for _, it := range flat {
		if it.Kind == FlatLeaf {
			leaves = append(leaves, it)
		}
	}
	for i := len(leaves) - 1; i >= 0; i-- {
		_ = e.canvas.ReorderLeaf(leaves[i].ID, len(leaves)-1-i)
	}
}

// SyncZOrder forces a full paint-order resync. Callers normally never need
// this; every committed mutation already resyncs.
func (e *Engine) SyncZOrder() {
	e.syncZOrder()
}
