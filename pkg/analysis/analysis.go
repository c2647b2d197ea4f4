// Package analysis computes structure statistics over a layer tree for the
// panel's info overlay: how deep the grouping goes, how leaves are spread
// across groups, and how much of the document is locked or hidden.
package analysis

import (
	"gonum.org/v1/gonum/stat"

	"github.com/MateenKhan/tracedraw/pkg/layers"
	"github.com/MateenKhan/tracedraw/pkg/model"
)

// DocumentStats summarizes the structure of a document.
type DocumentStats struct {
	Groups int // container rows, base excluded
	Leaves int

	MaxDepth    int     // deepest panel row
	MeanDepth   float64 // over all rows
	DepthStdDev float64

	MeanLeavesPerGroup   float64 // over groups that can hold leaves (base included)
	LeavesPerGroupStdDev float64
	EmptyGroups          int // groups with no leaves and no child groups

	LockedGroups int // effective, ancestor locks included
	LockedLeaves int
	HiddenGroups int
	HiddenLeaves int

	Selected int
}

// Analyze computes document statistics from the engine's current state.
// Collapse state does not affect the numbers; the whole document is measured.
func Analyze(e *layers.Engine) DocumentStats {
	var s DocumentStats
	tree := e.Tree()

	rows := e.Flatten(layers.FlattenOptions{IgnoreCollapse: true})
	depths := make([]float64, 0, len(rows))
	for _, row := range rows {
		depths = append(depths, float64(row.Depth))
		if row.Depth > s.MaxDepth {
			s.MaxDepth = row.Depth
		}
		if row.Kind == layers.FlatNode {
			s.Groups++
			if tree.EffectiveLocked(row.ID) {
				s.LockedGroups++
			}
			if !tree.EffectiveVisible(row.ID) {
				s.HiddenGroups++
			}
		}
	}
	s.MeanDepth, s.DepthStdDev = meanStdDev(depths)

	perGroup := make(map[model.ID]int)
	perGroup[tree.BaseID()] = 0
	for _, row := range rows {
		if row.Kind == layers.FlatNode {
			perGroup[row.ID] = 0
		}
	}
	for _, leaf := range e.Canvas().EnumerateLeaves() {
		s.Leaves++
		perGroup[leaf.Container]++
		if e.EffectiveLeafLocked(leaf.ID) {
			s.LockedLeaves++
		}
		if !e.EffectiveLeafVisible(leaf.ID) {
			s.HiddenLeaves++
		}
	}

	counts := make([]float64, 0, len(perGroup))
	for id, n := range perGroup {
		counts = append(counts, float64(n))
		if n == 0 && id != tree.BaseID() && len(tree.Children(id)) == 0 {
			s.EmptyGroups++
		}
	}
	s.MeanLeavesPerGroup, s.LeavesPerGroupStdDev = meanStdDev(counts)

	s.Selected = len(e.Selection())
	return s
}

// meanStdDev returns the mean and sample standard deviation, zero for inputs
// too small for either to be defined.
func meanStdDev(xs []float64) (mean, stddev float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	mean = stat.Mean(xs, nil)
	if len(xs) < 2 {
		return mean, 0
	}
	return mean, stat.StdDev(xs, nil)
}
