// Package region labels connected areas of a grid separated by faults and
// undefined nodes.
package region

import (
	"github.com/gogpu/gridfit/bitmask"
	"github.com/gogpu/gridfit/sparse"
)

// Label assigns every defined node of an nn×mm grid the 1-based index of
// its connected area. Nodes are 4-connected; links cut by faults and
// undefined nodes separate areas. Undefined nodes get label 0. faults may
// be nil. It returns the labels and the number of areas.
func Label(nn, mm int, undefined *bitmask.Mask, faults sparse.Faults) ([]int32, int) {
	n := nn * mm
	labels := make([]int32, n)
	if undefined.Len() != n {
		panic("region: undefined mask does not match grid")
	}

	var count int32
	stack := make([]int, 0, 64)
	for seed := range n {
		if labels[seed] != 0 || undefined.Get(seed) {
			continue
		}

		count++
		labels[seed] = count
		stack = append(stack[:0], seed)

		for len(stack) > 0 {
			pos := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			i, j := pos%nn, pos/nn
			for _, nb := range [4][2]int{{i - 1, j}, {i + 1, j}, {i, j - 1}, {i, j + 1}} {
				if nb[0] < 0 || nb[0] >= nn || nb[1] < 0 || nb[1] >= mm {
					continue
				}
				next := nb[0] + nb[1]*nn
				if labels[next] != 0 || undefined.Get(next) {
					continue
				}
				if faults != nil && faults.Cut(pos, next) {
					continue
				}
				labels[next] = count
				stack = append(stack, next)
			}
		}
	}
	return labels, int(count)
}

// Mask returns the nodes carrying label.
func Mask(labels []int32, label int) *bitmask.Mask {
	m := bitmask.New(len(labels))
	m.InitFalse()
	for pos, l := range labels {
		if int(l) == label {
			m.SetTrue(pos)
		}
	}
	return m
}

// Sizes returns the node count of every area, indexed by label. Entry 0
// counts undefined nodes.
func Sizes(labels []int32, count int) []int {
	out := make([]int, count+1)
	for _, l := range labels {
		out[l]++
	}
	return out
}

// UndefinedBoundary returns the defined nodes lying within width rings
// (8-neighbourhood) of an undefined node. It returns nil when the grid has
// no undefined node.
func UndefinedBoundary(nn, mm int, undefined *bitmask.Mask, width int) *bitmask.Mask {
	if undefined.IsEmpty() {
		return nil
	}
	width = max(width, 1)

	front := undefined.Clone()
	ring := bitmask.New(nn * mm)
	ring.InitFalse()

	for range width {
		grown := bitmask.New(nn * mm)
		grown.InitFalse()
		front.ForEach(func(pos int) {
			i, j := pos%nn, pos/nn
			for dj := -1; dj <= 1; dj++ {
				for di := -1; di <= 1; di++ {
					x, y := i+di, j+dj
					if x < 0 || x >= nn || y < 0 || y >= mm {
						continue
					}
					grown.SetTrue(x + y*nn)
				}
			}
		})
		grown.AndNot(undefined)
		grown.AndNot(ring)
		ring.Or(grown)
		front = grown
	}
	if ring.IsEmpty() {
		return nil
	}
	return ring
}
