package t2

// tagTreeUnset marks a node whose value has not been bounded yet.
// Any real tag tree value in a packet header is far below this.
const tagTreeUnset = 999

type tagNode struct {
	parent *tagNode
	value  int
	low    int
	known  bool
}

// TagTree is the quad-tree used by packet headers to code code-block
// inclusion layers and missing bit-plane counts. Leaves map one-to-one
// onto the code-block grid of a precinct band; each level above halves
// the grid (rounding up) until a single root remains.
type TagTree struct {
	leavesW int
	leavesH int
	nodes   []tagNode
}

// NewTagTree builds a tree for a width x height leaf grid. Both
// dimensions must be at least 1.
func NewTagTree(width, height int) *TagTree {
	t := &TagTree{leavesW: width, leavesH: height}

	// Count nodes per level, leaves first.
	var levels [][2]int
	w, h := width, height
	for {
		levels = append(levels, [2]int{w, h})
		if w == 1 && h == 1 {
			break
		}
		w = (w + 1) / 2
		h = (h + 1) / 2
	}
	total := 0
	for _, lv := range levels {
		total += lv[0] * lv[1]
	}
	t.nodes = make([]tagNode, total)

	// Link each node to its parent one level up.
	base := 0
	for li := 0; li < len(levels)-1; li++ {
		w, h := levels[li][0], levels[li][1]
		parentBase := base + w*h
		pw := levels[li+1][0]
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				t.nodes[base+y*w+x].parent = &t.nodes[parentBase+(y/2)*pw+x/2]
			}
		}
		base = parentBase
	}
	t.Reset()
	return t
}

// Reset restores the tree to its pre-decode state so it can be reused
// across layers of the same precinct.
func (t *TagTree) Reset() {
	for i := range t.nodes {
		t.nodes[i].value = tagTreeUnset
		t.nodes[i].low = 0
		t.nodes[i].known = false
	}
}

func (t *TagTree) leaf(x, y int) *tagNode {
	return &t.nodes[y*t.leavesW+x]
}

// SetValue fixes the value of a leaf before encoding.
func (t *TagTree) SetValue(x, y, value int) {
	for n := t.leaf(x, y); n != nil && value < n.value; n = n.parent {
		n.value = value
	}
}

// bitSource is the single-bit read interface tag tree decoding needs.
type bitSource interface {
	ReadBit() (int, error)
}

// bitSink is the encoding counterpart.
type bitSink interface {
	WriteBit(bit int) error
}

// Decode walks from the root down to leaf (x, y), reading refinement
// bits until the leaf's value is either known to be below threshold
// (returns true) or known to be at least threshold (returns false).
// Partial knowledge (lower bounds) persists across calls, so a later
// call with a higher threshold resumes where the last one stopped.
func (t *TagTree) Decode(br bitSource, x, y, threshold int) (bool, error) {
	// Stack the root-to-leaf path.
	var path [32]*tagNode
	depth := 0
	for n := t.leaf(x, y); n != nil; n = n.parent {
		path[depth] = n
		depth++
	}

	low := 0
	leaf := path[0]
	for i := depth - 1; i >= 0; i-- {
		n := path[i]
		if low > n.low {
			n.low = low
		} else {
			low = n.low
		}
		for low < threshold && low < n.value {
			bit, err := br.ReadBit()
			if err != nil {
				return false, err
			}
			if bit == 1 {
				n.value = low
				n.known = true
			} else {
				low++
			}
		}
		n.low = low
	}
	return leaf.value < threshold, nil
}

// Encode emits the bits Decode would consume for leaf (x, y) at the
// given threshold. All leaf values must have been fixed with SetValue.
func (t *TagTree) Encode(bw bitSink, x, y, threshold int) error {
	var path [32]*tagNode
	depth := 0
	for n := t.leaf(x, y); n != nil; n = n.parent {
		path[depth] = n
		depth++
	}

	low := 0
	for i := depth - 1; i >= 0; i-- {
		n := path[i]
		if low > n.low {
			n.low = low
		} else {
			low = n.low
		}
		for low < threshold {
			if low >= n.value {
				if !n.known {
					if err := bw.WriteBit(1); err != nil {
						return err
					}
					n.known = true
				}
				break
			}
			if err := bw.WriteBit(0); err != nil {
				return err
			}
			low++
		}
		n.low = low
	}
	return nil
}

// Value returns a leaf's decoded value, or tagTreeUnset if it has only
// been bounded from below so far.
func (t *TagTree) Value(x, y int) int {
	return t.leaf(x, y).value
}
