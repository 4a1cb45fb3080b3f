package trace

// Tree is a node with its children in emission order.
type Tree struct {
	Node     Node    `json:"node"`
	Children []*Tree `json:"children"`
}

// Build reconstructs the call forest of arena.
//
// Entries are resolved by index; when an index repeats, the later entry
// wins and the earlier one is not placed. Children are attached to their
// parent in arena order. A node whose parent index is missing from the
// arena, or which sits on a cycle of parent links (including a node that
// names itself), becomes a root instead. Build never fails.
func Build(arena Arena) []*Tree {
	roots := make([]*Tree, 0)
	if len(arena) == 0 {
		return roots
	}

	lookup := make(map[int]int, len(arena)) // idx → arena position
	for pos, n := range arena {
		lookup[n.Index] = pos
	}
	cyclic := cycleMembers(arena, lookup)

	trees := make([]*Tree, len(arena))
	for pos := range arena {
		if lookup[arena[pos].Index] == pos {
			trees[pos] = &Tree{Node: arena[pos]}
		}
	}

	for pos, n := range arena {
		t := trees[pos]
		if t == nil {
			continue
		}
		if n.Parent == nil || cyclic[pos] {
			roots = append(roots, t)
			continue
		}
		ppos, ok := lookup[*n.Parent]
		if !ok {
			roots = append(roots, t)
			continue
		}
		trees[ppos].Children = append(trees[ppos].Children, t)
	}
	return roots
}

// parentPos returns the arena position of the parent of the entry at pos.
func parentPos(arena Arena, lookup map[int]int, pos int) (int, bool) {
	p := arena[pos].Parent
	if p == nil {
		return 0, false
	}
	ppos, ok := lookup[*p]
	return ppos, ok
}

// cycleMembers marks every winning entry whose chain of parent links
// leads back to itself. Each entry is walked at most once.
func cycleMembers(arena Arena, lookup map[int]int) []bool {
	const (
		unseen = iota
		onPath
		done
	)
	state := make([]uint8, len(arena))
	cyclic := make([]bool, len(arena))
	var path []int

	for start := range arena {
		if lookup[arena[start].Index] != start || state[start] != unseen {
			continue
		}
		path = path[:0]
		pos, ok := start, true
		for ok && state[pos] == unseen {
			state[pos] = onPath
			path = append(path, pos)
			pos, ok = parentPos(arena, lookup, pos)
		}
		if ok && state[pos] == onPath {
			for i := len(path) - 1; i >= 0; i-- {
				cyclic[path[i]] = true
				if path[i] == pos {
					break
				}
			}
		}
		for _, p := range path {
			state[p] = done
		}
	}
	return cyclic
}

// Walk visits forest in pre-order. fn receives each tree and its depth
// (roots are depth 0); returning false skips that tree's children.
func Walk(forest []*Tree, fn func(t *Tree, depth int) bool) {
	type frame struct {
		t     *Tree
		depth int
	}
	stack := make([]frame, 0, len(forest))
	for i := len(forest) - 1; i >= 0; i-- {
		stack = append(stack, frame{forest[i], 0})
	}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(f.t, f.depth) {
			continue
		}
		for i := len(f.t.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{f.t.Children[i], f.depth + 1})
		}
	}
}

// Count returns the number of nodes in forest.
func Count(forest []*Tree) int {
	n := 0
	Walk(forest, func(*Tree, int) bool {
		n++
		return true
	})
	return n
}
