package qs

// Compact removes the holes from every array reachable from root, keeping
// the order of the remaining entries. It works in place and returns root.
func Compact(root *Node) *Node {
	stack := []*Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch n.Kind() {
		case Array:
			dense := n.items[:0]
			for _, item := range n.items {
				if item != nil {
					dense = append(dense, item)
				}
			}
			clear(n.items[len(dense):])
			n.items = dense
			for _, item := range dense {
				if item.isContainer() {
					stack = append(stack, item)
				}
			}
		case Object:
			for _, k := range n.keys {
				if v := n.props[k]; v.isContainer() {
					stack = append(stack, v)
				}
			}
		}
	}
	return root
}
