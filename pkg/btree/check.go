// pkg/btree/check.go
package btree

import (
	"fmt"
	"io"
)

// StructureError reports a violated tree invariant, either found by
// Check or hit by an operation that computed an impossible record
// address. A tree that produced one outside Check must be considered
// corrupt.
type StructureError struct {
	Pos int32 // offset of the offending node record, 0 for the header
	Msg string
}

func (e *StructureError) Error() string {
	return fmt.Sprintf("btree: structure error at cell %d: %s", e.Pos, e.Msg)
}

// Check traverses the whole tree and verifies the structural
// invariants: per-node key-count bounds (the root excepted), child
// count equals key count plus one for internal nodes, strict key
// ordering inside each node, and the strict ordering between each
// separator key and the keys of the two child nodes beside it. Keys
// deeper in a subtree are compared only with the separators of their
// own parent, not with those of higher ancestors. It returns nil when
// the tree is sound and a *StructureError describing the first
// violation otherwise.
//
// Check reads every node from disk, so it also verifies that each
// record's stored position matches its actual offset.
func (t *Tree) Check() error {
	if t.closed {
		return ErrTreeClosed
	}

	root, err := t.load(rootPos)
	if err != nil {
		return err
	}
	return t.checkNode(root, true)
}

func (t *Tree) checkNode(n *Node, isRoot bool) error {
	if !isRoot && (n.nKeys() < t.minKeys() || n.nKeys() > t.maxKeys()) {
		return &StructureError{
			Pos: n.pos,
			Msg: fmt.Sprintf("node has %d keys, want [%d, %d]", n.nKeys(), t.minKeys(), t.maxKeys()),
		}
	}

	for i := 1; i < n.nKeys(); i++ {
		if n.keys[i-1].Key >= n.keys[i].Key {
			return &StructureError{
				Pos: n.pos,
				Msg: fmt.Sprintf("keys not strictly ascending: %d before %d", n.keys[i-1].Key, n.keys[i].Key),
			}
		}
	}

	if n.isLeaf() {
		return nil
	}

	if n.nChildren() != n.nKeys()+1 {
		return &StructureError{
			Pos: n.pos,
			Msg: fmt.Sprintf("node has %d keys and %d children", n.nKeys(), n.nChildren()),
		}
	}

	children := make([]*Node, n.nChildren())
	for i := range n.children {
		child, err := t.load(n.children[i].position())
		if err != nil {
			return err
		}
		children[i] = child
	}

	// The child left of separator i holds only keys strictly below it;
	// the child right of it holds only keys strictly above it.
	for i := 0; i < n.nKeys(); i++ {
		for _, p := range children[i].keys {
			if p.Key >= n.keys[i].Key {
				return &StructureError{
					Pos: children[i].pos,
					Msg: fmt.Sprintf("child key %d not below separator %d", p.Key, n.keys[i].Key),
				}
			}
		}
		for _, p := range children[i+1].keys {
			if p.Key <= n.keys[i].Key {
				return &StructureError{
					Pos: children[i+1].pos,
					Msg: fmt.Sprintf("child key %d not above separator %d", p.Key, n.keys[i].Key),
				}
			}
		}
	}

	for _, child := range children {
		if err := t.checkNode(child, false); err != nil {
			return err
		}
	}
	return nil
}

// Display writes a human-readable dump of the tree to w, one node
// per block, indented by depth. Diagnostic only.
func (t *Tree) Display(w io.Writer) error {
	if t.closed {
		return ErrTreeClosed
	}

	if _, err := fmt.Fprintf(w, "order: %d, nodes: %d\n", t.order, t.NodeCount()); err != nil {
		return err
	}

	root, err := t.load(rootPos)
	if err != nil {
		return err
	}
	return t.displayNode(w, root, 0)
}

func (t *Tree) displayNode(w io.Writer, n *Node, depth int) error {
	indent := ""
	for i := 0; i < depth; i++ {
		indent += "  "
	}

	childPos := make([]int32, n.nChildren())
	for i, c := range n.children {
		childPos[i] = c.position()
	}
	if _, err := fmt.Fprintf(w, "%s#%d keys=%v children=%v\n", indent, n.pos, n.keys, childPos); err != nil {
		return err
	}

	for i := range n.children {
		child, err := t.load(n.children[i].position())
		if err != nil {
			return err
		}
		if err := t.displayNode(w, child, depth+1); err != nil {
			return err
		}
	}
	return nil
}
