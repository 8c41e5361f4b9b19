// pkg/btree/node.go
package btree

import "sort"

// sentinel fills unused key, value, and child cells in a node record.
// It is therefore reserved: user keys and values must not be -1.
const sentinel = -1

// Pair is one key/value entry. Both halves are 32-bit so an entry
// occupies exactly two cells on disk.
type Pair struct {
	Key   int32
	Value int32
}

// childRef is a tagged child slot: either an unloaded file offset or
// a materialized node. Materialization is a cache operation; the
// authoritative state is always the disk image.
type childRef struct {
	pos  int32
	node *Node
}

// position returns the child's file offset regardless of whether the
// child is materialized.
func (c childRef) position() int32 {
	if c.node != nil {
		return c.node.pos
	}
	return c.pos
}

// Node is the in-memory form of one fixed-size node record.
//
// Record layout, in cells relative to pos:
//
//	0                    pos (self, sanity-checked on load)
//	1                    nKeys
//	2                    nChildren
//	3 .. 3+2*maxKeys     key/value pairs k0,v0,k1,v1,... padded with -1
//	3+2*maxKeys .. end   child offsets, padded with -1
type Node struct {
	pos      int32
	keys     []Pair
	children []childRef
}

func (n *Node) isLeaf() bool {
	return len(n.children) == 0
}

func (n *Node) nKeys() int {
	return len(n.keys)
}

func (n *Node) nChildren() int {
	return len(n.children)
}

// searchKey binary-searches the sorted pair array for key.
// It returns the matching index, or ok=false if key is absent.
func (n *Node) searchKey(key int32) (int, bool) {
	i := sort.Search(len(n.keys), func(i int) bool { return n.keys[i].Key >= key })
	if i < len(n.keys) && n.keys[i].Key == key {
		return i, true
	}
	return 0, false
}

// childIndex returns the index of the child to descend into for key:
// the first slot whose separator key is strictly greater than key.
func (n *Node) childIndex(key int32) int {
	return sort.Search(len(n.keys), func(i int) bool { return n.keys[i].Key > key })
}

// insertPair inserts p keeping the pair array sorted by key.
// Equal keys land after existing ones, matching the descent rule.
func (n *Node) insertPair(p Pair) {
	i := sort.Search(len(n.keys), func(i int) bool { return n.keys[i].Key > p.Key })
	n.insertKeyAt(i, p)
}

// insertKeyAt places p at index i without re-sorting. The caller is
// responsible for i being the ordered position.
func (n *Node) insertKeyAt(i int, p Pair) {
	n.keys = append(n.keys, Pair{})
	copy(n.keys[i+1:], n.keys[i:])
	n.keys[i] = p
}

func (n *Node) removeKey(i int) {
	n.keys = append(n.keys[:i], n.keys[i+1:]...)
}

func (n *Node) insertChildAt(i int, c childRef) {
	n.children = append(n.children, childRef{})
	copy(n.children[i+1:], n.children[i:])
	n.children[i] = c
}

func (n *Node) removeChild(i int) {
	n.children = append(n.children[:i], n.children[i+1:]...)
}

// childIndexOf returns the slot holding the child at offset pos, or -1.
func (n *Node) childIndexOf(pos int32) int {
	for i, c := range n.children {
		if c.position() == pos {
			return i
		}
	}
	return -1
}

// encode flattens the node into one record of recordLen cells.
func (n *Node) encode(maxKeys, maxChildren int) []int32 {
	cells := make([]int32, 0, 3+2*maxKeys+maxChildren)
	cells = append(cells, n.pos, int32(n.nKeys()), int32(n.nChildren()))

	for _, p := range n.keys {
		cells = append(cells, p.Key, p.Value)
	}
	for i := n.nKeys(); i < maxKeys; i++ {
		cells = append(cells, sentinel, sentinel)
	}

	for _, c := range n.children {
		cells = append(cells, c.position())
	}
	for i := n.nChildren(); i < maxChildren; i++ {
		cells = append(cells, sentinel)
	}

	return cells
}

// decodeNode rebuilds a node from its record. The key and child
// counts in the header are the source of truth; padding cells are
// ignored. Children come back unloaded.
func decodeNode(pos int32, cells []int32, maxKeys, maxChildren int) (*Node, error) {
	if cells[0] != pos {
		return nil, &StructureError{
			Pos: pos,
			Msg: "stored position does not match record offset",
		}
	}

	nk := int(cells[1])
	nc := int(cells[2])
	if nk < 0 || nk > maxKeys || nc < 0 || nc > maxChildren {
		return nil, &StructureError{Pos: pos, Msg: "key or child count out of bounds"}
	}

	n := &Node{pos: pos}
	for i := 0; i < nk; i++ {
		n.keys = append(n.keys, Pair{
			Key:   cells[3+2*i],
			Value: cells[3+2*i+1],
		})
	}

	base := 3 + 2*maxKeys
	for i := 0; i < nc; i++ {
		n.children = append(n.children, childRef{pos: cells[base+i]})
	}

	return n, nil
}
