// pkg/btree/btree.go

// Package btree implements a persistent B-tree mapping int32 keys to
// int32 values. Every node lives in a fixed-size record inside a
// cellfile store; a node's identity is its record offset. The file is
// kept densely packed: whenever a node is freed, the record at the
// file tail is relocated into the hole.
package btree

import (
	"errors"
	"fmt"

	"cellbt/pkg/cellfile"
)

var (
	// ErrKeyNotFound is returned by Search when the key is absent.
	ErrKeyNotFound = errors.New("btree: key not found")

	// ErrTreeClosed is returned when operating on a closed tree.
	ErrTreeClosed = errors.New("btree: tree is closed")

	// ErrBadOrder is returned when opening a new tree with an order
	// below the supported minimum.
	ErrBadOrder = errors.New("btree: order must be at least 2")
)

// rootPos is the cell offset of the root record. Cell 0 holds the
// order, so the first node record always starts at cell 1, and that
// offset stays the root's identity for the lifetime of the file.
const rootPos = 1

// Tree is a B-tree engine bound to one store. A tree instance owns
// its store exclusively; the in-memory cache is rooted at the root
// node (with its children materialized one level deep). A node that
// an operation materializes below that stays cached in its parent's
// child slot after the operation returns, until the next relocation
// rebuilds the root cache.
type Tree struct {
	store  cellfile.Store
	order  int
	root   *Node
	closed bool
}

// Open opens or creates a tree stored in the file at path on the OS
// filesystem. For a new file the tree is created with the given
// order; for an existing file the stored order wins and the argument
// is ignored.
func Open(path string, order int) (*Tree, error) {
	store, err := cellfile.Open(path)
	if err != nil {
		return nil, err
	}

	t, err := OpenStore(store, order)
	if err != nil {
		store.Close()
		return nil, err
	}
	return t, nil
}

// OpenStore opens or creates a tree on an already-open store.
// The tree takes ownership of the store.
func OpenStore(store cellfile.Store, order int) (*Tree, error) {
	t := &Tree{store: store}
	if err := t.bootstrap(order); err != nil {
		return nil, err
	}
	return t, nil
}

// bootstrap reads the order cell and loads the root, or initializes
// an empty tree when the store is empty.
func (t *Tree) bootstrap(order int) error {
	if t.store.Len() == 0 {
		if order < 2 {
			return ErrBadOrder
		}
		t.order = order

		if err := t.store.Append([]int32{int32(order)}); err != nil {
			return fmt.Errorf("btree: write order: %w", err)
		}
		t.root = &Node{pos: rootPos}
		return t.appendNode(t.root)
	}

	stored, err := t.store.Read(0)
	if err != nil {
		return fmt.Errorf("btree: read order: %w", err)
	}
	if stored < 2 {
		return &StructureError{Pos: 0, Msg: fmt.Sprintf("stored order %d is invalid", stored)}
	}
	t.order = int(stored)

	return t.reloadRoot()
}

// Order returns the tree's order. Nodes hold between Order and
// 2*Order keys, the root excepted.
func (t *Tree) Order() int {
	return t.order
}

func (t *Tree) maxKeys() int {
	return 2 * t.order
}

func (t *Tree) minKeys() int {
	return t.order
}

func (t *Tree) maxChildren() int {
	return 2*t.order + 1
}

// recordLen is the fixed number of cells one node record occupies:
// a 3-cell header, 2*maxKeys key/value cells, and maxChildren child
// cells.
func (t *Tree) recordLen() int {
	return 2*t.maxKeys() + t.maxChildren() + 3
}

// FileCells returns the current store length in cells.
func (t *Tree) FileCells() int64 {
	return t.store.Len()
}

// NodeCount returns the number of node records in the store.
func (t *Tree) NodeCount() int64 {
	if t.store.Len() == 0 {
		return 0
	}
	return (t.store.Len() - 1) / int64(t.recordLen())
}

// Search returns the value stored under key, or ErrKeyNotFound.
func (t *Tree) Search(key int32) (int32, error) {
	if t.closed {
		return 0, ErrTreeClosed
	}

	node := t.root
	for {
		if i, ok := node.searchKey(key); ok {
			return node.keys[i].Value, nil
		}
		if node.isLeaf() {
			return 0, ErrKeyNotFound
		}

		child, err := t.child(node, node.childIndex(key))
		if err != nil {
			return 0, err
		}
		node = child
	}
}

// Height returns the number of levels in the tree (1 = just a root).
func (t *Tree) Height() (int, error) {
	if t.closed {
		return 0, ErrTreeClosed
	}

	h := 1
	node := t.root
	for !node.isLeaf() {
		child, err := t.load(node.children[0].position())
		if err != nil {
			return 0, err
		}
		node = child
		h++
	}
	return h, nil
}

// Count returns the number of key entries in the tree.
func (t *Tree) Count() (int64, error) {
	if t.closed {
		return 0, ErrTreeClosed
	}
	return t.countNode(t.root)
}

func (t *Tree) countNode(n *Node) (int64, error) {
	total := int64(n.nKeys())
	for i := range n.children {
		child, err := t.load(n.children[i].position())
		if err != nil {
			return 0, err
		}
		sub, err := t.countNode(child)
		if err != nil {
			return 0, err
		}
		total += sub
	}
	return total, nil
}

// Sync flushes the store to its backing file.
func (t *Tree) Sync() error {
	if t.closed {
		return ErrTreeClosed
	}
	return t.store.Sync()
}

// Close releases the store. The tree must not be used afterwards.
func (t *Tree) Close() error {
	if t.closed {
		return nil
	}
	t.closed = true
	t.root = nil
	return t.store.Close()
}

// load reads and decodes the node record at pos. An out-of-range
// offset means the engine computed a bad address, which is reported
// as a structure error rather than an I/O failure.
func (t *Tree) load(pos int32) (*Node, error) {
	cells, err := t.store.ReadMany(int64(pos), t.recordLen())
	if err != nil {
		if errors.Is(err, cellfile.ErrOutOfRange) {
			return nil, &StructureError{Pos: pos, Msg: fmt.Sprintf("node record out of range: %v", err)}
		}
		return nil, fmt.Errorf("btree: load node at %d: %w", pos, err)
	}
	return decodeNode(pos, cells, t.maxKeys(), t.maxChildren())
}

// writeNode overwrites the record of an existing node in place.
func (t *Tree) writeNode(n *Node) error {
	cells := n.encode(t.maxKeys(), t.maxChildren())
	for i, v := range cells {
		if err := t.store.Write(int64(n.pos)+int64(i), v); err != nil {
			if errors.Is(err, cellfile.ErrOutOfRange) {
				return &StructureError{Pos: n.pos, Msg: fmt.Sprintf("node record out of range: %v", err)}
			}
			return fmt.Errorf("btree: write node at %d: %w", n.pos, err)
		}
	}
	return nil
}

// appendNode persists a brand-new node at the file tail. The node's
// pos must equal the current store length.
func (t *Tree) appendNode(n *Node) error {
	if int64(n.pos) != t.store.Len() {
		return &StructureError{Pos: n.pos, Msg: "new node is not at the file tail"}
	}
	if err := t.store.Append(n.encode(t.maxKeys(), t.maxChildren())); err != nil {
		return fmt.Errorf("btree: append node at %d: %w", n.pos, err)
	}
	return nil
}

// child materializes the i-th child of n, caching the loaded node in
// the child slot. The cached node stays there across operations until
// reloadRoot discards the cache.
func (t *Tree) child(n *Node, i int) (*Node, error) {
	if n.children[i].node != nil {
		return n.children[i].node, nil
	}

	child, err := t.load(n.children[i].pos)
	if err != nil {
		return nil, err
	}
	n.children[i].node = child
	return child, nil
}

// reloadRoot discards all cached materialization and rebuilds the
// root from disk, with its children materialized one level deep.
// It must be called after any relocation, which can move nodes out
// from under in-memory copies.
func (t *Tree) reloadRoot() error {
	root, err := t.load(rootPos)
	if err != nil {
		return err
	}
	for i := range root.children {
		if _, err := t.child(root, i); err != nil {
			return err
		}
	}
	t.root = root
	return nil
}
