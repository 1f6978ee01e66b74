package hashring

import (
	"sync"

	"github.com/google/btree"
)

// Node is a placement result: a ring position and the identity occupying it.
type Node struct {
	Position int
	Identity string
}

type ringItem struct {
	position int
	identity string
}

func lessItem(a, b ringItem) bool {
	return a.position < b.position
}

// Ring is a balanced-tree-backed ordered map from ring position to node
// identity. All four operations (insert, remove, successor, predecessor)
// are safe for concurrent use; a caller never observes a partial insertion
// or deletion.
type Ring struct {
	mu   sync.RWMutex
	tree *btree.BTreeG[ringItem]
}

// New returns an empty ring.
func New() *Ring {
	return &Ring{tree: btree.NewG(32, lessItem)}
}

// Insert adds identity at position. A no-op if the position is already
// occupied, per the ring's uniqueness invariant.
func (r *Ring) Insert(position int, identity string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tree.Get(ringItem{position: position}); exists {
		return
	}
	r.tree.ReplaceOrInsert(ringItem{position: position, identity: identity})
}

// Remove drops the element at position. A no-op if absent.
func (r *Ring) Remove(position int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tree.Delete(ringItem{position: position})
}

// Successor returns the least position >= h, wrapping to the minimum
// position if none exists. The second return is false only when the ring
// is empty.
func (r *Ring) Successor(h int) (Node, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.tree.Len() == 0 {
		return Node{}, false
	}

	var found ringItem
	hit := false
	r.tree.AscendGreaterOrEqual(ringItem{position: h}, func(item ringItem) bool {
		found = item
		hit = true
		return false
	})
	if !hit {
		found, _ = r.tree.Min()
	}
	return Node{Position: found.position, Identity: found.identity}, true
}

// Predecessor returns the greatest position <= h, wrapping to the maximum
// position if none exists. The second return is false only when the ring
// is empty.
func (r *Ring) Predecessor(h int) (Node, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.tree.Len() == 0 {
		return Node{}, false
	}

	var found ringItem
	hit := false
	r.tree.DescendLessOrEqual(ringItem{position: h}, func(item ringItem) bool {
		found = item
		hit = true
		return false
	})
	if !hit {
		found, _ = r.tree.Max()
	}
	return Node{Position: found.position, Identity: found.identity}, true
}

// Size returns the number of nodes on the ring.
func (r *Ring) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tree.Len()
}

// Empty reports whether the ring holds no nodes.
func (r *Ring) Empty() bool {
	return r.Size() == 0
}

// RemoveIdentity removes identity's position, computed via Hash, from the
// ring. Used by the sweep to evict a node by name rather than position.
func (r *Ring) RemoveIdentity(identity string) {
	r.Remove(Hash(identity))
}

// InsertIdentity computes identity's ring position via Hash and inserts it.
func (r *Ring) InsertIdentity(identity string) {
	r.Insert(Hash(identity), identity)
}
