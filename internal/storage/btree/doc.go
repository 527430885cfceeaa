// Package btree implements the disk-resident B+ tree of the sedir storage
// engine.
//
// Every node occupies exactly one block in the underlying BlockStore and is
// reloaded by block id for each operation; nodes never hold in-memory
// references to each other. Leaves carry the key/value pairs and form a
// doubly linked chain in ascending key order, which range scans follow
// without re-descending the tree. Internal nodes carry separator keys and
// child block ids only.
//
// For a tree of order m, a leaf holds at most m entries and an internal node
// at most m children; every non-root node stays at or above half occupancy
// (⌈m/2⌉). Inserts split overflowing nodes bottom-up, deletes borrow from a
// sibling before merging, and only a root split or root collapse changes the
// height of the tree.
//
// The tree serializes all operations behind one coarse lock. There is no
// write-ahead log and no rollback: a failed write mid-split can leave the
// on-disk tree inconsistent, which is an accepted property of the format.
package btree
