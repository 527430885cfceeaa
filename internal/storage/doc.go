// Package storage implements the block layer of the sedir storage engine.
//
// A sedir store is a single file divided into fixed-size blocks. Block 0 is
// the file header; every other block either holds an encoded B+ tree node or
// sits on the free list. The free list is threaded through the free blocks
// themselves: the first eight bytes of a free block hold the id of the next
// free block, and the head of the chain lives in the header.
//
// The BlockStore knows nothing about tree semantics. Higher layers address
// blocks only by id, never by file offset.
package storage
