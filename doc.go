// Package sedir is an embedded, single-file key/value store backed by a
// disk-resident B+ tree.
//
// Keys and values are opaque byte strings ordered by bytes.Compare. All
// data lives in one file of fixed-size blocks: block 0 holds the file
// header, every other block holds one tree node. Point lookups, ordered
// range scans in both directions, and deletes with full rebalancing are
// supported. One DB value is safe for concurrent use from multiple
// goroutines.
//
//	db, err := sedir.Open("data.sdr", sedir.DefaultOptions())
//	if err != nil {
//		return err
//	}
//	defer db.Close()
//
//	if err := db.Insert([]byte("user:1"), []byte("ada")); err != nil {
//		return err
//	}
//
//	value, found, err := db.Search([]byte("user:1"))
package sedir
