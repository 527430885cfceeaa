package benchmarks

import (
	"fmt"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/pebble"

	"github.com/sedirdb/sedir"
)

const benchValueSize = 128

func benchKey(i int) []byte {
	return []byte(fmt.Sprintf("key-%012d", i))
}

func benchValue() []byte {
	value := make([]byte, benchValueSize)
	rand.New(rand.NewSource(1)).Read(value)
	return value
}

func openSedir(b *testing.B) *sedir.DB {
	b.Helper()

	opts := sedir.DefaultOptions()
	opts.Overwrite = true

	db, err := sedir.Open(filepath.Join(b.TempDir(), "bench.sdr"), opts)
	if err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() { db.Close() })

	return db
}

func openPebble(b *testing.B) *pebble.DB {
	b.Helper()

	db, err := pebble.Open(b.TempDir(), &pebble.Options{})
	if err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() { db.Close() })

	return db
}

func BenchmarkSedirInsert(b *testing.B) {
	db := openSedir(b)
	value := benchValue()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := db.Insert(benchKey(i), value); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkPebbleInsert(b *testing.B) {
	db := openPebble(b)
	value := benchValue()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := db.Set(benchKey(i), value, pebble.NoSync); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSedirSearch(b *testing.B) {
	db := openSedir(b)
	value := benchValue()

	const keys = 100000
	for i := 0; i < keys; i++ {
		if err := db.Insert(benchKey(i), value); err != nil {
			b.Fatal(err)
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, found, err := db.Search(benchKey(i % keys))
		if err != nil {
			b.Fatal(err)
		}
		if !found {
			b.Fatal("key not found")
		}
	}
}

func BenchmarkPebbleSearch(b *testing.B) {
	db := openPebble(b)
	value := benchValue()

	const keys = 100000
	for i := 0; i < keys; i++ {
		if err := db.Set(benchKey(i), value, pebble.NoSync); err != nil {
			b.Fatal(err)
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		got, closer, err := db.Get(benchKey(i % keys))
		if err != nil {
			b.Fatal(err)
		}
		_ = got
		closer.Close()
	}
}

func BenchmarkSedirScan(b *testing.B) {
	db := openSedir(b)
	value := benchValue()

	const keys = 100000
	for i := 0; i < keys; i++ {
		if err := db.Insert(benchKey(i), value); err != nil {
			b.Fatal(err)
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cur, err := db.RangeScan(nil, nil)
		if err != nil {
			b.Fatal(err)
		}

		count := 0
		for {
			_, _, ok := cur.Next()
			if !ok {
				break
			}
			count++
		}
		if err := cur.Err(); err != nil {
			b.Fatal(err)
		}
		cur.Close()

		if count != keys {
			b.Fatalf("scanned %d keys, expected %d", count, keys)
		}
	}
}

func BenchmarkPebbleScan(b *testing.B) {
	db := openPebble(b)
	value := benchValue()

	const keys = 100000
	for i := 0; i < keys; i++ {
		if err := db.Set(benchKey(i), value, pebble.NoSync); err != nil {
			b.Fatal(err)
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		iter, err := db.NewIter(&pebble.IterOptions{})
		if err != nil {
			b.Fatal(err)
		}

		count := 0
		for iter.First(); iter.Valid(); iter.Next() {
			count++
		}
		iter.Close()

		if count != keys {
			b.Fatalf("scanned %d keys, expected %d", count, keys)
		}
	}
}

func BenchmarkSedirDelete(b *testing.B) {
	db := openSedir(b)
	value := benchValue()

	for i := 0; i < b.N; i++ {
		if err := db.Insert(benchKey(i), value); err != nil {
			b.Fatal(err)
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		removed, err := db.Delete(benchKey(i))
		if err != nil {
			b.Fatal(err)
		}
		if !removed {
			b.Fatal("key not found")
		}
	}
}
