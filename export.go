package sedir

import (
	"bufio"
	"compress/gzip"
	"encoding/binary"
	goerrors "errors"
	"hash/crc32"
	"io"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Dump file format:
//
//   - Bytes 0-3: magic "SDRB"
//   - Bytes 4-7: version (uint32, little-endian)
//   - gzip stream of entries: key length (uint16), key, value length
//     (uint32), value. A zero key length ends the stream, followed by a
//     CRC32 (IEEE) of all preceding entry bytes.
const (
	dumpMagic   = "SDRB"
	dumpVersion = 1
)

// Dump errors.
var (
	ErrInvalidDump     = goerrors.New("invalid dump file")
	ErrDumpChecksum    = goerrors.New("dump checksum mismatch")
	ErrDumpUnsupported = goerrors.New("unsupported dump version")
)

// Export writes every entry of the database to w as a compressed,
// checksummed dump. The scan runs at whatever state the tree is in; do not
// mutate the database while an export is running.
func (db *DB) Export(w io.Writer) error {
	bw := bufio.NewWriter(w)

	header := make([]byte, 8)
	copy(header, dumpMagic)
	binary.LittleEndian.PutUint32(header[4:8], dumpVersion)
	if _, err := bw.Write(header); err != nil {
		return errors.Wrap(err, "write dump header")
	}

	zw := gzip.NewWriter(bw)
	crc := crc32.NewIEEE()
	out := io.MultiWriter(zw, crc)

	cur, err := db.RangeScan(nil, nil)
	if err != nil {
		return err
	}
	defer cur.Close()

	var (
		count   int
		lenBuf  [4]byte
		keyLen  = lenBuf[:2]
		valLen  = lenBuf[:4]
		written int64
	)
	for {
		key, value, ok := cur.Next()
		if !ok {
			break
		}

		binary.LittleEndian.PutUint16(keyLen, uint16(len(key)))
		if _, err := out.Write(keyLen); err != nil {
			return errors.Wrap(err, "write dump entry")
		}
		if _, err := out.Write(key); err != nil {
			return errors.Wrap(err, "write dump entry")
		}

		binary.LittleEndian.PutUint32(valLen, uint32(len(value)))
		if _, err := out.Write(valLen); err != nil {
			return errors.Wrap(err, "write dump entry")
		}
		if _, err := out.Write(value); err != nil {
			return errors.Wrap(err, "write dump entry")
		}

		count++
		written += int64(2 + len(key) + 4 + len(value))
	}
	if err := cur.Err(); err != nil {
		return err
	}

	// Zero key length terminates the entry stream.
	binary.LittleEndian.PutUint16(keyLen, 0)
	if _, err := zw.Write(keyLen); err != nil {
		return errors.Wrap(err, "write dump trailer")
	}

	binary.LittleEndian.PutUint32(valLen, crc.Sum32())
	if _, err := zw.Write(valLen); err != nil {
		return errors.Wrap(err, "write dump trailer")
	}

	if err := zw.Close(); err != nil {
		return errors.Wrap(err, "close dump stream")
	}
	if err := bw.Flush(); err != nil {
		return errors.Wrap(err, "flush dump")
	}

	db.log.Info("export finished",
		zap.Int("entries", count),
		zap.Int64("bytes", written))

	return nil
}

// ExportToFile writes the dump to a new file at path.
func (db *DB) ExportToFile(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return errors.Wrap(err, "create dump file")
	}

	if err := db.Export(f); err != nil {
		f.Close()
		return err
	}

	return errors.Wrap(f.Close(), "close dump file")
}

// Import reads a dump written by Export and inserts every entry. Entries
// colliding with existing keys follow the database's duplicate policy, so
// importing into a non-empty database without Overwrite can fail midway.
func (db *DB) Import(r io.Reader) error {
	br := bufio.NewReader(r)

	header := make([]byte, 8)
	if _, err := io.ReadFull(br, header); err != nil {
		return errors.Wrap(ErrInvalidDump, "short header")
	}
	if string(header[:4]) != dumpMagic {
		return errors.Wrap(ErrInvalidDump, "bad magic")
	}
	if v := binary.LittleEndian.Uint32(header[4:8]); v != dumpVersion {
		return errors.Wrapf(ErrDumpUnsupported, "version %d", v)
	}

	zr, err := gzip.NewReader(br)
	if err != nil {
		return errors.Wrap(ErrInvalidDump, err.Error())
	}
	defer zr.Close()

	crc := crc32.NewIEEE()

	var (
		count  int
		lenBuf [4]byte
	)
	for {
		if _, err := io.ReadFull(zr, lenBuf[:2]); err != nil {
			return errors.Wrap(ErrInvalidDump, "truncated entry stream")
		}

		keyLen := binary.LittleEndian.Uint16(lenBuf[:2])
		if keyLen == 0 {
			break
		}
		crc.Write(lenBuf[:2])

		key := make([]byte, keyLen)
		if _, err := io.ReadFull(zr, key); err != nil {
			return errors.Wrap(ErrInvalidDump, "truncated key")
		}
		crc.Write(key)

		if _, err := io.ReadFull(zr, lenBuf[:4]); err != nil {
			return errors.Wrap(ErrInvalidDump, "truncated entry stream")
		}
		crc.Write(lenBuf[:4])

		value := make([]byte, binary.LittleEndian.Uint32(lenBuf[:4]))
		if _, err := io.ReadFull(zr, value); err != nil {
			return errors.Wrap(ErrInvalidDump, "truncated value")
		}
		crc.Write(value)

		if err := db.Insert(key, value); err != nil {
			return err
		}
		count++
	}

	if _, err := io.ReadFull(zr, lenBuf[:4]); err != nil {
		return errors.Wrap(ErrInvalidDump, "missing checksum")
	}
	if got := binary.LittleEndian.Uint32(lenBuf[:4]); got != crc.Sum32() {
		return errors.Wrapf(ErrDumpChecksum, "stored %08x, computed %08x", got, crc.Sum32())
	}

	db.log.Info("import finished", zap.Int("entries", count))

	return nil
}

// ImportFromFile reads a dump file at path and inserts every entry.
func (db *DB) ImportFromFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "open dump file")
	}
	defer f.Close()

	return db.Import(f)
}
