package store

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	sce "github.com/sebcat/yans/errors"
)

// nameFieldSize bounds the null-padded name field of an index record.
// SINDEX_NAMESZ is not present in the retrievable sources; this value
// is a deliberate choice documented in the design notes, not a value
// carried over from the original.
const nameFieldSize = 256

// recordSize is the fixed width of one index record: a 20-byte id, a
// bounded null-padded name, and an 8-byte big-endian Unix timestamp.
const recordSize = IDSize + nameFieldSize + 8

// Index is the append-only log of store entries, shared by every
// worker process via atomic append, grounded on init_index/put_index
// in store.c.
type Index struct {
	path string

	mu sync.Mutex
	f  *os.File
}

// OpenIndex opens (creating if necessary) the index file at path in
// append mode.
func OpenIndex(path string) (*Index, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return nil, sce.WithMessage(sce.ErrEnvironmental, "store: open index: "+err.Error())
	}
	return &Index{path: path, f: f}, nil
}

// Record is one decoded index entry.
type Record struct {
	ID        string
	Name      string
	IndexedAt time.Time
}

// Put appends a record for id, name, and indexedAt. Each write is a
// single write(2) of a fixed-width record; concurrent appenders rely
// on O_APPEND for atomicity, matching "relying on atomic append
// semantics" in the reactor contract.
func (ix *Index) Put(id, name string, indexedAt time.Time) error {
	if !IsValidID(id) {
		return sce.WithMessage(sce.ErrProtocolViolation, "store: invalid store id for index")
	}

	var rec [recordSize]byte
	copy(rec[0:IDSize], id)
	copy(rec[IDSize:IDSize+nameFieldSize], name) // remainder stays zero-padded
	binary.BigEndian.PutUint64(rec[IDSize+nameFieldSize:], uint64(indexedAt.Unix()))

	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.f == nil {
		if err := ix.reopen(); err != nil {
			return err
		}
	}
	if _, err := ix.f.Write(rec[:]); err != nil {
		// The index file may have been removed out from under us;
		// reopen and retry once, mirroring reinit_index's
		// reopen-on-ENOENT behavior for the next caller.
		if errors.Is(err, os.ErrNotExist) {
			if rerr := ix.reopen(); rerr == nil {
				_, err = ix.f.Write(rec[:])
			}
		}
		if err != nil {
			return sce.WithMessage(sce.ErrEnvironmental, "store: write index: "+err.Error())
		}
	}
	return nil
}

// Reopen closes and reopens the index file, recreating it if it is
// missing. Callers use this after being handed the index's read-only
// fd and finding it gone, matching "If the index file is missing, it
// is recreated" for the index() operation.
func (ix *Index) Reopen() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.reopen()
}

func (ix *Index) reopen() error {
	if ix.f != nil {
		ix.f.Close()
		ix.f = nil
	}
	f, err := os.OpenFile(ix.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return sce.WithMessage(sce.ErrEnvironmental, "store: reopen index: "+err.Error())
	}
	ix.f = f
	return nil
}

// OpenReadOnly opens the index file read-only, the fd handed back to
// clients for the index() operation.
func (ix *Index) OpenReadOnly() (*os.File, error) {
	f, err := os.Open(ix.path)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Path returns the path of the index file, as passed to OpenIndex.
func (ix *Index) Path() string { return ix.path }

// Close closes the index's underlying file handle.
func (ix *Index) Close() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.f == nil {
		return nil
	}
	err := ix.f.Close()
	ix.f = nil
	return err
}

// Reader provides random-access, newest-first iteration over an index
// file's fixed-width records, grounded on "A separate index reader
// iterates records from most recent backward, supporting a
// (before-row, count) window."
type Reader struct {
	data []byte
}

// OpenReader reads the full index file at path into memory and
// returns a Reader over its records.
func OpenReader(path string) (*Reader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, sce.WithMessage(sce.ErrEnvironmental, "store: read index: "+err.Error())
	}
	if len(data)%recordSize != 0 {
		return nil, sce.WithMessage(sce.ErrInputFormat, fmt.Sprintf(
			"store: index file size %d is not a multiple of record size %d", len(data), recordSize))
	}
	return &Reader{data: data}, nil
}

// Len returns the number of records in the index.
func (r *Reader) Len() int { return len(r.data) / recordSize }

// At decodes the row-th record, in file order (oldest first, row 0).
func (r *Reader) At(row int) (Record, error) {
	if row < 0 || row >= r.Len() {
		return Record{}, sce.WithMessage(sce.ErrProtocolViolation, "store: index row out of range")
	}
	off := row * recordSize
	rec := r.data[off : off+recordSize]

	id := string(rec[0:IDSize])
	name := decodeName(rec[IDSize : IDSize+nameFieldSize])
	ts := int64(binary.BigEndian.Uint64(rec[IDSize+nameFieldSize:]))

	return Record{ID: id, Name: name, IndexedAt: time.Unix(ts, 0).UTC()}, nil
}

func decodeName(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

// Window returns up to count records ordered newest first, starting
// just before row index before (exclusive). before <= 0 means start
// from the most recently written record.
func (r *Reader) Window(before, count int) ([]Record, error) {
	total := r.Len()
	if before <= 0 || before > total {
		before = total
	}
	if count < 0 {
		count = 0
	}

	start := before - 1
	end := start - count + 1
	if end < 0 {
		end = 0
	}

	out := make([]Record, 0, start-end+1)
	for row := start; row >= end; row-- {
		rec, err := r.At(row)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}
