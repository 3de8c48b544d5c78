// Package store implements a filesystem-backed, content-addressed
// artifact store keyed by random hex identifiers, grounded on
// apps/stored/store.c. Each store is a directory holding a scan job's
// working files; a global append-only index records when each store
// was entered.
package store

import (
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	sce "github.com/sebcat/yans/errors"
)

const (
	// IDSize is the length of a store id, a lowercase hex string.
	IDSize = 20
	// PrefixSize is the number of trailing id characters used as the
	// intermediate fan-out directory name.
	PrefixSize = 2
	// MaxPathLen bounds a relative path passed to Open or Rename.
	// lib/yans has no retrievable STORE_MAXPATH; this is a generous,
	// explicitly chosen bound for a single path component or short
	// relative path, not a value carried over from the original.
	MaxPathLen = 256
	// maxGenTries bounds retries on id collision when generating a
	// fresh store id, matching MAXTRIES_GENSTORE in store.c.
	maxGenTries = 128

	indexFileName = "INDEX"
	storeDirName  = "store"
)

// Store manages the on-disk store tree rooted at a base directory:
//
//	<base>/store/INDEX
//	<base>/store/<last-2-hex>/<id>/...
type Store struct {
	root string // path to the "store" directory, baseDir/store

	mu  sync.Mutex
	rng *rand.Rand

	index *Index
}

// Open creates the store directory tree under baseDir if it does not
// exist, opens (or creates) its index file, and returns a ready Store.
// Each process gets its own PRNG seed, matching the "PRNG and
// hashtable seed are per-process" note on sharing the index file
// across worker processes.
func Open(baseDir string) (*Store, error) {
	root := filepath.Join(baseDir, storeDirName)
	if err := os.MkdirAll(root, 0o700); err != nil {
		return nil, sce.WithMessage(sce.ErrEnvironmental, "store: mkdir: "+err.Error())
	}

	idx, err := OpenIndex(filepath.Join(root, indexFileName))
	if err != nil {
		return nil, err
	}

	seed := time.Now().UnixNano()
	return &Store{
		root:  root,
		rng:   rand.New(rand.NewSource(seed)),
		index: idx,
	}, nil
}

// Root returns the path to the store's "store" directory; it is
// absolute only if the baseDir passed to Open was.
func (s *Store) Root() string { return s.root }

// Index returns the store's shared append-only index.
func (s *Store) Index() *Index { return s.index }

// EnterOptions control the optional atomic indexing performed by
// Enter.
type EnterOptions struct {
	// Indexed requests that entering the store also appends a record
	// to the global index.
	Indexed   bool
	Name      string
	IndexedAt time.Time
}

// Session is a handle to an entered store. Open and Rename are only
// reachable through a Session, so a client cannot perform either
// without first entering a store -- mirroring the protocol invariant
// that open/rename require a prior enter.
type Session struct {
	store *Store
	id    string
	path  string // directory for this store, under the store root
}

// ID returns the 20-character hex id of the entered store.
func (sess *Session) ID() string { return sess.id }

// Path returns the directory path of the entered store, under Root.
func (sess *Session) Path() string { return sess.path }

// Enter enters the store named by id, creating it if it doesn't
// exist. If id is empty, a fresh id is generated (retrying up to 128
// times on collision) and entered.
func (s *Store) Enter(id string, opts EnterOptions) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		path string
		err  error
	)
	if id == "" {
		id, path, err = s.genAndEnter()
	} else {
		if !IsValidID(id) {
			return nil, sce.WithMessage(sce.ErrProtocolViolation, "store: invalid store id")
		}
		path, err = s.enter(id)
	}
	if err != nil {
		return nil, err
	}

	if opts.Indexed {
		ts := opts.IndexedAt
		if ts.IsZero() {
			ts = time.Now()
		}
		if err := s.index.Put(id, opts.Name, ts); err != nil {
			return nil, err
		}
	}

	return &Session{store: s, id: id, path: path}, nil
}

// genAndEnter generates a fresh id and enters it exclusively, retrying
// on collision up to maxGenTries times, grounded on
// create_and_enter_store in store.c.
func (s *Store) genAndEnter() (string, string, error) {
	for i := 0; i < maxGenTries; i++ {
		id := s.genID()
		path, err := s.enterExclusive(id)
		if err == nil {
			return id, path, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return "", "", err
		}
	}
	return "", "", sce.WithMessage(sce.ErrResourceExhausted, "store: exhausted id generation attempts")
}

const hexDigits = "0123456789abcdef"

// genID generates a random IDSize-character lowercase hex id, grounded
// on gen_store_path in store.c.
func (s *Store) genID() string {
	buf := make([]byte, IDSize)
	for i := range buf {
		buf[i] = hexDigits[s.rng.Intn(len(hexDigits))]
	}
	return string(buf)
}

// IsValidID reports whether id is a well-formed store id: exactly
// IDSize lowercase hex characters, grounded on is_valid_store_id.
func IsValidID(id string) bool {
	if len(id) != IDSize {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return false
		}
	}
	return true
}

func (s *Store) prefixDir(id string) string {
	return id[len(id)-PrefixSize:]
}

func (s *Store) storePath(id string) string {
	return filepath.Join(s.root, s.prefixDir(id), id)
}

// enter creates id's directory tree if missing and returns its path,
// tolerating EEXIST on both levels (non-exclusive mode in
// enter_store).
func (s *Store) enter(id string) (string, error) {
	prefix := filepath.Join(s.root, s.prefixDir(id))
	if err := os.Mkdir(prefix, 0o700); err != nil && !errors.Is(err, os.ErrExist) {
		return "", sce.WithMessage(sce.ErrEnvironmental, "store: mkdir prefix: "+err.Error())
	}

	path := s.storePath(id)
	if err := os.Mkdir(path, 0o700); err != nil && !errors.Is(err, os.ErrExist) {
		return "", sce.WithMessage(sce.ErrEnvironmental, "store: mkdir store: "+err.Error())
	}
	return path, nil
}

// enterExclusive is like enter, but the final id directory must not
// already exist -- used for freshly generated ids, where an existing
// directory means a PRNG collision the caller should retry past.
func (s *Store) enterExclusive(id string) (string, error) {
	prefix := filepath.Join(s.root, s.prefixDir(id))
	if err := os.Mkdir(prefix, 0o700); err != nil && !errors.Is(err, os.ErrExist) {
		return "", sce.WithMessage(sce.ErrEnvironmental, "store: mkdir prefix: "+err.Error())
	}

	path := s.storePath(id)
	if err := os.Mkdir(path, 0o700); err != nil {
		return "", err
	}
	return path, nil
}

// IsValidPath reports whether path is safe to join onto a store
// directory: no path separators, no control bytes, and bounded
// length, grounded on is_valid_path.
func IsValidPath(path string) bool {
	if len(path) == 0 || len(path) >= MaxPathLen {
		return false
	}
	for i := 0; i < len(path); i++ {
		c := path[i]
		if c == '/' || c < 0x20 {
			return false
		}
	}
	return true
}

// Open opens a file at relPath within the entered store, grounded on
// handle_store_open. Flags and perm are passed through to os.OpenFile.
func (sess *Session) Open(relPath string, flag int, perm os.FileMode) (*os.File, error) {
	if !IsValidPath(relPath) {
		return nil, sce.WithMessage(sce.ErrProtocolViolation, "store: invalid path")
	}
	return os.OpenFile(filepath.Join(sess.path, relPath), flag, perm)
}

// Rename renames a file from oldRelPath to newRelPath within the
// entered store, grounded on handle_store_rename.
func (sess *Session) Rename(oldRelPath, newRelPath string) error {
	if !IsValidPath(oldRelPath) || !IsValidPath(newRelPath) {
		return sce.WithMessage(sce.ErrProtocolViolation, "store: invalid path")
	}
	oldPath := filepath.Join(sess.path, oldRelPath)
	newPath := filepath.Join(sess.path, newRelPath)
	if err := os.Rename(oldPath, newPath); err != nil {
		return sce.WithMessage(sce.ErrEnvironmental, "store: rename: "+err.Error())
	}
	return nil
}
