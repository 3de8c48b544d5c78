package store

import (
	"context"
	"errors"
	"io"
	"regexp"

	"gocloud.dev/blob"
	"gocloud.dev/blob/fileblob"

	sce "github.com/sebcat/yans/errors"
)

// Entry is one row of a store listing: a file within a store (Name
// and Size set) or a store id discovered at the top level (Name set,
// Size zero).
type Entry struct {
	Name string
	Size int64
}

// ListStores lists every store id under the store tree as Entry
// values with Name set to the id and Size zero, optionally filtered
// by a regular expression on the id, grounded on
// list_stores. It skips descending past the two directory levels of
// the store tree, mirroring the FTS_D-at-level-2 skip in the original.
func (s *Store) ListStores(ctx context.Context, mustMatch *regexp.Regexp) ([]Entry, error) {
	bucket, err := fileblob.OpenBucket(s.root, nil)
	if err != nil {
		return nil, sce.WithMessage(sce.ErrEnvironmental, "store: open bucket: "+err.Error())
	}
	defer bucket.Close()

	var prefixes []string
	it := bucket.List(&blob.ListOptions{Delimiter: "/"})
	for {
		obj, err := it.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, sce.WithMessage(sce.ErrEnvironmental, "store: list prefixes: "+err.Error())
		}
		if obj.IsDir {
			prefixes = append(prefixes, obj.Key)
		}
	}

	var out []Entry
	for _, prefix := range prefixes {
		it := bucket.List(&blob.ListOptions{Prefix: prefix, Delimiter: "/"})
		for {
			obj, err := it.Next(ctx)
			if err != nil {
				if errors.Is(err, io.EOF) {
					break
				}
				return nil, sce.WithMessage(sce.ErrEnvironmental, "store: list ids: "+err.Error())
			}
			if !obj.IsDir {
				continue
			}
			id := trimTrailingSlash(baseName(obj.Key))
			if !IsValidID(id) {
				continue
			}
			if mustMatch != nil && !mustMatch.MatchString(id) {
				continue
			}
			out = append(out, Entry{Name: id})
		}
	}
	return out, nil
}

// ListContent lists the files directly within the entered store as
// Entry values carrying name and size, optionally filtered by a
// regular expression on the file name, grounded on
// list_store_content.
func (sess *Session) ListContent(ctx context.Context, mustMatch *regexp.Regexp) ([]Entry, error) {
	bucket, err := fileblob.OpenBucket(sess.path, nil)
	if err != nil {
		return nil, sce.WithMessage(sce.ErrEnvironmental, "store: open bucket: "+err.Error())
	}
	defer bucket.Close()

	var out []Entry
	it := bucket.List(&blob.ListOptions{Delimiter: "/"})
	for {
		obj, err := it.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, sce.WithMessage(sce.ErrEnvironmental, "store: list content: "+err.Error())
		}
		if obj.IsDir {
			continue
		}
		if mustMatch != nil && !mustMatch.MatchString(obj.Key) {
			continue
		}
		out = append(out, Entry{Name: obj.Key, Size: obj.Size})
	}
	return out, nil
}

func baseName(key string) string {
	for i := len(key) - 2; i >= 0; i-- {
		if key[i] == '/' {
			return key[i+1:]
		}
	}
	return key
}

func trimTrailingSlash(s string) string {
	if len(s) > 0 && s[len(s)-1] == '/' {
		return s[:len(s)-1]
	}
	return s
}
