// ABOUTME: File-backed JSON document with process-level locking
// ABOUTME: Shared persistence helper for the taxonomy and asset stores

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrLocked is returned when another process holds the document lock.
var ErrLocked = errors.New("document locked by another process")

// ErrMalformed is returned when a document's contents fail to parse. Read
// failures are returned unwrapped so callers can tell corruption from
// filesystem faults.
var ErrMalformed = errors.New("malformed document")

// Document is a JSON file owned by a single store. The owning store is the
// sole writer; an advisory flock guards against a second process opening the
// same file. In-process serialization is the store's responsibility.
type Document struct {
	path string
	lock *flock.Flock
}

// NewDocument creates a handle for the JSON document at path. The lock is not
// acquired until Acquire is called.
func NewDocument(path string) *Document {
	return &Document{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

// Path returns the document's file path.
func (d *Document) Path() string {
	return d.path
}

// Acquire creates the parent directory if needed and takes the advisory lock.
// Returns ErrLocked if another process already holds it.
func (d *Document) Acquire() error {
	if err := os.MkdirAll(filepath.Dir(d.path), 0755); err != nil {
		return fmt.Errorf("creating document directory: %w", err)
	}
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquiring document lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrLocked, d.path)
	}
	return nil
}

// Release gives up the advisory lock.
func (d *Document) Release() error {
	return d.lock.Unlock()
}

// Load reads the document into v. Returns (false, nil) if the file does not
// exist yet.
func (d *Document) Load(v any) (bool, error) {
	data, err := os.ReadFile(d.path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", d.path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrMalformed, d.path, err)
	}
	return true, nil
}

// Store writes v as indented JSON. The write goes to a temp file in the same
// directory followed by a rename, so readers never observe a partial document.
func (d *Document) Store(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", d.path, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(d.path), filepath.Base(d.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", d.path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, d.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing %s: %w", d.path, err)
	}
	return nil
}
