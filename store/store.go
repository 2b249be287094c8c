// Package store implements a disk-backed level store: a content store
// keyed by (level, slot) holding one bignum per slot, with random
// access get/put/drop. The remainder-tree descent revisits a parent
// level slot by slot, and the final reduction reloads level 0 long
// after the product-tree build finished writing it, so entries must
// survive independently of write order.
package store

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fvial/rsabatchgcd/bignum"
)

// ErrMissing is returned by Get when an entry does not exist after the
// retry window elapses. Callers only call Get once a level barrier
// guarantees the entry was written, so a persistent ErrMissing
// indicates a scheduler bug, not a data condition.
var ErrMissing = errors.New("store: entry missing")

// Store is a directory-backed (level, slot) bignum store. Each logical
// tree (the product tree, the remainder tree) uses its own Namespace
// so the two trees' entries never collide on disk even though both
// index by (level, slot).
type Store struct {
	dir string
}

// Open returns a Store rooted at dir. dir must already exist and be
// writable; the engine neither creates nor cleans the working
// directory.
func Open(dir string) (*Store, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("store: %s is not a directory", dir)
	}
	return &Store{dir: dir}, nil
}

// Namespace returns a view of the same directory scoped to ns, used to
// keep the product tree's entries and the remainder tree's spilled
// entries (both indexed by (level, slot)) from colliding on disk.
func (s *Store) Namespace(ns string) *Namespace {
	return &Namespace{store: s, ns: ns}
}

// Namespace is a named partition of a Store's (level, slot) keyspace.
type Namespace struct {
	store *Store
	ns    string
}

func (n *Namespace) path(level, slot int) string {
	return filepath.Join(n.store.dir, fmt.Sprintf("%s-L%d-S%d.bin", n.ns, level, slot))
}

// Put durably writes value at (level, slot). The write is atomic
// against concurrent readers: it writes to a uniquely-named temp file
// in the same directory, then renames onto the final name, so a
// reader either sees the complete prior file, the complete new file,
// or ErrMissing. It never sees a partial write.
func (n *Namespace) Put(level, slot int, value *bignum.Int) error {
	final := n.path(level, slot)
	tmp, err := n.tempName()
	if err != nil {
		return fmt.Errorf("store: put (%d,%d): %w", level, slot, err)
	}

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("store: put (%d,%d): %w", level, slot, err)
	}
	if _, err := f.Write(value.Bytes()); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("store: put (%d,%d): %w", level, slot, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("store: put (%d,%d): %w", level, slot, err)
	}
	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("store: put (%d,%d): %w", level, slot, err)
	}
	return nil
}

// Get loads the value at (level, slot), retrying briefly on
// not-found to absorb filesystem write-visibility lag. Callers only
// call Get once a barrier guarantees the write already happened, so
// the retry window is defensive, not a replacement for the barrier.
func (n *Namespace) Get(level, slot int) (*bignum.Int, error) {
	deadline := time.Now().Add(2 * time.Second)
	backoff := time.Millisecond
	for {
		buf, err := os.ReadFile(n.path(level, slot))
		if err == nil {
			return bignum.FromBytes(buf), nil
		}
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("store: get (%d,%d): %w", level, slot, err)
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("store: get (%d,%d): %w", level, slot, ErrMissing)
		}
		time.Sleep(backoff)
		if backoff < 50*time.Millisecond {
			backoff *= 2
		}
	}
}

// Drop releases the storage for (level, slot). Missing entries are
// not an error: a slot may be dropped at most once by its sole
// consumer, but a caller that races a drop against its own cleanup on
// an error path should not itself fail.
func (n *Namespace) Drop(level, slot int) error {
	if err := os.Remove(n.path(level, slot)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("store: drop (%d,%d): %w", level, slot, err)
	}
	return nil
}

// Copy promotes a value unchanged from one slot to another by reading
// it and writing it back under the new key, used to carry an odd tail
// up a level without ever multiplying it by one.
func (n *Namespace) Copy(fromLevel, fromSlot, toLevel, toSlot int) error {
	v, err := n.Get(fromLevel, fromSlot)
	if err != nil {
		return err
	}
	return n.Put(toLevel, toSlot, v)
}

func (n *Namespace) tempName() (string, error) {
	var r [8]byte
	if _, err := rand.Read(r[:]); err != nil {
		return "", err
	}
	return filepath.Join(n.store.dir, fmt.Sprintf(".%s-tmp-%d-%s", n.ns, os.Getpid(), hex.EncodeToString(r[:]))), nil
}
