package kura

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"io"
	"sync"

	"github.com/yacchi/kura/codec"
	"github.com/yacchi/kura/storage"
)

// unit binds one service to its tree and file.
// The name, path and tree never change after registration.
type unit struct {
	service string
	rel     string
	tree    codec.Tree

	// mu guards lastErr and the digest. It is never held while the codec or
	// the tree runs, so setting subscribers may call back into the registry.
	mu sync.Mutex

	// lastErr is the error of the most recent load or save, nil if it
	// succeeded.
	lastErr *UnitError

	// digest is the SHA-256 of the content last read from or written to the
	// file. It lets the watcher ignore the registry's own writes.
	digest    [sha256.Size]byte
	hasDigest bool
}

// load reads the file into the tree. A missing file leaves the tree as it is
// and is not an error. The tree may be partially updated on failure.
func (u *unit) load(ctx context.Context, st storage.Storage, c codec.Codec) *UnitError {
	data, exists, err := u.read(ctx, st)
	if err != nil {
		return u.fail(st, OpLoad, err)
	}
	if !exists {
		u.succeed()
		return nil
	}
	return u.apply(st, c, data)
}

// reload is load for the watcher: content that matches the digest is
// skipped. changed reports whether the tree was handed new content.
func (u *unit) reload(ctx context.Context, st storage.Storage, c codec.Codec) (changed bool, uerr *UnitError) {
	data, exists, err := u.read(ctx, st)
	if err != nil {
		return false, u.fail(st, OpLoad, err)
	}
	if !exists {
		return false, nil
	}
	if u.matches(sha256.Sum256(data)) {
		return false, nil
	}
	return true, u.apply(st, c, data)
}

// save writes the tree to the file, replacing its previous content.
func (u *unit) save(ctx context.Context, st storage.Storage, c codec.Codec) *UnitError {
	h := sha256.New()
	err := st.Write(ctx, u.rel, func(w io.Writer) error {
		return c.Serialize(u.tree, io.MultiWriter(w, h))
	})
	if err != nil {
		return u.fail(st, OpSave, err)
	}
	var sum [sha256.Size]byte
	copy(sum[:], h.Sum(nil))
	u.mu.Lock()
	u.digest, u.hasDigest = sum, true
	u.lastErr = nil
	u.mu.Unlock()
	return nil
}

func (u *unit) read(ctx context.Context, st storage.Storage) (data []byte, exists bool, err error) {
	r, err := st.Open(ctx, u.rel)
	if errors.Is(err, storage.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	defer r.Close()

	data, err = io.ReadAll(r)
	if err != nil {
		return nil, true, err
	}
	return data, true, nil
}

// apply hands data to the codec. The digest is recorded first, so a save
// made by a subscriber during Deserialize wins over the content read here.
func (u *unit) apply(st storage.Storage, c codec.Codec, data []byte) *UnitError {
	u.mu.Lock()
	u.digest, u.hasDigest = sha256.Sum256(data), true
	u.mu.Unlock()

	if err := c.Deserialize(u.tree, bytes.NewReader(data)); err != nil {
		return u.fail(st, OpLoad, err)
	}
	u.succeed()
	return nil
}

func (u *unit) matches(sum [sha256.Size]byte) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.hasDigest && sum == u.digest
}

// err returns the error of the most recent load or save.
func (u *unit) err() *UnitError {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.lastErr
}

func (u *unit) succeed() {
	u.mu.Lock()
	u.lastErr = nil
	u.mu.Unlock()
}

func (u *unit) fail(st storage.Storage, op Op, err error) *UnitError {
	uerr := &UnitError{
		Service: u.service,
		Path:    st.Abs(u.rel),
		Op:      op,
		Kind:    classify(err),
		Err:     err,
	}
	u.mu.Lock()
	u.lastErr = uerr
	u.mu.Unlock()
	return uerr
}

// classify reports KindCodec for errors produced by a codec or rejected by
// the tree, and KindStorage for everything else.
func classify(err error) Kind {
	var (
		codecErr *codec.Error
		applyErr *codec.ApplyError
	)
	if errors.As(err, &codecErr) || errors.As(err, &applyErr) {
		return KindCodec
	}
	return KindStorage
}
