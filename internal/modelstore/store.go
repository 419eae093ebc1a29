// Package modelstore resolves named, versioned model references to local
// file paths. The download/versioning backend is an external collaborator;
// this package defines the capability interface plus a read-only local
// directory implementation for pre-provisioned caches.
package modelstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Ref identifies one model, e.g. "vgg16@1.0".
type Ref struct {
	Name    string
	Version string
}

func (r Ref) String() string { return r.Name + "@" + r.Version }

// ParseRef parses a "name@version" model reference.
func ParseRef(s string) (Ref, error) {
	name, version, ok := strings.Cut(s, "@")
	if !ok || name == "" || version == "" {
		return Ref{}, fmt.Errorf("invalid model reference %q: want \"name@version\"", s)
	}
	return Ref{Name: name, Version: version}, nil
}

// NotFoundError reports a model absent from the store.
type NotFoundError struct {
	Ref Ref
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("model %s not found in store", e.Ref)
}

// Store resolves a model reference to a local file path, fetching from
// remote storage on a cache miss where the implementation supports it.
type Store interface {
	Resolve(ctx context.Context, ref Ref) (string, error)
}

// DirStore serves models from a local directory laid out as
// <root>/<name>/<version>. It never downloads; a miss is a hard error.
type DirStore struct {
	root string
}

// NewDirStore creates a DirStore rooted at the given directory.
func NewDirStore(root string) *DirStore {
	return &DirStore{root: root}
}

// Resolve implements Store.
func (s *DirStore) Resolve(ctx context.Context, ref Ref) (string, error) {
	path := filepath.Join(s.root, ref.Name, ref.Version)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", &NotFoundError{Ref: ref}
		}
		return "", fmt.Errorf("resolving model %s: %w", ref, err)
	}
	return path, nil
}
