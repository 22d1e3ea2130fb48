/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package wallet

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hyperledger-labs/fabric-asset-client/asset/services/identity"
	"github.com/pkg/errors"
)

const idFileExtension = ".id"

// FileSystem stores each identity in <dir>/<label>.id.
type FileSystem struct {
	dir string
}

// NewFileSystem returns a wallet rooted at dir, creating the directory if needed.
func NewFileSystem(dir string) (*FileSystem, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.Wrapf(err, "failed to create wallet directory [%s]", dir)
	}
	return &FileSystem{dir: dir}, nil
}

func (w *FileSystem) path(label string) (string, error) {
	if len(label) == 0 || strings.ContainsAny(label, `/\`) || label == "." || label == ".." {
		return "", errors.Errorf("invalid identity label [%s]", label)
	}
	return filepath.Join(w.dir, label+idFileExtension), nil
}

func (w *FileSystem) Get(_ context.Context, label string) (*identity.Identity, error) {
	p, err := w.path(label)
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrNotFound, "no identity [%s] in [%s]", label, w.dir)
		}
		return nil, errors.Wrapf(err, "failed to read identity [%s]", label)
	}
	return Unmarshal(label, raw)
}

// Put writes the entry to a temporary file and links it into place.
// Linking fails if the target exists, which makes the put-if-absent atomic.
func (w *FileSystem) Put(_ context.Context, id *identity.Identity) error {
	p, err := w.path(id.Label)
	if err != nil {
		return err
	}
	raw, err := Marshal(id)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(w.dir, "."+id.Label+"-*")
	if err != nil {
		return errors.Wrapf(err, "failed to create temporary file for [%s]", id.Label)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return errors.Wrapf(err, "failed to write identity [%s]", id.Label)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "failed to write identity [%s]", id.Label)
	}
	if err := os.Link(tmp.Name(), p); err != nil {
		if os.IsExist(err) {
			return errors.Wrapf(ErrExists, "identity [%s] in [%s]", id.Label, w.dir)
		}
		return errors.Wrapf(err, "failed to store identity [%s]", id.Label)
	}
	logger.Debugf("stored identity [%s] in [%s]", id.Label, w.dir)
	return nil
}

func (w *FileSystem) List(context.Context) ([]string, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list wallet [%s]", w.dir)
	}
	var labels []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, idFileExtension) {
			continue
		}
		labels = append(labels, strings.TrimSuffix(name, idFileExtension))
	}
	sort.Strings(labels)
	return labels, nil
}
