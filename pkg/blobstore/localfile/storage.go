// Copyright 2024 The Solaris Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package localfile is a blobstore.Storage over local files, keyed by their
// path. It maps each file read-only with github.com/edsrzf/mmap-go instead
// of copying it into a []byte with os.ReadFile.
package localfile

import (
	"context"
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"
	"github.com/solarisdb/blockdelta/golibs/errors"
	"github.com/solarisdb/blockdelta/pkg/blobstore"
)

// Storage resolves keys directly to file paths under Root: key "/a/b.bin"
// maps to Root+"/a/b.bin". It only supports Get; Put/List/Delete return
// ErrUnimplemented since the CLI only ever reads reference/target files
// this way.
type Storage struct {
	Root string
}

var _ blobstore.Storage = (*Storage)(nil)

// New returns a Storage rooted at root.
func New(root string) *Storage {
	return &Storage{Root: root}
}

// Get maps the file at Root+key read-only and returns a copy of its full
// contents. The mapping is unmapped before Get returns; callers that want
// to avoid the copy should use Map directly.
func (s *Storage) Get(_ context.Context, key string) ([]byte, error) {
	if !blobstore.IsKeyValid(key) {
		return nil, fmt.Errorf("localfile.Storage.Get(): invalid key=%s: %w", key, errors.ErrInvalid)
	}
	data, err := s.Map(key)
	if err != nil {
		return nil, err
	}
	defer data.Close()
	cp := make([]byte, len(data.Bytes()))
	copy(cp, data.Bytes())
	return cp, nil
}

// Put is unimplemented: localfile is a read-only view of existing files.
func (s *Storage) Put(context.Context, string, []byte) error {
	return fmt.Errorf("localfile.Storage.Put(): %w", errors.ErrUnimplemented)
}

// List is unimplemented: localfile is a read-only view of existing files.
func (s *Storage) List(context.Context, string) ([]string, error) {
	return nil, fmt.Errorf("localfile.Storage.List(): %w", errors.ErrUnimplemented)
}

// Delete is unimplemented: localfile is a read-only view of existing files.
func (s *Storage) Delete(context.Context, string) error {
	return fmt.Errorf("localfile.Storage.Delete(): %w", errors.ErrUnimplemented)
}

// MappedFile is a read-only memory mapping of one file. Close unmaps it.
type MappedFile struct {
	f  *os.File
	mm mmap.MMap
}

// Bytes returns the mapped contents. The slice is only valid until Close.
func (m *MappedFile) Bytes() []byte { return m.mm }

// Close unmaps the file and closes its descriptor.
func (m *MappedFile) Close() error {
	if m.mm != nil {
		if err := m.mm.Unmap(); err != nil {
			return err
		}
		m.mm = nil
	}
	return m.f.Close()
}

// Map opens and memory-maps the file at Root+key read-only, without
// copying its contents. An empty file cannot be mapped (mmap-go requires a
// non-zero region), so Map returns ErrInvalid for one.
func (s *Storage) Map(key string) (*MappedFile, error) {
	if !blobstore.IsKeyValid(key) {
		return nil, fmt.Errorf("localfile.Storage.Map(): invalid key=%s: %w", key, errors.ErrInvalid)
	}
	path := s.Root + key

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("localfile.Storage.Map(path=%s): %w", path, errors.ErrNotExist)
		}
		return nil, fmt.Errorf("localfile.Storage.Map(path=%s): %w", path, err)
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("localfile.Storage.Map(path=%s): stat failed: %w", path, err)
	}
	if fi.Size() == 0 {
		f.Close()
		return nil, fmt.Errorf("localfile.Storage.Map(path=%s): file is empty: %w", path, errors.ErrInvalid)
	}

	mm, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("localfile.Storage.Map(path=%s): mmap failed: %w", path, err)
	}

	return &MappedFile{f: f, mm: mm}, nil
}
