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

// Package inmem is a blobstore.Storage backed by a plain map, for tests and
// the in-process store blockdeltad runs with.
package inmem

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/solarisdb/blockdelta/golibs/errors"
	"github.com/solarisdb/blockdelta/pkg/blobstore"
)

// Storage is an in-memory blobstore.Storage. The zero value is ready to use.
type Storage struct {
	lock sync.RWMutex
	vals map[string][]byte
}

var _ blobstore.Storage = (*Storage)(nil)

// New returns an empty Storage.
func New() *Storage {
	return &Storage{vals: make(map[string][]byte)}
}

// Get implements blobstore.Storage.
func (s *Storage) Get(_ context.Context, key string) ([]byte, error) {
	if !blobstore.IsKeyValid(key) {
		return nil, fmt.Errorf("inmem.Storage.Get(): invalid key=%s: %w", key, errors.ErrInvalid)
	}
	s.lock.RLock()
	defer s.lock.RUnlock()
	v, ok := s.vals[key]
	if !ok {
		return nil, fmt.Errorf("inmem.Storage.Get(): key=%s: %w", key, errors.ErrNotExist)
	}
	cp := make([]byte, len(v))
	copy(cp, v)
	return cp, nil
}

// Put implements blobstore.Storage.
func (s *Storage) Put(_ context.Context, key string, data []byte) error {
	if !blobstore.IsKeyValid(key) {
		return fmt.Errorf("inmem.Storage.Put(): invalid key=%s: %w", key, errors.ErrInvalid)
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	s.lock.Lock()
	defer s.lock.Unlock()
	s.vals[key] = cp
	return nil
}

// List implements blobstore.Storage.
func (s *Storage) List(_ context.Context, path string) ([]string, error) {
	if !blobstore.IsPathValid(path) {
		return nil, fmt.Errorf("inmem.Storage.List(): invalid path=%s: %w", path, errors.ErrInvalid)
	}
	s.lock.RLock()
	defer s.lock.RUnlock()

	seen := make(map[string]bool)
	var res []string
	for k := range s.vals {
		if !strings.HasPrefix(k, path) {
			continue
		}
		rest := k[len(path):]
		if idx := strings.Index(rest, "/"); idx >= 0 {
			sub := path + rest[:idx+1]
			if !seen[sub] {
				seen[sub] = true
				res = append(res, sub)
			}
			continue
		}
		if !seen[k] {
			seen[k] = true
			res = append(res, k)
		}
	}
	return res, nil
}

// Delete implements blobstore.Storage.
func (s *Storage) Delete(_ context.Context, key string) error {
	if !blobstore.IsKeyValid(key) {
		return fmt.Errorf("inmem.Storage.Delete(): invalid key=%s: %w", key, errors.ErrInvalid)
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	delete(s.vals, key)
	return nil
}
