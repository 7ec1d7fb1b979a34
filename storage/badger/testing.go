// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package badger

import "errors"

// Repositories bundles the repositories sharing one BadgerDB backend.
type Repositories struct {
	Backend    *Backend
	Memories   *MemoryRepository
	Categories *CategoryRepository
}

// NewRepositories opens (or creates) a database at path.
func NewRepositories(path string) (*Repositories, error) {
	return openRepositories(path)
}

// NewMemoryRepositories creates in-memory repositories for testing.
// Caller must Close the result when done.
func NewMemoryRepositories() (*Repositories, error) {
	return openRepositories("", InMemory())
}

func openRepositories(path string, opts ...BackendOption) (*Repositories, error) {
	backend, err := OpenBackend(path, opts...)
	if err != nil {
		return nil, err
	}

	memories, err := NewMemoryRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	return &Repositories{
		Backend:    backend,
		Memories:   memories,
		Categories: NewCategoryRepository(backend),
	}, nil
}

// Close releases the repositories and closes the backend.
func (r *Repositories) Close() error {
	return errors.Join(r.Memories.Close(), r.Backend.Close())
}
