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

package ingestion

import (
	"context"
	"errors"

	"github.com/panjf2000/ants/v2"

	"github.com/mrdanjohnson/secondbrainv1/core"
)

// processor enriches stored memories with one derived field, such as the
// embedding or the classification.
type processor interface {
	process(ctx context.Context, ids ...core.ID) error
}

// stage runs a processor on a worker pool of its own, so slow
// classification never holds up embeddings.
type stage struct {
	name string
	pool *ants.Pool
	proc processor
}

func newStage(name string, size int, proc processor) (*stage, error) {
	pool, err := ants.NewPool(max(size, 1))
	if err != nil {
		return nil, err
	}
	return &stage{name: name, pool: pool, proc: proc}, nil
}

// submit queues ids; done runs after processing whatever the outcome, and
// is called with the processing error.
func (s *stage) submit(ids []core.ID, done func(error)) error {
	err := s.pool.Submit(func() {
		done(s.proc.process(context.Background(), ids...))
	})
	if errors.Is(err, ants.ErrPoolClosed) {
		return ErrReleased
	}
	return err
}

func (s *stage) closed() bool {
	return s.pool.IsClosed()
}

func (s *stage) release() {
	s.pool.Release()
}
