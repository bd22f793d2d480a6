// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package conc

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
)

func TestPool(t *testing.T) {
	pool := NewPool[int](4)
	defer pool.Release()

	assert.Equal(t, 4, pool.Cap())

	futures := make([]*Future[int], 0, 16)
	for i := 0; i < 16; i++ {
		i := i
		futures = append(futures, pool.Submit(func() (int, error) {
			return i * i, nil
		}))
	}

	for i, future := range futures {
		v, err := future.Await()
		assert.NoError(t, err)
		assert.Equal(t, i*i, v)
		assert.True(t, future.OK())
	}
}

func TestPoolError(t *testing.T) {
	pool := NewPool[int](1)
	defer pool.Release()

	mockErr := errors.New("mock task error")
	future := pool.Submit(func() (int, error) {
		return 0, mockErr
	})

	assert.False(t, future.OK())
	assert.ErrorIs(t, future.Err(), mockErr)
}

func TestAwaitAll(t *testing.T) {
	pool := NewPool[struct{}](2)
	defer pool.Release()

	ok := pool.Submit(func() (struct{}, error) {
		return struct{}{}, nil
	})
	bad := pool.Submit(func() (struct{}, error) {
		return struct{}{}, errors.New("boom")
	})

	err := AwaitAll(ok, bad)
	assert.Error(t, err)

	err = AwaitAll(ok)
	assert.NoError(t, err)
}

func TestPoolWithPreHandler(t *testing.T) {
	called := make(chan struct{}, 1)
	pool := NewPool[bool](1, WithPreHandler(func() {
		called <- struct{}{}
	}))
	defer pool.Release()

	future := pool.Submit(func() (bool, error) {
		return true, nil
	})
	assert.True(t, future.Value())
	assert.Len(t, called, 1)
}
