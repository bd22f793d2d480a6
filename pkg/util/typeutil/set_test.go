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

package typeutil

import (
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSet(t *testing.T) {
	set := NewSet(1, 2, 3)
	assert.Equal(t, 3, set.Len())
	assert.True(t, set.Contain(1))
	assert.True(t, set.Contain(1, 2, 3))
	assert.False(t, set.Contain(1, 4))

	set.Insert(4)
	assert.True(t, set.Contain(4))

	set.Remove(2)
	assert.False(t, set.Contain(2))
	assert.Equal(t, 3, set.Len())

	elements := set.Collect()
	sort.Ints(elements)
	assert.Equal(t, []int{1, 3, 4}, elements)

	clone := set.Clone()
	clone.Remove(1)
	assert.True(t, set.Contain(1))
	assert.False(t, clone.Contain(1))

	union := set.Union(NewSet(7, 8))
	assert.True(t, union.Contain(1, 3, 4, 7, 8))

	count := 0
	set.Range(func(element int) bool {
		count++
		return false
	})
	assert.Equal(t, 1, count)
}

func TestTagSet(t *testing.T) {
	set := NewTagSet("domain.quantity", "domain.quantity.proxy")
	assert.True(t, set.Contain("domain.quantity"))
	assert.False(t, set.Contain("domain.other"))
}

func TestConcurrentSet(t *testing.T) {
	set := NewConcurrentSet[string]()
	assert.True(t, set.Insert("a"))
	assert.False(t, set.Insert("a"))

	set.Upsert("b", "c")
	assert.True(t, set.Contain("a", "b", "c"))

	set.Remove("b")
	assert.False(t, set.Contain("b"))

	wg := sync.WaitGroup{}
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			set.Upsert("d")
		}()
	}
	wg.Wait()
	assert.True(t, set.Contain("d"))
	assert.Equal(t, 3, len(set.Collect()))
}
