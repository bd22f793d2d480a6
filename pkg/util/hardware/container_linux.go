//go:build linux

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

package hardware

import (
	"github.com/cockroachdb/errors"
	"github.com/containerd/cgroups/v3"
	"github.com/containerd/cgroups/v3/cgroup1"
	"github.com/containerd/cgroups/v3/cgroup2"
)

// getContainerMemLimit 读取当前 cgroup 的内存限制，单位字节。
// 未设置限制时返回 0。
func getContainerMemLimit() (uint64, error) {
	if cgroups.Mode() == cgroups.Unified {
		m, err := cgroup2.Load("/")
		if err != nil {
			return 0, errors.Wrap(err, "failed to load cgroup v2")
		}
		stats, err := m.Stat()
		if err != nil {
			return 0, errors.Wrap(err, "failed to stat cgroup v2")
		}
		if stats.GetMemory() == nil {
			return 0, errors.New("cgroup v2 memory stats unavailable")
		}
		return stats.GetMemory().GetUsageLimit(), nil
	}

	control, err := cgroup1.Load(cgroup1.StaticPath("/"))
	if err != nil {
		return 0, errors.Wrap(err, "failed to load cgroup v1")
	}
	stats, err := control.Stat(cgroup1.IgnoreNotExist)
	if err != nil {
		return 0, errors.Wrap(err, "failed to stat cgroup v1")
	}
	if stats.GetMemory() == nil || stats.GetMemory().GetUsage() == nil {
		return 0, errors.New("cgroup v1 memory stats unavailable")
	}
	return stats.GetMemory().GetUsage().GetLimit(), nil
}
