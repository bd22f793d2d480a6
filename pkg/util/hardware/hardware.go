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
	"runtime"
	"sync"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"go.uber.org/zap"

	"github.com/lk2023060901/sealed-codec-go/pkg/log"
)

var (
	memoryOnce  sync.Once
	memoryCount uint64
)

// GetCPUNum 返回当前进程可用的逻辑 CPU 数。
// 受 GOMAXPROCS 影响（容器环境下由 automaxprocs 调整）。
func GetCPUNum() int {
	return runtime.GOMAXPROCS(0)
}

// GetPhysicalCPUNum 返回主机物理 CPU 核心数。
// 获取失败时退回逻辑 CPU 数。
func GetPhysicalCPUNum() int {
	count, err := cpu.Counts(false)
	if err != nil || count <= 0 {
		return GetCPUNum()
	}
	return count
}

// GetCPUUsage 返回当前 CPU 使用率（百分比）。
func GetCPUUsage() float64 {
	percents, err := cpu.Percent(0, false)
	if err != nil {
		log.Warn("failed to get cpu usage", zap.Error(err))
		return 0
	}
	if len(percents) != 1 {
		log.Warn("something wrong in cpu.Percent", zap.Int("len", len(percents)))
		return 0
	}
	return percents[0]
}

// GetMemoryCount 返回当前进程可用的内存总量，单位字节。
// 在容器环境下返回 cgroup 限制与主机内存中的较小值。
func GetMemoryCount() uint64 {
	memoryOnce.Do(func() {
		stats, err := mem.VirtualMemory()
		if err != nil {
			log.Warn("failed to get virtual memory", zap.Error(err))
			return
		}
		memoryCount = stats.Total

		limit, err := getContainerMemLimit()
		if err != nil {
			// 非容器环境下读取 cgroup 失败属于正常情况。
			log.Debug("failed to get container memory limit", zap.Error(err))
			return
		}
		if limit > 0 && limit < memoryCount {
			memoryCount = limit
		}
	})
	return memoryCount
}

// GetUsedMemoryCount 返回主机已使用内存，单位字节。
func GetUsedMemoryCount() uint64 {
	stats, err := mem.VirtualMemory()
	if err != nil {
		log.Warn("failed to get virtual memory", zap.Error(err))
		return 0
	}
	return stats.Used
}
