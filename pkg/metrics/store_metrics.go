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

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	storeMetricSubsystem = "store"

	opLabelName = "op"
)

var (
	// StoreOpCounter 按操作类型统计存储请求次数。
	StoreOpCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: sealedNamespace,
		Subsystem: storeMetricSubsystem,
		Name:      "op_total",
		Help:      "存储操作的累计次数",
	}, []string{opLabelName, statusLabelName})

	// StoreOpLatency 按操作类型记录存储请求耗时，单位为毫秒。
	StoreOpLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: sealedNamespace,
		Subsystem: storeMetricSubsystem,
		Name:      "op_latency",
		Help:      "存储操作的耗时分布",
		Buckets:   buckets,
	}, []string{opLabelName})

	// StoreWatchReconnects 统计 watch 断开后重建的次数。
	StoreWatchReconnects = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: sealedNamespace,
		Subsystem: storeMetricSubsystem,
		Name:      "watch_reconnect_total",
		Help:      "watch 通道断开后重建的累计次数",
	})
)

func registerStoreMetrics(r prometheus.Registerer) {
	r.MustRegister(StoreOpCounter)
	r.MustRegister(StoreOpLatency)
	r.MustRegister(StoreWatchReconnects)
}
