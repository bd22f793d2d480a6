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
	codecMetricSubsystem = "codec"

	// EncodeLabel 与 DecodeLabel 为 codec 操作方向的标签取值。
	EncodeLabel = "encode"
	DecodeLabel = "decode"

	// SuccessLabel 与 FailLabel 为操作结果的标签取值。
	SuccessLabel = "success"
	FailLabel    = "fail"
)

var (
	// CodecOpCounter 按标签统计编解码操作次数。
	CodecOpCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: sealedNamespace,
		Subsystem: codecMetricSubsystem,
		Name:      "op_total",
		Help:      "编解码操作的累计次数",
	}, []string{tagLabelName, serializerLabelName, stageLabelName, statusLabelName})

	// CodecOpLatency 按标签记录编解码耗时，单位为毫秒。
	CodecOpLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: sealedNamespace,
		Subsystem: codecMetricSubsystem,
		Name:      "op_latency",
		Help:      "编解码操作的耗时分布",
		Buckets:   buckets,
	}, []string{tagLabelName, serializerLabelName, stageLabelName})

	// CodecPayloadBytes 记录帧内载荷的大小分布。
	CodecPayloadBytes = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: sealedNamespace,
		Subsystem: codecMetricSubsystem,
		Name:      "payload_bytes",
		Help:      "帧内载荷的字节数分布",
		Buckets:   sizeBuckets,
	}, []string{tagLabelName, serializerLabelName})

	// CodecRejectedDecodes 统计被拒绝的直接解码次数。
	// 含被封印标签命中以及帧校验失败两类。
	CodecRejectedDecodes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: sealedNamespace,
		Subsystem: codecMetricSubsystem,
		Name:      "rejected_decode_total",
		Help:      "解码阶段被拒绝的累计次数",
	}, []string{tagLabelName, stageLabelName})
)

func registerCodecMetrics(r prometheus.Registerer) {
	r.MustRegister(CodecOpCounter)
	r.MustRegister(CodecOpLatency)
	r.MustRegister(CodecPayloadBytes)
	r.MustRegister(CodecRejectedDecodes)
}
