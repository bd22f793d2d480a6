// Copyright (c) 2019 The Gnet Authors. All rights reserved.
// Copyright (c) 2016 Aliaksandr Valialkin, VertaMedia
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
//
// Use of this source code is governed by a MIT license that can be found
// at https://github.com/valyala/bytebufferpool/blob/master/LICENSE

// Package bytebuffer 实现了一个字节缓冲区对象池，用于降低 GC 压力。
package bytebuffer

import (
	"io"
)

// ByteBuffer 提供可复用的字节缓冲区。
//
// 直接操作 B 字段即可读写底层切片，使用结束后通过 Put 归还。
type ByteBuffer struct {
	// B 为底层字节切片。
	B []byte
}

// Len 返回缓冲区内数据长度。
func (b *ByteBuffer) Len() int {
	return len(b.B)
}

// Cap 返回底层切片容量。
func (b *ByteBuffer) Cap() int {
	return cap(b.B)
}

// ReadFrom 实现 io.ReaderFrom，将 r 中的全部数据追加到缓冲区。
func (b *ByteBuffer) ReadFrom(r io.Reader) (int64, error) {
	p := b.B
	nStart := int64(len(p))
	nMax := int64(cap(p))
	n := nStart
	if nMax == 0 {
		nMax = 64
		p = make([]byte, nMax)
	} else {
		p = p[:nMax]
	}
	for {
		if n == nMax {
			nMax *= 2
			bNew := make([]byte, nMax)
			copy(bNew, p)
			p = bNew
		}
		nn, err := r.Read(p[n:])
		n += int64(nn)
		if err != nil {
			b.B = p[:n]
			n -= nStart
			if err == io.EOF {
				return n, nil
			}
			return n, err
		}
	}
}

// Write 实现 io.Writer，将 p 追加到缓冲区。
func (b *ByteBuffer) Write(p []byte) (int, error) {
	b.B = append(b.B, p...)
	return len(p), nil
}

// WriteString 将 s 追加到缓冲区。
func (b *ByteBuffer) WriteString(s string) (int, error) {
	b.B = append(b.B, s...)
	return len(s), nil
}

// Set 将缓冲区内容设置为 p。
func (b *ByteBuffer) Set(p []byte) {
	b.B = append(b.B[:0], p...)
}

// String 返回缓冲区内容的字符串表示。
func (b *ByteBuffer) String() string {
	return string(b.B)
}

// Reset 清空缓冲区，保留底层容量。
func (b *ByteBuffer) Reset() {
	b.B = b.B[:0]
}
