package framer

import (
	"encoding/binary"

	"github.com/lk2023060901/sealed-codec-go/pkg/util/serr"
)

// Header 为信封头，描述载荷的来源与处理方式。
//
// 其中 Tag/Seq/Flags/Timestamp 参与加密时的 AAD 计算，
// 解码侧在解密前即可依据 Tag 做门禁判断。
type Header struct {
	// Tag 为载荷对象的标签（替身标签或被拒绝的封印标签）。
	Tag string

	// Serializer 为编码载荷所用序列化器的稳定名称。
	Serializer string

	// Version 为载荷序列化形态的格式版本（semver 字符串）。
	Version string

	// Seq 为报文序号。
	Seq uint64

	// Flags 为处理标志位（压缩、加密等）。
	Flags uint64

	// Timestamp 为编码时刻，Unix 毫秒。
	Timestamp int64

	// Size 为 Payload 的字节长度。
	Size uint32
}

// Envelope 为一帧数据的完整内容：信封头 + 载荷。
type Envelope struct {
	Header  *Header
	Payload []byte
}

// 头部字符串字段的长度上限。
const (
	maxTagLen    = 1<<16 - 1
	maxStrLen    = 1<<8 - 1
	fixedHdrSize = 8 + 8 + 8 + 4 // seq + flags + timestamp + size
)

// marshalEnvelope 将信封编码为二进制形式并追加到 dst。
//
// 布局（大端）：
//
//	u16 tagLen | tag | u8 serLen | ser | u8 verLen | ver |
//	u64 seq | u64 flags | i64 timestamp | u32 size | payload
func marshalEnvelope(dst []byte, env *Envelope) ([]byte, error) {
	h := env.Header
	if len(h.Tag) > maxTagLen {
		return nil, serr.WrapErrParameterInvalidMsg("tag length %d exceeds %d", len(h.Tag), maxTagLen)
	}
	if len(h.Serializer) > maxStrLen {
		return nil, serr.WrapErrParameterInvalidMsg("serializer name length %d exceeds %d", len(h.Serializer), maxStrLen)
	}
	if len(h.Version) > maxStrLen {
		return nil, serr.WrapErrParameterInvalidMsg("version length %d exceeds %d", len(h.Version), maxStrLen)
	}

	var scratch [8]byte

	binary.BigEndian.PutUint16(scratch[:2], uint16(len(h.Tag)))
	dst = append(dst, scratch[:2]...)
	dst = append(dst, h.Tag...)

	dst = append(dst, byte(len(h.Serializer)))
	dst = append(dst, h.Serializer...)

	dst = append(dst, byte(len(h.Version)))
	dst = append(dst, h.Version...)

	binary.BigEndian.PutUint64(scratch[:8], h.Seq)
	dst = append(dst, scratch[:8]...)
	binary.BigEndian.PutUint64(scratch[:8], h.Flags)
	dst = append(dst, scratch[:8]...)
	binary.BigEndian.PutUint64(scratch[:8], uint64(h.Timestamp))
	dst = append(dst, scratch[:8]...)
	binary.BigEndian.PutUint32(scratch[:4], h.Size)
	dst = append(dst, scratch[:4]...)

	dst = append(dst, env.Payload...)
	return dst, nil
}

// unmarshalEnvelope 从二进制形式还原信封。
//
// Payload 为 data 的子切片，调用方若要在 data 失效后继续使用需自行拷贝。
func unmarshalEnvelope(data []byte) (*Envelope, error) {
	h := &Header{}
	rest := data

	tag, rest, err := readString16(rest)
	if err != nil {
		return nil, serr.WrapErrStreamCorrupted("truncated tag")
	}
	h.Tag = tag

	h.Serializer, rest, err = readString8(rest)
	if err != nil {
		return nil, serr.WrapErrStreamCorrupted("truncated serializer name")
	}

	h.Version, rest, err = readString8(rest)
	if err != nil {
		return nil, serr.WrapErrStreamCorrupted("truncated version")
	}

	if len(rest) < fixedHdrSize {
		return nil, serr.WrapErrStreamCorrupted("truncated fixed header")
	}
	h.Seq = binary.BigEndian.Uint64(rest[0:8])
	h.Flags = binary.BigEndian.Uint64(rest[8:16])
	h.Timestamp = int64(binary.BigEndian.Uint64(rest[16:24]))
	h.Size = binary.BigEndian.Uint32(rest[24:28])
	rest = rest[fixedHdrSize:]

	if uint32(len(rest)) != h.Size {
		return nil, serr.WrapErrStreamCorrupted("payload size mismatch")
	}

	return &Envelope{
		Header:  h,
		Payload: rest,
	}, nil
}

func readString16(data []byte) (string, []byte, error) {
	if len(data) < 2 {
		return "", nil, serr.ErrStreamCorrupted
	}
	n := int(binary.BigEndian.Uint16(data[:2]))
	data = data[2:]
	if len(data) < n {
		return "", nil, serr.ErrStreamCorrupted
	}
	return string(data[:n]), data[n:], nil
}

func readString8(data []byte) (string, []byte, error) {
	if len(data) < 1 {
		return "", nil, serr.ErrStreamCorrupted
	}
	n := int(data[0])
	data = data[1:]
	if len(data) < n {
		return "", nil, serr.ErrStreamCorrupted
	}
	return string(data[:n]), data[n:], nil
}
