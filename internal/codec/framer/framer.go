package framer

import (
	"encoding/binary"
	"io"

	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/sealed-codec-go/internal/pool/bytebuffer"
	"github.com/lk2023060901/sealed-codec-go/pkg/util/serr"
)

// Framer 抽象了基于 Envelope 的打包/解包能力。
//
// 约定：
//   - 一帧数据的格式为：4 字节大端无符号整型（表示后续 Envelope 编码后的长度）+ Envelope 二进制数据。
//   - Envelope 的编码与解码见 envelope.go。
type Framer interface {
	// WriteFrame 将 Envelope 打包为一帧并写入到 w 中。
	WriteFrame(w io.Writer, env *Envelope) error

	// ReadFrame 从 r 中读取一帧数据并解包为 Envelope。
	ReadFrame(r io.Reader) (*Envelope, error)
}

// LengthPrefixedFramer 使用长度前缀（4 字节大端）作为帧边界。
// 适用于基于流的连接以及追加式的存储记录。
type LengthPrefixedFramer struct {
	// MaxFrameSize 为允许的最大帧大小（Envelope 编码后长度），单位字节。
	// 为 0 时使用默认值 defaultMaxFrameSize。
	MaxFrameSize uint32
}

const defaultMaxFrameSize uint32 = 16 * 1024 * 1024 // 16MB

// 编译期断言：确保 LengthPrefixedFramer 实现了 Framer 接口。
var _ Framer = (*LengthPrefixedFramer)(nil)

// NewLengthPrefixedFramer 创建一个长度前缀帧编码器。
// maxFrameSize 为 0 时使用默认值。
func NewLengthPrefixedFramer(maxFrameSize uint32) *LengthPrefixedFramer {
	if maxFrameSize == 0 {
		maxFrameSize = defaultMaxFrameSize
	}
	return &LengthPrefixedFramer{
		MaxFrameSize: maxFrameSize,
	}
}

// WriteFrame 将 Envelope 编码为长度前缀帧并写入。
func (f *LengthPrefixedFramer) WriteFrame(w io.Writer, env *Envelope) error {
	if env == nil || env.Header == nil {
		return serr.WrapErrParameterMissing("envelope")
	}

	// 自动修正 size 字段，保证与 payload 长度一致。
	env.Header.Size = uint32(len(env.Payload))

	buf := bytebuffer.Get()
	defer bytebuffer.Put(buf)

	body, err := marshalEnvelope(buf.B[:0], env)
	if err != nil {
		return err
	}
	buf.B = body

	length := uint32(len(body))
	if length > f.effectiveMaxSize() {
		return serr.WrapErrFrameTooLarge(uint64(length), uint64(f.effectiveMaxSize()))
	}

	var header [4]byte
	binary.BigEndian.PutUint32(header[:], length)

	if _, err := w.Write(header[:]); err != nil {
		return errors.Wrap(err, "framer: write length prefix")
	}
	if _, err := w.Write(body); err != nil {
		return errors.Wrap(err, "framer: write body")
	}

	return nil
}

// ReadFrame 从流中读取一帧数据并解码为 Envelope。
//
// 流的干净末尾返回 io.EOF；帧中途截断返回 ErrStreamShort。
func (f *LengthPrefixedFramer) ReadFrame(r io.Reader) (*Envelope, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, serr.WrapErrStreamShort("truncated length prefix")
	}

	length := binary.BigEndian.Uint32(header[:])
	if length > f.effectiveMaxSize() {
		return nil, serr.WrapErrFrameTooLarge(uint64(length), uint64(f.effectiveMaxSize()))
	}
	if length == 0 {
		return nil, serr.WrapErrStreamCorrupted("empty frame")
	}

	// 使用 ByteBuffer 池降低频繁 make 带来的分配与 GC 压力。
	buf := bytebuffer.Get()
	defer bytebuffer.Put(buf)

	// 确保底层切片容量足够。
	if cap(buf.B) < int(length) {
		buf.B = make([]byte, int(length))
	} else {
		buf.B = buf.B[:int(length)]
	}

	if _, err := io.ReadFull(r, buf.B); err != nil {
		return nil, serr.WrapErrStreamShort("truncated frame body")
	}

	env, err := unmarshalEnvelope(buf.B)
	if err != nil {
		return nil, err
	}

	// buf 即将归还，payload 需要独立副本。
	env.Payload = append([]byte(nil), env.Payload...)
	return env, nil
}

func (f *LengthPrefixedFramer) effectiveMaxSize() uint32 {
	if f == nil || f.MaxFrameSize == 0 {
		return defaultMaxFrameSize
	}
	return f.MaxFrameSize
}
