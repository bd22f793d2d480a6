package codec

import (
	"encoding/binary"
	"io"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/sealed-codec-go/internal/codec/compressor"
	"github.com/lk2023060901/sealed-codec-go/internal/codec/crypto"
	"github.com/lk2023060901/sealed-codec-go/internal/codec/framer"
	"github.com/lk2023060901/sealed-codec-go/internal/codec/serializer"
	"github.com/lk2023060901/sealed-codec-go/internal/sealed"
	"github.com/lk2023060901/sealed-codec-go/pkg/metrics"
	"github.com/lk2023060901/sealed-codec-go/pkg/util/serr"
)

// Codec 抽象了“从封印领域值到信封帧，以及从信封帧回到领域值”的完整编解码流程。
//
// Pipeline（写出 Encode）：
//   v --> SealProxy --> serializer --> [compress?] --> [encrypt?] --> Envelope{Header+Payload} --> framer.WriteFrame
//
// Pipeline（读入 Decode）：
//   framer.ReadFrame --> 标签/版本门禁 --> [decrypt?] --> [decompress?] --> serializer --> Restore --> v
//
// 封印类型永远不会以自身形态出现在帧里：写出侧强制走替身，
// 读入侧对封印标签无条件拒绝，替身只能经由校验构造路径还原。
type Codec interface {
	// Encode 将封印领域值编码并写入到底层流。
	//
	//   - header：由调用方构造的信封头（可为 nil，nil 时内部会创建一个空的 Header）；
	//     Tag/Serializer/Version 由编码侧填充，Seq/Timestamp 为零值时自动补齐。
	//   - v     ：待编码的封印领域值，先替换为替身再交给 serializer。
	Encode(w io.Writer, header *framer.Header, v sealed.Sealable) error

	// Decode 从底层流中读取一帧，经门禁、还原后返回领域值。
	//
	// 返回的领域值即替身 Restore 的结果，必然经过了校验构造路径。
	Decode(r io.Reader) (*framer.Header, any, error)

	// DecodeRaw 从底层流中读取一帧，并返回信封头和已完成解密/解压的载荷字节。
	//
	// 说明：
	//   - 不负责反序列化与还原，仅返回“明文字节”供上层自行处理；
	//   - 封印标签的拒绝门禁依然生效。
	DecodeRaw(r io.Reader) (*framer.Header, []byte, error)
}

// 信封头 Flags 中的处理标志位。
const (
	FlagCompressed = uint64(1) << 0
	FlagEncrypted  = uint64(1) << 1
)

// Options 用于构造 Codec 的依赖注入参数。
type Options struct {
	Framer     framer.Framer
	Serializer serializer.Serializer
	Compressor compressor.Compressor // 允许为 nil（内部会用 NopCompressor）
	Encryptor  crypto.Encryptor      // 允许为 nil（内部会用 NopEncryptor）
	Registry   *sealed.Registry      // 允许为 nil（内部会用 sealed.DefaultRegistry）

	EnableCompression bool // 是否启用压缩（影响压缩行为与 Header.Flags）
	EnableEncryption  bool // 是否启用加密（影响加密行为与 Header.Flags）
}

type codec struct {
	framer     framer.Framer
	serializer serializer.Serializer
	compressor compressor.Compressor
	encryptor  crypto.Encryptor
	registry   *sealed.Registry

	compress bool
	encrypt  bool

	seq atomic.Uint64
}

var _ Codec = (*codec)(nil)

// New 创建一个基于给定依赖的 Codec。
func New(opts Options) (Codec, error) {
	if opts.Framer == nil {
		return nil, serr.WrapErrParameterMissing("Framer")
	}
	if opts.Serializer == nil {
		return nil, serr.WrapErrParameterMissing("Serializer")
	}

	c := &codec{
		framer:     opts.Framer,
		serializer: opts.Serializer,
		registry:   opts.Registry,
		compress:   opts.EnableCompression,
		encrypt:    opts.EnableEncryption,
	}

	if opts.Compressor != nil {
		c.compressor = opts.Compressor
	} else {
		c.compressor = compressor.NopCompressor{}
	}
	if opts.Encryptor != nil {
		c.encryptor = opts.Encryptor
	} else {
		c.encryptor = crypto.NopEncryptor{}
	}
	if c.registry == nil {
		c.registry = sealed.DefaultRegistry()
	}

	return c, nil
}

// Encode 实现 Codec.Encode。
func (c *codec) Encode(w io.Writer, header *framer.Header, v sealed.Sealable) error {
	if w == nil {
		return serr.WrapErrParameterMissing("writer")
	}
	if v == nil {
		return serr.WrapErrParameterMissing("value")
	}
	if header == nil {
		header = &framer.Header{}
	}

	start := time.Now()
	err := c.encode(w, header, v)

	status := metrics.SuccessLabel
	if err != nil {
		status = metrics.FailLabel
	}
	metrics.CodecOpCounter.WithLabelValues(header.Tag, header.Serializer, metrics.EncodeLabel, status).Inc()
	metrics.CodecOpLatency.WithLabelValues(header.Tag, header.Serializer, metrics.EncodeLabel).
		Observe(float64(time.Since(start).Milliseconds()))

	return err
}

func (c *codec) encode(w io.Writer, header *framer.Header, v sealed.Sealable) error {
	// 第一步：领域值替换为替身载体。
	proxy, err := v.SealProxy()
	if err != nil {
		return errors.Wrapf(err, "codec: stage=%s", StageSeal)
	}

	tag := proxy.ProxyTag()
	version, ok := c.registry.Version(tag)
	if !ok {
		return serr.WrapErrProxyNotRegistered(tag, "encode refused for unregistered proxy")
	}

	header.Tag = tag
	header.Serializer = c.serializer.Name()
	header.Version = version.String()
	if header.Seq == 0 {
		header.Seq = c.seq.Add(1)
	}
	if header.Timestamp == 0 {
		header.Timestamp = time.Now().UnixMilli()
	}

	// 第二步：替身序列化。
	body, err := c.serializer.Marshal(proxy)
	if err != nil {
		return errors.Wrapf(err, "codec: stage=%s", StageSerialize)
	}

	// 在设置新 flags 之前，先清理压缩/加密相关位，避免复用 header 时遗留旧状态。
	header.Flags &^= (FlagCompressed | FlagEncrypted)

	// 第三步：可选压缩。
	if c.compress && len(body) > 0 {
		compressed, err := c.compressor.Compress(nil, body)
		if err != nil {
			return errors.Wrapf(err, "codec: stage=%s", StageCompress)
		}
		body = compressed
		header.Flags |= FlagCompressed
	}

	// 第四步：可选加密。
	if c.encrypt && len(body) > 0 {
		header.Flags |= FlagEncrypted
		packet, err := c.encryptor.Encrypt(body, buildAAD(header))
		if err != nil {
			return errors.Wrapf(err, "codec: stage=%s", StageEncrypt)
		}
		body = packet
	}

	// 记录最终 payload 长度（与 framer 的 Header.Size 语义保持一致）。
	header.Size = uint32(len(body))

	env := &framer.Envelope{
		Header:  header,
		Payload: body,
	}

	if err := c.framer.WriteFrame(w, env); err != nil {
		return errors.Wrapf(err, "codec: stage=%s", StageFrame)
	}

	metrics.CodecPayloadBytes.WithLabelValues(header.Tag, header.Serializer).Observe(float64(len(body)))
	return nil
}

// unwrapPayload 将帧内载荷还原为明文字节。
//
// Pipeline：[decrypt?] --> [decompress?]
func (c *codec) unwrapPayload(header *framer.Header, data []byte) ([]byte, error) {
	// 第一阶段：加密 -> 解密。
	if header.Flags&FlagEncrypted != 0 {
		if !c.encrypt {
			return nil, serr.WrapErrStreamCorrupted("encrypted payload but encryption disabled")
		}
		if len(data) == 0 {
			return nil, serr.WrapErrStreamCorrupted("encrypted payload is empty")
		}

		plain, err := c.encryptor.Decrypt(data, buildAAD(header))
		if err != nil {
			return nil, serr.WrapErrPayloadUnverifiable(err.Error(), "codec: stage="+string(StageDecrypt))
		}
		data = plain
	}

	// 第二阶段：压缩 -> 解压。
	if header.Flags&FlagCompressed != 0 {
		if !c.compress {
			return nil, serr.WrapErrStreamCorrupted("compressed payload but compression disabled")
		}
		if len(data) == 0 {
			return nil, serr.WrapErrStreamCorrupted("compressed payload is empty")
		}

		plain, err := c.compressor.Decompress(nil, data)
		if err != nil {
			return nil, serr.WrapErrStreamCorrupted(err.Error(), "codec: stage="+string(StageDecompress))
		}
		data = plain
	}

	return data, nil
}

// Decode 实现 Codec.Decode。
func (c *codec) Decode(r io.Reader) (*framer.Header, any, error) {
	if r == nil {
		return nil, nil, serr.WrapErrParameterMissing("reader")
	}

	start := time.Now()

	env, err := c.framer.ReadFrame(r)
	if err != nil {
		if err == io.EOF {
			return nil, nil, io.EOF
		}
		return nil, nil, errors.Wrapf(err, "codec: stage=%s", StageFrame)
	}
	header := env.Header

	// 门禁先于任何载荷处理：封印标签、未注册标签与版本不符在此拒绝。
	prototype, err := c.registry.NewProxy(header.Tag, header.Version)
	if err != nil {
		metrics.CodecRejectedDecodes.WithLabelValues(header.Tag, string(StageGate)).Inc()
		metrics.CodecOpCounter.WithLabelValues(header.Tag, header.Serializer, metrics.DecodeLabel, metrics.FailLabel).Inc()
		return header, nil, err
	}

	value, err := c.decodeProxy(header, env.Payload, prototype)

	status := metrics.SuccessLabel
	if err != nil {
		status = metrics.FailLabel
	}
	metrics.CodecOpCounter.WithLabelValues(header.Tag, header.Serializer, metrics.DecodeLabel, status).Inc()
	metrics.CodecOpLatency.WithLabelValues(header.Tag, header.Serializer, metrics.DecodeLabel).
		Observe(float64(time.Since(start).Milliseconds()))

	if err != nil {
		return header, nil, err
	}
	return header, value, nil
}

func (c *codec) decodeProxy(header *framer.Header, payload []byte, prototype sealed.Proxy) (any, error) {
	data, err := c.unwrapPayload(header, payload)
	if err != nil {
		return nil, err
	}

	if header.Serializer != c.serializer.Name() {
		return nil, serr.WrapErrSerializerMismatch(c.serializer.Name(), header.Serializer)
	}

	// 第三阶段：反序列化到替身原型。
	if err := c.serializer.Unmarshal(data, prototype); err != nil {
		return nil, errors.Wrapf(err, "codec: stage=%s", StageDeserialize)
	}

	// 第四阶段：经校验构造路径还原领域值。
	// 校验失败的错误原样上抛，调用方不得重试。
	value, err := prototype.Restore()
	if err != nil {
		return nil, err
	}
	return value, nil
}

// DecodeRaw 实现 Codec.DecodeRaw。
func (c *codec) DecodeRaw(r io.Reader) (*framer.Header, []byte, error) {
	if r == nil {
		return nil, nil, serr.WrapErrParameterMissing("reader")
	}

	env, err := c.framer.ReadFrame(r)
	if err != nil {
		if err == io.EOF {
			return nil, nil, io.EOF
		}
		return nil, nil, errors.Wrapf(err, "codec: stage=%s", StageFrame)
	}
	header := env.Header

	// 即使调用方自行处理字节，封印标签依然无条件拒绝。
	if c.registry.IsSealed(header.Tag) {
		metrics.CodecRejectedDecodes.WithLabelValues(header.Tag, string(StageGate)).Inc()
		return header, nil, serr.WrapErrStreamDirectDecode(header.Tag)
	}

	data, err := c.unwrapPayload(header, env.Payload)
	if err != nil {
		return header, nil, err
	}
	return header, data, nil
}

// buildAAD 将信封头中与完整性相关的字段编码为 AAD。
//
// 约定：AAD 字段顺序为：
//   u16 tagLen | tag | seq(uint64) | flags(uint64) | timestamp(int64)
//
// 注意：此处不包含 size 字段，避免与“payload 最终长度”的定义产生循环依赖。
func buildAAD(h *framer.Header) []byte {
	buf := make([]byte, 0, 2+len(h.Tag)+24)
	var scratch [8]byte

	binary.BigEndian.PutUint16(scratch[:2], uint16(len(h.Tag)))
	buf = append(buf, scratch[:2]...)
	buf = append(buf, h.Tag...)

	binary.BigEndian.PutUint64(scratch[:8], h.Seq)
	buf = append(buf, scratch[:8]...)
	binary.BigEndian.PutUint64(scratch[:8], h.Flags)
	buf = append(buf, scratch[:8]...)
	binary.BigEndian.PutUint64(scratch[:8], uint64(h.Timestamp))
	buf = append(buf, scratch[:8]...)

	return buf
}
