package codec

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/sealed-codec-go/internal/codec/compressor"
	"github.com/lk2023060901/sealed-codec-go/internal/codec/crypto"
	"github.com/lk2023060901/sealed-codec-go/internal/codec/framer"
	"github.com/lk2023060901/sealed-codec-go/internal/codec/serializer"
	"github.com/lk2023060901/sealed-codec-go/internal/domain/quantity"
	"github.com/lk2023060901/sealed-codec-go/internal/sealed"
	"github.com/lk2023060901/sealed-codec-go/pkg/util/serr"
)

func newJSONCodec(t *testing.T) Codec {
	c, err := New(Options{
		Framer:     framer.NewLengthPrefixedFramer(0),
		Serializer: serializer.JSONSerializer{},
	})
	require.NoError(t, err)
	return c
}

func mustQuantity(t *testing.T, amount int64) *quantity.Quantity {
	q, err := quantity.New(amount)
	require.NoError(t, err)
	return q
}

func TestNewValidation(t *testing.T) {
	_, err := New(Options{Serializer: serializer.JSONSerializer{}})
	assert.ErrorIs(t, err, serr.ErrParameterMissing)

	_, err = New(Options{Framer: framer.NewLengthPrefixedFramer(0)})
	assert.ErrorIs(t, err, serr.ErrParameterMissing)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	c := newJSONCodec(t)
	var buf bytes.Buffer

	assert.NoError(t, c.Encode(&buf, nil, mustQuantity(t, 42)))

	header, value, err := c.Decode(&buf)
	assert.NoError(t, err)
	assert.Equal(t, quantity.ProxyTag, header.Tag)
	assert.Equal(t, serializer.NameJSON, header.Serializer)
	assert.Equal(t, quantity.FormatVersion.String(), header.Version)
	assert.NotZero(t, header.Seq)
	assert.NotZero(t, header.Timestamp)

	q, ok := value.(*quantity.Quantity)
	require.True(t, ok)
	assert.EqualValues(t, 42, q.Amount())
}

func TestDecodeIndependence(t *testing.T) {
	c := newJSONCodec(t)
	var buf bytes.Buffer

	q := mustQuantity(t, 7)
	assert.NoError(t, c.Encode(&buf, nil, q))
	assert.NoError(t, c.Encode(&buf, nil, q))

	_, first, err := c.Decode(&buf)
	assert.NoError(t, err)
	_, second, err := c.Decode(&buf)
	assert.NoError(t, err)

	// 两次解码得到相互独立、取值相等的实例。
	assert.NotSame(t, first, second)
	assert.EqualValues(t, 7, first.(*quantity.Quantity).Amount())
	assert.EqualValues(t, 7, second.(*quantity.Quantity).Amount())

	_, _, err = c.Decode(&buf)
	assert.ErrorIs(t, err, io.EOF)
}

// writeRawEnvelope 手工构造一帧，绕过编码侧的替身替换。
func writeRawEnvelope(t *testing.T, buf *bytes.Buffer, tag, version string, payload []byte) {
	f := framer.NewLengthPrefixedFramer(0)
	require.NoError(t, f.WriteFrame(buf, &framer.Envelope{
		Header: &framer.Header{
			Tag:        tag,
			Serializer: serializer.NameJSON,
			Version:    version,
			Seq:        1,
			Timestamp:  1,
		},
		Payload: payload,
	}))
}

func TestDecodeRejectsSealedTag(t *testing.T) {
	c := newJSONCodec(t)

	// 载荷内容无关紧要，哪怕是完全合法的数值。
	for _, payload := range []string{`{"amount":42}`, `{"amount":-1}`, `{}`, `garbage`} {
		var buf bytes.Buffer
		writeRawEnvelope(t, &buf, quantity.SealedTag, quantity.FormatVersion.String(), []byte(payload))

		_, _, err := c.Decode(&buf)
		assert.ErrorIs(t, err, serr.ErrStreamDirectDecode, payload)
	}
}

func TestDecodeRejectsUnknownTag(t *testing.T) {
	c := newJSONCodec(t)
	var buf bytes.Buffer
	writeRawEnvelope(t, &buf, "no.such.tag", "1.0.0", []byte(`{}`))

	_, _, err := c.Decode(&buf)
	assert.ErrorIs(t, err, serr.ErrProxyNotRegistered)
}

func TestDecodeRejectsNewerFormatVersion(t *testing.T) {
	c := newJSONCodec(t)
	var buf bytes.Buffer
	writeRawEnvelope(t, &buf, quantity.ProxyTag, "2.0.0", []byte(`{"amount":1}`))

	_, _, err := c.Decode(&buf)
	assert.ErrorIs(t, err, serr.ErrFormatVersion)
}

func TestRestoreRejectsInvariantViolation(t *testing.T) {
	c := newJSONCodec(t)
	var buf bytes.Buffer

	// 篡改出的负数载体通过门禁与反序列化，但在还原时被校验构造函数拒绝。
	writeRawEnvelope(t, &buf, quantity.ProxyTag, quantity.FormatVersion.String(), []byte(`{"amount":-5}`))

	_, value, err := c.Decode(&buf)
	assert.Nil(t, value)
	assert.ErrorIs(t, err, serr.ErrInvariantViolated)
}

func TestEncodeRejectsUnregisteredProxy(t *testing.T) {
	c := newJSONCodec(t)
	var buf bytes.Buffer

	err := c.Encode(&buf, nil, unregisteredSealable{})
	assert.ErrorIs(t, err, serr.ErrProxyNotRegistered)
	assert.Zero(t, buf.Len())
}

type unregisteredSealable struct{}

func (unregisteredSealable) SealedTag() string { return "unregistered" }
func (unregisteredSealable) SealProxy() (sealed.Proxy, error) {
	return unregisteredProxy{}, nil
}

type unregisteredProxy struct{}

func (unregisteredProxy) ProxyTag() string      { return "unregistered.proxy" }
func (unregisteredProxy) Restore() (any, error) { return nil, nil }

func TestSerializerMismatch(t *testing.T) {
	jsonCodec := newJSONCodec(t)
	gobCodec, err := New(Options{
		Framer:     framer.NewLengthPrefixedFramer(0),
		Serializer: serializer.GobSerializer{},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	assert.NoError(t, jsonCodec.Encode(&buf, nil, mustQuantity(t, 3)))

	_, _, err = gobCodec.Decode(&buf)
	assert.ErrorIs(t, err, serr.ErrSerializerMismatch)
}

func TestCompressedRoundTrip(t *testing.T) {
	zc, err := compressor.NewZstdCompressor()
	require.NoError(t, err)
	defer zc.Close()

	c, err := New(Options{
		Framer:            framer.NewLengthPrefixedFramer(0),
		Serializer:        serializer.JSONSerializer{},
		Compressor:        zc,
		EnableCompression: true,
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	assert.NoError(t, c.Encode(&buf, nil, mustQuantity(t, 1024)))

	header, value, err := c.Decode(&buf)
	assert.NoError(t, err)
	assert.NotZero(t, header.Flags&FlagCompressed)
	assert.EqualValues(t, 1024, value.(*quantity.Quantity).Amount())
}

func newEncryptedCodec(t *testing.T) Codec {
	enc, err := crypto.NewAESGCMHMACCodec(bytes.Repeat([]byte{0x22}, 32), []byte("mac-key"))
	require.NoError(t, err)

	c, err := New(Options{
		Framer:           framer.NewLengthPrefixedFramer(0),
		Serializer:       serializer.JSONSerializer{},
		Encryptor:        enc,
		EnableEncryption: true,
	})
	require.NoError(t, err)
	return c
}

func TestEncryptedRoundTrip(t *testing.T) {
	c := newEncryptedCodec(t)
	var buf bytes.Buffer

	assert.NoError(t, c.Encode(&buf, nil, mustQuantity(t, 9)))

	header, value, err := c.Decode(&buf)
	assert.NoError(t, err)
	assert.NotZero(t, header.Flags&FlagEncrypted)
	assert.EqualValues(t, 9, value.(*quantity.Quantity).Amount())
}

func TestEncryptedTamperRejected(t *testing.T) {
	c := newEncryptedCodec(t)
	var buf bytes.Buffer
	assert.NoError(t, c.Encode(&buf, nil, mustQuantity(t, 9)))

	// 翻转载荷末尾的一个字节（HMAC 区域）。
	data := buf.Bytes()
	data[len(data)-1] ^= 0xff

	_, _, err := c.Decode(bytes.NewReader(data))
	assert.ErrorIs(t, err, serr.ErrPayloadUnverifiable)
}

func TestDecodeRaw(t *testing.T) {
	c := newJSONCodec(t)
	var buf bytes.Buffer
	assert.NoError(t, c.Encode(&buf, nil, mustQuantity(t, 5)))

	header, data, err := c.DecodeRaw(&buf)
	assert.NoError(t, err)
	assert.Equal(t, quantity.ProxyTag, header.Tag)
	assert.JSONEq(t, `{"amount":5}`, string(data))
}

func TestDecodeRawRejectsSealedTag(t *testing.T) {
	c := newJSONCodec(t)
	var buf bytes.Buffer
	writeRawEnvelope(t, &buf, quantity.SealedTag, quantity.FormatVersion.String(), []byte(`{"amount":5}`))

	_, _, err := c.DecodeRaw(&buf)
	assert.ErrorIs(t, err, serr.ErrStreamDirectDecode)
}

func TestHeaderReuseClearsFlags(t *testing.T) {
	c := newJSONCodec(t)
	var buf bytes.Buffer

	header := &framer.Header{Flags: FlagCompressed | FlagEncrypted}
	assert.NoError(t, c.Encode(&buf, header, mustQuantity(t, 1)))

	// 未启用压缩/加密时，复用的 header 上的旧标志位被清除。
	assert.Zero(t, header.Flags&FlagCompressed)
	assert.Zero(t, header.Flags&FlagEncrypted)

	_, value, err := c.Decode(&buf)
	assert.NoError(t, err)
	assert.EqualValues(t, 1, value.(*quantity.Quantity).Amount())
}
