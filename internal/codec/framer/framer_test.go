package framer

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lk2023060901/sealed-codec-go/pkg/util/serr"
)

func sampleEnvelope() *Envelope {
	return &Envelope{
		Header: &Header{
			Tag:        "domain.quantity.proxy",
			Serializer: "json",
			Version:    "1.0.0",
			Seq:        7,
			Flags:      3,
			Timestamp:  1700000000000,
		},
		Payload: []byte(`{"amount":42}`),
	}
}

func TestWriteReadFrame(t *testing.T) {
	f := NewLengthPrefixedFramer(0)
	var buf bytes.Buffer

	env := sampleEnvelope()
	assert.NoError(t, f.WriteFrame(&buf, env))
	assert.EqualValues(t, len(env.Payload), env.Header.Size)

	got, err := f.ReadFrame(&buf)
	assert.NoError(t, err)
	assert.Equal(t, env.Header, got.Header)
	assert.Equal(t, env.Payload, got.Payload)

	// 流已读尽。
	_, err = f.ReadFrame(&buf)
	assert.ErrorIs(t, err, io.EOF)
}

func TestMultipleFrames(t *testing.T) {
	f := NewLengthPrefixedFramer(0)
	var buf bytes.Buffer

	first := sampleEnvelope()
	second := sampleEnvelope()
	second.Header.Seq = 8
	second.Payload = []byte(`{"amount":1}`)

	assert.NoError(t, f.WriteFrame(&buf, first))
	assert.NoError(t, f.WriteFrame(&buf, second))

	got, err := f.ReadFrame(&buf)
	assert.NoError(t, err)
	assert.EqualValues(t, 7, got.Header.Seq)

	got, err = f.ReadFrame(&buf)
	assert.NoError(t, err)
	assert.EqualValues(t, 8, got.Header.Seq)
	assert.Equal(t, second.Payload, got.Payload)
}

func TestMaxFrameSize(t *testing.T) {
	f := NewLengthPrefixedFramer(64)
	var buf bytes.Buffer

	env := sampleEnvelope()
	env.Payload = bytes.Repeat([]byte{0xab}, 128)
	assert.ErrorIs(t, f.WriteFrame(&buf, env), serr.ErrFrameTooLarge)

	// 读取侧同样拒绝超限帧。
	big := NewLengthPrefixedFramer(1024)
	assert.NoError(t, big.WriteFrame(&buf, env))
	_, err := f.ReadFrame(&buf)
	assert.ErrorIs(t, err, serr.ErrFrameTooLarge)
}

func TestTruncatedStream(t *testing.T) {
	f := NewLengthPrefixedFramer(0)
	var buf bytes.Buffer
	assert.NoError(t, f.WriteFrame(&buf, sampleEnvelope()))

	data := buf.Bytes()

	// 长度前缀本身被截断。
	_, err := f.ReadFrame(bytes.NewReader(data[:2]))
	assert.ErrorIs(t, err, serr.ErrStreamShort)

	// 帧体中途截断。
	_, err = f.ReadFrame(bytes.NewReader(data[:len(data)-3]))
	assert.ErrorIs(t, err, serr.ErrStreamShort)
}

func TestCorruptedEnvelope(t *testing.T) {
	f := NewLengthPrefixedFramer(0)
	var buf bytes.Buffer
	assert.NoError(t, f.WriteFrame(&buf, sampleEnvelope()))

	// 篡改 tag 长度字段，令头部自述与实际字节数不符。
	data := buf.Bytes()
	data[4] = 0xff
	data[5] = 0xff

	_, err := f.ReadFrame(bytes.NewReader(data))
	assert.ErrorIs(t, err, serr.ErrStreamCorrupted)
}

func TestWriteFrameValidation(t *testing.T) {
	f := NewLengthPrefixedFramer(0)
	var buf bytes.Buffer

	assert.ErrorIs(t, f.WriteFrame(&buf, nil), serr.ErrParameterMissing)
	assert.ErrorIs(t, f.WriteFrame(&buf, &Envelope{}), serr.ErrParameterMissing)
}
