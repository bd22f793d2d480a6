package compressor

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestZstdRoundTrip(t *testing.T) {
	c, err := NewZstdCompressor()
	assert.NoError(t, err)
	defer c.Close()

	src := bytes.Repeat([]byte("sealed payload "), 1024)

	packet, err := c.Compress(nil, src)
	assert.NoError(t, err)
	assert.Less(t, len(packet), len(src))

	plain, err := c.Decompress(nil, packet)
	assert.NoError(t, err)
	assert.Equal(t, src, plain)
}

func TestZstdMinCompressSize(t *testing.T) {
	c, err := NewZstdCompressor()
	assert.NoError(t, err)
	defer c.Close()

	c.SetMinCompressSize(1024)

	src := []byte("tiny")
	packet, err := c.Compress(nil, src)
	assert.NoError(t, err)
	assert.Equal(t, src, packet)
}

func TestZstdClosed(t *testing.T) {
	c, err := NewZstdCompressor()
	assert.NoError(t, err)
	c.Close()

	_, err = c.Compress(nil, []byte("x"))
	assert.Error(t, err)
	_, err = c.Decompress(nil, []byte("x"))
	assert.Error(t, err)
}

func TestNopCompressor(t *testing.T) {
	c := NopCompressor{}
	src := []byte("as-is")

	packet, err := c.Compress(nil, src)
	assert.NoError(t, err)
	assert.Equal(t, src, packet)

	plain, err := c.Decompress(nil, packet)
	assert.NoError(t, err)
	assert.Equal(t, src, plain)
}
