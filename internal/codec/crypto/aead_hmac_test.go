package crypto

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestCodec(t *testing.T) *AEADHMACCodec {
	c, err := NewAESGCMHMACCodec(bytes.Repeat([]byte{0x11}, 32), []byte("mac-key"))
	assert.NoError(t, err)
	return c
}

func TestEncryptDecrypt(t *testing.T) {
	c := newTestCodec(t)

	plaintext := []byte(`{"amount":42}`)
	aad := []byte("header-aad")

	packet, err := c.Encrypt(plaintext, aad)
	assert.NoError(t, err)
	assert.NotEqual(t, plaintext, packet)

	plain, err := c.Decrypt(packet, aad)
	assert.NoError(t, err)
	assert.Equal(t, plaintext, plain)
}

func TestDecryptTamperedPacket(t *testing.T) {
	c := newTestCodec(t)

	packet, err := c.Encrypt([]byte("secret"), []byte("aad"))
	assert.NoError(t, err)

	tampered := append([]byte(nil), packet...)
	tampered[len(tampered)/2] ^= 0xff

	_, err = c.Decrypt(tampered, []byte("aad"))
	assert.Error(t, err)
}

func TestDecryptWrongAAD(t *testing.T) {
	c := newTestCodec(t)

	packet, err := c.Encrypt([]byte("secret"), []byte("aad"))
	assert.NoError(t, err)

	_, err = c.Decrypt(packet, []byte("other-aad"))
	assert.ErrorIs(t, err, ErrInvalidMAC)
}

func TestDecryptShortPacket(t *testing.T) {
	c := newTestCodec(t)

	_, err := c.Decrypt([]byte{0x01, 0x02}, nil)
	assert.ErrorIs(t, err, ErrPacketTooShort)
}

func TestNewCodecKeyValidation(t *testing.T) {
	_, err := NewAESGCMHMACCodec([]byte("short"), []byte("mac"))
	assert.Error(t, err)

	_, err = NewAESGCMHMACCodec(bytes.Repeat([]byte{0x11}, 32), nil)
	assert.Error(t, err)
}

func TestNopEncryptor(t *testing.T) {
	e := NopEncryptor{}

	packet, err := e.Encrypt([]byte("as-is"), nil)
	assert.NoError(t, err)
	assert.Equal(t, []byte("as-is"), packet)

	plain, err := e.Decrypt(packet, nil)
	assert.NoError(t, err)
	assert.Equal(t, []byte("as-is"), plain)
}
