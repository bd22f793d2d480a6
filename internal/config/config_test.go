package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/sealed-codec-go/pkg/util/serr"
	zviper "github.com/lk2023060901/sealed-codec-go/pkg/util/viper"
)

func TestMaxFrameBytes(t *testing.T) {
	cases := []struct {
		in   string
		want uint32
		ok   bool
	}{
		{"", 0, true},
		{"16Mi", 16 * 1024 * 1024, true},
		{"512Ki", 512 * 1024, true},
		{"1024", 1024, true},
		{"-1Mi", 0, false},
		{"bogus", 0, false},
		{"8Gi", 0, false}, // 超出 uint32 范围
	}
	for _, c := range cases {
		got, err := CodecConfig{MaxFrameSize: c.in}.MaxFrameBytes()
		if c.ok {
			assert.NoError(t, err, c.in)
			assert.Equal(t, c.want, got, c.in)
		} else {
			assert.ErrorIs(t, err, serr.ErrParameterInvalid, c.in)
		}
	}
}

func TestBuildCodecDefaults(t *testing.T) {
	c, err := CodecConfig{}.BuildCodec()
	assert.NoError(t, err)
	assert.NotNil(t, c)
}

func TestBuildCodecUnknownSerializer(t *testing.T) {
	_, err := CodecConfig{Serializer: "msgpack"}.BuildCodec()
	assert.Error(t, err)
}

func TestBuildCodecEncryptionKeys(t *testing.T) {
	valid := CodecConfig{
		Encryption:    true,
		EncryptionKey: "2222222222222222222222222222222222222222222222222222222222222222",
		MacKey:        "6d61632d6b6579",
	}
	c, err := valid.BuildCodec()
	assert.NoError(t, err)
	assert.NotNil(t, c)

	bad := valid
	bad.EncryptionKey = "not-hex"
	_, err = bad.BuildCodec()
	assert.ErrorIs(t, err, serr.ErrParameterInvalid)

	short := valid
	short.EncryptionKey = "2222"
	_, err = short.BuildCodec()
	assert.Error(t, err)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	content := `
codec:
  serializer: json
  maxFrameSize: 4Mi
  compression: true
store:
  endpoints:
    - 127.0.0.1:2379
  rootPath: sealed-records
`
	require.NoError(t, os.WriteFile(file, []byte(content), 0o600))

	v := zviper.New()
	require.NoError(t, v.LoadFile(file))

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Codec.Serializer)
	assert.True(t, cfg.Codec.Compression)
	assert.Equal(t, "sealed-records", cfg.Store.RootPath)
	assert.Equal(t, []string{"127.0.0.1:2379"}, cfg.Store.Endpoints)

	size, err := cfg.Codec.MaxFrameBytes()
	assert.NoError(t, err)
	assert.EqualValues(t, 4*1024*1024, size)
}
