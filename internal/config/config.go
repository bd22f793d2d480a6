// Package config 定义编解码与存储的配置结构，并负责从配置构建组件。
package config

import (
	"encoding/hex"

	"k8s.io/apimachinery/pkg/api/resource"

	"github.com/lk2023060901/sealed-codec-go/internal/codec"
	"github.com/lk2023060901/sealed-codec-go/internal/codec/compressor"
	"github.com/lk2023060901/sealed-codec-go/internal/codec/crypto"
	"github.com/lk2023060901/sealed-codec-go/internal/codec/framer"
	"github.com/lk2023060901/sealed-codec-go/internal/codec/serializer"
	"github.com/lk2023060901/sealed-codec-go/pkg/util/serr"
	zviper "github.com/lk2023060901/sealed-codec-go/pkg/util/viper"
)

// CodecConfig 为编解码管线的配置。
//
// 字节大小使用 Kubernetes 的数量表示法（"16Mi"、"512Ki" 等）。
type CodecConfig struct {
	// Serializer 为序列化器名称，见 serializer 包的内建名称。
	Serializer string `mapstructure:"serializer"`

	// MaxFrameSize 为允许的最大帧大小，空串使用 framer 默认值。
	MaxFrameSize string `mapstructure:"maxFrameSize"`

	// Compression 是否启用 zstd 压缩。
	Compression bool `mapstructure:"compression"`

	// Encryption 是否启用 AES-256-GCM + HMAC 加密。
	Encryption bool `mapstructure:"encryption"`

	// EncryptionKey 为 hex 编码的 32 字节加密密钥。
	EncryptionKey string `mapstructure:"encryptionKey"`

	// MacKey 为 hex 编码的 HMAC 密钥。
	MacKey string `mapstructure:"macKey"`
}

// StoreConfig 为记录存储的配置。
type StoreConfig struct {
	// Endpoints 为 etcd 集群地址，UseEmbed 为 true 时忽略。
	Endpoints []string `mapstructure:"endpoints"`

	// RootPath 为所有记录键的公共前缀。
	RootPath string `mapstructure:"rootPath"`

	// UseEmbed 是否使用嵌入式 etcd。
	UseEmbed bool `mapstructure:"useEmbed"`

	// EmbedDataDir 为嵌入式 etcd 的数据目录。
	EmbedDataDir string `mapstructure:"embedDataDir"`

	// EmbedLogPath 为嵌入式 etcd 的日志输出路径。
	EmbedLogPath string `mapstructure:"embedLogPath"`
}

// Config 为完整的应用配置。
type Config struct {
	Codec CodecConfig `mapstructure:"codec"`
	Store StoreConfig `mapstructure:"store"`
}

// Load 从 viper 配置实例解析出 Config。
func Load(v *zviper.Config) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MaxFrameBytes 解析 MaxFrameSize；空串返回 0（使用 framer 默认值）。
func (c CodecConfig) MaxFrameBytes() (uint32, error) {
	if c.MaxFrameSize == "" {
		return 0, nil
	}
	q, err := resource.ParseQuantity(c.MaxFrameSize)
	if err != nil {
		return 0, serr.WrapErrParameterInvalidMsg("unparsable maxFrameSize %q: %v", c.MaxFrameSize, err)
	}
	size := q.Value()
	if size <= 0 || size > int64(^uint32(0)) {
		return 0, serr.WrapErrParameterInvalidMsg("maxFrameSize %q out of range", c.MaxFrameSize)
	}
	return uint32(size), nil
}

// BuildCodec 根据配置构建完整的编解码管线。
func (c CodecConfig) BuildCodec() (codec.Codec, error) {
	name := c.Serializer
	if name == "" {
		name = serializer.NameJSON
	}
	ser, err := serializer.ByName(name)
	if err != nil {
		return nil, err
	}

	maxFrame, err := c.MaxFrameBytes()
	if err != nil {
		return nil, err
	}

	opts := codec.Options{
		Framer:            framer.NewLengthPrefixedFramer(maxFrame),
		Serializer:        ser,
		EnableCompression: c.Compression,
		EnableEncryption:  c.Encryption,
	}

	if c.Compression {
		zc, err := compressor.NewZstdCompressor()
		if err != nil {
			return nil, err
		}
		opts.Compressor = zc
	}

	if c.Encryption {
		encKey, err := hex.DecodeString(c.EncryptionKey)
		if err != nil {
			return nil, serr.WrapErrParameterInvalidMsg("encryptionKey is not valid hex: %v", err)
		}
		macKey, err := hex.DecodeString(c.MacKey)
		if err != nil {
			return nil, serr.WrapErrParameterInvalidMsg("macKey is not valid hex: %v", err)
		}
		enc, err := crypto.NewAESGCMHMACCodec(encKey, macKey)
		if err != nil {
			return nil, err
		}
		opts.Encryptor = enc
	}

	return codec.New(opts)
}
