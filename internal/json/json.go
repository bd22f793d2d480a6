package json

import (
	"io"

	"github.com/bytedance/sonic"
)

// 统一使用 sonic 的标准兼容配置，
// 行为与 encoding/json 保持一致。
var json = sonic.ConfigStd

type Decoder = sonic.Decoder
type Encoder = sonic.Encoder

func Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	return json.MarshalIndent(v, prefix, indent)
}

func NewDecoder(r io.Reader) Decoder {
	return json.NewDecoder(r)
}

func NewEncoder(w io.Writer) Encoder {
	return json.NewEncoder(w)
}
