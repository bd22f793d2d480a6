package serializer

import (
	"bytes"
	"encoding/gob"
)

// GobSerializer 使用 encoding/gob 进行二进制序列化。
//
// 注意：gob 是 Go 专用格式，仅适合两端都是本框架的场景。
type GobSerializer struct{}

// 编译期断言：确保 GobSerializer 实现了 Serializer 接口。
var _ Serializer = GobSerializer{}

func (GobSerializer) Name() string {
	return NameGob
}

func (GobSerializer) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (GobSerializer) Unmarshal(data []byte, v any) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}
