package serializer

import (
	"github.com/lk2023060901/sealed-codec-go/internal/json"
)

// JSONSerializer 使用 internal/json（基于 bytedance/sonic）实现 JSON 编解码。
//
// 行为与 encoding/json 对齐，性能优于标准库。
type JSONSerializer struct{}

// 编译期断言：确保 JSONSerializer 实现了 Serializer 接口。
var _ Serializer = JSONSerializer{}

func (JSONSerializer) Name() string {
	return NameJSON
}

func (JSONSerializer) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (JSONSerializer) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}
