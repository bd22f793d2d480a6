package serializer

import (
	jsoniter "github.com/json-iterator/go"
)

// CompatJSONSerializer 使用 json-iterator 的标准库兼容配置实现 JSON 编解码。
//
// 与 JSONSerializer 的区别：部分调用方依赖 encoding/json 的逐字节兼容行为
// （例如 map 键排序、浮点格式），此实现以兼容性优先。
type CompatJSONSerializer struct{}

// 编译期断言：确保 CompatJSONSerializer 实现了 Serializer 接口。
var _ Serializer = CompatJSONSerializer{}

var compatJSON = jsoniter.ConfigCompatibleWithStandardLibrary

func (CompatJSONSerializer) Name() string {
	return NameCompatJSON
}

func (CompatJSONSerializer) Marshal(v any) ([]byte, error) {
	return compatJSON.Marshal(v)
}

func (CompatJSONSerializer) Unmarshal(data []byte, v any) error {
	return compatJSON.Unmarshal(data, v)
}
