package serializer

import (
	"github.com/lk2023060901/sealed-codec-go/pkg/util/serr"
)

// Serializer 抽象了“对象 <-> 字节流”的序列化能力。
//
// 设计目标：
//   - 面向信封载荷编码，既支持 JSON，也支持 Gob、Protobuf 等二进制格式。
//   - 调用方通过接口注入具体实现，便于后续扩展其它序列化方案。
//   - Name 作为稳定标识写入信封头，解码侧据此校验序列化器是否匹配。
type Serializer interface {
	// Name 返回该序列化器的稳定名称。
	Name() string

	// Marshal 将任意对象编码为字节序列。
	Marshal(v any) ([]byte, error)

	// Unmarshal 将字节序列解码到目标对象。
	//
	// v 通常为指针类型，用于接收解码结果。
	Unmarshal(data []byte, v any) error
}

// 当前内建的序列化器名称。
const (
	NameJSON       = "json"
	NameCompatJSON = "json-compat"
	NameGob        = "gob"
	NameProto      = "proto"
)

// ByName 按名称返回内建序列化器实例。
func ByName(name string) (Serializer, error) {
	switch name {
	case NameJSON:
		return JSONSerializer{}, nil
	case NameCompatJSON:
		return CompatJSONSerializer{}, nil
	case NameGob:
		return GobSerializer{}, nil
	case NameProto:
		return ProtoSerializer{}, nil
	default:
		return nil, serr.WrapErrParameterInvalidMsg("unknown serializer %q", name)
	}
}
