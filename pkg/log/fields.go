package log

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	FieldNameModule    = "module"
	FieldNameComponent = "component"
	FieldNameTag       = "tag"
	FieldNameStage     = "stage"
)

// FieldModule 返回一个包含模块名的 zap 字段。
func FieldModule(module string) zap.Field {
	return zap.String(FieldNameModule, module)
}

// FieldComponent 返回一个包含组件名的 zap 字段。
func FieldComponent(component string) zap.Field {
	return zap.String(FieldNameComponent, component)
}

// FieldTag 返回一个包含信封标签的 zap 字段。
func FieldTag(tag string) zap.Field {
	return zap.String(FieldNameTag, tag)
}

// FieldStage 返回一个包含编解码阶段的 zap 字段。
func FieldStage(stage string) zap.Field {
	return zap.String(FieldNameStage, stage)
}

// FieldMessage 返回一个包含消息对象的 zap 字段。
func FieldMessage(msg zapcore.ObjectMarshaler) zap.Field {
	return zap.Object("message", msg)
}
