// Package sealed 定义“封印类型”的序列化替身协议。
//
// 带有不变式的领域类型不允许以自身形态参与编解码：
// 写出时由 SealProxy 产出替身载体，读入时替身通过 Restore
// 走领域类型自己的校验构造路径还原。封印类型自身的标签
// 在解码侧被无条件拒绝。
package sealed

// Sealable 表示一个只能通过替身参与序列化的领域类型。
type Sealable interface {
	// SealedTag 返回该类型自身的标签。
	//
	// 该标签只用于解码侧的拒绝名单，任何携带该标签的
	// 数据都不允许被直接解码。
	SealedTag() string

	// SealProxy 产出当前值对应的替身载体。
	//
	// 替身必须完整携带还原所需的全部状态；对合法实例
	// 该转换不允许失败。
	SealProxy() (Proxy, error)
}

// Proxy 表示封印类型在序列化流中的替身载体。
type Proxy interface {
	// ProxyTag 返回替身自身的标签，用于在注册表中定位原型工厂。
	ProxyTag() string

	// Restore 通过领域类型的校验构造函数还原领域值。
	//
	// 校验失败时原样返回构造函数的错误，调用方不得绕过。
	Restore() (any, error)
}
