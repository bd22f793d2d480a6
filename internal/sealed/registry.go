package sealed

import (
	"reflect"
	"sync"

	"github.com/blang/semver/v4"

	"github.com/lk2023060901/sealed-codec-go/pkg/util/serr"
	"github.com/lk2023060901/sealed-codec-go/pkg/util/typeutil"
)

// Registration 描述一对“封印标签 + 替身标签”的注册信息。
type Registration struct {
	// SealedTag 为封印类型自身的标签，解码侧无条件拒绝。
	SealedTag string

	// ProxyTag 为替身载体的标签。
	ProxyTag string

	// Version 为该替身序列化形态的格式版本。
	// 解码时要求数据的版本与注册版本主版本号一致，且不高于注册版本。
	Version semver.Version

	// NewProxy 返回一个零值替身原型，供反序列化填充。
	NewProxy func() Proxy
}

type entry struct {
	version  semver.Version
	newProxy func() Proxy
}

// Registry 维护替身标签到原型工厂的映射，以及封印标签的拒绝名单。
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
	sealed  typeutil.TagSet
}

// NewRegistry 创建一个空的注册表。
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]entry),
		sealed:  typeutil.NewTagSet(),
	}
}

// defaultRegistry 为进程级默认注册表。
var defaultRegistry = NewRegistry()

// DefaultRegistry 返回进程级默认注册表。
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// Register 向默认注册表注册，通常在封印类型所在包的 init 中调用。
func Register(reg Registration) error {
	return defaultRegistry.Register(reg)
}

// Register 校验并记录一对封印/替身标签。
//
// 约束：
//   - 两个标签均非空且互不相同；
//   - 标签不允许与已有注册冲突；
//   - 原型工厂必须返回指向具体结构体的非空指针，不接受接口类型。
func (r *Registry) Register(reg Registration) error {
	if reg.SealedTag == "" {
		return serr.WrapErrParameterMissing("SealedTag")
	}
	if reg.ProxyTag == "" {
		return serr.WrapErrParameterMissing("ProxyTag")
	}
	if reg.SealedTag == reg.ProxyTag {
		return serr.WrapErrTagConflict(reg.ProxyTag, "proxy tag equals sealed tag")
	}
	if reg.NewProxy == nil {
		return serr.WrapErrParameterMissing("NewProxy")
	}

	prototype := reg.NewProxy()
	if err := checkPrototype(reg.ProxyTag, prototype); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[reg.ProxyTag]; ok {
		return serr.WrapErrTagConflict(reg.ProxyTag, "proxy tag already registered")
	}
	if _, ok := r.entries[reg.SealedTag]; ok {
		return serr.WrapErrTagConflict(reg.SealedTag, "sealed tag already registered as proxy tag")
	}
	if r.sealed.Contain(reg.ProxyTag) {
		return serr.WrapErrTagConflict(reg.ProxyTag, "proxy tag already registered as sealed tag")
	}
	if r.sealed.Contain(reg.SealedTag) {
		return serr.WrapErrTagConflict(reg.SealedTag, "sealed tag already registered")
	}

	r.entries[reg.ProxyTag] = entry{
		version:  reg.Version,
		newProxy: reg.NewProxy,
	}
	r.sealed.Insert(reg.SealedTag)
	return nil
}

// checkPrototype 确保原型是可反序列化的具体类型。
func checkPrototype(tag string, prototype Proxy) error {
	if prototype == nil {
		return serr.WrapErrProxyInvalid(tag, "prototype factory returned nil")
	}
	v := reflect.ValueOf(prototype)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return serr.WrapErrProxyInvalid(tag, "prototype must be a non-nil pointer")
	}
	if v.Elem().Kind() == reflect.Interface {
		return serr.WrapErrProxyInvalid(tag, "prototype must not point to an interface type")
	}
	if prototype.ProxyTag() != tag {
		return serr.WrapErrTagConflict(tag, "prototype reports a different proxy tag")
	}
	return nil
}

// IsSealed 报告 tag 是否被登记为封印标签。
func (r *Registry) IsSealed(tag string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed.Contain(tag)
}

// Version 返回替身标签注册时记录的格式版本。
func (r *Registry) Version(proxyTag string) (semver.Version, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[proxyTag]
	return e.version, ok
}

// NewProxy 为数据中携带的标签产出一个零值替身原型。
//
// 门禁顺序：
//  1. 封印标签直接拒绝，不看载荷内容；
//  2. 未注册的标签拒绝；
//  3. 格式版本与注册版本主版本不一致、或高于注册版本的拒绝。
func (r *Registry) NewProxy(tag string, version string) (Proxy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.sealed.Contain(tag) {
		return nil, serr.WrapErrStreamDirectDecode(tag)
	}

	e, ok := r.entries[tag]
	if !ok {
		return nil, serr.WrapErrProxyNotRegistered(tag)
	}

	got, err := semver.Parse(version)
	if err != nil {
		return nil, serr.WrapErrFormatVersion(tag, version, e.version.String(), "unparsable format version")
	}
	if got.Major != e.version.Major || got.GT(e.version) {
		return nil, serr.WrapErrFormatVersion(tag, got.String(), e.version.String())
	}

	prototype := e.newProxy()
	if err := checkPrototype(tag, prototype); err != nil {
		return nil, err
	}
	return prototype, nil
}
