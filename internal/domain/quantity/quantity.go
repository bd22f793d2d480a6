// Package quantity 提供带非负不变式的数量值类型。
//
// Quantity 是封印类型：只能通过 New 构造，序列化时由替身载体
// 代替其出现在字节流中，任何直接反序列化 Quantity 的尝试都会失败。
package quantity

import (
	"github.com/blang/semver/v4"

	"github.com/lk2023060901/sealed-codec-go/internal/sealed"
	"github.com/lk2023060901/sealed-codec-go/pkg/util/serr"
)

const (
	// SealedTag 为 Quantity 自身的标签，解码侧的拒绝名单项。
	SealedTag = "domain.quantity"

	// ProxyTag 为替身载体的标签。
	ProxyTag = "domain.quantity.proxy"
)

// FormatVersion 为替身序列化形态的当前格式版本。
var FormatVersion = semver.MustParse("1.0.0")

func init() {
	err := sealed.Register(sealed.Registration{
		SealedTag: SealedTag,
		ProxyTag:  ProxyTag,
		Version:   FormatVersion,
		NewProxy:  func() sealed.Proxy { return &Proxy{} },
	})
	if err != nil {
		panic(err)
	}
}

// Quantity 表示一个非负数量。
//
// amount 不可导出，唯一的构造路径是 New；
// 因此任何可达实例都满足 amount >= 0。
type Quantity struct {
	amount int64
}

var _ sealed.Sealable = (*Quantity)(nil)

// New 构造一个 Quantity，amount 为负时返回 ErrInvariantViolated。
func New(amount int64) (*Quantity, error) {
	if amount < 0 {
		return nil, serr.WrapErrInvariantViolated(SealedTag, "amount must be non-negative")
	}
	return &Quantity{amount: amount}, nil
}

// Amount 返回数量值。
func (q *Quantity) Amount() int64 {
	return q.amount
}

// SealedTag 实现 sealed.Sealable。
func (q *Quantity) SealedTag() string {
	return SealedTag
}

// SealProxy 实现 sealed.Sealable，产出结构相同的替身载体。
func (q *Quantity) SealProxy() (sealed.Proxy, error) {
	return &Proxy{Amount: q.amount}, nil
}

// UnmarshalJSON 无条件失败。
//
// 即使绕过编解码管线、把原始字节直接交给 JSON 反序列化器，
// 也无法绕过校验构造路径得到一个 Quantity。
func (q *Quantity) UnmarshalJSON([]byte) error {
	return serr.WrapErrStreamDirectDecode(SealedTag, "quantity must be decoded through its proxy")
}

// GobDecode 无条件失败，理由同 UnmarshalJSON。
func (q *Quantity) GobDecode([]byte) error {
	return serr.WrapErrStreamDirectDecode(SealedTag, "quantity must be decoded through its proxy")
}

// Proxy 是 Quantity 在序列化流中的替身载体。
//
// 只由 SealProxy 产出、只被 Restore 消费，不作为领域值保留。
type Proxy struct {
	Amount int64 `json:"amount"`
}

var _ sealed.Proxy = (*Proxy)(nil)

// ProxyTag 实现 sealed.Proxy。
func (p *Proxy) ProxyTag() string {
	return ProxyTag
}

// Restore 实现 sealed.Proxy，经由 New 的校验路径还原 Quantity。
func (p *Proxy) Restore() (any, error) {
	q, err := New(p.Amount)
	if err != nil {
		return nil, err
	}
	return q, nil
}
