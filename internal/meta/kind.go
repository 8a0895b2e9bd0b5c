package meta

import "flat-mapper/internal/common"

// Kind discriminates Property variants.
type Kind int

const (
	_ Kind = iota
	KindConstructorParam
	KindField
	KindMethod
	KindSubProperty
	KindDirectValue
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindConstructorParam:
		return "constructor"
	case KindField:
		return "field"
	case KindMethod:
		return "method"
	case KindSubProperty:
		return "sub"
	case KindDirectValue:
		return "direct"
	default:
		return common.UnknownStr
	}
}
