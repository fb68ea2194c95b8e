package types

import "fmt"

// Kind is the canonical operand category used to index dispatch tables.
// Several runtime types share a kind; handlers that care about the
// difference inspect Value.Type.
type Kind uint8

const (
	KindAny Kind = iota
	KindInt
	KindFloat
	KindBool
	KindStr
	KindDuration
	KindObject
	KindBlock

	// NumKinds is the number of value kinds, the side length of a dispatch matrix.
	NumKinds = 8
)

var kindNames = [NumKinds]string{
	KindAny:      "any",
	KindInt:      "int",
	KindFloat:    "float",
	KindBool:     "bool",
	KindStr:      "str",
	KindDuration: "duration",
	KindObject:   "object",
	KindBlock:    "block",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// ParseKind maps a kind name back to its Kind.
func ParseKind(name string) (Kind, error) {
	for i, n := range kindNames {
		if n == name {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown value kind %q", name)
}

// Kinds returns all kinds in index order.
func Kinds() []Kind {
	out := make([]Kind, NumKinds)
	for i := range out {
		out[i] = Kind(i)
	}
	return out
}

// kindAlias maps every runtime representation onto its kind.
var kindAlias = [...]Kind{
	TypeNull:     KindAny,
	TypeBool:     KindBool,
	TypeInt:      KindInt,
	TypeFloat:    KindFloat,
	TypeString:   KindStr,
	TypeDuration: KindDuration,
	TypeTime:     KindDuration,
	TypeList:     KindAny,
	TypeMap:      KindObject,
	TypeObject:   KindObject,
	TypeBlock:    KindBlock,
}

// Fails to compile unless kindAlias has exactly one entry per ValueType.
var _ = [1]struct{}{}[len(kindAlias)-int(numValueTypes)]

// KindOf returns the dispatch kind of v. Types outside the alias table are
// treated as objects.
func KindOf(v Value) Kind {
	if int(v.typ) >= 0 && int(v.typ) < len(kindAlias) {
		return kindAlias[v.typ]
	}
	return KindObject
}
