package space

import "fmt"

// Address is a position within an address space. It is a value type:
// copies are independent and no Address ever aliases engine state beyond
// the space pointer, which refers to an immutable table entry. The zero
// value is the invalid address.
type Address struct {
	space  *AddrSpace
	offset uint64
}

// NewAddress returns a default-constructed invalid address.
func NewAddress() Address {
	return Address{}
}

// NewAddressIn returns an address at off within sp, wrapped into the
// space's valid range.
func NewAddressIn(sp *AddrSpace, off uint64) Address {
	if sp == nil {
		return Address{}
	}
	return Address{space: sp, offset: sp.WrapOffset(off)}
}

// IsInvalid reports whether the address refers to no space.
func (a Address) IsInvalid() bool { return a.space == nil }

func (a Address) Space() *AddrSpace { return a.space }

func (a Address) Offset() uint64 { return a.offset }

// IsConstant reports whether the address encodes an immediate constant.
func (a Address) IsConstant() bool {
	return a.space != nil && a.space.Kind() == KindConstant
}

func (a Address) IsBigEndian() bool {
	return a.space != nil && a.space.IsBigEndian()
}

// AddrSize returns the offset encoding size of the containing space,
// or 0 for the invalid address.
func (a Address) AddrSize() uint32 {
	if a.space == nil {
		return 0
	}
	return a.space.AddrSize()
}

// Add returns the address advanced by delta bytes, wrapped into the
// containing space.
func (a Address) Add(delta uint64) Address {
	if a.space == nil {
		return a
	}
	return Address{space: a.space, offset: a.space.WrapOffset(a.offset + delta)}
}

// Equal reports whether two addresses name the same location.
func (a Address) Equal(b Address) bool {
	return a.space == b.space && a.offset == b.offset
}

func (a Address) String() string {
	if a.space == nil {
		return "<invalid>"
	}
	return fmt.Sprintf("%s:0x%x", a.space.Name(), a.offset)
}
