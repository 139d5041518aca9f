package space

import "fmt"

// Varnode is a fixed-layout descriptor naming a storage location used as
// an operand or result of a pcode operation: a register, a memory
// address, or a unique temporary. Varnodes handed to sinks are borrowed
// for the duration of the emission call; sinks that need the data past
// the call must copy the struct (a plain value copy is sufficient).
type Varnode struct {
	Space  *AddrSpace
	Offset uint64
	Sz     uint32
}

// Size returns the size of the location in bytes. Side-effect free.
func (v Varnode) Size() uint32 { return v.Sz }

// Addr returns the location as an independently owned Address carrying
// the same space and offset the descriptor encodes. Side-effect free.
func (v Varnode) Addr() Address {
	return Address{space: v.Space, offset: v.Offset}
}

// IsConstant reports whether the varnode encodes an immediate value.
func (v Varnode) IsConstant() bool {
	return v.Space != nil && v.Space.Kind() == KindConstant
}

func (v Varnode) String() string {
	if v.Space == nil {
		return "<nil varnode>"
	}
	if v.IsConstant() {
		return fmt.Sprintf("#0x%x:%d", v.Offset, v.Sz)
	}
	return fmt.Sprintf("%s[0x%x:%d]", v.Space.Name(), v.Offset, v.Sz)
}
