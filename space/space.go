package space

// Kind is the category tag for an address space. The numeric values are
// part of the boundary contract and must not be reordered: sinks on the
// other side of the boundary identify spaces by these tags, not by any
// shared enumeration layout.
type Kind uint32

const (
	KindConstant  Kind = 0 // immediate constants encoded as offsets
	KindProcessor Kind = 1 // normal memory-mapped processor space
	KindSpaceBase Kind = 2 // stack and other register-relative spaces
	KindInternal  Kind = 3 // unique temporaries owned by the engine
	KindFspec     Kind = 4 // function parameter description space
	KindIop       Kind = 5 // internal operation references
	KindJoin      Kind = 6 // logically joined pieces
)

func (k Kind) String() string {
	switch k {
	case KindConstant:
		return "constant"
	case KindProcessor:
		return "processor"
	case KindSpaceBase:
		return "spacebase"
	case KindInternal:
		return "internal"
	case KindFspec:
		return "fspec"
	case KindIop:
		return "iop"
	case KindJoin:
		return "join"
	default:
		return "unknown"
	}
}

// AddrSpace describes a named, typed region of addressable locations.
// Instances are built once during engine initialization and are immutable
// afterward; callers only ever hold pointers handed out by the owning
// engine's space table.
type AddrSpace struct {
	name      string
	index     int
	kind      Kind
	addrSize  uint32
	wordSize  uint32
	bigEndian bool
	shortcut  byte
}

// NewAddrSpace constructs a space descriptor. Engine initialization is the
// only intended caller; tests construct spaces directly where convenient.
func NewAddrSpace(name string, index int, kind Kind, addrSize, wordSize uint32, bigEndian bool, shortcut byte) *AddrSpace {
	if wordSize == 0 {
		wordSize = 1
	}
	return &AddrSpace{
		name:      name,
		index:     index,
		kind:      kind,
		addrSize:  addrSize,
		wordSize:  wordSize,
		bigEndian: bigEndian,
		shortcut:  shortcut,
	}
}

func (s *AddrSpace) Name() string { return s.name }

func (s *AddrSpace) Index() int { return s.index }

// Kind returns the stable numeric category tag for the space.
func (s *AddrSpace) Kind() Kind { return s.kind }

// AddrSize returns the size in bytes of an offset within the space.
func (s *AddrSpace) AddrSize() uint32 { return s.addrSize }

// WordSize returns the number of bytes in an addressable unit.
func (s *AddrSpace) WordSize() uint32 { return s.wordSize }

func (s *AddrSpace) IsBigEndian() bool { return s.bigEndian }

// Shortcut returns the one-character display prefix for addresses in
// this space.
func (s *AddrSpace) Shortcut() byte { return s.shortcut }

// Highest returns the largest valid offset in the space.
func (s *AddrSpace) Highest() uint64 {
	bits := uint(s.addrSize) * 8
	if bits >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << bits) - 1
}

// WrapOffset reduces an arbitrary offset into the valid range of the
// space, wrapping modulo the space size.
func (s *AddrSpace) WrapOffset(off uint64) uint64 {
	high := s.Highest()
	if high == ^uint64(0) {
		return off
	}
	return off & high
}
