package sleigh

import (
	"github.com/pcodelab/pcode-runtime/space"
)

// LoadImage supplies raw instruction bytes on demand. The engine pulls
// through this interface during decoding; implementations must either
// fill the whole buffer or return an error. A returned nil means the
// buffer holds exactly len(buf) valid bytes.
type LoadImage interface {
	// LoadFill fills buf with image contents starting at addr.
	LoadFill(buf []byte, addr space.Address) error
	// AdjustVMA shifts the image's load-address base by delta.
	AdjustVMA(delta int64)
	// ArchType returns a descriptive label for the image backing.
	ArchType() string
}

// PcodeEmitter receives the micro-operation stream for one decoded
// instruction, in program order. out is nil for operations without a
// destination. The varnodes are borrowed for the duration of the call.
type PcodeEmitter interface {
	Dump(addr space.Address, op OpCode, out *space.Varnode, ins []space.Varnode)
}

// AsmEmitter receives exactly one textual rendering per decoded
// instruction.
type AsmEmitter interface {
	Dump(addr space.Address, mnemonic, body string)
}
