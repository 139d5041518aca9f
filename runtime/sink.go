package runtime

import (
	"github.com/pcodelab/pcode-runtime/sleigh"
	"github.com/pcodelab/pcode-runtime/space"
)

// PcodeSink receives the micro-operation stream of one translate call.
// Opcode tags use the stable boundary numbering (sleigh.OpCode values
// as uint32), never the engine's internal enumeration layout. out is
// nil when the operation has no destination, which is distinct from a
// zero-sized output. All descriptors are borrowed for the duration of
// the call; a sink that retains them must copy.
type PcodeSink interface {
	OnOp(addr uint64, opcode uint32, out *space.Varnode, ins []space.Varnode)
}

// AssemblySink receives exactly one disassembled instruction's textual
// rendering per disassemble call.
type AssemblySink interface {
	OnInstruction(addr uint64, mnemonic, operands string)
}

// pcodeEmitProxy adapts a host PcodeSink onto the engine's push-based
// emitter interface. One proxy is constructed per translate call and
// discarded afterward; it retains nothing.
type pcodeEmitProxy struct {
	sink PcodeSink
}

func (p *pcodeEmitProxy) Dump(addr space.Address, op sleigh.OpCode, out *space.Varnode, ins []space.Varnode) {
	p.sink.OnOp(addr.Offset(), op.Tag(), out, ins)
}

// asmEmitProxy is the per-call adapter for disassembly output.
type asmEmitProxy struct {
	sink AssemblySink
}

func (p *asmEmitProxy) Dump(addr space.Address, mnemonic, body string) {
	p.sink.OnInstruction(addr.Offset(), mnemonic, body)
}
