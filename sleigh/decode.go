package sleigh

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/exp/constraints"

	"github.com/pcodelab/pcode-runtime/errors"
	"github.com/pcodelab/pcode-runtime/space"
)

// alignUp rounds a up to the next multiple of b. b must be a power of
// two.
func alignUp[I constraints.Integer](a, b I) I {
	return (a + b - 1) &^ (b - 1)
}

// OneInstruction decodes exactly one instruction at addr, emitting its
// micro-operations to emit in program order, and returns the
// instruction byte length. Decode faults (alignment, supplier failure,
// no matching constructor) are reported as errors; emissions made
// before a fault are not rolled back.
func (e *Engine) OneInstruction(emit PcodeEmitter, addr space.Address) (int, error) {
	ctor, values, err := e.match(addr)
	if err != nil {
		return 0, err
	}

	for _, tmpl := range ctor.ops {
		out, err := e.resolve(tmpl.out, addr, ctor, values)
		if err != nil {
			return 0, err
		}
		ins := make([]space.Varnode, 0, len(tmpl.ins))
		for _, in := range tmpl.ins {
			v, err := e.resolve(in, addr, ctor, values)
			if err != nil {
				return 0, err
			}
			ins = append(ins, *v)
		}
		emit.Dump(addr, tmpl.code, out, ins)
	}

	Logger().Debug("translated instruction",
		zap.Stringer("addr", addr),
		zap.String("mnemonic", ctor.mnemonic),
		zap.Int("length", ctor.length),
		zap.Int("ops", len(ctor.ops)),
	)
	return ctor.length, nil
}

// PrintAssembly decodes exactly one instruction at addr, emits its
// textual rendering to emit, and returns the instruction byte length.
func (e *Engine) PrintAssembly(emit AsmEmitter, addr space.Address) (int, error) {
	ctor, values, err := e.match(addr)
	if err != nil {
		return 0, err
	}
	emit.Dump(addr, ctor.mnemonic, e.render(ctor, addr, values))
	return ctor.length, nil
}

// match fills instruction bytes through the load image, finds the
// first constructor in document order whose byte pattern and context
// constraints hold, and extracts its operand field values.
func (e *Engine) match(addr space.Address) (*constructor, map[string]uint64, error) {
	if addr.IsInvalid() {
		return nil, nil, errors.InvalidData(errors.PhaseDecode, nil, "invalid address")
	}
	if e.alignment > 1 && addr.Offset()%uint64(e.alignment) != 0 {
		return nil, nil, errors.Unaligned(addr.Offset(), e.alignment)
	}

	fillLen := alignUp(e.maxFill, e.alignment)
	buf := make([]byte, fillLen)
	if err := e.loader.LoadFill(buf, addr); err != nil {
		return nil, nil, errors.FillFailed(addr.Offset(), fillLen, err)
	}

	for _, ctor := range e.ctors {
		if !ctor.matches(buf) {
			continue
		}
		if !e.contextHolds(ctor, addr) {
			continue
		}
		values := make(map[string]uint64, len(ctor.operands))
		for _, op := range ctor.operands {
			values[op.name] = e.fieldValue(op, buf, addr, ctor.length)
		}
		return ctor, values, nil
	}
	return nil, nil, errors.NoMatch(addr.Offset())
}

func (c *constructor) matches(buf []byte) bool {
	if len(buf) < len(c.value) {
		return false
	}
	for i := range c.value {
		if buf[i]&c.mask[i] != c.value[i]&c.mask[i] {
			return false
		}
	}
	return true
}

func (e *Engine) contextHolds(c *constructor, addr space.Address) bool {
	for _, cons := range c.ctxCons {
		if e.ctx.Get(cons.name, addr) != cons.value {
			return false
		}
	}
	return true
}

// fieldValue extracts an operand field from the instruction bytes,
// applying byte order, sign extension, and pc-relative resolution.
func (e *Engine) fieldValue(op *operand, buf []byte, addr space.Address, length int) uint64 {
	var raw uint64
	if e.bigEndian {
		for i := 0; i < op.size; i++ {
			raw = raw<<8 | uint64(buf[op.start+i])
		}
	} else {
		for i := op.size - 1; i >= 0; i-- {
			raw = raw<<8 | uint64(buf[op.start+i])
		}
	}

	if op.signed {
		shift := uint(64 - op.size*8)
		raw = uint64(int64(raw<<shift) >> shift)
	}
	if op.relative {
		// pc-relative fields resolve against the end of the instruction
		raw = addr.Space().WrapOffset(addr.Offset() + uint64(length) + raw)
	}
	return raw
}

// resolve turns a varnode template plus extracted field values into a
// concrete descriptor. A nil template resolves to nil (no output).
func (e *Engine) resolve(vt *vnTemplate, addr space.Address, c *constructor, values map[string]uint64) (*space.Varnode, error) {
	if vt == nil {
		return nil, nil
	}
	switch vt.kind {
	case vnRegister:
		rv, ok := e.registers[vt.reg]
		if !ok {
			return nil, errors.NotFound(errors.PhaseDecode, "register", vt.reg)
		}
		rv.Sz = vt.size
		return &rv, nil
	case vnConstant:
		return &space.Varnode{Space: e.constSpace, Offset: vt.offset, Sz: vt.size}, nil
	case vnField:
		return &space.Varnode{Space: e.constSpace, Offset: values[vt.field], Sz: vt.size}, nil
	case vnAddrOf:
		return &space.Varnode{Space: e.defSpace, Offset: values[vt.field], Sz: vt.size}, nil
	case vnRaw:
		sp, ok := e.byName[vt.spaceName]
		if !ok {
			return nil, errors.NotFound(errors.PhaseDecode, "space", vt.spaceName)
		}
		return &space.Varnode{Space: sp, Offset: vt.offset, Sz: vt.size}, nil
	default:
		return nil, errors.InvalidEnum(errors.PhaseDecode, int(vt.kind), "varnode template kind")
	}
}

// render substitutes {operand} markers in the constructor's display
// template with formatted field values.
func (e *Engine) render(c *constructor, addr space.Address, values map[string]uint64) string {
	body := c.display
	for _, op := range c.operands {
		val := values[op.name]
		var repr string
		switch {
		case op.relative:
			repr = fmt.Sprintf("0x%x", val)
		case op.signed:
			repr = fmt.Sprintf("%d", int64(val))
		default:
			repr = fmt.Sprintf("0x%x", val)
		}
		body = strings.ReplaceAll(body, "{"+op.name+"}", repr)
	}
	return body
}
