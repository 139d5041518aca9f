package sleigh

import (
	"errors"
	"testing"

	"github.com/pcodelab/pcode-runtime/context"
	"github.com/pcodelab/pcode-runtime/document"
	"github.com/pcodelab/pcode-runtime/space"
)

// testSpec is a small decode table in the shape of a real processor
// fragment: a one-byte no-op, an immediate move, a pc-relative jump,
// and a context-dependent add with 16- and 32-bit immediate forms.
const testSpec = `<sleigh bigendian="false" align="1">
  <spaces defaultspace="ram">
    <space name="const" index="0" type="constant" size="8" shortcut="#"/>
    <space name="register" index="1" type="processor" size="4" shortcut="%"/>
    <space name="unique" index="2" type="internal" size="4" shortcut="u"/>
    <space name="ram" index="3" type="processor" size="4" shortcut="r"/>
  </spaces>
  <context_data>
    <context name="opsize" default="0"/>
  </context_data>
  <registers>
    <register name="r0" offset="0x0" size="4"/>
    <register name="r1" offset="0x4" size="4"/>
    <register name="sp" offset="0x20" size="4"/>
  </registers>
  <constructors>
    <constructor mnemonic="nop" length="1">
      <pattern value="90"/>
    </constructor>
    <constructor mnemonic="mov" length="5" display="r0, #{imm}">
      <pattern value="b8"/>
      <operand name="imm" start="1" size="4"/>
      <op code="COPY">
        <out reg="r0"/>
        <in field="imm" size="4"/>
      </op>
    </constructor>
    <constructor mnemonic="jmp" length="2" display="{target}">
      <pattern value="eb"/>
      <operand name="target" start="1" size="1" type="rel"/>
      <op code="BRANCH">
        <in addrof="target"/>
      </op>
    </constructor>
    <constructor mnemonic="add" length="3" display="r0, #{imm}">
      <pattern value="05"/>
      <context name="opsize" value="1"/>
      <operand name="imm" start="1" size="2"/>
      <op code="INT_ADD">
        <out reg="r0"/>
        <in reg="r0"/>
        <in field="imm" size="4"/>
      </op>
    </constructor>
    <constructor mnemonic="add" length="5" display="r0, #{imm}">
      <pattern value="05"/>
      <context name="opsize" value="0"/>
      <operand name="imm" start="1" size="4"/>
      <op code="INT_ADD">
        <out reg="r0"/>
        <in reg="r0"/>
        <in field="imm" size="4"/>
      </op>
    </constructor>
  </constructors>
</sleigh>`

// fixedImage serves the same byte slice at every address, repeating the
// pattern to fill whatever window the engine asks for.
type fixedImage struct {
	pattern []byte
}

func (f *fixedImage) LoadFill(buf []byte, addr space.Address) error {
	for i := range buf {
		buf[i] = f.pattern[i%len(f.pattern)]
	}
	return nil
}

func (f *fixedImage) AdjustVMA(int64) {}

func (f *fixedImage) ArchType() string { return "fixed" }

// failingImage signals failure on every fill request.
type failingImage struct{}

func (failingImage) LoadFill(buf []byte, addr space.Address) error {
	return errors.New("image unreadable")
}

func (failingImage) AdjustVMA(int64) {}

func (failingImage) ArchType() string { return "failing" }

type emittedOp struct {
	addr space.Address
	code OpCode
	out  *space.Varnode
	ins  []space.Varnode
}

type pcodeRecorder struct {
	ops []emittedOp
}

func (r *pcodeRecorder) Dump(addr space.Address, op OpCode, out *space.Varnode, ins []space.Varnode) {
	var outCopy *space.Varnode
	if out != nil {
		c := *out
		outCopy = &c
	}
	insCopy := make([]space.Varnode, len(ins))
	copy(insCopy, ins)
	r.ops = append(r.ops, emittedOp{addr: addr, code: op, out: outCopy, ins: insCopy})
}

type asmRecorder struct {
	addrs     []space.Address
	mnemonics []string
	bodies    []string
}

func (r *asmRecorder) Dump(addr space.Address, mnemonic, body string) {
	r.addrs = append(r.addrs, addr)
	r.mnemonics = append(r.mnemonics, mnemonic)
	r.bodies = append(r.bodies, body)
}

func buildEngine(t *testing.T, spec string, loader LoadImage) (*Engine, *context.Database) {
	t.Helper()
	st, err := document.Parse(spec)
	if err != nil {
		t.Fatalf("parse spec: %v", err)
	}
	db := context.New()
	e, err := New(loader, db, st)
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}
	return e, db
}
