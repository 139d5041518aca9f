package runtime

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/pcodelab/pcode-runtime/document"
	"github.com/pcodelab/pcode-runtime/errors"
	"github.com/pcodelab/pcode-runtime/space"
)

const testSpec = `<sleigh bigendian="false" align="1">
  <spaces defaultspace="ram">
    <space name="const" index="0" type="constant" size="8" shortcut="#"/>
    <space name="register" index="1" type="processor" size="4" shortcut="%"/>
    <space name="ram" index="3" type="processor" size="4" shortcut="r"/>
  </spaces>
  <context_data>
    <context name="mode" default="0"/>
  </context_data>
  <registers>
    <register name="r0" offset="0x0" size="4"/>
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
    <constructor mnemonic="hlt" length="1" display="">
      <pattern value="f4"/>
      <context name="mode" value="1"/>
      <op code="RETURN">
        <in const="0" size="4"/>
      </op>
    </constructor>
  </constructors>
</sleigh>`

// patternSupplier returns a fixed repeating byte pattern for every
// address, the byte-supplier equivalent of an image that is the same
// everywhere.
type patternSupplier struct {
	pattern     []byte
	fills       int
	baseAdjusts []int64
}

func (s *patternSupplier) Fill(buf []byte, addr uint64) error {
	s.fills++
	for i := range buf {
		buf[i] = s.pattern[i%len(s.pattern)]
	}
	return nil
}

func (s *patternSupplier) AdjustBase(delta int64) {
	s.baseAdjusts = append(s.baseAdjusts, delta)
}

func (s *patternSupplier) ArchLabel() string { return "pattern" }

// failingSupplier signals failure on every fill request.
type failingSupplier struct{}

func (failingSupplier) Fill(buf []byte, addr uint64) error {
	return stderrors.New("backing store gone")
}

func (failingSupplier) AdjustBase(int64) {}

func (failingSupplier) ArchLabel() string { return "failing" }

// panickySupplier escapes through the host error channel the hard way.
type panickySupplier struct{}

func (panickySupplier) Fill(buf []byte, addr uint64) error {
	panic("supplier exploded")
}

func (panickySupplier) AdjustBase(int64) {}

func (panickySupplier) ArchLabel() string { return "panicky" }

type recordedOp struct {
	addr   uint64
	opcode uint32
	out    *space.Varnode
	ins    []space.Varnode
}

type pcodeRecorder struct {
	ops []recordedOp
}

func (r *pcodeRecorder) OnOp(addr uint64, opcode uint32, out *space.Varnode, ins []space.Varnode) {
	var outCopy *space.Varnode
	if out != nil {
		c := *out
		outCopy = &c
	}
	insCopy := make([]space.Varnode, len(ins))
	copy(insCopy, ins)
	r.ops = append(r.ops, recordedOp{addr: addr, opcode: opcode, out: outCopy, ins: insCopy})
}

type panickySink struct{}

func (panickySink) OnOp(uint64, uint32, *space.Varnode, []space.Varnode) {
	panic("sink exploded")
}

type asmRecorder struct {
	lines []string
}

func (r *asmRecorder) OnInstruction(addr uint64, mnemonic, operands string) {
	line := fmt.Sprintf("%#x %s", addr, mnemonic)
	if operands != "" {
		line += " " + operands
	}
	r.lines = append(r.lines, line)
}

func newTranslator(t *testing.T, supplier ByteSupplier) *Translator {
	t.Helper()
	st, err := document.Parse(testSpec)
	if err != nil {
		t.Fatalf("parse spec: %v", err)
	}
	tr, err := New(supplier, st)
	if err != nil {
		t.Fatalf("new translator: %v", err)
	}
	return tr
}

func TestNew_NilArguments(t *testing.T) {
	st, err := document.Parse(testSpec)
	if err != nil {
		t.Fatalf("parse spec: %v", err)
	}
	if _, err := New(nil, st); err == nil {
		t.Error("nil supplier should be rejected")
	}
	if _, err := New(&patternSupplier{pattern: []byte{0x90}}, nil); err == nil {
		t.Error("nil storage should be rejected")
	}
}

func TestNew_MalformedConfigIsFatal(t *testing.T) {
	st, err := document.Parse(`<sleigh><spaces defaultspace="ram"/></sleigh>`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	tr, err := New(&patternSupplier{pattern: []byte{0x90}}, st)
	if err == nil {
		t.Fatal("construction over a malformed document must fail")
	}
	if tr != nil {
		t.Fatal("no handle may be returned on construction failure")
	}
}

func TestTranslate_KnownNop(t *testing.T) {
	tr := newTranslator(t, &patternSupplier{pattern: []byte{0x90}})
	sink := &pcodeRecorder{}

	n, err := tr.Translate(sink, 0x1000)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if n != 1 {
		t.Errorf("length = %d, want 1", n)
	}
	if len(sink.ops) != 0 {
		t.Errorf("nop emitted %d ops, want 0", len(sink.ops))
	}
}

func TestTranslate_StableOpcodeTags(t *testing.T) {
	tr := newTranslator(t, &patternSupplier{pattern: []byte{0xb8, 0x01, 0x02, 0x03, 0x04}})
	sink := &pcodeRecorder{}

	n, err := tr.Translate(sink, 0x400)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if n != 5 {
		t.Errorf("length = %d, want 5", n)
	}
	if len(sink.ops) != 1 {
		t.Fatalf("op count = %d, want 1", len(sink.ops))
	}

	op := sink.ops[0]
	if op.opcode != 1 { // COPY crosses the boundary as tag 1
		t.Errorf("opcode tag = %d, want 1", op.opcode)
	}
	if op.addr != 0x400 {
		t.Errorf("op addr = %#x, want 0x400", op.addr)
	}
	if op.out == nil || op.out.Size() != 4 {
		t.Errorf("output = %v, want 4-byte register", op.out)
	}
	if len(op.ins) != 1 || op.ins[0].Offset != 0x04030201 {
		t.Errorf("inputs = %v, want constant 0x04030201", op.ins)
	}
}

func TestTranslate_NilOutputIsDistinct(t *testing.T) {
	tr := newTranslator(t, &patternSupplier{pattern: []byte{0xeb, 0x06}})
	sink := &pcodeRecorder{}

	if _, err := tr.Translate(sink, 0x100); err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if len(sink.ops) != 1 {
		t.Fatalf("op count = %d, want 1", len(sink.ops))
	}
	if sink.ops[0].out != nil {
		t.Error("BRANCH has no destination; out must be nil, not zero-sized")
	}
	if sink.ops[0].opcode != 4 { // BRANCH tag
		t.Errorf("opcode tag = %d, want 4", sink.ops[0].opcode)
	}
}

func TestTranslate_FaultContainment(t *testing.T) {
	tr := newTranslator(t, failingSupplier{})
	sink := &pcodeRecorder{}

	n, err := tr.Translate(sink, 0x0)
	if n != 0 {
		t.Errorf("length = %d, want 0 on fault", n)
	}
	if err == nil {
		t.Error("fault reason should accompany the zero length")
	}
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Phase != errors.PhaseLoad {
		t.Errorf("error = %v, want load-phase error", err)
	}
	if len(sink.ops) != 0 {
		t.Errorf("no ops may be emitted on fault, got %d", len(sink.ops))
	}
}

func TestDisassemble_FaultContainment(t *testing.T) {
	tr := newTranslator(t, failingSupplier{})
	sink := &asmRecorder{}

	n, err := tr.Disassemble(sink, 0x0)
	if n != 0 || err == nil {
		t.Errorf("Disassemble on fault = %d, %v; want 0, error", n, err)
	}
	if len(sink.lines) != 0 {
		t.Errorf("no lines may be emitted on fault, got %d", len(sink.lines))
	}
}

func TestTranslate_PanicContainment(t *testing.T) {
	tests := []struct {
		name string
		run  func(t *testing.T) (int32, error)
	}{
		{
			name: "panicking supplier",
			run: func(t *testing.T) (int32, error) {
				tr := newTranslator(t, panickySupplier{})
				return tr.Translate(&pcodeRecorder{}, 0x0)
			},
		},
		{
			name: "panicking sink",
			run: func(t *testing.T) (int32, error) {
				tr := newTranslator(t, &patternSupplier{pattern: []byte{0xb8, 0, 0, 0, 0}})
				return tr.Translate(panickySink{}, 0x0)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := tt.run(t) // must not panic through the boundary
			if n != 0 {
				t.Errorf("length = %d, want 0", n)
			}
			var e *errors.Error
			if !stderrors.As(err, &e) || e.Kind != errors.KindPanic {
				t.Errorf("error = %v, want contained panic", err)
			}
		})
	}
}

func TestTranslate_UndecodableBytes(t *testing.T) {
	tr := newTranslator(t, &patternSupplier{pattern: []byte{0xff}})
	n, err := tr.Translate(&pcodeRecorder{}, 0x10)
	if n != 0 {
		t.Errorf("length = %d, want 0", n)
	}
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Kind != errors.KindNoMatch {
		t.Errorf("error = %v, want no_match", err)
	}
}

func TestTranslate_NilSink(t *testing.T) {
	tr := newTranslator(t, &patternSupplier{pattern: []byte{0x90}})
	if _, err := tr.Translate(nil, 0); err == nil {
		t.Error("nil pcode sink should be rejected")
	}
	if _, err := tr.Disassemble(nil, 0); err == nil {
		t.Error("nil assembly sink should be rejected")
	}
}

func TestDisassemble_Rendering(t *testing.T) {
	tr := newTranslator(t, &patternSupplier{pattern: []byte{0xb8, 0x2a, 0x00, 0x00, 0x00}})
	sink := &asmRecorder{}

	n, err := tr.Disassemble(sink, 0x7c00)
	if err != nil {
		t.Fatalf("Disassemble: %v", err)
	}
	if n != 5 {
		t.Errorf("length = %d, want 5", n)
	}
	if len(sink.lines) != 1 {
		t.Fatalf("line count = %d, want exactly 1", len(sink.lines))
	}
	if want := "0x7c00 mov r0, #0x2a"; sink.lines[0] != want {
		t.Errorf("line = %q, want %q", sink.lines[0], want)
	}
}

func TestContext_DrivesDecoding(t *testing.T) {
	tr := newTranslator(t, &patternSupplier{pattern: []byte{0xf4}})

	// hlt requires mode=1; with the default mode=0 the byte is
	// undecodable.
	if n, _ := tr.Translate(&pcodeRecorder{}, 0x30); n != 0 {
		t.Fatalf("length = %d, want 0 before context change", n)
	}

	code := tr.Engine().DefaultCodeSpace()
	if err := tr.Context().Set("mode", space.NewAddressIn(code, 0x0), 1); err != nil {
		t.Fatalf("set context: %v", err)
	}

	sink := &pcodeRecorder{}
	n, err := tr.Translate(sink, 0x30)
	if err != nil {
		t.Fatalf("Translate after context change: %v", err)
	}
	if n != 1 {
		t.Errorf("length = %d, want 1", n)
	}
	if len(sink.ops) != 1 || sink.ops[0].opcode != 10 { // RETURN tag
		t.Errorf("ops = %+v, want one RETURN", sink.ops)
	}
}

func TestTranslate_CallIndependence(t *testing.T) {
	supplier := &patternSupplier{pattern: []byte{0xb8, 0x07, 0x00, 0x00, 0x00}}
	tr := newTranslator(t, supplier)

	first := &pcodeRecorder{}
	if _, err := tr.Translate(first, 0x100); err != nil {
		t.Fatalf("first call: %v", err)
	}
	second := &pcodeRecorder{}
	if _, err := tr.Translate(second, 0x2000); err != nil {
		t.Fatalf("second call: %v", err)
	}

	if len(first.ops) != len(second.ops) {
		t.Fatalf("op counts differ: %d vs %d", len(first.ops), len(second.ops))
	}
	for i := range first.ops {
		if first.ops[i].opcode != second.ops[i].opcode {
			t.Errorf("op %d: opcode leaked between calls", i)
		}
		if first.ops[i].ins[0].Offset != second.ops[i].ins[0].Offset {
			t.Errorf("op %d: operand state leaked between calls", i)
		}
	}
}

func TestTranslate_RepeatedReuse(t *testing.T) {
	supplier := &patternSupplier{pattern: []byte{0x90}}
	tr := newTranslator(t, supplier)

	for i := 0; i < 50; i++ {
		n, err := tr.Translate(&pcodeRecorder{}, uint64(i)*3)
		if err != nil || n != 1 {
			t.Fatalf("call %d: length=%d err=%v", i, n, err)
		}
	}
	if supplier.fills != 50 {
		t.Errorf("fill round-trips = %d, want one per call", supplier.fills)
	}
}
