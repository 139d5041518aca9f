package sleigh

import (
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/pcodelab/pcode-runtime/context"
	"github.com/pcodelab/pcode-runtime/document"
	"github.com/pcodelab/pcode-runtime/errors"
	"github.com/pcodelab/pcode-runtime/space"
)

// Engine is the table-driven translation core. All tables are built
// once from the specification document at construction and are
// immutable afterward; decoding mutates nothing but the embedded
// context database (through the owning handle), so a built Engine can
// serve repeated one-shot calls for its whole lifetime.
type Engine struct {
	loader  LoadImage
	ctx     *context.Database
	storage *document.Storage

	spaces     []*space.AddrSpace
	byName     map[string]*space.AddrSpace
	constSpace *space.AddrSpace
	defSpace   *space.AddrSpace

	registers map[string]space.Varnode
	regOrder  []string

	ctors     []*constructor
	alignment int
	bigEndian bool
	maxFill   int
}

type constructor struct {
	mnemonic string
	display  string
	length   int
	value    []byte
	mask     []byte
	ctxCons  []ctxConstraint
	operands []*operand
	ops      []*opTemplate
}

type ctxConstraint struct {
	name  string
	value uint32
}

type operand struct {
	name     string
	start    int
	size     int
	signed   bool
	relative bool
}

type vnKind int

const (
	vnRegister vnKind = iota
	vnConstant
	vnField  // operand value as an immediate
	vnAddrOf // operand value as a location in the default code space
	vnRaw    // explicit space/offset
)

type opTemplate struct {
	code OpCode
	out  *vnTemplate
	ins  []*vnTemplate
}

type vnTemplate struct {
	kind      vnKind
	reg       string
	field     string
	spaceName string
	offset    uint64
	size      uint32
}

// New builds an engine from the registered "sleigh" tag of storage.
// The context database receives the document's context-register
// defaults. A malformed document yields an error and no engine.
func New(loader LoadImage, ctx *context.Database, storage *document.Storage) (*Engine, error) {
	root := storage.Tag("sleigh")
	if root == nil {
		return nil, errors.NotFound(errors.PhaseInit, "document tag", "sleigh")
	}

	e := &Engine{
		loader:    loader,
		ctx:       ctx,
		storage:   storage,
		byName:    make(map[string]*space.AddrSpace),
		registers: make(map[string]space.Varnode),
	}

	var err error
	if e.bigEndian, err = root.BoolAttr("bigendian", false); err != nil {
		return nil, err
	}
	if e.alignment, err = root.IntAttr("align", 1); err != nil {
		return nil, err
	}
	if e.alignment < 1 {
		return nil, errors.InvalidData(errors.PhaseInit, []string{"sleigh", "align"}, "alignment must be positive")
	}

	if err := e.buildSpaces(root); err != nil {
		return nil, err
	}
	if err := e.buildContext(root); err != nil {
		return nil, err
	}
	if err := e.buildRegisters(root); err != nil {
		return nil, err
	}
	if err := e.buildConstructors(root); err != nil {
		return nil, err
	}

	Logger().Debug("engine initialized",
		zap.Int("spaces", len(e.spaces)),
		zap.Int("registers", len(e.registers)),
		zap.Int("constructors", len(e.ctors)),
		zap.String("default_space", e.defSpace.Name()),
	)
	return e, nil
}

var spaceKinds = map[string]space.Kind{
	"constant":  space.KindConstant,
	"processor": space.KindProcessor,
	"spacebase": space.KindSpaceBase,
	"internal":  space.KindInternal,
	"fspec":     space.KindFspec,
	"iop":       space.KindIop,
	"join":      space.KindJoin,
}

func (e *Engine) buildSpaces(root *document.Element) error {
	spacesEl := root.Child("spaces")
	if spacesEl == nil {
		return errors.NotFound(errors.PhaseInit, "document element", "spaces")
	}

	for _, el := range spacesEl.ChildrenNamed("space") {
		name := el.Attr("name", "")
		if name == "" {
			return errors.InvalidData(errors.PhaseInit, []string{"space"}, "missing name")
		}
		if _, dup := e.byName[name]; dup {
			return errors.InvalidData(errors.PhaseInit, []string{"space", name}, "space redefined")
		}
		kindStr := el.Attr("type", "processor")
		kind, ok := spaceKinds[kindStr]
		if !ok {
			return errors.InvalidEnum(errors.PhaseInit, kindStr, "space type")
		}
		index, err := el.IntAttr("index", len(e.spaces)+1)
		if err != nil {
			return err
		}
		size, err := el.IntAttr("size", 4)
		if err != nil {
			return err
		}
		wordSize, err := el.IntAttr("wordsize", 1)
		if err != nil {
			return err
		}
		shortcut := byte(' ')
		if sc := el.Attr("shortcut", ""); sc != "" {
			shortcut = sc[0]
		}

		sp := space.NewAddrSpace(name, index, kind, uint32(size), uint32(wordSize), e.bigEndian, shortcut)
		e.spaces = append(e.spaces, sp)
		e.byName[name] = sp
		if kind == space.KindConstant && e.constSpace == nil {
			e.constSpace = sp
		}
	}

	if e.constSpace == nil {
		// Every engine carries a constant space even when the document
		// does not spell one out.
		e.constSpace = space.NewAddrSpace("const", 0, space.KindConstant, 8, 1, e.bigEndian, '#')
		e.spaces = append([]*space.AddrSpace{e.constSpace}, e.spaces...)
		e.byName["const"] = e.constSpace
	}

	defName := spacesEl.Attr("defaultspace", "")
	if defName == "" {
		return errors.InvalidData(errors.PhaseInit, []string{"spaces"}, "missing defaultspace")
	}
	def, ok := e.byName[defName]
	if !ok {
		return errors.NotFound(errors.PhaseInit, "default space", defName)
	}
	if def.Kind() == space.KindConstant {
		return errors.InvalidData(errors.PhaseInit, []string{"spaces", defName}, "default space cannot be the constant space")
	}
	e.defSpace = def
	return nil
}

func (e *Engine) buildContext(root *document.Element) error {
	ctxEl := root.Child("context_data")
	if ctxEl == nil {
		return nil
	}
	for _, el := range ctxEl.ChildrenNamed("context") {
		name := el.Attr("name", "")
		if name == "" {
			return errors.InvalidData(errors.PhaseInit, []string{"context"}, "missing name")
		}
		dflt, err := el.UintAttr("default", 0)
		if err != nil {
			return err
		}
		e.ctx.Register(name, uint32(dflt))
	}
	return nil
}

func (e *Engine) buildRegisters(root *document.Element) error {
	regsEl := root.Child("registers")
	if regsEl == nil {
		return nil
	}
	for _, el := range regsEl.ChildrenNamed("register") {
		name := el.Attr("name", "")
		if name == "" {
			return errors.InvalidData(errors.PhaseInit, []string{"register"}, "missing name")
		}
		spName := el.Attr("space", "register")
		sp, ok := e.byName[spName]
		if !ok {
			return errors.NotFound(errors.PhaseInit, "register space", spName)
		}
		offset, err := el.UintAttr("offset", 0)
		if err != nil {
			return err
		}
		size, err := el.IntAttr("size", 4)
		if err != nil {
			return err
		}
		if _, dup := e.registers[name]; dup {
			return errors.InvalidData(errors.PhaseInit, []string{"register", name}, "register redefined")
		}
		e.registers[name] = space.Varnode{Space: sp, Offset: offset, Sz: uint32(size)}
		e.regOrder = append(e.regOrder, name)
	}
	return nil
}

func (e *Engine) buildConstructors(root *document.Element) error {
	ctorsEl := root.Child("constructors")
	if ctorsEl == nil {
		return errors.NotFound(errors.PhaseInit, "document element", "constructors")
	}

	for _, el := range ctorsEl.ChildrenNamed("constructor") {
		ctor, err := e.buildConstructor(el)
		if err != nil {
			return err
		}
		e.ctors = append(e.ctors, ctor)
		if n := max(len(ctor.value), ctor.length); n > e.maxFill {
			e.maxFill = n
		}
	}
	if len(e.ctors) == 0 {
		return errors.InvalidData(errors.PhaseInit, []string{"constructors"}, "no constructors defined")
	}
	return nil
}

func (e *Engine) buildConstructor(el *document.Element) (*constructor, error) {
	mnemonic := el.Attr("mnemonic", "")
	if mnemonic == "" {
		return nil, errors.InvalidData(errors.PhaseInit, []string{"constructor"}, "missing mnemonic")
	}
	length, err := el.IntAttr("length", 0)
	if err != nil {
		return nil, err
	}
	if length <= 0 {
		return nil, errors.MalformedPattern(mnemonic, "length must be positive")
	}

	ctor := &constructor{
		mnemonic: mnemonic,
		display:  el.Attr("display", ""),
		length:   length,
	}

	pat := el.Child("pattern")
	if pat == nil {
		return nil, errors.MalformedPattern(mnemonic, "missing pattern")
	}
	if ctor.value, err = parseByteList(pat.Attr("value", "")); err != nil {
		return nil, errors.MalformedPattern(mnemonic, "bad pattern value: "+err.Error())
	}
	if len(ctor.value) == 0 {
		return nil, errors.MalformedPattern(mnemonic, "empty pattern value")
	}
	maskStr := pat.Attr("mask", "")
	if maskStr == "" {
		ctor.mask = make([]byte, len(ctor.value))
		for i := range ctor.mask {
			ctor.mask[i] = 0xff
		}
	} else if ctor.mask, err = parseByteList(maskStr); err != nil {
		return nil, errors.MalformedPattern(mnemonic, "bad pattern mask: "+err.Error())
	}
	if len(ctor.mask) != len(ctor.value) {
		return nil, errors.MalformedPattern(mnemonic, "mask and value lengths differ")
	}

	for _, c := range el.ChildrenNamed("context") {
		name := c.Attr("name", "")
		if name == "" {
			return nil, errors.MalformedPattern(mnemonic, "context constraint missing name")
		}
		val, err := c.UintAttr("value", 0)
		if err != nil {
			return nil, err
		}
		ctor.ctxCons = append(ctor.ctxCons, ctxConstraint{name: name, value: uint32(val)})
	}

	seen := map[string]bool{}
	for _, o := range el.ChildrenNamed("operand") {
		op, err := buildOperand(mnemonic, o, length)
		if err != nil {
			return nil, err
		}
		if seen[op.name] {
			return nil, errors.MalformedPattern(mnemonic, "operand "+op.name+" redefined")
		}
		seen[op.name] = true
		ctor.operands = append(ctor.operands, op)
	}

	for _, o := range el.ChildrenNamed("op") {
		tmpl, err := e.buildOpTemplate(mnemonic, o, seen)
		if err != nil {
			return nil, err
		}
		ctor.ops = append(ctor.ops, tmpl)
	}

	return ctor, nil
}

func buildOperand(mnemonic string, el *document.Element, ctorLen int) (*operand, error) {
	name := el.Attr("name", "")
	if name == "" {
		return nil, errors.MalformedPattern(mnemonic, "operand missing name")
	}
	start, err := el.IntAttr("start", -1)
	if err != nil {
		return nil, err
	}
	size, err := el.IntAttr("size", 0)
	if err != nil {
		return nil, err
	}
	if start < 0 || size <= 0 || size > 8 || start+size > ctorLen {
		return nil, errors.MalformedPattern(mnemonic, "operand "+name+" outside instruction bytes")
	}

	op := &operand{name: name, start: start, size: size}
	switch typ := el.Attr("type", "imm"); typ {
	case "imm":
	case "simm":
		op.signed = true
	case "rel":
		op.signed = true
		op.relative = true
	default:
		return nil, errors.InvalidEnum(errors.PhaseInit, typ, "operand type")
	}
	return op, nil
}

func (e *Engine) buildOpTemplate(mnemonic string, el *document.Element, operands map[string]bool) (*opTemplate, error) {
	code, err := ParseOpCode(el.Attr("code", ""))
	if err != nil {
		return nil, errors.MalformedPattern(mnemonic, "bad op code "+el.Attr("code", ""))
	}
	tmpl := &opTemplate{code: code}

	for _, c := range el.Children {
		switch c.Name {
		case "out":
			if tmpl.out != nil {
				return nil, errors.MalformedPattern(mnemonic, "multiple outputs on one op")
			}
			vt, err := e.buildVnTemplate(mnemonic, c, operands)
			if err != nil {
				return nil, err
			}
			tmpl.out = vt
		case "in":
			vt, err := e.buildVnTemplate(mnemonic, c, operands)
			if err != nil {
				return nil, err
			}
			tmpl.ins = append(tmpl.ins, vt)
		default:
			return nil, errors.MalformedPattern(mnemonic, "unexpected op child "+c.Name)
		}
	}
	return tmpl, nil
}

func (e *Engine) buildVnTemplate(mnemonic string, el *document.Element, operands map[string]bool) (*vnTemplate, error) {
	size, err := el.UintAttr("size", 0)
	if err != nil {
		return nil, err
	}
	vt := &vnTemplate{size: uint32(size)}

	switch {
	case el.HasAttr("reg"):
		vt.kind = vnRegister
		vt.reg = el.Attr("reg", "")
		rv, ok := e.registers[vt.reg]
		if !ok {
			return nil, errors.NotFound(errors.PhaseInit, "register", vt.reg)
		}
		if vt.size == 0 {
			vt.size = rv.Size()
		}
	case el.HasAttr("const"):
		vt.kind = vnConstant
		if vt.offset, err = el.UintAttr("const", 0); err != nil {
			return nil, err
		}
		if vt.size == 0 {
			return nil, errors.MalformedPattern(mnemonic, "constant varnode needs a size")
		}
	case el.HasAttr("field"):
		vt.kind = vnField
		vt.field = el.Attr("field", "")
		if !operands[vt.field] {
			return nil, errors.NotFound(errors.PhaseInit, "operand", vt.field)
		}
		if vt.size == 0 {
			return nil, errors.MalformedPattern(mnemonic, "field varnode needs a size")
		}
	case el.HasAttr("addrof"):
		vt.kind = vnAddrOf
		vt.field = el.Attr("addrof", "")
		if !operands[vt.field] {
			return nil, errors.NotFound(errors.PhaseInit, "operand", vt.field)
		}
		if vt.size == 0 {
			vt.size = e.defSpace.AddrSize()
		}
	case el.HasAttr("space"):
		vt.kind = vnRaw
		vt.spaceName = el.Attr("space", "")
		if _, ok := e.byName[vt.spaceName]; !ok {
			return nil, errors.NotFound(errors.PhaseInit, "space", vt.spaceName)
		}
		if vt.offset, err = el.UintAttr("offset", 0); err != nil {
			return nil, err
		}
		if vt.size == 0 {
			return nil, errors.MalformedPattern(mnemonic, "raw varnode needs a size")
		}
	default:
		return nil, errors.MalformedPattern(mnemonic, "varnode needs reg, const, field, addrof or space")
	}
	return vt, nil
}

// parseByteList parses a whitespace-separated hex byte list, e.g.
// "b8 00 ff".
func parseByteList(s string) ([]byte, error) {
	var out []byte
	for _, f := range strings.Fields(s) {
		f = strings.TrimPrefix(f, "0x")
		b, err := strconv.ParseUint(f, 16, 8)
		if err != nil {
			return nil, err
		}
		out = append(out, byte(b))
	}
	return out, nil
}

// DefaultCodeSpace returns the space translate addresses resolve in.
func (e *Engine) DefaultCodeSpace() *space.AddrSpace { return e.defSpace }

// ConstSpace returns the constant space immediates are encoded in.
func (e *Engine) ConstSpace() *space.AddrSpace { return e.constSpace }

// SpaceByName looks a space up in the engine's space table.
func (e *Engine) SpaceByName(name string) *space.AddrSpace { return e.byName[name] }

// Spaces returns the space table in definition order.
func (e *Engine) Spaces() []*space.AddrSpace { return e.spaces }

// Register returns the storage location of a named register.
func (e *Engine) Register(name string) (space.Varnode, bool) {
	v, ok := e.registers[name]
	return v, ok
}

// RegisterNames returns register names in sorted order.
func (e *Engine) RegisterNames() []string {
	names := make([]string, len(e.regOrder))
	copy(names, e.regOrder)
	sort.Strings(names)
	return names
}

// ConstructorInfo is a read-only view of one decode table entry.
type ConstructorInfo struct {
	Mnemonic string
	Display  string
	Length   int
	Pcode    int // number of op templates
}

// Constructors returns the decode table in document order.
func (e *Engine) Constructors() []ConstructorInfo {
	out := make([]ConstructorInfo, len(e.ctors))
	for i, c := range e.ctors {
		out[i] = ConstructorInfo{
			Mnemonic: c.mnemonic,
			Display:  c.display,
			Length:   c.length,
			Pcode:    len(c.ops),
		}
	}
	return out
}

// Alignment returns the instruction alignment in bytes.
func (e *Engine) Alignment() int { return e.alignment }

// IsBigEndian reports the byte order operands are extracted with.
func (e *Engine) IsBigEndian() bool { return e.bigEndian }
