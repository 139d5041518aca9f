package runtime

import (
	"github.com/pcodelab/pcode-runtime/context"
	"github.com/pcodelab/pcode-runtime/document"
	"github.com/pcodelab/pcode-runtime/errors"
	"github.com/pcodelab/pcode-runtime/sleigh"
	"github.com/pcodelab/pcode-runtime/space"
)

// Translator is the engine handle: it owns the load-image proxy, the
// parsed specification document, and the embedded context database,
// and exposes the two one-shot translation operations.
//
// A Translator is ready immediately after New and reusable for
// repeated calls until dropped; there is no closed or error state. The
// handle performs no internal locking: calls on one Translator must be
// serialized by the host, because the embedded context database is
// consulted without synchronization.
type Translator struct {
	loader  *loadImageProxy
	storage *document.Storage
	ctx     *context.Database
	engine  *sleigh.Engine
}

// New constructs a Translator over a host byte supplier and a parsed
// specification document. The Translator takes ownership of storage;
// the supplier is borrowed and must outlive the handle. A malformed
// document yields an error and no handle — construction failure is not
// a recoverable per-call condition, since no engine state exists yet.
func New(supplier ByteSupplier, storage *document.Storage) (*Translator, error) {
	if supplier == nil {
		return nil, errors.InvalidData(errors.PhaseInit, nil, "nil byte supplier")
	}
	if storage == nil {
		return nil, errors.InvalidData(errors.PhaseInit, nil, "nil document storage")
	}

	loader := &loadImageProxy{supplier: supplier}
	ctx := context.New()
	engine, err := sleigh.New(loader, ctx, storage)
	if err != nil {
		return nil, err
	}

	return &Translator{
		loader:  loader,
		storage: storage,
		ctx:     ctx,
		engine:  engine,
	}, nil
}

// Translate decodes exactly one instruction at addr in the default
// code space, emitting its pcode operations to sink, and returns the
// instruction's byte length.
//
// Any engine fault — undecodable bytes, a supplier failure, a panic out
// of a host callback — is contained at this boundary: the call returns
// 0 together with a decode-phase error and never panics. Hosts that
// only check for a positive length keep the historical "0 means no
// instruction decoded" contract; the error carries the reason for
// hosts that want it. Emissions delivered before a fault are not
// rolled back.
func (t *Translator) Translate(sink PcodeSink, addr uint64) (length int32, err error) {
	if sink == nil {
		return 0, errors.InvalidData(errors.PhaseDecode, nil, "nil pcode sink")
	}
	defer func() {
		if r := recover(); r != nil {
			length, err = 0, errors.Recovered(addr, r)
		}
	}()

	a := space.NewAddressIn(t.engine.DefaultCodeSpace(), addr)
	n, err := t.engine.OneInstruction(&pcodeEmitProxy{sink: sink}, a)
	if err != nil {
		return 0, err
	}
	return int32(n), nil
}

// Disassemble decodes exactly one instruction at addr, emitting its
// textual rendering to sink, and returns the instruction's byte length.
// Fault handling follows the Translate contract.
func (t *Translator) Disassemble(sink AssemblySink, addr uint64) (length int32, err error) {
	if sink == nil {
		return 0, errors.InvalidData(errors.PhaseDecode, nil, "nil assembly sink")
	}
	defer func() {
		if r := recover(); r != nil {
			length, err = 0, errors.Recovered(addr, r)
		}
	}()

	a := space.NewAddressIn(t.engine.DefaultCodeSpace(), addr)
	n, err := t.engine.PrintAssembly(&asmEmitProxy{sink: sink}, a)
	if err != nil {
		return 0, err
	}
	return int32(n), nil
}

// Context returns the embedded context database so the host can set
// context-register values before translating addresses whose decoding
// is mode-dependent. Mutations must not race with in-flight calls.
func (t *Translator) Context() *context.Database {
	return t.ctx
}

// Engine exposes the read-only engine tables (spaces, registers,
// constructors) for inspection tooling.
func (t *Translator) Engine() *sleigh.Engine {
	return t.engine
}
