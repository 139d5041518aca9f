// Package runtime is the host-facing bridge over the translation
// engine. It adapts host callback objects — a byte supplier and
// per-call result sinks — onto the engine's narrow abstract interfaces,
// owns the engine state that must outlive individual calls, and
// contains engine faults at the boundary so that nothing ever unwinds
// into the host.
//
// The host implements ByteSupplier once per image and a PcodeSink or
// AssemblySink per call:
//
//	st, err := document.Parse(specText)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	tr, err := runtime.New(mySupplier, st)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	n, err := tr.Translate(mySink, 0x401000)
//	if n == 0 {
//	    // no instruction decoded here; advance at least one byte
//	}
//
// Every operation is synchronous and runs on the caller's goroutine,
// including the nested round-trips into the supplier and sink. Calls on
// one Translator must be serialized by the host.
package runtime
