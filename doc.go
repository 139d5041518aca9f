// Package pcoderuntime provides a machine code translation engine with a
// host-facing bridge, turning raw instruction bytes into pcode operation
// streams and assembly listings.
//
// # Architecture Overview
//
// The module is organized into several packages with distinct responsibilities:
//
//	pcode-runtime/       Root package, documentation only
//	├── runtime/         High-level bridge API: byte suppliers, sinks, Translator
//	├── sleigh/          Decode engine: tables, opcodes, instruction matching
//	├── document/        XML document storage with serialized parsing
//	├── context/         Context register database with address-range values
//	├── space/           Address spaces, addresses and varnodes
//	└── errors/          Structured error types for debugging
//
// # Quick Start
//
// Parse a processor specification, then translate instructions:
//
//	storage, err := document.Parse(specXML)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	tr, err := runtime.New(supplier, storage)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	n, err := tr.Translate(sink, 0x1000)
//	// n is the instruction's byte length; 0 means nothing decoded.
//
// The supplier implements runtime.ByteSupplier and serves instruction
// bytes for the image being analyzed. The sink implements
// runtime.PcodeSink (or runtime.AssemblySink for Disassemble) and
// receives one callback per emitted operation.
//
// # Fault Handling
//
// Translate and Disassemble never panic on behalf of the supplier, the
// sink or the engine. Any failure surfaces as a zero length paired with
// a structured error from the errors package.
//
// # Thread Safety
//
// document.Parse is safe to call from any goroutine; parses are
// serialized process-wide. A Translator is not safe for concurrent use;
// give each goroutine its own, or synchronize access.
package pcoderuntime
