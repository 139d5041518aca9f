package runtime

import (
	"github.com/pcodelab/pcode-runtime/space"
)

// ByteSupplier is the host-implemented load image: it serves raw
// instruction bytes on demand. The supplier must outlive any Translator
// built on it, since the engine may call back into it during any
// translate or disassemble call.
//
// Fill must either fill the whole buffer or return an error; the engine
// treats a nil return as a complete read. Suppliers backed by images
// shorter than the engine's prefetch window should zero-pad past the
// image end rather than fail.
type ByteSupplier interface {
	// Fill writes len(buf) bytes of image content starting at addr.
	Fill(buf []byte, addr uint64) error
	// AdjustBase records that the image's load address shifted by delta.
	AdjustBase(delta int64)
	// ArchLabel returns a descriptive string for the image backing.
	ArchLabel() string
}

// loadImageProxy adapts a host ByteSupplier onto the engine's pull-based
// load image interface. It holds a non-owning reference: the proxy
// forwards and nothing else, so the engine never learns the host's
// object representation.
type loadImageProxy struct {
	supplier ByteSupplier
}

func (p *loadImageProxy) LoadFill(buf []byte, addr space.Address) error {
	return p.supplier.Fill(buf, addr.Offset())
}

func (p *loadImageProxy) AdjustVMA(delta int64) {
	p.supplier.AdjustBase(delta)
}

func (p *loadImageProxy) ArchType() string {
	return p.supplier.ArchLabel()
}
