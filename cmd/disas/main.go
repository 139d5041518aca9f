package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/pcodelab/pcode-runtime/document"
	"github.com/pcodelab/pcode-runtime/runtime"
	"github.com/pcodelab/pcode-runtime/sleigh"
	"github.com/pcodelab/pcode-runtime/space"
)

func main() {
	var (
		specFile    = flag.String("spec", "", "Path to processor specification XML")
		binFile     = flag.String("bin", "", "Path to raw binary image")
		baseStr     = flag.String("base", "0", "Load address of the binary image")
		addrStr     = flag.String("addr", "", "Address to start decoding at (default: image base)")
		count       = flag.Int("n", 16, "Number of instructions to decode")
		pcode       = flag.Bool("pcode", false, "Emit pcode operations instead of assembly")
		ctxStr      = flag.String("ctx", "", "Context register values (name=val,name2=val2)")
		list        = flag.Bool("list", false, "List spaces, registers and constructors and exit")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
		verbose     = flag.Bool("v", false, "Verbose engine logging")
	)
	flag.Parse()

	if *specFile == "" || (*binFile == "" && !*list) {
		fmt.Fprintln(os.Stderr, "Usage: disas -spec <proc.xml> -bin <image> [-addr 0x1000] [-n 16] [-pcode]")
		fmt.Fprintln(os.Stderr, "       disas -spec <proc.xml> -list")
		fmt.Fprintln(os.Stderr, "       disas -spec <proc.xml> -bin <image> -i  (interactive mode)")
		os.Exit(1)
	}

	if *verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()
		sleigh.SetLogger(logger)
	}

	if *interactive {
		if err := runInteractive(*specFile, *binFile, *baseStr, *addrStr, *ctxStr); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(*specFile, *binFile, *baseStr, *addrStr, *ctxStr, *count, *pcode, *list); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// imageSupplier serves a raw binary image at a fixed base address.
// Reads past the end of the image are zero filled so the decoder can
// probe a full pattern window near the last byte.
type imageSupplier struct {
	data []byte
	base uint64
}

func (s *imageSupplier) Fill(buf []byte, addr uint64) error {
	for i := range buf {
		buf[i] = 0
	}
	if addr < s.base {
		return fmt.Errorf("address %#x below image base %#x", addr, s.base)
	}
	off := addr - s.base
	if off >= uint64(len(s.data)) {
		return fmt.Errorf("address %#x past end of image", addr)
	}
	copy(buf, s.data[off:])
	return nil
}

func (s *imageSupplier) AdjustBase(delta int64) {
	s.base = uint64(int64(s.base) + delta)
}

func (s *imageSupplier) ArchLabel() string { return "raw" }

// printPcode writes one line per pcode operation.
type printPcode struct{}

func (printPcode) OnOp(addr uint64, opcode uint32, out *space.Varnode, ins []space.Varnode) {
	var b strings.Builder
	fmt.Fprintf(&b, "  %#08x  ", addr)
	if out != nil {
		b.WriteString(out.String())
		b.WriteString(" = ")
	}
	if op, err := sleigh.OpCodeFromTag(opcode); err == nil {
		b.WriteString(op.String())
	} else {
		fmt.Fprintf(&b, "OP_%d", opcode)
	}
	for i := range ins {
		if i == 0 {
			b.WriteString(" ")
		} else {
			b.WriteString(", ")
		}
		b.WriteString(ins[i].String())
	}
	fmt.Println(b.String())
}

// printAsm writes one assembly listing line per instruction.
type printAsm struct{}

func (printAsm) OnInstruction(addr uint64, mnemonic, operands string) {
	if operands == "" {
		fmt.Printf("%#08x:  %s\n", addr, mnemonic)
		return
	}
	fmt.Printf("%#08x:  %-8s %s\n", addr, mnemonic, operands)
}

func run(specFile, binFile, baseStr, addrStr, ctxStr string, count int, pcode, listOnly bool) error {
	st, err := loadSpec(specFile)
	if err != nil {
		return err
	}

	if listOnly {
		// A throwaway supplier is enough to build the tables.
		tr, err := runtime.New(&imageSupplier{}, st)
		if err != nil {
			return fmt.Errorf("build engine: %w", err)
		}
		printTables(tr.Engine())
		return nil
	}

	data, err := os.ReadFile(binFile)
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}

	base, err := parseAddr(baseStr)
	if err != nil {
		return fmt.Errorf("bad base address: %w", err)
	}
	addr := base
	if addrStr != "" {
		if addr, err = parseAddr(addrStr); err != nil {
			return fmt.Errorf("bad start address: %w", err)
		}
	}

	tr, err := runtime.New(&imageSupplier{data: data, base: base}, st)
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}

	if err := applyContext(tr, ctxStr); err != nil {
		return err
	}

	fmt.Printf("Image: %s (%d bytes at %#x)\n\n", binFile, len(data), base)

	for i := 0; i < count; i++ {
		var n int32
		if pcode {
			fmt.Printf("%#08x:\n", addr)
			n, err = tr.Translate(printPcode{}, addr)
		} else {
			n, err = tr.Disassemble(printAsm{}, addr)
		}
		if n <= 0 {
			if err != nil {
				fmt.Printf("%#08x:  <%v>\n", addr, err)
			}
			break
		}
		addr += uint64(n)
	}
	return nil
}

func loadSpec(path string) (*document.Storage, error) {
	text, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read spec: %w", err)
	}
	st, err := document.Parse(string(text))
	if err != nil {
		return nil, fmt.Errorf("parse spec: %w", err)
	}
	return st, nil
}

func applyContext(tr *runtime.Translator, ctxStr string) error {
	if ctxStr == "" {
		return nil
	}
	start := space.NewAddressIn(tr.Engine().DefaultCodeSpace(), 0)
	for _, kv := range strings.Split(ctxStr, ",") {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("bad context setting %q, want name=value", kv)
		}
		val, err := parseAddr(parts[1])
		if err != nil {
			return fmt.Errorf("bad context value %q: %w", parts[1], err)
		}
		if err := tr.Context().Set(parts[0], start, uint32(val)); err != nil {
			return fmt.Errorf("set context: %w", err)
		}
	}
	return nil
}

func printTables(eng *sleigh.Engine) {
	fmt.Printf("Address spaces:\n")
	for _, sp := range eng.Spaces() {
		fmt.Printf("  %-12s index=%d size=%d wordsize=%d\n",
			sp.Name(), sp.Index(), sp.AddrSize(), sp.WordSize())
	}

	fmt.Printf("\nRegisters:\n")
	for _, name := range eng.RegisterNames() {
		vn, _ := eng.Register(name)
		fmt.Printf("  %-8s %s\n", name, vn.String())
	}

	fmt.Printf("\nConstructors:\n")
	for _, c := range eng.Constructors() {
		display := c.Display
		if display != "" {
			display = " " + display
		}
		fmt.Printf("  %-8s len=%d ops=%d%s\n", c.Mnemonic, c.Length, c.Pcode, display)
	}
}

func parseAddr(s string) (uint64, error) {
	return strconv.ParseUint(strings.TrimPrefix(s, "+"), 0, 64)
}
