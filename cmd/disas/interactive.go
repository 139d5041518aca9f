package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/pcodelab/pcode-runtime/runtime"
	"github.com/pcodelab/pcode-runtime/sleigh"
	"github.com/pcodelab/pcode-runtime/space"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	addrStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	mnemonicStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	pcodeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#DDDDDD"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

const pageSize = 16

type modelState int

const (
	stateEnterAddr modelState = iota
	stateListing
)

type interactiveModel struct {
	err      error
	tr       *runtime.Translator
	specFile string
	binFile  string
	baseStr  string
	addrTmpl string
	ctxStr   string
	addrIn   textinput.Model
	lines    []string
	addr     uint64
	next     uint64
	showOps  bool
	state    modelState
}

type loadedMsg struct {
	err error
	tr  *runtime.Translator
}

type listingMsg struct {
	lines []string
	next  uint64
}

func newInteractiveModel(specFile, binFile, baseStr, addrTmpl, ctxStr string) *interactiveModel {
	ti := textinput.New()
	ti.Placeholder = "0x1000"
	ti.Prompt = "address: "
	ti.Width = 24
	if addrTmpl != "" {
		ti.SetValue(addrTmpl)
	}
	ti.Focus()
	return &interactiveModel{
		specFile: specFile,
		binFile:  binFile,
		baseStr:  baseStr,
		addrTmpl: addrTmpl,
		ctxStr:   ctxStr,
		addrIn:   ti,
		state:    stateEnterAddr,
	}
}

func (m *interactiveModel) Init() tea.Cmd {
	return m.load
}

func (m *interactiveModel) load() tea.Msg {
	st, err := loadSpec(m.specFile)
	if err != nil {
		return loadedMsg{err: err}
	}

	data, err := os.ReadFile(m.binFile)
	if err != nil {
		return loadedMsg{err: fmt.Errorf("read image: %w", err)}
	}
	base, err := parseAddr(m.baseStr)
	if err != nil {
		return loadedMsg{err: fmt.Errorf("bad base address: %w", err)}
	}

	tr, err := runtime.New(&imageSupplier{data: data, base: base}, st)
	if err != nil {
		return loadedMsg{err: fmt.Errorf("build engine: %w", err)}
	}
	if err := applyContext(tr, m.ctxStr); err != nil {
		return loadedMsg{err: err}
	}
	return loadedMsg{tr: tr}
}

// capturePcode collects rendered pcode lines for one page.
type capturePcode struct {
	lines *[]string
}

func (c capturePcode) OnOp(addr uint64, opcode uint32, out *space.Varnode, ins []space.Varnode) {
	var b strings.Builder
	b.WriteString("    ")
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
	*c.lines = append(*c.lines, pcodeStyle.Render(b.String()))
}

type captureAsm struct {
	lines *[]string
}

func (c captureAsm) OnInstruction(addr uint64, mnemonic, operands string) {
	line := addrStyle.Render(fmt.Sprintf("%#08x", addr)) + "  " + mnemonicStyle.Render(mnemonic)
	if operands != "" {
		line += " " + operands
	}
	*c.lines = append(*c.lines, line)
}

func (m *interactiveModel) decodePage() tea.Msg {
	var lines []string
	addr := m.addr
	for i := 0; i < pageSize; i++ {
		var n int32
		var err error
		if m.showOps {
			lines = append(lines, addrStyle.Render(fmt.Sprintf("%#08x:", addr)))
			n, err = m.tr.Translate(capturePcode{lines: &lines}, addr)
		} else {
			n, err = m.tr.Disassemble(captureAsm{lines: &lines}, addr)
		}
		if n <= 0 {
			if err != nil {
				lines = append(lines, errorStyle.Render(fmt.Sprintf("%#08x  <%v>", addr, err)))
			}
			break
		}
		addr += uint64(n)
	}
	return listingMsg{lines: lines, next: addr}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.state == stateEnterAddr && msg.String() == "q" {
				break // let the input field take the q
			}
			return m, tea.Quit

		case "enter":
			if m.tr == nil {
				return m, nil
			}
			switch m.state {
			case stateEnterAddr:
				addr, err := parseAddr(strings.TrimSpace(m.addrIn.Value()))
				if err != nil {
					m.err = fmt.Errorf("bad address: %w", err)
					return m, nil
				}
				m.err = nil
				m.addr = addr
				m.state = stateListing
				return m, m.decodePage

			case stateListing:
				m.addr = m.next
				return m, m.decodePage
			}

		case "tab":
			if m.state == stateListing {
				m.showOps = !m.showOps
				return m, m.decodePage
			}

		case "esc":
			if m.state == stateListing {
				m.state = stateEnterAddr
				m.lines = nil
				m.addrIn.Focus()
			}
		}

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.tr = msg.tr

	case listingMsg:
		m.lines = msg.lines
		m.next = msg.next
	}

	if m.state == stateEnterAddr {
		var cmd tea.Cmd
		m.addrIn, cmd = m.addrIn.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("pcode disassembler"))
	b.WriteString(" ")
	b.WriteString(m.binFile)
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n\n")
	}

	if m.tr == nil {
		if m.err == nil {
			b.WriteString("Loading...")
		} else {
			b.WriteString(helpStyle.Render("ctrl+c quit"))
		}
		return b.String()
	}

	switch m.state {
	case stateEnterAddr:
		b.WriteString(m.addrIn.View())
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter decode • ctrl+c quit"))

	case stateListing:
		mode := "assembly"
		if m.showOps {
			mode = "pcode"
		}
		b.WriteString(helpStyle.Render(mode))
		b.WriteString("\n\n")
		for _, line := range m.lines {
			b.WriteString(line)
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("enter next page • tab toggle pcode • esc address • q quit"))
	}

	return b.String()
}

func runInteractive(specFile, binFile, baseStr, addrTmpl, ctxStr string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("interactive mode needs a terminal")
	}
	p := tea.NewProgram(newInteractiveModel(specFile, binFile, baseStr, addrTmpl, ctxStr), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
