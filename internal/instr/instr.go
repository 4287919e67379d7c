// Package instr carries the decoded instruction model the driver works
// with, and the classifier the scheduling mutations query. A real backend
// plugs in its own decoder; this one is table driven over the mnemonics
// found in region dumps.
package instr

import "fmt"

// AddressSpace is the address-space class a memory instruction targets.
type AddressSpace uint8

const (
	AddrSpaceUnknown AddressSpace = iota
	// AddrSpaceGlobal is device memory.
	AddrSpaceGlobal
	// AddrSpaceLocal is the fast, limited-capacity on-chip scratch space.
	AddrSpaceLocal
)

func (s AddressSpace) String() string {
	switch s {
	case AddrSpaceGlobal:
		return "global"
	case AddrSpaceLocal:
		return "local"
	default:
		return "unknown"
	}
}

// OpClass tags opcode-class membership the mutations care about.
type OpClass uint8

const (
	OpClassNone OpClass = iota
	// OpClassInlineBlock is an opaque inline low-level instruction block.
	OpClassInlineBlock
	// OpClassMACC is a fused multiply-accumulate compute instruction.
	OpClassMACC
	// OpClassLoopBranch is the conditional loop-back branch that closes a
	// hot loop body.
	OpClassLoopBranch
)

func (c OpClass) String() string {
	switch c {
	case OpClassInlineBlock:
		return "inline-block"
	case OpClassMACC:
		return "macc"
	case OpClassLoopBranch:
		return "loop-branch"
	default:
		return "none"
	}
}

// Instruction is one decoded machine instruction from a region dump.
type Instruction struct {
	Opcode string
	Class  OpClass
	Load   bool
	Store  bool
	Space  AddressSpace

	// Memory addressing, when statically analyzable. An empty Base marks
	// the address as unknown to the clusterer.
	Base   []string
	Offset int64
	Width  int64
}

func (i *Instruction) String() string {
	return fmt.Sprintf("%s(%d)", i.Opcode, i.Offset)
}

// opcodeTable maps dump mnemonics to their prototype properties.
var opcodeTable = map[string]Instruction{
	"ld.global":    {Load: true, Space: AddrSpaceGlobal},
	"st.global":    {Store: true, Space: AddrSpaceGlobal},
	"ld.local":     {Load: true, Space: AddrSpaceLocal},
	"st.local":     {Store: true, Space: AddrSpaceLocal},
	"macc":         {Class: OpClassMACC},
	"inline.block": {Class: OpClassInlineBlock},
	"br.loop":      {Class: OpClassLoopBranch},
	"mov":          {},
	"add":          {},
	"mul":          {},
	"shl":          {},
	"cmp":          {},
	"nop":          {},
}

// Decode builds an Instruction for a dump mnemonic. Unknown mnemonics
// produce an inert instruction the classifier reports nothing for, with
// known=false so callers can log the gap.
func Decode(opcode string, base []string, offset, width int64) (ins *Instruction, known bool) {
	proto, known := opcodeTable[opcode]
	decoded := proto
	decoded.Opcode = opcode
	decoded.Base = append([]string(nil), base...)
	decoded.Offset = offset
	decoded.Width = width
	return &decoded, known
}
