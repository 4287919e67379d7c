package instr

import "github.com/vk/schedmut/internal/region"

// Classifier answers scheduling-relevant queries for units whose opaque
// instruction handle is an *Instruction. It implements mutation.Classifier.
// Sentinel units without an instruction and foreign handles classify as
// nothing.
type Classifier struct{}

func (Classifier) instr(u *region.Unit) *Instruction {
	if u == nil {
		return nil
	}
	ins, _ := u.Instr().(*Instruction)
	return ins
}

func (c Classifier) MayLoad(u *region.Unit) bool {
	ins := c.instr(u)
	return ins != nil && ins.Load
}

func (c Classifier) MayStore(u *region.Unit) bool {
	ins := c.instr(u)
	return ins != nil && ins.Store
}

func (c Classifier) AddressSpace(u *region.Unit) AddressSpace {
	ins := c.instr(u)
	if ins == nil {
		return AddrSpaceUnknown
	}
	return ins.Space
}

func (c Classifier) IsClass(u *region.Unit, class OpClass) bool {
	ins := c.instr(u)
	return ins != nil && ins.Class == class
}

// MemOperands reports the base-operand list, constant offset, and access
// width of a memory instruction. ok is false when the unit is not a memory
// operation or its address is not statically analyzable.
func (c Classifier) MemOperands(u *region.Unit) (base []string, offset, width int64, ok bool) {
	ins := c.instr(u)
	if ins == nil || (!ins.Load && !ins.Store) || len(ins.Base) == 0 {
		return nil, 0, 0, false
	}
	return ins.Base, ins.Offset, ins.Width, true
}
