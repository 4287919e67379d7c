package instr_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/schedmut/internal/instr"
	"github.com/vk/schedmut/internal/region"
)

func TestDecode(t *testing.T) {
	t.Run("known mnemonic", func(t *testing.T) {
		ins, known := instr.Decode("ld.local", []string{"r4"}, 16, 4)
		require.True(t, known)
		assert.Equal(t, "ld.local", ins.Opcode)
		assert.True(t, ins.Load)
		assert.False(t, ins.Store)
		assert.Equal(t, instr.AddrSpaceLocal, ins.Space)
		assert.Equal(t, []string{"r4"}, ins.Base)
		assert.Equal(t, int64(16), ins.Offset)
		assert.Equal(t, int64(4), ins.Width)
	})

	t.Run("unknown mnemonic is inert", func(t *testing.T) {
		ins, known := instr.Decode("frobnicate", nil, 0, 0)
		assert.False(t, known)
		assert.False(t, ins.Load)
		assert.False(t, ins.Store)
		assert.Equal(t, instr.OpClassNone, ins.Class)
		assert.Equal(t, instr.AddrSpaceUnknown, ins.Space)
	})

	t.Run("base list is copied", func(t *testing.T) {
		base := []string{"r1", "r2"}
		ins, _ := instr.Decode("st.global", base, 0, 8)
		base[0] = "clobbered"
		assert.Equal(t, []string{"r1", "r2"}, ins.Base)
	})
}

func unitFor(t *testing.T, opcode string, base []string, offset, width int64) *region.Unit {
	t.Helper()
	ins, _ := instr.Decode(opcode, base, offset, width)
	return region.New("t", ins).Unit(0)
}

func TestClassifier(t *testing.T) {
	cls := instr.Classifier{}

	t.Run("loads and stores", func(t *testing.T) {
		ld := unitFor(t, "ld.global", []string{"r1"}, 0, 4)
		st := unitFor(t, "st.local", []string{"r2"}, 0, 4)
		mv := unitFor(t, "mov", nil, 0, 0)

		assert.True(t, cls.MayLoad(ld))
		assert.False(t, cls.MayStore(ld))
		assert.True(t, cls.MayStore(st))
		assert.False(t, cls.MayLoad(st))
		assert.False(t, cls.MayLoad(mv))
		assert.False(t, cls.MayStore(mv))
	})

	t.Run("address space", func(t *testing.T) {
		assert.Equal(t, instr.AddrSpaceGlobal, cls.AddressSpace(unitFor(t, "ld.global", []string{"r1"}, 0, 4)))
		assert.Equal(t, instr.AddrSpaceLocal, cls.AddressSpace(unitFor(t, "st.local", []string{"r1"}, 0, 4)))
		assert.Equal(t, instr.AddrSpaceUnknown, cls.AddressSpace(unitFor(t, "add", nil, 0, 0)))
	})

	t.Run("opcode classes", func(t *testing.T) {
		assert.True(t, cls.IsClass(unitFor(t, "macc", nil, 0, 0), instr.OpClassMACC))
		assert.True(t, cls.IsClass(unitFor(t, "inline.block", nil, 0, 0), instr.OpClassInlineBlock))
		assert.True(t, cls.IsClass(unitFor(t, "br.loop", nil, 0, 0), instr.OpClassLoopBranch))
		assert.False(t, cls.IsClass(unitFor(t, "macc", nil, 0, 0), instr.OpClassLoopBranch))
	})

	t.Run("memory operands", func(t *testing.T) {
		base, offset, width, ok := cls.MemOperands(unitFor(t, "ld.local", []string{"r4", "r5"}, 32, 8))
		require.True(t, ok)
		assert.Equal(t, []string{"r4", "r5"}, base)
		assert.Equal(t, int64(32), offset)
		assert.Equal(t, int64(8), width)
	})

	t.Run("memory operands gaps", func(t *testing.T) {
		// Not a memory op.
		_, _, _, ok := cls.MemOperands(unitFor(t, "macc", nil, 0, 0))
		assert.False(t, ok)

		// Memory op without a statically analyzable base.
		_, _, _, ok = cls.MemOperands(unitFor(t, "ld.global", nil, 0, 4))
		assert.False(t, ok)
	})

	t.Run("sentinels classify as nothing", func(t *testing.T) {
		r := region.New("t")
		assert.False(t, cls.MayLoad(r.Entry()))
		assert.Equal(t, instr.AddrSpaceUnknown, cls.AddressSpace(r.Entry()))
		_, _, _, ok := cls.MemOperands(r.Entry())
		assert.False(t, ok)
	})
}
