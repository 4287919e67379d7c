package builder_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/schedmut/internal/builder"
	"github.com/vk/schedmut/internal/config"
	"github.com/vk/schedmut/internal/instr"
	"github.com/vk/schedmut/internal/region"
)

func TestBuild(t *testing.T) {
	spec := &config.Region{
		Name: "loop0",
		Units: []*config.Unit{
			{Opcode: "ld.global", Base: []string{"rg"}, Offset: 0, Width: 16},
			{Opcode: "macc"},
		},
		Exit: &config.Unit{Opcode: "br.loop"},
		Deps: []*config.Dep{
			{Pred: 0, Succ: 1, Kind: "data"},
			{Pred: 0, Succ: 1, Kind: "order"},
		},
	}

	r, err := builder.Build(context.Background(), spec)
	require.NoError(t, err)

	assert.Equal(t, "loop0", r.Name())
	assert.Equal(t, 2, r.Len())
	require.NotNil(t, r.Exit())
	assert.Equal(t, 2, r.Exit().Index())

	exitIns, ok := r.Exit().Instr().(*instr.Instruction)
	require.True(t, ok)
	assert.Equal(t, "br.loop", exitIns.Opcode)

	assert.True(t, r.HasEdge(r.Unit(0), r.Unit(1), region.Data))
	assert.True(t, r.HasEdge(r.Unit(0), r.Unit(1), region.Order))
	assert.NoError(t, r.Validate())
}

func TestBuild_UnknownOpcodeIsInert(t *testing.T) {
	spec := &config.Region{
		Name:  "blk",
		Units: []*config.Unit{{Opcode: "frobnicate"}},
	}

	r, err := builder.Build(context.Background(), spec)
	require.NoError(t, err)

	ins, ok := r.Unit(0).Instr().(*instr.Instruction)
	require.True(t, ok)
	assert.Equal(t, "frobnicate", ins.Opcode)
	assert.False(t, ins.Load)
	assert.False(t, ins.Store)
	assert.Equal(t, instr.OpClassNone, ins.Class)
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name    string
		spec    *config.Region
		wantErr string
	}{
		{
			name: "unknown edge kind",
			spec: &config.Region{
				Name:  "blk",
				Units: []*config.Unit{{Opcode: "mov"}, {Opcode: "mov"}},
				Deps:  []*config.Dep{{Pred: 0, Succ: 1, Kind: "bogus"}},
			},
			wantErr: `unknown edge kind "bogus"`,
		},
		{
			name: "synthetic kind in dump",
			spec: &config.Region{
				Name:  "blk",
				Units: []*config.Unit{{Opcode: "mov"}, {Opcode: "mov"}},
				Deps:  []*config.Dep{{Pred: 0, Succ: 1, Kind: "artificial"}},
			},
			wantErr: "dumps may only carry base dependencies",
		},
		{
			name: "cyclic base graph",
			spec: &config.Region{
				Name:  "blk",
				Units: []*config.Unit{{Opcode: "mov"}, {Opcode: "mov"}},
				Deps: []*config.Dep{
					{Pred: 0, Succ: 1, Kind: "data"},
					{Pred: 1, Succ: 0, Kind: "data"},
				},
			},
			wantErr: "would create a cycle",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := builder.Build(context.Background(), tc.spec)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
