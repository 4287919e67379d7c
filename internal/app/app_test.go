package app_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/schedmut/internal/app"
	"github.com/vk/schedmut/internal/mutation"
	"github.com/vk/schedmut/internal/testutil"
)

const hotLoopDump = `
regions:
  - name: loop0
    units:
      - opcode: ld.global
        base: [rg]
        offset: 0
        width: 16
      - opcode: ld.local
        base: [rl]
        offset: 0
        width: 8
      - opcode: st.local
        base: [rl]
        offset: 64
        width: 8
      - opcode: macc
      - opcode: macc
      - opcode: macc
    exit:
      opcode: br.loop
`

func TestRun_StockPipeline(t *testing.T) {
	res := testutil.RunDriver(t, "", hotLoopDump)
	require.NoError(t, res.Err)

	assert.Contains(t, res.Output, "region loop0: 6 unit(s), 2 synthetic edge(s) added")
	assert.Contains(t, res.Output, "artificial 1 -> 4")
	assert.Contains(t, res.Output, "artificial 2 -> 5")
}

func TestRun_CustomPipeline(t *testing.T) {
	pipeline := `
constants {
  stride = 16
}

mutation "mem_cluster" "local_reads" {
  direction     = "load"
  address_space = "local"
  max_stride    = const.stride
}
`
	regions := `
regions:
  - name: blk0
    units:
      - opcode: ld.local
        base: [r1]
        offset: 0
        width: 4
      - opcode: ld.local
        base: [r1]
        offset: 4
        width: 4
`
	res := testutil.RunDriver(t, pipeline, regions)
	require.NoError(t, res.Err)

	// One pair, joined by a Cluster plus an Artificial edge.
	assert.Contains(t, res.Output, "region blk0: 2 unit(s), 2 synthetic edge(s) added")
	assert.Contains(t, res.Output, "cluster    0 -> 1")
	assert.Contains(t, res.Output, "artificial 0 -> 1")
}

func TestRun_ContractViolationAbortsRun(t *testing.T) {
	dump := `
regions:
  - name: loop0
    units:
      - opcode: ld.global
        base: [rg]
        offset: 0
        width: 16
      - opcode: st.global
        base: [rg]
        offset: 0
        width: 16
      - opcode: macc
    exit:
      opcode: br.loop
`
	res := testutil.RunDriver(t, "", dump)
	require.Error(t, res.Err)
	assert.True(t, errors.Is(res.Err, mutation.ErrPatternContract))
}

func TestRun_BadDumpFailsLoad(t *testing.T) {
	res := testutil.RunDriver(t, "", "regions:\n  - name: empty\n")
	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "failed to load region dumps")
}

func TestRun_BadPipelineKind(t *testing.T) {
	res := testutil.RunDriver(t, `mutation "reorder" "x" {}`, hotLoopDump)
	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "unknown mutation kind")
}

func TestNewConfig(t *testing.T) {
	t.Run("requires a regions path", func(t *testing.T) {
		_, err := app.NewConfig(app.Config{})
		require.Error(t, err)
	})

	t.Run("passes a populated config through", func(t *testing.T) {
		cfg, err := app.NewConfig(app.Config{RegionsPath: "dumps/"})
		require.NoError(t, err)
		assert.Equal(t, "dumps/", cfg.RegionsPath)
	})
}

func TestDefaultPipeline(t *testing.T) {
	spec := app.DefaultPipeline()
	require.Len(t, spec.Mutations, 2)
	assert.Equal(t, "local_read_cluster", spec.Mutations[0].Kind)
	assert.Equal(t, "interleave", spec.Mutations[1].Kind)
}
