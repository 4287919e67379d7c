// Package testutil provides shared helpers for package tests: compact
// region construction and an end-to-end driver harness.
package testutil

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/schedmut/internal/app"
	"github.com/vk/schedmut/internal/hclload"
	"github.com/vk/schedmut/internal/instr"
	"github.com/vk/schedmut/internal/region"
	"github.com/vk/schedmut/internal/yamlload"
)

// SafeBuffer is a thread-safe buffer for capturing driver output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// Op is a compact instruction spec for building test regions.
type Op struct {
	Opcode string
	Base   []string
	Offset int64
	Width  int64
}

// Region builds a scheduling region from compact specs. exitOpcode may be
// empty to leave the exit sentinel unset.
func Region(t *testing.T, name, exitOpcode string, ops ...Op) *region.Region {
	t.Helper()

	instrs := make([]any, len(ops))
	for i, op := range ops {
		ins, _ := instr.Decode(op.Opcode, op.Base, op.Offset, op.Width)
		instrs[i] = ins
	}
	r := region.New(name, instrs...)
	if exitOpcode != "" {
		ins, _ := instr.Decode(exitOpcode, nil, 0, 0)
		r.SetExit(ins)
	}
	return r
}

// DriverResult holds the outcomes of an end-to-end driver run.
type DriverResult struct {
	Output string
	Err    error
}

// RunDriver writes the given inputs into a temp dir, runs the app against
// them, and returns captured output and the run error. An empty pipelineHCL
// selects the stock pass sequence.
func RunDriver(t *testing.T, pipelineHCL, regionsYAML string) *DriverResult {
	t.Helper()

	dir := t.TempDir()
	regionsPath := filepath.Join(dir, "regions.yaml")
	require.NoError(t, os.WriteFile(regionsPath, []byte(regionsYAML), 0o600))

	cfg := app.Config{RegionsPath: regionsPath, LogFormat: "text", LogLevel: "error"}
	if pipelineHCL != "" {
		pipelinePath := filepath.Join(dir, "pipeline.hcl")
		require.NoError(t, os.WriteFile(pipelinePath, []byte(pipelineHCL), 0o600))
		cfg.PipelinePath = pipelinePath
	}
	appCfg, err := app.NewConfig(cfg)
	require.NoError(t, err)

	out := &SafeBuffer{}
	ctx := context.Background()
	a, err := app.NewApp(ctx, out, appCfg, hclload.NewLoader(), yamlload.NewLoader())
	if err != nil {
		return &DriverResult{Output: out.String(), Err: err}
	}

	err = a.Run(ctx)
	return &DriverResult{Output: out.String(), Err: err}
}
