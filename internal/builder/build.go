// Package builder turns dumped region descriptions into live scheduling
// regions: instructions decoded, sentinels installed, base dependencies
// linked and validated.
package builder

import (
	"context"
	"fmt"

	"github.com/vk/schedmut/internal/config"
	"github.com/vk/schedmut/internal/ctxlog"
	"github.com/vk/schedmut/internal/instr"
	"github.com/vk/schedmut/internal/region"
)

// Build constructs a validated scheduling region from its dumped form. The
// base graph must be acyclic and may carry only data and order edges;
// synthetic kinds belong to the mutations that run afterwards.
func Build(ctx context.Context, spec *config.Region) (*region.Region, error) {
	logger := ctxlog.FromContext(ctx)

	instrs := make([]any, len(spec.Units))
	for i, u := range spec.Units {
		ins, known := instr.Decode(u.Opcode, u.Base, u.Offset, u.Width)
		if !known {
			logger.Debug("unknown opcode in dump, unit will be inert",
				"region", spec.Name, "unit", i, "opcode", u.Opcode)
		}
		instrs[i] = ins
	}

	r := region.New(spec.Name, instrs...)

	if spec.Exit != nil {
		ins, _ := instr.Decode(spec.Exit.Opcode, spec.Exit.Base, spec.Exit.Offset, spec.Exit.Width)
		r.SetExit(ins)
	}

	for _, d := range spec.Deps {
		kind, err := region.ParseEdgeKind(d.Kind)
		if err != nil {
			return nil, fmt.Errorf("region %s: %w", spec.Name, err)
		}
		if kind.Synthetic() {
			return nil, fmt.Errorf("region %s: dump carries a %s edge; dumps may only carry base dependencies", spec.Name, kind)
		}
		if err := r.AddDep(r.Unit(d.Pred), r.Unit(d.Succ), kind); err != nil {
			return nil, fmt.Errorf("region %s: %w", spec.Name, err)
		}
	}

	logger.Debug("Region built.", "region", spec.Name, "units", r.Len(), "deps", len(spec.Deps))
	return r, nil
}
