// Package mutation implements post-pass scheduling mutations: graph
// transformations applied to a scheduling region after its base dependency
// graph is built and before the list scheduler linearizes it. Mutations
// encode target performance heuristics (memory-access clustering,
// compute/memory interleaving) as extra Cluster and Artificial edges rather
// than as direct reordering.
package mutation

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/schedmut/internal/ctxlog"
	"github.com/vk/schedmut/internal/instr"
	"github.com/vk/schedmut/internal/region"
)

// ErrPatternContract reports that a matched region violates a guarantee of
// the recognized pattern. It indicates a bug in the recognizer's acceptance
// criteria, not a bad input, and must abort scheduling of the region rather
// than let a silently wrong schedule through.
var ErrPatternContract = errors.New("scheduling pattern contract violated")

// Mutation transforms a region's edge set. Implementations may append
// Cluster and Artificial edges only, must leave the graph acyclic, and must
// not reorder, duplicate, or delete units. A mutation that finds no
// applicable pattern is a no-op. Mutations are independent: they share only
// the graph and must not assume anything about other passes beyond the
// sequence the driver configures.
type Mutation interface {
	Name() string
	Apply(ctx context.Context, r *region.Region) error
}

// Classifier reports opcode-level facts about a unit's instruction. It is
// implemented by the target backend; mutations never inspect instruction
// handles directly.
type Classifier interface {
	MayLoad(u *region.Unit) bool
	MayStore(u *region.Unit) bool
	AddressSpace(u *region.Unit) instr.AddressSpace
	IsClass(u *region.Unit, class instr.OpClass) bool
	// MemOperands returns the ordered base-operand list, constant offset,
	// and access width. ok is false when the address is not statically
	// analyzable; such units are excluded from clustering.
	MemOperands(u *region.Unit) (base []string, offset, width int64, ok bool)
}

// Pipeline applies a fixed sequence of mutations to a region.
type Pipeline struct {
	mutations []Mutation
}

func NewPipeline(mutations ...Mutation) *Pipeline {
	return &Pipeline{mutations: mutations}
}

// Mutations returns the configured sequence.
func (p *Pipeline) Mutations() []Mutation { return p.mutations }

// Apply runs every mutation in order, stopping at the first failure.
func (p *Pipeline) Apply(ctx context.Context, r *region.Region) error {
	logger := ctxlog.FromContext(ctx)
	for _, m := range p.mutations {
		before := len(r.Edges())
		if err := m.Apply(ctx, r); err != nil {
			return fmt.Errorf("mutation %s on region %s: %w", m.Name(), r.Name(), err)
		}
		logger.Debug("mutation applied",
			"mutation", m.Name(),
			"region", r.Name(),
			"edges_added", len(r.Edges())-before)
	}
	return nil
}
