package mutation

import (
	"context"
	"fmt"

	"github.com/vk/schedmut/internal/ctxlog"
	"github.com/vk/schedmut/internal/instr"
	"github.com/vk/schedmut/internal/region"
)

// category buckets a unit for interleaving. The declaration order is the
// classification priority when several predicates could match.
type category uint8

const (
	catNone category = iota
	catLocalRead
	catLocalWrite
	catCompute
	catGlobalLoad
	catGlobalStore
)

func (c category) String() string {
	switch c {
	case catLocalRead:
		return "local-read"
	case catLocalWrite:
		return "local-write"
	case catCompute:
		return "compute"
	case catGlobalLoad:
		return "global-load"
	case catGlobalStore:
		return "global-store"
	default:
		return "none"
	}
}

// shapePredicate is one acceptance rule of the hot-loop recognizer.
type shapePredicate struct {
	name string
	ok   func(m *HotLoopInterleave, r *region.Region) bool
}

// hotLoopShape spells the two-state recognizer out as a predicate table;
// extending it to more loop shapes means appending rows, not nesting
// branches. All rows must hold for the region to match.
var hotLoopShape = []shapePredicate{
	{
		name: "first unit anchors the loop body",
		ok: func(m *HotLoopInterleave, r *region.Region) bool {
			if r.Len() == 0 {
				return false
			}
			u := r.Unit(0)
			if m.cls.IsClass(u, instr.OpClassInlineBlock) {
				return true
			}
			return m.cls.MayLoad(u) && m.cls.AddressSpace(u) == instr.AddrSpaceGlobal
		},
	},
	{
		name: "exit is the loop back-branch",
		ok: func(m *HotLoopInterleave, r *region.Region) bool {
			return r.Exit() != nil && m.cls.IsClass(r.Exit(), instr.OpClassLoopBranch)
		},
	},
}

// HotLoopInterleave recognizes a compute-dominated inner loop and spreads
// its memory traffic between the fused multiply-accumulate units with
// Artificial edges, so memory latency hides behind compute instead of
// batching at the loop boundary.
type HotLoopInterleave struct {
	cls Classifier
}

func NewHotLoopInterleave(cls Classifier) *HotLoopInterleave {
	return &HotLoopInterleave{cls: cls}
}

func (m *HotLoopInterleave) Name() string { return "hot-loop-interleave" }

func (m *HotLoopInterleave) Apply(ctx context.Context, r *region.Region) error {
	logger := ctxlog.FromContext(ctx)

	if !m.match(ctx, r) {
		return nil
	}

	// Unit 0 anchors the recognized shape. It is loop-boundary traffic,
	// not body traffic, and stays out of the interleave.
	cats := make([]category, r.Len())
	byCat := make(map[category][]*region.Unit)
	for _, u := range r.Units()[1:] {
		c := m.classify(u)
		cats[u.Index()] = c
		if c != catNone {
			byCat[c] = append(byCat[c], u)
		}
	}

	// The recognized shape guarantees the body issues no global stores. A
	// store here means the recognizer accepted a region it should not
	// have; scheduling the region must stop.
	if n := len(byCat[catGlobalStore]); n > 0 {
		return fmt.Errorf("matched hot loop has %d global-memory store(s): %w", n, ErrPatternContract)
	}

	computes := byCat[catCompute]
	logger.Debug("hot loop matched",
		"region", r.Name(),
		"local_reads", len(byCat[catLocalRead]),
		"local_writes", len(byCat[catLocalWrite]),
		"global_loads", len(byCat[catGlobalLoad]),
		"computes", len(computes))

	// Reverse scan from the exit: a memory category's priority is the
	// order of its first encounter, so the traffic nearest the loop exit
	// interleaves first. Absent categories are skipped entirely.
	var prio []category
	seen := make(map[category]bool)
	for i := r.Len() - 1; i >= 0; i-- {
		switch c := cats[i]; c {
		case catLocalRead, catLocalWrite, catGlobalLoad:
			if !seen[c] {
				seen[c] = true
				prio = append(prio, c)
			}
		}
	}

	// Pair tail cursors: the last remaining unit of each memory category
	// against the last remaining compute unit, walking both backward. The
	// memory unit becomes a predecessor of the compute unit, biasing it to
	// issue immediately before that compute. A category's pass ends when
	// its list or the compute list runs out.
	ci := len(computes) - 1
	for _, c := range prio {
		mems := byCat[c]
		for mi := len(mems) - 1; mi >= 0 && ci >= 0; mi, ci = mi-1, ci-1 {
			mem, cmp := mems[mi], computes[ci]
			if !r.AddEdge(mem, cmp, region.Artificial) {
				logger.Debug("interleave edge refused",
					"region", r.Name(), "category", c.String(),
					"pred", mem.Index(), "succ", cmp.Index())
			}
		}
	}
	return nil
}

func (m *HotLoopInterleave) match(ctx context.Context, r *region.Region) bool {
	logger := ctxlog.FromContext(ctx)
	for _, p := range hotLoopShape {
		if !p.ok(m, r) {
			logger.Debug("hot loop shape rejected", "region", r.Name(), "predicate", p.name)
			return false
		}
	}
	return true
}

// classify assigns a unit to exactly one category, first matching predicate
// wins. Units matching nothing are left untouched by interleaving.
func (m *HotLoopInterleave) classify(u *region.Unit) category {
	space := m.cls.AddressSpace(u)
	switch {
	case space == instr.AddrSpaceLocal && m.cls.MayLoad(u):
		return catLocalRead
	case space == instr.AddrSpaceLocal && m.cls.MayStore(u):
		return catLocalWrite
	case m.cls.IsClass(u, instr.OpClassMACC):
		return catCompute
	case space == instr.AddrSpaceGlobal && m.cls.MayLoad(u):
		return catGlobalLoad
	case space == instr.AddrSpaceGlobal && m.cls.MayStore(u):
		return catGlobalStore
	default:
		return catNone
	}
}
