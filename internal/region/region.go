package region

import (
	"fmt"
	"sort"
)

// EdgeKind classifies one dependency edge.
type EdgeKind uint8

const (
	// Data is a true data dependency from the base graph. Mutations must
	// never add or remove Data edges.
	Data EdgeKind = iota
	// Order is an anti/output dependency from the base graph.
	Order
	// Cluster signals the downstream scheduler to keep two units adjacent
	// in the final order.
	Cluster
	// Artificial is a synthetic ordering constraint with no underlying
	// hazard, inserted purely to bias scheduling decisions.
	Artificial
)

func (k EdgeKind) String() string {
	switch k {
	case Data:
		return "data"
	case Order:
		return "order"
	case Cluster:
		return "cluster"
	case Artificial:
		return "artificial"
	default:
		return fmt.Sprintf("edgekind(%d)", uint8(k))
	}
}

// Synthetic reports whether a mutation is allowed to insert this kind.
func (k EdgeKind) Synthetic() bool {
	return k == Cluster || k == Artificial
}

// ParseEdgeKind maps the textual kind used in region dumps back to its
// EdgeKind value.
func ParseEdgeKind(s string) (EdgeKind, error) {
	switch s {
	case "data":
		return Data, nil
	case "order":
		return Order, nil
	case "cluster":
		return Cluster, nil
	case "artificial":
		return Artificial, nil
	default:
		return 0, fmt.Errorf("unknown edge kind %q", s)
	}
}

// Unit is a single non-divisible instruction occupying one node of the
// region graph. Units are owned by the region; mutations hold only
// non-owning references.
type Unit struct {
	index int
	instr any

	preds []Edge
	succs []Edge
}

// Index returns the unit's position in original program order. It is
// immutable after region construction.
func (u *Unit) Index() int { return u.index }

// Instr returns the opaque handle to the underlying instruction, for
// classification queries.
func (u *Unit) Instr() any { return u.instr }

// Preds returns the edges to units that must be scheduled no later than u.
func (u *Unit) Preds() []Edge { return u.preds }

// Succs returns the edges to units that must be scheduled no earlier than u.
func (u *Unit) Succs() []Edge { return u.succs }

// Edge is one directed dependency as seen from a unit: Unit is the other
// endpoint, Kind its strength.
type Edge struct {
	unit *Unit
	kind EdgeKind
}

func (e Edge) Unit() *Unit    { return e.unit }
func (e Edge) Kind() EdgeKind { return e.kind }

// EdgeRecord is a detached (pred index, succ index, kind) triple used for
// reporting and test assertions.
type EdgeRecord struct {
	Pred int
	Succ int
	Kind EdgeKind
}

type edgeKey struct {
	pred int
	succ int
	kind EdgeKind
}

// Region is the dependency graph for one basic block's instructions. It is
// built once per block, mutated by the configured pass sequence, then
// consumed by the list scheduler and discarded.
type Region struct {
	name  string
	units []*Unit
	entry *Unit
	exit  *Unit
	edges map[edgeKey]struct{}
}

// New creates a region with one unit per instruction handle, in program
// order, and no edges. The entry sentinel carries no instruction and the
// exit sentinel is unset until SetExit installs one.
func New(name string, instrs ...any) *Region {
	r := &Region{
		name:  name,
		units: make([]*Unit, len(instrs)),
		entry: &Unit{index: -1},
		edges: make(map[edgeKey]struct{}),
	}
	for i, ins := range instrs {
		r.units[i] = &Unit{index: i, instr: ins}
	}
	return r
}

func (r *Region) Name() string { return r.name }

// Len returns the number of units, sentinels excluded.
func (r *Region) Len() int { return len(r.units) }

// Units returns all units in original program order.
func (r *Region) Units() []*Unit { return r.units }

// Unit returns the unit at original-order index i.
func (r *Region) Unit(i int) *Unit { return r.units[i] }

// Entry returns the entry sentinel.
func (r *Region) Entry() *Unit { return r.entry }

// Exit returns the exit sentinel, or nil if none was installed.
func (r *Region) Exit() *Unit { return r.exit }

// SetExit installs the exit sentinel holding the region's closing
// instruction. Its index is one past the last unit.
func (r *Region) SetExit(instr any) *Unit {
	r.exit = &Unit{index: len(r.units), instr: instr}
	return r.exit
}

// AddDep installs a base-graph dependency during region construction: pred
// must be scheduled no later than succ. Any kind is accepted. Self-edges,
// duplicates, and edges that would close a cycle are errors, because the
// base graph is required to arrive well formed.
func (r *Region) AddDep(pred, succ *Unit, kind EdgeKind) error {
	if pred == nil || succ == nil {
		return fmt.Errorf("dependency endpoint is nil")
	}
	if pred == succ {
		return fmt.Errorf("self-referential dependency on unit %d", pred.index)
	}
	key := edgeKey{pred: pred.index, succ: succ.index, kind: kind}
	if _, ok := r.edges[key]; ok {
		return fmt.Errorf("duplicate %s dependency %d -> %d", kind, pred.index, succ.index)
	}
	if r.reaches(succ, pred) {
		return fmt.Errorf("%s dependency %d -> %d would create a cycle", kind, pred.index, succ.index)
	}
	r.link(pred, succ, kind)
	return nil
}

// AddEdge appends a synthetic edge during a mutation pass and reports
// whether insertion happened. Self-edges, duplicates, non-synthetic kinds,
// and edges that would close a cycle are refused silently; the caller skips
// that single edge and continues.
func (r *Region) AddEdge(pred, succ *Unit, kind EdgeKind) bool {
	if pred == nil || succ == nil || pred == succ || !kind.Synthetic() {
		return false
	}
	key := edgeKey{pred: pred.index, succ: succ.index, kind: kind}
	if _, ok := r.edges[key]; ok {
		return false
	}
	if r.reaches(succ, pred) {
		return false
	}
	r.link(pred, succ, kind)
	return true
}

// HasEdge reports whether the exact (pred, succ, kind) edge exists.
func (r *Region) HasEdge(pred, succ *Unit, kind EdgeKind) bool {
	if pred == nil || succ == nil {
		return false
	}
	_, ok := r.edges[edgeKey{pred: pred.index, succ: succ.index, kind: kind}]
	return ok
}

// Edges returns every edge as (pred, succ, kind) triples, sorted for
// deterministic reporting.
func (r *Region) Edges() []EdgeRecord {
	out := make([]EdgeRecord, 0, len(r.edges))
	for k := range r.edges {
		out = append(out, EdgeRecord{Pred: k.pred, Succ: k.succ, Kind: k.kind})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Pred != b.Pred {
			return a.Pred < b.Pred
		}
		if a.Succ != b.Succ {
			return a.Succ < b.Succ
		}
		return a.Kind < b.Kind
	})
	return out
}

// EdgesOf returns the subset of Edges with the given kind.
func (r *Region) EdgesOf(kind EdgeKind) []EdgeRecord {
	var out []EdgeRecord
	for _, e := range r.Edges() {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

func (r *Region) link(pred, succ *Unit, kind EdgeKind) {
	succ.preds = append(succ.preds, Edge{unit: pred, kind: kind})
	pred.succs = append(pred.succs, Edge{unit: succ, kind: kind})
	r.edges[edgeKey{pred: pred.index, succ: succ.index, kind: kind}] = struct{}{}
}

// reaches reports whether a path of scheduling constraints leads from one
// unit to another. Iterative DFS; region sizes are bounded by the enclosing
// basic block.
func (r *Region) reaches(from, to *Unit) bool {
	seen := make(map[int]bool)
	stack := []*Unit{from}
	for len(stack) > 0 {
		u := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if u == to {
			return true
		}
		if seen[u.index] {
			continue
		}
		seen[u.index] = true
		for _, e := range u.succs {
			stack = append(stack, e.unit)
		}
	}
	return false
}

// Validate walks the whole graph and returns an error if any cycle
// survived. Insertion refuses cycle-closing edges up front, so a failure
// here indicates a bug in the region itself.
func (r *Region) Validate() error {
	const (
		white = iota
		grey
		black
	)
	color := make(map[int]int, len(r.units)+2)

	var visit func(u *Unit) error
	visit = func(u *Unit) error {
		switch color[u.index] {
		case black:
			return nil
		case grey:
			return fmt.Errorf("cycle detected involving unit %d", u.index)
		}
		color[u.index] = grey
		for _, e := range u.succs {
			if err := visit(e.unit); err != nil {
				return err
			}
		}
		color[u.index] = black
		return nil
	}

	all := append([]*Unit{r.entry}, r.units...)
	if r.exit != nil {
		all = append(all, r.exit)
	}
	for _, u := range all {
		if color[u.index] == white {
			if err := visit(u); err != nil {
				return err
			}
		}
	}
	return nil
}
