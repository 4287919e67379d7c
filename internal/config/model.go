// Package config defines the format-agnostic model of the driver's inputs:
// the mutation pipeline and the dumped scheduling regions. Format adapters
// (HCL for pipelines, YAML for dumps) translate into these types.
package config

// Model aggregates everything one run needs.
type Model struct {
	Pipeline *Pipeline
	Regions  []*Region
}

// Pipeline is the ordered sequence of mutation passes applied to every
// region.
type Pipeline struct {
	Mutations []*Mutation
}

// Mutation describes one configured pass.
type Mutation struct {
	Kind string // mem_cluster | local_read_cluster | interleave
	Name string

	// Clusterer parameters; unused by other kinds.
	Direction    string // load | store
	AddressSpace string // global | local | "" (any)
	MaxStride    int64
	Window       int
}

// Region is the dumped form of one scheduling region.
type Region struct {
	Name  string
	Units []*Unit
	Exit  *Unit
	Deps  []*Dep
}

// Unit is the dumped form of one instruction.
type Unit struct {
	Opcode string
	Base   []string
	Offset int64
	Width  int64
}

// Dep is one base-graph dependency between unit indices: Pred must be
// scheduled no later than Succ.
type Dep struct {
	Pred int
	Succ int
	Kind string // data | order
}
