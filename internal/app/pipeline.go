package app

import (
	"fmt"

	"github.com/vk/schedmut/internal/config"
	"github.com/vk/schedmut/internal/instr"
	"github.com/vk/schedmut/internal/mutation"
)

// DefaultPipeline is the stock pass sequence the backend registers when no
// pipeline file overrides it: local-read clustering, then hot-loop
// interleaving.
func DefaultPipeline() *config.Pipeline {
	return &config.Pipeline{
		Mutations: []*config.Mutation{
			{Kind: "local_read_cluster", Name: "stock", MaxStride: 64},
			{Kind: "interleave", Name: "stock"},
		},
	}
}

// buildPipeline assembles the mutation sequence from its configured form.
func buildPipeline(spec *config.Pipeline) (*mutation.Pipeline, error) {
	cls := instr.Classifier{}
	mutations := make([]mutation.Mutation, 0, len(spec.Mutations))
	for _, m := range spec.Mutations {
		built, err := buildMutation(m, cls)
		if err != nil {
			return nil, err
		}
		mutations = append(mutations, built)
	}
	return mutation.NewPipeline(mutations...), nil
}

func buildMutation(m *config.Mutation, cls mutation.Classifier) (mutation.Mutation, error) {
	switch m.Kind {
	case "mem_cluster":
		cfg := mutation.ClusterConfig{MaxStride: m.MaxStride, Window: m.Window}

		switch m.Direction {
		case "", "load":
			cfg.Direction = mutation.Loads
		case "store":
			cfg.Direction = mutation.Stores
		default:
			return nil, fmt.Errorf("mutation %q: unknown direction %q", m.Name, m.Direction)
		}

		switch m.AddressSpace {
		case "":
			// No filter.
		case "global":
			cfg.Space = instr.AddrSpaceGlobal
		case "local":
			cfg.Space = instr.AddrSpaceLocal
		default:
			return nil, fmt.Errorf("mutation %q: unknown address space %q", m.Name, m.AddressSpace)
		}

		name := m.Name
		if name == "" {
			name = "mem-cluster"
		}
		return mutation.NewMemOpCluster(name, cls, cfg), nil

	case "local_read_cluster":
		return mutation.NewLocalReadCluster(cls, m.MaxStride), nil

	case "interleave":
		return mutation.NewHotLoopInterleave(cls), nil

	default:
		return nil, fmt.Errorf("unknown mutation kind %q (name %q)", m.Kind, m.Name)
	}
}
