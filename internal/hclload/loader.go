// Package hclload is the HCL implementation of config.PipelineLoader. A
// pipeline file is a sequence of labeled mutation blocks, optionally
// preceded by a constants block whose attributes are exposed to mutation
// parameters as const.<name>.
package hclload

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/schedmut/internal/config"
	"github.com/vk/schedmut/internal/ctxlog"
)

// Loader parses HCL pipeline definitions.
type Loader struct{}

// NewLoader creates a new HCL pipeline loader.
func NewLoader() *Loader {
	return &Loader{}
}

// fileRoot decodes the top-level blocks of a pipeline file.
type fileRoot struct {
	Constants *constantsBlock  `hcl:"constants,block"`
	Mutations []*mutationBlock `hcl:"mutation,block"`
}

// constantsBlock holds arbitrary named values referenced by mutation
// attributes via const.<name>.
type constantsBlock struct {
	Body hcl.Body `hcl:",remain"`
}

type mutationBlock struct {
	Kind string   `hcl:"kind,label"`
	Name string   `hcl:"name,label"`
	Body hcl.Body `hcl:",remain"`
}

// clusterParams are the attributes of mem_cluster and local_read_cluster
// blocks.
type clusterParams struct {
	Direction    string `hcl:"direction,optional"`
	AddressSpace string `hcl:"address_space,optional"`
	MaxStride    int64  `hcl:"max_stride,optional"`
	Window       int    `hcl:"window,optional"`
}

// interleaveParams exists so unexpected attributes on an interleave block
// are rejected rather than ignored.
type interleaveParams struct{}

// LoadPipeline parses one pipeline file into the format-agnostic model.
func (l *Loader) LoadPipeline(ctx context.Context, path string) (*config.Pipeline, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL pipeline loader started.", "path", path)

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse pipeline file %s: %w", path, diags)
	}

	var root fileRoot
	if diags := gohcl.DecodeBody(file.Body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode pipeline file %s: %w", path, diags)
	}

	evalCtx, err := constantsContext(root.Constants)
	if err != nil {
		return nil, err
	}

	pipeline := &config.Pipeline{}
	for _, block := range root.Mutations {
		mut, err := translateMutation(block, evalCtx)
		if err != nil {
			return nil, err
		}
		pipeline.Mutations = append(pipeline.Mutations, mut)
	}

	logger.Debug("Pipeline loaded.", "mutation_count", len(pipeline.Mutations))
	return pipeline, nil
}

// constantsContext evaluates the constants block into an EvalContext that
// exposes its attributes under the const object.
func constantsContext(block *constantsBlock) (*hcl.EvalContext, error) {
	if block == nil {
		return nil, nil
	}
	attrs, diags := block.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to read constants block: %w", diags)
	}
	vals := make(map[string]cty.Value, len(attrs))
	for name, attr := range attrs {
		v, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to evaluate constant %q: %w", name, diags)
		}
		vals[name] = v
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"const": cty.ObjectVal(vals)},
	}, nil
}

func translateMutation(block *mutationBlock, evalCtx *hcl.EvalContext) (*config.Mutation, error) {
	mut := &config.Mutation{Kind: block.Kind, Name: block.Name}
	switch block.Kind {
	case "mem_cluster", "local_read_cluster":
		var params clusterParams
		if diags := gohcl.DecodeBody(block.Body, evalCtx, &params); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode mutation %q %q: %w", block.Kind, block.Name, diags)
		}
		mut.Direction = params.Direction
		mut.AddressSpace = params.AddressSpace
		mut.MaxStride = params.MaxStride
		mut.Window = params.Window
	case "interleave":
		var params interleaveParams
		if diags := gohcl.DecodeBody(block.Body, evalCtx, &params); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode mutation %q %q: %w", block.Kind, block.Name, diags)
		}
	default:
		return nil, fmt.Errorf("unknown mutation kind %q (name %q)", block.Kind, block.Name)
	}
	return mut, nil
}
