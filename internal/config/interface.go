package config

import "context"

// PipelineLoader parses a pipeline definition file into the model.
type PipelineLoader interface {
	LoadPipeline(ctx context.Context, path string) (*Pipeline, error)
}

// RegionLoader parses region dumps (a file or a directory of files) into
// the model.
type RegionLoader interface {
	LoadRegions(ctx context.Context, path string) ([]*Region, error)
}
