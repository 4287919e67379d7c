package app

import (
	"context"
	"fmt"

	"github.com/vk/schedmut/internal/builder"
	"github.com/vk/schedmut/internal/ctxlog"
	"github.com/vk/schedmut/internal/region"
)

// Run builds every dumped region, applies the pipeline, and writes a report
// of the synthetic edges each region gained. A pattern-contract violation
// aborts the whole run: it indicates a recognizer bug, and emitting a
// schedule for that region would be silently wrong.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.", "region_count", len(a.regions))

	for _, spec := range a.regions {
		r, err := builder.Build(ctx, spec)
		if err != nil {
			return fmt.Errorf("failed to build region %s: %w", spec.Name, err)
		}

		before := len(r.Edges())
		if err := a.pipeline.Apply(ctx, r); err != nil {
			return err
		}
		a.report(r, len(r.Edges())-before)
	}

	a.logger.Debug("App.Run method finished.")
	return nil
}

// report prints the human-readable outcome for one region.
func (a *App) report(r *region.Region, added int) {
	fmt.Fprintf(a.outW, "region %s: %d unit(s), %d synthetic edge(s) added\n", r.Name(), r.Len(), added)
	for _, e := range r.Edges() {
		if !e.Kind.Synthetic() {
			continue
		}
		fmt.Fprintf(a.outW, "  %-10s %d -> %d\n", e.Kind, e.Pred, e.Succ)
	}
}
