package mutation_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/schedmut/internal/mutation"
	"github.com/vk/schedmut/internal/region"
	"github.com/vk/schedmut/internal/testutil"
)

// recordingMutation notes the order it ran in and optionally fails.
type recordingMutation struct {
	name string
	log  *[]string
	err  error
}

func (m *recordingMutation) Name() string { return m.name }

func (m *recordingMutation) Apply(_ context.Context, _ *region.Region) error {
	*m.log = append(*m.log, m.name)
	return m.err
}

func TestPipeline_AppliesInOrder(t *testing.T) {
	var log []string
	p := mutation.NewPipeline(
		&recordingMutation{name: "first", log: &log},
		&recordingMutation{name: "second", log: &log},
		&recordingMutation{name: "third", log: &log},
	)
	r := testutil.Region(t, "blk", "", testutil.Op{Opcode: "mov"})

	require.NoError(t, p.Apply(context.Background(), r))
	assert.Equal(t, []string{"first", "second", "third"}, log)
	assert.Len(t, p.Mutations(), 3)
}

func TestPipeline_StopsAtFirstFailure(t *testing.T) {
	var log []string
	boom := errors.New("boom")
	p := mutation.NewPipeline(
		&recordingMutation{name: "first", log: &log},
		&recordingMutation{name: "broken", log: &log, err: boom},
		&recordingMutation{name: "never", log: &log},
	)
	r := testutil.Region(t, "blk", "", testutil.Op{Opcode: "mov"})

	err := p.Apply(context.Background(), r)
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
	assert.Contains(t, err.Error(), "mutation broken on region blk")
	assert.Equal(t, []string{"first", "broken"}, log)
}

func TestPipeline_Empty(t *testing.T) {
	r := testutil.Region(t, "blk", "", testutil.Op{Opcode: "mov"})
	require.NoError(t, mutation.NewPipeline().Apply(context.Background(), r))
	assert.Empty(t, r.Edges())
}
