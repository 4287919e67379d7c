package mutation

import (
	"context"
	"sort"
	"strings"

	"github.com/vk/schedmut/internal/ctxlog"
	"github.com/vk/schedmut/internal/instr"
	"github.com/vk/schedmut/internal/region"
)

// Direction selects whether a cluster pass considers loads or stores.
type Direction uint8

const (
	Loads Direction = iota
	Stores
)

func (d Direction) String() string {
	if d == Stores {
		return "stores"
	}
	return "loads"
}

// DefaultMaxStride is the offset-gap bound used when a cluster pass is
// configured without one.
const DefaultMaxStride = 16

// ClusterConfig parameterizes a MemOpCluster pass.
type ClusterConfig struct {
	Direction Direction
	// Space restricts candidates to one address-space class.
	// instr.AddrSpaceUnknown disables the filter.
	Space instr.AddressSpace
	// MaxStride is the exclusive upper bound on the offset gap between two
	// records that still cluster together.
	MaxStride int64
	// Window, when positive, switches to the bounded fast mode once the
	// record count exceeds it: each record is compared only against the
	// next Window records in original order. Recall drops on large
	// regions; correctness does not.
	Window int
}

// MemOpCluster encourages the list scheduler to place related
// same-direction memory operations adjacently, improving throughput of
// contiguous access. Related means structurally equal base-operand lists
// and offsets within the configured stride.
type MemOpCluster struct {
	name string
	cls  Classifier
	cfg  ClusterConfig
}

func NewMemOpCluster(name string, cls Classifier, cfg ClusterConfig) *MemOpCluster {
	if cfg.MaxStride <= 0 {
		cfg.MaxStride = DefaultMaxStride
	}
	return &MemOpCluster{name: name, cls: cls, cfg: cfg}
}

// NewLocalReadCluster configures the generic clusterer for loads from the
// local/scratch address space. It is a parameterization, not a distinct
// pass.
func NewLocalReadCluster(cls Classifier, maxStride int64) *MemOpCluster {
	return NewMemOpCluster("local-read-cluster", cls, ClusterConfig{
		Direction: Loads,
		Space:     instr.AddrSpaceLocal,
		MaxStride: maxStride,
	})
}

// memOpRecord is the transient view over one clusterable unit.
type memOpRecord struct {
	unit   *region.Unit
	base   []string
	offset int64
	width  int64
}

func (m *MemOpCluster) Name() string { return m.name }

func (m *MemOpCluster) Apply(ctx context.Context, r *region.Region) error {
	records := m.collect(ctx, r)
	if len(records) == 0 {
		return nil
	}

	if m.cfg.Window > 0 && len(records) > m.cfg.Window {
		m.clusterWindowed(ctx, r, records)
		return nil
	}

	groups := make(map[string][]memOpRecord)
	for _, rec := range records {
		key := baseKey(rec.base)
		groups[key] = append(groups[key], rec)
	}

	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		group := groups[key]
		sort.SliceStable(group, func(i, j int) bool {
			if group[i].offset != group[j].offset {
				return group[i].offset < group[j].offset
			}
			return group[i].unit.Index() < group[j].unit.Index()
		})
		for i := 1; i < len(group); i++ {
			prev, cur := group[i-1], group[i]
			if cur.offset-prev.offset >= m.cfg.MaxStride {
				continue
			}
			m.connect(ctx, r, prev.unit, cur.unit)
		}
	}
	return nil
}

// collect derives memory operation records for every unit matching the
// configured direction and address-space filter. Units whose address the
// classifier cannot analyze are excluded, never fatal.
func (m *MemOpCluster) collect(ctx context.Context, r *region.Region) []memOpRecord {
	logger := ctxlog.FromContext(ctx)
	var records []memOpRecord
	for _, u := range r.Units() {
		switch m.cfg.Direction {
		case Loads:
			if !m.cls.MayLoad(u) {
				continue
			}
		case Stores:
			if !m.cls.MayStore(u) {
				continue
			}
		}
		if m.cfg.Space != instr.AddrSpaceUnknown && m.cls.AddressSpace(u) != m.cfg.Space {
			continue
		}
		base, offset, width, ok := m.cls.MemOperands(u)
		if !ok {
			logger.Debug("memory operands not analyzable, unit excluded",
				"mutation", m.name, "region", r.Name(), "unit", u.Index())
			continue
		}
		records = append(records, memOpRecord{unit: u, base: base, offset: offset, width: width})
	}
	return records
}

// clusterWindowed is the bounded fast mode: records stay in original order
// and each is compared only against the next Window records.
func (m *MemOpCluster) clusterWindowed(ctx context.Context, r *region.Region, records []memOpRecord) {
	for i := range records {
		limit := i + m.cfg.Window
		if limit > len(records)-1 {
			limit = len(records) - 1
		}
		for j := i + 1; j <= limit; j++ {
			a, b := records[i], records[j]
			if baseKey(a.base) != baseKey(b.base) {
				continue
			}
			gap := b.offset - a.offset
			if gap < 0 {
				gap = -gap
			}
			if gap >= m.cfg.MaxStride {
				continue
			}
			m.connect(ctx, r, a.unit, b.unit)
		}
	}
}

// connect joins two clusterable units with a Cluster edge plus an
// Artificial ordering edge, pred being the lower original index so the pair
// keeps its program-order bias. A cycle-refused edge is skipped on its own;
// the rest of the group proceeds.
func (m *MemOpCluster) connect(ctx context.Context, r *region.Region, a, b *region.Unit) {
	pred, succ := a, b
	if succ.Index() < pred.Index() {
		pred, succ = succ, pred
	}
	logger := ctxlog.FromContext(ctx)
	for _, kind := range []region.EdgeKind{region.Cluster, region.Artificial} {
		if !r.AddEdge(pred, succ, kind) && !r.HasEdge(pred, succ, kind) {
			logger.Debug("edge refused, would create cycle",
				"mutation", m.name, "region", r.Name(),
				"kind", kind.String(), "pred", pred.Index(), "succ", succ.Index())
		}
	}
}

// baseKey canonicalizes a base-operand list for structural comparison. Two
// records cluster only when their lists match exactly, operands and order.
func baseKey(base []string) string {
	return strings.Join(base, "\x1f")
}
