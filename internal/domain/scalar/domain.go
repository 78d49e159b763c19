package scalar

// Range is a closed [min, max] axis interval.
type Range [2]float64

// NewRange orders a and b.
func NewRange(a, b float64) *Range {
	if a > b {
		a, b = b, a
	}
	return &Range{a, b}
}

// Domain is the zoom/pan state of one chart.  A nil axis means autoscale.
type Domain struct {
	X *Range `json:"x"`
	Y *Range `json:"y"`
}

// IsAuto reports whether both axes autoscale.
func (d Domain) IsAuto() bool { return d.X == nil && d.Y == nil }

// Equal compares two domains by value.
func (d Domain) Equal(o Domain) bool {
	return rangeEqual(d.X, o.X) && rangeEqual(d.Y, o.Y)
}

func (d Domain) clone() Domain {
	return Domain{X: cloneRange(d.X), Y: cloneRange(d.Y)}
}

func cloneRange(r *Range) *Range {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}

func rangeEqual(a, b *Range) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Domains maps metric name → chart domain.  A missing entry is autoscale.
type Domains map[string]Domain

// Get returns the domain for metric (autoscale when unset).
func (d Domains) Get(metric string) Domain {
	return d[metric]
}

// Clone deep-copies the map.
func (d Domains) Clone() Domains {
	out := make(Domains, len(d))
	for k, v := range d {
		out[k] = v.clone()
	}
	return out
}

// ApplyDomainChange records next as the domain of metric and propagates it
// to every other visible metric according to mode:
//
//   - independent: only metric changes
//   - all:         every visible metric takes both axes
//   - x-only:      every visible metric takes the X axis, Y is kept
//   - y-only:      every visible metric takes the Y axis, X is kept
//
// The input map is never mutated.  Unknown modes behave as independent.
func ApplyDomainChange(domains Domains, metric string, next Domain, mode SyncMode, visibleMetrics []string) Domains {
	out := domains.Clone()
	out[metric] = next.clone()
	for _, m := range visibleMetrics {
		if m == metric {
			continue
		}
		cur := out[m]
		switch mode {
		case SyncAll:
			cur = next.clone()
		case SyncXOnly:
			cur.X = cloneRange(next.X)
		case SyncYOnly:
			cur.Y = cloneRange(next.Y)
		default:
			continue
		}
		out[m] = cur
	}
	return out
}

// ResetDomain returns a copy of domains with metric set back to autoscale.
func ResetDomain(domains Domains, metric string) Domains {
	out := domains.Clone()
	out[metric] = Domain{}
	return out
}

// ResetAll returns a copy of domains with every visible metric set back to
// autoscale.
func ResetAll(domains Domains, visibleMetrics []string) Domains {
	out := domains.Clone()
	for _, m := range visibleMetrics {
		out[m] = Domain{}
	}
	return out
}
