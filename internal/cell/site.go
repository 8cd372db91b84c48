package cell

// Reaction is the outcome of integrating bound ligands for one round.
type Reaction struct {
	// Delta is added to the cell's pending potential change.
	Delta float64
	// Transform, when non-nil, morphs the cell and discards Delta.
	Transform *Phenotype
}

// Policy converts the occupancy of one ligand site into a reaction.
// React is only called with a positive occupancy count.
type Policy interface {
	React(count int) Reaction
}

// DeltaPolicy shifts the potential by PerLigand for each bound ligand once
// the occupancy exceeds Threshold.
type DeltaPolicy struct {
	PerLigand float64
	Threshold int
}

// React implements Policy.
func (p DeltaPolicy) React(count int) Reaction {
	if count <= p.Threshold {
		return Reaction{}
	}
	return Reaction{Delta: p.PerLigand * float64(count)}
}

// TransformPolicy morphs the cell once the occupancy exceeds Threshold.
// Target is called for every transform so that each cell receives its own
// events and mailboxes.
type TransformPolicy struct {
	Target    func() Phenotype
	Threshold int
}

// React implements Policy.
func (p TransformPolicy) React(count int) Reaction {
	if count <= p.Threshold {
		return Reaction{}
	}
	next := p.Target()
	return Reaction{Transform: &next}
}

// Site is a capacity-limited mailbox for one ligand kind, paired with the
// policy that reacts to it.
type Site struct {
	ligand   Ligand
	capacity int
	count    int
	policy   Policy
}

// NewSite creates an empty site. A capacity below zero is treated as zero.
func NewSite(l Ligand, capacity int, p Policy) *Site {
	if capacity < 0 {
		capacity = 0
	}
	return &Site{ligand: l, capacity: capacity, policy: p}
}

// Ligand returns the ligand kind the site binds.
func (s *Site) Ligand() Ligand { return s.ligand }

// Capacity returns the maximum occupancy.
func (s *Site) Capacity() int { return s.capacity }

// Occupancy returns the number of ligands currently bound.
func (s *Site) Occupancy() int { return s.count }

// Bind adds one ligand if the site is not full. It reports whether the
// ligand was bound.
func (s *Site) Bind() bool {
	if s.count >= s.capacity {
		return false
	}
	s.count++
	return true
}

// react returns the policy's reaction to the current occupancy and
// empties the site.
func (s *Site) react() Reaction {
	count := s.count
	s.count = 0
	if count == 0 || s.policy == nil {
		return Reaction{}
	}
	return s.policy.React(count)
}

// Membrane is the set of ligand sites on a cell.
type Membrane struct {
	sites    []*Site
	byLigand map[Ligand]*Site
}

// NewMembrane builds a membrane from sites. Sites react in the given
// order; a later site for the same ligand replaces the earlier one.
func NewMembrane(sites ...*Site) *Membrane {
	m := &Membrane{byLigand: make(map[Ligand]*Site, len(sites))}
	for _, s := range sites {
		if s == nil {
			continue
		}
		if prev, ok := m.byLigand[s.ligand]; ok {
			for i := range m.sites {
				if m.sites[i] == prev {
					m.sites[i] = s
				}
			}
		} else {
			m.sites = append(m.sites, s)
		}
		m.byLigand[s.ligand] = s
	}
	return m
}

// Site returns the site binding l, or nil.
func (m *Membrane) Site(l Ligand) *Site {
	return m.byLigand[l]
}

// Sites returns the sites in reaction order.
func (m *Membrane) Sites() []*Site {
	return m.sites
}

// Occupancy returns the bound count for l, or 0 if there is no such site.
func (m *Membrane) Occupancy(l Ligand) int {
	if s := m.byLigand[l]; s != nil {
		return s.count
	}
	return 0
}

// Bind routes a ligand to its site. It reports whether it was bound.
func (m *Membrane) Bind(l Ligand) bool {
	s := m.byLigand[l]
	if s == nil {
		return false
	}
	return s.Bind()
}

// React combines the reactions of every site and empties all of them.
// Deltas add up; the first transform in site order wins.
func (m *Membrane) React() Reaction {
	var out Reaction
	for _, s := range m.sites {
		r := s.react()
		out.Delta += r.Delta
		if r.Transform != nil && out.Transform == nil {
			out.Transform = r.Transform
		}
	}
	if out.Transform != nil {
		out.Delta = 0
	}
	return out
}
