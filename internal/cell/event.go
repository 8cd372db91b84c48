package cell

// Event is a bioelectric firing rule evaluated once per round against the
// cell's committed potential.
type Event interface {
	Fire(c *Cell)
}

// FiringFunc decides whether an event fires at the given potential.
type FiringFunc func(potential float64) bool

// Rand is the randomness used by stochastic firing functions.
// *math/rand/v2.Rand satisfies it.
type Rand interface {
	Float64() float64
}

// AtLeast fires once the potential reaches threshold.
func AtLeast(threshold float64) FiringFunc {
	return func(p float64) bool { return p >= threshold }
}

// CoinFlipBand never fires below lo, always fires at or above hi, and
// fires with probability one half in between. A nil rng never fires inside
// the band.
func CoinFlipBand(lo, hi float64, rng Rand) FiringFunc {
	return func(p float64) bool {
		switch {
		case p < lo:
			return false
		case p >= hi:
			return true
		case rng == nil:
			return false
		default:
			return rng.Float64() < 0.5
		}
	}
}

// LigandEvent is the self-potential event: when it fires it broadcasts
// Ligand to every neighbor and adds Offset to the cell's pending change.
type LigandEvent struct {
	Fires  FiringFunc
	Ligand Ligand
	Offset float64
}

// Fire implements Event.
func (e LigandEvent) Fire(c *Cell) {
	if !e.Fires(c.potential) {
		return
	}
	if e.Ligand != "" {
		c.Broadcast(e.Ligand)
	}
	c.AddChange(e.Offset)
}

// TransformEvent is the threshold-transform event: when it fires it
// broadcasts Ligand to every neighbor and immediately morphs the cell into
// the phenotype built by Target, without waiting for the integrate phase.
type TransformEvent struct {
	Fires  FiringFunc
	Ligand Ligand
	Target func() Phenotype
}

// Fire implements Event.
func (e TransformEvent) Fire(c *Cell) {
	if !e.Fires(c.potential) {
		return
	}
	if e.Ligand != "" {
		c.Broadcast(e.Ligand)
	}
	c.MorphicTransform(e.Target())
}

// EventFunc adapts a plain function to the Event interface.
type EventFunc func(c *Cell)

// Fire implements Event.
func (f EventFunc) Fire(c *Cell) { f(c) }
