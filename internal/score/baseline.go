package score

// Baseline tracks the highest tenths band reached since the last reset. Its
// floor never decreases on its own, so briefly dropping activity cannot lower
// the effective score once a band has been touched.
//
// A Baseline is owned by a single monitoring loop and is not safe for
// concurrent use.
type Baseline struct {
	highest Tenths
}

// NewBaseline returns a tracker with a floor of zero.
func NewBaseline() *Baseline {
	return &Baseline{}
}

// Update records a fused score and returns the current floor.
func (b *Baseline) Update(fused float64) float64 {
	if band := BandOf(fused); band > b.highest {
		b.highest = band
	}
	return b.highest.Float()
}

// Floor returns the current floor without recording anything.
func (b *Baseline) Floor() float64 {
	return b.highest.Float()
}

// Band returns the highest band reached as integer tenths.
func (b *Baseline) Band() Tenths {
	return b.highest
}

// Reset drops the floor back to zero.
func (b *Baseline) Reset() {
	b.highest = 0
}

// Effective returns max(fused, floor), the value compared against the
// trigger threshold.
func Effective(fused, floor float64) float64 {
	fused = Clamp(fused)
	if floor > fused {
		return floor
	}
	return fused
}
