package detect

// #region config

// CombinerConfig holds the combiner's tuning knobs.
type CombinerConfig struct {
	// FloorConfidence is the safety-net floor applied when the pattern
	// layer is inconclusive and the classifier is unavailable. It keeps
	// an inconclusive turn distinguishable from a confirmed-safe one.
	FloorConfidence float64
}

// DefaultCombinerConfig returns the standard floor.
func DefaultCombinerConfig() CombinerConfig {
	return CombinerConfig{FloorConfidence: 0.4}
}

// #endregion config

// #region combiner

// Combiner merges the pattern and classifier signals into the turn's
// final signal and applies the monotonic-escalation invariant in one
// place.
type Combiner struct {
	config CombinerConfig
}

// NewCombiner creates a combiner with the given configuration.
func NewCombiner(config CombinerConfig) *Combiner {
	return &Combiner{config: config}
}

// Floor returns the configured safety-net floor.
func (c *Combiner) Floor() float64 {
	return c.config.FloorConfidence
}

// Combine picks the turn's raw confidence — pattern signal first,
// classifier second, safety-net floor last — then raises it to the
// session's previous confidence. Category follows whichever signal
// produced the confidence; on the floor path it carries over from the
// previous turn unchanged.
func (c *Combiner) Combine(pattern, classifier *Signal, prevConfidence float64, prevCategory string) Signal {
	var out Signal
	switch {
	case pattern != nil:
		out = *pattern
	case classifier != nil:
		out = *classifier
	default:
		out = Signal{
			Source:     SourceFloor,
			IsScam:     prevConfidence >= c.config.FloorConfidence,
			Confidence: c.config.FloorConfidence,
			Category:   prevCategory,
		}
	}

	if prevConfidence > out.Confidence {
		out.Confidence = prevConfidence
	}
	if out.Category == "" {
		out.Category = prevCategory
	}
	return out
}

// #endregion combiner
