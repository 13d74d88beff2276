package detect

// #region source
// Source identifies which layer produced a detection signal.
type Source string

const (
	SourcePattern    Source = "pattern"
	SourceClassifier Source = "classifier"
	SourceFloor      Source = "floor"
)

// #endregion source

// #region signal
// Signal is the per-turn detection output consumed by the combiner.
type Signal struct {
	Source     Source  `json:"source"`
	IsScam     bool    `json:"is_scam"`
	Confidence float64 `json:"confidence"`
	Category   string  `json:"category,omitempty"`
}

// #endregion signal
