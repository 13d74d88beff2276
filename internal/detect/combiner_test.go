package detect

import "testing"

func TestCombinePatternWins(t *testing.T) {
	c := NewCombiner(DefaultCombinerConfig())
	pattern := &Signal{Source: SourcePattern, IsScam: true, Confidence: 0.95, Category: CategoryCredentialTheft}
	classifier := &Signal{Source: SourceClassifier, IsScam: true, Confidence: 0.6, Category: CategoryAccountThreat}

	got := c.Combine(pattern, classifier, 0, "")
	if got.Confidence != 0.95 || got.Category != CategoryCredentialTheft {
		t.Fatalf("got %+v", got)
	}
}

func TestCombineClassifierWhenPatternInconclusive(t *testing.T) {
	c := NewCombiner(DefaultCombinerConfig())
	classifier := &Signal{Source: SourceClassifier, IsScam: false, Confidence: 0.2}

	got := c.Combine(nil, classifier, 0, "")
	if got.Confidence != 0.2 || got.Source != SourceClassifier {
		t.Fatalf("got %+v", got)
	}
}

func TestCombineSafetyNetFloor(t *testing.T) {
	c := NewCombiner(CombinerConfig{FloorConfidence: 0.4})

	// No pattern, classifier unavailable, no prior session: floor, not 0.
	got := c.Combine(nil, nil, 0, "")
	if got.Confidence != 0.4 {
		t.Fatalf("confidence: got %f, want floor 0.4", got.Confidence)
	}
	if got.Source != SourceFloor {
		t.Fatalf("source: got %q", got.Source)
	}
}

func TestCombineFloorDoesNotDeescalate(t *testing.T) {
	c := NewCombiner(CombinerConfig{FloorConfidence: 0.4})

	// Previously flagged session stays at its confidence on an
	// inconclusive turn, and keeps its category.
	got := c.Combine(nil, nil, 0.72, CategoryAccountThreat)
	if got.Confidence != 0.72 {
		t.Fatalf("confidence: got %f, want 0.72", got.Confidence)
	}
	if got.Category != CategoryAccountThreat {
		t.Fatalf("category: got %q, want carried over", got.Category)
	}
	if !got.IsScam {
		t.Fatal("previously flagged session lost its scam verdict")
	}
}

func TestCombineMonotonicEscalation(t *testing.T) {
	c := NewCombiner(DefaultCombinerConfig())

	// Scenario 2 → 3 → 4 from a fresh session.
	turn1 := c.Combine(nil, &Signal{Source: SourceClassifier, Confidence: 0.2}, 0, "")
	if turn1.Confidence != 0.2 {
		t.Fatalf("turn 1: %f", turn1.Confidence)
	}

	turn2 := c.Combine(nil, &Signal{Source: SourceClassifier, IsScam: true, Confidence: 0.72, Category: CategoryAccountThreat}, turn1.Confidence, turn1.Category)
	if turn2.Confidence != 0.72 {
		t.Fatalf("turn 2: %f", turn2.Confidence)
	}

	turn3 := c.Combine(&Signal{Source: SourcePattern, IsScam: true, Confidence: 0.95, Category: CategoryCredentialTheft}, nil, turn2.Confidence, turn2.Category)
	if turn3.Confidence != 0.95 {
		t.Fatalf("turn 3: %f", turn3.Confidence)
	}

	// A weaker later signal is raised to the previous confidence.
	turn4 := c.Combine(nil, &Signal{Source: SourceClassifier, IsScam: true, Confidence: 0.5, Category: CategoryAdvanceFee}, turn3.Confidence, turn3.Category)
	if turn4.Confidence != 0.95 {
		t.Fatalf("turn 4: confidence dropped to %f", turn4.Confidence)
	}
	if turn4.Category != CategoryAdvanceFee {
		t.Fatalf("turn 4: category should follow the producing signal, got %q", turn4.Category)
	}
}
