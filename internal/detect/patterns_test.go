package detect

import "testing"

func TestMatchCategories(t *testing.T) {
	m := NewMatcher()

	tests := []struct {
		name         string
		text         string
		wantCategory string
		wantMinConf  float64
	}{
		{"otp-request", "send your OTP immediately to verify account", CategoryCredentialTheft, 0.9},
		{"pin-request", "Please share your PIN to complete the refund", CategoryCredentialTheft, 0.9},
		{"account-threat", "There is unusual activity and your account will be blocked today", CategoryAccountThreat, 0.85},
		{"prize", "Congratulations! You have won the lucky draw prize money", CategoryPrizeLottery, 0.88},
		{"phishing", "Click this link bit.ly/x8 to update your KYC here", CategoryPhishingLink, 0.9},
		{"impersonation", "I am calling from your bank regarding your card", CategoryImpersonation, 0.87},
		{"advance-fee", "Pay a processing fee of 500 to release the parcel", CategoryAdvanceFee, 0.86},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig, ok := m.Match(tt.text)
			if !ok {
				t.Fatalf("expected a match for %q", tt.text)
			}
			if !sig.IsScam {
				t.Fatal("expected IsScam=true")
			}
			if sig.Source != SourcePattern {
				t.Fatalf("source: got %q", sig.Source)
			}
			if sig.Category != tt.wantCategory {
				t.Fatalf("category: got %q, want %q", sig.Category, tt.wantCategory)
			}
			if sig.Confidence < tt.wantMinConf {
				t.Fatalf("confidence: got %f, want >= %f", sig.Confidence, tt.wantMinConf)
			}
			if sig.Confidence > 0.95 {
				t.Fatalf("confidence exceeds cap: %f", sig.Confidence)
			}
		})
	}
}

func TestMatchInconclusive(t *testing.T) {
	m := NewMatcher()
	for _, text := range []string{
		"hi how are you",
		"the weather is nice today",
		"",
	} {
		if sig, ok := m.Match(text); ok {
			t.Fatalf("expected inconclusive for %q, got %+v", text, sig)
		}
	}
}

func TestMatchStrongestCategoryWins(t *testing.T) {
	m := NewMatcher()
	// Both credential theft (0.95) and account threat (0.85) phrases
	// present: the stronger category supplies base weight and category.
	sig, ok := m.Match("unusual activity detected, share your otp to verify")
	if !ok {
		t.Fatal("expected a match")
	}
	if sig.Category != CategoryCredentialTheft {
		t.Fatalf("category: got %q, want %q", sig.Category, CategoryCredentialTheft)
	}
	if sig.Confidence != 0.95 {
		t.Fatalf("confidence: got %f, want capped 0.95", sig.Confidence)
	}
}

func TestMatchAdditionalMatchesRaiseConfidence(t *testing.T) {
	m := NewMatcher()

	one, ok := m.Match("your kyc expired")
	if !ok {
		t.Fatal("expected a match")
	}
	two, ok := m.Match("your kyc expired, urgent action required")
	if !ok {
		t.Fatal("expected a match")
	}
	if two.Confidence <= one.Confidence {
		t.Fatalf("additional match did not raise confidence: %f vs %f", two.Confidence, one.Confidence)
	}
}

func TestMatchIsPure(t *testing.T) {
	m := NewMatcher()
	text := "send otp to verify"
	a, _ := m.Match(text)
	b, _ := m.Match(text)
	if a != b {
		t.Fatalf("matcher not deterministic: %+v vs %+v", a, b)
	}
}
