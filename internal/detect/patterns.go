package detect

// #region imports
import "strings"

// #endregion

// #region categories

// Detection categories for the pattern layer. The classifier collaborator
// reports the same category names so the combiner can carry them through.
const (
	CategoryCredentialTheft = "credential_theft"
	CategoryAccountThreat   = "account_threat"
	CategoryPrizeLottery    = "prize_lottery"
	CategoryPhishingLink    = "phishing_link"
	CategoryImpersonation   = "authority_impersonation"
	CategoryAdvanceFee      = "advance_fee"
)

// #endregion categories

// #region pattern-set

// categoryPattern is one weighted keyword set. A category matches when
// any of its phrases occurs in the lowercased message text.
type categoryPattern struct {
	category string
	weight   float64
	phrases  []string
}

// patternSets orders categories by base weight, highest first, so the
// strongest matched category supplies the base confidence.
var patternSets = []categoryPattern{
	{
		category: CategoryCredentialTheft,
		weight:   0.95,
		phrases: []string{
			"otp", "one time password", "one-time password",
			"verification code", "share your pin", "share pin",
			"your cvv", "card number and cvv", "netbanking password",
			"upi pin", "atm pin",
		},
	},
	{
		category: CategoryPhishingLink,
		weight:   0.90,
		phrases: []string{
			"click this link", "click the link below", "click here to verify",
			"bit.ly/", "tinyurl.com/", "login to secure your account",
			"update your kyc here",
		},
	},
	{
		category: CategoryPrizeLottery,
		weight:   0.88,
		phrases: []string{
			"you have won", "you've won", "lottery", "lucky draw",
			"claim your prize", "congratulations! you", "prize money",
			"jackpot",
		},
	},
	{
		category: CategoryImpersonation,
		weight:   0.87,
		phrases: []string{
			"calling from your bank", "speaking from the bank",
			"income tax department", "customs department", "cyber cell",
			"police verification", "rbi officer", "telecom authority",
		},
	},
	{
		category: CategoryAdvanceFee,
		weight:   0.86,
		phrases: []string{
			"processing fee", "registration fee", "small fee to release",
			"gst charges", "transfer the amount to", "send money to this",
			"refundable deposit",
		},
	},
	{
		category: CategoryAccountThreat,
		weight:   0.85,
		phrases: []string{
			"unusual activity", "suspicious activity on your account",
			"account will be blocked", "account will be suspended",
			"account has been suspended", "verify your account immediately",
			"kyc expired", "kyc will expire", "urgent action required",
		},
	},
}

// #endregion pattern-set

// #region matcher

// Matcher is the deterministic first-pass detector. A pure function of
// the message text; no state, no external calls.
type Matcher struct {
	sets []categoryPattern
}

// NewMatcher creates a matcher over the built-in pattern sets.
func NewMatcher() *Matcher {
	return &Matcher{sets: patternSets}
}

// Match scans text against every category. When at least one phrase
// matches, it returns a scam signal with confidence
// min(0.95, baseWeight + 0.03*additionalMatches), where baseWeight is
// the strongest matched category's weight and additionalMatches counts
// every phrase hit beyond the first. When nothing matches the result is
// inconclusive (ok=false), not a low-confidence safe verdict.
func (m *Matcher) Match(text string) (Signal, bool) {
	lower := strings.ToLower(text)

	var best *categoryPattern
	totalHits := 0
	for i := range m.sets {
		set := &m.sets[i]
		for _, phrase := range set.phrases {
			if strings.Contains(lower, phrase) {
				totalHits++
				if best == nil || set.weight > best.weight {
					best = set
				}
			}
		}
	}

	if best == nil {
		return Signal{}, false
	}

	confidence := best.weight + 0.03*float64(totalHits-1)
	if confidence > 0.95 {
		confidence = 0.95
	}

	return Signal{
		Source:     SourcePattern,
		IsScam:     true,
		Confidence: confidence,
		Category:   best.category,
	}, true
}

// #endregion matcher
