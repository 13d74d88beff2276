package extract

import (
	"testing"

	"baitline/internal/session"

	"github.com/google/go-cmp/cmp"
)

func TestExtractDeterministicPass(t *testing.T) {
	e := NewExtractor()

	tests := []struct {
		name string
		text string
		want session.Intelligence
	}{
		{
			"payment-handle-allowlist",
			"send the amount to rakesh.kr@okaxis right now",
			session.Intelligence{session.CategoryPaymentHandle: {"rakesh.kr@okaxis"}},
		},
		{
			"payment-handle-phone-derived",
			"my id is 9876543210@fakepay",
			session.Intelligence{session.CategoryPaymentHandle: {"9876543210@fakepay"}},
		},
		{
			"phone-with-country-code",
			"call me on +91 98765 43210 before 5pm",
			session.Intelligence{session.CategoryPhone: {"9876543210"}},
		},
		{
			"phone-bare",
			"whatsapp 9123456780 now",
			session.Intelligence{session.CategoryPhone: {"9123456780"}},
		},
		{
			"account-number",
			"deposit into account 304985761234 today",
			session.Intelligence{session.CategoryAccountNumber: {"304985761234"}},
		},
		{
			// A long account number whose tail looks like a phone must
			// survive the phone pass intact.
			"account-not-truncated-to-phone",
			"transfer to account 12345678901234567 today",
			session.Intelligence{session.CategoryAccountNumber: {"12345678901234567"}},
		},
		{
			"phone-and-account-same-turn",
			"account 304985761234, call 9876543210",
			session.Intelligence{
				session.CategoryAccountNumber: {"304985761234"},
				session.CategoryPhone:         {"9876543210"},
			},
		},
		{
			"url",
			"verify at https://secure-bank.example/verify?id=9 now",
			session.Intelligence{session.CategoryURL: {"https://secure-bank.example/verify?id=9"}},
		},
		{
			"shortener",
			"claim here bit.ly/3xPrize today",
			session.Intelligence{session.CategoryURL: {"bit.ly/3xprize"}},
		},
		{
			"email",
			"mail the form to claims.dept@lottery-india.example.com",
			session.Intelligence{session.CategoryEmail: {"claims.dept@lottery-india.example.com"}},
		},
		{
			"reference-code",
			"quote reference code KYC-482910 when you call",
			session.Intelligence{session.CategoryReferenceCode: {"KYC-482910"}},
		},
		{
			"contact-handle",
			"message me on telegram @refund_desk99",
			session.Intelligence{session.CategoryContactHandle: {"@refund_desk99"}},
		},
		{
			"nothing",
			"ok I will think about it",
			session.Intelligence{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Extract(tt.text, nil)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("Extract (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExtractCategoryDisjointness(t *testing.T) {
	e := NewExtractor()

	// An email must not also surface as a payment handle, and a phone
	// must not also surface as an account number.
	got := e.Extract("pay 9876543210, details at helpdesk@refunds.example.org", nil)

	if got.Has(session.CategoryPaymentHandle) {
		t.Fatalf("email leaked into payment handles: %v", got[session.CategoryPaymentHandle])
	}
	if got.Has(session.CategoryAccountNumber) {
		t.Fatalf("phone leaked into account numbers: %v", got[session.CategoryAccountNumber])
	}
	if !got.Has(session.CategoryEmail) || !got.Has(session.CategoryPhone) {
		t.Fatalf("expected email and phone, got %v", got)
	}
}

func TestExtractIdempotent(t *testing.T) {
	e := NewExtractor()
	text := "won PRIZE! send fee to lucky@ybl, call 9876543210, code LTR-55012"

	a := e.Extract(text, nil)
	b := e.Extract(text, nil)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("extraction not deterministic:\n%s", diff)
	}
}

func TestExtractDedupWithinTurn(t *testing.T) {
	e := NewExtractor()
	got := e.Extract("call 9876543210 or +91-9876543210 or 09876543210", nil)
	if len(got[session.CategoryPhone]) != 1 {
		t.Fatalf("formatting variants not deduped: %v", got[session.CategoryPhone])
	}
}

func TestExtractValidatesCandidates(t *testing.T) {
	e := NewExtractor()

	candidates := []Candidate{
		{session.CategoryPhone, "98765 43210"},             // valid after normalization
		{session.CategoryPhone, "12345"},                   // too short: dropped
		{session.CategoryAccountNumber, "1111111111111"},   // all same digit: dropped
		{session.CategoryIdentityName, "Rakesh Kumar"},     // valid
		{session.CategoryIdentityName, "x"},                // not a name: dropped
		{session.CategoryPaymentHandle, "meet@five"},       // unknown provider, no digits: dropped
		{session.Category("unknown-cat"), "whatever"},      // unknown category: dropped
	}

	got := e.Extract("nothing here", candidates)

	want := session.Intelligence{
		session.CategoryPhone:        {"9876543210"},
		session.CategoryIdentityName: {"rakesh kumar"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("candidate validation (-want +got):\n%s", diff)
	}
}

func TestExtractMergesDeterministicAndCandidates(t *testing.T) {
	e := NewExtractor()

	got := e.Extract(
		"send to scammer@paytm",
		[]Candidate{
			{session.CategoryPaymentHandle, "SCAMMER@PAYTM"}, // dup after case fold
			{session.CategoryPhone, "9123456780"},
		},
	)

	want := session.Intelligence{
		session.CategoryPaymentHandle: {"scammer@paytm"},
		session.CategoryPhone:         {"9123456780"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("merge (-want +got):\n%s", diff)
	}
}

func TestAccumulateAcrossTurns(t *testing.T) {
	e := NewExtractor()

	// The same values re-appearing verbatim in a later turn must not
	// duplicate in the accumulated set.
	turn1 := e.Extract("pay to lucky@ybl or call 9876543210", nil)
	turn2 := e.Extract("reminder: lucky@ybl, 9876543210", nil)

	acc, _ := Accumulate(session.Intelligence{}, turn1)
	acc, added := Accumulate(acc, turn2)

	if added != 0 {
		t.Fatalf("repeat turn added %d values", added)
	}
	if len(acc[session.CategoryPaymentHandle]) != 1 || len(acc[session.CategoryPhone]) != 1 {
		t.Fatalf("accumulated: %v", acc)
	}
}
