package extract

import (
	"regexp"
	"strings"

	"baitline/internal/session"
)

// #region allowlist

// upiProviders is the known-provider allowlist for payment handles.
// Handles on unknown providers fall back to a stricter shape check.
var upiProviders = map[string]bool{
	"upi": true, "ybl": true, "ibl": true, "axl": true, "apl": true,
	"okaxis": true, "oksbi": true, "okhdfcbank": true, "okicici": true,
	"okbizaxis": true, "paytm": true, "gpay": true, "freecharge": true,
	"airtel": true, "jio": true, "waaxis": true, "wahdfcbank": true,
	"wasbi": true, "waicici": true,
}

// #endregion allowlist

// #region validators

var (
	emailShape   = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`)
	paymentShape = regexp.MustCompile(`^[a-z0-9._\-]{2,256}@[a-z]{2,20}$`)
	refShape     = regexp.MustCompile(`^[A-Z]{2,4}-?\d{4,10}$`)
	contactShape = regexp.MustCompile(`^@[a-z_][a-z0-9_]{2,31}$`)
	nameWord     = regexp.MustCompile(`^[a-z][a-z'\-]{1,}$`)
	urlShape     = regexp.MustCompile(`^(?:https?://[^\s<>"]+|(?:bit\.ly|tinyurl\.com|t\.co)/[^\s<>"]+)$`)
)

// ValidPaymentHandle accepts handle@provider payment identifiers. A
// provider on the allowlist is accepted outright; an unknown provider is
// accepted only when the handle part carries a digit (phone-derived
// handles), which keeps plain words like "meet@five" out.
func ValidPaymentHandle(v string) bool {
	if !paymentShape.MatchString(v) {
		return false
	}
	at := strings.LastIndex(v, "@")
	handle, provider := v[:at], v[at+1:]
	if strings.Contains(handle, "@") {
		return false
	}
	if upiProviders[provider] {
		return true
	}
	return strings.ContainsAny(handle, "0123456789")
}

// ValidAccountNumber accepts 9-18 digit strings that are not trivially
// fake (all one digit) and not phone-shaped.
func ValidAccountNumber(v string) bool {
	if len(v) < 9 || len(v) > 18 {
		return false
	}
	allSame := true
	for i := 0; i < len(v); i++ {
		if v[i] < '0' || v[i] > '9' {
			return false
		}
		if v[i] != v[0] {
			allSame = false
		}
	}
	if allSame {
		return false
	}
	// 10 digits starting 6-9 is a mobile number, not an account.
	if len(v) == 10 && v[0] >= '6' && v[0] <= '9' {
		return false
	}
	// Likewise with a 91 country prefix.
	if len(v) == 12 && strings.HasPrefix(v, "91") && v[2] >= '6' && v[2] <= '9' {
		return false
	}
	return true
}

// ValidPhone accepts a normalized 10-digit national mobile number.
func ValidPhone(v string) bool {
	if len(v) != 10 {
		return false
	}
	if v[0] < '6' || v[0] > '9' {
		return false
	}
	allSame := true
	for i := 0; i < len(v); i++ {
		if v[i] < '0' || v[i] > '9' {
			return false
		}
		if v[i] != v[0] {
			allSame = false
		}
	}
	return !allSame
}

// ValidURL accepts http(s) URLs and bare shortener links.
func ValidURL(v string) bool {
	return urlShape.MatchString(v) && len(v) <= 2048
}

// ValidEmail accepts ordinary email shapes; the dotted domain keeps the
// category disjoint from payment handles.
func ValidEmail(v string) bool {
	return emailShape.MatchString(v) && len(v) <= 254
}

// ValidReferenceCode accepts fixed-format codes: 2-4 uppercase letters,
// optional dash, 4-10 digits.
func ValidReferenceCode(v string) bool {
	return refShape.MatchString(v)
}

// ValidContactHandle accepts @handle contact points (3-32 word chars).
func ValidContactHandle(v string) bool {
	return contactShape.MatchString(v)
}

// ValidIdentityName accepts 2-4 plain words of at least two letters
// each. Applied to normalized (lowercased) values, so it checks shape,
// not capitalization.
func ValidIdentityName(v string) bool {
	words := strings.Fields(v)
	if len(words) < 2 || len(words) > 4 {
		return false
	}
	for _, w := range words {
		if !nameWord.MatchString(w) {
			return false
		}
	}
	return true
}

// Valid dispatches to the category's validator. Unknown categories are
// invalid, which drops unrecognized candidate entities at the boundary.
func Valid(cat session.Category, v string) bool {
	switch cat {
	case session.CategoryPaymentHandle:
		return ValidPaymentHandle(v)
	case session.CategoryAccountNumber:
		return ValidAccountNumber(v)
	case session.CategoryPhone:
		return ValidPhone(v)
	case session.CategoryURL:
		return ValidURL(v)
	case session.CategoryEmail:
		return ValidEmail(v)
	case session.CategoryReferenceCode:
		return ValidReferenceCode(v)
	case session.CategoryContactHandle:
		return ValidContactHandle(v)
	case session.CategoryIdentityName:
		return ValidIdentityName(v)
	default:
		return false
	}
}

// #endregion validators
