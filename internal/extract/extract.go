// Package extract implements the hybrid intelligence extraction
// pipeline: a deterministic regex pass over the message text plus
// validation of candidate entities supplied by the engagement
// collaborator. Both feed a per-category set for the turn; accumulation
// into the session is a commutative, idempotent union.
package extract

import (
	"regexp"
	"strings"

	"baitline/internal/session"
)

// #region candidate

// Candidate is an externally-supplied entity (e.g. a value the
// generative collaborator spotted spelled out or obfuscated). It is not
// trusted as-is: it passes the same category validator as the
// deterministic pass or is silently dropped.
type Candidate struct {
	Category session.Category `json:"category"`
	Value    string           `json:"value"`
}

// #endregion candidate

// #region patterns

var (
	urlPattern   = regexp.MustCompile(`(?i)\bhttps?://[^\s<>"]+|\b(?:bit\.ly|tinyurl\.com|t\.co)/[^\s<>"]+`)
	emailPattern = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	// handle@provider payment ids; providers carry no dot, which keeps
	// them disjoint from emails once emails are scrubbed from the text.
	paymentPattern = regexp.MustCompile(`(?i)\b[a-z0-9._\-]{2,256}@[a-z]{2,20}\b`)
	// Phones need a non-digit left edge; Go regexp has no lookbehind, so
	// the edge is part of the match and group 1 holds the number. The
	// right edge is checked in code so a phone is never carved out of a
	// longer digit run (an account number's tail is not a phone).
	phonePattern   = regexp.MustCompile(`(?:^|[^\d])((?:\+?91[\s\-]?|0)?[6-9]\d{4}[\s\-]?\d{5})`)
	accountPattern = regexp.MustCompile(`\b\d{9,18}\b`)
	refPattern     = regexp.MustCompile(`\b[A-Z]{2,4}-?\d{4,10}\b`)
	// contact handles need a non-word left edge; Go regexp has no
	// lookbehind, so the edge is part of the match and group 1 holds
	// the handle.
	contactPattern = regexp.MustCompile(`(?:^|[\s,;:(])(@[A-Za-z_][A-Za-z0-9_]{2,31})\b`)
)

// #endregion patterns

// #region extractor

// Extractor runs the per-turn extraction pass. Stateless and safe for
// concurrent use.
type Extractor struct{}

// NewExtractor creates an Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract returns the turn's per-category set: the union of the
// deterministic pass over text and the validated candidates. Values are
// normalized (case-folded, separator-stripped) before dedup, so calling
// Extract twice on identical input yields identical sets.
func (e *Extractor) Extract(text string, candidates []Candidate) session.Intelligence {
	result := session.Intelligence{}

	// The deterministic pass scrubs each matched span from the working
	// text so later, looser patterns cannot re-claim it under another
	// category (an email's local part is not a payment handle; a phone
	// is not an account number).
	working := text

	working = extractPass(working, urlPattern, session.CategoryURL, ValidURL, result)
	working = extractPass(working, emailPattern, session.CategoryEmail, ValidEmail, result)
	working = extractPass(working, paymentPattern, session.CategoryPaymentHandle, ValidPaymentHandle, result)
	working = extractPhones(working, result)
	working = extractPass(working, accountPattern, session.CategoryAccountNumber, ValidAccountNumber, result)
	working = extractPass(working, refPattern, session.CategoryReferenceCode, ValidReferenceCode, result)
	extractContactHandles(working, result)

	// Candidate pass: same validators, invalid entries dropped silently.
	for _, c := range candidates {
		v := Normalize(c.Category, c.Value)
		if v == "" {
			continue
		}
		if !Valid(c.Category, v) {
			continue
		}
		addValue(result, c.Category, v)
	}

	for cat := range result {
		sortValues(result[cat])
	}
	return result
}

// Accumulate merges a turn result into the session's accumulated set.
// Thin wrapper over the session union so call sites never hand-roll the
// merge.
func Accumulate(accumulated session.Intelligence, turn session.Intelligence) (session.Intelligence, int) {
	return session.UnionIntelligence(accumulated, turn)
}

// #endregion extractor

// #region passes

// extractPass collects pattern matches that survive the validator,
// returning the text with matched spans blanked out.
func extractPass(text string, pattern *regexp.Regexp, cat session.Category, valid func(string) bool, out session.Intelligence) string {
	matches := pattern.FindAllString(text, -1)
	for _, raw := range matches {
		v := Normalize(cat, raw)
		if v == "" || !valid(v) {
			continue
		}
		addValue(out, cat, v)
	}
	return pattern.ReplaceAllStringFunc(text, func(raw string) string {
		v := Normalize(cat, raw)
		if v != "" && valid(v) {
			return " "
		}
		return raw
	})
}

// extractPhones is the submatch-aware variant of extractPass: group 1
// is the number, the left edge is a consumed non-digit. A candidate
// followed by another digit is part of a longer run and is left intact
// for the account pass.
func extractPhones(text string, out session.Intelligence) string {
	spans := phonePattern.FindAllStringSubmatchIndex(text, -1)
	if len(spans) == 0 {
		return text
	}
	var scrubbed strings.Builder
	last := 0
	for _, m := range spans {
		start, end := m[2], m[3]
		if end < len(text) && text[end] >= '0' && text[end] <= '9' {
			continue
		}
		v := normalizePhone(text[start:end])
		if !ValidPhone(v) {
			continue
		}
		addValue(out, session.CategoryPhone, v)
		scrubbed.WriteString(text[last:start])
		scrubbed.WriteString(" ")
		last = end
	}
	scrubbed.WriteString(text[last:])
	return scrubbed.String()
}

func extractContactHandles(text string, out session.Intelligence) {
	for _, groups := range contactPattern.FindAllStringSubmatch(text, -1) {
		v := Normalize(session.CategoryContactHandle, groups[1])
		if v == "" || !ValidContactHandle(v) {
			continue
		}
		addValue(out, session.CategoryContactHandle, v)
	}
}

func addValue(out session.Intelligence, cat session.Category, v string) {
	for _, existing := range out[cat] {
		if existing == v {
			return
		}
	}
	out[cat] = append(out[cat], v)
}

func sortValues(values []string) {
	for i := 1; i < len(values); i++ {
		for j := i; j > 0 && values[j] < values[j-1]; j-- {
			values[j], values[j-1] = values[j-1], values[j]
		}
	}
}

// #endregion passes

// #region normalize

// Normalize canonicalizes a raw value for its category so dedup works
// across formatting variants. Returns "" when the value is empty after
// normalization.
func Normalize(cat session.Category, raw string) string {
	v := strings.TrimSpace(raw)
	switch cat {
	case session.CategoryPhone:
		return normalizePhone(v)
	case session.CategoryURL:
		return strings.ToLower(strings.TrimRight(v, ".,;!?)"))
	case session.CategoryIdentityName:
		return strings.ToLower(strings.Join(strings.Fields(v), " "))
	case session.CategoryReferenceCode:
		return strings.ToUpper(strings.ReplaceAll(v, " ", ""))
	default:
		return strings.ToLower(strings.Join(strings.Fields(v), ""))
	}
}

// normalizePhone strips separators and the +91/0 prefix, canonicalizing
// to the bare 10-digit national number.
func normalizePhone(v string) string {
	var digits strings.Builder
	for _, r := range v {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	if len(d) == 12 && strings.HasPrefix(d, "91") {
		d = d[2:]
	}
	if len(d) == 11 && strings.HasPrefix(d, "0") {
		d = d[1:]
	}
	return d
}

// #endregion normalize
